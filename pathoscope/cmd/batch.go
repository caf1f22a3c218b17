// Copyright © 2024 The pathoscope Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pathoscope-go/pathoscope/pathoscope/cmd/reassign"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/cliutil"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze all samples in a directory",
	Long: `Analyze all samples in a directory

Every file matching -p/--pattern in -d/--in-dir (searched recursively) is
the alignment file of a sample, named after the file. A SAM file named
<sample><--host-suffix>.sam(.gz) in the same directory is used as the
subtraction alignments of <sample>.

Results of every sample are written into <out dir>/<sample>/, and a
summary of all samples into <out dir>/summary.tsv.

Samples are analyzed concurrently (-J/--jobs), each with -j/--threads
threads.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		o := getAnalysisOptions(cmd, opt)
		inDir := cliutil.GetFlagNonEmptyString(cmd, "in-dir")
		lengths := cliutil.GetFlagNonEmptyString(cmd, "lengths")
		outDir := cliutil.GetFlagNonEmptyString(cmd, "out-dir")
		force := cliutil.GetFlagBool(cmd, "force")
		pattern := cliutil.GetFlagNonEmptyString(cmd, "pattern")
		hostSuffix := cliutil.GetFlagString(cmd, "host-suffix")
		jobs := cliutil.GetFlagPositiveInt(cmd, "jobs")
		skipErr := cliutil.GetFlagBool(cmd, "skip-err")
		opt.Compress = !cliutil.GetFlagBool(cmd, "no-gzip")
		timeout := getFlagDuration(cmd, "timeout")

		re, err := regexp.Compile(pattern)
		checkError(errors.Wrapf(err, "invalid pattern: %s", pattern))

		verbose := opt.Verbose || opt.Log2File
		if verbose {
			log.Infof("pathoscope v%s", VERSION)
			log.Info()
			logAnalysisOptions(o)
			log.Info()
			log.Infof("checking input files in %s ...", inDir)
		}

		files, err := getFileListFromDir(inDir, re, opt.NumCPUs)
		checkError(errors.Wrap(err, inDir))
		samples, err := groupSampleFiles(files, hostSuffix, lengths)
		checkError(err)
		if len(samples) == 0 {
			checkError(fmt.Errorf("no samples found in %s", inDir))
		}
		if verbose {
			log.Infof("  %d sample(s) found", len(samples))
		}

		makeOutDir(outDir, force)

		// progress bar
		var pbs *mpb.Progress
		var bar *mpb.Bar
		if opt.Verbose {
			pbs = mpb.New(mpb.WithWidth(79), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(samples)),
				mpb.BarStyle("[=>-]<+"),
				mpb.PrependDecorators(
					decor.Name("analyzing sample: ", decor.WC{W: len("batch") + 1, C: decor.DidentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.EwmaETA(decor.ET_STYLE_GO, 60),
				),
			)
		}

		chDuration := make(chan time.Duration, jobs)
		done := make(chan int)
		go func() {
			for t := range chDuration {
				if bar != nil {
					bar.Increment()
					bar.DecoratorEwmaUpdate(t)
				}
			}
			done <- 1
		}()

		parent, cancelAll := context.WithCancel(context.Background())
		defer cancelAll()

		summaries := make([]batchSummary, len(samples))
		var wg sync.WaitGroup
		token := make(chan int, jobs)
		for i, sample := range samples {
			token <- 1
			wg.Add(1)
			go func(i int, sample batchSample) {
				startTime := time.Now()
				defer func() {
					wg.Done()
					<-token
					chDuration <- time.Since(startTime)
				}()

				summaries[i].id = sample.id
				if parent.Err() != nil {
					summaries[i].err = parent.Err()
					return
				}

				ctx, cancel := timeoutContext(parent, timeout)
				defer cancel()

				res, err := analyzeSample(ctx, sample, filepath.Join(outDir, sample.id), o, opt)
				if err != nil {
					summaries[i].err = err
					if !skipErr {
						cancelAll()
					}
					return
				}
				summaries[i].res = res
			}(i, sample)
		}
		wg.Wait()

		close(chDuration)
		<-done
		if pbs != nil {
			pbs.Wait()
		}

		file := filepath.Join(outDir, "summary.tsv")
		outfh, err := createOutFile(file, false, opt.CompressionLevel)
		checkError(err)
		var failed int
		outfh.WriteString("sample\tanalysis\treads\tsubtracted\titerations\tconverged\treferences\tstatus\n")
		for _, s := range summaries {
			if s.err != nil {
				failed++
				if s.err != context.Canceled {
					log.Warningf("sample %s: %s", s.id, s.err)
				}
				fmt.Fprintf(outfh, "%s\t\t\t\t\t\t\t%s\n", s.id, strings.ReplaceAll(s.err.Error(), "\t", " "))
				continue
			}
			r := s.res
			fmt.Fprintf(outfh, "%s\t%s\t%d\t%d\t%d\t%v\t%d\tok\n",
				s.id, r.AnalysisID, r.ReadCount, r.SubtractedCount, r.EM.Iterations, r.EM.Converged, len(r.Report))
		}
		checkError(outfh.Close())

		if verbose {
			log.Infof("%d of %d sample(s) analyzed, summary saved to %s", len(samples)-failed, len(samples), file)
		}
		if failed > 0 && !skipErr {
			checkError(fmt.Errorf("%d sample(s) failed", failed))
		}
	},
}

type batchSample struct {
	id    string
	files reassign.SampleFiles
}

type batchSummary struct {
	id  string
	res *reassign.Result
	err error
}

// groupSampleFiles pairs alignment files with their subtraction files.
// Samples are sorted by ID. Sample IDs must be unique across the whole
// input directory, since each names an output directory.
func groupSampleFiles(files []string, hostSuffix string, lengths string) ([]batchSample, error) {
	hosts := make(map[string]string, len(files))
	aligns := make(map[string]string, len(files))
	var id, key string
	for _, file := range files {
		id = sampleID(file)
		if hostSuffix != "" && strings.HasSuffix(id, hostSuffix) &&
			reassign.FormatOfFile(file) == reassign.SAM {
			key = filepath.Join(filepath.Dir(file), strings.TrimSuffix(id, hostSuffix))
			if other, ok := hosts[key]; ok {
				return nil, errors.Errorf("two subtraction files for one sample: %s, %s", other, file)
			}
			hosts[key] = file
			continue
		}
		aligns[file] = id
	}

	samples := make([]batchSample, 0, len(aligns))
	for file, id := range aligns {
		samples = append(samples, batchSample{
			id: id,
			files: reassign.SampleFiles{
				Alignments:  file,
				Subtraction: hosts[filepath.Join(filepath.Dir(file), id)],
				Lengths:     lengths,
			},
		})
	}
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].id == samples[j].id {
			return samples[i].files.Alignments < samples[j].files.Alignments
		}
		return samples[i].id < samples[j].id
	})

	for i := 1; i < len(samples); i++ {
		if samples[i].id == samples[i-1].id {
			return nil, errors.Errorf("duplicated sample ID %s: %s, %s",
				samples[i].id, samples[i-1].files.Alignments, samples[i].files.Alignments)
		}
	}
	return samples, nil
}

// analyzeSample runs one sample and writes its results into outDir.
func analyzeSample(ctx context.Context, sample batchSample, outDir string, o reassign.Options, opt *Options) (*reassign.Result, error) {
	s, err := reassign.LoadSample(sample.id, sample.files, o.Ingest)
	if err != nil {
		return nil, err
	}
	res, err := reassign.Run(ctx, s, o)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(outDir, 0777); err != nil {
		return nil, errors.Wrap(err, outDir)
	}
	return res, writeResult(outDir, res, opt)
}

func init() {
	RootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("in-dir", "d", "",
		formatFlagUsage(`Directory containing alignment files of samples.`))
	batchCmd.Flags().StringP("pattern", "p", `\.(vta|sam)(\.gz)?$`,
		formatFlagUsage(`Regular expression matching alignment files.`))
	batchCmd.Flags().StringP("host-suffix", "", ".host",
		formatFlagUsage(`Suffix of the base name of subtraction SAM files, "" for no subtraction.`))
	batchCmd.Flags().StringP("lengths", "l", "",
		formatFlagUsage(`Reference sequences in FASTA format, or a table of reference and length.`))
	batchCmd.Flags().StringP("out-dir", "o", "pathoscope.out",
		formatFlagUsage(`Output directory.`))
	batchCmd.Flags().BoolP("force", "f", false,
		formatFlagUsage(`Overwrite existing output directory.`))
	batchCmd.Flags().BoolP("no-gzip", "", false,
		formatFlagUsage(`Do not gzip output files.`))
	batchCmd.Flags().IntP("jobs", "J", 2,
		formatFlagUsage(`Number of samples analyzed at the same time.`))
	batchCmd.Flags().BoolP("skip-err", "k", false,
		formatFlagUsage(`Skip failed samples, otherwise stop at the first failure.`))

	addAnalysisFlags(batchCmd)

	batchCmd.SetUsageTemplate(usageTemplate("-d <in dir> -l <references> [-o <out dir>]"))
}
