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
	"os"
	"path/filepath"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pathoscope-go/pathoscope/pathoscope/cmd/reassign"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/cliutil"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

const (
	fileReassigned = "reassigned.vta"
	fileReport     = "report.tsv"
	fileDocument   = "pathoscope.json"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reassign ambiguous reads of a sample and report references",
	Long: `Reassign ambiguous reads of a sample and report references

Input:
  1. Alignments of reads against references (-a/--alignments), in SAM
     format (*.sam) or in the comma-separated format written by
     "pathoscope ingest" (read,reference,position,length,weight).
  2. Lengths of references (-l/--lengths), a FASTA file or a two-column
     tab-delimited file (reference, length).
  3. Optional, alignments against the subtraction (host) genome
     (-s/--subtraction), in SAM format or as a two-column table of
     read and best weight. Reads aligned to the subtraction at least
     as well as to their best reference are removed.

Output (in -o/--out-dir):
  1. reassigned.vta.gz  alignments kept after reassignment.
  2. report.tsv.gz      abundances, best hits, coverage of references.
  3. pathoscope.json.gz the whole result, including compressed coverage.

Steps:
  1. Ambiguous reads are split among candidate references in proportion
     to alignment weights (initial best hits).
  2. Abundances and posterior assignments are estimated with EM.
  3. Best hits are evaluated again, alignments with low posterior
     probabilities are dropped, and coverage is computed.

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
		files := reassign.SampleFiles{
			Alignments:  cliutil.GetFlagNonEmptyString(cmd, "alignments"),
			Subtraction: cliutil.GetFlagString(cmd, "subtraction"),
			Lengths:     cliutil.GetFlagNonEmptyString(cmd, "lengths"),
		}
		outDir := cliutil.GetFlagNonEmptyString(cmd, "out-dir")
		force := cliutil.GetFlagBool(cmd, "force")
		id := cliutil.GetFlagString(cmd, "sample-id")
		if id == "" {
			id = sampleID(files.Alignments)
		}
		opt.Compress = !cliutil.GetFlagBool(cmd, "no-gzip")
		timeout := getFlagDuration(cmd, "timeout")

		verbose := opt.Verbose || opt.Log2File
		if verbose {
			log.Infof("pathoscope v%s", VERSION)
			log.Info()
			logAnalysisOptions(o)
			log.Info()
		}

		makeOutDir(outDir, force)

		// ---------------------------------------------------------------

		if verbose {
			log.Infof("stage 1/3: loading input files of sample %s ...", id)
		}
		s, err := reassign.LoadSample(id, files, o.Ingest)
		checkError(err)
		if verbose {
			logSample(s)
		}

		// ---------------------------------------------------------------

		if verbose {
			log.Infof("stage 2/3: reassigning reads ...")
		}
		if opt.Debug {
			o.EM.Trace = func(iteration int, pi []float64, delta float64) {
				log.Debugf("  EM iteration %d, L1 change of abundances: %g", iteration, delta)
			}
		}
		ctx, cancel := timeoutContext(context.Background(), timeout)
		res, err := reassign.Run(ctx, s, o)
		cancel()
		if err == context.DeadlineExceeded {
			err = errors.Errorf("sample %s: analysis not finished in %s", id, timeout)
		}
		checkError(err)
		if verbose {
			logResult(res)
		}

		// ---------------------------------------------------------------

		if verbose {
			log.Infof("stage 3/3: writing results to %s ...", outDir)
		}
		checkError(writeResult(outDir, res, opt))
	},
}

func logSample(s *reassign.Sample) {
	st := s.Ingest
	log.Infof("  %s alignments accepted from %s lines", humanize.Comma(int64(st.Accepted)), humanize.Comma(int64(st.Lines)))
	if st.Unmapped+st.LowWeight+st.Malformed > 0 {
		log.Infof("  discarded: %s unmapped, %s of low weight, %s malformed",
			humanize.Comma(int64(st.Unmapped)), humanize.Comma(int64(st.LowWeight)), humanize.Comma(int64(st.Malformed)))
	}
	if s.Host != nil {
		log.Infof("  %s reads aligned to the subtraction", humanize.Comma(int64(len(s.Host))))
	}
	log.Infof("  lengths of %s references loaded", humanize.Comma(int64(len(s.Lengths))))
	log.Infof("  analysis id: %s", s.AnalysisID)
}

func logResult(res *reassign.Result) {
	m := res.Matrix
	if res.SubtractedCount > 0 {
		log.Infof("  %s reads removed by subtraction", humanize.Comma(int64(res.SubtractedCount)))
	}
	log.Infof("  %s reads: %s unique, %s ambiguous, aligned to %s references",
		humanize.Comma(int64(res.ReadCount)), humanize.Comma(int64(len(m.U))),
		humanize.Comma(int64(len(m.NU))), humanize.Comma(int64(m.Refs.Len())))
	if res.EM.Converged {
		log.Infof("  EM converged after %d iteration(s)", res.EM.Iterations)
	} else {
		log.Warningf("  EM not converged after %d iteration(s), last change: %g", res.EM.Iterations, res.EM.Delta)
	}
	log.Infof("  %s alignments kept after reassignment", humanize.Comma(int64(len(res.Reassigned))))
	st := res.CoverageStats
	if st.Clipped+st.Rejected > 0 {
		log.Warningf("  %d alignment(s) clipped at reference ends, %d outside references", st.Clipped, st.Rejected)
	}
	log.Infof("  %s references reported", humanize.Comma(int64(len(res.Report))))
}

// writeResult writes the reassigned alignments, the report and the
// result document into outDir.
func writeResult(outDir string, res *reassign.Result, opt *Options) error {
	var suffix string
	if opt.Compress {
		suffix = ".gz"
	}

	file := filepath.Join(outDir, fileReassigned+suffix)
	w, err := xopen.Wopen(file)
	if err != nil {
		return errors.Wrap(err, file)
	}
	err = reassign.WriteRecords(w, res.Reassigned)
	if err2 := w.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return errors.Wrap(err, file)
	}

	file = filepath.Join(outDir, fileReport+suffix)
	outfh, err := createOutFile(file, opt.Compress, opt.CompressionLevel)
	if err != nil {
		return err
	}
	err = reassign.WriteReportTSV(outfh, res.Report)
	if err2 := outfh.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return errors.Wrap(err, file)
	}

	file = filepath.Join(outDir, fileDocument+suffix)
	outfh, err = createOutFile(file, opt.Compress, opt.CompressionLevel)
	if err != nil {
		return err
	}
	err = reassign.WriteDocument(outfh, res.Document())
	if err2 := outfh.Close(); err == nil {
		err = err2
	}
	return errors.Wrap(err, file)
}

func init() {
	RootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("alignments", "a", "",
		formatFlagUsage(`Alignments of reads against references, in SAM or VTA format.`))
	runCmd.Flags().StringP("subtraction", "s", "",
		formatFlagUsage(`Alignments against the subtraction, in SAM format, or a table of read and weight.`))
	runCmd.Flags().StringP("lengths", "l", "",
		formatFlagUsage(`Reference sequences in FASTA format, or a table of reference and length.`))
	runCmd.Flags().StringP("sample-id", "n", "",
		formatFlagUsage(`Sample ID, default: base name of the alignment file.`))
	runCmd.Flags().StringP("out-dir", "o", "pathoscope.out",
		formatFlagUsage(`Output directory.`))
	runCmd.Flags().BoolP("force", "f", false,
		formatFlagUsage(`Overwrite existing output directory.`))
	runCmd.Flags().BoolP("no-gzip", "", false,
		formatFlagUsage(`Do not gzip output files.`))

	addAnalysisFlags(runCmd)

	runCmd.SetUsageTemplate(usageTemplate("-a <alignments> -l <references> [-s <subtraction>] [-o <out dir>]"))
}
