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
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pathoscope-go/pathoscope/pathoscope/cmd/reassign"
	"github.com/shenwei356/util/cliutil"
	"github.com/spf13/cobra"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Compute and compress coverage of references",
	Long: `Compute and compress coverage of references

Output format (tab-delimited):
  ref      reference
  length   reference length
  coverage proportion of covered positions (3 decimals)
  depth    mean depth, rounded
  points   change points of depth, "position:depth" separated by ",";
           simplified when there are more than --max-points of them.

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

		o := getIngestOptions(cmd, opt, reassign.DefaultIngestOptions())
		format := cliutil.GetFlagString(cmd, "format")
		lengthsFile := cliutil.GetFlagNonEmptyString(cmd, "lengths")
		outFile := cliutil.GetFlagString(cmd, "out-file")
		co := reassign.CompressOptions{
			MaxPoints: cliutil.GetFlagNonNegativeInt(cmd, "max-points"),
			Ratio:     cliutil.GetFlagPositiveFloat64(cmd, "simplify-ratio"),
		}
		verbose := opt.Verbose || opt.Log2File

		files := inputFiles(cmd, args)
		records, _ := readAlignments(files, format, o, verbose)

		lengths, err := reassign.ReadLengths(lengthsFile)
		checkError(err)

		coverage, stats := reassign.BuildCoverage(records, lengths)
		if len(stats.Missing) > 0 {
			log.Warningf("%d reference(s) without length skipped: %s", len(stats.Missing), strings.Join(stats.Missing, ", "))
		}
		if stats.Clipped+stats.Rejected > 0 {
			log.Warningf("%d alignment(s) clipped at reference ends, %d outside references", stats.Clipped, stats.Rejected)
		}
		if verbose {
			log.Infof("%d alignments piled up on %d references", stats.Records, len(coverage))
		}

		refs := make([]string, 0, len(coverage))
		for ref := range coverage {
			refs = append(refs, ref)
		}
		sort.Strings(refs)

		outfh, err := createOutFile(outFile, hasGzipSuffix(outFile), opt.CompressionLevel)
		checkError(err)

		outfh.WriteString("ref\tlength\tcoverage\tdepth\tpoints\n")
		var c *reassign.Coverage
		var points []string
		for _, ref := range refs {
			c = coverage[ref]
			points = points[:0]
			for _, p := range reassign.Compress(c.Depth, co) {
				points = append(points, fmt.Sprintf("%d:%d", p.Pos, p.Depth))
			}
			fmt.Fprintf(outfh, "%s\t%d\t%.3f\t%d\t%s\n",
				ref, len(c.Depth), c.Breadth(), int(math.RoundToEven(c.MeanDepth())), strings.Join(points, ","))
		}
		checkError(outfh.Close())
	},
}

func init() {
	RootCmd.AddCommand(coverageCmd)

	d := reassign.DefaultCompressOptions()

	coverageCmd.Flags().StringP("lengths", "l", "",
		formatFlagUsage(`Reference sequences in FASTA format, or a table of reference and length.`))
	coverageCmd.Flags().StringP("format", "F", "auto",
		formatFlagUsage(`Input format: auto, sam, vta.`))
	coverageCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports and recommends a ".gz" suffix ("-" for stdout).`))
	coverageCmd.Flags().IntP("max-points", "", d.MaxPoints,
		formatFlagUsage(`Coverage profiles with more change points are simplified.`))
	coverageCmd.Flags().Float64P("simplify-ratio", "", d.Ratio,
		formatFlagUsage(`Proportion of change points kept by simplification.`))

	addIngestFlags(coverageCmd)

	coverageCmd.SetUsageTemplate(usageTemplate("-l <references> [-o <out file>] <alignment files>"))
}
