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
	"os"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pathoscope-go/pathoscope/pathoscope/cmd/reassign"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/cliutil"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

var subtractCmd = &cobra.Command{
	Use:   "subtract",
	Short: "Remove reads better explained by the subtraction (host)",
	Long: `Remove reads better explained by the subtraction (host)

All alignments of a read are removed if its weight against the
subtraction is greater than or equal to its best weight against the
references.

The subtraction (-s/--subtraction) is a SAM file of alignments against
the subtraction, or a tab-delimited table of read and weight.

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
		subtraction := cliutil.GetFlagNonEmptyString(cmd, "subtraction")
		outFile := cliutil.GetFlagString(cmd, "out-file")
		verbose := opt.Verbose || opt.Log2File

		files := inputFiles(cmd, args)
		records, _ := readAlignments(files, format, o, verbose)

		host, err := reassign.HostWeights(subtraction, o)
		checkError(err)
		if verbose {
			log.Infof("%s reads aligned to the subtraction", humanize.Comma(int64(len(host))))
		}

		kept, removed := reassign.Subtract(records, host)
		if verbose {
			log.Infof("%s reads removed, %s of %s alignments kept", humanize.Comma(int64(removed)),
				humanize.Comma(int64(len(kept))), humanize.Comma(int64(len(records))))
		}

		outfh, err := xopen.Wopen(outFile)
		checkError(errors.Wrap(err, outFile))
		checkError(reassign.WriteRecords(outfh, kept))
		checkError(outfh.Close())
	},
}

func init() {
	RootCmd.AddCommand(subtractCmd)

	subtractCmd.Flags().StringP("subtraction", "s", "",
		formatFlagUsage(`Alignments against the subtraction, in SAM format, or a table of read and weight.`))
	subtractCmd.Flags().StringP("format", "F", "auto",
		formatFlagUsage(`Input format: auto, sam, vta.`))
	subtractCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports and recommends a ".gz" suffix ("-" for stdout).`))

	addIngestFlags(subtractCmd)

	subtractCmd.SetUsageTemplate(usageTemplate("-s <subtraction> [-o <out file>] <alignment files>"))
}
