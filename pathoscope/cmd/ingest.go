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

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Convert SAM alignments to weighted alignments (VTA)",
	Long: `Convert SAM alignments to weighted alignments (VTA)

Output format (comma-separated, no header):
  read,reference,position,length,weight

Alignments are discarded if:
  1. the read is unmapped (flag 0x4) or the reference is "*",
  2. the weight is lower than -w/--min-weight.

The weight of a SAM alignment is computed from its AS:i tag:
  exp(scale * (AS / (bonus * length) - 1)), at most 1.

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
		outFile := cliutil.GetFlagString(cmd, "out-file")

		files := inputFiles(cmd, args)
		records, _ := readAlignments(files, format, o, opt.Verbose || opt.Log2File)

		outfh, err := xopen.Wopen(outFile)
		checkError(errors.Wrap(err, outFile))
		checkError(reassign.WriteRecords(outfh, records))
		checkError(outfh.Close())
	},
}

// readAlignments reads and concatenates alignment files. The format is
// guessed from file names unless given.
func readAlignments(files []string, format string, o reassign.IngestOptions, verbose bool) ([]reassign.Record, reassign.IngestStats) {
	var stats reassign.IngestStats
	var err error

	var forced bool
	if format != "" && format != "auto" {
		o.Format, err = reassign.ParseFormat(format)
		checkError(err)
		forced = true
	}

	records := make([]reassign.Record, 0, 1024)
	var _records []reassign.Record
	var _stats reassign.IngestStats
	for _, file := range files {
		if !forced {
			o.Format = reassign.FormatOfFile(file)
		}
		_records, _stats, err = reassign.ReadRecords(file, o)
		checkError(err)
		if verbose {
			log.Infof("%s: %s of %s lines accepted (%s)", file,
				humanize.Comma(int64(_stats.Accepted)), humanize.Comma(int64(_stats.Lines)), o.Format)
		}
		records = append(records, _records...)
		stats.Add(_stats)
	}

	if verbose && len(files) > 1 {
		log.Infof("%s alignments accepted from %d files", humanize.Comma(int64(stats.Accepted)), len(files))
	}
	if stats.Malformed > 0 {
		log.Warningf("%d malformed line(s) skipped", stats.Malformed)
	}
	return records, stats
}

func init() {
	RootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringP("format", "F", "auto",
		formatFlagUsage(`Input format: auto, sam, vta. "auto" guesses from file names, VTA for stdin.`))
	ingestCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports and recommends a ".gz" suffix ("-" for stdout).`))

	addIngestFlags(ingestCmd)

	ingestCmd.SetUsageTemplate(usageTemplate("[-o <out file>] <SAM files>"))
}
