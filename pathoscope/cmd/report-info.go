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
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/pathoscope-go/pathoscope/pathoscope/cmd/reassign"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/cliutil"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"
)

var reportInfoCmd = &cobra.Command{
	Use:   "report-info",
	Short: "Print the references reported in pathoscope.json files",
	Long: `Print the references reported in pathoscope.json files

Columns:
  sample    sample ID, or file name with -f/--show-file
  ref       reference
  pi        abundance after reassignment
  init-pi   initial abundance
  reads     reads with the reference as best hit, after reassignment
  best      proportion of all reads having the reference as best hit
  high      best hits with high confidence
  medium    best hits with medium confidence
  coverage  proportion of covered positions
  depth     mean depth

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		files := inputFiles(cmd, args)
		outFile := cliutil.GetFlagString(cmd, "out-file")
		tabular := cliutil.GetFlagBool(cmd, "tabular")
		showFile := cliutil.GetFlagBool(cmd, "show-file")
		basename := cliutil.GetFlagBool(cmd, "basename")
		topN := cliutil.GetFlagNonNegativeInt(cmd, "top")

		outfh, err := createOutFile(outFile, hasGzipSuffix(outFile), opt.CompressionLevel)
		checkError(err)
		defer func() {
			checkError(outfh.Close())
		}()

		columns := []prettytable.Column{
			{Header: "sample"},
			{Header: "ref"},
			{Header: "pi", AlignRight: true},
			{Header: "init-pi", AlignRight: true},
			{Header: "reads", AlignRight: true},
			{Header: "best", AlignRight: true},
			{Header: "high", AlignRight: true},
			{Header: "medium", AlignRight: true},
			{Header: "coverage", AlignRight: true},
			{Header: "depth", AlignRight: true},
		}

		var tbl *prettytable.Table
		if tabular {
			headers := make([]string, len(columns))
			for i, c := range columns {
				headers[i] = c.Header
			}
			outfh.WriteString(strings.Join(headers, "\t") + "\n")
		} else {
			tbl, err = prettytable.NewTable(columns...)
			checkError(err)
			tbl.Separator = "  "
		}

		var doc *reassign.Document
		var sample string
		for _, file := range files {
			doc, err = readDocumentFile(file)
			checkError(err)

			sample = doc.SampleID
			if showFile || sample == "" {
				sample = file
				if basename {
					sample = filepath.Base(file)
				}
			}

			for i, d := range doc.Diagnosis {
				if topN > 0 && i >= topN {
					break
				}
				if tabular {
					fmt.Fprintf(outfh, "%s\t%s\t%.6f\t%.6f\t%d\t%.6f\t%d\t%d\t%.3f\t%d\n",
						sample, d.ID, d.Pi, d.InitPi, d.Final.Reads, d.Final.Best,
						d.Final.High, d.Final.Medium, d.Coverage, d.Depth)
					continue
				}
				tbl.AddRow(
					sample,
					d.ID,
					fmt.Sprintf("%.4f", d.Pi),
					fmt.Sprintf("%.4f", d.InitPi),
					humanize.Comma(int64(d.Final.Reads)),
					fmt.Sprintf("%.4f", d.Final.Best),
					humanize.Comma(int64(d.Final.High)),
					humanize.Comma(int64(d.Final.Medium)),
					fmt.Sprintf("%.3f", d.Coverage),
					humanize.Comma(int64(d.Depth)),
				)
			}
		}

		if !tabular {
			outfh.Write(tbl.Bytes())
		}
	},
}

func readDocumentFile(file string) (*reassign.Document, error) {
	infh, err := openInFile(file)
	if err != nil {
		return nil, err
	}
	defer infh.Close()

	doc, err := reassign.ReadDocument(infh)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	return doc, nil
}

func init() {
	RootCmd.AddCommand(reportInfoCmd)

	reportInfoCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports the ".gz" suffix ("-" for stdout).`))
	reportInfoCmd.Flags().BoolP("tabular", "T", false,
		formatFlagUsage(`Output in machine-friendly tabular format.`))
	reportInfoCmd.Flags().BoolP("show-file", "f", false,
		formatFlagUsage(`Show file names instead of sample IDs.`))
	reportInfoCmd.Flags().BoolP("basename", "b", false,
		formatFlagUsage(`Only output basename of files.`))
	reportInfoCmd.Flags().IntP("top", "n", 0,
		formatFlagUsage(`Only show the top N references of every file, 0 for all.`))

	reportInfoCmd.SetUsageTemplate(usageTemplate("[-T] [-n <top N>] <pathoscope.json files>"))
}
