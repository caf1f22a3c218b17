// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
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

	"github.com/pkg/errors"
	"github.com/shenwei356/go-logging"
	"github.com/shenwei356/util/cliutil"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("pathoscope")

func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(-1)
	}
}

func isStdin(file string) bool {
	return file == "-"
}

func isStdout(file string) bool {
	return file == "-"
}

// inputFiles collects input files from positional arguments and the
// list given by --infile-list. A file named twice is kept once.
func inputFiles(cmd *cobra.Command, args []string) []string {
	files := cliutil.GetFileList(args, true)
	listFile := cliutil.GetFlagString(cmd, "infile-list")
	if listFile != "" {
		listed, err := cliutil.GetFileListFromFile(listFile, true)
		checkError(errors.Wrap(err, listFile))
		if len(listed) == 0 {
			log.Warningf("no files found in file list: %s", listFile)
		} else if len(files) == 1 && isStdin(files[0]) {
			files = listed
		} else {
			files = append(files, listed...)
		}
	}

	seen := make(map[string]struct{}, len(files))
	uniq := files[:0]
	for _, file := range files {
		if _, ok := seen[file]; ok {
			log.Warningf("duplicated input file ignored: %s", file)
			continue
		}
		seen[file] = struct{}{}
		uniq = append(uniq, file)
	}
	return uniq
}
