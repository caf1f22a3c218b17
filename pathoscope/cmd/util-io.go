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
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	gzip "github.com/klauspost/pgzip"
	"github.com/pkg/errors"
)

// BufferSize is size of buffer
var BufferSize = 65536 //os.Getpagesize()

var gzipMagic = []byte{0x1f, 0x8b}

// outFile is a buffered, optionally gzipped, output table or document.
type outFile struct {
	*bufio.Writer

	gw   io.WriteCloser
	fh   *os.File
}

// hasGzipSuffix tells whether output to file should be gzipped.
func hasGzipSuffix(file string) bool {
	return strings.HasSuffix(strings.ToLower(file), ".gz")
}

// createOutFile creates file ("-" for stdout), making its parent directory
// when needed.
func createOutFile(file string, gzipped bool, level int) (*outFile, error) {
	o := &outFile{}
	if isStdout(file) {
		o.fh = os.Stdout
	} else {
		dir := filepath.Dir(file)
		fi, err := os.Stat(dir)
		if err == nil && !fi.IsDir() {
			return nil, errors.Errorf("can not write file into a non-directory path: %s", dir)
		}
		if os.IsNotExist(err) {
			if err = os.MkdirAll(dir, 0755); err != nil {
				return nil, errors.Wrapf(err, "fail to create directory %s", dir)
			}
		}

		o.fh, err = os.Create(file)
		if err != nil {
			return nil, errors.Wrapf(err, "fail to write %s", file)
		}
	}

	if !gzipped {
		o.Writer = bufio.NewWriterSize(o.fh, BufferSize)
		return o, nil
	}
	gw, err := gzip.NewWriterLevel(o.fh, level)
	if err != nil {
		o.closeFile()
		return nil, errors.Wrapf(err, "fail to write %s", file)
	}
	o.gw = gw
	o.Writer = bufio.NewWriterSize(gw, BufferSize)
	return o, nil
}

func (o *outFile) closeFile() error {
	if o.fh == os.Stdout {
		return nil
	}
	return o.fh.Close()
}

// Close flushes buffered data and closes the gzip stream and the file.
// The first error is returned.
func (o *outFile) Close() error {
	err := o.Flush()
	if o.gw != nil {
		if err2 := o.gw.Close(); err == nil {
			err = err2
		}
	}
	if err2 := o.closeFile(); err == nil {
		err = err2
	}
	return err
}

// inFile is a buffered reader of a plain or gzipped file.
type inFile struct {
	*bufio.Reader

	Gzipped bool

	gr io.ReadCloser
	fh *os.File
}

// openInFile opens file ("-" for stdin), decompressing gzip content.
func openInFile(file string) (*inFile, error) {
	in := &inFile{}
	if isStdin(file) {
		if !detectStdin() {
			return nil, errors.New("stdin not detected")
		}
		in.fh = os.Stdin
	} else {
		var err error
		in.fh, err = os.Open(file)
		if err != nil {
			return nil, errors.Wrapf(err, "fail to read %s", file)
		}
	}

	br := bufio.NewReaderSize(in.fh, BufferSize)
	m, err := br.Peek(len(gzipMagic))
	if err != nil {
		in.Close()
		return nil, errors.Errorf("no content: %s", file)
	}
	if in.Gzipped = bytes.Equal(m, gzipMagic); in.Gzipped {
		gr, err := gzip.NewReaderN(br, 65536, 8)
		if err != nil {
			in.Close()
			return nil, errors.Wrapf(err, "fail to create gzip reader for %s", file)
		}
		in.gr = gr
		br = bufio.NewReaderSize(gr, BufferSize)
	}
	in.Reader = br
	return in, nil
}

// Close closes the gzip reader and the file, but never stdin.
func (in *inFile) Close() error {
	var err error
	if in.gr != nil {
		err = in.gr.Close()
	}
	if in.fh != os.Stdin {
		if err2 := in.fh.Close(); err == nil {
			err = err2
		}
	}
	return err
}

func detectStdin() bool {
	// http://stackoverflow.com/a/26567513
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
