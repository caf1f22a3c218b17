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

package reassign

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/util/cliutil"
)

// FormatOfFile guesses the alignment format from the file name.
func FormatOfFile(file string) Format {
	name := strings.ToLower(trimGz(file))
	if strings.HasSuffix(name, ".sam") {
		return SAM
	}
	return VTA
}

func trimGz(file string) string {
	if strings.HasSuffix(file, ".gz") || strings.HasSuffix(file, ".GZ") {
		return file[:len(file)-3]
	}
	return file
}

func isFasta(file string) bool {
	name := strings.ToLower(trimGz(file))
	for _, ext := range []string{".fa", ".fasta", ".fna", ".fas"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// HostWeights reads the best subtraction weight of every read. SAM files
// are parsed with the same rules as target alignments; other files are
// two-column tables of read id and weight.
func HostWeights(file string, opt IngestOptions) (map[string]float64, error) {
	if FormatOfFile(file) != SAM {
		kvs, err := cliutil.ReadKVs(file, false)
		if err != nil {
			return nil, errors.Wrap(err, file)
		}
		host := make(map[string]float64, len(kvs))
		var w float64
		for read, s := range kvs {
			w, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Errorf("%s: invalid subtraction weight for %s: %s", file, read, s)
			}
			host[read] = w
		}
		return host, nil
	}

	opt.Format = SAM
	opt.MinWeight = 0
	records, _, err := ReadRecords(file, opt)
	if err != nil {
		return nil, err
	}
	return BestWeights(records), nil
}

// BestWeights returns the maximum weight of every read.
func BestWeights(records []Record) map[string]float64 {
	best := make(map[string]float64, len(records))
	for _, r := range records {
		if w, ok := best[r.ReadID]; !ok || r.Weight > w {
			best[r.ReadID] = r.Weight
		}
	}
	return best
}

// ReadLengths reads reference sequence lengths from a FASTA file, or from
// a two-column table of reference id and length.
func ReadLengths(file string) (map[string]int, error) {
	if isFasta(file) {
		return fastaLengths(file)
	}

	kvs, err := cliutil.ReadKVs(file, false)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	lengths := make(map[string]int, len(kvs))
	var l int
	for ref, s := range kvs {
		l, err = strconv.Atoi(s)
		if err != nil || l < 0 {
			return nil, errors.Errorf("%s: invalid length for %s: %s", file, ref, s)
		}
		lengths[ref] = l
	}
	return lengths, nil
}

func fastaLengths(file string) (map[string]int, error) {
	seq.ValidateSeq = false

	reader, err := fastx.NewDefaultReader(file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}

	lengths := make(map[string]int, 128)
	var record *fastx.Record
	for {
		record, err = reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, file)
		}
		lengths[string(record.ID)] = len(record.Seq.Seq)
	}
	return lengths, nil
}
