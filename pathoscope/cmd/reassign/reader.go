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
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/shenwei356/breader"
)

// IngestOptions controls parsing of alignment files.
type IngestOptions struct {
	Format    Format        `yaml:"-"`
	MinWeight float64       `yaml:"min_weight"`
	Weight    WeightOptions `yaml:"weight"`

	Threads   int `yaml:"-"`
	ChunkSize int `yaml:"-"`
}

// DefaultIngestOptions returns the default ingest options for VTA input.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		Format:    VTA,
		MinWeight: 0.01,
		Weight:    DefaultWeightOptions(),
		Threads:   4,
		ChunkSize: 5000,
	}
}

// IngestStats counts what happened to the lines of an alignment file.
type IngestStats struct {
	Lines     int
	Accepted  int
	Headers   int
	Unmapped  int
	LowWeight int
	Malformed int
}

// Add accumulates s2 into s.
func (s *IngestStats) Add(s2 IngestStats) {
	s.Lines += s2.Lines
	s.Accepted += s2.Accepted
	s.Headers += s2.Headers
	s.Unmapped += s2.Unmapped
	s.LowWeight += s2.LowWeight
	s.Malformed += s2.Malformed
}

type parsedLine struct {
	rec Record
	err error
}

var poolItems = &sync.Pool{New: func() interface{} {
	tmp := make([]string, numFieldsVTA+1)
	return &tmp
}}

// parseLine never fails, errors are kept for tallying in input order.
func parseLine(line string, opt *IngestOptions) parsedLine {
	var r Record
	var err error
	switch opt.Format {
	case SAM:
		r, err = ParseSAMLine(line, opt.Weight)
	default:
		items := poolItems.Get().(*[]string)
		r, err = parseVTA(line, items)
		poolItems.Put(items)
	}
	if err == nil && (r.Weight <= 0 || r.Weight < opt.MinWeight) {
		err = ErrLowWeight
	}
	return parsedLine{rec: r, err: err}
}

func (s *IngestStats) tally(p parsedLine) bool {
	s.Lines++
	switch errors.Cause(p.err) {
	case nil:
		s.Accepted++
		return true
	case ErrHeader:
		s.Headers++
	case ErrUnmapped:
		s.Unmapped++
	case ErrLowWeight:
		s.LowWeight++
	default:
		s.Malformed++
		log.Debugf("skipping record: %s", p.err)
	}
	return false
}

// ReadRecords reads all accepted alignments of a (optionally gzipped) file
// ("-" for stdin). Lines are parsed in parallel, records keep input order.
func ReadRecords(file string, opt IngestOptions) ([]Record, IngestStats, error) {
	var stats IngestStats

	threads := opt.Threads
	if threads < 1 {
		threads = 1
	}
	chunkSize := opt.ChunkSize
	if chunkSize < 1 {
		chunkSize = 5000
	}

	fn := func(line string) (interface{}, bool, error) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return nil, false, nil
		}
		return parseLine(line, &opt), true, nil
	}

	reader, err := breader.NewBufferedReader(file, threads, chunkSize, fn)
	if err != nil {
		return nil, stats, errors.Wrap(err, file)
	}

	records := make([]Record, 0, 1024)
	var p parsedLine
	for chunk := range reader.Ch {
		if chunk.Err != nil {
			return nil, stats, errors.Wrap(chunk.Err, file)
		}
		for _, data := range chunk.Data {
			p = data.(parsedLine)
			if stats.tally(p) {
				records = append(records, p.rec)
			}
		}
	}
	return records, stats, nil
}

// ParseRecords reads accepted alignments from r sequentially.
func ParseRecords(r io.Reader, opt IngestOptions) ([]Record, IngestStats, error) {
	var stats IngestStats
	records := make([]Record, 0, 1024)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 65536), 1<<26)
	var line string
	var p parsedLine
	for scanner.Scan() {
		line = strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		p = parseLine(line, &opt)
		if stats.tally(p) {
			records = append(records, p.rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, err
	}
	return records, stats, nil
}

// WriteRecords writes records in the intermediate format.
func WriteRecords(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		bw.WriteString(FormatVTA(r))
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
