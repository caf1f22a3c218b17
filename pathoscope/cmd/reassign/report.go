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
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/exascience/pargo/parallel"
	"github.com/twotwotwo/sorts"
)

// HitSummary is the best-hit statistics of a reference at one stage.
type HitSummary struct {
	Reads  int     `json:"reads"`
	Mass   float64 `json:"mass"`
	Best   float64 `json:"best"` // Reads / total read count
	High   int     `json:"high"`
	Medium int     `json:"medium"`
}

func summarize(h BestHit, readCount int) HitSummary {
	return HitSummary{
		Reads:  h.Reads,
		Mass:   h.Mass,
		Best:   h.Fraction(readCount),
		High:   h.High,
		Medium: h.Medium,
	}
}

// DiagnosisRecord is the result for one reference.
type DiagnosisRecord struct {
	ID     string  `json:"id"`
	Index  int     `json:"-"`
	Length int     `json:"length"`
	Pi     float64 `json:"pi"`
	InitPi float64 `json:"init_pi"`

	Initial HitSummary `json:"initial"`
	Final   HitSummary `json:"final"`

	Align    []Coordinate `json:"align"`
	Coverage float64      `json:"coverage"` // breadth, 3 decimals
	Depth    int          `json:"depth"`    // mean depth, rounded half to even
}

// DiagnosisRecords are sorted by decreasing abundance, then reference index.
type DiagnosisRecords []DiagnosisRecord

func (r DiagnosisRecords) Len() int { return len(r) }
func (r DiagnosisRecords) Less(i, j int) bool {
	if r[i].Pi == r[j].Pi {
		return r[i].Index < r[j].Index
	}
	return r[i].Pi > r[j].Pi
}
func (r DiagnosisRecords) Swap(i, j int) { r[i], r[j] = r[j], r[i] }

// ReportInput gathers everything the report is made of.
type ReportInput struct {
	Refs      *ReferenceTable
	InitPi    []float64
	Pi        []float64
	Initial   BestHits
	Final     BestHits
	Coverage  map[string]*Coverage
	ReadCount int
	Compress  CompressOptions
}

// BuildReport returns one record per reference having coverage.
func BuildReport(in ReportInput) DiagnosisRecords {
	idx := make([]int, 0, len(in.Coverage))
	for i := 0; i < in.Refs.Len(); i++ {
		if _, ok := in.Coverage[in.Refs.Name(i)]; ok {
			idx = append(idx, i)
		}
	}

	records := make(DiagnosisRecords, len(idx))
	if len(idx) == 0 {
		return records
	}
	parallel.Range(0, len(idx), 0, func(low, high int) {
		for j := low; j < high; j++ {
			records[j] = diagnose(in, idx[j])
		}
	})

	sorts.Quicksort(records)
	return records
}

func diagnose(in ReportInput, i int) DiagnosisRecord {
	name := in.Refs.Name(i)
	cov := in.Coverage[name]
	r := DiagnosisRecord{
		ID:       name,
		Index:    i,
		Length:   len(cov.Depth),
		Align:    Compress(cov.Depth, in.Compress),
		Coverage: math.Round(cov.Breadth()*1000) / 1000,
		Depth:    int(math.RoundToEven(cov.MeanDepth())),
	}
	if i < len(in.Pi) {
		r.Pi = in.Pi[i]
	}
	if i < len(in.InitPi) {
		r.InitPi = in.InitPi[i]
	}
	if i < len(in.Initial) {
		r.Initial = summarize(in.Initial[i], in.ReadCount)
	}
	if i < len(in.Final) {
		r.Final = summarize(in.Final[i], in.ReadCount)
	}
	return r
}

// WriteReportTSV writes a tab-delimited report with a header line.
func WriteReportTSV(w io.Writer, records DiagnosisRecords) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("ref\tpi\tbestHit\tbestHitReads\tbestHitMass\thighReads\tmediumReads" +
		"\tinitPi\tinitBestHit\tinitBestHitReads\tinitBestHitMass\tinitHighReads\tinitMediumReads" +
		"\tcoverage\tdepth\tlength\n")
	for _, r := range records {
		fmt.Fprintf(bw, "%s\t%.6g\t%.6g\t%d\t%.4f\t%d\t%d\t%.6g\t%.6g\t%d\t%.4f\t%d\t%d\t%.3f\t%d\t%d\n",
			r.ID,
			r.Pi, r.Final.Best, r.Final.Reads, r.Final.Mass, r.Final.High, r.Final.Medium,
			r.InitPi, r.Initial.Best, r.Initial.Reads, r.Initial.Mass, r.Initial.High, r.Initial.Medium,
			r.Coverage, r.Depth, r.Length)
	}
	return bw.Flush()
}

// Document is the analysis result handed over for persistence.
type Document struct {
	ID              string           `json:"id"`
	SampleID        string           `json:"sample_id"`
	Ready           bool             `json:"ready"`
	ReadCount       int              `json:"read_count"`
	SubtractedCount int              `json:"subtracted_count"`
	Iterations      int              `json:"iterations"`
	Converged       bool             `json:"converged"`
	Diagnosis       DiagnosisRecords `json:"diagnosis"`
}

// WriteDocument writes d as JSON.
func WriteDocument(w io.Writer, d *Document) error {
	return json.NewEncoder(w).Encode(d)
}

// ReadDocument reads a JSON document written by WriteDocument.
func ReadDocument(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}
