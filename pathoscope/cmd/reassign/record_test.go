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
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestParseVTALine(t *testing.T) {
	r, err := ParseVTALine("read1,ref1,12,100,0.75")
	if err != nil {
		t.Fatal(err)
	}
	if r != (Record{ReadID: "read1", Ref: "ref1", Pos: 12, Length: 100, Weight: 0.75}) {
		t.Errorf("unexpected record: %+v", r)
	}

	if line := FormatVTA(r); line != "read1,ref1,12,100,0.75" {
		t.Errorf("unexpected line: %s", line)
	}

	for _, line := range []string{
		"read1,ref1,12,100",
		"read1,ref1,12,100,0.5,extra",
		"read1,ref1,x,100,0.5",
		"read1,ref1,12,-3,0.5",
		"read1,ref1,0,100,0.5",
		"read1,ref1,12,100,abc",
		"read1,ref1,12,100,1.5",
		"read1,ref1,12,100,0",
		",ref1,12,100,0.5",
	} {
		_, err = ParseVTALine(line)
		if errors.Cause(err) != ErrMalformedRecord {
			t.Errorf("%s: expected malformed record, got %v", line, err)
		}
	}
}

func samLine(flag string, ref string, seq string, tags ...string) string {
	fields := []string{"read1", flag, ref, "5", "255", "8M", "*", "0", "0", seq, "IIIIIIII"}
	fields = append(fields, tags...)
	return strings.Join(fields, "\t")
}

func TestParseSAMLine(t *testing.T) {
	opt := DefaultWeightOptions()

	r, err := ParseSAMLine(samLine("0", "ref1", "ACGTACGT", "XS:i:3", "AS:i:16"), opt)
	if err != nil {
		t.Fatal(err)
	}
	if r.ReadID != "read1" || r.Ref != "ref1" || r.Pos != 5 || r.Length != 8 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.Weight != 1 {
		t.Errorf("perfect alignment should have weight 1, got %v", r.Weight)
	}

	if _, err = ParseSAMLine(samLine("4", "ref1", "ACGTACGT", "AS:i:16"), opt); err != ErrUnmapped {
		t.Errorf("flag 0x4 should be unmapped, got %v", err)
	}
	if _, err = ParseSAMLine(samLine("0", "*", "ACGTACGT", "AS:i:16"), opt); err != ErrUnmapped {
		t.Errorf("reference * should be unmapped, got %v", err)
	}
	if _, err = ParseSAMLine("@SQ\tSN:ref1\tLN:100", opt); err != ErrHeader {
		t.Errorf("expected header, got %v", err)
	}
	if _, err = ParseSAMLine(samLine("0", "ref1", "ACGTACGT"), opt); errors.Cause(err) != ErrMalformedRecord {
		t.Errorf("missing AS tag should be malformed, got %v", err)
	}
	if _, err = ParseSAMLine("read1\t0\tref1", opt); errors.Cause(err) != ErrMalformedRecord {
		t.Errorf("short line should be malformed, got %v", err)
	}
}

func TestWeightMonotonic(t *testing.T) {
	opt := DefaultWeightOptions()
	prev := 0.0
	for score := -50; score <= 200; score++ {
		w := opt.Weight(score, 100)
		if w <= prev {
			t.Fatalf("weight not increasing at score %d: %v <= %v", score, w, prev)
		}
		if w <= 0 || w > 1 {
			t.Fatalf("weight out of (0, 1] at score %d: %v", score, w)
		}
		prev = w
	}
	if opt.Weight(200, 100) != 1 {
		t.Errorf("perfect score should have weight 1")
	}
}

func TestParseRecords(t *testing.T) {
	input := strings.Join([]string{
		"r1,R1,1,10,0.9",
		"r1,R2,1,10,0.5",
		"bad line",
		"",
		"r2,R1,3,10,0.001",
		"r3,R2,3,10,0.2",
	}, "\n")

	records, stats, err := ParseRecords(strings.NewReader(input), DefaultIngestOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0].Ref != "R1" || records[2].ReadID != "r3" {
		t.Errorf("unexpected records: %+v", records)
	}
	if stats.Lines != 5 || stats.Accepted != 3 || stats.Malformed != 1 || stats.LowWeight != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestParseRecordsSAM(t *testing.T) {
	input := strings.Join([]string{
		"@HD\tVN:1.0",
		samLine("0", "ref1", "ACGTACGT", "AS:i:16"),
		samLine("4", "*", "ACGTACGT"),
		samLine("0", "ref2", "ACGTACGT", "AS:i:-40"),
	}, "\n")

	opt := DefaultIngestOptions()
	opt.Format = SAM
	records, stats, err := ParseRecords(strings.NewReader(input), opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Ref != "ref1" {
		t.Errorf("unexpected records: %+v", records)
	}
	if stats.Headers != 1 || stats.Unmapped != 1 || stats.LowWeight != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
