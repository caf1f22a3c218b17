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

import "testing"

func TestBuildCoverage(t *testing.T) {
	records := []Record{
		{ReadID: "a", Ref: "R1", Pos: 1, Length: 3, Weight: 1},
		{ReadID: "b", Ref: "R1", Pos: 9, Length: 5, Weight: 1},  // clipped
		{ReadID: "c", Ref: "R1", Pos: 11, Length: 2, Weight: 1}, // past the end
		{ReadID: "d", Ref: "R2", Pos: 1, Length: 2, Weight: 1},  // no length
		{ReadID: "e", Ref: "R3", Pos: 0, Length: 2, Weight: 1},  // before the start
	}
	lengths := map[string]int{"R1": 10, "R3": 5}

	coverage, stats := BuildCoverage(records, lengths)
	if len(coverage) != 1 {
		t.Fatalf("only R1 should have coverage: %v", coverage)
	}
	depth := coverage["R1"].Depth
	expected := []int{1, 1, 1, 0, 0, 0, 0, 0, 1, 1}
	if len(depth) != len(expected) {
		t.Fatalf("expected length %d, got %d", len(expected), len(depth))
	}
	for i := range expected {
		if depth[i] != expected[i] {
			t.Errorf("position %d: expected %d, got %d", i, expected[i], depth[i])
		}
	}

	if stats.Records != 2 || stats.Clipped != 1 || stats.Rejected != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if len(stats.Missing) != 1 || stats.Missing[0] != "R2" {
		t.Errorf("R2 should be missing: %v", stats.Missing)
	}

	c := coverage["R1"]
	if c.Breadth() != 0.5 || c.MeanDepth() != 0.5 {
		t.Errorf("unexpected breadth %v and depth %v", c.Breadth(), c.MeanDepth())
	}
}

func TestBuildCoverageZeroLength(t *testing.T) {
	records := []Record{
		{ReadID: "a", Ref: "R1", Pos: 1, Length: 4, Weight: 1},
		{ReadID: "b", Ref: "R2", Pos: 1, Length: 4, Weight: 1},
		{ReadID: "c", Ref: "R2", Pos: 3, Length: 1, Weight: 1},
	}
	lengths := map[string]int{"R1": 100, "R2": 0}

	coverage, stats := BuildCoverage(records, lengths)
	if _, ok := coverage["R2"]; ok {
		t.Errorf("R2 of length 0 should have no coverage")
	}
	if c, ok := coverage["R1"]; !ok || len(c.Depth) != 100 {
		t.Fatalf("R1 should be piled up: %v", coverage)
	}
	if len(stats.Missing) != 0 {
		t.Errorf("R2 has a length entry and is not missing: %v", stats.Missing)
	}
	if stats.Records != 1 || stats.Rejected != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBuildCoverageManyReferences(t *testing.T) {
	lengths := make(map[string]int)
	records := make([]Record, 0, 1000)
	for i := 0; i < 1000; i++ {
		ref := "ref" + string(rune('A'+i%20))
		lengths[ref] = 100
		records = append(records, Record{ReadID: "r", Ref: ref, Pos: i%90 + 1, Length: 10, Weight: 1})
	}

	coverage, stats := BuildCoverage(records, lengths)
	if len(coverage) != 20 || stats.Records != 1000 || stats.Clipped != 0 {
		t.Fatalf("unexpected result: %d references, %+v", len(coverage), stats)
	}
	var total int
	for _, c := range coverage {
		for _, d := range c.Depth {
			total += d
		}
	}
	if total != 1000*10 {
		t.Errorf("expected %d covered bases, got %d", 1000*10, total)
	}
}
