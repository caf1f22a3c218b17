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
	"testing"
)

func TestSubtract(t *testing.T) {
	records := []Record{
		rec("r1", "R1", 0.5),
		rec("r2", "R1", 0.6),
		rec("r2", "R2", 0.4),
		rec("r3", "R2", 0.9),
		rec("r1", "R2", 0.3),
	}
	host := map[string]float64{
		"r1": 0.5,  // equal to the best target weight
		"r2": 0.59, // lower than 0.6
		"r3": 0.95,
		"r4": 1,
	}

	kept, removed := Subtract(records, host)
	if removed != 2 {
		t.Errorf("expected 2 reads removed, got %d", removed)
	}
	if len(kept) != 2 || kept[0] != records[1] || kept[1] != records[2] {
		t.Errorf("unexpected kept records: %+v", kept)
	}

	m, _ := BuildMatrix(kept)
	if m.ReadCount() != 1 || len(m.NU) != 1 {
		t.Errorf("only r2 should be left")
	}
}

func TestSubtractNoHost(t *testing.T) {
	records := []Record{rec("r1", "R1", 0.5), rec("r2", "R1", 0.6)}
	kept, removed := Subtract(records, nil)
	if removed != 0 || len(kept) != 2 {
		t.Errorf("nothing should be removed")
	}
	kept[0].Ref = "X"
	if records[0].Ref != "R1" {
		t.Errorf("input modified")
	}
}
