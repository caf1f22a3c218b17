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

func TestRewrite(t *testing.T) {
	records := []Record{
		rec("u1", "R1", 0.9),
		rec("a1", "R1", 0.9),
		rec("a1", "R2", 0.1),
		rec("a2", "R2", 0.5),
		rec("a2", "R3", 0.5),
	}
	m, _ := BuildMatrix(records)
	post := Assignment{
		{0.995, 0.005},
		{0.99, 0.01},
	}

	stray := rec("x", "R1", 1)
	out := Rewrite(append(records, stray), m, post, 0.01)
	expected := []Record{records[0], records[1], records[3], records[4]}
	if len(out) != len(expected) {
		t.Fatalf("expected %d records, got %d: %+v", len(expected), len(out), out)
	}
	for i := range out {
		if out[i] != expected[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, expected[i], out[i])
		}
	}
}
