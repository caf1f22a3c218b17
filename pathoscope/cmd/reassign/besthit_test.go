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

func TestEvaluateBestHits(t *testing.T) {
	m, _ := BuildMatrix([]Record{
		rec("u1", "R1", 1),
		rec("u2", "R2", 1),
		rec("a1", "R2", 0.5), // R2 listed first, but R1 has the lower index
		rec("a1", "R1", 0.5),
		rec("a2", "R1", 0.1),
		rec("a2", "R2", 0.9),
	})

	hits := EvaluateBestHits(m, m.WeightAssignment(), DefaultTiers())
	r1, r2 := hits[0], hits[1]
	if r1.Reads != 2 || r1.Mass != 1.5 || r1.High != 1 || r1.Medium != 2 {
		t.Errorf("unexpected R1: %+v", r1)
	}
	if r2.Reads != 2 || r2.High != 2 || r2.Medium != 2 {
		t.Errorf("unexpected R2: %+v", r2)
	}
	if r1.Fraction(m.ReadCount()) != 0.5 {
		t.Errorf("unexpected fraction: %v", r1.Fraction(m.ReadCount()))
	}
	if (BestHit{}).Fraction(0) != 0 {
		t.Errorf("fraction of no reads should be 0")
	}
}

func TestEvaluateBestHitsTiers(t *testing.T) {
	m, _ := BuildMatrix([]Record{
		rec("a1", "R1", 0.7),
		rec("a1", "R2", 0.3),
	})

	tiers := DefaultTiers()
	hits := EvaluateBestHits(m, m.WeightAssignment(), tiers)
	if hits[0].Reads != 1 || hits[0].High != 0 || hits[0].Medium != 1 {
		t.Errorf("0.7 should be medium only: %+v", hits[0])
	}

	tiers.High = 0.7
	hits = EvaluateBestHits(m, m.WeightAssignment(), tiers)
	if hits[0].High != 1 {
		t.Errorf("tiers are inclusive: %+v", hits[0])
	}
	if hits[1].Reads != 0 {
		t.Errorf("R2 is never a best hit: %+v", hits[1])
	}
}
