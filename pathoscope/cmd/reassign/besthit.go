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

// Tiers are the probability thresholds of confidence levels.
type Tiers struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// DefaultTiers returns high >= 0.8 and medium >= 0.5.
func DefaultTiers() Tiers {
	return Tiers{High: 0.8, Medium: 0.5}
}

// BestHit summarizes the reads whose best hit is one reference.
type BestHit struct {
	Reads  int     // reads with this best hit
	Mass   float64 // sum of best-hit probabilities
	High   int     // best-hit probability >= Tiers.High
	Medium int     // best-hit probability >= Tiers.Medium
}

// Fraction returns the proportion of all reads having this best hit.
func (h BestHit) Fraction(readCount int) float64 {
	if readCount <= 0 {
		return 0
	}
	return float64(h.Reads) / float64(readCount)
}

// BestHits is indexed by reference index.
type BestHits []BestHit

func (hits BestHits) add(ref int, p float64, tiers Tiers) {
	h := &hits[ref]
	h.Reads++
	h.Mass += p
	if p >= tiers.High {
		h.High++
	}
	if p >= tiers.Medium {
		h.Medium++
	}
}

// EvaluateBestHits finds the best hit of every read under an assignment.
// Unique reads count with probability 1. Among equal probabilities the
// reference with the lowest index wins.
func EvaluateBestHits(m *Matrix, a Assignment, tiers Tiers) BestHits {
	hits := make(BestHits, m.Refs.Len())
	for _, u := range m.U {
		hits.add(u.Hit.Ref, 1, tiers)
	}

	var best int
	var p float64
	var row []float64
	for i, read := range m.NU {
		row = a[i]
		best = 0
		p = row[0]
		for k := 1; k < len(read.Hits); k++ {
			if row[k] > p || (row[k] == p && read.Hits[k].Ref < read.Hits[best].Ref) {
				best = k
				p = row[k]
			}
		}
		hits.add(read.Hits[best].Ref, p, tiers)
	}
	return hits
}
