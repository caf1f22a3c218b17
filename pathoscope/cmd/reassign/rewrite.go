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

// Rewrite keeps, in input order, the alignments of unique reads and the
// alignments of ambiguous reads whose posterior probability on the
// aligned reference is at least cutoff. Alignments of reads unknown to
// the matrix are dropped.
func Rewrite(records []Record, m *Matrix, post Assignment, cutoff float64) []Record {
	out := make([]Record, 0, len(records))

	var slot readSlot
	var ok bool
	var ref int
	for _, r := range records {
		slot, ok = m.reads[r.ReadID]
		if !ok {
			continue
		}
		if !slot.ambiguous {
			out = append(out, r)
			continue
		}

		ref, ok = m.Refs.Index(r.Ref)
		if !ok {
			continue
		}
		if post.Prob(m, slot.i, ref) >= cutoff {
			out = append(out, r)
		}
	}
	return out
}
