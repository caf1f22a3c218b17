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
	"github.com/bits-and-blooms/bitset"
)

// Subtract removes every alignment of reads that are explained at least as
// well by the subtraction (host) reference as by their best target
// reference. It returns the kept alignments, in input order, and the number
// of distinct reads removed.
func Subtract(records []Record, host map[string]float64) ([]Record, int) {
	if len(host) == 0 {
		out := make([]Record, len(records))
		copy(out, records)
		return out, 0
	}

	best := BestWeights(records)

	removed := make(map[string]struct{}, 128)
	var w float64
	var ok bool
	for read, b := range best {
		if w, ok = host[read]; ok && w >= b {
			removed[read] = struct{}{}
		}
	}

	drop := bitset.New(uint(len(records)))
	for i, r := range records {
		if _, ok = removed[r.ReadID]; ok {
			drop.Set(uint(i))
		}
	}

	out := make([]Record, 0, len(records)-int(drop.Count()))
	for i, r := range records {
		if !drop.Test(uint(i)) {
			out = append(out, r)
		}
	}
	return out, len(removed)
}
