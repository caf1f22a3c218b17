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
	"github.com/exascience/pargo/parallel"
)

// Coverage is the per-position read depth of a reference.
type Coverage struct {
	Ref   string
	Depth []int
}

// Breadth returns the proportion of positions with non-zero depth.
func (c *Coverage) Breadth() float64 {
	if len(c.Depth) == 0 {
		return 0
	}
	var zeros int
	for _, d := range c.Depth {
		if d == 0 {
			zeros++
		}
	}
	return 1 - float64(zeros)/float64(len(c.Depth))
}

// MeanDepth returns the average depth over all positions.
func (c *Coverage) MeanDepth() float64 {
	if len(c.Depth) == 0 {
		return 0
	}
	var sum int
	for _, d := range c.Depth {
		sum += d
	}
	return float64(sum) / float64(len(c.Depth))
}

// CoverageStats reports records that did not fit their reference.
type CoverageStats struct {
	Records  int      // records piled up
	Clipped  int      // records running past the reference end, truncated
	Rejected int      // records starting outside the reference
	Missing  []string // references without a length entry, in first-seen order
}

// BuildCoverage piles up alignments per reference. Alignment i covers
// [Pos-1, Pos-1+Length), truncated at the reference end. References with
// no usable alignment, or no length entry, are absent from the result.
// All alignments on a reference of length 0 are rejected.
func BuildCoverage(records []Record, lengths map[string]int) (map[string]*Coverage, CoverageStats) {
	var stats CoverageStats

	groups := make(map[string][]int, 128)
	refs := make([]string, 0, 128)
	for i, r := range records {
		if _, ok := groups[r.Ref]; !ok {
			refs = append(refs, r.Ref)
		}
		groups[r.Ref] = append(groups[r.Ref], i)
	}

	usable := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := lengths[ref]; ok {
			usable = append(usable, ref)
		} else {
			stats.Missing = append(stats.Missing, ref)
		}
	}

	profiles := make([]*Coverage, len(usable))
	counts := make([][3]int, len(usable))
	if len(usable) > 0 {
		parallel.Range(0, len(usable), 0, func(low, high int) {
			var ref string
			for j := low; j < high; j++ {
				ref = usable[j]
				profiles[j], counts[j] = pileup(ref, lengths[ref], records, groups[ref])
			}
		})
	}

	coverage := make(map[string]*Coverage, len(usable))
	for j, p := range profiles {
		stats.Records += counts[j][0]
		stats.Clipped += counts[j][1]
		stats.Rejected += counts[j][2]
		if p != nil {
			coverage[p.Ref] = p
		}
	}
	return coverage, stats
}

// pileup returns nil when no record fits the reference.
func pileup(ref string, length int, records []Record, idx []int) (*Coverage, [3]int) {
	var counts [3]int // used, clipped, rejected
	diff := make([]int, length+1)

	var start, end int
	var r *Record
	for _, i := range idx {
		r = &records[i]
		start = r.Pos - 1
		if start < 0 || start >= length || r.Length < 1 {
			counts[2]++
			continue
		}
		end = start + r.Length
		if end > length {
			end = length
			counts[1]++
		}
		diff[start]++
		diff[end]--
		counts[0]++
	}
	if counts[0] == 0 {
		return nil, counts
	}

	depth := make([]int, length)
	var d int
	for i := 0; i < length; i++ {
		d += diff[i]
		depth[i] = d
	}
	return &Coverage{Ref: ref, Depth: depth}, counts
}
