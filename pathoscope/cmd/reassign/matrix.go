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
	"github.com/pkg/errors"
	"github.com/zeebo/wyhash"
)

// ReferenceTable gives every reference a stable index, in first-seen order.
type ReferenceTable struct {
	names []string
	index map[uint64]int // wyhash of name -> index
}

// NewReferenceTable returns an empty table.
func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{
		names: make([]string, 0, 128),
		index: make(map[uint64]int, 128),
	}
}

func (t *ReferenceTable) add(name string) (int, error) {
	h := wyhash.HashString(name, 1)
	if i, ok := t.index[h]; ok {
		if t.names[i] != name {
			return -1, errors.Wrapf(ErrContradictoryReferences, "%s and %s", t.names[i], name)
		}
		return i, nil
	}
	i := len(t.names)
	t.names = append(t.names, name)
	t.index[h] = i
	return i, nil
}

// Index returns the index of a reference.
func (t *ReferenceTable) Index(name string) (int, bool) {
	i, ok := t.index[wyhash.HashString(name, 1)]
	if !ok || t.names[i] != name {
		return -1, false
	}
	return i, true
}

// Name returns the reference of index i.
func (t *ReferenceTable) Name(i int) string { return t.names[i] }

// Len returns the number of references.
func (t *ReferenceTable) Len() int { return len(t.names) }

// Names returns a copy of all references in index order.
func (t *ReferenceTable) Names() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

// Hit is a candidate reference of a read.
type Hit struct {
	Ref    int
	Weight float64
}

// UniqueRead is a read with exactly one candidate reference.
type UniqueRead struct {
	ReadID string
	Hit    Hit
}

// AmbiguousRead is a read with several candidate references, in the
// order they were first seen.
type AmbiguousRead struct {
	ReadID string
	Hits   []Hit
}

type readSlot struct {
	ambiguous bool
	i         int
}

// Matrix is the sparse read-by-reference alignment matrix, split into
// uniquely (U) and ambiguously (NU) aligned reads. A read is in exactly
// one of them.
type Matrix struct {
	Refs *ReferenceTable
	U    []UniqueRead
	NU   []AmbiguousRead

	reads map[string]readSlot
}

// BuildMatrix groups alignments by read. When a read aligns several times
// to the same reference, the best weight is kept.
func BuildMatrix(records []Record) (*Matrix, error) {
	refs := NewReferenceTable()
	order := make([]string, 0, len(records))
	hits := make(map[string][]Hit, len(records))

	var ref int
	var err error
	var hs []Hit
	var seen bool
	for _, r := range records {
		ref, err = refs.add(r.Ref)
		if err != nil {
			return nil, err
		}
		hs, seen = hits[r.ReadID]
		if !seen {
			order = append(order, r.ReadID)
		}
		hits[r.ReadID] = addHit(hs, Hit{Ref: ref, Weight: r.Weight})
	}

	m := &Matrix{
		Refs:  refs,
		U:     make([]UniqueRead, 0, len(order)),
		NU:    make([]AmbiguousRead, 0, len(order)/4),
		reads: make(map[string]readSlot, len(order)),
	}
	for _, id := range order {
		hs = hits[id]
		if len(hs) == 1 {
			m.reads[id] = readSlot{ambiguous: false, i: len(m.U)}
			m.U = append(m.U, UniqueRead{ReadID: id, Hit: hs[0]})
			continue
		}
		m.reads[id] = readSlot{ambiguous: true, i: len(m.NU)}
		m.NU = append(m.NU, AmbiguousRead{ReadID: id, Hits: hs})
	}
	return m, nil
}

func addHit(hs []Hit, h Hit) []Hit {
	for i := range hs {
		if hs[i].Ref == h.Ref {
			if h.Weight > hs[i].Weight {
				hs[i].Weight = h.Weight
			}
			return hs
		}
	}
	return append(hs, h)
}

// ReadCount returns the number of distinct reads.
func (m *Matrix) ReadCount() int { return len(m.U) + len(m.NU) }

// Unique returns the only hit of a uniquely aligned read.
func (m *Matrix) Unique(readID string) (Hit, bool) {
	s, ok := m.reads[readID]
	if !ok || s.ambiguous {
		return Hit{}, false
	}
	return m.U[s.i].Hit, true
}

// Ambiguous returns the position in NU of an ambiguously aligned read.
func (m *Matrix) Ambiguous(readID string) (int, bool) {
	s, ok := m.reads[readID]
	if !ok || !s.ambiguous {
		return -1, false
	}
	return s.i, true
}

// UniqueCounts returns the number of unique reads of every reference.
func (m *Matrix) UniqueCounts() []float64 {
	counts := make([]float64, m.Refs.Len())
	for _, u := range m.U {
		counts[u.Hit.Ref]++
	}
	return counts
}

// Assignment holds, for every read of NU, the probability of each of
// its candidate references. Rows are aligned with Matrix.NU.
type Assignment [][]float64

func newAssignment(nu []AmbiguousRead) Assignment {
	a := make(Assignment, len(nu))
	for i, read := range nu {
		a[i] = make([]float64, len(read.Hits))
	}
	return a
}

// Clone returns a deep copy.
func (a Assignment) Clone() Assignment {
	b := make(Assignment, len(a))
	for i, row := range a {
		b[i] = make([]float64, len(row))
		copy(b[i], row)
	}
	return b
}

// Prob returns the probability of read i (in NU) on reference ref.
func (a Assignment) Prob(m *Matrix, i int, ref int) float64 {
	for k, h := range m.NU[i].Hits {
		if h.Ref == ref {
			return a[i][k]
		}
	}
	return 0
}

// WeightAssignment splits every ambiguous read by its normalized
// alignment weights, i.e., under equal abundances.
func (m *Matrix) WeightAssignment() Assignment {
	a := newAssignment(m.NU)
	for i, read := range m.NU {
		expectRead(a[i], read.Hits, nil, 0)
	}
	return a
}

// PriorAssignment splits every ambiguous read proportionally to
// pi[ref] * weight.
func (m *Matrix) PriorAssignment(pi []float64) Assignment {
	a := newAssignment(m.NU)
	expectation(m.NU, a, pi, 0)
	return a
}
