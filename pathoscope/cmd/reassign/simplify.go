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
	"container/heap"
	"math"
	"sort"
)

// Simplify reduces a polyline with the Visvalingam-Wyatt algorithm,
// keeping about ratio of its points. Points whose effective area is at
// least the int(ratio*n)-th largest one are kept, so ties may keep a few
// more. The end points are always kept.
func Simplify(points []Coordinate, ratio float64) []Coordinate {
	n := len(points)
	if n < 3 || ratio >= 1 {
		out := make([]Coordinate, n)
		copy(out, points)
		return out
	}

	areas := EffectiveAreas(points)

	keep := int(ratio * float64(n))
	if keep < 1 {
		keep = 1
	}
	sorted := make([]float64, n)
	copy(sorted, areas)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	threshold := sorted[keep-1]

	out := make([]Coordinate, 0, keep+2)
	for i, p := range points {
		if areas[i] >= threshold {
			out = append(out, p)
		}
	}
	return out
}

// EffectiveAreas returns the area at which every point is eliminated.
// End points get +Inf. The point with the smallest triangle is removed
// first, with ties going to the lower position; a point never gets a
// smaller area than one removed before it.
func EffectiveAreas(points []Coordinate) []float64 {
	n := len(points)
	areas := make([]float64, n)
	if n == 0 {
		return areas
	}
	areas[0] = math.Inf(1)
	areas[n-1] = math.Inf(1)
	if n < 3 {
		return areas
	}

	prev := make([]int, n)
	next := make([]int, n)
	for i := range points {
		prev[i] = i - 1
		next[i] = i + 1
	}

	verts := make([]*vertex, n)
	h := make(vertexHeap, 0, n-2)
	for i := 1; i < n-1; i++ {
		verts[i] = &vertex{i: i, area: triangleArea(points[i-1], points[i], points[i+1]), index: len(h)}
		h = append(h, verts[i])
	}
	heap.Init(&h)

	var maxArea float64
	var v *vertex
	var p, q int
	for h.Len() > 0 {
		v = heap.Pop(&h).(*vertex)
		if v.area > maxArea {
			maxArea = v.area
		}
		areas[v.i] = maxArea

		p, q = prev[v.i], next[v.i]
		next[p] = q
		prev[q] = p
		if p > 0 {
			verts[p].area = triangleArea(points[prev[p]], points[p], points[q])
			heap.Fix(&h, verts[p].index)
		}
		if q < n-1 {
			verts[q].area = triangleArea(points[p], points[q], points[next[q]])
			heap.Fix(&h, verts[q].index)
		}
	}
	return areas
}

func triangleArea(a, b, c Coordinate) float64 {
	ax, ay := float64(a.Pos), float64(a.Depth)
	bx, by := float64(b.Pos), float64(b.Depth)
	cx, cy := float64(c.Pos), float64(c.Depth)
	return math.Abs(ax*(by-cy)+bx*(cy-ay)+cx*(ay-by)) / 2
}

type vertex struct {
	i     int
	area  float64
	index int // in heap
}

type vertexHeap []*vertex

func (h vertexHeap) Len() int { return len(h) }
func (h vertexHeap) Less(i, j int) bool {
	if h[i].area == h[j].area {
		return h[i].i < h[j].i
	}
	return h[i].area < h[j].area
}
func (h vertexHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *vertexHeap) Push(x interface{}) {
	v := x.(*vertex)
	v.index = len(*h)
	*h = append(*h, v)
}

func (h *vertexHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	old[n-1] = nil
	v.index = -1
	*h = old[:n-1]
	return v
}
