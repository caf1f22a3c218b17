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
	"encoding/json"
	"fmt"
)

// Coordinate is a vertex of a compressed coverage profile.
type Coordinate struct {
	Pos   int
	Depth int
}

// MarshalJSON writes a coordinate as a [pos, depth] pair.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%d,%d]", c.Pos, c.Depth)), nil
}

// UnmarshalJSON reads a [pos, depth] pair.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	c.Pos, c.Depth = pair[0], pair[1]
	return nil
}

// CompressOptions controls coverage compression.
type CompressOptions struct {
	MaxPoints int     `yaml:"max_points"` // simplify above this number of change points
	Ratio     float64 `yaml:"ratio"`      // proportion of points kept by simplification
}

// DefaultCompressOptions returns 100 points and a ratio of 0.4.
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{MaxPoints: 100, Ratio: 0.4}
}

// ChangePoints returns the vertices of the step function of depth: the
// first position, the last position, and both sides of every change of
// depth. Coordinates are distinct and sorted by position.
func ChangePoints(depth []int) []Coordinate {
	if len(depth) == 0 {
		return nil
	}

	prev := depth[0]
	coords := make([]Coordinate, 1, 64)
	coords[0] = Coordinate{0, prev}

	last := len(depth) - 1
	var d int
	for i := 1; i <= last; i++ {
		d = depth[i]
		if d == prev && i != last {
			continue
		}
		if coords[len(coords)-1].Pos != i-1 {
			coords = append(coords, Coordinate{i - 1, prev})
		}
		coords = append(coords, Coordinate{i, d})
		prev = d
	}
	return coords
}

// Compress returns the change points of depth, simplified with
// Visvalingam-Wyatt when there are more than opt.MaxPoints of them.
func Compress(depth []int, opt CompressOptions) []Coordinate {
	coords := ChangePoints(depth)
	if len(coords) > opt.MaxPoints {
		return Simplify(coords, opt.Ratio)
	}
	return coords
}
