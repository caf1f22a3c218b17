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
	"math"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"
)

// Record is one alignment of a read against a reference sequence.
type Record struct {
	ReadID string
	Ref    string
	Pos    int // 1-based leftmost position
	Length int
	Weight float64 // normalized alignment quality, in (0, 1]
}

// Format is the layout of an alignment file.
type Format int

const (
	// VTA is the comma-separated intermediate format:
	// read_id,reference_id,position,length,score
	VTA Format = iota
	// SAM is raw aligner output.
	SAM
)

func (f Format) String() string {
	switch f {
	case VTA:
		return "vta"
	case SAM:
		return "sam"
	}
	return "unknown"
}

// ParseFormat parses "vta" or "sam".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "vta", "csv":
		return VTA, nil
	case "sam":
		return SAM, nil
	}
	return VTA, errors.Errorf("invalid alignment format: %s, available: vta, sam", s)
}

// WeightOptions maps an alignment score to a weight.
//
// The weight is exp(Scale * (AS/(MatchBonus*L) - 1)), where L is the read
// length and MatchBonus*L the best possible local alignment score. It is
// strictly increasing in AS and equals 1 for a perfect alignment.
type WeightOptions struct {
	Scale      float64 `yaml:"scale"`
	MatchBonus float64 `yaml:"match_bonus"`
}

// DefaultWeightOptions fits bowtie2 --local scoring.
func DefaultWeightOptions() WeightOptions {
	return WeightOptions{Scale: 10, MatchBonus: 2}
}

// Weight returns the normalized weight of an alignment score.
func (o WeightOptions) Weight(score int, length int) float64 {
	if length <= 0 || o.MatchBonus <= 0 {
		return 0
	}
	w := math.Exp(o.Scale * (float64(score)/(o.MatchBonus*float64(length)) - 1))
	if w > 1 {
		return 1
	}
	return w
}

const numFieldsVTA = 5

// ParseVTALine parses one line of the intermediate format.
func ParseVTALine(line string) (Record, error) {
	items := make([]string, numFieldsVTA+1)
	return parseVTA(line, &items)
}

func parseVTA(line string, items *[]string) (Record, error) {
	var r Record
	stringSplitNByByte(line, ',', numFieldsVTA+1, items)
	if len(*items) != numFieldsVTA {
		return r, errors.Wrapf(ErrMalformedRecord, "%d fields expected: %s", numFieldsVTA, line)
	}

	var err error
	r.ReadID = (*items)[0]
	r.Ref = (*items)[1]
	if r.ReadID == "" || r.Ref == "" {
		return r, errors.Wrapf(ErrMalformedRecord, "empty read or reference id: %s", line)
	}

	r.Pos, err = strconv.Atoi((*items)[2])
	if err != nil || r.Pos < 1 {
		return r, errors.Wrapf(ErrMalformedRecord, "invalid position: %s", (*items)[2])
	}

	r.Length, err = strconv.Atoi((*items)[3])
	if err != nil || r.Length < 1 {
		return r, errors.Wrapf(ErrMalformedRecord, "invalid length: %s", (*items)[3])
	}

	r.Weight, err = strconv.ParseFloat((*items)[4], 64)
	if err != nil || math.IsNaN(r.Weight) || r.Weight <= 0 || r.Weight > 1 {
		return r, errors.Wrapf(ErrMalformedRecord, "invalid score: %s", (*items)[4])
	}
	return r, nil
}

// FormatVTA formats a record in the intermediate format, without a line break.
func FormatVTA(r Record) string {
	var b strings.Builder
	b.Grow(len(r.ReadID) + len(r.Ref) + 32)
	b.WriteString(r.ReadID)
	b.WriteByte(',')
	b.WriteString(r.Ref)
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(r.Pos))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(r.Length))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(r.Weight, 'g', -1, 64))
	return b.String()
}

const numFieldsSAM = 11

var tagAS = sam.NewTag("AS")

// ParseSAMLine parses one line of aligner output. Header lines give
// ErrHeader, unmapped alignments ErrUnmapped.
func ParseSAMLine(line string, opt WeightOptions) (Record, error) {
	var r Record
	if line == "" || line[0] == '@' || line[0] == '#' {
		return r, ErrHeader
	}

	items := strings.Split(line, "\t")
	if len(items) < numFieldsSAM {
		return r, errors.Wrapf(ErrMalformedRecord, "at least %d fields expected: %s", numFieldsSAM, line)
	}

	flag, err := strconv.ParseUint(items[1], 10, 16)
	if err != nil {
		return r, errors.Wrapf(ErrMalformedRecord, "invalid flag: %s", items[1])
	}
	if sam.Flags(flag)&sam.Unmapped != 0 {
		return r, ErrUnmapped
	}

	ref, ok := referenceName(items[2])
	if !ok {
		return r, ErrUnmapped
	}

	r.ReadID = items[0]
	r.Ref = ref

	r.Pos, err = strconv.Atoi(items[3])
	if err != nil || r.Pos < 1 {
		return r, errors.Wrapf(ErrMalformedRecord, "invalid position: %s", items[3])
	}

	if items[9] == "*" || items[9] == "" {
		return r, errors.Wrapf(ErrMalformedRecord, "missing read sequence: %s", r.ReadID)
	}
	r.Length = len(items[9])

	score, ok := alignmentScore(items[numFieldsSAM:])
	if !ok {
		return r, errors.Wrapf(ErrMalformedRecord, "missing AS:i tag: %s", r.ReadID)
	}
	r.Weight = opt.Weight(score, r.Length)

	return r, nil
}

// referenceName reports whether the RNAME field names a reference.
func referenceName(field string) (string, bool) {
	if field == "" || field == "*" {
		return "", false
	}
	return field, true
}

func alignmentScore(optional []string) (int, bool) {
	for _, field := range optional {
		if len(field) < 5 || field[0] != 'A' || field[1] != 'S' {
			continue
		}
		aux, err := sam.ParseAux([]byte(field))
		if err != nil || aux.Tag() != tagAS {
			continue
		}
		switch v := aux.Value().(type) {
		case int8:
			return int(v), true
		case uint8:
			return int(v), true
		case int16:
			return int(v), true
		case uint16:
			return int(v), true
		case int32:
			return int(v), true
		case uint32:
			return int(v), true
		case int:
			return v, true
		}
	}
	return 0, false
}

func stringSplitNByByte(s string, sep byte, n int, a *[]string) {
	if a == nil {
		tmp := make([]string, n)
		a = &tmp
	}
	*a = (*a)[:cap(*a)]

	n--
	i := 0
	for i < n {
		m := strings.IndexByte(s, sep)
		if m < 0 {
			break
		}
		(*a)[i] = s[:m]
		s = s[m+1:]
		i++
	}
	(*a)[i] = s

	(*a) = (*a)[:i+1]
}
