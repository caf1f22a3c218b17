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
	"github.com/shenwei356/go-logging"
)

var log = logging.MustGetLogger("reassign")

// Errors local to one record are counted and skipped by the readers,
// the others are returned to the caller.
var (
	// ErrMalformedRecord means wrong field count or unparsable values.
	ErrMalformedRecord = errors.New("reassign: malformed alignment record")

	// ErrUnmapped means the aligner flagged the read unmapped or gave no reference.
	ErrUnmapped = errors.New("reassign: unmapped alignment")

	// ErrLowWeight means the alignment weight is below the minimum.
	ErrLowWeight = errors.New("reassign: alignment weight below cutoff")

	// ErrHeader is returned for SAM header and comment lines.
	ErrHeader = errors.New("reassign: header line")

	// ErrContradictoryReferences means two distinct reference ids can not
	// be told apart by the reference table.
	ErrContradictoryReferences = errors.New("reassign: contradictory reference ids")

	// ErrMissingLength means a reassigned reference has no sequence length.
	ErrMissingLength = errors.New("reassign: missing reference length")
)
