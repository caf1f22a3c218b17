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
	"context"
	"io/ioutil"
	"strings"

	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Options are all parameters of one analysis.
type Options struct {
	Ingest   IngestOptions   `yaml:"ingest"`
	EM       EMOptions       `yaml:"em"`
	Tiers    Tiers           `yaml:"tiers"`
	Compress CompressOptions `yaml:"compress"`

	// minimal posterior probability of a kept alignment
	RewriteCutoff float64 `yaml:"rewrite_cutoff"`

	// omit references without a length instead of failing
	SkipMissingLengths bool `yaml:"skip_missing_lengths"`
}

// DefaultOptions returns the default parameters.
func DefaultOptions() Options {
	return Options{
		Ingest:        DefaultIngestOptions(),
		EM:            DefaultEMOptions(),
		Tiers:         DefaultTiers(),
		Compress:      DefaultCompressOptions(),
		RewriteCutoff: 0.01,
	}
}

// LoadOptions reads a YAML file over the default options.
func LoadOptions(file string) (Options, error) {
	opt := DefaultOptions()

	file, err := homedir.Expand(file)
	if err != nil {
		return opt, errors.Wrap(err, file)
	}
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return opt, errors.Wrap(err, file)
	}
	if err = yaml.Unmarshal(data, &opt); err != nil {
		return opt, errors.Wrapf(err, "parsing config file: %s", file)
	}
	return opt, opt.Check()
}

// Check validates option values.
func (opt Options) Check() error {
	switch {
	case opt.Ingest.MinWeight < 0 || opt.Ingest.MinWeight > 1:
		return errors.Errorf("minimal alignment weight should be in range of [0, 1]: %v", opt.Ingest.MinWeight)
	case opt.Ingest.Weight.MatchBonus <= 0:
		return errors.Errorf("match bonus should be positive: %v", opt.Ingest.Weight.MatchBonus)
	case opt.Ingest.Weight.Scale <= 0:
		return errors.Errorf("weight scale should be positive: %v", opt.Ingest.Weight.Scale)
	case opt.EM.Tolerance < 0:
		return errors.Errorf("EM tolerance should not be negative: %v", opt.EM.Tolerance)
	case opt.EM.AbundancePrior < 0 || opt.EM.ReadPrior < 0 || opt.EM.InitPseudoCount < 0:
		return errors.Errorf("EM priors should not be negative")
	case opt.Tiers.Medium > opt.Tiers.High:
		return errors.Errorf("medium confidence tier (%v) should not exceed high tier (%v)", opt.Tiers.Medium, opt.Tiers.High)
	case opt.Compress.Ratio <= 0 || opt.Compress.Ratio > 1:
		return errors.Errorf("simplification ratio should be in range of (0, 1]: %v", opt.Compress.Ratio)
	case opt.RewriteCutoff < 0 || opt.RewriteCutoff > 1:
		return errors.Errorf("rewrite cutoff should be in range of [0, 1]: %v", opt.RewriteCutoff)
	}
	return nil
}

// Sample is the state of the analysis of one sample. Every stage reads
// and writes only its own Sample, so samples can run concurrently.
type Sample struct {
	ID         string
	AnalysisID string

	Records []Record           // target alignments
	Host    map[string]float64 // best subtraction weight per read, may be nil
	Lengths map[string]int     // reference sequence lengths

	Ingest IngestStats
}

// SampleFiles locates the input files of a sample.
type SampleFiles struct {
	Alignments  string // VTA or SAM
	Subtraction string // host SAM or read/weight table, optional
	Lengths     string // FASTA or reference/length table
}

// LoadSample reads the input files of a sample.
func LoadSample(id string, files SampleFiles, opt IngestOptions) (*Sample, error) {
	s := &Sample{ID: id, AnalysisID: uuid.New().String()}

	var err error
	opt.Format = FormatOfFile(files.Alignments)
	s.Records, s.Ingest, err = ReadRecords(files.Alignments, opt)
	if err != nil {
		return nil, err
	}

	if files.Subtraction != "" {
		s.Host, err = HostWeights(files.Subtraction, opt)
		if err != nil {
			return nil, err
		}
	}

	if files.Lengths != "" {
		s.Lengths, err = ReadLengths(files.Lengths)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Result is the outcome of the analysis of one sample.
type Result struct {
	SampleID   string
	AnalysisID string

	ReadCount       int
	SubtractedCount int

	Matrix  *Matrix
	EM      *EMResult
	Initial BestHits
	Final   BestHits

	Reassigned    []Record
	Coverage      map[string]*Coverage
	CoverageStats CoverageStats
	Report        DiagnosisRecords
}

// Document returns the result in its persisted form.
func (r *Result) Document() *Document {
	d := &Document{
		ID:              r.AnalysisID,
		SampleID:        r.SampleID,
		Ready:           true,
		ReadCount:       r.ReadCount,
		SubtractedCount: r.SubtractedCount,
		Diagnosis:       r.Report,
	}
	if r.EM != nil {
		d.Iterations = r.EM.Iterations
		d.Converged = r.EM.Converged
	}
	return d
}

// Run analyses a sample. The context is only checked between stages;
// a cancelled run returns the context error and no result.
func Run(ctx context.Context, s *Sample, opt Options) (*Result, error) {
	res := &Result{SampleID: s.ID, AnalysisID: s.AnalysisID}

	var err error

	// subtraction
	records := s.Records
	if len(s.Host) > 0 {
		records, res.SubtractedCount = Subtract(s.Records, s.Host)
		log.Debugf("[%s] %d read(s) subtracted", s.ID, res.SubtractedCount)
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	// matrix
	res.Matrix, err = BuildMatrix(records)
	if err != nil {
		return nil, errors.Wrapf(err, "sample %s", s.ID)
	}
	m := res.Matrix
	res.ReadCount = m.ReadCount()
	log.Debugf("[%s] %d reads, %d unique, %d ambiguous, %d references",
		s.ID, res.ReadCount, len(m.U), len(m.NU), m.Refs.Len())
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	// best hits before and after EM
	res.Initial = EvaluateBestHits(m, m.WeightAssignment(), opt.Tiers)
	res.EM = EM(m, opt.EM)
	res.Final = EvaluateBestHits(m, res.EM.Posterior, opt.Tiers)
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	// rewriting and coverage
	res.Reassigned = Rewrite(records, m, res.EM.Posterior, opt.RewriteCutoff)
	res.Coverage, res.CoverageStats = BuildCoverage(res.Reassigned, s.Lengths)
	if n := len(res.CoverageStats.Missing); n > 0 {
		if !opt.SkipMissingLengths {
			return nil, errors.Wrapf(ErrMissingLength, "sample %s: %d reference(s): %s",
				s.ID, n, strings.Join(res.CoverageStats.Missing, ", "))
		}
		log.Warningf("[%s] %d reference(s) without length omitted", s.ID, n)
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	res.Report = BuildReport(ReportInput{
		Refs:      m.Refs,
		InitPi:    res.EM.InitPi,
		Pi:        res.EM.Pi,
		Initial:   res.Initial,
		Final:     res.Final,
		Coverage:  res.Coverage,
		ReadCount: res.ReadCount,
		Compress:  opt.Compress,
	})
	return res, nil
}
