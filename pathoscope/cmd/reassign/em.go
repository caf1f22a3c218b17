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
	"gonum.org/v1/gonum/floats"
)

// EMOptions controls the abundance estimation.
type EMOptions struct {
	MaxIterations int     `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`

	// pseudo-count added to every reference in the M-step
	AbundancePrior float64 `yaml:"abundance_prior"`
	// pseudo-count added to every candidate of a read in the E-step
	ReadPrior float64 `yaml:"read_prior"`

	// pseudo-count of unique reads per reference for the initial abundance
	InitPseudoCount float64 `yaml:"init_pseudo_count"`

	// Start, if given, replaces the initial abundance.
	Start []float64 `yaml:"-"`

	// Trace is called after every iteration.
	Trace func(iteration int, pi []float64, delta float64) `yaml:"-"`
}

// DefaultEMOptions returns 50 iterations, tolerance 1e-7, no priors.
func DefaultEMOptions() EMOptions {
	return EMOptions{
		MaxIterations:   50,
		Tolerance:       1e-7,
		AbundancePrior:  0,
		ReadPrior:       0,
		InitPseudoCount: 1,
	}
}

// EMResult is the outcome of EM. Running out of iterations is not an
// error: Converged is false and the last state is kept.
type EMResult struct {
	InitPi    []float64
	Pi        []float64
	Posterior Assignment

	Iterations int
	Converged  bool
	Delta      float64 // L1 change of pi in the last iteration
}

// EM estimates the abundance of every reference and the posterior
// assignment of every ambiguous read.
func EM(m *Matrix, opt EMOptions) *EMResult {
	g := m.Refs.Len()
	res := &EMResult{Posterior: newAssignment(m.NU)}
	if g == 0 {
		res.Converged = true
		return res
	}

	uniq := m.UniqueCounts()
	pi := initialPi(uniq, opt)
	res.InitPi = make([]float64, g)
	copy(res.InitPi, pi)

	post := res.Posterior
	if opt.MaxIterations < 1 {
		expectation(m.NU, post, pi, opt.ReadPrior)
		res.Pi = pi
		return res
	}

	next := make([]float64, g)
	var delta, sum float64
	for iter := 1; iter <= opt.MaxIterations; iter++ {
		expectation(m.NU, post, pi, opt.ReadPrior)

		copy(next, uniq)
		for i, read := range m.NU {
			for k, h := range read.Hits {
				next[h.Ref] += post[i][k]
			}
		}
		if opt.AbundancePrior > 0 {
			floats.AddConst(opt.AbundancePrior, next)
		}
		sum = floats.Sum(next)
		floats.Scale(1/sum, next)

		delta = floats.Distance(pi, next, 1)
		pi, next = next, pi

		res.Iterations = iter
		res.Delta = delta
		if opt.Trace != nil {
			opt.Trace(iter, pi, delta)
		}
		if delta < opt.Tolerance || len(m.NU) == 0 {
			res.Converged = true
			break
		}
	}
	log.Debugf("EM stopped after %d iteration(s), converged: %v, delta: %g", res.Iterations, res.Converged, res.Delta)

	res.Pi = pi
	return res
}

func initialPi(uniq []float64, opt EMOptions) []float64 {
	g := len(uniq)
	pi := make([]float64, g)

	if len(opt.Start) == g {
		copy(pi, opt.Start)
		if sum := floats.Sum(pi); sum > 0 && floats.Min(pi) >= 0 {
			floats.Scale(1/sum, pi)
			return pi
		}
	}

	var total float64
	for r, c := range uniq {
		pi[r] = c + opt.InitPseudoCount
		total += pi[r]
	}
	if total <= 0 {
		for r := range pi {
			pi[r] = 1 / float64(g)
		}
		return pi
	}
	floats.Scale(1/total, pi)
	return pi
}

// expectation updates every row of post; rows are independent, so reads
// are processed in parallel and the call returns when all are done.
func expectation(nu []AmbiguousRead, post Assignment, pi []float64, readPrior float64) {
	if len(nu) == 0 {
		return
	}
	parallel.Range(0, len(nu), 0, func(low, high int) {
		for i := low; i < high; i++ {
			expectRead(post[i], nu[i].Hits, pi, readPrior)
		}
	})
}

// expectRead sets row[k] proportional to pi[ref_k] * weight_k. A nil pi
// means equal abundances. If all products vanish, weights alone are used.
func expectRead(row []float64, hits []Hit, pi []float64, readPrior float64) {
	var sum float64
	for k, h := range hits {
		if pi == nil {
			row[k] = h.Weight
		} else {
			row[k] = pi[h.Ref] * h.Weight
		}
		sum += row[k]
	}
	if sum <= 0 {
		sum = 0
		for k, h := range hits {
			row[k] = h.Weight
			sum += row[k]
		}
	}

	n := float64(len(hits))
	for k := range row {
		row[k] = (row[k]/sum + readPrior) / (1 + n*readPrior)
	}
}
