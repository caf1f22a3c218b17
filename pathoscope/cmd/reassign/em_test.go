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
	"testing"
)

func emData() []Record {
	records := []Record{
		rec("u1", "R1", 0.9),
		rec("u2", "R1", 0.8),
		rec("u3", "R1", 0.9),
		rec("u4", "R2", 0.7),
		rec("u5", "R3", 0.5),
	}
	w := []float64{0.9, 0.6, 0.3, 0.8, 0.5}
	for i := 0; i < 20; i++ {
		read := "a" + string(rune('a'+i))
		records = append(records,
			rec(read, "R1", w[i%5]),
			rec(read, "R2", w[(i+1)%5]),
		)
		if i%4 == 0 {
			records = append(records, rec(read, "R3", w[(i+2)%5]))
		}
	}
	return records
}

func sum(s []float64) float64 {
	var v float64
	for _, x := range s {
		v += x
	}
	return v
}

func TestEMProbabilities(t *testing.T) {
	m, err := BuildMatrix(emData())
	if err != nil {
		t.Fatal(err)
	}

	opt := DefaultEMOptions()
	opt.ReadPrior = 0.01
	opt.AbundancePrior = 0.5
	var traced int
	opt.Trace = func(iter int, pi []float64, delta float64) {
		traced++
		if iter != traced {
			t.Errorf("iterations should be traced in order: %d", iter)
		}
		if math.Abs(sum(pi)-1) > 1e-9 {
			t.Errorf("iteration %d: abundances sum to %v", iter, sum(pi))
		}
		for _, p := range pi {
			if p < 0 {
				t.Errorf("iteration %d: negative abundance", iter)
			}
		}
	}

	res := EM(m, opt)
	if traced != res.Iterations {
		t.Errorf("traced %d iterations, reported %d", traced, res.Iterations)
	}
	if math.Abs(sum(res.InitPi)-1) > 1e-9 || math.Abs(sum(res.Pi)-1) > 1e-9 {
		t.Errorf("abundances should sum to 1")
	}
	for i, row := range res.Posterior {
		if len(row) != len(m.NU[i].Hits) {
			t.Fatalf("row %d has %d values for %d hits", i, len(row), len(m.NU[i].Hits))
		}
		if math.Abs(sum(row)-1) > 1e-9 {
			t.Errorf("posterior of %s sums to %v", m.NU[i].ReadID, sum(row))
		}
	}
}

func TestEMUnique(t *testing.T) {
	m, _ := BuildMatrix([]Record{rec("r1", "R1", 0.9)})
	res := EM(m, DefaultEMOptions())
	if !res.Converged || res.Pi[0] != 1 {
		t.Errorf("R1 should get full credit: %v", res.Pi)
	}

	hits := EvaluateBestHits(m, res.Posterior, DefaultTiers())
	if hits[0].Reads != 1 || hits[0].High != 1 || hits[0].Medium != 1 {
		t.Errorf("unexpected best hits: %+v", hits[0])
	}
}

func TestEMEqualSplit(t *testing.T) {
	m, _ := BuildMatrix([]Record{
		rec("u1", "R1", 1),
		rec("u2", "R2", 1),
		rec("a1", "R1", 0.5),
		rec("a1", "R2", 0.5),
	})

	for _, iterations := range []int{0, 1} {
		opt := DefaultEMOptions()
		opt.MaxIterations = iterations
		res := EM(m, opt)
		if res.InitPi[0] != 0.5 || res.InitPi[1] != 0.5 {
			t.Errorf("unexpected initial abundances: %v", res.InitPi)
		}
		if res.Posterior[0][0] != 0.5 || res.Posterior[0][1] != 0.5 {
			t.Errorf("%d iteration(s): expected 0.5/0.5, got %v", iterations, res.Posterior[0])
		}
	}

	a := m.PriorAssignment([]float64{0.5, 0.5})
	if a[0][0] != 0.5 || a[0][1] != 0.5 {
		t.Errorf("expected 0.5/0.5, got %v", a[0])
	}
}

func TestEMResume(t *testing.T) {
	m, _ := BuildMatrix(emData())

	opt := DefaultEMOptions()
	opt.MaxIterations = 10000
	opt.Tolerance = 1e-12
	res := EM(m, opt)
	if !res.Converged {
		t.Fatalf("EM did not converge in %d iterations", res.Iterations)
	}

	opt.MaxIterations = 1
	opt.Start = res.Pi
	again := EM(m, opt)
	if again.Delta >= 1e-9 {
		t.Errorf("one more iteration from a fixed point moved abundances by %g", again.Delta)
	}
	for i := range res.Pi {
		if math.Abs(res.Pi[i]-again.Pi[i]) > 1e-9 {
			t.Errorf("abundance of %s changed: %v -> %v", m.Refs.Name(i), res.Pi[i], again.Pi[i])
		}
	}
}

func TestEMDeterministic(t *testing.T) {
	m, _ := BuildMatrix(emData())
	r1 := EM(m, DefaultEMOptions())
	r2 := EM(m, DefaultEMOptions())

	if r1.Iterations != r2.Iterations {
		t.Fatalf("different iterations: %d, %d", r1.Iterations, r2.Iterations)
	}
	for i := range r1.Pi {
		if r1.Pi[i] != r2.Pi[i] {
			t.Errorf("different abundance of %s", m.Refs.Name(i))
		}
	}
	for i := range r1.Posterior {
		for k := range r1.Posterior[i] {
			if r1.Posterior[i][k] != r2.Posterior[i][k] {
				t.Errorf("different posterior of %s", m.NU[i].ReadID)
			}
		}
	}
}

func TestEMPosteriorRowsEachIteration(t *testing.T) {
	m, err := BuildMatrix(emData())
	if err != nil {
		t.Fatal(err)
	}

	priors := []struct{ abundance, read float64 }{
		{0, 0},
		{0.5, 0.01},
		{2, 1},
	}
	for _, prior := range priors {
		for n := 1; n <= 5; n++ {
			opt := DefaultEMOptions()
			opt.MaxIterations = n
			opt.Tolerance = 0
			opt.AbundancePrior = prior.abundance
			opt.ReadPrior = prior.read

			res := EM(m, opt)
			if res.Iterations != n {
				t.Fatalf("expected %d iteration(s), got %d", n, res.Iterations)
			}
			for i, row := range res.Posterior {
				if math.Abs(sum(row)-1) > 1e-9 {
					t.Errorf("priors %v, %d iteration(s): posterior of %s sums to %v",
						prior, n, m.NU[i].ReadID, sum(row))
				}
				for _, p := range row {
					if p < 0 || p > 1 {
						t.Errorf("priors %v, %d iteration(s): posterior of %s out of range: %v",
							prior, n, m.NU[i].ReadID, p)
					}
				}
			}
		}
	}
}

func TestEMNotConverged(t *testing.T) {
	m, _ := BuildMatrix(emData())
	opt := DefaultEMOptions()
	opt.MaxIterations = 2
	opt.Tolerance = 0

	res := EM(m, opt)
	if res.Converged || res.Iterations != 2 {
		t.Errorf("expected 2 iterations without convergence, got %d (%v)", res.Iterations, res.Converged)
	}
	if res.Delta <= 0 {
		t.Errorf("expected a positive change, got %g", res.Delta)
	}
	if math.Abs(sum(res.Pi)-1) > 1e-9 {
		t.Errorf("last abundances should be kept")
	}
}

func TestEMEmpty(t *testing.T) {
	m, _ := BuildMatrix(nil)
	res := EM(m, DefaultEMOptions())
	if !res.Converged || len(res.Pi) != 0 {
		t.Errorf("unexpected result on empty matrix: %+v", res)
	}
}

func TestExpectReadFallback(t *testing.T) {
	row := make([]float64, 2)
	expectRead(row, []Hit{{0, 0.25}, {1, 0.75}}, []float64{0, 0}, 0)
	if row[0] != 0.25 || row[1] != 0.75 {
		t.Errorf("expected weights when abundances vanish, got %v", row)
	}

	expectRead(row, []Hit{{0, 1}, {1, 1}}, []float64{1, 0}, 0.5)
	// (1 + 0.5) / 2, (0 + 0.5) / 2
	if row[0] != 0.75 || row[1] != 0.25 {
		t.Errorf("unexpected smoothing: %v", row)
	}
}
