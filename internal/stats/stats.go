// Package stats provides a running accumulator for sampled payoffs, used to
// report means and confidence intervals from simulation results.
package stats

import "math"

// Accumulator tracks the count, sum and sum of squares of observed values.
// The zero value is ready to use.
type Accumulator struct {
	N    int
	Sum  float64
	Sum2 float64
}

// Add incorporates a new observation.
func (a *Accumulator) Add(v float64) {
	a.N++
	a.Sum += v
	a.Sum2 += v * v
}

// Merge folds another accumulator's observations into this one.
func (a *Accumulator) Merge(b Accumulator) {
	a.N += b.N
	a.Sum += b.Sum
	a.Sum2 += b.Sum2
}

// Mean returns the arithmetic mean of all observations.
func (a *Accumulator) Mean() float64 {
	if a.N == 0 {
		return 0
	}
	return a.Sum / float64(a.N)
}

// Variance returns the sample variance of all observations.
func (a *Accumulator) Variance() float64 {
	if a.N < 2 {
		return 0
	}
	mean := a.Mean()
	return (a.Sum2 - float64(a.N)*mean*mean) / float64(a.N-1)
}

// StdDev returns the sample standard deviation.
func (a *Accumulator) StdDev() float64 {
	return math.Sqrt(a.Variance())
}

// StdError returns the standard error of the mean.
func (a *Accumulator) StdError() float64 {
	if a.N == 0 {
		return 0
	}
	return a.StdDev() / math.Sqrt(float64(a.N))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (a *Accumulator) ConfidenceInterval95() (float64, float64) {
	mean := a.Mean()
	margin := 1.96 * a.StdError()
	return mean - margin, mean + margin
}
