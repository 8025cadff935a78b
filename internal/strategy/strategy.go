// Package strategy turns positions into move recommendations. The calculator
// classifies each position by how many slots remain, routes it to exhaustive
// search, Monte Carlo simulation or a hybrid of the two, and degrades to a
// one-ply heuristic when the time budget runs out.
package strategy

import (
	"errors"
	"time"

	"github.com/lox/ofcsolver/internal/game"
)

var (
	// ErrCalculationTimeout is returned when the deadline expired before
	// even the heuristic fallback could produce an answer.
	ErrCalculationTimeout = errors.New("calculation timed out")
	// ErrWorkerFailure is returned when a search or simulation unit failed
	// for a reason other than the deadline.
	ErrWorkerFailure = errors.New("calculation worker failed")
)

// Mode selects how much work a calculation may do.
type Mode string

const (
	// ModeInstant answers from the one-ply heuristic only.
	ModeInstant Mode = "instant"
	// ModeStandard routes by position complexity.
	ModeStandard Mode = "standard"
	// ModeExhaustive forces full-depth search regardless of complexity.
	ModeExhaustive Mode = "exhaustive"
)

// Complexity classifies a position by remaining empty slots.
type Complexity string

const (
	ComplexityEndgame  Complexity = "endgame"
	ComplexityMidgame  Complexity = "midgame"
	ComplexityEarly    Complexity = "early"
	ComplexityComplete Complexity = "complete"
)

// Request is a single calculation request.
type Request struct {
	Mode Mode
	// MaxTime overrides the calculator's default time budget.
	MaxTime time.Duration
	// SampleOverride replaces the configured simulation budget.
	SampleOverride int
}

// ConfidenceInterval bounds an expected value at 95% confidence.
type ConfidenceInterval struct {
	Low  float64
	High float64
}

// MoveEvaluation is one candidate move with its estimated value.
type MoveEvaluation struct {
	Move       game.Move
	EV         float64
	Confidence ConfidenceInterval
	// Visits is the number of simulations behind the estimate. Zero for
	// exact search results.
	Visits int64
}

// Strategy is a completed recommendation.
type Strategy struct {
	BestMove game.Move
	EV       float64
	// Confidence bounds the EV. Exact results collapse to a point.
	Confidence ConfidenceInterval
	// Method names how the answer was produced: "exhaustive",
	// "monte-carlo", "hybrid", "heuristic" or "heuristic-fallback".
	Method string
	// Exact reports whether every line was searched to the end.
	Exact      bool
	Complexity Complexity
	// Alternatives lists all legal moves, best first.
	Alternatives []MoveEvaluation
	Simulations  int64
	Elapsed      time.Duration
}
