// Package mcts implements Monte Carlo tree search over OFC positions. Each
// worker grows an independent tree from the root position with UCB1
// selection, random-playout rollouts and hero-perspective backpropagation;
// root statistics are merged across workers and the most-visited move wins.
package mcts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/ofcsolver/internal/evaluator"
	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/randutil"
	"github.com/lox/ofcsolver/internal/stats"
)

// ErrNoSimulations is returned when the context expired before a single
// simulation completed.
var ErrNoSimulations = errors.New("no simulations completed")

// Config configures a Simulator. Zero values fall back to defaults.
type Config struct {
	// Simulations is the total playout budget, divided across workers.
	Simulations int
	// Exploration is the UCB1 exploration constant.
	Exploration float64
	// MaxDepth caps the number of placements in a single rollout before
	// falling back to heuristic evaluation.
	MaxDepth int
	// Workers is the number of independent search trees grown in parallel.
	Workers int
	// BatchSize is the number of simulations between context and
	// convergence checks.
	BatchSize int
	// Timeout bounds the whole run. Zero means no own deadline.
	Timeout time.Duration
	// ConvergenceThreshold stops the run early once the best move's
	// expected value moves less than this between batches.
	ConvergenceThreshold float64
	// ConvergenceChecks is the number of consecutive stable batches
	// required before the run stops early.
	ConvergenceChecks int
	// MinVisits is the visit count the leading root move must reach before
	// convergence checks begin.
	MinVisits int
	// Seed drives all workers deterministically. Zero picks a time seed.
	Seed int64

	Evaluator *evaluator.Evaluator
	Logger    *log.Logger
}

func (c *Config) applyDefaults() {
	if c.Simulations <= 0 {
		c.Simulations = 10000
	}
	if c.Exploration <= 0 {
		c.Exploration = math.Sqrt2
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 26
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 256
	}
	if c.ConvergenceThreshold <= 0 {
		c.ConvergenceThreshold = 0.01
	}
	if c.ConvergenceChecks <= 0 {
		c.ConvergenceChecks = 3
	}
	if c.MinVisits <= 0 {
		c.MinVisits = 1000
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if c.Evaluator == nil {
		c.Evaluator = evaluator.New(nil)
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
}

// MoveStats summarizes one root move after the run.
type MoveStats struct {
	Move   game.Move
	Visits int64
	// EV is the mean simulated score for the acting player.
	EV float64
	// CILow and CIHigh bound the EV at 95% confidence.
	CILow  float64
	CIHigh float64
}

// Result is the outcome of a simulation run.
type Result struct {
	Best        game.Move
	EV          float64
	CILow       float64
	CIHigh      float64
	Simulations int64
	Converged   bool
	// Moves lists every root move, most visited first.
	Moves []MoveStats
}

// Simulator runs Monte Carlo tree search.
type Simulator struct {
	cfg    Config
	eval   *evaluator.Evaluator
	logger *log.Logger
}

// New creates a Simulator from the config.
func New(config Config) *Simulator {
	config.applyDefaults()
	return &Simulator{cfg: config, eval: config.Evaluator, logger: config.Logger}
}

// Run searches the position until the simulation budget, the timeout or
// convergence ends the run, whichever comes first. A deadline that cuts the
// run short degrades the answer rather than failing it, so long as at least
// one simulation finished.
func (s *Simulator) Run(ctx context.Context, pos *game.Position) (Result, error) {
	if len(pos.LegalMoves()) == 0 {
		return Result{}, fmt.Errorf("%w: player %s cannot act", game.ErrInvalidPosition, pos.ToAct())
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	workers := s.cfg.Workers
	trees := make([]*tree, workers)
	var stop atomic.Bool
	var converged atomic.Bool

	per := s.cfg.Simulations / workers
	rem := s.cfg.Simulations % workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("simulation worker %d: %v", w, r)
				}
			}()
			rng := randutil.NewWorker(s.cfg.Seed, w)
			t := newTree(pos)
			trees[w] = t

			budget := per
			if w == 0 {
				budget += rem
			}

			lastEV := math.NaN()
			var lastBest game.Move
			stable := 0
			for i := 0; i < budget; i++ {
				if stop.Load() {
					return nil
				}
				if i%s.cfg.BatchSize == 0 {
					select {
					case <-gctx.Done():
						return nil
					default:
					}
					if move, ev, visits, ok := t.rootBest(); ok && visits >= int64(s.cfg.MinVisits) {
						if move == lastBest && math.Abs(ev-lastEV) < s.cfg.ConvergenceThreshold {
							stable++
							if stable >= s.cfg.ConvergenceChecks {
								converged.Store(true)
								stop.Store(true)
								return nil
							}
						} else {
							stable = 0
						}
						lastBest, lastEV = move, ev
					}
				}
				t.iterate(rng, s)
			}
			return nil
		})
	}
	// Workers return nil on deadline; an error is a recovered panic.
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result := s.merge(trees)
	result.Converged = converged.Load()
	if result.Simulations == 0 {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrNoSimulations, err)
		}
		return Result{}, ErrNoSimulations
	}

	s.logger.Debug("simulation run complete",
		"player", pos.ToAct(),
		"best", result.Best.String(),
		"ev", result.EV,
		"simulations", result.Simulations,
		"converged", result.Converged)
	return result, nil
}

// merge folds per-worker root statistics into a single ranking.
func (s *Simulator) merge(trees []*tree) Result {
	accs := make(map[game.Move]*stats.Accumulator)
	var total int64

	for _, t := range trees {
		if t == nil {
			continue
		}
		root := t.nodes[0]
		total += root.visits
		for _, ci := range root.children {
			ch := t.nodes[ci]
			if ch.visits == 0 {
				continue
			}
			acc, ok := accs[ch.move]
			if !ok {
				acc = &stats.Accumulator{}
				accs[ch.move] = acc
			}
			acc.Merge(stats.Accumulator{N: int(ch.visits), Sum: ch.total, Sum2: ch.total2})
		}
	}

	moves := make([]MoveStats, 0, len(accs))
	for m, acc := range accs {
		low, high := acc.ConfidenceInterval95()
		moves = append(moves, MoveStats{
			Move:   m,
			Visits: int64(acc.N),
			EV:     acc.Mean(),
			CILow:  low,
			CIHigh: high,
		})
	}
	sort.Slice(moves, func(i, j int) bool {
		if moves[i].Visits != moves[j].Visits {
			return moves[i].Visits > moves[j].Visits
		}
		if moves[i].EV != moves[j].EV {
			return moves[i].EV > moves[j].EV
		}
		return moves[i].Move.String() < moves[j].Move.String()
	})

	result := Result{Simulations: total, Moves: moves}
	if len(moves) > 0 {
		best := moves[0]
		result.Best = best.Move
		result.EV = best.EV
		result.CILow = best.CILow
		result.CIHigh = best.CIHigh
	}
	return result
}

// rollout plays uniformly random moves to the end of the hand, or to the
// depth cap, and scores the outcome for the hero.
func (s *Simulator) rollout(pos *game.Position, hero string, rng *rand.Rand) float64 {
	for depth := 0; !pos.Complete(); depth++ {
		if depth >= s.cfg.MaxDepth {
			return game.HeuristicScore(s.eval, pos, hero)
		}
		moves := pos.LegalMoves()
		if len(moves) == 0 {
			return game.HeuristicScore(s.eval, pos, hero)
		}
		next, err := pos.Apply(moves[rng.IntN(len(moves))])
		if err != nil {
			return game.HeuristicScore(s.eval, pos, hero)
		}
		pos = next
	}
	v, err := game.ScoreFor(s.eval, pos, hero)
	if err != nil {
		return 0
	}
	return v
}
