package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/ofcsolver/internal/evaluator"
	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/gametree"
	"github.com/lox/ofcsolver/internal/mcts"
)

// Config configures a Calculator. Zero values fall back to defaults.
type Config struct {
	Evaluator *evaluator.Evaluator
	Logger    *log.Logger
	Clock     quartz.Clock

	// EndgameThreshold is the empty-slot count at or below which positions
	// are solved exhaustively.
	EndgameThreshold int
	// HybridThreshold is the empty-slot count at or below which simulation
	// is paired with a depth-limited search prior.
	HybridThreshold int
	// HybridDepth is the placement depth of the hybrid search prior.
	HybridDepth int
	// Simulations is the default Monte Carlo budget.
	Simulations int
	// Workers is the Monte Carlo worker count.
	Workers int
	// Seed drives simulation reproducibly. Zero picks a time seed per run.
	Seed int64
	// DefaultTimeout caps a calculation when the request has no MaxTime.
	DefaultTimeout time.Duration
	// Table is the transposition table shared across calculations.
	Table *gametree.Table
}

func (c *Config) applyDefaults() {
	if c.Evaluator == nil {
		c.Evaluator = evaluator.New(nil)
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	if c.Clock == nil {
		c.Clock = quartz.NewReal()
	}
	if c.EndgameThreshold <= 0 {
		c.EndgameThreshold = 6
	}
	if c.HybridThreshold <= 0 {
		c.HybridThreshold = 10
	}
	if c.HybridDepth <= 0 {
		c.HybridDepth = 6
	}
	if c.Simulations <= 0 {
		c.Simulations = 10000
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = 5 * time.Second
	}
	if c.Table == nil {
		c.Table = gametree.NewTable()
	}
}

// Calculator computes strategies. Safe for concurrent use.
type Calculator struct {
	cfg      Config
	eval     *evaluator.Evaluator
	logger   *log.Logger
	clock    quartz.Clock
	searcher *gametree.Searcher

	// mcRun points at monteCarlo; tests swap it to exercise failure paths.
	mcRun func(ctx context.Context, pos *game.Position, sims int) (*Strategy, error)
}

// New creates a Calculator from the config.
func New(config Config) *Calculator {
	config.applyDefaults()
	c := &Calculator{
		cfg:    config,
		eval:   config.Evaluator,
		logger: config.Logger,
		clock:  config.Clock,
		searcher: gametree.New(gametree.Config{
			Evaluator: config.Evaluator,
			Table:     config.Table,
			Logger:    config.Logger,
		}),
	}
	c.mcRun = c.monteCarlo
	return c
}

// Compute produces a recommendation for the acting player. Invalid positions
// fail hard; anything else degrades: a missed deadline triggers one reduced
// retry and then the heuristic fallback, and only an already-dead parent
// context surfaces ErrCalculationTimeout.
func (c *Calculator) Compute(ctx context.Context, pos *game.Position, req Request) (*Strategy, error) {
	if pos == nil {
		return nil, fmt.Errorf("%w: nil position", game.ErrInvalidPosition)
	}
	if pos.Complete() {
		return c.scoreComplete(pos)
	}
	if len(pos.LegalMoves()) == 0 {
		return nil, fmt.Errorf("%w: player %s has no legal moves", game.ErrInvalidPosition, pos.ToAct())
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeStandard
	}
	switch mode {
	case ModeInstant, ModeStandard, ModeExhaustive:
	default:
		return nil, fmt.Errorf("%w: unknown calculation mode %q", game.ErrInvalidPosition, mode)
	}

	budget := req.MaxTime
	if budget <= 0 {
		budget = c.cfg.DefaultTimeout
	}
	sims := c.cfg.Simulations
	if req.SampleOverride > 0 {
		sims = req.SampleOverride
	}

	complexity := c.classify(pos)
	start := c.clock.Now()
	finish := func(st *Strategy) (*Strategy, error) {
		st.Complexity = complexity
		st.Elapsed = c.clock.Since(start)
		c.logger.Debug("strategy computed",
			"player", pos.ToAct(),
			"method", st.Method,
			"complexity", complexity,
			"best", st.BestMove.String(),
			"ev", st.EV,
			"elapsed", st.Elapsed)
		return st, nil
	}

	if mode == ModeInstant {
		return finish(c.heuristicStrategy(pos, "heuristic"))
	}

	overall, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	// The primary unit leaves a slice of the budget for the retry.
	primary, pcancel := context.WithTimeout(overall, budget*4/5)
	defer pcancel()

	var (
		st  *Strategy
		err error
	)
	switch {
	case mode == ModeExhaustive || complexity == ComplexityEndgame:
		st, err = c.exhaustive(primary, pos)
	case complexity == ComplexityMidgame:
		st, err = c.hybrid(primary, pos, sims)
	default:
		st, err = c.mcRun(primary, pos, sims)
	}
	if err == nil {
		return finish(st)
	}
	if errors.Is(err, game.ErrInvalidPosition) || errors.Is(err, gametree.ErrNoMoves) {
		return nil, err
	}

	// Deadline misses retry with a reduced budget; anything else is a worker
	// failure retried once on a fresh simulator before falling back.
	if degradable(err) {
		c.logger.Warn("primary calculation missed its deadline, retrying reduced", "err", err)
	} else {
		err = fmt.Errorf("%w: %v", ErrWorkerFailure, err)
		c.logger.Warn("primary calculation failed, retrying on a fresh simulator", "err", err)
	}
	retrySims := sims / 10
	if retrySims < 500 {
		retrySims = 500
	}
	if st, err = c.mcRun(overall, pos, retrySims); err == nil {
		return finish(st)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalculationTimeout, ctx.Err())
	}
	return finish(c.heuristicStrategy(pos, "heuristic-fallback"))
}

// scoreComplete handles a finished deal: there is nothing to recommend, so
// the strategy carries the exact scored outcome for the acting player.
func (c *Calculator) scoreComplete(pos *game.Position) (*Strategy, error) {
	v, err := game.ScoreFor(c.eval, pos, pos.ToAct())
	if err != nil {
		return nil, err
	}
	return &Strategy{
		EV:         v,
		Confidence: ConfidenceInterval{Low: v, High: v},
		Method:     "exhaustive",
		Exact:      true,
		Complexity: ComplexityComplete,
	}, nil
}

func (c *Calculator) classify(pos *game.Position) Complexity {
	slots := pos.TotalEmptySlots()
	switch {
	case slots == 0:
		return ComplexityComplete
	case slots <= c.cfg.EndgameThreshold:
		return ComplexityEndgame
	case slots <= c.cfg.HybridThreshold:
		return ComplexityMidgame
	default:
		return ComplexityEarly
	}
}

func (c *Calculator) exhaustive(ctx context.Context, pos *game.Position) (*Strategy, error) {
	values, err := c.searcher.SearchMoves(ctx, pos)
	if err != nil {
		return nil, err
	}

	exact := true
	alts := make([]MoveEvaluation, len(values))
	for i, v := range values {
		alts[i] = MoveEvaluation{
			Move:       v.Move,
			EV:         v.Value,
			Confidence: ConfidenceInterval{Low: v.Value, High: v.Value},
		}
		exact = exact && v.Exact
	}

	best := values[0]
	return &Strategy{
		BestMove:     best.Move,
		EV:           best.Value,
		Confidence:   ConfidenceInterval{Low: best.Value, High: best.Value},
		Method:       "exhaustive",
		Exact:        exact,
		Alternatives: alts,
	}, nil
}

func (c *Calculator) monteCarlo(ctx context.Context, pos *game.Position, sims int) (*Strategy, error) {
	sim := mcts.New(mcts.Config{
		Simulations: sims,
		Workers:     c.cfg.Workers,
		Seed:        c.cfg.Seed,
		Evaluator:   c.eval,
		Logger:      c.logger,
	})
	res, err := sim.Run(ctx, pos)
	if err != nil {
		return nil, err
	}

	alts := make([]MoveEvaluation, len(res.Moves))
	for i, m := range res.Moves {
		alts[i] = MoveEvaluation{
			Move:       m.Move,
			EV:         m.EV,
			Confidence: ConfidenceInterval{Low: m.CILow, High: m.CIHigh},
			Visits:     m.Visits,
		}
	}
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].EV > alts[j].EV
	})

	return &Strategy{
		BestMove:     res.Best,
		EV:           res.EV,
		Confidence:   ConfidenceInterval{Low: res.CILow, High: res.CIHigh},
		Method:       "monte-carlo",
		Alternatives: alts,
		Simulations:  res.Simulations,
	}, nil
}

// hybrid pairs a depth-limited search prior with a simulation run. The
// prior only overrides the sampled best move when its lookahead reached
// terminal layouts on every line.
func (c *Calculator) hybrid(ctx context.Context, pos *game.Position, sims int) (*Strategy, error) {
	priorBudget := time.Second
	if dl, ok := ctx.Deadline(); ok {
		priorBudget = time.Until(dl) / 4
	}
	priorCtx, cancel := context.WithTimeout(ctx, priorBudget)
	priorSearcher := gametree.New(gametree.Config{
		Evaluator: c.eval,
		Table:     c.cfg.Table,
		MaxDepth:  c.cfg.HybridDepth,
		Logger:    c.logger,
	})
	prior, priorErr := priorSearcher.Search(priorCtx, pos)
	cancel()

	st, err := c.monteCarlo(ctx, pos, sims)
	if err != nil {
		return nil, err
	}
	st.Method = "hybrid"

	if priorErr == nil && prior.Exact && prior.BestMove != st.BestMove {
		st.BestMove = prior.BestMove
		st.EV = prior.Value
		st.Confidence = ConfidenceInterval{Low: prior.Value, High: prior.Value}
	}
	return st, nil
}

// heuristicStrategy ranks moves by the one-ply heuristic. Always succeeds.
func (c *Calculator) heuristicStrategy(pos *game.Position, method string) *Strategy {
	hero := pos.ToAct()
	moves := pos.LegalMoves()
	alts := make([]MoveEvaluation, 0, len(moves))
	for _, m := range moves {
		child, err := pos.Apply(m)
		if err != nil {
			continue
		}
		v := game.HeuristicScore(c.eval, child, hero)
		alts = append(alts, MoveEvaluation{
			Move:       m,
			EV:         v,
			Confidence: ConfidenceInterval{Low: v, High: v},
		})
	}
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].EV > alts[j].EV
	})

	st := &Strategy{Method: method, Alternatives: alts}
	if len(alts) > 0 {
		st.BestMove = alts[0].Move
		st.EV = alts[0].EV
		st.Confidence = alts[0].Confidence
	}
	return st
}

func degradable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, mcts.ErrNoSimulations)
}
