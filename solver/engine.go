// Package solver is the public entry point to the OFC strategy engine. An
// Engine wires the strategy calculator to an explicit result cache; callers
// provide a position and a per-request calculation config and receive a
// Strategy.
package solver

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/ofcsolver/internal/cache"
	"github.com/lox/ofcsolver/internal/evaluator"
	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/strategy"
)

// Config configures an Engine. Zero values fall back to defaults.
type Config struct {
	// Royalties overrides the standard scoring table.
	Royalties *evaluator.RoyaltyTable
	// EndgameThreshold and HybridThreshold route positions by empty slots.
	EndgameThreshold int
	HybridThreshold  int
	// Simulations is the default Monte Carlo budget.
	Simulations int
	// Workers is the Monte Carlo worker count.
	Workers int
	// Seed makes calculations reproducible. Zero picks a time seed.
	Seed int64
	// DefaultTimeout caps calculations with no per-request MaxTime.
	DefaultTimeout time.Duration
	// CacheLocalSize, CacheSharedSize and CacheTTL size the result cache.
	CacheLocalSize  int
	CacheSharedSize int
	CacheTTL        time.Duration
	Logger          *log.Logger
}

// CalculationConfig is the per-request configuration.
type CalculationConfig struct {
	// Mode is instant, standard or exhaustive. Empty means standard.
	Mode strategy.Mode
	// MaxTime overrides the engine's default calculation budget.
	MaxTime time.Duration
	// SampleOverride replaces the configured simulation budget.
	SampleOverride int
	// ForceRecalculate bypasses the cache read but still stores the result.
	ForceRecalculate bool
}

// Engine computes and caches strategies. Safe for concurrent use.
type Engine struct {
	calc   *strategy.Calculator
	cache  *cache.Cache
	logger *log.Logger
}

// New creates an Engine from the config.
func New(config Config) (*Engine, error) {
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var eval *evaluator.Evaluator
	if config.Royalties != nil {
		eval = evaluator.New(config.Royalties)
	} else {
		eval = evaluator.New(nil)
	}

	resultCache, err := cache.New(cache.Config{
		LocalSize:  config.CacheLocalSize,
		SharedSize: config.CacheSharedSize,
		TTL:        config.CacheTTL,
		Logger:     logger.WithPrefix("cache"),
	})
	if err != nil {
		return nil, err
	}

	calc := strategy.New(strategy.Config{
		Evaluator:        eval,
		Logger:           logger.WithPrefix("strategy"),
		EndgameThreshold: config.EndgameThreshold,
		HybridThreshold:  config.HybridThreshold,
		Simulations:      config.Simulations,
		Workers:          config.Workers,
		Seed:             config.Seed,
		DefaultTimeout:   config.DefaultTimeout,
	})

	return &Engine{calc: calc, cache: resultCache, logger: logger}, nil
}

// ComputeStrategy returns the recommended move for the position's acting
// player. Results are cached by normalized position; concurrent requests for
// the same position share one computation. Only structurally invalid
// positions fail; timeouts and worker failures degrade to marked approximate
// strategies.
func (e *Engine) ComputeStrategy(ctx context.Context, pos *game.Position, cfg CalculationConfig) (*strategy.Strategy, error) {
	if pos == nil {
		return nil, game.ErrInvalidPosition
	}
	req := strategy.Request{
		Mode:           cfg.Mode,
		MaxTime:        cfg.MaxTime,
		SampleOverride: cfg.SampleOverride,
	}
	return e.cache.GetOrCompute(ctx, pos, cfg.ForceRecalculate, func(ctx context.Context) (*strategy.Strategy, error) {
		return e.calc.Compute(ctx, pos, req)
	})
}

// CacheStats reports the result cache's counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}
