// Package cache stores computed strategies keyed by normalized position
// hash. Lookups go through a small local LRU tier backed by a larger shared
// tier with a TTL; concurrent requests for the same position share a single
// in-flight computation.
package cache

import (
	"context"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/strategy"
)

// Config configures a Cache. Zero values fall back to defaults.
type Config struct {
	// LocalSize bounds the fast first tier.
	LocalSize int
	// SharedSize bounds the second tier.
	SharedSize int
	// TTL expires shared-tier entries. The local tier relies on eviction.
	TTL    time.Duration
	Logger *log.Logger
}

func (c *Config) applyDefaults() {
	if c.LocalSize <= 0 {
		c.LocalSize = 1024
	}
	if c.SharedSize <= 0 {
		c.SharedSize = 16384
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   uint64
	Misses uint64
	Local  int
	Shared int
}

// Cache is a two-tier strategy cache. Safe for concurrent use.
type Cache struct {
	local  *lru.Cache[uint64, *strategy.Strategy]
	shared *expirable.LRU[uint64, *strategy.Strategy]
	group  singleflight.Group
	logger *log.Logger
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a Cache from the config.
func New(config Config) (*Cache, error) {
	config.applyDefaults()
	local, err := lru.New[uint64, *strategy.Strategy](config.LocalSize)
	if err != nil {
		return nil, err
	}
	return &Cache{
		local:  local,
		shared: expirable.NewLRU[uint64, *strategy.Strategy](config.SharedSize, nil, config.TTL),
		logger: config.Logger,
	}, nil
}

// Get returns the cached strategy for the position, if present in either
// tier. Shared-tier hits are promoted into the local tier.
func (c *Cache) Get(pos *game.Position) (*strategy.Strategy, bool) {
	st, ok := c.lookup(pos.Hash())
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return clone(st), true
}

// GetOrCompute returns the cached strategy or runs compute once, no matter
// how many callers ask for the same position concurrently. With force set,
// the read is bypassed but the fresh result still overwrites both tiers.
func (c *Cache) GetOrCompute(ctx context.Context, pos *game.Position, force bool, compute func(context.Context) (*strategy.Strategy, error)) (*strategy.Strategy, error) {
	key := pos.Hash()
	if !force {
		if st, ok := c.lookup(key); ok {
			c.hits.Add(1)
			return clone(st), nil
		}
	}
	c.misses.Add(1)

	v, err, shared := c.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		if !force {
			// A just-finished flight may have filled the tiers.
			if st, ok := c.lookup(key); ok {
				return st, nil
			}
		}
		st, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, st)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("joined in-flight calculation", "key", key)
	}
	return clone(v.(*strategy.Strategy)), nil
}

// Stats returns a snapshot of the counters and tier sizes.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Local:  c.local.Len(),
		Shared: c.shared.Len(),
	}
}

// Purge drops both tiers.
func (c *Cache) Purge() {
	c.local.Purge()
	c.shared.Purge()
}

func (c *Cache) lookup(key uint64) (*strategy.Strategy, bool) {
	if st, ok := c.local.Get(key); ok {
		return st, true
	}
	if st, ok := c.shared.Get(key); ok {
		c.local.Add(key, st)
		return st, true
	}
	return nil, false
}

func (c *Cache) store(key uint64, st *strategy.Strategy) {
	cp := clone(st)
	c.local.Add(key, cp)
	c.shared.Add(key, cp)
}

// clone keeps stored entries immutable against caller mutation.
func clone(st *strategy.Strategy) *strategy.Strategy {
	cp := *st
	cp.Alternatives = append([]strategy.MoveEvaluation(nil), st.Alternatives...)
	return &cp
}
