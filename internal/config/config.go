// Package config loads engine configuration from HCL files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/evaluator"
)

// EngineConfig represents the complete solver configuration.
type EngineConfig struct {
	Engine  EngineSettings `hcl:"engine,block"`
	Scoring ScoringConfig  `hcl:"scoring,block"`
}

// EngineSettings contains calculation and cache tuning.
type EngineSettings struct {
	EndgameThreshold int    `hcl:"endgame_threshold,optional"`
	HybridThreshold  int    `hcl:"hybrid_threshold,optional"`
	Simulations      int    `hcl:"simulations,optional"`
	Workers          int    `hcl:"workers,optional"`
	DefaultTimeoutMS int    `hcl:"default_timeout_ms,optional"`
	CacheLocalSize   int    `hcl:"cache_local_size,optional"`
	CacheSharedSize  int    `hcl:"cache_shared_size,optional"`
	CacheTTLMinutes  int    `hcl:"cache_ttl_minutes,optional"`
	Seed             int64  `hcl:"seed,optional"`
	LogLevel         string `hcl:"log_level,optional"`
}

// ScoringConfig overrides the standard royalty table. All values default to
// the standard OFC scoring rules.
type ScoringConfig struct {
	FoulPenalty      int `hcl:"foul_penalty,optional"`
	TopPairMinRank   int `hcl:"top_pair_min_rank,optional"`
	BottomStraight   int `hcl:"bottom_straight,optional"`
	BottomFlush      int `hcl:"bottom_flush,optional"`
	BottomFullHouse  int `hcl:"bottom_full_house,optional"`
	BottomQuads      int `hcl:"bottom_quads,optional"`
	BottomStrFlush   int `hcl:"bottom_straight_flush,optional"`
	BottomRoyal      int `hcl:"bottom_royal_flush,optional"`
	MiddleMultiplier int `hcl:"middle_multiplier,optional"`
}

// DefaultEngineConfig returns the default solver configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Engine: EngineSettings{
			EndgameThreshold: 6,
			HybridThreshold:  10,
			Simulations:      10000,
			Workers:          4,
			DefaultTimeoutMS: 5000,
			CacheLocalSize:   1024,
			CacheSharedSize:  16384,
			CacheTTLMinutes:  30,
			LogLevel:         "info",
		},
		Scoring: ScoringConfig{
			FoulPenalty:      6,
			TopPairMinRank:   int(deck.Six),
			BottomStraight:   2,
			BottomFlush:      4,
			BottomFullHouse:  6,
			BottomQuads:      10,
			BottomStrFlush:   15,
			BottomRoyal:      25,
			MiddleMultiplier: 2,
		},
	}
}

// LoadEngineConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadEngineConfig(filename string) (*EngineConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultEngineConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config EngineConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultEngineConfig()

	if config.Engine.EndgameThreshold == 0 {
		config.Engine.EndgameThreshold = defaults.Engine.EndgameThreshold
	}
	if config.Engine.HybridThreshold == 0 {
		config.Engine.HybridThreshold = defaults.Engine.HybridThreshold
	}
	if config.Engine.Simulations == 0 {
		config.Engine.Simulations = defaults.Engine.Simulations
	}
	if config.Engine.Workers == 0 {
		config.Engine.Workers = defaults.Engine.Workers
	}
	if config.Engine.DefaultTimeoutMS == 0 {
		config.Engine.DefaultTimeoutMS = defaults.Engine.DefaultTimeoutMS
	}
	if config.Engine.CacheLocalSize == 0 {
		config.Engine.CacheLocalSize = defaults.Engine.CacheLocalSize
	}
	if config.Engine.CacheSharedSize == 0 {
		config.Engine.CacheSharedSize = defaults.Engine.CacheSharedSize
	}
	if config.Engine.CacheTTLMinutes == 0 {
		config.Engine.CacheTTLMinutes = defaults.Engine.CacheTTLMinutes
	}
	if config.Engine.LogLevel == "" {
		config.Engine.LogLevel = defaults.Engine.LogLevel
	}

	if config.Scoring.FoulPenalty == 0 {
		config.Scoring.FoulPenalty = defaults.Scoring.FoulPenalty
	}
	if config.Scoring.TopPairMinRank == 0 {
		config.Scoring.TopPairMinRank = defaults.Scoring.TopPairMinRank
	}
	if config.Scoring.BottomStraight == 0 {
		config.Scoring.BottomStraight = defaults.Scoring.BottomStraight
	}
	if config.Scoring.BottomFlush == 0 {
		config.Scoring.BottomFlush = defaults.Scoring.BottomFlush
	}
	if config.Scoring.BottomFullHouse == 0 {
		config.Scoring.BottomFullHouse = defaults.Scoring.BottomFullHouse
	}
	if config.Scoring.BottomQuads == 0 {
		config.Scoring.BottomQuads = defaults.Scoring.BottomQuads
	}
	if config.Scoring.BottomStrFlush == 0 {
		config.Scoring.BottomStrFlush = defaults.Scoring.BottomStrFlush
	}
	if config.Scoring.BottomRoyal == 0 {
		config.Scoring.BottomRoyal = defaults.Scoring.BottomRoyal
	}
	if config.Scoring.MiddleMultiplier == 0 {
		config.Scoring.MiddleMultiplier = defaults.Scoring.MiddleMultiplier
	}

	return &config, nil
}

// Validate validates the solver configuration.
func (c *EngineConfig) Validate() error {
	if c.Engine.EndgameThreshold < 1 {
		return fmt.Errorf("endgame_threshold must be positive")
	}
	if c.Engine.HybridThreshold < c.Engine.EndgameThreshold {
		return fmt.Errorf("hybrid_threshold (%d) must be at least endgame_threshold (%d)",
			c.Engine.HybridThreshold, c.Engine.EndgameThreshold)
	}
	if c.Engine.Simulations < 1 {
		return fmt.Errorf("simulations must be positive")
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Scoring.FoulPenalty < 0 {
		return fmt.Errorf("foul_penalty must not be negative")
	}
	if c.Scoring.MiddleMultiplier < 1 {
		return fmt.Errorf("middle_multiplier must be positive")
	}
	if r := c.Scoring.TopPairMinRank; r < int(deck.Two) || r > int(deck.Ace) {
		return fmt.Errorf("top_pair_min_rank must be a card rank (2-14), got %d", r)
	}
	lvl := c.Engine.LogLevel
	if lvl != "debug" && lvl != "info" && lvl != "warn" && lvl != "error" {
		return fmt.Errorf("invalid log level: %s", lvl)
	}
	return nil
}

// DefaultTimeout returns the default calculation budget as a duration.
func (c *EngineConfig) DefaultTimeout() time.Duration {
	return time.Duration(c.Engine.DefaultTimeoutMS) * time.Millisecond
}

// CacheTTL returns the shared cache tier's time-to-live.
func (c *EngineConfig) CacheTTL() time.Duration {
	return time.Duration(c.Engine.CacheTTLMinutes) * time.Minute
}

// RoyaltyTable builds the evaluator scoring table from the scoring block.
func (c *EngineConfig) RoyaltyTable() *evaluator.RoyaltyTable {
	table := evaluator.DefaultRoyaltyTable()
	table.FoulPenalty = c.Scoring.FoulPenalty
	table.TopPairMinRank = deck.Rank(c.Scoring.TopPairMinRank)
	table.Bottom = map[evaluator.HandType]int{
		evaluator.Straight:      c.Scoring.BottomStraight,
		evaluator.Flush:         c.Scoring.BottomFlush,
		evaluator.FullHouse:     c.Scoring.BottomFullHouse,
		evaluator.FourOfAKind:   c.Scoring.BottomQuads,
		evaluator.StraightFlush: c.Scoring.BottomStrFlush,
		evaluator.RoyalFlush:    c.Scoring.BottomRoyal,
	}
	table.Middle = make(map[evaluator.HandType]int, len(table.Bottom))
	for ht, v := range table.Bottom {
		table.Middle[ht] = v * c.Scoring.MiddleMultiplier
	}
	return table
}
