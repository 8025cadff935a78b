package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/strategy"
)

func endgame(t *testing.T) *game.Position {
	t.Helper()
	pos, err := game.NewPosition([]game.Player{
		{ID: "hero", Hand: game.Hand{
			Top:    deck.MustParseCards("Kh Kd 3c"),
			Middle: deck.MustParseCards("As Ac 9d 5h"),
			Bottom: deck.MustParseCards("7s 7h 7d Jc"),
			Pool:   deck.MustParseCards("Jh 3d"),
		}},
		{ID: "villain", Hand: game.Hand{
			Top:    deck.MustParseCards("4c 5c 6s"),
			Middle: deck.MustParseCards("Th 9h 8c 4d 2h"),
			Bottom: deck.MustParseCards("Qs Qd 6h 8d 9s"),
		}},
	}, nil, "hero", 13)
	require.NoError(t, err)
	return pos
}

func TestComputeStrategyCachesByPosition(t *testing.T) {
	e, err := New(Config{Seed: 1})
	require.NoError(t, err)
	pos := endgame(t)

	first, err := e.ComputeStrategy(context.Background(), pos, CalculationConfig{})
	require.NoError(t, err)
	assert.Equal(t, "exhaustive", first.Method)
	assert.InDelta(t, 20.0, first.EV, 1e-9)

	second, err := e.ComputeStrategy(context.Background(), pos, CalculationConfig{})
	require.NoError(t, err)
	assert.Equal(t, first.BestMove, second.BestMove)
	assert.Equal(t, first.EV, second.EV)

	stats := e.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestComputeStrategyForceRecalculate(t *testing.T) {
	e, err := New(Config{Seed: 1})
	require.NoError(t, err)
	pos := endgame(t)

	_, err = e.ComputeStrategy(context.Background(), pos, CalculationConfig{})
	require.NoError(t, err)

	st, err := e.ComputeStrategy(context.Background(), pos, CalculationConfig{ForceRecalculate: true})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, st.EV, 1e-9)

	// The forced request bypassed the hit.
	assert.Equal(t, uint64(0), e.CacheStats().Hits)
	assert.Equal(t, uint64(2), e.CacheStats().Misses)
}

func TestComputeStrategyInstantMode(t *testing.T) {
	e, err := New(Config{Seed: 1})
	require.NoError(t, err)

	st, err := e.ComputeStrategy(context.Background(), endgame(t), CalculationConfig{Mode: strategy.ModeInstant})
	require.NoError(t, err)
	assert.Equal(t, "heuristic", st.Method)
	assert.NotEmpty(t, st.Alternatives)
}

func TestComputeStrategyNilPosition(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)

	_, err = e.ComputeStrategy(context.Background(), nil, CalculationConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrInvalidPosition)
}
