package mcts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/game"
)

// twoCardEndgame gives hero Jh and 3d for the last two slots. Jack to the
// bottom completes a full house and a twenty-point scoop; jack to the middle
// only scores fourteen.
func twoCardEndgame(t *testing.T) *game.Position {
	t.Helper()
	hero := game.Hand{
		Top:    deck.MustParseCards("Kh Kd 3c"),
		Middle: deck.MustParseCards("As Ac 9d 5h"),
		Bottom: deck.MustParseCards("7s 7h 7d Jc"),
		Pool:   deck.MustParseCards("Jh 3d"),
	}
	villain := game.Hand{
		Top:    deck.MustParseCards("4c 5c 6s"),
		Middle: deck.MustParseCards("Th 9h 8c 4d 2h"),
		Bottom: deck.MustParseCards("Qs Qd 6h 8d 9s"),
	}
	pos, err := game.NewPosition([]game.Player{
		{ID: "hero", Hand: hero},
		{ID: "villain", Hand: villain},
	}, nil, "hero", 13)
	require.NoError(t, err)
	return pos
}

func TestRunFindsBestLine(t *testing.T) {
	s := New(Config{Simulations: 2000, Workers: 2, Seed: 42})
	result, err := s.Run(context.Background(), twoCardEndgame(t))
	require.NoError(t, err)

	assert.Contains(t, []string{"Jh->bottom", "3d->middle"}, result.Best.String())
	assert.InDelta(t, 20.0, result.EV, 0.5)
	assert.Greater(t, result.Simulations, int64(0))
	assert.NotEmpty(t, result.Moves)

	// Every root move is reported, most visited first.
	for i := 1; i < len(result.Moves); i++ {
		assert.GreaterOrEqual(t, result.Moves[i-1].Visits, result.Moves[i].Visits)
	}
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	cfg := Config{Simulations: 1500, Workers: 1, Seed: 7}

	a, err := New(cfg).Run(context.Background(), twoCardEndgame(t))
	require.NoError(t, err)
	b, err := New(cfg).Run(context.Background(), twoCardEndgame(t))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRunConverges(t *testing.T) {
	s := New(Config{
		Simulations:          50000,
		Workers:              1,
		Seed:                 3,
		MinVisits:            500,
		ConvergenceThreshold: 0.5,
	})
	result, err := s.Run(context.Background(), twoCardEndgame(t))
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.Less(t, result.Simulations, int64(50000))
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(Config{Simulations: 1000, Workers: 2, Seed: 1})
	_, err := s.Run(ctx, twoCardEndgame(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSimulations)
}

func TestRunRejectsCompletePosition(t *testing.T) {
	pos := twoCardEndgame(t)
	var err error
	for !pos.Complete() {
		pos, err = pos.Apply(pos.LegalMoves()[0])
		require.NoError(t, err)
	}

	s := New(Config{Simulations: 100, Seed: 1})
	_, err = s.Run(context.Background(), pos)
	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrInvalidPosition)
}

func TestConfidenceIntervalBracketsEV(t *testing.T) {
	s := New(Config{Simulations: 4000, Workers: 2, Seed: 11})

	// Give hero an open slot in two rows so rollout outcomes vary.
	hero := game.Hand{
		Top:    deck.MustParseCards("Kh Kd 3c"),
		Middle: deck.MustParseCards("As Ac 9d 5h"),
		Bottom: deck.MustParseCards("7s 7h 7d"),
		Pool:   deck.MustParseCards("Jh 3d 8s"),
	}
	villain := game.Hand{
		Top:    deck.MustParseCards("4c 5c 6s"),
		Middle: deck.MustParseCards("Th 9h 8c 4d 2h"),
		Bottom: deck.MustParseCards("Qs Qd 6h 8d 9s"),
	}
	pos, err := game.NewPosition([]game.Player{
		{ID: "hero", Hand: hero},
		{ID: "villain", Hand: villain},
	}, nil, "hero", 12)
	require.NoError(t, err)

	result, err := s.Run(context.Background(), pos)
	require.NoError(t, err)
	assert.LessOrEqual(t, result.CILow, result.EV)
	assert.GreaterOrEqual(t, result.CIHigh, result.EV)
	for _, m := range result.Moves {
		assert.LessOrEqual(t, m.CILow, m.EV)
		assert.GreaterOrEqual(t, m.CIHigh, m.EV)
	}
}

// Convergence waits for the leading move itself to accumulate MinVisits;
// root visits spread across several moves are not enough. With two equally
// good lines the leader's share stays well under the floor, so the run must
// spend its whole budget.
func TestRunConvergenceRequiresBestMoveVisits(t *testing.T) {
	s := New(Config{
		Simulations:          4000,
		Workers:              1,
		Seed:                 9,
		MinVisits:            3000,
		ConvergenceThreshold: 100,
		ConvergenceChecks:    1,
	})
	result, err := s.Run(context.Background(), twoCardEndgame(t))
	require.NoError(t, err)

	assert.False(t, result.Converged)
	assert.Equal(t, int64(4000), result.Simulations)
	require.NotEmpty(t, result.Moves)
	assert.Less(t, result.Moves[0].Visits, int64(3000))
}

// A worker that panics must surface an error from Run instead of tearing
// down the process.
func TestRunRecoversWorkerPanic(t *testing.T) {
	s := New(Config{Simulations: 200, Workers: 2, Seed: 1})
	s.eval = nil

	_, err := s.Run(context.Background(), twoCardEndgame(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulation worker")
}
