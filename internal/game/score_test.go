package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/evaluator"
)

func completedHand(t *testing.T, top, middle, bottom string) Hand {
	t.Helper()
	h := Hand{
		Top:    deck.MustParseCards(top),
		Middle: deck.MustParseCards(middle),
		Bottom: deck.MustParseCards(bottom),
	}
	require.True(t, h.Complete())
	return h
}

func TestScoreScoop(t *testing.T) {
	e := evaluator.New(nil)

	hero := completedHand(t, "3h 4c 6s", "Jd Ts 8c 4d 2s", "As Ad 6c 7d 9s")
	villain := completedHand(t, "2c 3d 5c", "9h 8d 7c 4h 2h", "Ks Kh 6d 7s 9c")

	pos := mustPosition(t, []Player{
		{ID: "hero", Hand: hero},
		{ID: "villain", Hand: villain},
	}, nil, "hero", 13)

	totals, err := Score(e, pos)
	require.NoError(t, err)

	// Hero wins all three rows: three row points doubled by the scoop.
	assert.Equal(t, 6.0, totals["hero"])
	assert.Equal(t, -6.0, totals["villain"])
}

func TestScoreFoulPaysPenaltyAndRoyalties(t *testing.T) {
	e := evaluator.New(nil)

	// Pair of queens up top over a king-high middle is a foul.
	hero := completedHand(t, "Qs Qh 3c", "Kd Jc 9d 4s 2d", "Ah Ac 5d 6h 8s")
	// Middle straight (4) plus bottom flush (4) for eight in royalties.
	villain := completedHand(t, "2c 3d 4c", "7h 8h 6c 5s 9s", "Kh Jh Th 5h 3h")

	pos := mustPosition(t, []Player{
		{ID: "hero", Hand: hero},
		{ID: "villain", Hand: villain},
	}, nil, "hero", 13)

	score, err := e.ScoreLayout(hero.Top, hero.Middle, hero.Bottom)
	require.NoError(t, err)
	require.True(t, score.Fouled)

	totals, err := Score(e, pos)
	require.NoError(t, err)
	assert.Equal(t, -14.0, totals["hero"])
	assert.Equal(t, 14.0, totals["villain"])
}

func TestScoreBothFouled(t *testing.T) {
	e := evaluator.New(nil)

	hero := completedHand(t, "Qs Qh 3c", "Kd Jc 9d 4s 2d", "Ah Ac 5d 6h 8s")
	villain := completedHand(t, "Js Jh 4c", "Ad Tc 9h 5c 2c", "Kc Kh 6d 7s 9c")

	for _, h := range []Hand{hero, villain} {
		score, err := e.ScoreLayout(h.Top, h.Middle, h.Bottom)
		require.NoError(t, err)
		require.True(t, score.Fouled)
	}

	pos := mustPosition(t, []Player{
		{ID: "hero", Hand: hero},
		{ID: "villain", Hand: villain},
	}, nil, "hero", 13)

	totals, err := Score(e, pos)
	require.NoError(t, err)
	assert.Zero(t, totals["hero"])
	assert.Zero(t, totals["villain"])
}

func TestScoreThreeWayIsZeroSum(t *testing.T) {
	e := evaluator.New(nil)

	pos := mustPosition(t, []Player{
		{ID: "a", Hand: completedHand(t, "3h 4c 6s", "Jd Ts 8c 4d 2s", "As Ad 6c 7d 9s")},
		{ID: "b", Hand: completedHand(t, "2c 3d 5c", "9h 8d 7c 4h 2h", "Ks Kh 6d 7s 9c")},
		{ID: "c", Hand: completedHand(t, "2d 3s 5d", "Tc 9d 8h 4s 3c", "Qs Qh 6h 7h Th")},
	}, nil, "a", 13)

	totals, err := Score(e, pos)
	require.NoError(t, err)

	sum := 0.0
	for _, v := range totals {
		sum += v
	}
	assert.InDelta(t, 0.0, sum, 1e-9)
}

func TestScoreIncompletePosition(t *testing.T) {
	e := evaluator.New(nil)

	pos := mustPosition(t, []Player{
		{ID: "hero", Hand: Hand{Top: deck.MustParseCards("Ah Kd")}},
	}, nil, "hero", 2)

	_, err := Score(e, pos)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestScoreFor(t *testing.T) {
	e := evaluator.New(nil)

	pos := mustPosition(t, []Player{
		{ID: "hero", Hand: completedHand(t, "3h 4c 6s", "Jd Ts 8c 4d 2s", "As Ad 6c 7d 9s")},
		{ID: "villain", Hand: completedHand(t, "2c 3d 5c", "9h 8d 7c 4h 2h", "Ks Kh 6d 7s 9c")},
	}, nil, "hero", 13)

	v, err := ScoreFor(e, pos, "villain")
	require.NoError(t, err)
	assert.Equal(t, -6.0, v)

	_, err = ScoreFor(e, pos, "ghost")
	assert.Error(t, err)
}
