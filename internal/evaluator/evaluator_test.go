package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ofcsolver/internal/deck"
)

func evalType(t *testing.T, e *Evaluator, cards string) HandType {
	t.Helper()
	ranking, err := e.Evaluate(deck.MustParseCards(cards))
	require.NoError(t, err)
	return ranking.Type
}

func TestEvaluateHandTypes(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name     string
		cards    string
		expected HandType
	}{
		{"royal flush", "AsKsQsJsTs", RoyalFlush},
		{"straight flush", "9h8h7h6h5h", StraightFlush},
		{"steel wheel", "5c4c3c2cAc", StraightFlush},
		{"four of a kind", "7s7h7d7cKs", FourOfAKind},
		{"full house", "KsKhKd2s2h", FullHouse},
		{"flush", "AhJh8h5h2h", Flush},
		{"straight", "Ts9c8d7h6s", Straight},
		{"wheel", "5s4h3d2cAs", Straight},
		{"three of a kind", "QsQhQd7s2c", ThreeOfAKind},
		{"two pair", "JsJh4d4cAs", TwoPair},
		{"pair", "9s9hKdQs2c", Pair},
		{"high card", "AsJh9d5s3c", HighCard},
		{"top row trips", "5s5h5d", ThreeOfAKind},
		{"top row pair", "QsQh2d", Pair},
		{"top row high card", "AsKh9d", HighCard},
		// No 3-card straights or flushes in the top row.
		{"top row suited connectors", "4s3s2s", HighCard},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, evalType(t, e, test.cards))
		})
	}
}

func TestEvaluateRejectsBadSizes(t *testing.T) {
	e := New(nil)
	for _, cards := range []string{"", "As", "AsKh", "AsKhQd2c", "AsKhQdJs9c8h"} {
		_, err := e.Evaluate(deck.MustParseCards(cards))
		assert.ErrorIs(t, err, ErrInvalidHandSize, "cards %q", cards)
	}
}

func TestCompareHandsProperties(t *testing.T) {
	e := New(nil)

	hands := []string{
		"AsJh9d5s3c", "9s9hKdQs2c", "JsJh4d4cAs", "QsQhQd7s2c",
		"Ts9c8d7h6s", "AhJh8h5h2h", "KsKhKd2s2h", "7s7h7d7cKs",
		"9h8h7h6h5h", "AsKsQsJsTs",
	}

	rankings := make([]HandRanking, len(hands))
	for i, h := range hands {
		r, err := e.Evaluate(deck.MustParseCards(h))
		require.NoError(t, err)
		rankings[i] = r
	}

	for i, a := range rankings {
		// Reflexivity
		assert.Equal(t, 0, CompareHands(a, a))

		for j, b := range rankings {
			// Antisymmetry
			assert.Equal(t, CompareHands(a, b), -CompareHands(b, a))
			// Consistency with the declared type ordering
			if i < j {
				assert.Equal(t, -1, CompareHands(a, b), "%s vs %s", hands[i], hands[j])
			}
		}
	}
}

func TestCompareHandsKickers(t *testing.T) {
	e := New(nil)

	// Same pair, different kicker.
	a, err := e.Evaluate(deck.MustParseCards("9s9hAdQs2c"))
	require.NoError(t, err)
	b, err := e.Evaluate(deck.MustParseCards("9d9cKdQh2h"))
	require.NoError(t, err)
	assert.Equal(t, 1, CompareHands(a, b))

	// Identical ranks in different suits tie.
	c, err := e.Evaluate(deck.MustParseCards("9d9cAhQh2h"))
	require.NoError(t, err)
	assert.Equal(t, 0, CompareHands(a, c))

	// Two pair ordered by high pair, then low pair, then kicker.
	d, err := e.Evaluate(deck.MustParseCards("JsJh5d5cAs"))
	require.NoError(t, err)
	f, err := e.Evaluate(deck.MustParseCards("JdJc4d4hAh"))
	require.NoError(t, err)
	assert.Equal(t, 1, CompareHands(d, f))
}

func TestWheelRanksBelowSixHighStraight(t *testing.T) {
	e := New(nil)

	wheel, err := e.Evaluate(deck.MustParseCards("5s4h3d2cAs"))
	require.NoError(t, err)
	sixHigh, err := e.Evaluate(deck.MustParseCards("6s5h4d3c2s"))
	require.NoError(t, err)

	assert.Equal(t, Straight, wheel.Type)
	assert.Equal(t, -1, CompareHands(wheel, sixHigh))
}

func TestRoyalties(t *testing.T) {
	e := New(nil)

	tests := []struct {
		cards    string
		row      RowClass
		expected int
	}{
		{"AsKsQsJsTs", RowBottom, 25},
		{"AsKsQsJsTs", RowMiddle, 50},
		{"9h8h7h6h5h", RowBottom, 15},
		{"7s7h7d7cKs", RowBottom, 10},
		{"7s7h7d7cKs", RowMiddle, 20},
		{"KsKhKd2s2h", RowBottom, 6},
		{"KsKhKd2s2h", RowMiddle, 12},
		{"AhJh8h5h2h", RowBottom, 4},
		{"Ts9c8d7h6s", RowBottom, 2},
		{"Ts9c8d7h6s", RowMiddle, 4},
		{"9s9hKdQs2c", RowBottom, 0},
		// Top row: pairs 66+ score rank-5, below that nothing.
		{"6s6h2d", RowTop, 1},
		{"QsQh2d", RowTop, 7},
		{"AsAh2d", RowTop, 9},
		{"5s5hAd", RowTop, 0},
		// Top row trips: 10 for deuces scaling to 22 for aces.
		{"2s2h2d", RowTop, 10},
		{"AsAhAd", RowTop, 22},
	}

	for _, test := range tests {
		ranking, err := e.EvaluateIn(deck.MustParseCards(test.cards), test.row)
		require.NoError(t, err)
		assert.Equal(t, test.expected, ranking.Royalty, "cards %s row %d", test.cards, test.row)
	}
}

func TestValidateLayout(t *testing.T) {
	e := New(nil)

	tests := []struct {
		name    string
		top     string
		middle  string
		bottom  string
		expected bool
	}{
		{
			name:    "clean layout",
			top:     "QsQh2d",
			middle:  "KsKhKd4s4h",
			bottom:  "7s7h7d7cAs",
			expected: true,
		},
		{
			name:    "top beats middle",
			top:     "AsAhAd",
			middle:  "KsQh9d5s3c",
			bottom:  "7s7h7d7c2s",
			expected: false,
		},
		{
			name:    "middle beats bottom",
			top:     "9sKh2d",
			middle:  "QsQhQd5s3c",
			bottom:  "JsJh7d4c2s",
			expected: false,
		},
		{
			name:    "equal rows are legal",
			top:     "KsQh2d",
			middle:  "AsJd9h5s3c",
			bottom:  "AhJc9d5h3d",
			expected: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			valid, err := e.ValidateLayout(
				deck.MustParseCards(test.top),
				deck.MustParseCards(test.middle),
				deck.MustParseCards(test.bottom),
			)
			require.NoError(t, err)
			assert.Equal(t, test.expected, valid)
		})
	}
}

func TestScoreLayout(t *testing.T) {
	e := New(nil)

	// QQ top (7) + kings full middle (12) + quads bottom (10) = 29.
	score, err := e.ScoreLayout(
		deck.MustParseCards("QsQh2d"),
		deck.MustParseCards("KsKhKd4s4h"),
		deck.MustParseCards("7s7h7d7cAs"),
	)
	require.NoError(t, err)
	assert.False(t, score.Fouled)
	assert.Equal(t, 29, score.Royalties)
	assert.Equal(t, 29, score.Points)

	// Fouled layout scores the penalty, royalties ignored.
	score, err = e.ScoreLayout(
		deck.MustParseCards("AsAhAd"),
		deck.MustParseCards("KsQh9d5s3c"),
		deck.MustParseCards("7s7h7d7c2s"),
	)
	require.NoError(t, err)
	assert.True(t, score.Fouled)
	assert.Equal(t, 0, score.Royalties)
	assert.Equal(t, -6, score.Points)
}

func TestJokerResolvesToBestHand(t *testing.T) {
	e := New(nil)

	// Joker completes the royal flush.
	cards := deck.MustParseCards("AsKsQsJs")
	cards = append(cards, deck.NewJoker())
	ranking, err := e.Evaluate(cards)
	require.NoError(t, err)
	assert.Equal(t, RoyalFlush, ranking.Type)

	// Joker pairs the ace in the top row.
	top := deck.MustParseCards("AsKh")
	top = append(top, deck.NewJoker())
	ranking, err = e.Evaluate(top)
	require.NoError(t, err)
	assert.Equal(t, Pair, ranking.Type)
	assert.Equal(t, 9, ranking.Royalty)
}

func TestQualifiesForFantasyLand(t *testing.T) {
	e := New(nil)

	tests := []struct {
		cards    string
		expected bool
	}{
		{"QsQh2d", true},
		{"KsKh2d", true},
		{"AsAh2d", true},
		{"JsJh2d", false},
		{"2s2h2d", true},
		{"AsKh2d", false},
	}

	for _, test := range tests {
		ok, err := e.QualifiesForFantasyLand(deck.MustParseCards(test.cards))
		require.NoError(t, err)
		assert.Equal(t, test.expected, ok, "cards %s", test.cards)
	}
}

func TestCustomRoyaltyTable(t *testing.T) {
	table := DefaultRoyaltyTable()
	table.Bottom[Flush] = 99
	table.FoulPenalty = 12

	e := New(table)
	ranking, err := e.Evaluate(deck.MustParseCards("AhJh8h5h2h"))
	require.NoError(t, err)
	assert.Equal(t, 99, ranking.Royalty)

	score, err := e.ScoreLayout(
		deck.MustParseCards("AsAhAd"),
		deck.MustParseCards("KsQh9d5s3c"),
		deck.MustParseCards("7s7h7d7c2s"),
	)
	require.NoError(t, err)
	assert.Equal(t, -12, score.Points)
}
