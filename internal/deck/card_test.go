package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardString(t *testing.T) {
	tests := []struct {
		card     Card
		expected string
	}{
		{NewCard(Spades, Ace), "A♠"},
		{NewCard(Hearts, Ten), "T♥"},
		{NewCard(Diamonds, Two), "2♦"},
		{NewCard(Clubs, King), "K♣"},
		{NewJoker(), "Jo"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.card.String())
	}
}

func TestParseCard(t *testing.T) {
	card, err := ParseCard("As")
	require.NoError(t, err)
	assert.Equal(t, NewCard(Spades, Ace), card)

	card, err = ParseCard("th")
	require.NoError(t, err)
	assert.Equal(t, NewCard(Hearts, Ten), card)

	card, err = ParseCard("Xx")
	require.NoError(t, err)
	assert.True(t, card.Joker)

	_, err = ParseCard("Zs")
	assert.Error(t, err)

	_, err = ParseCard("Ax")
	assert.Error(t, err)
}

func TestParseCardsRoundTrip(t *testing.T) {
	cards, err := ParseCards("AsKh Qd, 2c")
	require.NoError(t, err)
	require.Len(t, cards, 4)

	var notation string
	for _, c := range cards {
		notation += c.Notation()
	}
	assert.Equal(t, "AsKhQd2c", notation)
}

func TestParseCardsRejectsOddLength(t *testing.T) {
	_, err := ParseCards("AsK")
	assert.Error(t, err)
}

func TestFullDeck(t *testing.T) {
	cards := FullDeck()
	require.Len(t, cards, 52)

	seen := NewCardSet(nil)
	for _, c := range cards {
		assert.False(t, seen.Contains(c), "duplicate card %s", c)
		seen.Add(c)
	}
	assert.Equal(t, 52, seen.Count())

	withJoker := FullDeckWithJoker()
	require.Len(t, withJoker, 53)
	assert.True(t, withJoker[52].Joker)
}

func TestCompareOrdering(t *testing.T) {
	a := NewCard(Spades, Ten)
	b := NewCard(Hearts, Ten)
	c := NewCard(Spades, Jack)

	assert.Equal(t, 0, Compare(a, a))
	assert.Equal(t, -1, Compare(a, b)) // same rank: suit breaks the tie
	assert.Equal(t, -1, Compare(a, c))
	assert.Equal(t, 1, Compare(c, a))
	assert.Equal(t, 1, Compare(NewJoker(), c))
}

func TestSorted(t *testing.T) {
	cards := MustParseCards("KhAs2c")
	sorted := Sorted(cards)

	assert.Equal(t, "2c", sorted[0].Notation())
	assert.Equal(t, "Kh", sorted[1].Notation())
	assert.Equal(t, "As", sorted[2].Notation())
	// input untouched
	assert.Equal(t, "Kh", cards[0].Notation())
}

func TestCardSet(t *testing.T) {
	var cs CardSet
	cs.Add(NewCard(Spades, Ace))
	cs.Add(NewCard(Hearts, Two))

	assert.True(t, cs.Contains(NewCard(Spades, Ace)))
	assert.False(t, cs.Contains(NewCard(Clubs, Ace)))
	assert.Equal(t, 2, cs.Count())

	cs.Remove(NewCard(Spades, Ace))
	assert.False(t, cs.Contains(NewCard(Spades, Ace)))
	assert.Equal(t, 1, cs.Count())

	other := NewCardSet(MustParseCards("2h3d"))
	assert.True(t, cs.Intersects(other))
	assert.Equal(t, 3, cs.Union(other).Count())
}
