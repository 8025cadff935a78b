package deck

import "math/bits"

// CardSet represents a set of cards using a bitset for fast operations.
// Each real card maps to a bit: index = (rank-2)*4 + suit. Bit 52 is the joker.
type CardSet uint64

const jokerIndex = 52

func cardIndex(card Card) int {
	if card.Joker {
		return jokerIndex
	}
	return (int(card.Rank)-2)*4 + int(card.Suit)
}

// NewCardSet creates a CardSet from a slice of cards
func NewCardSet(cards []Card) CardSet {
	var cs CardSet
	for _, card := range cards {
		cs.Add(card)
	}
	return cs
}

// Add adds a card to the set
func (cs *CardSet) Add(card Card) {
	*cs |= 1 << cardIndex(card)
}

// Remove removes a card from the set
func (cs *CardSet) Remove(card Card) {
	*cs &^= 1 << cardIndex(card)
}

// Contains checks if a card is in the set
func (cs CardSet) Contains(card Card) bool {
	return cs&(1<<cardIndex(card)) != 0
}

// Count returns the number of cards in the set
func (cs CardSet) Count() int {
	return bits.OnesCount64(uint64(cs))
}

// Intersects reports whether the two sets share any card
func (cs CardSet) Intersects(other CardSet) bool {
	return cs&other != 0
}

// Union returns the union of the two sets
func (cs CardSet) Union(other CardSet) CardSet {
	return cs | other
}

// Cards expands the set back into a sorted slice of cards
func (cs CardSet) Cards() []Card {
	cards := make([]Card, 0, cs.Count())
	for rank := Two; rank <= Ace; rank++ {
		for suit := Spades; suit <= Clubs; suit++ {
			card := Card{Rank: rank, Suit: suit}
			if cs.Contains(card) {
				cards = append(cards, card)
			}
		}
	}
	if cs&(1<<jokerIndex) != 0 {
		cards = append(cards, NewJoker())
	}
	return cards
}
