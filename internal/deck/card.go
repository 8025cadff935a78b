package deck

import "fmt"

// Suit represents a card suit
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// Letter returns the single-letter suit code used in card notation ("s", "h", ...)
func (s Suit) Letter() string {
	switch s {
	case Spades:
		return "s"
	case Hearts:
		return "h"
	case Diamonds:
		return "d"
	case Clubs:
		return "c"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Aces are high (14) except in the wheel straight.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Two:
		return "2"
	case Three:
		return "3"
	case Four:
		return "4"
	case Five:
		return "5"
	case Six:
		return "6"
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Nine:
		return "9"
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card. A Card with Joker set has no meaningful
// rank or suit; the evaluator resolves it to whichever substitution scores best.
type Card struct {
	Suit  Suit
	Rank  Rank
	Joker bool
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// NewJoker creates the joker card
func NewJoker() Card {
	return Card{Joker: true}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	if c.Joker {
		return "Jo"
	}
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Notation returns the two-character card code used for parsing (e.g., "As")
func (c Card) Notation() string {
	if c.Joker {
		return "Xx"
	}
	return c.Rank.String() + c.Suit.Letter()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return !c.Joker && c.Suit.IsRed()
}

// Value returns the numeric value of the card for comparison
func (c Card) Value() int {
	return int(c.Rank)
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return !c.Joker && c.Rank == Ace
}

// Compare orders cards by rank then suit. The joker sorts after every real card.
func Compare(a, b Card) int {
	if a.Joker != b.Joker {
		if a.Joker {
			return 1
		}
		return -1
	}
	if a.Rank != b.Rank {
		if a.Rank < b.Rank {
			return -1
		}
		return 1
	}
	if a.Suit != b.Suit {
		if a.Suit < b.Suit {
			return -1
		}
		return 1
	}
	return 0
}
