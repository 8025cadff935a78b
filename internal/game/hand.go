// Package game models OFC positions: per-player three-row layouts, the
// undealt card pool, legal move generation and terminal scoring.
package game

import (
	"fmt"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/evaluator"
)

// Row identifies one of the three layout rows.
type Row uint8

const (
	RowTop Row = iota
	RowMiddle
	RowBottom

	// RowDiscard is the move target for cards thrown away on multi-card
	// streets. It is not a layout row: it has no capacity or royalty class
	// and never appears in Rows.
	RowDiscard
)

// Capacity returns the number of cards the row holds when complete.
func (r Row) Capacity() int {
	if r == RowTop {
		return 3
	}
	return 5
}

// Class maps the row to the evaluator's royalty scale.
func (r Row) Class() evaluator.RowClass {
	switch r {
	case RowTop:
		return evaluator.RowTop
	case RowMiddle:
		return evaluator.RowMiddle
	default:
		return evaluator.RowBottom
	}
}

// String returns the row name used in move notation.
func (r Row) String() string {
	switch r {
	case RowTop:
		return "top"
	case RowMiddle:
		return "middle"
	case RowDiscard:
		return "discard"
	default:
		return "bottom"
	}
}

// ParseRow parses a row name.
func ParseRow(s string) (Row, error) {
	switch s {
	case "top":
		return RowTop, nil
	case "middle":
		return RowMiddle, nil
	case "bottom":
		return RowBottom, nil
	case "discard":
		return RowDiscard, nil
	default:
		return 0, fmt.Errorf("unknown row %q", s)
	}
}

// Rows lists the rows in top-to-bottom order.
var Rows = [3]Row{RowTop, RowMiddle, RowBottom}

// Hand is one player's layout: the three rows plus the pool of cards dealt to
// the player but not yet placed. Hands are treated as values; mutating methods
// return copies so a Position snapshot is never changed in place.
//
// On Pineapple streets the pool holds three cards and MustDiscard is 1: the
// player places two and throws one into Discards. Discarded cards stay out of
// play but still occupy their deck slot.
type Hand struct {
	Top      []deck.Card
	Middle   []deck.Card
	Bottom   []deck.Card
	Pool     []deck.Card
	Discards []deck.Card

	// MustDiscard is how many pool cards must still be discarded before the
	// street ends. Always 0 <= MustDiscard <= len(Pool).
	MustDiscard int
}

// Row returns the cards currently placed in the given row.
func (h Hand) Row(r Row) []deck.Card {
	switch r {
	case RowTop:
		return h.Top
	case RowMiddle:
		return h.Middle
	case RowDiscard:
		return h.Discards
	default:
		return h.Bottom
	}
}

// FreeSlots returns the number of unfilled slots in the row.
func (h Hand) FreeSlots(r Row) int {
	return r.Capacity() - len(h.Row(r))
}

// EmptySlots returns the total number of unfilled slots across all rows.
func (h Hand) EmptySlots() int {
	total := 0
	for _, r := range Rows {
		total += h.FreeSlots(r)
	}
	return total
}

// CardsPlaced returns the number of cards placed across all rows.
func (h Hand) CardsPlaced() int {
	return len(h.Top) + len(h.Middle) + len(h.Bottom)
}

// Complete reports whether every row is full.
func (h Hand) Complete() bool {
	return h.EmptySlots() == 0
}

// AllCards returns every card the hand accounts for: placed rows, the pool
// and the discard pile.
func (h Hand) AllCards() []deck.Card {
	cards := make([]deck.Card, 0, h.CardsPlaced()+len(h.Pool)+len(h.Discards))
	cards = append(cards, h.Top...)
	cards = append(cards, h.Middle...)
	cards = append(cards, h.Bottom...)
	cards = append(cards, h.Pool...)
	cards = append(cards, h.Discards...)
	return cards
}

// Clone returns a deep copy of the hand.
func (h Hand) Clone() Hand {
	return Hand{
		Top:         append([]deck.Card(nil), h.Top...),
		Middle:      append([]deck.Card(nil), h.Middle...),
		Bottom:      append([]deck.Card(nil), h.Bottom...),
		Pool:        append([]deck.Card(nil), h.Pool...),
		Discards:    append([]deck.Card(nil), h.Discards...),
		MustDiscard: h.MustDiscard,
	}
}

// discard returns a copy of the hand with the pool card moved to the discard
// pile, consuming one owed discard.
func (h Hand) discard(card deck.Card) (Hand, error) {
	if h.MustDiscard <= 0 {
		return Hand{}, fmt.Errorf("no discard owed")
	}
	found := false
	for _, c := range h.Pool {
		if c == card {
			found = true
			break
		}
	}
	if !found {
		return Hand{}, fmt.Errorf("card %s is not in the pool", card)
	}

	next := h.Clone()
	for i, c := range next.Pool {
		if c == card {
			next.Pool = append(next.Pool[:i], next.Pool[i+1:]...)
			break
		}
	}
	next.Discards = append(next.Discards, card)
	next.MustDiscard--
	return next, nil
}

// place returns a copy of the hand with the card added to the row, removing it
// from the pool when present there.
func (h Hand) place(card deck.Card, row Row) (Hand, error) {
	if row == RowDiscard {
		return Hand{}, fmt.Errorf("discards do not place")
	}
	if h.FreeSlots(row) <= 0 {
		return Hand{}, fmt.Errorf("row %s is full", row)
	}

	next := h.Clone()
	for i, c := range next.Pool {
		if c == card {
			next.Pool = append(next.Pool[:i], next.Pool[i+1:]...)
			break
		}
	}

	switch row {
	case RowTop:
		next.Top = append(next.Top, card)
	case RowMiddle:
		next.Middle = append(next.Middle, card)
	default:
		next.Bottom = append(next.Bottom, card)
	}
	return next, nil
}
