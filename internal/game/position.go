package game

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/lox/ofcsolver/internal/deck"
)

// ErrInvalidPosition is returned for structurally invalid positions:
// duplicated cards, unknown players, or moves that do not fit the position.
var ErrInvalidPosition = errors.New("invalid position")

// Move is a candidate action: placing one card into one row of the acting
// player's layout, or throwing a pool card away (Row == RowDiscard) on
// streets that owe a discard. The card comes from the player's pool when it
// holds cards, otherwise from the undealt pile (a draw-and-place).
type Move struct {
	Card deck.Card
	Row  Row
}

// String renders the move in "As->top" notation.
func (m Move) String() string {
	return m.Card.Notation() + "->" + m.Row.String()
}

// Player pairs a player identifier with their current hand.
type Player struct {
	ID   string
	Hand Hand
}

// Position is an immutable snapshot of a decision point: every player's
// layout, the undealt pool, whose turn it is and the round number. Moves
// produce new Position values; an existing Position is never mutated.
type Position struct {
	players []Player
	toAct   int
	undealt []deck.Card
	round   int
}

// NewPosition validates and builds a position snapshot. All cards across
// layouts, pools and the undealt pile must be pairwise distinct and drawn
// from a single deck.
func NewPosition(players []Player, undealt []deck.Card, toAct string, round int) (*Position, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidPosition)
	}

	actIdx := -1
	var seen deck.CardSet
	total := 0
	hasJoker := false

	checkCards := func(owner string, cards []deck.Card) error {
		for _, c := range cards {
			if c.Joker {
				if hasJoker {
					return fmt.Errorf("%w: more than one joker", ErrInvalidPosition)
				}
				hasJoker = true
			}
			if seen.Contains(c) {
				return fmt.Errorf("%w: duplicate card %s (%s)", ErrInvalidPosition, c, owner)
			}
			seen.Add(c)
			total++
		}
		return nil
	}

	for i, p := range players {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: empty player id", ErrInvalidPosition)
		}
		if p.ID == toAct {
			actIdx = i
		}
		for _, r := range Rows {
			if len(p.Hand.Row(r)) > r.Capacity() {
				return nil, fmt.Errorf("%w: player %s row %s overfilled", ErrInvalidPosition, p.ID, r)
			}
		}
		if p.Hand.MustDiscard < 0 || p.Hand.MustDiscard > len(p.Hand.Pool) {
			return nil, fmt.Errorf("%w: player %s owes %d discards with %d pool cards",
				ErrInvalidPosition, p.ID, p.Hand.MustDiscard, len(p.Hand.Pool))
		}
		if err := checkCards(p.ID, p.Hand.AllCards()); err != nil {
			return nil, err
		}
	}
	if actIdx < 0 {
		return nil, fmt.Errorf("%w: acting player %q not found", ErrInvalidPosition, toAct)
	}
	if err := checkCards("undealt", undealt); err != nil {
		return nil, err
	}

	deckSize := 52
	if hasJoker {
		deckSize = 53
	}
	if total > deckSize {
		return nil, fmt.Errorf("%w: %d cards exceeds deck size %d", ErrInvalidPosition, total, deckSize)
	}

	pos := &Position{
		players: make([]Player, len(players)),
		toAct:   actIdx,
		undealt: deck.Sorted(undealt),
		round:   round,
	}
	for i, p := range players {
		pos.players[i] = Player{ID: p.ID, Hand: p.Hand.Clone()}
	}
	return pos, nil
}

// Players returns the players in seating order.
func (p *Position) Players() []Player {
	return p.players
}

// Player returns the hand for the given player id.
func (p *Position) Player(id string) (Hand, bool) {
	for _, pl := range p.players {
		if pl.ID == id {
			return pl.Hand, true
		}
	}
	return Hand{}, false
}

// ToAct returns the id of the player to act.
func (p *Position) ToAct() string {
	return p.players[p.toAct].ID
}

// ActingHand returns the acting player's hand.
func (p *Position) ActingHand() Hand {
	return p.players[p.toAct].Hand
}

// Undealt returns the cards not yet seen by any player, in sorted order.
func (p *Position) Undealt() []deck.Card {
	return p.undealt
}

// Round returns the street number, starting at 1.
func (p *Position) Round() int {
	return p.round
}

// Complete reports whether every player's layout is full.
func (p *Position) Complete() bool {
	for _, pl := range p.players {
		if !pl.Hand.Complete() {
			return false
		}
	}
	return true
}

// TotalEmptySlots counts unfilled slots across all players, the measure used
// to classify position complexity.
func (p *Position) TotalEmptySlots() int {
	total := 0
	for _, pl := range p.players {
		total += pl.Hand.EmptySlots()
	}
	return total
}

// LegalMoves enumerates the acting player's moves: each pool card (or, when
// the pool is empty, each undealt card) into each row with space, plus a
// discard of each pool card while the street owes one. Once only the owed
// discards remain in the pool, discarding is the sole legal action. Returns
// nil when the acting player's layout is complete.
func (p *Position) LegalMoves() []Move {
	hand := p.ActingHand()
	if hand.Complete() {
		return nil
	}

	if len(hand.Pool) > 0 {
		moves := make([]Move, 0, len(hand.Pool)*4)
		placeable := len(hand.Pool) > hand.MustDiscard
		for _, card := range hand.Pool {
			if placeable {
				for _, row := range Rows {
					if hand.FreeSlots(row) > 0 {
						moves = append(moves, Move{Card: card, Row: row})
					}
				}
			}
			if hand.MustDiscard > 0 {
				moves = append(moves, Move{Card: card, Row: RowDiscard})
			}
		}
		return moves
	}

	moves := make([]Move, 0, len(p.undealt)*3)
	for _, card := range p.undealt {
		for _, row := range Rows {
			if hand.FreeSlots(row) > 0 {
				moves = append(moves, Move{Card: card, Row: row})
			}
		}
	}
	return moves
}

// Apply plays a move, returning the successor position. Discard moves send a
// pool card to the player's discard pile; placements refuse to leave fewer
// pool cards than owed discards. The turn passes to the next incomplete
// player once the acting player's pool is exhausted; the round number
// increments when the turn wraps around the table.
func (p *Position) Apply(m Move) (*Position, error) {
	hand := p.ActingHand()
	if hand.Complete() {
		return nil, fmt.Errorf("%w: acting player %s has a complete layout", ErrInvalidPosition, p.ToAct())
	}

	fromPool := false
	for _, c := range hand.Pool {
		if c == m.Card {
			fromPool = true
			break
		}
	}

	next := &Position{
		players: make([]Player, len(p.players)),
		toAct:   p.toAct,
		round:   p.round,
	}
	for i, pl := range p.players {
		next.players[i] = Player{ID: pl.ID, Hand: pl.Hand.Clone()}
	}

	if m.Row == RowDiscard {
		if !fromPool {
			return nil, fmt.Errorf("%w: discard %s must use a pool card", ErrInvalidPosition, m.Card)
		}
		next.undealt = append([]deck.Card(nil), p.undealt...)
		discarded, err := next.players[p.toAct].Hand.discard(m.Card)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
		}
		next.players[p.toAct].Hand = discarded
		if len(discarded.Pool) == 0 {
			next.advanceTurn()
		}
		return next, nil
	}

	if fromPool {
		if len(hand.Pool) <= hand.MustDiscard {
			return nil, fmt.Errorf("%w: %d pool cards are owed as discards", ErrInvalidPosition, hand.MustDiscard)
		}
		next.undealt = append([]deck.Card(nil), p.undealt...)
	} else {
		if len(hand.Pool) > 0 {
			return nil, fmt.Errorf("%w: move %s must use a pool card", ErrInvalidPosition, m)
		}
		idx := -1
		for i, c := range p.undealt {
			if c == m.Card {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: card %s is not available", ErrInvalidPosition, m.Card)
		}
		next.undealt = make([]deck.Card, 0, len(p.undealt)-1)
		next.undealt = append(next.undealt, p.undealt[:idx]...)
		next.undealt = append(next.undealt, p.undealt[idx+1:]...)
	}

	placed, err := next.players[p.toAct].Hand.place(m.Card, m.Row)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	next.players[p.toAct].Hand = placed

	if len(placed.Pool) == 0 {
		next.advanceTurn()
	}
	return next, nil
}

// advanceTurn moves to the next player with an incomplete layout, bumping the
// round when the turn wraps past the last seat.
func (p *Position) advanceTurn() {
	for step := 1; step <= len(p.players); step++ {
		if p.toAct+step == len(p.players) {
			p.round++
		}
		idx := (p.toAct + step) % len(p.players)
		if !p.players[idx].Hand.Complete() {
			p.toAct = idx
			return
		}
	}
}

// Hash returns a deterministic digest of the normalized position: sorted card
// multisets per row and pool, so row-internal ordering never affects the key.
func (p *Position) Hash() uint64 {
	h := fnv.New64a()

	writeCards := func(cards []deck.Card) {
		for _, c := range deck.Sorted(cards) {
			h.Write([]byte(c.Notation()))
		}
		h.Write([]byte{'|'})
	}

	for _, pl := range p.players {
		h.Write([]byte(pl.ID))
		h.Write([]byte{':'})
		for _, r := range Rows {
			writeCards(pl.Hand.Row(r))
		}
		writeCards(pl.Hand.Pool)
		writeCards(pl.Hand.Discards)
		h.Write([]byte{byte(pl.Hand.MustDiscard)})
	}
	writeCards(p.undealt)
	h.Write([]byte(p.ToAct()))
	h.Write([]byte{byte(p.round)})
	return h.Sum64()
}
