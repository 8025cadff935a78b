// Package evaluator classifies OFC hands, compares their strength and
// computes royalty bonuses for the three-row layouts used by the solver.
package evaluator

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"github.com/lox/ofcsolver/internal/deck"
)

// ErrInvalidHandSize is returned when a hand is not exactly 3 or 5 cards.
var ErrInvalidHandSize = errors.New("hand must have exactly 3 or 5 cards")

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns a human-readable hand description.
func (ht HandType) String() string {
	switch ht {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandRanking is the evaluation of a fixed 3- or 5-card hand: the hand type,
// a strength value that breaks ties within the same type (rank groups packed
// most-significant-first, kickers included), and the royalty bonus the hand
// earns in its row.
type HandRanking struct {
	Type     HandType
	Strength uint32
	Royalty  int
}

// CompareHands compares two rankings and returns 1 if a wins, -1 if b wins, 0 for tie.
func CompareHands(a, b HandRanking) int {
	if a.Type != b.Type {
		if a.Type > b.Type {
			return 1
		}
		return -1
	}
	if a.Strength != b.Strength {
		if a.Strength > b.Strength {
			return 1
		}
		return -1
	}
	return 0
}

// Evaluator evaluates hands against a royalty table.
type Evaluator struct {
	royalty *RoyaltyTable
}

// New creates an evaluator with the given royalty table. A nil table uses the defaults.
func New(royalty *RoyaltyTable) *Evaluator {
	if royalty == nil {
		royalty = DefaultRoyaltyTable()
	}
	return &Evaluator{royalty: royalty}
}

// RowClass identifies which royalty scale applies to a hand. The middle row
// pays doubled bonuses relative to the bottom row.
type RowClass uint8

const (
	RowTop RowClass = iota
	RowMiddle
	RowBottom
)

// Evaluate classifies a 3- or 5-card hand. Jokers are resolved to whichever
// substitution yields the strongest ranking. Royalties are computed on the
// top-row scale for 3 cards and the bottom-row scale for 5; use EvaluateIn
// for middle-row bonuses.
func (e *Evaluator) Evaluate(cards []deck.Card) (HandRanking, error) {
	if len(cards) != 3 && len(cards) != 5 {
		return HandRanking{}, fmt.Errorf("%w: got %d", ErrInvalidHandSize, len(cards))
	}

	jokerAt := -1
	for i, c := range cards {
		if c.Joker {
			jokerAt = i
			break
		}
	}
	if jokerAt < 0 {
		return e.evaluateFixed(cards), nil
	}

	// Try every substitution for the joker and keep the best resulting hand.
	used := deck.NewCardSet(cards)
	resolved := make([]deck.Card, len(cards))
	copy(resolved, cards)

	var best HandRanking
	found := false
	for _, candidate := range deck.FullDeck() {
		if used.Contains(candidate) {
			continue
		}
		resolved[jokerAt] = candidate
		ranking, err := e.Evaluate(resolved)
		if err != nil {
			return HandRanking{}, err
		}
		if !found || CompareHands(ranking, best) > 0 {
			best = ranking
			found = true
		}
	}
	return best, nil
}

// EvaluateIn classifies a hand and applies the royalty scale for the given row.
func (e *Evaluator) EvaluateIn(cards []deck.Card, row RowClass) (HandRanking, error) {
	ranking, err := e.Evaluate(cards)
	if err != nil {
		return HandRanking{}, err
	}
	if row == RowMiddle {
		ranking.Royalty = e.royalty.MiddleRoyalty(ranking.Type)
	}
	return ranking, nil
}

// evaluateFixed classifies a joker-free hand.
func (e *Evaluator) evaluateFixed(cards []deck.Card) HandRanking {
	ranks := make([]int, len(cards))
	var rankMask uint16
	suitsMatch := true
	for i, c := range cards {
		ranks[i] = int(c.Rank)
		rankMask |= 1 << (uint(c.Rank) - 2)
		if c.Suit != cards[0].Suit {
			suitsMatch = false
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))

	counts := countRanks(ranks)

	var ht HandType
	var strength uint32

	isFlush := suitsMatch && len(cards) == 5
	straightHigh := 0
	if len(cards) == 5 && bits.OnesCount16(rankMask) == 5 {
		straightHigh = straightHighRank(rankMask)
	}

	switch {
	case straightHigh > 0 && isFlush:
		if straightHigh == int(deck.Ace) {
			ht = RoyalFlush
		} else {
			ht = StraightFlush
		}
		strength = packStrength(straightHigh)
	case counts[0].count == 4:
		ht = FourOfAKind
		strength = packStrength(counts[0].rank, counts[1].rank)
	case counts[0].count == 3 && len(counts) > 1 && counts[1].count == 2:
		ht = FullHouse
		strength = packStrength(counts[0].rank, counts[1].rank)
	case isFlush:
		ht = Flush
		strength = packStrength(ranks...)
	case straightHigh > 0:
		ht = Straight
		strength = packStrength(straightHigh)
	case counts[0].count == 3:
		ht = ThreeOfAKind
		strength = packGroups(counts)
	case counts[0].count == 2 && len(counts) > 1 && counts[1].count == 2:
		ht = TwoPair
		strength = packGroups(counts)
	case counts[0].count == 2:
		ht = Pair
		strength = packGroups(counts)
	default:
		ht = HighCard
		strength = packStrength(ranks...)
	}

	return HandRanking{
		Type:     ht,
		Strength: strength,
		Royalty:  e.royalty.Royalty(len(cards), ht, counts[0].rank),
	}
}

// ValidateLayout reports whether a completed layout satisfies the OFC
// strength ordering bottom >= middle >= top. A false result means the
// layout is fouled.
func (e *Evaluator) ValidateLayout(top, middle, bottom []deck.Card) (bool, error) {
	topRank, err := e.Evaluate(top)
	if err != nil {
		return false, fmt.Errorf("top row: %w", err)
	}
	middleRank, err := e.Evaluate(middle)
	if err != nil {
		return false, fmt.Errorf("middle row: %w", err)
	}
	bottomRank, err := e.Evaluate(bottom)
	if err != nil {
		return false, fmt.Errorf("bottom row: %w", err)
	}

	if CompareHands(topRank, middleRank) > 0 {
		return false, nil
	}
	if CompareHands(middleRank, bottomRank) > 0 {
		return false, nil
	}
	return true, nil
}

// LayoutScore is the scored outcome of one player's completed layout.
type LayoutScore struct {
	Fouled    bool
	Royalties int
	// Points is the layout's contribution before head-to-head comparison:
	// total royalties, or the negated foul penalty when fouled.
	Points int
}

// ScoreLayout scores a completed layout: the sum of per-row royalties, or the
// configured foul penalty when the layout violates the row ordering.
func (e *Evaluator) ScoreLayout(top, middle, bottom []deck.Card) (LayoutScore, error) {
	valid, err := e.ValidateLayout(top, middle, bottom)
	if err != nil {
		return LayoutScore{}, err
	}
	if !valid {
		return LayoutScore{Fouled: true, Points: -e.royalty.FoulPenalty}, nil
	}

	total := 0
	rows := []struct {
		cards []deck.Card
		class RowClass
	}{
		{top, RowTop},
		{middle, RowMiddle},
		{bottom, RowBottom},
	}
	for _, row := range rows {
		ranking, err := e.EvaluateIn(row.cards, row.class)
		if err != nil {
			return LayoutScore{}, err
		}
		total += ranking.Royalty
	}
	return LayoutScore{Royalties: total, Points: total}, nil
}

// QualifiesForFantasyLand reports whether a completed top row sends the player
// to fantasy land (pair of queens or better, or any trips).
func (e *Evaluator) QualifiesForFantasyLand(top []deck.Card) (bool, error) {
	if len(top) != 3 {
		return false, fmt.Errorf("%w: got %d", ErrInvalidHandSize, len(top))
	}
	ranking, err := e.Evaluate(top)
	if err != nil {
		return false, err
	}
	switch ranking.Type {
	case ThreeOfAKind:
		return true, nil
	case Pair:
		pairRank := int(ranking.Strength >> 16)
		return pairRank >= int(deck.Queen), nil
	default:
		return false, nil
	}
}

type rankGroup struct {
	rank  int
	count int
}

// countRanks groups ranks by frequency, ordered by count then rank descending.
func countRanks(sortedDesc []int) []rankGroup {
	var groups []rankGroup
	for _, r := range sortedDesc {
		matched := false
		for i := range groups {
			if groups[i].rank == r {
				groups[i].count++
				matched = true
				break
			}
		}
		if !matched {
			groups = append(groups, rankGroup{rank: r, count: 1})
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

// packStrength packs ranks most-significant-first into a comparable integer.
func packStrength(ranks ...int) uint32 {
	var s uint32
	for i := 0; i < 5; i++ {
		s <<= 4
		if i < len(ranks) {
			s |= uint32(ranks[i])
		}
	}
	return s
}

// packGroups packs grouped ranks (pairs/trips before kickers) into a strength value.
func packGroups(groups []rankGroup) uint32 {
	ranks := make([]int, 0, 5)
	for _, g := range groups {
		ranks = append(ranks, g.rank)
	}
	return packStrength(ranks...)
}

// straightHighRank returns the high rank of a 5-card straight in the mask, or 0.
// Bit 0 is a deuce; the wheel counts with the five high.
func straightHighRank(mask uint16) int {
	const wheelMask = 0x100F // A-2-3-4-5

	if mask == wheelMask {
		return int(deck.Five)
	}

	// Bitwise cascade identifies five consecutive set bits in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq == 0 {
		return 0
	}
	return bits.Len16(seq) - 1 + 2 + 4
}
