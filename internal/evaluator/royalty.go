package evaluator

import "github.com/lox/ofcsolver/internal/deck"

// RoyaltyTable configures the bonus scoring for each row. Multipliers vary
// between rulesets, so callers inject the table rather than relying on
// hard-coded constants.
type RoyaltyTable struct {
	// Top row (3 cards): pairs of TopPairMinRank or better score
	// rank - TopPairOffset; trips score TopTripsBase + (rank-2)*TopTripsPerRank.
	TopPairMinRank  deck.Rank
	TopPairOffset   int
	TopTripsBase    int
	TopTripsPerRank int

	// Middle and Bottom map 5-card hand types to their bonuses.
	Middle map[HandType]int
	Bottom map[HandType]int

	// FoulPenalty is subtracted (as a positive magnitude) when a layout fouls.
	FoulPenalty int
}

// DefaultRoyaltyTable returns the standard OFC scoring table: bottom-row
// straight 2, flush 4, full house 6, quads 10, straight flush 15, royal 25,
// with middle-row bonuses doubled; top pairs 66+ at rank-5; trips 10 and up.
func DefaultRoyaltyTable() *RoyaltyTable {
	return &RoyaltyTable{
		TopPairMinRank:  deck.Six,
		TopPairOffset:   5,
		TopTripsBase:    10,
		TopTripsPerRank: 1,
		Bottom: map[HandType]int{
			Straight:      2,
			Flush:         4,
			FullHouse:     6,
			FourOfAKind:   10,
			StraightFlush: 15,
			RoyalFlush:    25,
		},
		Middle: map[HandType]int{
			Straight:      4,
			Flush:         8,
			FullHouse:     12,
			FourOfAKind:   20,
			StraightFlush: 30,
			RoyalFlush:    50,
		},
		FoulPenalty: 6,
	}
}

// Royalty looks up the bonus for a hand. rowSize distinguishes the 3-card top
// row from 5-card rows; primaryRank is the rank of the hand's defining group
// (the pair or trips rank), only consulted for top-row hands.
//
// Five-card royalties use the bottom table; middle-row callers should use
// MiddleRoyalty, which applies the doubled multipliers.
func (t *RoyaltyTable) Royalty(rowSize int, ht HandType, primaryRank int) int {
	if rowSize == 3 {
		return t.topRoyalty(ht, primaryRank)
	}
	return t.Bottom[ht]
}

// MiddleRoyalty returns the middle-row bonus for a 5-card hand type.
func (t *RoyaltyTable) MiddleRoyalty(ht HandType) int {
	return t.Middle[ht]
}

func (t *RoyaltyTable) topRoyalty(ht HandType, primaryRank int) int {
	switch ht {
	case ThreeOfAKind:
		return t.TopTripsBase + (primaryRank-int(deck.Two))*t.TopTripsPerRank
	case Pair:
		if primaryRank >= int(t.TopPairMinRank) {
			return primaryRank - t.TopPairOffset
		}
	}
	return 0
}
