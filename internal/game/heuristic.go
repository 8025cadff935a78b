package game

import (
	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/evaluator"
)

// HeuristicScore estimates a player's standing at an unfinished position:
// royalties and hand strength for completed rows, pairing potential for
// partial ones, relative to the average of the opponents. Used when search
// or simulation is cut off before the hand completes.
func HeuristicScore(e *evaluator.Evaluator, p *Position, playerID string) float64 {
	own := 0.0
	oppSum := 0.0
	oppN := 0
	for _, pl := range p.players {
		v := partialLayoutValue(e, pl.Hand)
		if pl.ID == playerID {
			own = v
		} else {
			oppSum += v
			oppN++
		}
	}
	if oppN == 0 {
		return own
	}
	return own - oppSum/float64(oppN)
}

func partialLayoutValue(e *evaluator.Evaluator, h Hand) float64 {
	v := 0.0
	for _, r := range Rows {
		cards := h.Row(r)
		if len(cards) == r.Capacity() {
			if ranking, err := e.EvaluateIn(cards, r.Class()); err == nil {
				v += float64(ranking.Royalty) + float64(ranking.Type)*0.25
			}
			continue
		}
		v += partialRowValue(cards)
	}
	return v
}

// partialRowValue rewards made pairs and high cards in an unfinished row.
func partialRowValue(cards []deck.Card) float64 {
	v := 0.0
	counts := make(map[deck.Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
		v += float64(c.Rank) * 0.01
	}
	for _, n := range counts {
		if n >= 2 {
			v += float64(n-1) * 0.75
		}
	}
	return v
}
