package game

import (
	"fmt"

	"github.com/lox/ofcsolver/internal/evaluator"
)

type scoredHand struct {
	score evaluator.LayoutScore
	rows  [3]evaluator.HandRanking
}

// Score computes the final head-to-head value for every player of a completed
// position: per-row wins and losses, a scoop bonus for sweeping all three
// rows, royalty differences, and foul penalties. The returned values are
// zero-sum across the table.
func Score(e *evaluator.Evaluator, p *Position) (map[string]float64, error) {
	if !p.Complete() {
		return nil, fmt.Errorf("%w: position is not complete", ErrInvalidPosition)
	}

	scored := make([]scoredHand, len(p.players))
	for i, pl := range p.players {
		sh, err := scoreHand(e, pl.Hand)
		if err != nil {
			return nil, fmt.Errorf("player %s: %w", pl.ID, err)
		}
		scored[i] = sh
	}

	totals := make(map[string]float64, len(p.players))
	for i := range p.players {
		totals[p.players[i].ID] = 0
	}

	for i := 0; i < len(p.players); i++ {
		for j := i + 1; j < len(p.players); j++ {
			delta := headToHead(scored[i], scored[j])
			totals[p.players[i].ID] += delta
			totals[p.players[j].ID] -= delta
		}
	}
	return totals, nil
}

// ScoreFor returns the completed position's value from one player's perspective.
func ScoreFor(e *evaluator.Evaluator, p *Position, playerID string) (float64, error) {
	totals, err := Score(e, p)
	if err != nil {
		return 0, err
	}
	v, ok := totals[playerID]
	if !ok {
		return 0, fmt.Errorf("%w: unknown player %q", ErrInvalidPosition, playerID)
	}
	return v, nil
}

func scoreHand(e *evaluator.Evaluator, h Hand) (scoredHand, error) {
	var sh scoredHand
	score, err := e.ScoreLayout(h.Top, h.Middle, h.Bottom)
	if err != nil {
		return sh, err
	}
	sh.score = score
	for i, r := range Rows {
		ranking, err := e.EvaluateIn(h.Row(r), r.Class())
		if err != nil {
			return sh, err
		}
		sh.rows[i] = ranking
	}
	return sh, nil
}

// headToHead returns a's score against b using 1-6 style scoring: one point
// per row, three extra for a scoop, plus the royalty difference. A fouled
// player concedes the foul penalty and the opponent's royalties.
func headToHead(a, b scoredHand) float64 {
	switch {
	case a.score.Fouled && b.score.Fouled:
		return 0
	case a.score.Fouled:
		// A fouled layout's Points carry the negated foul penalty.
		return float64(a.score.Points - b.score.Royalties)
	case b.score.Fouled:
		return float64(-b.score.Points + a.score.Royalties)
	}

	rowDelta := 0
	for i := range a.rows {
		switch evaluator.CompareHands(a.rows[i], b.rows[i]) {
		case 1:
			rowDelta++
		case -1:
			rowDelta--
		}
	}
	if rowDelta == 3 || rowDelta == -3 {
		// Scoop doubles the row points.
		rowDelta *= 2
	}
	return float64(rowDelta + a.score.Royalties - b.score.Royalties)
}
