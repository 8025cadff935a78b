// Package gametree implements exhaustive endgame search over OFC positions:
// alpha-beta minimax from the acting player's perspective with a shared
// transposition table, expected-value averaging over unseen draws and
// heuristic evaluation at the depth horizon.
package gametree

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"sort"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/evaluator"
	"github.com/lox/ofcsolver/internal/game"
)

// ErrNoMoves is returned when the acting player has no legal moves.
var ErrNoMoves = errors.New("no legal moves")

// Config configures a Searcher. Zero values fall back to defaults.
type Config struct {
	// Evaluator scores completed layouts. Defaults to standard royalties.
	Evaluator *evaluator.Evaluator
	// Table is the transposition table, shared between searches to reuse
	// work across sibling lines. Defaults to a fresh table.
	Table *Table
	// MaxDepth bounds the number of placements searched before falling back
	// to heuristic evaluation. Zero searches to the end of the hand.
	MaxDepth int
	// FutilityMargin, when positive, discards branches whose static
	// estimate trails the best line found so far by more than the margin.
	// Results from a pruned subtree are approximate, not exact.
	FutilityMargin float64
	Logger         *log.Logger
}

// Searcher runs depth-first search over positions.
type Searcher struct {
	eval     *evaluator.Evaluator
	table    *Table
	maxDepth int
	futility float64
	logger   *log.Logger
	nodes    atomic.Uint64
}

// New creates a Searcher from the config.
func New(config Config) *Searcher {
	if config.Evaluator == nil {
		config.Evaluator = evaluator.New(nil)
	}
	if config.Table == nil {
		config.Table = NewTable()
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Searcher{
		eval:     config.Evaluator,
		table:    config.Table,
		maxDepth: config.MaxDepth,
		futility: config.FutilityMargin,
		logger:   config.Logger,
	}
}

// Result is the outcome of a search.
type Result struct {
	BestMove game.Move
	// Value is the expected score for the acting player, assuming opponents
	// play to minimize it.
	Value float64
	// Exact reports whether every reached leaf was a completed hand. It is
	// false when the depth horizon forced heuristic evaluation.
	Exact bool
	// Nodes is the number of positions expanded by this search.
	Nodes uint64
}

// Nodes returns the total number of positions expanded across all searches.
func (s *Searcher) Nodes() uint64 {
	return s.nodes.Load()
}

// Search finds the acting player's best move. The transposition table is
// consulted and populated, so repeated searches of overlapping positions
// expand fewer nodes.
func (s *Searcher) Search(ctx context.Context, pos *game.Position) (Result, error) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return Result{}, fmt.Errorf("%w for player %s", ErrNoMoves, pos.ToAct())
	}

	hero := pos.ToAct()
	start := s.nodes.Load()
	alpha, beta := math.Inf(-1), math.Inf(1)
	result := Result{Exact: true}

	for i, m := range s.orderMoves(pos.ActingHand(), moves) {
		child, err := pos.Apply(m)
		if err != nil {
			return Result{}, err
		}
		v, exact, err := s.search(ctx, child, hero, 1, alpha, beta)
		if err != nil {
			return Result{}, err
		}
		result.Exact = result.Exact && exact
		if i == 0 || v > result.Value {
			result.Value = v
			result.BestMove = m
		}
		if v > alpha {
			alpha = v
		}
	}

	result.Nodes = s.nodes.Load() - start
	s.logger.Debug("search complete",
		"player", hero,
		"best", result.BestMove.String(),
		"value", result.Value,
		"exact", result.Exact,
		"nodes", result.Nodes)
	return result, nil
}

// MoveValue pairs a root move with its searched value.
type MoveValue struct {
	Move  game.Move
	Value float64
	Exact bool
}

// SearchMoves searches every root move with a full window and returns them
// ordered best first. Slower than Search, which prunes siblings against the
// running best, but the values are directly comparable.
func (s *Searcher) SearchMoves(ctx context.Context, pos *game.Position) ([]MoveValue, error) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w for player %s", ErrNoMoves, pos.ToAct())
	}

	hero := pos.ToAct()
	values := make([]MoveValue, 0, len(moves))
	for _, m := range moves {
		child, err := pos.Apply(m)
		if err != nil {
			return nil, err
		}
		v, exact, err := s.search(ctx, child, hero, 1, math.Inf(-1), math.Inf(1))
		if err != nil {
			return nil, err
		}
		values = append(values, MoveValue{Move: m, Value: v, Exact: exact})
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Value > values[j].Value
	})
	return values, nil
}

func (s *Searcher) search(ctx context.Context, pos *game.Position, hero string, depth int, alpha, beta float64) (float64, bool, error) {
	if s.nodes.Add(1)&255 == 0 {
		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		default:
		}
	}

	if pos.Complete() {
		v, err := game.ScoreFor(s.eval, pos, hero)
		return v, true, err
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return game.HeuristicScore(s.eval, pos, hero), false, nil
	}

	slots := pos.TotalEmptySlots()
	key := pos.Hash() ^ playerKey(hero)
	origAlpha, origBeta := alpha, beta
	if e, ok := s.table.Lookup(key); ok && e.Depth >= slots {
		switch e.Bound {
		case BoundExact:
			return e.Value, true, nil
		case BoundLower:
			if e.Value > alpha {
				alpha = e.Value
			}
		case BoundUpper:
			if e.Value < beta {
				beta = e.Value
			}
		}
		if alpha >= beta {
			return e.Value, true, nil
		}
	}

	var (
		value float64
		exact bool
		err   error
	)
	if len(pos.ActingHand().Pool) > 0 {
		value, exact, err = s.searchDecision(ctx, pos, hero, depth, alpha, beta)
	} else {
		value, exact, err = s.searchChance(ctx, pos, hero, depth)
	}
	if err != nil {
		return 0, false, err
	}

	if exact {
		e := Entry{Value: value, Depth: slots}
		switch {
		case value <= origAlpha:
			e.Bound = BoundUpper
		case value >= origBeta:
			e.Bound = BoundLower
		default:
			e.Bound = BoundExact
		}
		s.table.Store(key, e)
	}
	return value, exact, nil
}

// searchDecision handles a node where the acting player chooses where to
// place a card already in their pool.
func (s *Searcher) searchDecision(ctx context.Context, pos *game.Position, hero string, depth int, alpha, beta float64) (float64, bool, error) {
	maximizing := pos.ToAct() == hero
	exact := true

	var best float64
	if maximizing {
		best = math.Inf(-1)
	} else {
		best = math.Inf(1)
	}

	for _, m := range s.orderMoves(pos.ActingHand(), pos.LegalMoves()) {
		child, err := pos.Apply(m)
		if err != nil {
			return 0, false, err
		}
		if s.futility > 0 && !math.IsInf(best, 0) {
			est := game.HeuristicScore(s.eval, child, hero)
			if (maximizing && est < alpha-s.futility) || (!maximizing && est > beta+s.futility) {
				exact = false
				continue
			}
		}
		v, ex, err := s.search(ctx, child, hero, depth+1, alpha, beta)
		if err != nil {
			return 0, false, err
		}
		exact = exact && ex

		if maximizing {
			if v > best {
				best = v
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if v < best {
				best = v
			}
			if best < beta {
				beta = best
			}
		}
		if alpha >= beta {
			break
		}
	}
	return best, exact, nil
}

// searchChance handles a node where the acting player draws from the undealt
// pile: the value is the mean over all candidate cards of that player's best
// row for each. Alpha-beta windows do not carry across averaged branches, so
// children are searched with a full window.
func (s *Searcher) searchChance(ctx context.Context, pos *game.Position, hero string, depth int) (float64, bool, error) {
	undealt := pos.Undealt()
	if len(undealt) == 0 {
		// Incomplete but out of cards; score what exists.
		return game.HeuristicScore(s.eval, pos, hero), false, nil
	}

	maximizing := pos.ToAct() == hero
	hand := pos.ActingHand()
	sum := 0.0
	exact := true

	for _, card := range undealt {
		var best float64
		if maximizing {
			best = math.Inf(-1)
		} else {
			best = math.Inf(1)
		}
		for _, row := range game.Rows {
			if hand.FreeSlots(row) == 0 {
				continue
			}
			child, err := pos.Apply(game.Move{Card: card, Row: row})
			if err != nil {
				return 0, false, err
			}
			v, ex, err := s.search(ctx, child, hero, depth+1, math.Inf(-1), math.Inf(1))
			if err != nil {
				return 0, false, err
			}
			exact = exact && ex
			if (maximizing && v > best) || (!maximizing && v < best) {
				best = v
			}
		}
		sum += best
	}
	return sum / float64(len(undealt)), exact, nil
}

// orderMoves sorts moves so the acting player's most promising placements
// come first, which tightens alpha-beta windows early.
func (s *Searcher) orderMoves(hand game.Hand, moves []game.Move) []game.Move {
	scored := make([]struct {
		move  game.Move
		score float64
	}, len(moves))
	for i, m := range moves {
		scored[i].move = m
		scored[i].score = placementScore(hand, m)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	ordered := make([]game.Move, len(moves))
	for i, sm := range scored {
		ordered[i] = sm.move
	}
	return ordered
}

// placementScore is a static preference for a placement: pairing with cards
// already in the row dominates, then high cards toward the bottom and low
// cards toward the top. Discards of low cards rank just above discards of
// high ones, and all discards trail placements.
func placementScore(hand game.Hand, m game.Move) float64 {
	if m.Row == game.RowDiscard {
		return -1 - float64(m.Card.Rank)*0.05
	}
	score := 0.0
	for _, c := range hand.Row(m.Row) {
		if c.Rank == m.Card.Rank {
			score += 8
		}
		if c.Suit == m.Card.Suit {
			score += 0.5
		}
	}
	switch m.Row {
	case game.RowBottom:
		score += float64(m.Card.Rank) * 0.1
	case game.RowTop:
		score += float64(deck.Ace-m.Card.Rank) * 0.05
	}
	return score
}

func playerKey(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}
