package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/evaluator"
	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/randutil"
	"github.com/lox/ofcsolver/internal/strategy"
	"github.com/lox/ofcsolver/solver"
)

type CLI struct {
	Deals    int    `default:"10000" help:"Number of deals to simulate"`
	Opponent string `default:"random" enum:"random,greedy" help:"Opponent placement policy"`
	Mode     string `default:"instant" enum:"instant,standard,exhaustive" help:"Hero calculation mode"`
	Variant  string `default:"classic" enum:"classic,pineapple" help:"Street structure: classic draw-1 or pineapple deal-3/place-2/discard-1"`
	Seed     int64  `default:"0" help:"RNG seed (0 for random)"`
	Verbose  bool   `short:"v" help:"Verbose logging"`
}

// DealResult captures one self-play deal from the hero's side of the table.
type DealResult struct {
	Points      float64
	Royalties   int
	Fouled      bool
	FantasyLand bool
	Seed        uint64 // per-deal seed for replay
}

type Statistics struct {
	Deals     int
	Sum       float64
	Sum2      float64
	Values    []float64
	Fouls     int
	FantasyLD int
	Royalties int
}

func (s *Statistics) Add(r DealResult) {
	s.Deals++
	s.Sum += r.Points
	s.Sum2 += r.Points * r.Points
	s.Values = append(s.Values, r.Points)
	if r.Fouled {
		s.Fouls++
	}
	if r.FantasyLand {
		s.FantasyLD++
	}
	s.Royalties += r.Royalties
}

func (s *Statistics) Mean() float64 {
	if s.Deals == 0 {
		return 0
	}
	return s.Sum / float64(s.Deals)
}

func (s *Statistics) Variance() float64 {
	if s.Deals < 2 {
		return 0
	}
	n := float64(s.Deals)
	return (s.Sum2 - s.Sum*s.Sum/n) / (n - 1)
}

func (s *Statistics) StdError() float64 {
	if s.Deals == 0 {
		return 0
	}
	return math.Sqrt(s.Variance() / float64(s.Deals))
}

func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	m, se := s.Mean(), s.StdError()
	return m - 1.96*se, m + 1.96*se
}

func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ofcsolver-simulate"),
		kong.Description("Self-play simulator for the OFC strategy engine"),
		kong.UsageOnError(),
	)

	if cli.Seed == 0 {
		cli.Seed = time.Now().UnixNano()
	}

	level := log.WarnLevel
	if cli.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	fmt.Printf("Starting simulation: %d %s deals vs %s opponent (mode: %s, seed: %d)\n\n",
		cli.Deals, cli.Variant, cli.Opponent, cli.Mode, cli.Seed)

	engine, err := solver.New(solver.Config{
		Seed:   cli.Seed,
		Logger: logger,
	})
	ctx.FatalIfErrorf(err)

	startTime := time.Now()
	stats, err := runSimulation(engine, cli)
	ctx.FatalIfErrorf(err)
	printResults(stats, cli.Opponent, time.Since(startTime))

	ctx.Exit(0)
}

func runSimulation(engine *solver.Engine, cli CLI) (*Statistics, error) {
	stats := &Statistics{}
	eval := evaluator.New(nil)
	masterRng := randutil.New(cli.Seed)
	startTime := time.Now()

	for deal := 0; deal < cli.Deals; deal++ {
		dealSeed := masterRng.Uint64()
		result, err := playDeal(engine, eval, cli, dealSeed)
		if err != nil {
			return nil, fmt.Errorf("deal %d (seed %d): %w", deal+1, dealSeed, err)
		}
		stats.Add(result)

		if (deal+1)%1000 == 0 {
			elapsed := time.Since(startTime)
			rate := float64(deal+1) / elapsed.Seconds()
			low, high := stats.ConfidenceInterval95()
			fmt.Printf("Deal %d: %.3f pts/deal, 95%% CI [%.3f, %.3f] (%.0f deals/sec)\n",
				deal+1, stats.Mean(), low, high, rate)
		}
	}

	return stats, nil
}

// playDeal plays one heads-up deal to completion. The hero places through the
// strategy engine; the opponent follows the configured policy. Each street's
// draw is dealt into the acting player's pool before the policy is consulted,
// so every decision is made on the cards actually dealt.
func playDeal(engine *solver.Engine, eval *evaluator.Evaluator, cli CLI, dealSeed uint64) (DealResult, error) {
	rng := rand.New(rand.NewPCG(dealSeed, dealSeed>>1|1))
	cards := deckShuffled(rng)

	players := []game.Player{
		{ID: "hero", Hand: game.Hand{Pool: cards[:5]}},
		{ID: "villain", Hand: game.Hand{Pool: cards[5:10]}},
	}
	pos, err := game.NewPosition(players, cards[10:], "hero", 1)
	if err != nil {
		return DealResult{}, err
	}

	for !pos.Complete() {
		pos, err = dealStreet(pos, cli.Variant, rng)
		if err != nil {
			return DealResult{}, err
		}
		move, err := chooseMove(engine, eval, cli, pos, rng)
		if err != nil {
			return DealResult{}, err
		}
		pos, err = pos.Apply(move)
		if err != nil {
			return DealResult{}, err
		}
	}

	scores, err := game.Score(eval, pos)
	if err != nil {
		return DealResult{}, err
	}

	hand, _ := pos.Player("hero")
	layout, err := eval.ScoreLayout(hand.Top, hand.Middle, hand.Bottom)
	if err != nil {
		return DealResult{}, err
	}
	fantasy := false
	if !layout.Fouled {
		fantasy, _ = eval.QualifiesForFantasyLand(hand.Top)
	}

	return DealResult{
		Points:      scores["hero"],
		Royalties:   layout.Royalties,
		Fouled:      layout.Fouled,
		FantasyLand: fantasy,
		Seed:        dealSeed,
	}, nil
}

// dealStreet deals the next street into the acting player's pool when it is
// empty: one card in the classic variant, three with one owed discard in
// pineapple. Positions mid-street pass through unchanged.
func dealStreet(pos *game.Position, variant string, rng *rand.Rand) (*game.Position, error) {
	hand := pos.ActingHand()
	if len(hand.Pool) > 0 || hand.Complete() {
		return pos, nil
	}

	draw, discard := 1, 0
	if variant == "pineapple" {
		draw, discard = 3, 1
	}
	undealt := append([]deck.Card(nil), pos.Undealt()...)
	if len(undealt) < draw {
		return nil, fmt.Errorf("deck exhausted with %d slots left for %s", hand.EmptySlots(), pos.ToAct())
	}
	rng.Shuffle(len(undealt), func(i, j int) {
		undealt[i], undealt[j] = undealt[j], undealt[i]
	})

	players := pos.Players()
	dealt := make([]game.Player, len(players))
	for i, pl := range players {
		h := pl.Hand.Clone()
		if pl.ID == pos.ToAct() {
			h.Pool = append([]deck.Card(nil), undealt[:draw]...)
			h.MustDiscard = discard
		}
		dealt[i] = game.Player{ID: pl.ID, Hand: h}
	}
	return game.NewPosition(dealt, undealt[draw:], pos.ToAct(), pos.Round())
}

func chooseMove(engine *solver.Engine, eval *evaluator.Evaluator, cli CLI, pos *game.Position, rng *rand.Rand) (game.Move, error) {
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return game.Move{}, fmt.Errorf("no legal move for %s", pos.ToAct())
	}

	if pos.ToAct() == "hero" {
		st, err := engine.ComputeStrategy(context.Background(), pos, solver.CalculationConfig{
			Mode:             strategy.Mode(cli.Mode),
			ForceRecalculate: true,
		})
		if err != nil {
			return game.Move{}, err
		}
		return st.BestMove, nil
	}

	if cli.Opponent == "greedy" {
		return greedyMove(eval, pos, moves), nil
	}
	return moves[rng.IntN(len(moves))], nil
}

func greedyMove(eval *evaluator.Evaluator, pos *game.Position, moves []game.Move) game.Move {
	best := moves[0]
	bestEV := evalAfter(eval, pos, best)
	for _, m := range moves[1:] {
		if ev := evalAfter(eval, pos, m); ev > bestEV {
			best, bestEV = m, ev
		}
	}
	return best
}

func evalAfter(eval *evaluator.Evaluator, pos *game.Position, m game.Move) float64 {
	child, err := pos.Apply(m)
	if err != nil {
		return 0
	}
	return game.HeuristicScore(eval, child, pos.ToAct())
}

func deckShuffled(rng *rand.Rand) []deck.Card {
	cards := deck.FullDeck()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

func printResults(stats *Statistics, opponentType string, duration time.Duration) {
	mean := stats.Mean()
	stdErr := stats.StdError()
	low, high := stats.ConfidenceInterval95()
	dealsPerSec := float64(stats.Deals) / duration.Seconds()

	fmt.Printf("\n=== FINAL RESULTS vs %s opponent ===\n", opponentType)
	fmt.Printf("Deals played: %d\n", stats.Deals)
	fmt.Printf("Total time: %v\n", duration.Round(time.Millisecond))
	fmt.Printf("Performance: %.1f deals/sec\n", dealsPerSec)

	fmt.Printf("\n=== STATISTICAL RESULTS ===\n")
	fmt.Printf("Mean: %.4f pts/deal\n", mean)
	fmt.Printf("Std Error: %.4f pts\n", stdErr)
	fmt.Printf("95%% CI: [%.4f, %.4f] pts/deal\n", low, high)
	fmt.Printf("Percentiles: P5=%.2f, P25=%.2f, P75=%.2f, P95=%.2f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Printf("\n=== LAYOUT ANALYSIS ===\n")
	fmt.Printf("Foul rate: %.2f%%\n", pct(stats.Fouls, stats.Deals))
	fmt.Printf("Fantasy land rate: %.2f%%\n", pct(stats.FantasyLD, stats.Deals))
	fmt.Printf("Avg royalties: %.2f/deal\n", float64(stats.Royalties)/float64(max(stats.Deals, 1)))
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}
