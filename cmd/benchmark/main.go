package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/randutil"
	"github.com/lox/ofcsolver/internal/strategy"
	"github.com/lox/ofcsolver/solver"
)

type CLI struct {
	Positions  int    `kong:"default='1000',help='Number of positions to solve'"`
	Goroutines int    `kong:"default='4',help='Concurrent solver goroutines'"`
	EmptySlots int    `kong:"default='4',help='Empty slots per generated position (controls complexity)'"`
	Mode       string `kong:"default='standard',enum='instant,standard,exhaustive',help='Calculation mode'"`
	Samples    int    `kong:"default='2000',help='Monte Carlo budget per position'"`
	Seed       int64  `kong:"default='1',help='RNG seed for position generation'"`
	Cache      bool   `kong:"default='false',help='Allow cache hits between positions'"`
	Debug      bool   `kong:"default='false',help='Show debug logs'"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("ofcsolver-benchmark"),
		kong.Description("Throughput benchmark for the OFC strategy engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	fmt.Printf("ofcsolver Benchmark\n")

	level := log.WarnLevel
	if cli.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	engine, err := solver.New(solver.Config{
		Simulations: cli.Samples,
		Seed:        cli.Seed,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("creating engine", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Solving %d positions (%d empty slots, mode %s, %d goroutines)...\n",
		cli.Positions, cli.EmptySlots, cli.Mode, cli.Goroutines)

	var (
		solved    atomic.Int64
		totalSims atomic.Int64
		next      atomic.Int64
		wg        sync.WaitGroup
	)
	startTime := time.Now()

	for g := 0; g < cli.Goroutines; g++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for {
				i := next.Add(1) - 1
				if i >= int64(cli.Positions) {
					return
				}
				pos, err := generatePosition(cli.Seed, i, cli.EmptySlots)
				if err != nil {
					logger.Error("generating position", "index", i, "error", err)
					return
				}
				st, err := engine.ComputeStrategy(ctx, pos, solver.CalculationConfig{
					Mode:             strategy.Mode(cli.Mode),
					SampleOverride:   cli.Samples,
					ForceRecalculate: !cli.Cache,
				})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					logger.Error("solving position", "index", i, "error", err)
					continue
				}
				solved.Add(1)
				totalSims.Add(int64(st.Simulations))
			}
		}(g)
	}

	// Progress until the workers drain the queue or a signal arrives
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-done:
			break loop
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			completed := solved.Load()
			elapsed := time.Since(startTime).Seconds()
			if elapsed > 0 && completed > 0 {
				rate := float64(completed) / elapsed
				progress := float64(completed) * 100.0 / float64(cli.Positions)
				fmt.Printf("  %d/%d positions (%.1f%%) - %.1f p/s\n",
					completed, cli.Positions, progress, rate)
			}
		}
	}
	cancel()
	wg.Wait()

	finalCount := solved.Load()
	totalTime := time.Since(startTime)

	if finalCount > 0 {
		rate := float64(finalCount) / totalTime.Seconds()
		fmt.Printf("\nBenchmark complete:\n")
		fmt.Printf("  Positions: %d\n", finalCount)
		fmt.Printf("  Time: %.2fs\n", totalTime.Seconds())
		fmt.Printf("  Rate: %.1f positions/second\n", rate)
		fmt.Printf("  Avg time: %v/position\n", (totalTime / time.Duration(finalCount)).Round(time.Microsecond))
		if sims := totalSims.Load(); sims > 0 {
			fmt.Printf("  Simulations: %d total, %.0f/position\n",
				sims, float64(sims)/float64(finalCount))
		}
		stats := engine.CacheStats()
		fmt.Printf("  Cache: %d hits, %d misses\n", stats.Hits, stats.Misses)
	}
}

// generatePosition deals a reproducible heads-up position with the requested
// number of empty slots left for the hero to fill. Cards beyond the partial
// layouts stay undealt so every generated position is solvable.
func generatePosition(seed int64, index int64, emptySlots int) (*game.Position, error) {
	if emptySlots < 0 || emptySlots > 13 {
		return nil, fmt.Errorf("empty slots must be 0..13, got %d", emptySlots)
	}
	rng := randutil.NewWorker(seed, int(index))
	cards := deck.FullDeck()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	heroCards := 13 - emptySlots
	hero := game.Hand{}
	idx := 0
	take := func(n int) []deck.Card {
		out := cards[idx : idx+n]
		idx += n
		return out
	}

	// Fill bottom-up so generated layouts rarely foul
	bottomN := min(heroCards, 5)
	hero.Bottom = take(bottomN)
	middleN := min(heroCards-bottomN, 5)
	hero.Middle = take(middleN)
	topN := heroCards - bottomN - middleN
	hero.Top = take(topN)
	hero.Pool = take(min(emptySlots, 2))

	villain := game.Hand{
		Bottom: take(5),
		Middle: take(5),
		Top:    take(3),
	}

	players := []game.Player{
		{ID: "hero", Hand: hero},
		{ID: "villain", Hand: villain},
	}
	return game.NewPosition(players, cards[idx:], "hero", 1)
}
