package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/ofcsolver/internal/config"
	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/game"
	"github.com/lox/ofcsolver/internal/strategy"
	"github.com/lox/ofcsolver/solver"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	moveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	evStyle = lipgloss.NewStyle().
		      Foreground(lipgloss.Color("10"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))

	warnStyle = lipgloss.NewStyle().
		       Foreground(lipgloss.Color("9"))
)

type SolveCmd struct {
	Top      string        `help:"Acting player's top row, e.g. \"Kh Kd\""`
	Middle   string        `help:"Acting player's middle row"`
	Bottom   string        `help:"Acting player's bottom row"`
	Pool     string        `help:"Cards the acting player must place this turn"`
	Discard  int           `help:"Pool cards the acting player must discard this turn (Pineapple streets)"`
	Opponent []string      `help:"Opponent layout as top/middle/bottom, repeatable"`
	Undealt  string        `help:"Cards still undealt (omit to infer from the deck)"`
	Round    int           `help:"Current round number" default:"1"`
	Mode     string        `help:"Calculation mode" enum:"instant,standard,exhaustive" default:"standard"`
	MaxTime  time.Duration `help:"Per-calculation time budget (0 uses the configured default)"`
	Samples  int           `help:"Override the Monte Carlo simulation budget"`
	Force    bool          `help:"Recalculate even if the position is cached"`
	Seed     *int64        `help:"Seed for reproducible calculations"`
}

func (cmd *SolveCmd) Run(cli *CLI) error {
	cfg, err := config.LoadEngineConfig(cli.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cli.Debug || cfg.Engine.LogLevel == "debug")

	pos, err := cmd.buildPosition()
	if err != nil {
		return err
	}

	seed := cfg.Engine.Seed
	if cmd.Seed != nil {
		seed = *cmd.Seed
	}

	engine, err := solver.New(solver.Config{
		Royalties:        cfg.RoyaltyTable(),
		EndgameThreshold: cfg.Engine.EndgameThreshold,
		HybridThreshold:  cfg.Engine.HybridThreshold,
		Simulations:      cfg.Engine.Simulations,
		Workers:          cfg.Engine.Workers,
		Seed:             seed,
		DefaultTimeout:   cfg.DefaultTimeout(),
		CacheLocalSize:   cfg.Engine.CacheLocalSize,
		CacheSharedSize:  cfg.Engine.CacheSharedSize,
		CacheTTL:         cfg.CacheTTL(),
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	st, err := engine.ComputeStrategy(context.Background(), pos, solver.CalculationConfig{
		Mode:             strategy.Mode(cmd.Mode),
		MaxTime:          cmd.MaxTime,
		SampleOverride:   cmd.Samples,
		ForceRecalculate: cmd.Force,
	})
	if err != nil {
		return err
	}

	renderStrategy(st)
	return nil
}

// buildPosition assembles the position from the row flags. The acting player
// is always "hero"; opponents are numbered in flag order. When --undealt is
// omitted the undealt pile is every deck card not visible in a layout or pool.
func (cmd *SolveCmd) buildPosition() (*game.Position, error) {
	hero, err := parseHand(cmd.Top, cmd.Middle, cmd.Bottom, cmd.Pool)
	if err != nil {
		return nil, fmt.Errorf("parsing hero layout: %w", err)
	}
	if cmd.Discard < 0 || cmd.Discard > len(hero.Pool) {
		return nil, fmt.Errorf("--discard %d needs that many pool cards, have %d", cmd.Discard, len(hero.Pool))
	}
	hero.MustDiscard = cmd.Discard

	players := []game.Player{{ID: "hero", Hand: hero}}
	for i, layout := range cmd.Opponent {
		hand, err := parseOpponent(layout)
		if err != nil {
			return nil, fmt.Errorf("parsing opponent %d: %w", i+1, err)
		}
		players = append(players, game.Player{
			ID:   fmt.Sprintf("opponent%d", i+1),
			Hand: hand,
		})
	}

	var undealt []deck.Card
	if cmd.Undealt != "" {
		undealt, err = deck.ParseCards(cmd.Undealt)
		if err != nil {
			return nil, fmt.Errorf("parsing undealt cards: %w", err)
		}
	} else {
		undealt = remainingCards(players)
	}

	return game.NewPosition(players, undealt, "hero", cmd.Round)
}

func parseHand(top, middle, bottom, pool string) (game.Hand, error) {
	var hand game.Hand
	var err error
	if hand.Top, err = parseOptional(top); err != nil {
		return game.Hand{}, fmt.Errorf("top row: %w", err)
	}
	if hand.Middle, err = parseOptional(middle); err != nil {
		return game.Hand{}, fmt.Errorf("middle row: %w", err)
	}
	if hand.Bottom, err = parseOptional(bottom); err != nil {
		return game.Hand{}, fmt.Errorf("bottom row: %w", err)
	}
	if hand.Pool, err = parseOptional(pool); err != nil {
		return game.Hand{}, fmt.Errorf("pool: %w", err)
	}
	return hand, nil
}

func parseOptional(s string) ([]deck.Card, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return deck.ParseCards(s)
}

func parseOpponent(layout string) (game.Hand, error) {
	parts := strings.Split(layout, "/")
	if len(parts) != 3 && len(parts) != 4 {
		return game.Hand{}, fmt.Errorf("want top/middle/bottom or top/middle/bottom/pool, got %q", layout)
	}
	pool := ""
	if len(parts) == 4 {
		pool = parts[3]
	}
	return parseHand(parts[0], parts[1], parts[2], pool)
}

func remainingCards(players []game.Player) []deck.Card {
	var seen deck.CardSet
	for _, p := range players {
		for _, c := range p.Hand.AllCards() {
			seen.Add(c)
		}
	}
	var undealt []deck.Card
	for _, c := range deck.FullDeck() {
		if !seen.Contains(c) {
			undealt = append(undealt, c)
		}
	}
	return undealt
}

func renderStrategy(st *strategy.Strategy) {
	fmt.Println(headerStyle.Render("Best move:"), moveStyle.Render(st.BestMove.String()))
	fmt.Printf("%s %s  %s\n",
		labelStyle.Render("EV:"),
		evStyle.Render(fmt.Sprintf("%+.2f", st.EV)),
		labelStyle.Render(fmt.Sprintf("(95%% CI %+.2f .. %+.2f)", st.Confidence.Low, st.Confidence.High)))

	exactness := "approximate"
	if st.Exact {
		exactness = "exact"
	}
	fmt.Printf("%s %s  %s %s  %s\n",
		labelStyle.Render("Method:"), st.Method,
		labelStyle.Render("Complexity:"), string(st.Complexity),
		exactness)
	if st.Simulations > 0 {
		fmt.Printf("%s %d  %s %s\n",
			labelStyle.Render("Simulations:"), st.Simulations,
			labelStyle.Render("Elapsed:"), st.Elapsed.Round(time.Millisecond))
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("Elapsed:"), st.Elapsed.Round(time.Millisecond))
	}

	if len(st.Alternatives) == 0 {
		return
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("MOVE"),
		headerStyle.Render("EV"),
		headerStyle.Render("95% CI"),
		headerStyle.Render("VISITS"))
	for _, alt := range st.Alternatives {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			moveStyle.Render(alt.Move.String()),
			fmt.Sprintf("%+.2f", alt.EV),
			fmt.Sprintf("%+.2f .. %+.2f", alt.Confidence.Low, alt.Confidence.High),
			alt.Visits)
	}
	w.Flush()
}
