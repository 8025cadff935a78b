package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/lox/ofcsolver/internal/config"
	"github.com/lox/ofcsolver/internal/deck"
	"github.com/lox/ofcsolver/internal/evaluator"
)

type ScoreCmd struct {
	Top    string `help:"Top row, 3 cards" required:""`
	Middle string `help:"Middle row, 5 cards" required:""`
	Bottom string `help:"Bottom row, 5 cards" required:""`
}

func (cmd *ScoreCmd) Run(cli *CLI) error {
	cfg, err := config.LoadEngineConfig(cli.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	top, err := deck.ParseCards(cmd.Top)
	if err != nil {
		return fmt.Errorf("parsing top row: %w", err)
	}
	middle, err := deck.ParseCards(cmd.Middle)
	if err != nil {
		return fmt.Errorf("parsing middle row: %w", err)
	}
	bottom, err := deck.ParseCards(cmd.Bottom)
	if err != nil {
		return fmt.Errorf("parsing bottom row: %w", err)
	}

	eval := evaluator.New(cfg.RoyaltyTable())
	score, err := eval.ScoreLayout(top, middle, bottom)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("ROW"),
		headerStyle.Render("CARDS"),
		headerStyle.Render("HAND"),
		headerStyle.Render("ROYALTY"))
	rows := []struct {
		name  string
		cards []deck.Card
		class evaluator.RowClass
	}{
		{"top", top, evaluator.RowTop},
		{"middle", middle, evaluator.RowMiddle},
		{"bottom", bottom, evaluator.RowBottom},
	}
	for _, row := range rows {
		ranking, err := eval.EvaluateIn(row.cards, row.class)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			labelStyle.Render(row.name),
			moveStyle.Render(formatCards(row.cards)),
			ranking.Type.String(),
			ranking.Royalty)
	}
	w.Flush()
	fmt.Println()

	if score.Fouled {
		fmt.Println(warnStyle.Render(fmt.Sprintf("FOULED (penalty %d)", -score.Points)))
		return nil
	}

	fmt.Println(headerStyle.Render("Total royalties:"), evStyle.Render(fmt.Sprintf("%d", score.Royalties)))
	if fl, err := eval.QualifiesForFantasyLand(top); err == nil && fl {
		fmt.Println(evStyle.Render("Qualifies for fantasy land"))
	}
	return nil
}

func formatCards(cards []deck.Card) string {
	s := ""
	for i, c := range cards {
		if i > 0 {
			s += " "
		}
		s += c.Notation()
	}
	return s
}
