package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Debug   bool             `help:"Enable debug logging"`
	Config  string           `short:"c" help:"Path to an HCL config file" default:"ofcsolver.hcl"`

	Solve SolveCmd `cmd:"" help:"Compute the best placement for a position"`
	Score ScoreCmd `cmd:"" help:"Score a completed layout"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ofcsolver"),
		kong.Description("GTO strategy engine for Open Face Chinese poker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

func newLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}
