// Package cmd implements the loom CLI commands.
//
// The root command dispatches to render, which replays a yaml scenario
// against an in-memory host, and bench, which measures keyed reorders on
// the idle loop.
package cmd

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v3"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

const (
	configKey = "config"
	budgetKey = "budget"
	debugKey  = "debug"
)

// Root returns the loom command tree writing its reports to out.
func Root(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "loom",
		Usage:   "Time-sliced keyed reconciler tooling",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "Path to the config file",
				Value: "loom.yaml",
			},
			&cli.BoolFlag{
				Name:  debugKey,
				Usage: "Enable debug diagnostics such as duplicate-key warnings",
			},
		},
		Commands: []*cli.Command{
			renderCommand(out),
			benchCommand(out),
		},
	}
}
