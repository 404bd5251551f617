// Package app implements the codecad command line tool. Every subcommand
// operates on a 3MF model file: inspect and dims report its topology and
// dimensions, render and view project it to SVG and PNG, and eval builds
// a new model from a Lisp modeling script.
package app

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/timcash/code-cad/pkg/view"
)

// DefaultModelFile is the model read when no file argument is given.
const DefaultModelFile = "test.3mf"

// Options carries settings shared by all subcommands.
type Options struct {
	verbose bool
}

// New builds the codecad root command.
func New() *cobra.Command {
	opts := &Options{}

	maincmd := &cobra.Command{
		Use:   "codecad <cmd> <args>",
		Short: "inspect, measure, render and script 3MF models",
		Long: `
codecad works on 3MF model files: it reports their solid topology and
bounding box dimensions, renders them to SVG drawings and PNG
screenshots, and evaluates modeling scripts into new models.
`,
		Run:              nil,
		TraverseChildren: true,
		SilenceUsage:     true,
		SilenceErrors:    true,
	}

	flags := maincmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	maincmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if opts.verbose {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: slog.LevelDebug}))
			slog.SetDefault(logger)
			view.SetLogger(logger)
		}
	}

	maincmd.AddCommand(NewInspect(opts))
	maincmd.AddCommand(NewDims(opts))
	maincmd.AddCommand(NewRender(opts))
	maincmd.AddCommand(NewView(opts))
	maincmd.AddCommand(NewEval(opts))
	return maincmd
}
