package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timcash/code-cad/pkg/inspect"
)

// separator divides the sections of the dims report.
var separator = strings.Repeat("-", 20)

type Dims struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewDims(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dims [file]",
		Short: "report per-solid and total bounding box dimensions",
		Args:  cobra.MaximumNArgs(1),
	}
	c := &Dims{cmd: cmd, mainopts: opts}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Dims) Run(args []string) error {
	parts, err := loadParts(modelPath(args))
	if err != nil {
		return err
	}
	sum := inspect.Summarize(mergeParts(parts))

	out := c.cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d solid(s).\n", len(sum.Solids))
	fmt.Fprintln(out, separator)

	for i, solid := range sum.Solids {
		x, y, z := solid.Size()
		fmt.Fprintf(out, "Solid %d:\n", i+1)
		fmt.Fprintf(out, "  Length (X): %.2f\n", x)
		fmt.Fprintf(out, "  Width  (Y): %.2f\n", y)
		fmt.Fprintf(out, "  Height (Z): %.2f\n", z)
		fmt.Fprintln(out, separator)
	}

	min, max := sum.Bounds()
	fmt.Fprintln(out, "Total Dimensions of the Entire Part:")
	fmt.Fprintf(out, "  Length (X): %.2f\n", max[0]-min[0])
	fmt.Fprintf(out, "  Width  (Y): %.2f\n", max[1]-min[1])
	fmt.Fprintf(out, "  Height (Z): %.2f\n", max[2]-min[2])
	fmt.Fprintln(out, separator)
	return nil
}
