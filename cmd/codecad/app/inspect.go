package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timcash/code-cad/pkg/inspect"
)

type Inspect struct {
	cmd *cobra.Command

	mainopts *Options
}

func NewInspect(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "count the solids, faces, edges and vertices in a model",
		Args:  cobra.MaximumNArgs(1),
	}
	c := &Inspect{cmd: cmd, mainopts: opts}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	return cmd
}

func (c *Inspect) Run(args []string) error {
	parts, err := loadParts(modelPath(args))
	if err != nil {
		return err
	}
	sum := inspect.Summarize(mergeParts(parts))

	out := c.cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d solid(s)\n", len(sum.Solids))
	for i, solid := range sum.Solids {
		fmt.Fprintf(out, "  Solid %d:\n", i+1)
		fmt.Fprintf(out, "    Found %d face(s)\n", solid.Faces)
		fmt.Fprintf(out, "    Found %d edge(s)\n", solid.Edges)
		fmt.Fprintf(out, "    Found %d vertex(s)\n", solid.Vertices)
	}
	return nil
}
