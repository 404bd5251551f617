package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timcash/code-cad/pkg/engine"
	"github.com/timcash/code-cad/pkg/exchange"
	"github.com/timcash/code-cad/pkg/kernel"
	"github.com/timcash/code-cad/pkg/kernel/sdfx"
	"github.com/timcash/code-cad/pkg/view"
)

type Eval struct {
	cmd *cobra.Command

	mainopts *Options
	out      string
	png      string
	cells    int
}

func NewEval(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <script>",
		Short: "evaluate a modeling script",
		Long: `
Eval runs a Lisp modeling script and reports the parts it defines.
With --out the resulting scene is saved as a 3MF model; with --png a
screenshot is rendered.
`,
		Args: cobra.ExactArgs(1),
	}
	c := &Eval{cmd: cmd, mainopts: opts}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.out, "out", "o", "", "write the scene to a 3MF file")
	flags.StringVar(&c.png, "png", "", "render the scene to a PNG file")
	flags.IntVar(&c.cells, "cells", kernel.DefaultMeshCells, "mesh resolution")
	return cmd
}

func (c *Eval) Run(args []string) error {
	script := args[0]
	source, err := os.ReadFile(script)
	if err != nil {
		return err
	}

	k := sdfx.New()
	sc, evalErrs, err := engine.NewEngine(k).Evaluate(string(source))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(c.cmd.ErrOrStderr(), "%s: %s\n", script, e.Error())
		}
		return fmt.Errorf("%s: %d error(s)", script, len(evalErrs))
	}

	out := c.cmd.OutOrStdout()
	fmt.Fprintf(out, "Evaluated %s: %d part(s)\n", script, sc.Len())
	for _, p := range sc.Parts() {
		min, max := p.Solid.BoundingBox()
		fmt.Fprintf(out, "  %s: %.2f x %.2f x %.2f\n",
			p.Name, max[0]-min[0], max[1]-min[1], max[2]-min[2])
	}

	if c.out == "" && c.png == "" {
		return nil
	}

	parts, err := sc.Mesh(k, c.cells)
	if err != nil {
		return err
	}
	if c.out != "" {
		if err := exchange.Save(c.out, exchange.FromScene(parts)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s\n", c.out)
	}
	if c.png != "" {
		if err := view.RenderPNG(c.png, parts, view.DefaultCamera()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Rendered %s\n", c.png)
	}
	return nil
}
