package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timcash/code-cad/pkg/view"
)

// DefaultRenderFile is the SVG written when --out is not given.
const DefaultRenderFile = "test2.svg"

type Render struct {
	cmd *cobra.Command

	mainopts *Options
	out      string
}

func NewRender(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "project a model to an SVG drawing",
		Args:  cobra.MaximumNArgs(1),
	}
	c := &Render{cmd: cmd, mainopts: opts}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }
	flags := cmd.Flags()
	flags.StringVarP(&c.out, "out", "o", DefaultRenderFile, "output SVG file")
	return cmd
}

func (c *Render) Run(args []string) error {
	parts, err := loadParts(modelPath(args))
	if err != nil {
		return err
	}
	if err := view.RenderSVG(c.out, parts, view.DefaultCamera()); err != nil {
		return err
	}
	fmt.Fprintf(c.cmd.OutOrStdout(), "Exported %s\n", c.out)
	return nil
}
