package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timcash/code-cad/pkg/inspect"
	"github.com/timcash/code-cad/pkg/scene"
	"github.com/timcash/code-cad/pkg/view"
)

// DefaultViewFile is the PNG written when --out is not given.
const DefaultViewFile = "img.png"

// Default solid filtering for large models.
const (
	DefaultViewSkip          = 5
	DefaultViewSkipThreshold = 8
)

type View struct {
	cmd *cobra.Command

	mainopts  *Options
	out       string
	width     int
	height    int
	zoom      float64
	roll      float64
	elevation float64
	skip      int
	threshold int
}

func NewView(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "render a model screenshot to PNG",
		Long: `
View renders a shaded screenshot of the model. When the model contains
more solids than --skip-threshold, the first --skip solids (largest by
enclosed volume) are dropped before rendering, which cuts away
enclosing geometry such as housings.
`,
		Args: cobra.MaximumNArgs(1),
	}
	c := &View{cmd: cmd, mainopts: opts}
	c.cmd.RunE = func(cmd *cobra.Command, args []string) error { return c.Run(args) }

	cam := view.DefaultCamera()
	flags := cmd.Flags()
	flags.StringVarP(&c.out, "out", "o", DefaultViewFile, "output PNG file")
	flags.IntVar(&c.width, "width", cam.Width, "viewport width in pixels")
	flags.IntVar(&c.height, "height", cam.Height, "viewport height in pixels")
	flags.Float64Var(&c.zoom, "zoom", cam.Zoom, "zoom factor")
	flags.Float64Var(&c.roll, "roll", cam.RollDeg, "camera roll in degrees")
	flags.Float64Var(&c.elevation, "elevation", cam.ElevationDeg, "camera elevation in degrees")
	flags.IntVar(&c.skip, "skip", DefaultViewSkip, "solids to drop from large models")
	flags.IntVar(&c.threshold, "skip-threshold", DefaultViewSkipThreshold, "solid count above which --skip applies")
	return cmd
}

func (c *View) Run(args []string) error {
	parts, err := loadParts(modelPath(args))
	if err != nil {
		return err
	}
	cam := view.Camera{
		Width:        c.width,
		Height:       c.height,
		Zoom:         c.zoom,
		RollDeg:      c.roll,
		ElevationDeg: c.elevation,
	}

	out := c.cmd.OutOrStdout()
	solids := inspect.Shells(mergeParts(parts))
	fmt.Fprintf(out, "Found %d solids in the original object.\n", len(solids))

	if len(solids) > c.threshold && c.skip > 0 {
		skip := c.skip
		if skip > len(solids) {
			skip = len(solids)
		}
		remaining := solids[skip:]
		fmt.Fprintf(out, "Keeping %d solids after removing the first %d.\n", len(remaining), skip)
		if len(remaining) == 0 {
			fmt.Fprintln(out, "No solids remaining after removal.")
			return nil
		}

		// Splitting into shells loses the per-part colors; the filtered
		// view renders with the neutral fill.
		kept := make([]*scene.PartMesh, 0, len(remaining))
		for i, m := range remaining {
			kept = append(kept, &scene.PartMesh{Name: fmt.Sprintf("solid-%d", skip+i+1), Mesh: m})
		}
		fmt.Fprintf(out, "Showing the object with the first %d solids removed.\n", skip)
		return view.RenderPNG(c.out, kept, cam)
	}

	fmt.Fprintf(out, "Fewer than %d solids found, so none were removed.\n", c.threshold+1)
	return view.RenderPNG(c.out, parts, cam)
}
