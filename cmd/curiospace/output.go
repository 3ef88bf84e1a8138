package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"curiospace/internal/space"
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// axisFlags holds the four label flags shared by the one-shot commands.
type axisFlags struct {
	xMin, xMax, yMin, yMax string
}

func (f *axisFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.xMin, "x-min", "", "Label at x = -100")
	flags.StringVar(&f.xMax, "x-max", "", "Label at x = +100")
	flags.StringVar(&f.yMin, "y-min", "", "Label at y = -100")
	flags.StringVar(&f.yMax, "y-max", "", "Label at y = +100")
}

func (f *axisFlags) axes() (space.Axis, space.Axis) {
	return space.Axis{MinLabel: f.xMin, MaxLabel: f.xMax}, space.Axis{MinLabel: f.yMin, MaxLabel: f.yMax}
}

func formatAxis(name string, a space.Axis) string {
	return fmt.Sprintf("%s: %s <-> %s", name, a.MinLabel, a.MaxLabel)
}
