package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"curiospace/internal/protocol"
)

func manifestCmd() *cobra.Command {
	var (
		subject  string
		labels   axisFlags
		existing []string
	)
	cmd := &cobra.Command{
		Use:   "manifest <x> <y>",
		Short: "Discover the entity at a coordinate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseCoordinate("x", args[0])
			if err != nil {
				return err
			}
			y, err := parseCoordinate("y", args[1])
			if err != nil {
				return err
			}
			xAxis, yAxis := labels.axes()
			return runManifest(cmd, protocol.ManifestRequest{
				Subject:  subject,
				XAxis:    xAxis,
				YAxis:    yAxis,
				X:        x,
				Y:        y,
				Existing: existing,
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "Subject of the map")
	labels.register(cmd)
	cmd.Flags().StringArrayVar(&existing, "existing", nil, "Name already on the map (repeatable)")
	for _, name := range []string{"subject", "x-min", "x-max", "y-min", "y-max"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runManifest(cmd *cobra.Command, req protocol.ManifestRequest) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.service.Manifest(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), m)
}

func parseCoordinate(name, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s coordinate %q is not a number", name, raw)
	}
	return v, nil
}
