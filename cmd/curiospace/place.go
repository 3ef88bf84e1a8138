package main

import (
	"github.com/spf13/cobra"

	"curiospace/internal/protocol"
)

func placeCmd() *cobra.Command {
	var (
		subject  string
		labels   axisFlags
		existing []string
	)
	cmd := &cobra.Command{
		Use:   "place <item>",
		Short: "Find where a named item belongs on a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			xAxis, yAxis := labels.axes()
			return runPlace(cmd, protocol.PlaceRequest{
				Subject:  subject,
				XAxis:    xAxis,
				YAxis:    yAxis,
				ItemName: args[0],
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

func runPlace(cmd *cobra.Command, req protocol.PlaceRequest) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.service.Place(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), p)
}
