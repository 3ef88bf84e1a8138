package main

import (
	"github.com/spf13/cobra"

	"curiospace/internal/protocol"
)

func axesCmd() *cobra.Command {
	var labels axisFlags
	cmd := &cobra.Command{
		Use:   "axes <subject>",
		Short: "Generate two semantic axes for a subject",
		Long:  "Generate two semantic axes for a subject. Labels given as flags are kept verbatim and the model fills in the rest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAxes(cmd, args[0], labels)
		},
	}
	labels.register(cmd)
	return cmd
}

func runAxes(cmd *cobra.Command, subject string, labels axisFlags) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	x, y := labels.axes()
	res, err := a.service.GenerateAxes(ctx, protocol.AxesRequest{Subject: subject, XAxis: x, YAxis: y})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
