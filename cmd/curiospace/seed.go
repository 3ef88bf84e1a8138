package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curiospace/internal/protocol"
	"curiospace/internal/session"
)

var seedOutDir string

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <item> <item> <item>",
		Short: "Build a map from three example items and save it as a snapshot",
		Args:  cobra.ExactArgs(protocol.SeedItemCount),
		RunE:  runSeed,
	}
	cmd.Flags().StringVar(&seedOutDir, "out", ".", "Directory to write the snapshot to")
	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := session.New(a.service, a.logger)
	result, err := sess.SeedFromItems(ctx, args)
	if err != nil {
		return err
	}
	path, err := sess.SaveSnapshot(seedOutDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Subject: %s\n", result.Subject)
	fmt.Fprintln(out, formatAxis("X", result.Axes.XAxis))
	fmt.Fprintln(out, formatAxis("Y", result.Axes.YAxis))
	fmt.Fprintf(out, "Placed (%d):\n", len(result.Placed))
	for _, m := range result.Placed {
		fmt.Fprintf(out, "  - %s at (%g, %g)\n", m.Name, m.X, m.Y)
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped (%d):\n", len(result.Skipped))
		for _, s := range result.Skipped {
			fmt.Fprintf(out, "  - %s: %s\n", s.Item, s.Reason)
		}
	}
	fmt.Fprintf(out, "Snapshot: %s\n", path)
	return nil
}
