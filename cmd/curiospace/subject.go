package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curiospace/internal/protocol"
)

func subjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject [item item item]",
		Short: "Suggest a subject, or infer one from three example items",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != protocol.SeedItemCount {
				return fmt.Errorf("expected no items or exactly %d, got %d", protocol.SeedItemCount, len(args))
			}
			return nil
		},
		RunE: runSubject,
	}
	return cmd
}

func runSubject(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var res protocol.SubjectResult
	if len(args) == 0 {
		res, err = a.service.GenerateSubject(ctx)
	} else {
		res, err = a.service.GenerateSubjectFromItems(ctx, args)
	}
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
