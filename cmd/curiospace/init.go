package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"curiospace/internal/config"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runInit(configPath); err != nil {
				return err
			}
			cmd.Printf("Wrote %s. Set %s before running other commands.\n", configPath, config.DefaultAPIKeyEnv)
			return nil
		},
	}
	return cmd
}

func runInit(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
