package main

import (
	"os"

	"github.com/spf13/cobra"

	"curiospace/internal/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "curiospace",
		Short:        "Explore a subject as a two-dimensional semantic map",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "Path to the config file")
	root.AddCommand(serveCmd())
	root.AddCommand(httpCmd())
	root.AddCommand(exploreCmd())
	root.AddCommand(subjectCmd())
	root.AddCommand(axesCmd())
	root.AddCommand(manifestCmd())
	root.AddCommand(placeCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
