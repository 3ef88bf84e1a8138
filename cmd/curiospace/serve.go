package main

import (
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"curiospace/internal/mcp"
	"curiospace/internal/session"
)

var serveSnapshotDir string

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveSnapshotDir, "snapshot-dir", ".", "Directory map_save writes snapshots to")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := session.New(a.service, a.logger)
	server := mcp.NewServer(a.service, sess, serveSnapshotDir, version, a.logger)
	a.logger.Info("mcp server starting")
	return server.Run(ctx, &sdk.StdioTransport{})
}
