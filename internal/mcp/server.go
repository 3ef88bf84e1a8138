package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"curiospace/internal/apperr"
	"curiospace/internal/session"
)

type Server struct {
	ops         session.Protocol
	session     *session.Session
	snapshotDir string
	logger      *zap.Logger
	mcp         *sdk.Server
}

// NewServer exposes ops as stateless tools and sess as the map_* tools.
// Snapshots saved through map_save land in snapshotDir.
func NewServer(ops session.Protocol, sess *session.Session, snapshotDir, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if snapshotDir == "" {
		snapshotDir = "."
	}
	s := &Server{
		ops:         ops,
		session:     sess,
		snapshotDir: snapshotDir,
		logger:      logger,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "curiospace",
			Version: version,
		}, nil),
	}
	s.registerTools()
	s.registerSessionTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// toolError prefixes the error kind so clients can branch on it.
func toolError(err error) error {
	return fmt.Errorf("%s: %s", apperr.KindOf(err), apperr.UserMessage(err))
}
