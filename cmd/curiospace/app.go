package main

import (
	"context"
	"errors"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"curiospace/internal/completion"
	"curiospace/internal/config"
	"curiospace/internal/logging"
	"curiospace/internal/protocol"
)

const metricsNamespace = "curiospace"

// app is everything a command needs to talk to the model service.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *completion.Metrics
	service *protocol.Service
}

// loadConfig falls back to defaults when the default config file is absent.
// A file named with --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return nil, err
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	gemini, err := completion.NewGemini(ctx, cfg.Gemini(apiKey), logger)
	if err != nil {
		return nil, err
	}

	var completer completion.Completer = gemini
	if !cfg.Breaker.Disabled {
		completer = completion.WithBreaker(completer, cfg.BreakerSettings(), logger)
	}
	metrics := completion.NewMetrics(metricsNamespace)
	completer = completion.Instrument(completer, metrics)

	logger.Debug("model service ready",
		zap.String("model", cfg.Model.Name),
		zap.Bool("breaker", !cfg.Breaker.Disabled),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		service: protocol.NewService(completer, logger),
	}, nil
}

func (a *app) Close() {
	_ = a.logger.Sync()
}
