package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"curiospace/internal/apperr"
)

const (
	DefaultModel      = "gemini-2.0-flash"
	DefaultRetryAfter = 60 * time.Second
)

type GeminiConfig struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Timeout         time.Duration
	RetryAfter      time.Duration
}

// Gemini completes prompts with Google's Gemini API.
type Gemini struct {
	client *genai.Client
	cfg    GeminiConfig
	logger *zap.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = DefaultRetryAfter
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg, logger: logger}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens: g.cfg.MaxOutputTokens,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), genCfg)
	if err != nil {
		return "", g.classify(ctx, err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.KindService, "no content in completion response")
	}
	return text, nil
}

func (g *Gemini) classify(ctx context.Context, err error) error {
	if code, ok := apiErrorCode(err); ok && code == http.StatusTooManyRequests {
		g.logger.Warn("gemini rate limited", zap.String("model", g.cfg.Model), zap.Error(err))
		return apperr.RateLimited(g.cfg.RetryAfter, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindService, err, "completion timed out")
	}
	return apperr.Wrap(apperr.KindService, err, "completion failed")
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
