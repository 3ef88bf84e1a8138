package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"curiospace/internal/completion"
)

const (
	DefaultFile      = "curiospace.yaml"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
)

var ErrMissingAPIKey = errors.New("model API key is not set")

type Config struct {
	Version   int             `yaml:"version"`
	Model     ModelConfig     `yaml:"model"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ModelConfig struct {
	Name            string        `yaml:"name"`
	APIKeyEnv       string        `yaml:"api_key_env"`
	Temperature     *float32      `yaml:"temperature"`
	MaxOutputTokens int32         `yaml:"max_output_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
}

type BreakerConfig struct {
	Disabled         bool          `yaml:"disabled"`
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type RateLimitConfig struct {
	RetryAfter time.Duration `yaml:"retry_after"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{Version: 1}
	applyDefaults(cfg)
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Model.Name) == "" {
		cfg.Model.Name = completion.DefaultModel
	}
	if strings.TrimSpace(cfg.Model.APIKeyEnv) == "" {
		cfg.Model.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Model.Temperature == nil {
		t := float32(0.8)
		cfg.Model.Temperature = &t
	}
	if cfg.Model.MaxOutputTokens == 0 {
		cfg.Model.MaxOutputTokens = 500
	}
	if cfg.Model.Timeout == 0 {
		cfg.Model.Timeout = 30 * time.Second
	}

	def := completion.DefaultBreakerConfig()
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = def.MaxRequests
	}
	if cfg.Breaker.Interval == 0 {
		cfg.Breaker.Interval = def.Interval
	}
	if cfg.Breaker.Timeout == 0 {
		cfg.Breaker.Timeout = def.Timeout
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = def.FailureThreshold
	}
	if cfg.Breaker.MinRequests == 0 {
		cfg.Breaker.MinRequests = def.MinRequests
	}

	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.RateLimit.RetryAfter == 0 {
		cfg.RateLimit.RetryAfter = completion.DefaultRetryAfter
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if t := *cfg.Model.Temperature; t < 0 || t > 2 {
		return fmt.Errorf("model temperature must be between 0 and 2, got %v", t)
	}
	if cfg.Model.MaxOutputTokens < 0 {
		return fmt.Errorf("model max_output_tokens must be positive")
	}
	if cfg.Model.Timeout < 0 {
		return fmt.Errorf("model timeout must not be negative")
	}
	if cfg.Breaker.FailureThreshold < 0 || cfg.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("breaker failure_threshold must be between 0 and 1, got %v", cfg.Breaker.FailureThreshold)
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging level: %s", cfg.Logging.Level)
	}
	if cfg.RateLimit.RetryAfter < 0 {
		return fmt.Errorf("rate_limit retry_after must not be negative")
	}
	return nil
}

// APIKey reads the model API key from the configured environment variable.
func (c *Config) APIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(c.Model.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, c.Model.APIKeyEnv)
	}
	return key, nil
}

func (c *Config) Gemini(apiKey string) completion.GeminiConfig {
	return completion.GeminiConfig{
		APIKey:          apiKey,
		Model:           c.Model.Name,
		Temperature:     *c.Model.Temperature,
		MaxOutputTokens: c.Model.MaxOutputTokens,
		Timeout:         c.Model.Timeout,
		RetryAfter:      c.RateLimit.RetryAfter,
	}
}

func (c *Config) BreakerSettings() completion.BreakerConfig {
	return completion.BreakerConfig{
		Name:             "completion",
		MaxRequests:      c.Breaker.MaxRequests,
		Interval:         c.Breaker.Interval,
		Timeout:          c.Breaker.Timeout,
		FailureThreshold: c.Breaker.FailureThreshold,
		MinRequests:      c.Breaker.MinRequests,
	}
}

// Template is the file written by `curiospace init`.
const Template = `version: 1

model:
  name: gemini-2.0-flash
  api_key_env: GEMINI_API_KEY
  temperature: 0.8
  max_output_tokens: 500
  timeout: 30s

breaker:
  max_requests: 5
  interval: 30s
  timeout: 60s
  failure_threshold: 0.8
  min_requests: 5

http:
  addr: ":8080"
  allowed_origins:
    - http://localhost:3000
  shutdown_timeout: 10s

logging:
  level: info
  development: false

rate_limit:
  retry_after: 60s
`
