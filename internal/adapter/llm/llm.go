// Package llm provides the text-generation backends used to summarize the
// digest: any OpenAI-compatible chat endpoint (the Doubao Ark API by default)
// and Google Gemini.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-digest-service/internal/summary"
)

// Provider names accepted by New.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

const (
	// DefaultBaseURL is the Volcengine Ark OpenAI-compatible endpoint.
	DefaultBaseURL     = "https://ark.cn-beijing.volces.com/api/v3"
	DefaultModel       = "doubao-seed-1-6-flash-250615"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultTimeout     = 20 * time.Second
	DefaultRPM         = 30

	temperature = 0.2
)

// Config selects and configures a backend.
type Config struct {
	Provider string

	APIKey  string
	BaseURL string
	Model   string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	Timeout    time.Duration
	RPM        int
	MaxRetries int
}

// New builds the configured summarizer. It returns a nil Summarizer for
// ProviderNone, which makes the compositor use its fallbacks.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (summary.Summarizer, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		o, err := NewOpenAI(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return o, nil
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}

// caller holds what every backend shares: request pacing, a per-call
// timeout and retries on rate-limit responses.
type caller struct {
	name       string
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
	initial    time.Duration
	logger     *slog.Logger
}

func newCaller(name string, cfg Config, logger *slog.Logger) caller {
	rpm := cfg.RPM
	if rpm <= 0 {
		rpm = DefaultRPM
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return caller{
		name:       name,
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		timeout:    timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		initial:    2 * time.Second,
		logger:     logger,
	}
}

// do runs gen under the limiter, retrying only when the backend reports it
// is being rate limited.
func (c caller) do(ctx context.Context, gen func(ctx context.Context) (string, error)) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	var text string
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var err error
		text, err = gen(callCtx)
		if err == nil {
			return nil
		}
		if isRateLimited(err) && ctx.Err() == nil {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("summarizer rate limited, retrying", "provider", c.name, "error", err, "wait", wait)
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", fmt.Errorf("%s generate: %w", c.name, err)
	}
	return text, nil
}

var errEmptyResponse = errors.New("empty response")

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "resource_exhausted")
}
