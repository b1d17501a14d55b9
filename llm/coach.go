package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-market-coach/analytics"
	"ai-market-coach/config"
	"ai-market-coach/logging"
	"ai-market-coach/market"
)

// Generator produces text for a prompt
type Generator interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

// Cache stores generated commentary by key
type Cache interface {
	GetCommentary(ctx context.Context, key string) (string, bool)
	SetCommentary(ctx context.Context, key, text string) error
}

// KeyFunc derives the cache key for a prompt input
type KeyFunc func(ticker, level string, m *analytics.MetricsReport) string

// Coach produces best-effort commentary: any failure yields an empty string
type Coach struct {
	gen     Generator
	cache   Cache
	keyFn   KeyFunc
	timeout time.Duration
	logger  *logging.Logger
}

// CoachOption configures the coach
type CoachOption func(*Coach)

// WithCache caches commentary under keys produced by keyFn
func WithCache(cache Cache, keyFn KeyFunc) CoachOption {
	return func(c *Coach) {
		c.cache = cache
		c.keyFn = keyFn
	}
}

// WithCoachLogger sets the logger
func WithCoachLogger(logger *logging.Logger) CoachOption {
	return func(c *Coach) {
		c.logger = logger
	}
}

// NewCoach wraps gen; a nil gen disables commentary
func NewCoach(gen Generator, timeout time.Duration, opts ...CoachOption) *Coach {
	c := &Coach{
		gen:     gen,
		timeout: timeout,
		logger:  logging.NewSilent(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewGenerator builds the generator selected by cfg, or nil when disabled
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Provider {
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai", "":
		return NewClient(strings.TrimRight(cfg.Endpoint, "/"), cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// Enabled reports whether a generator is configured
func (c *Coach) Enabled() bool {
	return c != nil && c.gen != nil
}

// Commentary returns coaching prose for the metrics, or "" when the LLM is
// disabled, slow or failing.
func (c *Coach) Commentary(ctx context.Context, ticker, level string, m *analytics.MetricsReport, company *market.CompanySnapshot) string {
	if !c.Enabled() || m == nil {
		return ""
	}

	var key string
	if c.cache != nil && c.keyFn != nil {
		key = c.keyFn(ticker, level, m)
		if text, ok := c.cache.GetCommentary(ctx, key); ok {
			c.logger.Debug().Str("ticker", ticker).Msg("commentary cache hit")
			return text
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.gen.Analyze(ctx, FormatCoachingPrompt(ticker, level, m, company))
	if err != nil {
		c.logger.Warn().Err(err).Str("ticker", ticker).Msg("commentary unavailable")
		return ""
	}
	text = strings.TrimSpace(text)

	if key != "" && text != "" {
		if err := c.cache.SetCommentary(context.WithoutCancel(ctx), key, text); err != nil {
			c.logger.Debug().Err(err).Msg("failed to cache commentary")
		}
	}
	return text
}
