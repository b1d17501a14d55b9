// Package coach runs the analysis pipeline: fetch prices, compute metrics,
// build learning content, add optional commentary, store the session and
// announce it.
package coach

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"ai-market-coach/analytics"
	"ai-market-coach/apperrors"
	"ai-market-coach/charts"
	"ai-market-coach/database"
	models "ai-market-coach/database/models_pkg"
	"ai-market-coach/learning"
	"ai-market-coach/llm"
	"ai-market-coach/logging"
	"ai-market-coach/market"
	"ai-market-coach/realtime"
)

// Publisher announces events to realtime subscribers
type Publisher interface {
	Publish(ctx context.Context, event realtime.Event)
}

// Analysis is the computed part of a result
type Analysis struct {
	Ticker       string                   `json:"ticker"`
	AsOf         time.Time                `json:"as_of"`
	Period       string                   `json:"period"`
	Interval     string                   `json:"interval"`
	Company      *market.CompanySnapshot  `json:"company"`
	PriceMetrics *analytics.MetricsReport `json:"price_metrics"`
}

// Result is the full response for one analysis
type Result struct {
	SessionID      string                  `json:"session_id"`
	Ticker         string                  `json:"ticker"`
	Analysis       Analysis                `json:"analysis"`
	ReportMarkdown string                  `json:"report_markdown"`
	Commentary     string                  `json:"commentary"`
	Quiz           []learning.QuizQuestion `json:"quiz"`
	Flashcards     []learning.Flashcard    `json:"flashcards"`
	Disclaimer     string                  `json:"disclaimer"`
}

// Service orchestrates analyses
type Service struct {
	provider market.Provider
	store    database.SessionStore
	coach    *llm.Coach
	events   Publisher
	validate *validator.Validate
	now      func() time.Time
	logger   *logging.Logger
}

// Option configures the service
type Option func(*Service)

// WithCoach enables LLM commentary
func WithCoach(c *llm.Coach) Option {
	return func(s *Service) {
		s.coach = c
	}
}

// WithPublisher announces created sessions
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates the analysis service
func NewService(provider market.Provider, store database.SessionStore, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		store:    store,
		validate: newValidator(),
		now:      time.Now,
		logger:   logging.NewSilent(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the full pipeline for req. Price history, metrics and storage
// failures are fatal; the company snapshot, commentary and event are best effort.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	req = req.Normalize()
	if err := validate(s.validate, req); err != nil {
		return nil, err
	}
	log := s.logger.With().Str("ticker", req.Ticker).Str("period", req.Period).Str("interval", req.Interval).Logger()

	series, err := s.provider.FetchSeries(ctx, req.Ticker, req.Period, req.Interval)
	if err != nil {
		return nil, err
	}

	company, err := s.provider.FetchSnapshot(ctx, req.Ticker)
	if err != nil {
		log.Warn().Err(err).Msg("company snapshot unavailable")
		company = &market.CompanySnapshot{Ticker: req.Ticker}
	}
	if company.Currency == "" {
		company.Currency = series.Currency
	}

	metrics, err := analytics.Compute(series)
	if err != nil {
		return nil, err
	}

	in := learning.Input{
		Ticker:   req.Ticker,
		Period:   req.Period,
		Interval: req.Interval,
		Level:    req.UserLevel,
		Metrics:  metrics,
		Company:  company,
		Currency: company.Currency,
	}
	deck, err := learning.BuildDeck(in, learning.StableSeed(req.Ticker, req.Period, req.Interval, req.UserLevel))
	if err != nil {
		return nil, err
	}

	commentary := s.coach.Commentary(ctx, req.Ticker, req.UserLevel, metrics, company)

	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, errors.Wrap(err, "encode metrics")
	}

	sess := models.NewSession(s.now())
	sess.Ticker = req.Ticker
	sess.Period = req.Period
	sess.Interval = req.Interval
	sess.UserLevel = req.UserLevel
	sess.StartDate = metrics.StartDate
	sess.EndDate = metrics.EndDate
	sess.Metrics = datatypes.JSON(metricsJSON)
	sess.Commentary = commentary

	if err := s.store.Create(ctx, sess); err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			err = apperrors.WrapStorageError("create session", err)
		}
		return nil, err
	}
	log.Info().Str("session_id", sess.ID).Bool("commentary", commentary != "").Msg("analysis stored")

	if s.events != nil {
		s.events.Publish(ctx, realtime.Event{
			Type: realtime.EventSessionCreated,
			Payload: realtime.SessionCreated{
				SessionID:       sess.ID,
				Ticker:          sess.Ticker,
				Period:          sess.Period,
				Interval:        sess.Interval,
				UserLevel:       sess.UserLevel,
				PeriodReturnPct: metrics.PeriodReturnPct,
				RiskLevel:       metrics.RiskLevel,
				CreatedAt:       sess.CreatedAt,
			},
		})
	}

	return &Result{
		SessionID: sess.ID,
		Ticker:    req.Ticker,
		Analysis: Analysis{
			Ticker:       req.Ticker,
			AsOf:         sess.CreatedAt,
			Period:       req.Period,
			Interval:     req.Interval,
			Company:      company,
			PriceMetrics: metrics,
		},
		ReportMarkdown: learning.RenderReport(in),
		Commentary:     commentary,
		Quiz:           deck.Quiz,
		Flashcards:     deck.Flashcards,
		Disclaimer:     learning.Disclaimer,
	}, nil
}

// Chart renders the price chart for a ticker without storing anything
func (s *Service) Chart(ctx context.Context, req Request) ([]byte, error) {
	req = req.Normalize()
	if err := validate(s.validate, req); err != nil {
		return nil, err
	}

	series, err := s.provider.FetchSeries(ctx, req.Ticker, req.Period, req.Interval)
	if err != nil {
		return nil, err
	}
	return charts.RenderPriceChart(series)
}

// Session returns a stored session by id
func (s *Service) Session(ctx context.Context, id string) (*models.Session, error) {
	return s.store.Get(ctx, id)
}

// Sessions lists stored sessions, newest first
func (s *Service) Sessions(ctx context.Context, opts models.ListOptions) ([]models.Session, error) {
	opts.Ticker = Request{Ticker: opts.Ticker}.Normalize().Ticker
	return s.store.List(ctx, opts.Normalize())
}

// ProviderName identifies the market data source
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Ping reports whether the session store is reachable
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
