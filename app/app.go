package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-market-coach/api"
	"ai-market-coach/cache"
	"ai-market-coach/coach"
	"ai-market-coach/config"
	"ai-market-coach/database"
	"ai-market-coach/llm"
	"ai-market-coach/logging"
	"ai-market-coach/market"
	"ai-market-coach/realtime"
)

// Version is overridden at build time with -ldflags "-X ai-market-coach/app.Version=..."
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// App represents the main application
type App struct {
	config *config.Config
	logger *logging.Logger

	store      database.SessionStore
	redis      *cache.RedisClient
	broker     *realtime.Broker
	hub        *realtime.Hub
	dispatcher *realtime.Dispatcher
	service    *coach.Service
	server     *api.Server
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{
		config: cfg,
		logger: logging.New(cfg.LogLevel),
	}
}

// Start wires every component, serves the API and blocks until SIGINT/SIGTERM
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.setup(ctx); err != nil {
		a.closeResources()
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start(a.config.Port)
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case err := <-serverErr:
		cancel()
		a.closeResources()
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case sig := <-interrupt:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received, initiating graceful shutdown")
	}

	return a.gracefulShutdown(cancel)
}

// setup builds the component graph. Background loops are bound to ctx.
func (a *App) setup(ctx context.Context) error {
	cfg := a.config

	// 1. Session store
	store, err := database.NewStore(ctx, cfg.DatabaseURL, a.logger.Component("database"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.store = store

	// 2. Redis (optional)
	if cfg.Redis.Enabled {
		a.redis = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, a.logger.Component("redis"))
	}

	// 3. Market data
	provider := market.NewYahooProvider(
		market.WithTimeout(cfg.Market.Timeout),
		market.WithRateLimit(cfg.Market.RateLimit),
		market.WithLogger(a.logger),
	)

	// 4. LLM commentary (optional)
	gen, err := llm.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		a.logger.Warn().Err(err).Msg("LLM client unavailable, commentary disabled")
		gen = nil
	}
	coachOpts := []llm.CoachOption{llm.WithCoachLogger(a.logger)}
	if a.redis != nil {
		coachOpts = append(coachOpts, llm.WithCache(
			cache.NewCommentaryCache(a.redis, cache.DefaultCommentaryTTL),
			cache.CommentaryKey,
		))
	}
	commentary := llm.NewCoach(gen, cfg.LLM.Timeout, coachOpts...)
	if commentary.Enabled() {
		a.logger.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Msg("LLM commentary enabled")
	}

	// 5. Realtime fan-out
	a.broker = realtime.NewBroker(a.logger)
	a.hub = realtime.NewHub(a.logger, originChecker(cfg.CORSAllowedOrigins))
	go a.broker.Run(ctx)
	go a.hub.Run(ctx)

	a.dispatcher = realtime.NewDispatcher(a.redis, a.logger, a.broker, a.hub)
	go a.dispatcher.Relay(ctx)

	// 6. Analysis pipeline
	a.service = coach.NewService(provider, a.store,
		coach.WithCoach(commentary),
		coach.WithPublisher(a.dispatcher),
		coach.WithLogger(a.logger),
	)

	// 7. API server
	a.server = api.NewServer(a.service, a.logger,
		api.WithEventStreams(a.broker, a.hub),
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		api.WithVersion(Version),
	)
	return nil
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown(cancel context.CancelFunc) error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Cancel first: open SSE and WebSocket streams only end when their loops stop
	cancel()

	shutdownComplete := make(chan struct{})
	go func() {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("error stopping API server")
		} else {
			a.logger.Info().Msg("API server stopped")
		}
		a.closeResources()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		a.logger.Info().Msg("graceful shutdown completed")
		return nil
	case <-shutdownCtx.Done():
		a.logger.Warn().Msg("shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}

func (a *App) closeResources() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing session store")
		} else {
			a.logger.Info().Msg("session store closed")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("error closing Redis")
		} else {
			a.logger.Info().Msg("Redis connection closed")
		}
	}
}

// originChecker mirrors the CORS allow list for WebSocket upgrades
func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
