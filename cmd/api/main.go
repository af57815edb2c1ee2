package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/dispatch"
	"studio/internal/generation"
	"studio/internal/history"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/geoip"
	"studio/internal/middleware"
	"studio/internal/queue"
	"studio/internal/registry"
	"studio/internal/settings"
	"studio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if err := registry.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("api: invalid model catalog")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)

	manager := queue.NewManager(queue.Options{
		DefaultLimit: cfg.MaxConcurrent,
		Limits:       scopeLimits(cfg),
	})
	client := dispatch.NewClient(dispatch.Options{
		APIKey:  cfg.FalAPIKey,
		BaseURL: cfg.FalQueueBaseURL,
		Logger:  &logger,
	})

	historyStore := history.NewStore(runner)
	settingsStore := settings.NewStore(runner)
	service := generation.NewService(generation.Options{
		Queue:        manager,
		Dispatcher:   client,
		History:      historyStore,
		Keys:         settingsStore,
		Logger:       &logger,
		PollInterval: cfg.PollInterval,
	})

	app := handlers.NewApp(service, manager, *cfg, &logger)
	app.History = historyStore
	app.Settings = settingsStore
	if cfg.StoragePath != "" {
		cache, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Warn().Err(err).Msg("api: asset cache disabled")
		} else {
			app.Cache = cache
		}
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   lookup,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: stopped")
}

func scopeLimits(cfg *infra.Config) map[string]int {
	limits := map[string]int{}
	if cfg.CanvasConcurrent > 0 {
		limits["canvas"] = cfg.CanvasConcurrent
	}
	return limits
}
