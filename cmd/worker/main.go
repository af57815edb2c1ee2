package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studio/internal/history"
	"studio/internal/infra"
)

const (
	sweepInterval = time.Minute
	staleAfter    = 30 * time.Minute
)

// The sweeper keeps the generations table inside its retention window and
// fails tasks whose caller never came back to poll them.
type sweeper struct {
	ctx    context.Context
	store  *history.Store
	logger infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	w := &sweeper{
		ctx:    ctx,
		store:  history.NewStore(infra.NewSQLRunner(pool, logger)),
		logger: logger,
	}

	if err := w.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *sweeper) Run() error {
	w.logger.Info().Msg("worker: started")
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		w.sweep()
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *sweeper) sweep() {
	failed, err := w.store.FailStale(w.ctx, staleAfter)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: failed to reap stale generations")
	} else if failed > 0 {
		w.logger.Info().Int64("count", failed).Msg("worker: reaped stale generations")
	}
	if err := w.store.Prune(w.ctx); err != nil {
		w.logger.Error().Err(err).Msg("worker: retention prune failed")
	}
}
