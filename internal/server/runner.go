// Package server ties the HTTP API and the job sync loop into one
// run-until-canceled unit.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// Syncer reconciles active download jobs against the engine.
type Syncer interface {
	SyncActive(ctx context.Context) error
}

// Config for the runner.
type Config struct {
	Addr         string
	SyncInterval time.Duration
}

// Runner manages the HTTP server and the periodic sync loop.
type Runner struct {
	handler http.Handler
	syncer  Syncer
	cfg     Config
	log     *slog.Logger
}

// NewRunner creates a runner. A nil syncer disables the sync loop.
func NewRunner(handler http.Handler, syncer Syncer, cfg Config, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		handler: handler,
		syncer:  syncer,
		cfg:     cfg,
		log:     log.With("component", "server"),
	}
}

// Run starts both components and blocks until the context is canceled
// or one of them fails.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    r.cfg.Addr,
		Handler: r.handler,
	}

	g.Go(func() error {
		r.log.Info("http server listening", "addr", r.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if r.syncer != nil {
		g.Go(func() error {
			return r.runSyncLoop(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runSyncLoop polls the engine on a fixed interval. Sync failures are
// logged and retried on the next tick rather than stopping the server.
func (r *Runner) runSyncLoop(ctx context.Context) error {
	interval := r.cfg.SyncInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.Info("sync loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.syncer.SyncActive(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error("sync pass failed", "error", err)
			}
		}
	}
}
