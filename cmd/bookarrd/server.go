package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	v1 "github.com/vmunix/bookarr/internal/api/v1"
	"github.com/vmunix/bookarr/internal/catalog"
	"github.com/vmunix/bookarr/internal/config"
	"github.com/vmunix/bookarr/internal/download"
	"github.com/vmunix/bookarr/internal/metadata"
	"github.com/vmunix/bookarr/internal/migrations"
	"github.com/vmunix/bookarr/internal/search"
	"github.com/vmunix/bookarr/internal/server"
	"github.com/vmunix/bookarr/pkg/retry"
	"github.com/vmunix/bookarr/pkg/torznab"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	policy := retry.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay.Duration(),
		MaxDelay:   cfg.Retry.MaxDelay.Duration(),
	}

	// === Stores ===
	bookStore := catalog.NewStore(db)
	jobStore := download.NewStore(db)

	// === External clients ===
	metaClient := metadata.NewClient(cfg.Metadata.Provider, cfg.Metadata.URL, cfg.Metadata.APIKey,
		metadata.WithLogger(logger), metadata.WithRetryPolicy(policy))
	metaService := metadata.NewService(metaClient, metadata.NewCache(db), logger)

	indexerClient := torznab.NewClient(cfg.Indexer.Name, cfg.Indexer.URL, cfg.Indexer.APIKey,
		torznab.WithLogger(logger), torznab.WithRetryPolicy(policy))

	engine := download.NewQBittorrentClient(cfg.Engine.URL, cfg.Engine.Category, logger,
		download.WithQBRetryPolicy(policy))

	// === Services ===
	discoverer := search.NewDiscoverer(metaService, indexerClient, logger)
	manager := download.NewManager(engine, jobStore, bookStore, discoverer, metaService,
		db, cfg.Engine.NotFoundGrace.Duration(), logger)

	// === HTTP ===
	mux := http.NewServeMux()
	apiV1 := v1.New(db, v1.Deps{Manager: manager, Discoverer: discoverer}, version)
	apiV1.RegisterRoutes(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"provider", cfg.Metadata.Provider,
		"indexer", cfg.Indexer.Name,
		"engine", torznab.RedactURL(cfg.Engine.URL),
		"log_level", cfg.Server.LogLevel,
	)

	runner := server.NewRunner(logRequests(mux, logger), manager, server.Config{
		Addr:         addr,
		SyncInterval: cfg.Sync.Interval.Duration(),
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
