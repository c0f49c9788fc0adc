package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/garnizeh/curator/api"
	dbfs "github.com/garnizeh/curator/db"
	"github.com/garnizeh/curator/internal/ai"
	"github.com/garnizeh/curator/internal/ats"
	"github.com/garnizeh/curator/internal/config"
	"github.com/garnizeh/curator/internal/crawl"
	"github.com/garnizeh/curator/internal/db"
	"github.com/garnizeh/curator/internal/extract"
	"github.com/garnizeh/curator/internal/jobs"
	"github.com/garnizeh/curator/internal/match"
	"github.com/garnizeh/curator/internal/notify"
	"github.com/garnizeh/curator/internal/repository/sqlite"
	"github.com/garnizeh/curator/pkg/ollama"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	logger.Info("starting curator server", "version", version, "build_time", buildTime)

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := sqlite.New(database, logger)

	llm, err := ollama.NewDefaultClient(cfg.Ollama)
	if err != nil {
		log.Fatalf("Failed to create ollama client: %v", err)
	}
	ollama.SetLogger(logger)

	engine, err := ai.NewEngine(llm, cfg.Engine, logger)
	if err != nil {
		log.Fatalf("Failed to create AI engine: %v", err)
	}

	fetcher := crawl.NewFetcher(cfg.Crawl, nil, logger)
	resolver := crawl.NewResolver(cfg.Crawl.ProbeTimeout, nil, logger)
	pipeline := crawl.NewPipeline(repo, repo, fetcher, resolver, engine, logger)
	extractor := extract.NewExtractor(fetcher, logger)

	notifier := &notify.LogNotifier{Logger: logger}
	analytics := &notify.LogAnalytics{Logger: logger}
	matcher := match.NewEngine(engine, repo, repo, repo, notifier, analytics, cfg.Match.TopN, cfg.Match.Deadline, logger)
	reviewer := match.NewReviewer(repo, logger)

	var pool *jobs.WorkerPool
	greenhouse := ats.NewGreenhouseClient(cfg.ATS, logger)
	syncer := ats.NewSyncer(repo, repo, enqueuerFunc(func(ctx context.Context, typ string, payload any, priority, maxAttempts int) (int64, error) {
		return pool.Enqueue(ctx, typ, payload, priority, maxAttempts)
	}), []ats.Provider{greenhouse}, logger)

	handlers := buildJobHandlers(repo, engine, pipeline, extractor, matcher, syncer, logger)
	pool = jobs.NewWorkerPool(repo, handlers, logger, cfg.Workers)
	pool.Start(ctx)

	handler := api.SetupRoutes(cfg, version, buildTime, api.Deps{
		Accounts:    repo,
		Companies:   repo,
		Engineers:   repo,
		Roles:       repo,
		Matches:     repo,
		Challenges:  repo,
		Connections: repo,
		Computer:    matcher,
		Reviewer:    reviewer,
		Extractor:   extractor,
		Beautifier:  engine,
		Queue:       pool,
		Notifier:    notifier,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	pool.Stop()

	if err := database.Close(); err != nil {
		logger.Error("closing DB", "err", err)
	}

	logger.Info("server exited")
}

// enqueuerFunc adapts a closure to the ats.Enqueuer interface so the syncer
// can schedule jobs through the pool it runs inside.
type enqueuerFunc func(ctx context.Context, typ string, payload any, priority, maxAttempts int) (int64, error)

func (f enqueuerFunc) Enqueue(ctx context.Context, typ string, payload any, priority, maxAttempts int) (int64, error) {
	return f(ctx, typ, payload, priority, maxAttempts)
}
