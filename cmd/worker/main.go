// Package main runs the index worker: it consumes index requests from
// NATS and feeds them through the indexer with retry and DLQ support.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/ingest"
	"github.com/connectjob/engine/engine/lang"
	"github.com/connectjob/engine/engine/semantic"
	"github.com/connectjob/engine/pkg/llm"
	"github.com/connectjob/engine/pkg/metrics"
	"github.com/connectjob/engine/pkg/repo"
)

// Config holds all environment-based configuration.
type Config struct {
	NATSURL        string
	DBPath         string
	OpenAIKey      string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string
}

func loadConfig() Config {
	return Config{
		NATSURL:        envOr("NATS_URL", nats.DefaultURL),
		DBPath:         envOr("DB_PATH", "engine.db"),
		OpenAIKey:      envOr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  envOr("OPENAI_BASE_URL", ""),
		EmbeddingModel: envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      envOr("CHAT_MODEL", "gpt-4o-mini"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(loadConfig(), logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := semantic.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("embedding store: %w", err)
	}
	defer store.Close()

	db, err := repo.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("repo db: %w", err)
	}
	defer db.Close()

	cvs, err := repo.NewSQLite(db, "cvs",
		func(cv domain.CV) string { return cv.ID },
		func(cv domain.CV, id string) domain.CV { cv.ID = id; return cv })
	if err != nil {
		return err
	}
	jobs, err := repo.NewSQLite(db, "jobs",
		func(j domain.Job) string { return j.ID },
		func(j domain.Job, id string) domain.Job { j.ID = id; return j })
	if err != nil {
		return err
	}

	llmClient := llm.New(llm.Config{
		APIKey:         cfg.OpenAIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
	}, logger)

	indexer := ingest.NewIndexer(ingest.Deps{
		CVs:        cvs,
		Jobs:       jobs,
		Store:      store,
		Embedder:   llmClient,
		Normalizer: lang.NewNormalizer(llmClient, logger),
		Logger:     logger,
		Metrics:    metrics.New(),
	})

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := ingest.StartConsumer(nc, indexer, logger)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("index worker started", "subject", ingest.IndexSubject)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}
