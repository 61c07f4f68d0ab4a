// Package main implements the ConnectJob engine API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/ingest"
	"github.com/connectjob/engine/engine/lang"
	"github.com/connectjob/engine/engine/match"
	"github.com/connectjob/engine/engine/rag"
	"github.com/connectjob/engine/engine/retrieve"
	"github.com/connectjob/engine/engine/semantic"
	"github.com/connectjob/engine/pkg/llm"
	"github.com/connectjob/engine/pkg/metrics"
	"github.com/connectjob/engine/pkg/mid"
	"github.com/connectjob/engine/pkg/repo"
	"github.com/connectjob/engine/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port           string
	DBPath         string
	OpenAIKey      string
	OpenAIBaseURL  string
	EmbeddingModel string
	ChatModel      string
	NATSURL        string
	CORSOrigin     string
	HTTPRate       float64
	HTTPBurst      int
}

func loadConfig() Config {
	return Config{
		Port:           envOr("PORT", "8080"),
		DBPath:         envOr("DB_PATH", "engine.db"),
		OpenAIKey:      envOr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  envOr("OPENAI_BASE_URL", ""),
		EmbeddingModel: envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      envOr("CHAT_MODEL", "gpt-4o-mini"),
		NATSURL:        envOr("NATS_URL", ""),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
		HTTPRate:       envFloatOr("HTTP_RATE", 50),
		HTTPBurst:      envIntOr("HTTP_BURST", 100),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
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

	// --- OpenAI client + language normalizer ---
	llmClient := llm.New(llm.Config{
		APIKey:         cfg.OpenAIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
	}, logger)
	normalizer := lang.NewNormalizer(llmClient, logger)

	// --- Engine services ---
	reg := metrics.New()
	indexer := ingest.NewIndexer(ingest.Deps{
		CVs:        cvs,
		Jobs:       jobs,
		Store:      store,
		Embedder:   llmClient,
		Normalizer: normalizer,
		Logger:     logger,
		Metrics:    reg,
	})
	retriever := retrieve.NewEngine(store, llmClient, logger)
	matcher := match.New(match.Deps{
		CVs:        cvs,
		Jobs:       jobs,
		Store:      store,
		Embedder:   llmClient,
		Normalizer: normalizer,
		Logger:     logger,
	})
	answerer := rag.NewService(retriever, llmClient, logger)

	// --- Optional NATS for async index triggers ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
	}

	api := &apiServer{
		cvs:      cvs,
		jobs:     jobs,
		indexer:  indexer,
		retrieve: retriever,
		matcher:  matcher,
		answerer: answerer,
		nats:     nc,
		log:      logger,
	}

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", api.handleHealth)
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, reg.Render())
	})
	mux.HandleFunc("POST /api/cvs", api.handleCreateCV)
	mux.HandleFunc("POST /api/jobs", api.handleCreateJob)
	mux.HandleFunc("POST /api/index/{type}/{id}", api.handleIndexOne)
	mux.HandleFunc("POST /api/index/{type}", api.handleIndexAll)
	mux.HandleFunc("POST /api/retrieve", api.handleRetrieve)
	mux.HandleFunc("GET /api/match/job/{id}", api.handleMatchJob)
	mux.HandleFunc("GET /api/match/cv/{id}", api.handleMatchCV)
	mux.HandleFunc("GET /api/match/pair/{jobId}/{cvId}", api.handleMatchPair)
	mux.HandleFunc("POST /api/ask", api.handleAsk)

	limiter := resilience.NewLimiter(resilience.LimiterOpts{Rate: cfg.HTTPRate, Burst: cfg.HTTPBurst})
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.RateLimit(limiter),
		mid.OTel("connectjob-engine"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
