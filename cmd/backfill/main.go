// Command backfill reindexes every stored CV and Job from scratch and
// prints a per-entity report. Run it after changing the embedding model or
// the text builders.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/ingest"
	"github.com/connectjob/engine/engine/lang"
	"github.com/connectjob/engine/engine/semantic"
	"github.com/connectjob/engine/pkg/llm"
	"github.com/connectjob/engine/pkg/metrics"
	"github.com/connectjob/engine/pkg/repo"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	var sourceType string
	flag.StringVar(&sourceType, "type", "", "source type to reindex: cv, job, or empty for both")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dbPath := envOr("DB_PATH", "engine.db")

	store, err := semantic.Open(dbPath)
	if err != nil {
		fatal("embedding store: %v", err)
	}
	defer store.Close()

	db, err := repo.Open(dbPath)
	if err != nil {
		fatal("repo db: %v", err)
	}
	defer db.Close()

	cvs, err := repo.NewSQLite(db, "cvs",
		func(cv domain.CV) string { return cv.ID },
		func(cv domain.CV, id string) domain.CV { cv.ID = id; return cv })
	if err != nil {
		fatal("cvs repo: %v", err)
	}
	jobs, err := repo.NewSQLite(db, "jobs",
		func(j domain.Job) string { return j.ID },
		func(j domain.Job, id string) domain.Job { j.ID = id; return j })
	if err != nil {
		fatal("jobs repo: %v", err)
	}

	llmClient := llm.New(llm.Config{
		APIKey:         envOr("OPENAI_API_KEY", ""),
		BaseURL:        envOr("OPENAI_BASE_URL", ""),
		EmbeddingModel: envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:      envOr("CHAT_MODEL", "gpt-4o-mini"),
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

	var types []domain.SourceType
	switch sourceType {
	case "":
		types = []domain.SourceType{domain.SourceCV, domain.SourceJob}
	default:
		st, err := domain.ParseSourceType(sourceType)
		if err != nil {
			fatal("%v", err)
		}
		types = []domain.SourceType{st}
	}

	for _, st := range types {
		report, err := indexer.IndexAll(ctx, st)
		if err != nil {
			fatal("index all %s: %v", st, err)
		}
		printReport(st, report)
	}
}

func printReport(st domain.SourceType, rep ingest.Report) {
	fmt.Printf("== %s ==\n", st)
	fmt.Printf("total=%d ok=%d fail=%d indexed=%d deleted=%d\n",
		rep.Total, rep.OK, rep.Fail, rep.TotalIndexed, rep.TotalDeletedChunks)
	for _, d := range rep.Details {
		line := fmt.Sprintf("  %-36s %-18s indexed=%-3d deleted=%d", d.SourceID, d.Status, d.Indexed, d.DeletedChunks)
		if d.Name != "" {
			line += "  " + d.Name
		}
		if d.Error != "" {
			line += "  error=" + d.Error
		}
		fmt.Println(line)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
