package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/profile"
	"github.com/connectjob/engine/engine/semantic"
	"github.com/connectjob/engine/pkg/metrics"
	"github.com/connectjob/engine/pkg/repo"
)

const (
	docTextLimit = 2000
	previewLimit = 200
)

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TextNormalizer translates text into the embedding language, reporting
// whether a translation happened.
type TextNormalizer interface {
	Normalize(ctx context.Context, text string) (string, bool)
}

// Result describes what one IndexEntity call did.
type Result struct {
	Indexed       int    `json:"indexed"`
	DeletedChunks int64  `json:"deleted_chunks"`
	Empty         bool   `json:"empty,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// Deps wires the indexer to its collaborators.
type Deps struct {
	CVs        repo.Repository[domain.CV, string]
	Jobs       repo.Repository[domain.Job, string]
	Store      *semantic.Store
	Embedder   Embedder
	Normalizer TextNormalizer
	Logger     *slog.Logger
	Metrics    *metrics.Registry
}

// Indexer owns every write to the embedding store. Re-indexing of the same
// entity is serialized per (sourceType, sourceId); different entities
// proceed concurrently.
type Indexer struct {
	deps Deps
	log  *slog.Logger

	indexed  *metrics.Counter
	deleted  *metrics.Counter
	failed   *metrics.Counter
	duration *metrics.Histogram

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIndexer(deps Deps) *Indexer {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	reg := deps.Metrics
	if reg == nil {
		reg = metrics.New()
	}
	return &Indexer{
		deps:    deps,
		log:     log,
		indexed: reg.Counter("index_chunks_indexed_total", "Chunk embeddings written"),
		deleted: reg.Counter("index_chunks_deleted_total", "Stale chunk embeddings removed"),
		failed:  reg.Counter("index_failures_total", "Index operations that returned an error"),
		duration: reg.Histogram("index_entity_duration_seconds", "IndexEntity wall time",
			[]float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}),
		locks: make(map[string]*sync.Mutex),
	}
}

func (ix *Indexer) keyLock(st domain.SourceType, id string) *sync.Mutex {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	key := string(st) + "/" + id
	l, ok := ix.locks[key]
	if !ok {
		l = &sync.Mutex{}
		ix.locks[key] = l
	}
	return l
}

// IndexEntity builds, normalizes, chunks, embeds, and stores one entity.
// Stale chunk records beyond the new chunk count are removed so that the
// stored indices are always exactly 0..N-1.
func (ix *Indexer) IndexEntity(ctx context.Context, st domain.SourceType, id string) (Result, error) {
	lock := ix.keyLock(st, id)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	res, err := ix.indexLocked(ctx, st, id)
	ix.duration.Since(start)
	if err != nil {
		ix.failed.Inc()
		return res, err
	}
	ix.log.Info("indexed entity",
		"source_type", st, "source_id", id,
		"indexed", res.Indexed, "deleted_chunks", res.DeletedChunks,
		"empty", res.Empty, "reason", res.Reason,
		"took", time.Since(start))
	return res, nil
}

func (ix *Indexer) indexLocked(ctx context.Context, st domain.SourceType, id string) (Result, error) {
	fullText, meta, err := ix.load(ctx, st, id)
	if err != nil {
		return Result{}, err
	}

	englishText, translated := fullText, false
	if ix.deps.Normalizer != nil {
		englishText, translated = ix.deps.Normalizer.Normalize(ctx, fullText)
	}
	meta.OriginalLanguage = "en"
	if translated {
		meta.OriginalLanguage = "vi"
		meta.Translated = true
		meta.OriginalTextPreview = truncate(fullText, previewLimit)
	}

	if strings.TrimSpace(englishText) == "" {
		deleted, err := ix.deps.Store.DeleteSource(ctx, st, id)
		if err != nil {
			return Result{}, err
		}
		ix.deleted.Add(deleted)
		ix.log.Warn("entity has no content, removed existing embeddings",
			"source_type", st, "source_id", id, "deleted", deleted)
		return Result{Empty: true, DeletedChunks: deleted}, nil
	}

	ix.writeDocLevel(ctx, st, id, englishText, meta)

	var chunks []string
	for _, c := range ChunkText(englishText, DefaultMaxChunkChars) {
		if strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		deleted, err := ix.deps.Store.DeleteChunksFrom(ctx, st, id, 0)
		if err != nil {
			return Result{}, err
		}
		ix.deleted.Add(deleted)
		return Result{DeletedChunks: deleted, Reason: StatusAllChunksDeleted}, nil
	}

	deleted, err := ix.deps.Store.DeleteChunksFrom(ctx, st, id, len(chunks))
	if err != nil {
		return Result{}, err
	}
	ix.deleted.Add(deleted)

	vecs, err := ix.deps.Embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		ix.log.Error("chunk embedding failed", "source_type", st, "source_id", id, "error", err)
		return Result{DeletedChunks: deleted, Reason: StatusNoChunksIndexed}, nil
	}

	indexed := 0
	for i, text := range chunks {
		if i >= len(vecs) || len(vecs[i]) == 0 {
			ix.log.Warn("empty embedding for chunk, skipping",
				"source_type", st, "source_id", id, "chunk", i)
			continue
		}
		chunkMeta := meta
		chunkMeta.DocLevel = false
		chunkMeta.TextPreview = truncate(text, previewLimit)
		rec := semantic.Record{
			SourceType: st,
			SourceID:   id,
			ChunkIndex: i,
			Text:       text,
			Vector:     vecs[i],
			Metadata:   chunkMeta,
		}
		if err := ix.deps.Store.Upsert(ctx, rec); err != nil {
			ix.log.Error("chunk upsert failed",
				"source_type", st, "source_id", id, "chunk", i, "error", err)
			continue
		}
		indexed++
	}
	ix.indexed.Add(int64(indexed))

	if indexed == 0 {
		return Result{DeletedChunks: deleted, Reason: StatusNoChunksIndexed}, nil
	}
	return Result{Indexed: indexed, DeletedChunks: deleted}, nil
}

// load fetches the entity, builds its text, and derives its metadata variant.
func (ix *Indexer) load(ctx context.Context, st domain.SourceType, id string) (string, semantic.Metadata, error) {
	switch st {
	case domain.SourceCV:
		cv, err := ix.deps.CVs.Get(ctx, id)
		if err != nil {
			return "", semantic.Metadata{}, &domain.NotFoundError{SourceType: st, ID: id}
		}
		cvMeta := profile.DeriveCVMeta(cv)
		return profile.BuildCVText(cv), semantic.Metadata{SourceType: st, CV: &cvMeta}, nil
	case domain.SourceJob:
		job, err := ix.deps.Jobs.Get(ctx, id)
		if err != nil {
			return "", semantic.Metadata{}, &domain.NotFoundError{SourceType: st, ID: id}
		}
		jobMeta := profile.DeriveJobMeta(job)
		return profile.BuildJobText(job), semantic.Metadata{SourceType: st, Job: &jobMeta}, nil
	}
	return "", semantic.Metadata{}, fmt.Errorf("%w: %q", domain.ErrUnknownSourceType, st)
}

// writeDocLevel embeds the full document and upserts the doc-level record.
// Failures are logged, not fatal: chunk indexing still proceeds.
func (ix *Indexer) writeDocLevel(ctx context.Context, st domain.SourceType, id, text string, meta semantic.Metadata) {
	vec, err := ix.deps.Embedder.Embed(ctx, text)
	if err != nil || len(vec) == 0 {
		ix.log.Warn("doc-level embedding failed",
			"source_type", st, "source_id", id, "error", err)
		return
	}
	meta.DocLevel = true
	meta.TextPreview = truncate(text, previewLimit)
	rec := semantic.Record{
		SourceType: st,
		SourceID:   id,
		ChunkIndex: semantic.DocChunkIndex,
		Text:       truncate(text, docTextLimit),
		Vector:     vec,
		Metadata:   meta,
	}
	if err := ix.deps.Store.Upsert(ctx, rec); err != nil {
		ix.log.Warn("doc-level upsert failed",
			"source_type", st, "source_id", id, "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
