package retrieve

import (
	"context"
	"log/slog"
	"sort"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/semantic"
)

// DefaultTopK is used when callers pass a non-positive topK.
const DefaultTopK = 5

// Embedder embeds a free-text query.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkScanner provides the chunk records to scan.
type ChunkScanner interface {
	ScanChunks(ctx context.Context, st domain.SourceType, limit int) ([]semantic.Record, error)
}

// Hit is one scored passage.
type Hit struct {
	Score      float64           `json:"score"` // normalized to [0, 1]
	SourceID   string            `json:"source_id"`
	ChunkIndex int               `json:"chunk_index"`
	Text       string            `json:"text"`
	Metadata   semantic.Metadata `json:"metadata"`
}

// Engine runs similarity retrieval over stored CV chunks.
type Engine struct {
	store    ChunkScanner
	embedder Embedder
	log      *slog.Logger
}

func NewEngine(store ChunkScanner, embedder Embedder, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, embedder: embedder, log: log}
}

// Retrieve embeds the query and returns the topK most similar CV chunks.
// A blank query yields no results rather than an error.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) ([]Hit, error) {
	if query == "" {
		return nil, nil
	}
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, nil
	}
	return e.RetrieveByVector(ctx, vec, topK)
}

// RetrieveByVector scans stored CV chunks against an existing query vector.
func (e *Engine) RetrieveByVector(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if len(vector) == 0 {
		return nil, domain.ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	maxScan := topK * 20
	if maxScan < 2000 {
		maxScan = 2000
	}

	records, err := e.store.ScanChunks(ctx, domain.SourceCV, maxScan)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(records))
	dimWarned := false
	for _, rec := range records {
		if len(rec.Vector) == 0 {
			continue
		}
		if len(rec.Vector) != len(vector) && !dimWarned {
			e.log.Warn("vector dimension mismatch in scan, comparing shared prefix",
				"query_dim", len(vector), "stored_dim", len(rec.Vector),
				"source_id", rec.SourceID, "chunk", rec.ChunkIndex)
			dimWarned = true
		}
		text := rec.Text
		if text == "" {
			text = rec.Metadata.TextPreview
		}
		hits = append(hits, Hit{
			Score:      Normalized(vector, rec.Vector),
			SourceID:   rec.SourceID,
			ChunkIndex: rec.ChunkIndex,
			Text:       text,
			Metadata:   rec.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}
