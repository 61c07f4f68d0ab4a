// Package semantic owns the embedding store: a SQLite table mapping
// (source_type, source_id, chunk_index) to text, vector, and metadata.
// Writes are per-record upserts; there are no multi-key transactions.
package semantic

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/connectjob/engine/engine/domain"
	_ "modernc.org/sqlite" // SQLite driver
)

// Store is the sole owner of all embedding persistence operations.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the embedding store at the given path.
// Pass ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("semantic: open %s: %w", path, err)
	}
	// One connection: writes are serialized anyway, and :memory: databases
	// exist per connection.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS embeddings (
			source_type TEXT    NOT NULL,
			source_id   TEXT    NOT NULL,
			chunk_index INTEGER NOT NULL,
			text        TEXT    NOT NULL DEFAULT '',
			vector      BLOB    NOT NULL,
			metadata    TEXT    NOT NULL DEFAULT '{}',
			updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (source_type, source_id, chunk_index)
		)`)
	if err != nil {
		return fmt.Errorf("semantic: migrate: %w", err)
	}
	return nil
}

// Upsert creates or overwrites the record at its key. The metadata variant
// is validated against the source type before anything is written.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	if err := rec.Metadata.Validate(); err != nil {
		return err
	}
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("semantic: marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO embeddings (source_type, source_id, chunk_index, text, vector, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(source_type, source_id, chunk_index) DO UPDATE SET
			text = excluded.text,
			vector = excluded.vector,
			metadata = excluded.metadata,
			updated_at = CURRENT_TIMESTAMP`,
		string(rec.SourceType), rec.SourceID, rec.ChunkIndex,
		rec.Text, float32SliceToBytes(rec.Vector), string(meta))
	if err != nil {
		return fmt.Errorf("semantic: upsert %s/%s/%d: %w", rec.SourceType, rec.SourceID, rec.ChunkIndex, err)
	}
	return nil
}

// DeleteSource removes every record (doc- and chunk-level) for one entity.
// Returns the number of deleted records.
func (s *Store) DeleteSource(ctx context.Context, st domain.SourceType, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE source_type = ? AND source_id = ?`, string(st), id)
	if err != nil {
		return 0, fmt.Errorf("semantic: delete source %s/%s: %w", st, id, err)
	}
	return res.RowsAffected()
}

// DeleteChunksFrom removes chunk records with chunk_index >= minIndex for one
// entity. DeleteChunksFrom(ctx, st, id, 0) removes all chunk-level records
// while leaving the doc-level record intact.
func (s *Store) DeleteChunksFrom(ctx context.Context, st domain.SourceType, id string, minIndex int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE source_type = ? AND source_id = ? AND chunk_index >= ?`,
		string(st), id, minIndex)
	if err != nil {
		return 0, fmt.Errorf("semantic: delete chunks %s/%s >= %d: %w", st, id, minIndex, err)
	}
	return res.RowsAffected()
}

// Doc returns the doc-level record (chunk_index = -1), or nil if absent.
func (s *Store) Doc(ctx context.Context, st domain.SourceType, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_type, source_id, chunk_index, text, vector, metadata
		FROM embeddings
		WHERE source_type = ? AND source_id = ? AND chunk_index = ?`,
		string(st), id, DocChunkIndex)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("semantic: doc %s/%s: %w", st, id, err)
	}
	return &rec, nil
}

// Chunks returns all chunk-level records for one entity, ordered by index.
func (s *Store) Chunks(ctx context.Context, st domain.SourceType, id string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_type, source_id, chunk_index, text, vector, metadata
		FROM embeddings
		WHERE source_type = ? AND source_id = ? AND chunk_index >= 0
		ORDER BY chunk_index`, string(st), id)
	if err != nil {
		return nil, fmt.Errorf("semantic: chunks %s/%s: %w", st, id, err)
	}
	return collectRecords(rows)
}

// ScanChunks returns up to limit chunk-level records of one source type,
// for exhaustive similarity scans.
func (s *Store) ScanChunks(ctx context.Context, st domain.SourceType, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_type, source_id, chunk_index, text, vector, metadata
		FROM embeddings
		WHERE source_type = ? AND chunk_index >= 0
		LIMIT ?`, string(st), limit)
	if err != nil {
		return nil, fmt.Errorf("semantic: scan chunks %s: %w", st, err)
	}
	return collectRecords(rows)
}

// Docs returns all doc-level records of one source type.
func (s *Store) Docs(ctx context.Context, st domain.SourceType) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_type, source_id, chunk_index, text, vector, metadata
		FROM embeddings
		WHERE source_type = ? AND chunk_index = ?`, string(st), DocChunkIndex)
	if err != nil {
		return nil, fmt.Errorf("semantic: scan docs %s: %w", st, err)
	}
	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var vector []byte
	var meta string
	if err := row.Scan(&rec.SourceType, &rec.SourceID, &rec.ChunkIndex, &rec.Text, &vector, &meta); err != nil {
		return Record{}, err
	}
	rec.Vector = bytesToFloat32Slice(vector)
	if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
		return Record{}, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("semantic: scan row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// float32SliceToBytes encodes a vector as little-endian float32 bits.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a little-endian float32 vector.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
