package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned by Get/Update/Delete when no row matches the id.
var ErrNotFound = errors.New("repo: not found")

// Open opens (or creates) a SQLite database for document repositories.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("repo: open %s: %w", path, err)
	}
	// One connection: writes are serialized anyway, and :memory: databases
	// exist per connection.
	db.SetMaxOpenConns(1)
	return db, nil
}

// SQLite stores entities of one type as JSON documents in a single table,
// keyed by a string id. The id lives inside the document; idOf reads it
// and withID returns a copy carrying a new one.
type SQLite[T any] struct {
	db     *sql.DB
	table  string
	idOf   func(T) string
	withID func(T, string) T
	codec  jsonCodec[T]
}

// NewSQLite creates the backing table if needed and returns the repository.
func NewSQLite[T any](db *sql.DB, table string, idOf func(T) string, withID func(T, string) T) (*SQLite[T], error) {
	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id  TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, table))
	if err != nil {
		return nil, fmt.Errorf("repo: create table %s: %w", table, err)
	}
	return &SQLite[T]{db: db, table: table, idOf: idOf, withID: withID}, nil
}

func (r *SQLite[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var doc string
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s WHERE id = ?`, r.table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, r.table, id)
	}
	if err != nil {
		return zero, fmt.Errorf("repo: get %s/%s: %w", r.table, id, err)
	}
	return r.codec.decode(doc)
}

func (r *SQLite[T]) List(ctx context.Context, opts ListOpts) ([]T, error) {
	q := fmt.Sprintf(`SELECT doc FROM %s ORDER BY id`, r.table)
	args := []any{}
	if opts.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("repo: list %s: %w", r.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("repo: scan %s: %w", r.table, err)
		}
		entity, err := r.codec.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, rows.Err()
}

// Create inserts the entity, assigning a fresh UUID when it has no id.
func (r *SQLite[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	id := r.idOf(entity)
	if id == "" {
		id = uuid.NewString()
		entity = r.withID(entity, id)
	}
	doc, err := r.codec.encode(entity)
	if err != nil {
		return zero, err
	}
	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES (?, ?)`, r.table), id, doc)
	if err != nil {
		return zero, fmt.Errorf("repo: create %s/%s: %w", r.table, id, err)
	}
	return entity, nil
}

func (r *SQLite[T]) Update(ctx context.Context, entity T) (T, error) {
	var zero T
	id := r.idOf(entity)
	doc, err := r.codec.encode(entity)
	if err != nil {
		return zero, err
	}
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, r.table),
		doc, id)
	if err != nil {
		return zero, fmt.Errorf("repo: update %s/%s: %w", r.table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, r.table, id)
	}
	return entity, nil
}

func (r *SQLite[T]) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table), id)
	if err != nil {
		return fmt.Errorf("repo: delete %s/%s: %w", r.table, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, r.table, id)
	}
	return nil
}
