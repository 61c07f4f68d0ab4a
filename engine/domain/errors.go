package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the engine.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownSourceType = errors.New("unknown source type")
	ErrEmptyQuery        = errors.New("query vector is empty")
	ErrNoContent         = errors.New("entity has no text to embed")
)

// EmbeddingServiceError is returned after the embedding client has
// exhausted its retries against the external service.
type EmbeddingServiceError struct {
	Attempts int
	Wrapped  error
}

func (e *EmbeddingServiceError) Error() string {
	return fmt.Sprintf("embedding service failed after %d attempts: %v", e.Attempts, e.Wrapped)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Wrapped }

// NotFoundError wraps ErrNotFound with the entity key.
type NotFoundError struct {
	SourceType SourceType
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.SourceType, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
