// Package rag answers free-text questions over the indexed CV corpus by
// grounding a chat completion in retrieved chunk passages.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/connectjob/engine/engine/retrieve"
)

const answerSystemPrompt = `You are ConnectJob assistant. Use ONLY the provided context passages to answer. If the answer is not clearly present, say you don't have enough information. Be concise. Cite sources as [cv:<sourceId>#chunk<n>].`

const answerMaxTokens = 600

// Retriever supplies the context passages.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieve.Hit, error)
}

// Completer produces the grounded answer.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Source points a citation index back at the passage it came from.
type Source struct {
	Idx      int     `json:"idx"`
	SourceID string  `json:"source_id"`
	Chunk    int     `json:"chunk"`
	Score    float64 `json:"score"`
}

// Answer is a grounded response with its supporting passages.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Service wires retrieval and completion into question answering.
type Service struct {
	retriever Retriever
	completer Completer
	log       *slog.Logger
}

func NewService(retriever Retriever, completer Completer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{retriever: retriever, completer: completer, log: log}
}

// Answer retrieves the topK most relevant CV passages and asks the chat
// model to answer using only those.
func (s *Service) Answer(ctx context.Context, question string, topK int) (Answer, error) {
	contexts, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return Answer{}, err
	}

	var b strings.Builder
	for i, c := range contexts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[[%d] cv:%s#chunk%d] %s", i+1, c.SourceID, c.ChunkIndex, c.Text)
	}
	user := fmt.Sprintf(
		"Question: %s\n\nContexts:\n%s\n\nAnswer concisely and cite like [1], [2] mapped to the contexts above.",
		question, b.String())

	text, err := s.completer.Complete(ctx, answerSystemPrompt, user, answerMaxTokens)
	if err != nil {
		return Answer{}, err
	}

	sources := make([]Source, 0, len(contexts))
	for i, c := range contexts {
		sources = append(sources, Source{
			Idx:      i + 1,
			SourceID: c.SourceID,
			Chunk:    c.ChunkIndex,
			Score:    c.Score,
		})
	}
	s.log.Info("answered question", "contexts", len(contexts), "answer_len", len(text))
	return Answer{Text: text, Sources: sources}, nil
}
