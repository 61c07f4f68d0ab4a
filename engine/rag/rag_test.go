package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/connectjob/engine/engine/retrieve"
)

type stubRetriever struct {
	hits []retrieve.Hit
	err  error
	topK int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string, topK int) ([]retrieve.Hit, error) {
	s.topK = topK
	return s.hits, s.err
}

type stubCompleter struct {
	out    string
	err    error
	system string
	user   string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string, _ int) (string, error) {
	s.system, s.user = system, user
	return s.out, s.err
}

func TestAnswerBuildsCitedContexts(t *testing.T) {
	ret := &stubRetriever{hits: []retrieve.Hit{
		{Score: 0.9, SourceID: "c1", ChunkIndex: 0, Text: "ten years of Go"},
		{Score: 0.8, SourceID: "c2", ChunkIndex: 3, Text: "leads a platform team"},
	}}
	comp := &stubCompleter{out: "Candidate c1 fits best [1]."}
	svc := NewService(ret, comp, slog.Default())

	ans, err := svc.Answer(context.Background(), "who knows Go?", 2)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if ans.Text != "Candidate c1 fits best [1]." {
		t.Errorf("text: %q", ans.Text)
	}
	if ret.topK != 2 {
		t.Errorf("topK passed through: %d", ret.topK)
	}

	for _, want := range []string{
		"Question: who knows Go?",
		"[[1] cv:c1#chunk0] ten years of Go",
		"[[2] cv:c2#chunk3] leads a platform team",
	} {
		if !strings.Contains(comp.user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, comp.user)
		}
	}
	if !strings.Contains(comp.system, "ONLY the provided context") {
		t.Errorf("system prompt: %q", comp.system)
	}

	if len(ans.Sources) != 2 {
		t.Fatalf("sources: %+v", ans.Sources)
	}
	if ans.Sources[0].Idx != 1 || ans.Sources[0].SourceID != "c1" || ans.Sources[0].Chunk != 0 {
		t.Errorf("source 1: %+v", ans.Sources[0])
	}
	if ans.Sources[1].Idx != 2 || ans.Sources[1].Chunk != 3 {
		t.Errorf("source 2: %+v", ans.Sources[1])
	}
}

func TestAnswerNoContexts(t *testing.T) {
	comp := &stubCompleter{out: "I don't have enough information."}
	svc := NewService(&stubRetriever{}, comp, slog.Default())

	ans, err := svc.Answer(context.Background(), "anything?", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("sources from empty retrieval: %+v", ans.Sources)
	}
	if ans.Text == "" {
		t.Error("empty answer")
	}
}

func TestAnswerPropagatesErrors(t *testing.T) {
	retErr := errors.New("store down")
	svc := NewService(&stubRetriever{err: retErr}, &stubCompleter{}, slog.Default())
	if _, err := svc.Answer(context.Background(), "q", 5); !errors.Is(err, retErr) {
		t.Fatalf("retriever error not surfaced: %v", err)
	}

	compErr := errors.New("model down")
	svc = NewService(&stubRetriever{hits: []retrieve.Hit{{SourceID: "c1"}}},
		&stubCompleter{err: compErr}, slog.Default())
	if _, err := svc.Answer(context.Background(), "q", 5); !errors.Is(err, compErr) {
		t.Fatalf("completer error not surfaced: %v", err)
	}
}
