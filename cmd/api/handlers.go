package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nats-io/nats.go"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/ingest"
	"github.com/connectjob/engine/engine/match"
	"github.com/connectjob/engine/engine/rag"
	"github.com/connectjob/engine/engine/retrieve"
	"github.com/connectjob/engine/pkg/natsutil"
	"github.com/connectjob/engine/pkg/repo"
)

type apiServer struct {
	cvs      repo.Repository[domain.CV, string]
	jobs     repo.Repository[domain.Job, string]
	indexer  *ingest.Indexer
	retrieve *retrieve.Engine
	matcher  *match.Matcher
	answerer *rag.Service
	nats     *nats.Conn
	log      *slog.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, domain.ErrUnknownSourceType) || errors.Is(err, domain.ErrNoContent) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// triggerIndex requests indexing of a freshly written entity. With NATS
// configured the worker picks it up; otherwise it runs in-process. Either
// way the write request does not wait, and the outcome is logged.
func (s *apiServer) triggerIndex(st domain.SourceType, id string) {
	req := ingest.IndexRequest{SourceType: st, SourceID: id}
	if s.nats != nil {
		if err := natsutil.Publish(context.Background(), s.nats, ingest.IndexSubject, req); err != nil {
			s.log.Error("index trigger publish failed",
				"source_type", st, "source_id", id, "error", err)
		}
		return
	}
	go func() {
		res, err := s.indexer.IndexEntity(context.Background(), st, id)
		outcome := ingest.OutcomeOf(st, id, res, err)
		if err != nil {
			s.log.Error("background index failed",
				"source_type", st, "source_id", id, "error", err)
			return
		}
		s.log.Info("background index finished",
			"source_type", st, "source_id", id,
			"status", outcome.Status, "indexed", outcome.Indexed)
	}()
}

func (s *apiServer) handleCreateCV(w http.ResponseWriter, r *http.Request) {
	var cv domain.CV
	if err := json.NewDecoder(r.Body).Decode(&cv); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := s.cvs.Create(r.Context(), cv)
	if err != nil {
		s.log.Error("create cv failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	s.triggerIndex(domain.SourceCV, created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *apiServer) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var job domain.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if job.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	created, err := s.jobs.Create(r.Context(), job)
	if err != nil {
		s.log.Error("create job failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}
	s.triggerIndex(domain.SourceJob, created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *apiServer) handleIndexOne(w http.ResponseWriter, r *http.Request) {
	st, err := domain.ParseSourceType(r.PathValue("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.indexer.IndexEntity(r.Context(), st, r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleIndexAll(w http.ResponseWriter, r *http.Request) {
	st, err := domain.ParseSourceType(r.PathValue("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.indexer.IndexAll(r.Context(), st)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// RetrieveRequest is the JSON body for POST /api/retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

func (s *apiServer) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hits, err := s.retrieve.Retrieve(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.log.Error("retrieve failed", "error", err)
		writeError(w, statusFor(err), "retrieval failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}

func pageOpts(r *http.Request) match.PageOpts {
	return match.PageOpts{
		TopK:  queryInt(r, "top_k"),
		Page:  queryInt(r, "page"),
		Limit: queryInt(r, "limit"),
	}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func (s *apiServer) handleMatchJob(w http.ResponseWriter, r *http.Request) {
	res, err := s.matcher.MatchCVsForJob(r.Context(), r.PathValue("id"), pageOpts(r))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleMatchCV(w http.ResponseWriter, r *http.Request) {
	res, err := s.matcher.MatchJobsForCV(r.Context(), r.PathValue("id"), pageOpts(r))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleMatchPair(w http.ResponseWriter, r *http.Request) {
	res, err := s.matcher.MatchPairChunks(r.Context(),
		r.PathValue("jobId"), r.PathValue("cvId"), match.PairOpts{TopK: queryInt(r, "top_k")})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AskRequest is the JSON body for POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

func (s *apiServer) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}
	answer, err := s.answerer.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		s.log.Error("answer failed", "error", err)
		writeError(w, http.StatusInternalServerError, "answer failed")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}
