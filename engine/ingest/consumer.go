package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/pkg/natsutil"
)

const (
	// IndexSubject carries index requests.
	IndexSubject = "engine.index"
	// OutcomeSubject carries the result of every processed request, so
	// fire-and-forget callers can observe success or failure.
	OutcomeSubject = "engine.index.outcome"
	// DLQSubject is the dead letter queue for repeatedly failing requests.
	DLQSubject = "engine.index.dlq"
	// MaxRetries before a request is sent to the DLQ.
	MaxRetries = 3
)

// IndexRequest asks the worker to (re)index one entity.
type IndexRequest struct {
	SourceType domain.SourceType `json:"source_type"`
	SourceID   string            `json:"source_id"`
}

// Outcome reports how one index request ended.
type Outcome struct {
	SourceType domain.SourceType `json:"source_type"`
	SourceID   string            `json:"source_id"`
	Status     string            `json:"status"`
	Indexed    int               `json:"indexed"`
	Error      string            `json:"error,omitempty"`
}

// OutcomeOf folds an index result and error into an Outcome.
func OutcomeOf(st domain.SourceType, id string, res Result, err error) Outcome {
	o := Outcome{SourceType: st, SourceID: id, Indexed: res.Indexed}
	if err != nil {
		o.Status = StatusFailed
		o.Error = err.Error()
		return o
	}
	o.Status = statusOf(res)
	return o
}

type dlqMessage struct {
	Request IndexRequest `json:"request"`
	Error   string       `json:"error"`
	Retries int          `json:"retries"`
}

// StartConsumer subscribes to IndexSubject and feeds requests through the
// indexer with retry and DLQ support. Every processed request publishes an
// Outcome regardless of result.
func StartConsumer(nc *nats.Conn, ix *Indexer, log *slog.Logger) (*nats.Subscription, error) {
	if log == nil {
		log = slog.Default()
	}
	return nc.Subscribe(IndexSubject, func(msg *nats.Msg) {
		var req IndexRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Error("index consumer: unmarshal failed", "error", err)
			return
		}
		if _, err := domain.ParseSourceType(string(req.SourceType)); err != nil {
			log.Error("index consumer: bad request", "error", err)
			return
		}

		ctx := context.Background()

		retries := 0
		if msg.Header != nil {
			if v := msg.Header.Get("X-Retry-Count"); v != "" {
				fmt.Sscanf(v, "%d", &retries)
			}
		}

		res, err := ix.IndexEntity(ctx, req.SourceType, req.SourceID)
		if err != nil {
			retries++
			log.Error("index consumer: index failed",
				"source_type", req.SourceType, "source_id", req.SourceID,
				"retry", retries, "error", err)

			if retries >= MaxRetries {
				dlq := dlqMessage{Request: req, Error: err.Error(), Retries: retries}
				data, _ := json.Marshal(dlq)
				if pubErr := nc.Publish(DLQSubject, data); pubErr != nil {
					log.Error("index consumer: DLQ publish failed", "error", pubErr)
				}
			} else {
				retryMsg := nats.NewMsg(IndexSubject)
				retryMsg.Data = msg.Data
				retryMsg.Header = nats.Header{}
				retryMsg.Header.Set("X-Retry-Count", fmt.Sprintf("%d", retries))
				if pubErr := nc.PublishMsg(retryMsg); pubErr != nil {
					log.Error("index consumer: retry publish failed", "error", pubErr)
				}
			}
		}

		outcome := OutcomeOf(req.SourceType, req.SourceID, res, err)
		if pubErr := natsutil.Publish(ctx, nc, OutcomeSubject, outcome); pubErr != nil {
			log.Warn("index consumer: outcome publish failed", "error", pubErr)
		}
	})
}
