package ingest

import (
	"context"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/pkg/repo"
)

// Per-entity outcomes of a batch reindex.
const (
	StatusIndexed          = "indexed"
	StatusEmpty            = "empty"
	StatusAllChunksDeleted = "all_chunks_deleted"
	StatusNoChunksIndexed  = "no_chunks_indexed"
	StatusDeletedOnly      = "deleted_only"
	StatusFailed           = "failed"
)

// Detail is one entity's line in a batch report.
type Detail struct {
	SourceID      string `json:"source_id"`
	Name          string `json:"name,omitempty"`
	Status        string `json:"status"`
	Indexed       int    `json:"indexed"`
	DeletedChunks int64  `json:"deleted_chunks"`
	Error         string `json:"error,omitempty"`
}

// Report summarizes a full reindex of one source type.
type Report struct {
	Total              int      `json:"total"`
	OK                 int      `json:"ok"`
	Fail               int      `json:"fail"`
	TotalIndexed       int      `json:"total_indexed"`
	TotalDeletedChunks int64    `json:"total_deleted_chunks"`
	Details            []Detail `json:"details"`
}

// statusOf maps an index result to its report status.
func statusOf(res Result) string {
	switch {
	case res.Empty:
		return StatusEmpty
	case res.Reason != "":
		return res.Reason
	case res.Indexed == 0 && res.DeletedChunks > 0:
		return StatusDeletedOnly
	case res.Indexed == 0:
		return StatusNoChunksIndexed
	}
	return StatusIndexed
}

// IndexAll reindexes every entity of one source type, sequentially, and
// returns a per-entity report. Individual failures are recorded, never
// propagated.
func (ix *Indexer) IndexAll(ctx context.Context, st domain.SourceType) (Report, error) {
	type entity struct {
		id   string
		name string
	}
	var entities []entity
	switch st {
	case domain.SourceCV:
		cvs, err := ix.deps.CVs.List(ctx, repo.ListOpts{})
		if err != nil {
			return Report{}, err
		}
		for _, cv := range cvs {
			entities = append(entities, entity{id: cv.ID, name: cv.FullName})
		}
	case domain.SourceJob:
		jobs, err := ix.deps.Jobs.List(ctx, repo.ListOpts{})
		if err != nil {
			return Report{}, err
		}
		for _, j := range jobs {
			entities = append(entities, entity{id: j.ID, name: j.Title})
		}
	default:
		return Report{}, domain.ErrUnknownSourceType
	}

	rep := Report{Total: len(entities)}
	for _, e := range entities {
		res, err := ix.IndexEntity(ctx, st, e.id)
		if err != nil {
			rep.Fail++
			rep.Details = append(rep.Details, Detail{
				SourceID: e.id, Name: e.name,
				Status: StatusFailed, Error: err.Error(),
			})
			ix.log.Error("batch index entity failed",
				"source_type", st, "source_id", e.id, "error", err)
			continue
		}
		rep.OK++
		rep.TotalIndexed += res.Indexed
		rep.TotalDeletedChunks += res.DeletedChunks
		rep.Details = append(rep.Details, Detail{
			SourceID: e.id, Name: e.name,
			Status:        statusOf(res),
			Indexed:       res.Indexed,
			DeletedChunks: res.DeletedChunks,
		})
	}
	return rep, nil
}
