package match

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/profile"
	"github.com/connectjob/engine/engine/retrieve"
	"github.com/connectjob/engine/engine/semantic"
	"github.com/connectjob/engine/pkg/repo"
)

// Store is the slice of the embedding store the matcher reads, plus the
// single write path for lazily materialized pivot documents.
type Store interface {
	Doc(ctx context.Context, st domain.SourceType, id string) (*semantic.Record, error)
	Docs(ctx context.Context, st domain.SourceType) ([]semantic.Record, error)
	Chunks(ctx context.Context, st domain.SourceType, id string) ([]semantic.Record, error)
	Upsert(ctx context.Context, rec semantic.Record) error
}

// Embedder embeds pivot text when no doc-level vector is stored yet.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TextNormalizer translates pivot text before embedding.
type TextNormalizer interface {
	Normalize(ctx context.Context, text string) (string, bool)
}

// Deps wires the matcher to its collaborators.
type Deps struct {
	CVs        repo.Repository[domain.CV, string]
	Jobs       repo.Repository[domain.Job, string]
	Store      Store
	Embedder   Embedder
	Normalizer TextNormalizer
	Logger     *slog.Logger
}

// Matcher ranks candidates of one source type against a pivot entity of
// the other, and scores chunk pairs for a single job/CV couple.
type Matcher struct {
	deps Deps
	log  *slog.Logger
}

func New(deps Deps) *Matcher {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Matcher{deps: deps, log: log}
}

// PageOpts controls truncation and pagination of set-match results.
// TopK, if positive, trims the sorted list before pagination.
type PageOpts struct {
	TopK  int
	Page  int
	Limit int
}

func (p PageOpts) normalized() PageOpts {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Match is one scored candidate. Scores are rounded percentages.
type Match struct {
	SourceID    string `json:"source_id"`
	Name        string `json:"name,omitempty"`
	Company     string `json:"company,omitempty"`
	Score       int    `json:"score"`
	Semantic    int    `json:"semantic"`
	SkillsScore int    `json:"skills_score"`
	NonSemantic int    `json:"non_semantic"`
	TextPreview string `json:"text_preview,omitempty"`
}

// SetResult is one page of ranked candidates for a pivot entity.
type SetResult struct {
	PivotID    string  `json:"pivot_id"`
	PivotName  string  `json:"pivot_name,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalItems int     `json:"total_items"`
	TotalPages int     `json:"total_pages"`
	Returned   int     `json:"returned"`
	Matches    []Match `json:"matches"`
}

// MatchCVsForJob ranks every indexed CV against one job.
func (m *Matcher) MatchCVsForJob(ctx context.Context, jobID string, opts PageOpts) (SetResult, error) {
	job, err := m.deps.Jobs.Get(ctx, jobID)
	if err != nil {
		return SetResult{}, &domain.NotFoundError{SourceType: domain.SourceJob, ID: jobID}
	}
	pivot, err := m.ensureJobDoc(ctx, job)
	if err != nil {
		return SetResult{}, err
	}
	res, err := m.matchSet(ctx, pivot, domain.SourceCV, CVsForJob, opts)
	if err != nil {
		return SetResult{}, err
	}
	res.PivotID = jobID
	res.PivotName = job.Title
	return res, nil
}

// MatchJobsForCV ranks every indexed job against one CV.
func (m *Matcher) MatchJobsForCV(ctx context.Context, cvID string, opts PageOpts) (SetResult, error) {
	cv, err := m.deps.CVs.Get(ctx, cvID)
	if err != nil {
		return SetResult{}, &domain.NotFoundError{SourceType: domain.SourceCV, ID: cvID}
	}
	pivot, err := m.ensureCVDoc(ctx, cv)
	if err != nil {
		return SetResult{}, err
	}
	res, err := m.matchSet(ctx, pivot, domain.SourceJob, JobsForCV, opts)
	if err != nil {
		return SetResult{}, err
	}
	res.PivotID = cvID
	res.PivotName = cv.FullName
	return res, nil
}

// matchSet scores every doc-level candidate of candidateType against the
// pivot record, drops candidates below the thresholds, sorts, and pages.
func (m *Matcher) matchSet(ctx context.Context, pivot *semantic.Record, candidateType domain.SourceType, w Weights, opts PageOpts) (SetResult, error) {
	opts = opts.normalized()

	candidates, err := m.deps.Store.Docs(ctx, candidateType)
	if err != nil {
		return SetResult{}, err
	}

	pivotMeta := pivot.Metadata
	pivotSkills := pivotMeta.Skills()

	var scored []Match
	for _, cand := range candidates {
		if len(cand.Vector) == 0 {
			continue
		}
		sem := clamp01(retrieve.Normalized(pivot.Vector, cand.Vector))

		skills := skillsScore(pivotSkills, cand.Metadata.Skills())

		// Experience always compares the job's requirement to the CV's
		// accumulated years, regardless of direction.
		var required, candidateYears int
		if candidateType == domain.SourceCV {
			required = jobYears(pivotMeta)
			candidateYears = cvYears(cand.Metadata)
		} else {
			required = jobYears(cand.Metadata)
			candidateYears = cvYears(pivotMeta)
		}
		exp := experienceScore(required, candidateYears)

		sen := seniorityScore(pivotMeta.SeniorityKey(), cand.Metadata.SeniorityKey())
		loc := locationScore(pivotMeta.Location(), cand.Metadata.Location())

		nonSem := DefaultNonSemantic.Skills*skills +
			DefaultNonSemantic.Experience*exp +
			DefaultNonSemantic.Seniority*sen +
			DefaultNonSemantic.Location*loc
		final := w.Semantic*sem + w.NonSemantic*nonSem

		if sem < w.MinSemantic || final < w.MinFinal {
			continue
		}
		if len(pivotSkills) > 0 && skills < w.MinSkill {
			continue
		}

		scored = append(scored, Match{
			SourceID:    cand.SourceID,
			Name:        candidateName(cand.Metadata),
			Company:     candidateCompany(cand.Metadata),
			Score:       percent(final),
			Semantic:    percent(sem),
			SkillsScore: percent(skills),
			NonSemantic: percent(nonSem),
			TextPreview: cand.Metadata.TextPreview,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if opts.TopK > 0 && len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}

	totalItems := len(scored)
	totalPages := (totalItems + opts.Limit - 1) / opts.Limit
	start := (opts.Page - 1) * opts.Limit
	if start > totalItems {
		start = totalItems
	}
	end := start + opts.Limit
	if end > totalItems {
		end = totalItems
	}

	return SetResult{
		Page:       opts.Page,
		Limit:      opts.Limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
		Returned:   end - start,
		Matches:    scored[start:end],
	}, nil
}

// ensureJobDoc returns the job's doc-level record, materializing and
// persisting it when missing.
func (m *Matcher) ensureJobDoc(ctx context.Context, job domain.Job) (*semantic.Record, error) {
	rec, err := m.deps.Store.Doc(ctx, domain.SourceJob, job.ID)
	if err != nil {
		return nil, err
	}
	if rec != nil && len(rec.Vector) > 0 {
		return rec, nil
	}
	meta := profile.DeriveJobMeta(job)
	return m.materializeDoc(ctx, domain.SourceJob, job.ID,
		profile.BuildJobText(job), semantic.Metadata{SourceType: domain.SourceJob, Job: &meta})
}

// ensureCVDoc returns the CV's doc-level record, materializing and
// persisting it when missing.
func (m *Matcher) ensureCVDoc(ctx context.Context, cv domain.CV) (*semantic.Record, error) {
	rec, err := m.deps.Store.Doc(ctx, domain.SourceCV, cv.ID)
	if err != nil {
		return nil, err
	}
	if rec != nil && len(rec.Vector) > 0 {
		return rec, nil
	}
	meta := profile.DeriveCVMeta(cv)
	return m.materializeDoc(ctx, domain.SourceCV, cv.ID,
		profile.BuildCVText(cv), semantic.Metadata{SourceType: domain.SourceCV, CV: &meta})
}

func (m *Matcher) materializeDoc(ctx context.Context, st domain.SourceType, id, text string, meta semantic.Metadata) (*semantic.Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoContent
	}
	if m.deps.Normalizer != nil {
		var translated bool
		text, translated = m.deps.Normalizer.Normalize(ctx, text)
		meta.Translated = translated
	}
	vec, err := m.deps.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	meta.DocLevel = true
	if len(text) > 200 {
		meta.TextPreview = text[:200]
	} else {
		meta.TextPreview = text
	}
	stored := text
	if len(stored) > 2000 {
		stored = stored[:2000]
	}
	rec := semantic.Record{
		SourceType: st,
		SourceID:   id,
		ChunkIndex: semantic.DocChunkIndex,
		Text:       stored,
		Vector:     vec,
		Metadata:   meta,
	}
	if err := m.deps.Store.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	m.log.Info("materialized doc-level embedding for match",
		"source_type", st, "source_id", id)
	return &rec, nil
}

func candidateName(meta semantic.Metadata) string {
	switch {
	case meta.CV != nil:
		return meta.CV.FullName
	case meta.Job != nil:
		return meta.Job.Title
	}
	return ""
}

func candidateCompany(meta semantic.Metadata) string {
	if meta.Job != nil {
		return meta.Job.Company
	}
	return ""
}

func jobYears(meta semantic.Metadata) int {
	if meta.Job != nil {
		return meta.Job.ExperienceYears
	}
	return 0
}

func cvYears(meta semantic.Metadata) int {
	if meta.CV != nil {
		return meta.CV.Years
	}
	return 0
}
