package match

import (
	"context"
	"sort"
	"strings"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/retrieve"
	"github.com/connectjob/engine/engine/semantic"
)

// Pair is one scored job-chunk/CV-chunk combination.
type Pair struct {
	JobChunkIndex int     `json:"job_chunk_index"`
	CVChunkIndex  int     `json:"cv_chunk_index"`
	Semantic      int     `json:"semantic"`
	SkillScore    int     `json:"skill_score"`
	FinalScore    float64 `json:"final_score_decimal"`
	Score         int     `json:"score"`
	JobText       string  `json:"job_text"`
	CVText        string  `json:"cv_text"`
}

// PairResult holds every chunk pair plus the best pair score as the
// overall job/CV compatibility.
type PairResult struct {
	JobID               string  `json:"job_id"`
	CVID                string  `json:"cv_id"`
	TotalPairs          int     `json:"total_pairs"`
	AllPairs            []Pair  `json:"all_pairs"`
	OverallScoreDecimal float64 `json:"overall_score_decimal"`
	OverallScore        int     `json:"overall_score"`
}

// MatchPairChunks scores the full Cartesian product of job and CV chunks.
// Nothing is filtered; opts travel with the request for downstream
// evaluation but never drop pairs. Pairs come back sorted by score.
func (m *Matcher) MatchPairChunks(ctx context.Context, jobID, cvID string, opts PairOpts) (PairResult, error) {
	res := PairResult{JobID: jobID, CVID: cvID}

	jobChunks, err := m.deps.Store.Chunks(ctx, domain.SourceJob, jobID)
	if err != nil {
		return res, err
	}
	cvChunks, err := m.deps.Store.Chunks(ctx, domain.SourceCV, cvID)
	if err != nil {
		return res, err
	}
	if len(jobChunks) == 0 || len(cvChunks) == 0 {
		return res, nil
	}

	jobSkills := m.docSkills(ctx, domain.SourceJob, jobID)
	jobSkillSet := make(map[string]struct{}, len(jobSkills))
	for _, s := range jobSkills {
		jobSkillSet[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	cvDocSkills := m.docSkills(ctx, domain.SourceCV, cvID)

	for _, jc := range jobChunks {
		if len(jc.Vector) == 0 {
			continue
		}
		for _, cc := range cvChunks {
			if len(cc.Vector) == 0 {
				continue
			}
			sem := retrieve.Normalized(jc.Vector, cc.Vector)

			cvSkills := cc.Metadata.Skills()
			if len(cvSkills) == 0 {
				cvSkills = cvDocSkills
			}
			skill := 0.0
			if len(jobSkills) > 0 && len(cvSkills) > 0 {
				matched := 0
				for _, s := range cvSkills {
					if _, ok := jobSkillSet[strings.ToLower(strings.TrimSpace(s))]; ok {
						matched++
					}
				}
				skill = clamp01(float64(matched) / float64(len(jobSkills)))
			}

			final := sem
			if len(jobSkills) > 0 {
				final = DefaultChunkWeights.Semantic*sem + DefaultChunkWeights.Skill*skill
			}

			res.AllPairs = append(res.AllPairs, Pair{
				JobChunkIndex: jc.ChunkIndex,
				CVChunkIndex:  cc.ChunkIndex,
				Semantic:      percent(sem),
				SkillScore:    percent(skill),
				FinalScore:    final,
				Score:         percent(final),
				JobText:       chunkText(jc),
				CVText:        chunkText(cc),
			})
			if final > res.OverallScoreDecimal {
				res.OverallScoreDecimal = final
			}
		}
	}

	sort.SliceStable(res.AllPairs, func(i, j int) bool {
		return res.AllPairs[i].FinalScore > res.AllPairs[j].FinalScore
	})
	res.TotalPairs = len(res.AllPairs)
	res.OverallScore = percent(res.OverallScoreDecimal)
	return res, nil
}

// docSkills reads the normalized skill list off the doc-level record, if
// one exists. Missing records just mean no skill signal.
func (m *Matcher) docSkills(ctx context.Context, st domain.SourceType, id string) []string {
	rec, err := m.deps.Store.Doc(ctx, st, id)
	if err != nil || rec == nil {
		return nil
	}
	return rec.Metadata.Skills()
}

func chunkText(rec semantic.Record) string {
	if rec.Text != "" {
		return rec.Text
	}
	return rec.Metadata.TextPreview
}
