// Package match ranks CVs against Jobs (and vice versa) by combining
// document-level semantic similarity with precomputed metadata features,
// and scores individual chunk pairs for one job/CV couple.
package match

// MaxPageLimit caps the per-page size of set-match results.
const MaxPageLimit = 10

// NonSemanticWeights blends the metadata features into one score.
type NonSemanticWeights struct {
	Skills     float64
	Experience float64
	Seniority  float64
	Location   float64
}

// DefaultNonSemantic is shared by both match directions.
var DefaultNonSemantic = NonSemanticWeights{
	Skills:     0.6,
	Experience: 0.2,
	Seniority:  0.1,
	Location:   0.1,
}

// Weights combines semantic and non-semantic components and carries the
// drop thresholds for one match direction.
type Weights struct {
	Semantic    float64
	NonSemantic float64

	MinSemantic float64
	MinFinal    float64
	MinSkill    float64
}

// CVsForJob weighs metadata heavily: employers filter hard on skills.
var CVsForJob = Weights{
	Semantic:    0.5,
	NonSemantic: 0.5,
	MinSemantic: 0.5,
	MinFinal:    0.62,
	MinSkill:    0.4,
}

// JobsForCV leans on semantic fit and keeps the skill bar low, so
// candidates see a broader set of openings.
var JobsForCV = Weights{
	Semantic:    0.7,
	NonSemantic: 0.3,
	MinSemantic: 0.45,
	MinFinal:    0.5,
	MinSkill:    0.2,
}

// ChunkWeights applies when the job lists skills; otherwise chunk pairs
// score on semantic similarity alone.
type ChunkWeights struct {
	Semantic float64
	Skill    float64
}

var DefaultChunkWeights = ChunkWeights{Semantic: 0.7, Skill: 0.3}

// PairOpts are advisory evaluation parameters for chunk-level matching.
// They are carried through to the caller but never drop pairs.
type PairOpts struct {
	TopK                int     `json:"top_k,omitempty"`
	MinScore            float64 `json:"min_score,omitempty"`
	MinSkillScore       float64 `json:"min_skill_score,omitempty"`
	RequireSkillOverlap bool    `json:"require_skill_overlap,omitempty"`
}
