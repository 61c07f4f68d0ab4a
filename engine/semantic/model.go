package semantic

import (
	"fmt"

	"github.com/connectjob/engine/engine/domain"
)

// DocChunkIndex marks the whole-document embedding record.
const DocChunkIndex = -1

// LocationMeta is the normalized location stored alongside an embedding.
type LocationMeta struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Remote  bool   `json:"remote,omitempty"`
}

// IsZero reports whether no location data is present at all.
func (l LocationMeta) IsZero() bool {
	return l.City == "" && l.Country == "" && !l.Remote
}

// CVMeta carries the precomputed matching features of a CV.
type CVMeta struct {
	FullName     string       `json:"fullname,omitempty"`
	Skills       []string     `json:"skills,omitempty"` // normalized, lowercase
	Years        int          `json:"years,omitempty"`  // summed experience years
	SeniorityKey string       `json:"seniority_key,omitempty"`
	Location     LocationMeta `json:"location,omitempty"`
}

// JobMeta carries the precomputed matching features of a Job.
type JobMeta struct {
	Title           string       `json:"title,omitempty"`
	Company         string       `json:"company,omitempty"`
	Skills          []string     `json:"skills,omitempty"` // normalized, lowercase
	ExperienceYears int          `json:"experience_years,omitempty"`
	SeniorityKey    string       `json:"seniority_key,omitempty"`
	Location        LocationMeta `json:"location,omitempty"`
}

// Metadata is the tagged per-source metadata of an embedding record.
// Exactly one of CV or Job is set, selected by SourceType.
type Metadata struct {
	SourceType          domain.SourceType `json:"source_type"`
	DocLevel            bool              `json:"doc_level,omitempty"`
	TextPreview         string            `json:"text_preview,omitempty"`
	OriginalLanguage    string            `json:"original_language,omitempty"`
	Translated          bool              `json:"translated,omitempty"`
	OriginalTextPreview string            `json:"original_text_preview,omitempty"`
	CV                  *CVMeta           `json:"cv,omitempty"`
	Job                 *JobMeta          `json:"job,omitempty"`
}

// Validate checks that the variant matches the source type discriminant.
func (m Metadata) Validate() error {
	switch m.SourceType {
	case domain.SourceCV:
		if m.CV == nil || m.Job != nil {
			return fmt.Errorf("semantic: metadata variant mismatch for source type %q", m.SourceType)
		}
	case domain.SourceJob:
		if m.Job == nil || m.CV != nil {
			return fmt.Errorf("semantic: metadata variant mismatch for source type %q", m.SourceType)
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownSourceType, m.SourceType)
	}
	return nil
}

// Skills returns the normalized skill list of whichever variant is set.
func (m Metadata) Skills() []string {
	switch {
	case m.CV != nil:
		return m.CV.Skills
	case m.Job != nil:
		return m.Job.Skills
	}
	return nil
}

// SeniorityKey returns the seniority key of whichever variant is set.
func (m Metadata) SeniorityKey() string {
	switch {
	case m.CV != nil:
		return m.CV.SeniorityKey
	case m.Job != nil:
		return m.Job.SeniorityKey
	}
	return ""
}

// Location returns the normalized location of whichever variant is set.
func (m Metadata) Location() LocationMeta {
	switch {
	case m.CV != nil:
		return m.CV.Location
	case m.Job != nil:
		return m.Job.Location
	}
	return LocationMeta{}
}

// Record is one stored embedding, uniquely keyed by
// (SourceType, SourceID, ChunkIndex). ChunkIndex -1 is the whole document.
type Record struct {
	SourceType domain.SourceType `json:"source_type"`
	SourceID   string            `json:"source_id"`
	ChunkIndex int               `json:"chunk_index"`
	Text       string            `json:"text"`
	Vector     []float32         `json:"vector"`
	Metadata   Metadata          `json:"metadata"`
}
