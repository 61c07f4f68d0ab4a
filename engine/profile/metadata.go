package profile

import (
	"regexp"
	"strings"
	"time"

	"github.com/connectjob/engine/engine/domain"
	"github.com/connectjob/engine/engine/semantic"
	"github.com/connectjob/engine/pkg/fn"
)

var (
	reJS       = regexp.MustCompile(`\bjs\b`)
	reNode     = regexp.MustCompile(`\bnode\b`)
	reReactJS  = regexp.MustCompile(`\breactjs\b`)
	reNextJS   = regexp.MustCompile(`\bnextjs\b`)
	reQuotes   = regexp.MustCompile("[\"'`]")
	reDisallow = regexp.MustCompile(`[^a-z0-9.+#\- ]+`)
)

// NormalizeSkill lowercases a skill name and folds common synonyms so that
// "JS" and "javascript" count as the same skill during matching.
func NormalizeSkill(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = reJS.ReplaceAllString(s, "javascript")
	s = reNode.ReplaceAllString(s, "node.js")
	s = reReactJS.ReplaceAllString(s, "react")
	s = reNextJS.ReplaceAllString(s, "next.js")
	s = reQuotes.ReplaceAllString(s, "")
	s = reDisallow.ReplaceAllString(s, "")
	return s
}

// NormalizeSkills maps a skill list through NormalizeSkill, dropping empties
// and duplicates.
func NormalizeSkills(skills []domain.Skill) []string {
	return fn.Unique(fn.FilterMap(skills, func(s domain.Skill) (string, bool) {
		n := NormalizeSkill(s.Name)
		return n, n != ""
	}))
}

// CandidateYears sums the whole-year spans of a CV's work history. Entries
// without a start date contribute nothing; open-ended entries run to now.
func CandidateYears(cv domain.CV, now time.Time) int {
	total := 0
	for _, e := range cv.Experiences {
		if e.From == nil {
			continue
		}
		toYear := now.Year()
		if e.To != nil {
			toYear = e.To.Year()
		}
		if diff := toYear - e.From.Year(); diff > 0 {
			total += diff
		}
	}
	return total
}

// seniorityKeys is ordered; the first key contained in the text wins.
var seniorityKeys = []string{
	"intern", "entry", "junior", "mid", "senior",
	"lead", "manager", "director", "vp", "c",
}

// seniorityRanks maps each key to its level on a single ladder.
var seniorityRanks = map[string]float64{
	"intern":   0,
	"entry":    0.5,
	"junior":   1,
	"mid":      2,
	"senior":   3,
	"lead":     4,
	"manager":  5,
	"director": 6,
	"vp":       7,
	"c":        8,
}

// SeniorityKey extracts the first recognized seniority keyword from free
// text, or "" when none matches.
func SeniorityKey(raw string) string {
	lowered := strings.ToLower(raw)
	for _, k := range seniorityKeys {
		if strings.Contains(lowered, k) {
			return k
		}
	}
	return ""
}

// SeniorityRank returns the ladder rank of a seniority key. The second
// return value is false for unknown keys.
func SeniorityRank(key string) (float64, bool) {
	r, ok := seniorityRanks[strings.TrimSpace(strings.ToLower(key))]
	return r, ok
}

// DeriveCVMeta precomputes the matching features of a CV.
func DeriveCVMeta(cv domain.CV) semantic.CVMeta {
	return semantic.CVMeta{
		FullName:     cv.FullName,
		Skills:       NormalizeSkills(cv.Skills),
		Years:        CandidateYears(cv, time.Now()),
		SeniorityKey: SeniorityKey(cv.TargetRole + " " + cv.Headline),
		Location: semantic.LocationMeta{
			City:    strings.ToLower(strings.TrimSpace(cv.Location.City)),
			Country: strings.ToLower(strings.TrimSpace(cv.Location.Country)),
			Remote:  cv.RemoteFriendly(),
		},
	}
}

// DeriveJobMeta precomputes the matching features of a Job.
func DeriveJobMeta(job domain.Job) semantic.JobMeta {
	return semantic.JobMeta{
		Title:           job.Title,
		Company:         job.CompanyName,
		Skills:          NormalizeSkills(job.Skills),
		ExperienceYears: job.ExperienceYears,
		SeniorityKey:    SeniorityKey(job.Seniority),
		Location: semantic.LocationMeta{
			City:    strings.ToLower(strings.TrimSpace(job.Location.City)),
			Country: strings.ToLower(strings.TrimSpace(job.Location.Country)),
			Remote:  job.RemoteFriendly(),
		},
	}
}
