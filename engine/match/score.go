package match

import (
	"math"

	"github.com/connectjob/engine/engine/profile"
	"github.com/connectjob/engine/engine/semantic"
)

// skillsScore is the fraction of candidate skills found in the pivot's
// skill set, over the pivot's skill count. A pivot with no listed skills
// scores a neutral 1; a candidate with none scores 0.
func skillsScore(pivot, candidate []string) float64 {
	if len(pivot) == 0 {
		return 1
	}
	if len(candidate) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(pivot))
	for _, s := range pivot {
		set[s] = struct{}{}
	}
	matched := 0
	for _, s := range candidate {
		if _, ok := set[s]; ok {
			matched++
		}
	}
	return clamp01(float64(matched) / float64(len(pivot)))
}

// experienceScore compares candidate years against the job's requirement.
// No requirement means a perfect score.
func experienceScore(requiredYears, candidateYears int) float64 {
	if requiredYears <= 0 {
		return 1
	}
	return math.Min(1, float64(candidateYears)/float64(requiredYears))
}

// seniorityScore measures rank distance relative to the pivot's rank.
// Unranked keys on either side give the neutral 0.5.
func seniorityScore(pivotKey, candidateKey string) float64 {
	pivotRank, ok := profile.SeniorityRank(pivotKey)
	if !ok {
		return 0.5
	}
	candRank, ok := profile.SeniorityRank(candidateKey)
	if !ok {
		return 0.5
	}
	denom := math.Max(1, pivotRank)
	return math.Max(0, 1-math.Abs(pivotRank-candRank)/denom)
}

// locationScore compares two normalized locations. Remote on both sides is
// a perfect fit; remote on one side still works but costs something; with
// neither remote, city beats country beats nothing.
func locationScore(a, b semantic.LocationMeta) float64 {
	if a.IsZero() && b.IsZero() {
		return 0.5
	}
	switch {
	case a.Remote && b.Remote:
		return 1
	case a.Remote != b.Remote:
		return 0.7
	}
	if a.City != "" && b.City != "" && a.City == b.City {
		return 1
	}
	if a.Country != "" && b.Country != "" && a.Country == b.Country {
		return 0.9
	}
	return 0.4
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// percent converts a [0,1] score into a rounded 0..100 integer.
func percent(v float64) int {
	return int(math.Round(v * 100))
}
