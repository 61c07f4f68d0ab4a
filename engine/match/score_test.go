package match

import (
	"math"
	"testing"

	"github.com/connectjob/engine/engine/semantic"
)

func TestSkillsScore(t *testing.T) {
	cases := []struct {
		name             string
		pivot, candidate []string
		want             float64
	}{
		{"half matched", []string{"go", "sql", "docker", "k8s"}, []string{"go", "sql", "rust"}, 0.5},
		{"pivot empty is neutral", nil, []string{"go"}, 1},
		{"both empty is neutral", nil, nil, 1},
		{"candidate empty", []string{"go"}, nil, 0},
		{"no overlap", []string{"go"}, []string{"java"}, 0},
		{"full overlap", []string{"go", "sql"}, []string{"sql", "go"}, 1},
	}
	for _, c := range cases {
		if got := skillsScore(c.pivot, c.candidate); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestExperienceScore(t *testing.T) {
	cases := []struct {
		required, candidate int
		want                float64
	}{
		{0, 0, 1},   // no requirement
		{-1, 10, 1}, // negative treated as none
		{5, 2, 0.4},
		{5, 5, 1},
		{5, 20, 1}, // capped
	}
	for _, c := range cases {
		if got := experienceScore(c.required, c.candidate); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("experienceScore(%d, %d) = %v, want %v", c.required, c.candidate, got, c.want)
		}
	}
}

func TestSeniorityScore(t *testing.T) {
	if got := seniorityScore("senior", "senior"); got != 1 {
		t.Errorf("same rank: %v", got)
	}
	// senior=3 vs junior=1: 1 - 2/3
	if got := seniorityScore("senior", "junior"); math.Abs(got-(1-2.0/3)) > 1e-9 {
		t.Errorf("senior vs junior: %v", got)
	}
	// unranked on either side is neutral
	if got := seniorityScore("", "senior"); got != 0.5 {
		t.Errorf("unranked pivot: %v", got)
	}
	if got := seniorityScore("senior", "wizard"); got != 0.5 {
		t.Errorf("unranked candidate: %v", got)
	}
	// intern pivot (rank 0) uses denominator 1
	if got := seniorityScore("intern", "senior"); got != 0 {
		t.Errorf("intern vs senior: %v", got)
	}
}

func TestLocationScore(t *testing.T) {
	remote := semantic.LocationMeta{Remote: true}
	hanoi := semantic.LocationMeta{City: "hanoi", Country: "vietnam"}
	saigon := semantic.LocationMeta{City: "ho chi minh", Country: "vietnam"}
	berlin := semantic.LocationMeta{City: "berlin", Country: "germany"}

	cases := []struct {
		name string
		a, b semantic.LocationMeta
		want float64
	}{
		{"both remote", remote, remote, 1},
		{"one remote", remote, hanoi, 0.7},
		{"other remote", hanoi, remote, 0.7},
		{"same city", hanoi, hanoi, 1},
		{"same country", hanoi, saigon, 0.9},
		{"different country", hanoi, berlin, 0.4},
		{"no data at all", semantic.LocationMeta{}, semantic.LocationMeta{}, 0.5},
	}
	for _, c := range cases {
		if got := locationScore(c.a, c.b); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPercentRounds(t *testing.T) {
	if percent(0.625) != 63 {
		t.Errorf("0.625 -> %d", percent(0.625))
	}
	if percent(1) != 100 || percent(0) != 0 {
		t.Error("bounds wrong")
	}
}
