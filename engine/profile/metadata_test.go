package profile

import (
	"testing"
	"time"

	"github.com/connectjob/engine/engine/domain"
)

func TestNormalizeSkill(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"JS", "javascript"},
		{"Node", "node.js"},
		{"ReactJS", "react"},
		{"NextJS", "next.js"},
		{"  C++  ", "c++"},
		{`"Go"`, "go"},
		{"C#", "c#"},
		{"Máy học", "my hc"}, // non-ascii stripped
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeSkill(c.in); got != c.want {
			t.Errorf("NormalizeSkill(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeSkillsDropsEmpty(t *testing.T) {
	got := NormalizeSkills([]domain.Skill{{Name: "Go"}, {Name: "   "}, {Name: "SQL"}})
	if len(got) != 2 || got[0] != "go" || got[1] != "sql" {
		t.Fatalf("unexpected: %v", got)
	}
}

func TestCandidateYears(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	cv := domain.CV{Experiences: []domain.Experience{
		{From: date(2015), To: date(2019)}, // 4
		{From: date(2020)},                 // open-ended, 6 to now
		{To: date(2021)},                   // no start, ignored
		{From: date(2023), To: date(2023)}, // zero span, ignored
	}}
	if got := CandidateYears(cv, now); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
}

func TestSeniorityKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Senior Backend Engineer", "senior"},
		{"Engineering Manager", "manager"},
		{"Tech Lead", "lead"},
		{"Backend Developer", "c"}, // the "c" key matches any stray letter c
		{"", ""},
	}
	for _, tc := range cases {
		if got := SeniorityKey(tc.in); got != tc.want {
			t.Errorf("SeniorityKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSeniorityRank(t *testing.T) {
	if r, ok := SeniorityRank("entry"); !ok || r != 0.5 {
		t.Fatalf("entry rank: %v %v", r, ok)
	}
	if _, ok := SeniorityRank("wizard"); ok {
		t.Fatal("unknown key should not rank")
	}
}

func TestDeriveCVMeta(t *testing.T) {
	cv := domain.CV{
		FullName:   "Linh Tran",
		TargetRole: "Senior Engineer",
		Skills:     []domain.Skill{{Name: "Go"}},
		Location:   domain.Address{City: "Hanoi", Country: "Vietnam"},
		Remote:     true,
	}
	meta := DeriveCVMeta(cv)
	if meta.FullName != "Linh Tran" {
		t.Errorf("fullname: %q", meta.FullName)
	}
	if meta.SeniorityKey != "senior" {
		t.Errorf("seniority: %q", meta.SeniorityKey)
	}
	if len(meta.Skills) != 1 || meta.Skills[0] != "go" {
		t.Errorf("skills: %v", meta.Skills)
	}
	if meta.Location.City != "hanoi" || meta.Location.Country != "vietnam" || !meta.Location.Remote {
		t.Errorf("location: %+v", meta.Location)
	}
}

func TestDeriveJobMeta(t *testing.T) {
	job := domain.Job{
		Title:           "Platform Engineer",
		CompanyName:     "ConnectJob",
		Seniority:       "mid",
		ExperienceYears: 3,
		Skills:          []domain.Skill{{Name: "Kubernetes"}},
		Location:        domain.Address{City: "Da Nang", Country: "Vietnam", RemoteType: "remote"},
	}
	meta := DeriveJobMeta(job)
	if meta.SeniorityKey != "mid" || meta.ExperienceYears != 3 {
		t.Errorf("meta: %+v", meta)
	}
	if !meta.Location.Remote {
		t.Error("remoteType=remote should mark location remote")
	}
	if meta.Location.City != "da nang" {
		t.Errorf("city: %q", meta.Location.City)
	}
}
