// Package domain holds the core business types shared across the engine:
// CV and Job records, the embedding source discriminant, and sentinel errors.
package domain

import (
	"fmt"
	"time"
)

// SourceType identifies which kind of business entity an embedding belongs to.
type SourceType string

const (
	SourceCV  SourceType = "cv"
	SourceJob SourceType = "job"
)

// ParseSourceType validates a source type string.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceCV, SourceJob:
		return SourceType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSourceType, s)
}

// Address is the structured location carried on CVs and Jobs.
// RemoteType is one of "onsite", "hybrid", "remote".
type Address struct {
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
	RemoteType string `json:"remote_type,omitempty"`
}

// Skill is a named skill with optional proficiency info.
type Skill struct {
	Name     string `json:"name"`
	Level    string `json:"level,omitempty"`
	Category string `json:"category,omitempty"`
	Years    int    `json:"years,omitempty"`
}

// Experience is one work-history entry on a CV.
type Experience struct {
	Title            string     `json:"title,omitempty"`
	Company          string     `json:"company,omitempty"`
	Location         string     `json:"location,omitempty"`
	From             *time.Time `json:"from,omitempty"`
	To               *time.Time `json:"to,omitempty"`
	IsCurrent        bool       `json:"is_current,omitempty"`
	Responsibilities []string   `json:"responsibilities,omitempty"`
	Achievements     []string   `json:"achievements,omitempty"`
}

// Education is one education entry on a CV.
type Education struct {
	Degree string     `json:"degree,omitempty"`
	Major  string     `json:"major,omitempty"`
	School string     `json:"school,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

// Project is a personal or professional project on a CV.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Metrics     []string `json:"metrics,omitempty"`
}

// Certification is a professional certification on a CV.
type Certification struct {
	Name      string     `json:"name"`
	Issuer    string     `json:"issuer,omitempty"`
	IssueDate *time.Time `json:"issue_date,omitempty"`
}

// LanguageSkill is a spoken language with proficiency level.
type LanguageSkill struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

// PortfolioItem is a link to external work samples.
type PortfolioItem struct {
	MediaType   string `json:"media_type,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// CV is a candidate profile.
type CV struct {
	ID                string          `json:"id"`
	FullName          string          `json:"fullname"`
	Email             string          `json:"email,omitempty"`
	Phone             string          `json:"phone,omitempty"`
	Location          Address         `json:"location,omitempty"`
	Headline          string          `json:"headline,omitempty"`
	Summary           string          `json:"summary,omitempty"`
	TargetRole        string          `json:"target_role,omitempty"`
	EmploymentType    []string        `json:"employment_type,omitempty"`
	SalaryExpectation string          `json:"salary_expectation,omitempty"`
	Availability      string          `json:"availability,omitempty"`
	Remote            bool            `json:"remote,omitempty"`
	Skills            []Skill         `json:"skills,omitempty"`
	Experiences       []Experience    `json:"experiences,omitempty"`
	Education         []Education     `json:"education,omitempty"`
	Projects          []Project       `json:"projects,omitempty"`
	Certifications    []Certification `json:"certifications,omitempty"`
	Languages         []LanguageSkill `json:"languages,omitempty"`
	Portfolio         []PortfolioItem `json:"portfolio,omitempty"`
}

// Salary is a compensation range on a Job.
type Salary struct {
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
	Period   string `json:"period,omitempty"` // month / year
}

// Job is a job posting.
type Job struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Status             string   `json:"status,omitempty"` // draft | published | closed
	CompanyName        string   `json:"company_name,omitempty"`
	CompanyIndustry    string   `json:"company_industry,omitempty"`
	Department         string   `json:"department,omitempty"`
	Seniority          string   `json:"seniority,omitempty"`
	TeamSize           int      `json:"team_size,omitempty"`
	Location           Address  `json:"location,omitempty"`
	Remote             bool     `json:"remote,omitempty"`
	Description        string   `json:"description,omitempty"`
	Responsibilities   []string `json:"responsibilities,omitempty"`
	Requirements       []string `json:"requirements,omitempty"`
	NiceToHave         []string `json:"nice_to_have,omitempty"`
	Skills             []Skill  `json:"skills,omitempty"`
	ExperienceYears    int      `json:"experience_years,omitempty"`
	EducationLevel     string   `json:"education_level,omitempty"`
	Salary             Salary   `json:"salary,omitempty"`
	Benefits           []string `json:"benefits,omitempty"`
	Bonus              string   `json:"bonus,omitempty"`
	Equity             string   `json:"equity,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Categories         []string `json:"categories,omitempty"`
	PreScreenQuestions []string `json:"pre_screen_questions,omitempty"`
}

// RemoteFriendly reports whether the CV owner works remotely.
func (c CV) RemoteFriendly() bool {
	return c.Remote || c.Location.RemoteType == "remote"
}

// RemoteFriendly reports whether the Job allows remote work.
func (j Job) RemoteFriendly() bool {
	return j.Remote || j.Location.RemoteType == "remote"
}
