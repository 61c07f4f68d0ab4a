// Package profile turns CV and Job records into the plain text that gets
// embedded, and derives the non-semantic matching features stored alongside.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/connectjob/engine/engine/domain"
)

// BuildCVText renders a CV as one plain-text document, section by section.
// Returns "" when the CV carries no renderable content.
func BuildCVText(cv domain.CV) string {
	var parts []string

	if cv.TargetRole != "" {
		parts = append(parts, "Target role: "+cv.TargetRole)
	}
	if cv.Headline != "" {
		parts = append(parts, cv.Headline)
	}
	if cv.Summary != "" {
		parts = append(parts, cv.Summary)
	}

	if len(cv.Skills) > 0 {
		items := make([]string, 0, len(cv.Skills))
		for _, s := range cv.Skills {
			item := s.Name
			if s.Years > 0 {
				item += fmt.Sprintf(" (%dy)", s.Years)
			}
			items = append(items, item)
		}
		parts = append(parts, "Skills: "+strings.Join(items, ", "))
	}

	if len(cv.Experiences) > 0 {
		entries := make([]string, 0, len(cv.Experiences))
		for _, e := range cv.Experiences {
			when := yearOf(e.From) + "-" + yearOf(e.To)
			entries = append(entries, fmt.Sprintf("%s at %s %s\n%s\n%s",
				e.Title, e.Company, when,
				strings.Join(e.Responsibilities, "; "),
				strings.Join(e.Achievements, "; ")))
		}
		parts = append(parts, "Experience:\n"+strings.Join(entries, "\n\n"))
	}

	if len(cv.Education) > 0 {
		entries := make([]string, 0, len(cv.Education))
		for _, ed := range cv.Education {
			entries = append(entries, fmt.Sprintf("%s in %s - %s %s-%s",
				ed.Degree, ed.Major, ed.School, yearOf(ed.From), yearOf(ed.To)))
		}
		parts = append(parts, "Education:\n"+strings.Join(entries, "\n"))
	}

	if len(cv.Projects) > 0 {
		entries := make([]string, 0, len(cv.Projects))
		for _, p := range cv.Projects {
			entry := p.Name + ": " + p.Description
			if len(p.Metrics) > 0 {
				entry += " Metrics: " + strings.Join(p.Metrics, ", ")
			}
			entries = append(entries, entry)
		}
		parts = append(parts, "Projects:\n"+strings.Join(entries, "\n"))
	}

	if len(cv.Certifications) > 0 {
		items := make([]string, 0, len(cv.Certifications))
		for _, c := range cv.Certifications {
			items = append(items, fmt.Sprintf("%s (%s %s)", c.Name, c.Issuer, yearOf(c.IssueDate)))
		}
		parts = append(parts, "Certifications: "+strings.Join(items, ", "))
	}

	if len(cv.Languages) > 0 {
		items := make([]string, 0, len(cv.Languages))
		for _, l := range cv.Languages {
			item := l.Name
			if l.Level != "" {
				item += " (" + l.Level + ")"
			}
			items = append(items, item)
		}
		parts = append(parts, "Languages: "+strings.Join(items, ", "))
	}

	if len(cv.Portfolio) > 0 {
		entries := make([]string, 0, len(cv.Portfolio))
		for _, pf := range cv.Portfolio {
			entries = append(entries, fmt.Sprintf("%s: %s %s", pf.MediaType, pf.URL, pf.Description))
		}
		parts = append(parts, "Portfolio:\n"+strings.Join(entries, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

// BuildJobText renders a Job posting as one plain-text document.
func BuildJobText(job domain.Job) string {
	var parts []string

	if job.Title != "" {
		parts = append(parts, "Job Title: "+job.Title)
	}
	if job.CompanyName != "" {
		parts = append(parts, "Company: "+job.CompanyName)
	}
	if job.CompanyIndustry != "" {
		parts = append(parts, "Industry: "+job.CompanyIndustry)
	}
	if job.Department != "" {
		parts = append(parts, "Department: "+job.Department)
	}
	if job.Seniority != "" {
		parts = append(parts, "Seniority: "+job.Seniority)
	}
	if job.TeamSize > 0 {
		parts = append(parts, fmt.Sprintf("Team size: %d", job.TeamSize))
	}

	if loc := formatAddress(job.Location); loc != "" {
		parts = append(parts, "Location: "+loc)
	}

	if job.Description != "" {
		parts = append(parts, "Description:\n"+job.Description)
	}
	if len(job.Responsibilities) > 0 {
		parts = append(parts, "Responsibilities:\n"+bulletList(job.Responsibilities))
	}
	if len(job.Requirements) > 0 {
		parts = append(parts, "Requirements:\n"+bulletList(job.Requirements))
	}
	if len(job.NiceToHave) > 0 {
		parts = append(parts, "Nice to have:\n"+bulletList(job.NiceToHave))
	}

	if len(job.Skills) > 0 {
		items := make([]string, 0, len(job.Skills))
		for _, s := range job.Skills {
			item := s.Name
			if s.Level != "" {
				item += " (" + s.Level + ")"
			}
			items = append(items, item)
		}
		parts = append(parts, "Skills: "+strings.Join(items, ", "))
	}

	if job.ExperienceYears > 0 {
		parts = append(parts, fmt.Sprintf("Experience required: %d years", job.ExperienceYears))
	}
	if job.EducationLevel != "" {
		parts = append(parts, "Education level: "+job.EducationLevel)
	}

	if sal := formatSalary(job.Salary); sal != "" {
		parts = append(parts, "Salary: "+sal)
	}

	if len(job.Benefits) > 0 {
		parts = append(parts, "Benefits:\n"+bulletList(job.Benefits))
	}
	if job.Bonus != "" {
		parts = append(parts, "Bonus: "+job.Bonus)
	}
	if job.Equity != "" {
		parts = append(parts, "Equity: "+job.Equity)
	}
	if len(job.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(job.Tags, ", "))
	}
	if len(job.Categories) > 0 {
		parts = append(parts, "Categories: "+strings.Join(job.Categories, ", "))
	}
	if len(job.PreScreenQuestions) > 0 {
		parts = append(parts, "Pre-screen questions:\n"+bulletList(job.PreScreenQuestions))
	}

	return strings.Join(parts, "\n\n")
}

func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "• "+it)
	}
	return strings.Join(lines, "\n")
}

func formatAddress(a domain.Address) string {
	var fields []string
	for _, f := range []string{a.City, a.State, a.Country} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	if a.RemoteType != "" {
		fields = append(fields, "("+a.RemoteType+")")
	}
	return strings.Join(fields, ", ")
}

func formatSalary(s domain.Salary) string {
	var b strings.Builder
	if s.Min > 0 {
		fmt.Fprintf(&b, "%d", s.Min)
	}
	if s.Max > 0 {
		fmt.Fprintf(&b, "–%d", s.Max)
	}
	if s.Currency != "" {
		b.WriteString(" " + s.Currency)
	}
	if s.Period != "" {
		b.WriteString(" / " + s.Period)
	}
	return strings.TrimSpace(b.String())
}

func yearOf(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%d", t.Year())
}
