package models

import "time"

// SectionIssues groups the messages produced for one top-level section.
type SectionIssues struct {
	SectionID    string   `json:"sectionId"`
	SectionTitle string   `json:"sectionTitle"`
	Messages     []string `json:"messages"`
}

// ValidationResult is the outcome of validating a whole document.
type ValidationResult struct {
	Valid                bool            `json:"valid"`
	Errors               []SectionIssues `json:"errors"`
	Warnings             []SectionIssues `json:"warnings"`
	SectionsValidated    int             `json:"sectionsValidated"`
	SectionsWithErrors   int             `json:"sectionsWithErrors"`
	CompletionPercentage int             `json:"completionPercentage"`
	ValidatedAt          time.Time       `json:"validatedAt"`
}

// ErrorCount returns the total number of error messages.
func (r *ValidationResult) ErrorCount() int {
	n := 0
	for _, e := range r.Errors {
		n += len(e.Messages)
	}
	return n
}

// Clone returns a deep copy.
func (r *ValidationResult) Clone() *ValidationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Errors = cloneIssues(r.Errors)
	out.Warnings = cloneIssues(r.Warnings)
	return &out
}

func cloneIssues(in []SectionIssues) []SectionIssues {
	if in == nil {
		return nil
	}
	out := make([]SectionIssues, len(in))
	for i, iss := range in {
		out[i] = iss
		out[i].Messages = append([]string(nil), iss.Messages...)
	}
	return out
}

// SectionCompletion is the completeness flag of one top-level section.
type SectionCompletion struct {
	SectionID string `json:"sectionId"`
	Title     string `json:"title"`
	Required  bool   `json:"required"`
	Complete  bool   `json:"complete"`
}

// CompletionReport is the live progress view of a document.
type CompletionReport struct {
	DocumentID           string              `json:"documentId"`
	Version              int                 `json:"version"`
	CompletionPercentage int                 `json:"completionPercentage"`
	Sections             []SectionCompletion `json:"sections"`
}
