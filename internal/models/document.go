package models

import (
	"time"
)

// DocumentStatus is the lifecycle state of a document
type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "draft"
	StatusInProgress DocumentStatus = "in_progress"
	StatusCompleted  DocumentStatus = "completed"
	StatusSubmitted  DocumentStatus = "submitted"
	StatusApproved   DocumentStatus = "approved"
	StatusRejected   DocumentStatus = "rejected"
)

// Rank orders statuses along the lifecycle. Approved and rejected share the
// terminal rank.
func (s DocumentStatus) Rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	case StatusSubmitted:
		return 3
	case StatusApproved, StatusRejected:
		return 4
	default:
		return -1
	}
}

// Valid reports whether s is a known status.
func (s DocumentStatus) Valid() bool {
	return s.Rank() >= 0
}

// IsTerminal reports whether the document has been reviewed.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// IsEditable reports whether completion bookkeeping may still move the status.
func (s DocumentStatus) IsEditable() bool {
	return s.Rank() < StatusSubmitted.Rank()
}

// DocumentMetadata is the bag of editing bookkeeping kept with a document.
type DocumentMetadata struct {
	TimeSpentSeconds  int64             `json:"timeSpentSeconds"`
	LastEditedSection string            `json:"lastEditedSection,omitempty"`
	LastValidation    *ValidationResult `json:"lastValidation,omitempty"`
}

// Document is a filled-in instance of a template.
type Document struct {
	ID                   string           `json:"id"`
	TenantID             string           `json:"tenantId"`
	AuthorID             string           `json:"authorId"`
	TemplateID           string           `json:"templateId"`
	Title                string           `json:"title"`
	Status               DocumentStatus   `json:"status"`
	Data                 map[string]any   `json:"data"`
	CompletionPercentage int              `json:"completionPercentage"`
	Version              int              `json:"version"`
	Metadata             DocumentMetadata `json:"metadata"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
	SubmittedAt          *time.Time       `json:"submittedAt,omitempty"`
	ApprovedAt           *time.Time       `json:"approvedAt,omitempty"`
	ReviewedAt           *time.Time       `json:"reviewedAt,omitempty"`
	ReviewerID           string           `json:"reviewerId,omitempty"`
	ReviewNotes          string           `json:"reviewNotes,omitempty"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.Data != nil {
		out.Data = CloneValue(d.Data).(map[string]any)
	}
	if d.Metadata.LastValidation != nil {
		v := d.Metadata.LastValidation.Clone()
		out.Metadata.LastValidation = v
	}
	out.SubmittedAt = cloneTime(d.SubmittedAt)
	out.ApprovedAt = cloneTime(d.ApprovedAt)
	out.ReviewedAt = cloneTime(d.ReviewedAt)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// DocumentFilter narrows ListDocuments. Empty fields match everything.
type DocumentFilter struct {
	TenantID   string         `form:"tenant_id"`
	AuthorID   string         `form:"author_id"`
	TemplateID string         `form:"template_id"`
	Status     DocumentStatus `form:"status"`
}

// Matches reports whether d satisfies the filter.
func (f DocumentFilter) Matches(d *Document) bool {
	if f.TenantID != "" && d.TenantID != f.TenantID {
		return false
	}
	if f.AuthorID != "" && d.AuthorID != f.AuthorID {
		return false
	}
	if f.TemplateID != "" && d.TemplateID != f.TemplateID {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	return true
}
