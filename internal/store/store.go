// Package store defines the persistence ports used by the services, with an
// in-memory implementation and a gorm-backed one.
package store

import (
	"context"
	"errors"

	"DF-FORMS/internal/models"
)

// ErrNotFound is returned when a lookup key has no record.
var ErrNotFound = errors.New("record not found")

// TemplateStore keeps templates in registration order. Saving an existing id
// replaces it in place.
type TemplateStore interface {
	SaveTemplate(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]*models.Template, error)
}

// DocumentStore keeps documents. Implementations return copies, so callers
// may mutate what they get back.
type DocumentStore interface {
	SaveDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) (bool, error)
}

// ComplianceStore keeps finalized compliance forms by folio.
type ComplianceStore interface {
	// LastFolioSequence returns the highest sequence issued in year, or 0.
	LastFolioSequence(ctx context.Context, year int) (int, error)
	SaveComplianceForm(ctx context.Context, year, sequence int, f *models.ComplianceForm) error
	GetComplianceForm(ctx context.Context, folio string) (*models.ComplianceForm, error)
}

// Store bundles every port.
type Store interface {
	TemplateStore
	DocumentStore
	ComplianceStore
}
