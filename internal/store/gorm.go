package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"DF-FORMS/internal/models"
)

type templateRecord struct {
	ID           string    `gorm:"primaryKey;size:191"`
	TenantID     *string   `gorm:"size:191"`
	Name         string
	Category     string    `gorm:"size:50"`
	StandardCode string    `gorm:"size:50"`
	ElementCode  string    `gorm:"size:50"`
	Position     int64
	Body         string    `gorm:"type:text"` // full template as JSON
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (templateRecord) TableName() string { return "form_templates" }

type documentRecord struct {
	ID                   string     `gorm:"primaryKey;size:191"`
	TenantID             string     `gorm:"size:191"`
	AuthorID             string     `gorm:"size:191"`
	TemplateID           string     `gorm:"size:191"`
	Title                string
	Status               string     `gorm:"size:20"`
	Data                 string     `gorm:"type:text"`
	Metadata             string     `gorm:"type:text"`
	CompletionPercentage int
	Version              int
	ReviewerID           string     `gorm:"size:191"`
	ReviewNotes          string     `gorm:"type:text"`
	SubmittedAt          *time.Time
	ApprovedAt           *time.Time
	ReviewedAt           *time.Time
	CreatedAt            time.Time  `gorm:"autoCreateTime:false"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime:false"`
}

func (documentRecord) TableName() string { return "documents" }

type complianceRecord struct {
	Folio     string    `gorm:"primaryKey;size:32"`
	TenantID  string    `gorm:"size:191"`
	Year      int
	Sequence  int
	Body      string    `gorm:"type:text"`
	IssuedAt  time.Time
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (complianceRecord) TableName() string { return "compliance_forms" }

// GormStore persists templates, documents and compliance forms through gorm.
// The schema is owned by the goose migrations in internal/database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) SaveTemplate(ctx context.Context, t *models.Template) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing templateRecord
		err := tx.Select("position", "created_at").Where("id = ?", t.ID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxPos sql.NullInt64
			if err := tx.Model(&templateRecord{}).Select("MAX(position)").Scan(&maxPos).Error; err != nil {
				return fmt.Errorf("failed to read template order: %w", err)
			}
			existing.Position = maxPos.Int64 + 1
			existing.CreatedAt = t.CreatedAt
		case err != nil:
			return fmt.Errorf("failed to load template: %w", err)
		}

		rec := templateRecord{
			ID:           t.ID,
			TenantID:     t.TenantID,
			Name:         t.Name,
			Category:     string(t.Category),
			StandardCode: t.StandardCode,
			ElementCode:  t.ElementCode,
			Position:     existing.Position,
			Body:         string(body),
			CreatedAt:    existing.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		}
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to save template: %w", err)
		}
		return nil
	})
}

func (s *GormStore) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var rec templateRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return rec.toModel()
}

func (s *GormStore) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	var recs []templateRecord
	if err := s.db.WithContext(ctx).Order("position ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	out := make([]*models.Template, 0, len(recs))
	for i := range recs {
		t, err := recs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *templateRecord) toModel() (*models.Template, error) {
	var t models.Template
	if err := json.Unmarshal([]byte(r.Body), &t); err != nil {
		return nil, fmt.Errorf("failed to decode template %s: %w", r.ID, err)
	}
	return &t, nil
}

func (s *GormStore) SaveDocument(ctx context.Context, d *models.Document) error {
	rec, err := newDocumentRecord(d)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *GormStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var rec documentRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return rec.toModel()
}

func (s *GormStore) ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]*models.Document, error) {
	query := s.db.WithContext(ctx).Model(&documentRecord{})
	if filter.TenantID != "" {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.AuthorID != "" {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if filter.TemplateID != "" {
		query = query.Where("template_id = ?", filter.TemplateID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var recs []documentRecord
	if err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	out := make([]*models.Document, 0, len(recs))
	for i := range recs {
		d, err := recs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *GormStore) DeleteDocument(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&documentRecord{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete document: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func newDocumentRecord(d *models.Document) (*documentRecord, error) {
	data, err := json.Marshal(d.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document data: %w", err)
	}
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document metadata: %w", err)
	}
	return &documentRecord{
		ID:                   d.ID,
		TenantID:             d.TenantID,
		AuthorID:             d.AuthorID,
		TemplateID:           d.TemplateID,
		Title:                d.Title,
		Status:               string(d.Status),
		Data:                 string(data),
		Metadata:             string(meta),
		CompletionPercentage: d.CompletionPercentage,
		Version:              d.Version,
		ReviewerID:           d.ReviewerID,
		ReviewNotes:          d.ReviewNotes,
		SubmittedAt:          d.SubmittedAt,
		ApprovedAt:           d.ApprovedAt,
		ReviewedAt:           d.ReviewedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}, nil
}

func (r *documentRecord) toModel() (*models.Document, error) {
	d := &models.Document{
		ID:                   r.ID,
		TenantID:             r.TenantID,
		AuthorID:             r.AuthorID,
		TemplateID:           r.TemplateID,
		Title:                r.Title,
		Status:               models.DocumentStatus(r.Status),
		CompletionPercentage: r.CompletionPercentage,
		Version:              r.Version,
		ReviewerID:           r.ReviewerID,
		ReviewNotes:          r.ReviewNotes,
		SubmittedAt:          r.SubmittedAt,
		ApprovedAt:           r.ApprovedAt,
		ReviewedAt:           r.ReviewedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Data), &d.Data); err != nil {
		return nil, fmt.Errorf("failed to decode data of document %s: %w", r.ID, err)
	}
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &d.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of document %s: %w", r.ID, err)
		}
	}
	if d.Data == nil {
		d.Data = map[string]any{}
	}
	return d, nil
}

func (s *GormStore) LastFolioSequence(ctx context.Context, year int) (int, error) {
	var last sql.NullInt64
	err := s.db.WithContext(ctx).Model(&complianceRecord{}).
		Where("year = ?", year).
		Select("MAX(sequence)").
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read folio sequence: %w", err)
	}
	return int(last.Int64), nil
}

func (s *GormStore) SaveComplianceForm(ctx context.Context, year, sequence int, f *models.ComplianceForm) error {
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode compliance form: %w", err)
	}
	issued := time.Now().UTC()
	if f.IssuedAt != nil {
		issued = *f.IssuedAt
	}
	rec := complianceRecord{
		Folio:    f.Folio,
		TenantID: f.TenantID,
		Year:     year,
		Sequence: sequence,
		Body:     string(body),
		IssuedAt: issued,

		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save compliance form: %w", err)
	}
	return nil
}

func (s *GormStore) GetComplianceForm(ctx context.Context, folio string) (*models.ComplianceForm, error) {
	var rec complianceRecord
	if err := s.db.WithContext(ctx).Where("folio = ?", folio).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("compliance form %s: %w", folio, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get compliance form: %w", err)
	}
	var f models.ComplianceForm
	if err := json.Unmarshal([]byte(rec.Body), &f); err != nil {
		return nil, fmt.Errorf("failed to decode compliance form %s: %w", folio, err)
	}
	return &f, nil
}
