package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"DF-FORMS/internal/config"
	"DF-FORMS/internal/models"
	"DF-FORMS/internal/store"
	"DF-FORMS/internal/validation"
)

// DocumentOptions configures the lifecycle manager.
type DocumentOptions struct {
	SubmissionMode config.SubmissionMode // strict when empty
	Clock          func() time.Time      // time.Now when nil
}

// CreateDocumentRequest carries the inputs of CreateDocument. Title defaults
// to the template name.
type CreateDocumentRequest struct {
	TemplateID string         `json:"templateId" binding:"required"`
	TenantID   string         `json:"tenantId"`
	AuthorID   string         `json:"authorId"`
	Title      string         `json:"title"`
	Data       map[string]any `json:"data"`
}

// UpdateDocumentRequest carries a partial data update.
type UpdateDocumentRequest struct {
	Data             map[string]any `json:"data"`
	EditedSectionID  string         `json:"editedSectionId,omitempty"`
	TimeSpentSeconds int64          `json:"timeSpentSeconds,omitempty"`
}

// DocumentService owns the document lifecycle. Every read-modify-write of a
// single document runs under that document's lock.
type DocumentService struct {
	store     store.DocumentStore
	templates *TemplateService
	mode      config.SubmissionMode
	now       func() time.Time
	locks     *keyedMutex
}

func NewDocumentService(documentStore store.DocumentStore, templateService *TemplateService, opts DocumentOptions) *DocumentService {
	if opts.SubmissionMode == "" {
		opts.SubmissionMode = config.SubmissionStrict
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &DocumentService{
		store:     documentStore,
		templates: templateService,
		mode:      opts.SubmissionMode,
		now:       opts.Clock,
		locks:     newKeyedMutex(),
	}
}

// CreateDocument seeds a new draft. Completion starts at 0 whatever the
// initial data holds; the first update computes it.
func (s *DocumentService) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*models.Document, error) {
	tmpl, err := s.templates.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := checkSectionKeys(tmpl, req.Data); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = tmpl.Name
	}
	data := models.SeedData(tmpl, cloneData(req.Data))
	now := s.now().UTC()

	doc := &models.Document{
		ID:                   uuid.New().String(),
		TenantID:             req.TenantID,
		AuthorID:             req.AuthorID,
		TemplateID:           tmpl.ID,
		Title:                title,
		Status:               models.StatusDraft,
		Data:                 data,
		CompletionPercentage: 0,
		Version:              1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"template_id": tmpl.ID,
		"tenant_id":   doc.TenantID,
	}).Info("document created")
	return doc, nil
}

func (s *DocumentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, notFound("document", id, err)
	}
	return doc, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, filter models.DocumentFilter) ([]*models.Document, error) {
	docs, err := s.store.ListDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument merges req.Data shallowly into the stored data, bumps the
// version and recomputes completion. An empty update still bumps the version.
// Status only ever advances.
func (s *DocumentService) UpdateDocument(ctx context.Context, id string, req UpdateDocumentRequest) (*models.Document, error) {
	if req.TimeSpentSeconds < 0 {
		return nil, invalidInput("time spent must not be negative")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	doc, tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkSectionKeys(tmpl, req.Data); err != nil {
		return nil, err
	}
	if req.EditedSectionID != "" {
		if _, ok := tmpl.Section(req.EditedSectionID); !ok {
			return nil, invalidInput("unknown section %q", req.EditedSectionID)
		}
	}

	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	for k, v := range req.Data {
		doc.Data[k] = models.CloneValue(v)
	}
	doc.Version++
	if req.EditedSectionID != "" {
		doc.Metadata.LastEditedSection = req.EditedSectionID
	}
	doc.Metadata.TimeSpentSeconds += req.TimeSpentSeconds
	doc.CompletionPercentage = validation.CompletionPercentage(tmpl, doc.Data)

	previous := doc.Status
	if next := progressStatus(doc.CompletionPercentage); next.Rank() > doc.Status.Rank() {
		doc.Status = next
	}
	doc.UpdatedAt = s.now().UTC()

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	entry := logrus.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"version":     doc.Version,
		"completion":  doc.CompletionPercentage,
		"status":      doc.Status,
	})
	if previous != doc.Status {
		entry.WithField("previous_status", previous).Info("document status advanced")
	} else {
		entry.Debug("document updated")
	}
	return doc, nil
}

// progressStatus maps a completion percentage to the status editing alone
// can reach.
func progressStatus(completion int) models.DocumentStatus {
	switch {
	case completion >= 100:
		return models.StatusCompleted
	case completion > 0:
		return models.StatusInProgress
	default:
		return models.StatusDraft
	}
}

// GetCompletion recomputes per-section completeness without touching the
// stored document.
func (s *DocumentService) GetCompletion(ctx context.Context, id string) (*models.CompletionReport, error) {
	doc, tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	report := &models.CompletionReport{
		DocumentID:           doc.ID,
		Version:              doc.Version,
		CompletionPercentage: validation.CompletionPercentage(tmpl, doc.Data),
		Sections:             make([]models.SectionCompletion, 0, len(tmpl.Sections)),
	}
	for _, sec := range tmpl.Sections {
		report.Sections = append(report.Sections, models.SectionCompletion{
			SectionID: sec.ID,
			Title:     sec.Title,
			Required:  sec.Required,
			Complete:  validation.IsSectionComplete(sec, doc.Data[sec.ID]),
		})
	}
	return report, nil
}

// ValidateDocument runs full validation and caches the result on the
// document. It never changes status or version.
func (s *DocumentService) ValidateDocument(ctx context.Context, id string) (*models.ValidationResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	result := s.validate(tmpl, doc)
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save validation result: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"valid":       result.Valid,
		"errors":      result.ErrorCount(),
	}).Debug("document validated")
	return result.Clone(), nil
}

// SubmitDocument validates the document and moves it to submitted. In strict
// mode an invalid document is left untouched apart from the cached
// validation result, and a *ValidationFailedError is returned.
func (s *DocumentService) SubmitDocument(ctx context.Context, id string) (*models.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, tmpl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status.Rank() >= models.StatusSubmitted.Rank() {
		return nil, fmt.Errorf("%w: document %s is already %s", ErrInvalidTransition, doc.ID, doc.Status)
	}

	result := s.validate(tmpl, doc)
	log := logrus.WithFields(logrus.Fields{"document_id": doc.ID, "errors": result.ErrorCount()})
	if !result.Valid {
		if s.mode == config.SubmissionStrict {
			if err := s.store.SaveDocument(ctx, doc); err != nil {
				return nil, fmt.Errorf("failed to save validation result: %w", err)
			}
			log.Info("submission blocked by validation")
			return nil, &ValidationFailedError{Result: result.Clone()}
		}
		log.Warn("submitting invalid document in lenient mode")
	}

	now := s.now().UTC()
	doc.Status = models.StatusSubmitted
	doc.SubmittedAt = &now
	doc.UpdatedAt = now
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	log.Info("document submitted")
	return doc, nil
}

// ApproveDocument records a positive review. The current status is not
// checked; approving a document that was never submitted only logs a warning.
func (s *DocumentService) ApproveDocument(ctx context.Context, id, reviewerID, notes string) (*models.Document, error) {
	return s.review(ctx, id, models.StatusApproved, reviewerID, notes)
}

// RejectDocument records a negative review. Notes are mandatory.
func (s *DocumentService) RejectDocument(ctx context.Context, id, reviewerID, notes string) (*models.Document, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, invalidInput("rejection notes are required")
	}
	return s.review(ctx, id, models.StatusRejected, reviewerID, notes)
}

func (s *DocumentService) review(ctx context.Context, id string, status models.DocumentStatus, reviewerID, notes string) (*models.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"document_id":     doc.ID,
		"reviewer_id":     reviewerID,
		"previous_status": doc.Status,
		"status":          status,
	})
	if doc.Status != models.StatusSubmitted {
		log.Warn("reviewing a document that is not submitted")
	}
	if strings.TrimSpace(reviewerID) == "" {
		log.Warn("review recorded without a reviewer id")
	}

	now := s.now().UTC()
	doc.Status = status
	doc.ReviewerID = reviewerID
	doc.ReviewNotes = notes
	doc.ReviewedAt = &now
	doc.UpdatedAt = now
	if status == models.StatusApproved {
		doc.ApprovedAt = &now
	} else {
		doc.ApprovedAt = nil
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	log.Info("document reviewed")
	return doc, nil
}

// DeleteDocument removes the document and reports whether it existed.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) (bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	existed, err := s.store.DeleteDocument(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	if existed {
		logrus.WithField("document_id", id).Info("document deleted")
	}
	return existed, nil
}

func (s *DocumentService) load(ctx context.Context, id string) (*models.Document, *models.Template, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	tmpl, err := s.templates.GetTemplate(ctx, doc.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	return doc, tmpl, nil
}

// validate runs full validation, stamps it and caches it on doc.
func (s *DocumentService) validate(tmpl *models.Template, doc *models.Document) *models.ValidationResult {
	result := validation.ValidateDocument(tmpl, doc.Data)
	result.ValidatedAt = s.now().UTC()
	doc.Metadata.LastValidation = result
	doc.CompletionPercentage = result.CompletionPercentage
	return result
}

// checkSectionKeys rejects data keys the template does not declare.
func checkSectionKeys(tmpl *models.Template, data map[string]any) error {
	var unknown []string
	for k := range data {
		if _, ok := tmpl.Section(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return invalidInput("unknown sections: %s", strings.Join(unknown, ", "))
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	return models.CloneValue(data).(map[string]any)
}
