package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"DF-FORMS/internal/catalog"
	"DF-FORMS/internal/models"
	"DF-FORMS/internal/store"
)

// TemplateService is the template registry. Registration is serialized with
// respect to readers so a replaced template is never observed half-written.
type TemplateService struct {
	store    store.TemplateStore
	maxDepth int
	now      func() time.Time

	mu sync.RWMutex
}

func NewTemplateService(templateStore store.TemplateStore, maxDepth int) *TemplateService {
	if maxDepth <= 0 {
		maxDepth = models.DefaultMaxSectionDepth
	}
	return &TemplateService{
		store:    templateStore,
		maxDepth: maxDepth,
		now:      time.Now,
	}
}

// RegisterTemplate validates t and stores it, replacing any template with the
// same id while keeping its registration position.
func (s *TemplateService) RegisterTemplate(ctx context.Context, t *models.Template) (*models.Template, error) {
	if err := models.ValidateTemplate(t, s.maxDepth); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	t = t.Clone()
	if t.Category == "" {
		t.Category = models.CategoryCustom
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	t.UpdatedAt = now
	existing, err := s.store.GetTemplate(ctx, t.ID)
	switch {
	case err == nil:
		t.CreatedAt = existing.CreatedAt
	case isStoreMiss(err):
		t.CreatedAt = now
	default:
		return nil, fmt.Errorf("failed to look up template %s: %w", t.ID, err)
	}

	if err := s.store.SaveTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"template_id": t.ID,
		"category":    t.Category,
		"sections":    len(t.Sections),
		"replaced":    existing != nil,
	}).Info("template registered")
	return t.Clone(), nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, notFound("template", id, err)
	}
	return t, nil
}

// ListTemplates returns the templates matching filter in registration order.
func (s *TemplateService) ListTemplates(ctx context.Context, filter models.TemplateFilter) ([]*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all, err := s.store.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	out := []*models.Template{}
	for _, t := range all {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// LoadSystemTemplates registers the embedded catalog. It returns how many
// templates were registered.
func (s *TemplateService) LoadSystemTemplates(ctx context.Context) (int, error) {
	templates, err := catalog.SystemTemplates()
	if err != nil {
		return 0, err
	}
	for _, t := range templates {
		if _, err := s.RegisterTemplate(ctx, t); err != nil {
			return 0, fmt.Errorf("failed to register system template %s: %w", t.ID, err)
		}
	}
	return len(templates), nil
}
