package store

import (
	"context"
	"fmt"
	"sync"

	"DF-FORMS/internal/models"
)

// MemoryStore is the in-process registry of templates, documents and
// compliance forms. It is safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	templates     map[string]*models.Template
	templateOrder []string

	documents     map[string]*models.Document
	documentOrder []string

	forms     map[string]*models.ComplianceForm
	sequences map[int]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[string]*models.Template),
		documents: make(map[string]*models.Document),
		forms:     make(map[string]*models.ComplianceForm),
		sequences: make(map[int]int),
	}
}

func (m *MemoryStore) SaveTemplate(_ context.Context, t *models.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.templates[t.ID]; !exists {
		m.templateOrder = append(m.templateOrder, t.ID)
	}
	m.templates[t.ID] = t.Clone()
	return nil
}

func (m *MemoryStore) GetTemplate(_ context.Context, id string) (*models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return t.Clone(), nil
}

func (m *MemoryStore) ListTemplates(_ context.Context) ([]*models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Template, 0, len(m.templateOrder))
	for _, id := range m.templateOrder {
		out = append(out, m.templates[id].Clone())
	}
	return out, nil
}

func (m *MemoryStore) SaveDocument(_ context.Context, d *models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[d.ID]; !exists {
		m.documentOrder = append(m.documentOrder, d.ID)
	}
	m.documents[d.ID] = d.Clone()
	return nil
}

func (m *MemoryStore) GetDocument(_ context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return d.Clone(), nil
}

func (m *MemoryStore) ListDocuments(_ context.Context, filter models.DocumentFilter) ([]*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.Document{}
	for _, id := range m.documentOrder {
		if d := m.documents[id]; filter.Matches(d) {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[id]; !ok {
		return false, nil
	}
	delete(m.documents, id)
	for i, docID := range m.documentOrder {
		if docID == id {
			m.documentOrder = append(m.documentOrder[:i], m.documentOrder[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryStore) LastFolioSequence(_ context.Context, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sequences[year], nil
}

func (m *MemoryStore) SaveComplianceForm(_ context.Context, year, sequence int, f *models.ComplianceForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.forms[f.Folio]; exists {
		return fmt.Errorf("compliance form %s already exists", f.Folio)
	}
	m.forms[f.Folio] = f.Clone()
	if sequence > m.sequences[year] {
		m.sequences[year] = sequence
	}
	return nil
}

func (m *MemoryStore) GetComplianceForm(_ context.Context, folio string) (*models.ComplianceForm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.forms[folio]
	if !ok {
		return nil, fmt.Errorf("compliance form %s: %w", folio, ErrNotFound)
	}
	return f.Clone(), nil
}
