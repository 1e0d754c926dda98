package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"DF-FORMS/internal/config"
	"DF-FORMS/internal/models"
	"DF-FORMS/internal/store"
)

func intPtr(v int) *int { return &v }

// testClock is a manually advanced clock.
type testClock struct{ t time.Time }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store     *store.MemoryStore
	templates *TemplateService
	documents *DocumentService
	clock     *testClock
}

func newFixture(t *testing.T, mode config.SubmissionMode) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	clock := newTestClock()
	templates := NewTemplateService(st, 0)
	templates.now = clock.Now
	return &fixture{
		store:     st,
		templates: templates,
		documents: NewDocumentService(st, templates, DocumentOptions{SubmissionMode: mode, Clock: clock.Now}),
		clock:     clock,
	}
}

// summaryTemplate has a single required text section with minLength 5.
func summaryTemplate(id string) *models.Template {
	return &models.Template{
		ID:   id,
		Name: "Summary " + id,
		Sections: []*models.Section{{
			ID: "s1", Title: "Summary", Type: models.SectionText, Required: true,
			Validation: &models.ValidationRules{MinLength: intPtr(5)},
		}},
	}
}

// planTemplate has two required sections and one optional one.
func planTemplate() *models.Template {
	return &models.Template{
		ID:       "plan",
		Name:     "Course plan",
		Category: models.CategoryComplianceDeliverable,
		Sections: []*models.Section{
			{ID: "goal", Title: "Goal", Type: models.SectionText, Required: true, Validation: &models.ValidationRules{MinLength: intPtr(5)}},
			{ID: "topics", Title: "Topics", Type: models.SectionList, Required: true},
			{ID: "notes", Title: "Notes", Type: models.SectionTextarea},
		},
	}
}

func (f *fixture) register(t *testing.T, tmpl *models.Template) *models.Template {
	t.Helper()
	out, err := f.templates.RegisterTemplate(context.Background(), tmpl)
	require.NoError(t, err)
	return out
}

func (f *fixture) create(t *testing.T, templateID string, data map[string]any) *models.Document {
	t.Helper()
	doc, err := f.documents.CreateDocument(context.Background(), CreateDocumentRequest{
		TemplateID: templateID, TenantID: "tenant-1", AuthorID: "author-1", Data: data,
	})
	require.NoError(t, err)
	return doc
}
