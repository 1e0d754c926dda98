package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DF-FORMS/internal/config"
	"DF-FORMS/internal/models"
)

func TestRegisterTemplate_Invalid(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()

	cases := map[string]*models.Template{
		"no id":          {Name: "x", Sections: []*models.Section{{ID: "a", Title: "A", Type: models.SectionText}}},
		"no sections":    {ID: "x", Name: "x"},
		"unknown type":   {ID: "x", Name: "x", Sections: []*models.Section{{ID: "a", Title: "A", Type: "video"}}},
		"duplicate ids":  {ID: "x", Name: "x", Sections: []*models.Section{{ID: "a", Title: "A", Type: models.SectionText}, {ID: "a", Title: "B", Type: models.SectionText}}},
		"missing title":  {ID: "x", Name: "x", Sections: []*models.Section{{ID: "a", Type: models.SectionText}}},
		"bad pattern":    {ID: "x", Name: "x", Sections: []*models.Section{{ID: "a", Title: "A", Type: models.SectionText, Validation: &models.ValidationRules{Pattern: "("}}}},
		"inverted range": {ID: "x", Name: "x", Sections: []*models.Section{{ID: "a", Title: "A", Type: models.SectionList, Validation: &models.ValidationRules{MinItems: intPtr(3), MaxItems: intPtr(1)}}}},
	}
	for name, tmpl := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.templates.RegisterTemplate(ctx, tmpl)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.ErrorIs(t, err, models.ErrInvalidTemplate)
		})
	}

	all, err := f.templates.ListTemplates(ctx, models.TemplateFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRegisterTemplate_ReplaceKeepsPositionAndCreatedAt(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()

	first := f.register(t, summaryTemplate("a"))
	f.register(t, summaryTemplate("b"))
	assert.Equal(t, models.CategoryCustom, first.Category)

	f.clock.Advance(time.Hour)
	replacement := summaryTemplate("a")
	replacement.Name = "Renamed"
	replaced := f.register(t, replacement)
	assert.Equal(t, first.CreatedAt, replaced.CreatedAt)
	assert.Equal(t, f.clock.Now(), replaced.UpdatedAt)

	all, err := f.templates.ListTemplates(ctx, models.TemplateFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "Renamed", all[0].Name)
}

func TestRegisterTemplate_CopiesInput(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	tmpl := summaryTemplate("a")
	f.register(t, tmpl)

	tmpl.Sections[0].Title = "Mutated"
	got, err := f.templates.GetTemplate(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "Summary", got.Sections[0].Title)
}

func TestListTemplates_FilterKeepsOrder(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	for _, c := range []struct {
		id  string
		cat models.TemplateCategory
	}{
		{"one", models.CategoryEvaluation},
		{"two", models.CategoryCertificate},
		{"three", models.CategoryEvaluation},
	} {
		tmpl := summaryTemplate(c.id)
		tmpl.Category = c.cat
		f.register(t, tmpl)
	}

	got, err := f.templates.ListTemplates(ctx, models.TemplateFilter{Category: models.CategoryEvaluation})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].ID)
	assert.Equal(t, "three", got[1].ID)

	got, err = f.templates.ListTemplates(ctx, models.TemplateFilter{Category: models.CategoryTrainingMaterial})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetTemplate_NotFound(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	_, err := f.templates.GetTemplate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadSystemTemplates(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()

	n, err := f.templates.LoadSystemTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := f.templates.ListTemplates(ctx, models.TemplateFilter{StandardCode: "EC0217"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, tmpl := range got {
		assert.True(t, tmpl.IsSystem())
	}

	n, err = f.templates.LoadSystemTemplates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	all, err := f.templates.ListTemplates(ctx, models.TemplateFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "reloading replaces in place")
}
