package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DF-FORMS/internal/config"
	"DF-FORMS/internal/models"
)

func TestDocumentLifecycle_RoundTrip(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))

	doc := f.create(t, "t1", nil)
	assert.Equal(t, models.StatusDraft, doc.Status)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, 0, doc.CompletionPercentage)
	assert.Equal(t, "", doc.Data["s1"], "sections are seeded with their defaults")
	assert.Equal(t, "Summary t1", doc.Title)

	doc, err := f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{Data: map[string]any{"s1": "hello!"}})
	require.NoError(t, err)
	assert.Equal(t, 100, doc.CompletionPercentage)
	assert.Equal(t, models.StatusCompleted, doc.Status)
	assert.Equal(t, 2, doc.Version)

	f.clock.Advance(time.Minute)
	doc, err = f.documents.SubmitDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, doc.Status)
	require.NotNil(t, doc.SubmittedAt)
	assert.Equal(t, f.clock.Now(), *doc.SubmittedAt)
	require.NotNil(t, doc.Metadata.LastValidation)
	assert.True(t, doc.Metadata.LastValidation.Valid)

	doc, err = f.documents.ApproveDocument(ctx, doc.ID, "reviewer-1", "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, doc.Status)
	assert.Equal(t, "reviewer-1", doc.ReviewerID)
	assert.NotNil(t, doc.ApprovedAt)
	assert.NotNil(t, doc.ReviewedAt)

	stored, err := f.documents.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, stored)
}

func TestCreateDocument_Errors(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))

	_, err := f.documents.CreateDocument(ctx, CreateDocumentRequest{TemplateID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.documents.CreateDocument(ctx, CreateDocumentRequest{TemplateID: "t1", Data: map[string]any{"bogus": 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateDocument_StartsAtZeroCompletion(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, planTemplate())

	doc := f.create(t, "plan", map[string]any{"goal": "Teach spreadsheets"})
	assert.Equal(t, 0, doc.CompletionPercentage)
	assert.Equal(t, models.StatusDraft, doc.Status, "creation always starts as draft")
	assert.Equal(t, "Teach spreadsheets", doc.Data["goal"])
	assert.Equal(t, []any{}, doc.Data["topics"])

	doc, err := f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{})
	require.NoError(t, err)
	assert.Equal(t, 67, doc.CompletionPercentage, "the first update counts the initial data")
	assert.Equal(t, models.StatusInProgress, doc.Status)
}

func TestCreateDocument_OptionalOnlyTemplate(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	f.register(t, &models.Template{ID: "opt", Name: "Optional", Sections: []*models.Section{
		{ID: "notes", Title: "Notes", Type: models.SectionText},
	}})

	doc := f.create(t, "opt", nil)
	assert.Equal(t, 0, doc.CompletionPercentage)
	assert.Equal(t, models.StatusDraft, doc.Status)

	doc, err := f.documents.UpdateDocument(context.Background(), doc.ID, UpdateDocumentRequest{})
	require.NoError(t, err)
	assert.Equal(t, 100, doc.CompletionPercentage)
	assert.Equal(t, models.StatusCompleted, doc.Status)
}

func TestCreateDocument_SeedsEveryType(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	tmpl := &models.Template{ID: "all", Name: "All types"}
	for _, st := range models.AllSectionTypes() {
		tmpl.Sections = append(tmpl.Sections, &models.Section{ID: string(st), Title: string(st), Type: st})
	}
	f.register(t, tmpl)

	doc := f.create(t, "all", nil)
	for _, st := range models.AllSectionTypes() {
		assert.Equal(t, models.DefaultValue(st), doc.Data[string(st)], st)
	}
	assert.Equal(t, 0, doc.CompletionPercentage, "completion is computed on the first update")
}

func TestUpdateDocument_VersionAndMetadata(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, planTemplate())
	doc := f.create(t, "plan", nil)

	doc, err := f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version, "an empty update still bumps the version")
	assert.Equal(t, 33, doc.CompletionPercentage, "the optional section counts as complete")
	assert.Equal(t, models.StatusInProgress, doc.Status)

	doc, err = f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{
		Data:             map[string]any{"goal": "Teach spreadsheets"},
		EditedSectionID:  "goal",
		TimeSpentSeconds: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Version)
	assert.Equal(t, 67, doc.CompletionPercentage)
	assert.Equal(t, models.StatusInProgress, doc.Status)
	assert.Equal(t, "goal", doc.Metadata.LastEditedSection)

	doc, err = f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{
		Data:             map[string]any{"topics": []any{"Formulas"}},
		TimeSpentSeconds: 15,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(45), doc.Metadata.TimeSpentSeconds)
	assert.Equal(t, "goal", doc.Metadata.LastEditedSection, "kept when not supplied")
	assert.Equal(t, "Teach spreadsheets", doc.Data["goal"], "merge is shallow and keeps other keys")
	assert.Equal(t, models.StatusCompleted, doc.Status)
}

func TestUpdateDocument_RejectsBadInput(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, planTemplate())
	doc := f.create(t, "plan", nil)

	_, err := f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{Data: map[string]any{"nope": "x"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{EditedSectionID: "nope"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{TimeSpentSeconds: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.documents.UpdateDocument(ctx, "missing", UpdateDocumentRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := f.documents.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version, "rejected updates leave the document untouched")
}

func TestUpdateDocument_StatusOnlyAdvances(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, planTemplate())
	doc := f.create(t, "plan", nil)

	doc, err := f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{Data: map[string]any{
		"goal": "Teach spreadsheets", "topics": []any{"Formulas"},
	}})
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, doc.Status)

	doc, err = f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{Data: map[string]any{"topics": []any{}}})
	require.NoError(t, err)
	assert.Equal(t, 67, doc.CompletionPercentage)
	assert.Equal(t, models.StatusCompleted, doc.Status)

	doc, err = f.documents.SubmitDocument(ctx, doc.ID)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestUpdateDocument_AfterSubmitKeepsStatus(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))
	doc := f.create(t, "t1", map[string]any{"s1": "hello!"})

	_, err := f.documents.SubmitDocument(ctx, doc.ID)
	require.NoError(t, err)

	doc, err = f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{Data: map[string]any{"s1": ""}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, doc.Status)
	assert.Equal(t, 0, doc.CompletionPercentage)
}

func TestSubmitDocument_StrictBlocksInvalid(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))
	doc := f.create(t, "t1", map[string]any{"s1": "hi"})

	_, err := f.documents.SubmitDocument(ctx, doc.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)

	var vf *ValidationFailedError
	require.True(t, errors.As(err, &vf))
	assert.False(t, vf.Result.Valid)
	require.Len(t, vf.Result.Errors, 1)
	assert.Equal(t, "s1", vf.Result.Errors[0].SectionID)
	assert.Equal(t, []string{"Must be at least 5 characters (currently 2)"}, vf.Result.Errors[0].Messages)

	stored, err := f.documents.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Nil(t, stored.SubmittedAt)
	assert.Equal(t, 1, stored.Version)
	require.NotNil(t, stored.Metadata.LastValidation, "the failed validation is cached")
	assert.False(t, stored.Metadata.LastValidation.Valid)
}

func TestSubmitDocument_Lenient(t *testing.T) {
	f := newFixture(t, config.SubmissionLenient)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))
	doc := f.create(t, "t1", nil)

	doc, err := f.documents.SubmitDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, doc.Status)
	require.NotNil(t, doc.Metadata.LastValidation)
	assert.False(t, doc.Metadata.LastValidation.Valid)
}

func TestSubmitDocument_Twice(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))
	doc := f.create(t, "t1", map[string]any{"s1": "hello!"})

	_, err := f.documents.SubmitDocument(ctx, doc.ID)
	require.NoError(t, err)
	_, err = f.documents.SubmitDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.documents.ApproveDocument(ctx, doc.ID, "r", "")
	require.NoError(t, err)
	_, err = f.documents.SubmitDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReview(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))
	doc := f.create(t, "t1", map[string]any{"s1": "hello!"})
	_, err := f.documents.SubmitDocument(ctx, doc.ID)
	require.NoError(t, err)

	_, err = f.documents.RejectDocument(ctx, doc.ID, "reviewer-1", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.documents.RejectDocument(ctx, "missing", "reviewer-1", "no")
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err = f.documents.RejectDocument(ctx, doc.ID, "reviewer-1", "Missing evidence")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, doc.Status)
	assert.Equal(t, "Missing evidence", doc.ReviewNotes)
	assert.Nil(t, doc.ApprovedAt)
	assert.NotNil(t, doc.ReviewedAt)
}

func TestApprove_WithoutSubmission(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	f.register(t, summaryTemplate("t1"))
	doc := f.create(t, "t1", nil)

	doc, err := f.documents.ApproveDocument(context.Background(), doc.ID, "reviewer-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, doc.Status)
}

func TestReview_BlankReviewerIsRecorded(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))
	doc := f.create(t, "t1", nil)

	doc, err := f.documents.ApproveDocument(ctx, doc.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, doc.Status)
	assert.Empty(t, doc.ReviewerID)

	doc, err = f.documents.RejectDocument(ctx, doc.ID, " ", "Missing evidence")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, doc.Status)
}

func TestSubmitDocument_StrictIgnoresUntouchedOptionalComposites(t *testing.T) {
	optional := map[string]*models.Section{
		"form_fields": {
			ID: "contact", Title: "Contact", Type: models.SectionFormFields,
			Fields: []models.FormField{{ID: "email", Label: "Email", Type: models.FieldEmail, Required: true}},
		},
		"structured": {
			ID: "extra", Title: "Extra", Type: models.SectionStructured,
			Subsections: []*models.Section{{
				ID: "detail", Title: "Detail", Type: models.SectionText, Required: true,
				Validation: &models.ValidationRules{MinLength: intPtr(5)},
			}},
		},
	}
	for name, section := range optional {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, config.SubmissionStrict)
			ctx := context.Background()
			tmpl := summaryTemplate("t1")
			tmpl.Sections = append(tmpl.Sections, section)
			f.register(t, tmpl)

			doc := f.create(t, "t1", nil)
			doc, err := f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{Data: map[string]any{"s1": "hello world"}})
			require.NoError(t, err)
			require.Equal(t, 100, doc.CompletionPercentage)
			require.Equal(t, models.StatusCompleted, doc.Status)

			doc, err = f.documents.SubmitDocument(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusSubmitted, doc.Status)
			assert.True(t, doc.Metadata.LastValidation.Valid)
		})
	}
}

func TestValidateDocument_CachesWithoutBumping(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, planTemplate())
	doc := f.create(t, "plan", map[string]any{"goal": "abc"})

	result, err := f.documents.ValidateDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, 2, result.SectionsWithErrors)
	assert.Equal(t, 3, result.SectionsValidated)
	assert.Equal(t, f.clock.Now(), result.ValidatedAt)

	stored, err := f.documents.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, models.StatusDraft, stored.Status)
	assert.Equal(t, result, stored.Metadata.LastValidation)
}

func TestGetCompletion(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	f.register(t, planTemplate())
	doc := f.create(t, "plan", map[string]any{"topics": []any{"x"}})

	report, err := f.documents.GetCompletion(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, report.CompletionPercentage)
	require.Len(t, report.Sections, 3)
	assert.False(t, report.Sections[0].Complete)
	assert.True(t, report.Sections[1].Complete)
	assert.True(t, report.Sections[2].Complete, "optional sections are always complete")
	assert.False(t, report.Sections[2].Required)
}

func TestListAndDeleteDocuments(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, summaryTemplate("t1"))
	f.register(t, planTemplate())
	a := f.create(t, "t1", nil)
	f.create(t, "plan", nil)

	docs, err := f.documents.ListDocuments(ctx, models.DocumentFilter{TemplateID: "t1"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, a.ID, docs[0].ID)

	existed, err := f.documents.DeleteDocument(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, existed)
	existed, err = f.documents.DeleteDocument(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = f.documents.GetDocument(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDocument_ConcurrentUpdatesAreSerialized(t *testing.T) {
	f := newFixture(t, config.SubmissionStrict)
	ctx := context.Background()
	f.register(t, planTemplate())
	doc := f.create(t, "plan", nil)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.documents.UpdateDocument(ctx, doc.ID, UpdateDocumentRequest{TimeSpentSeconds: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.documents.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1+writers, stored.Version)
	assert.Equal(t, int64(writers), stored.Metadata.TimeSpentSeconds)
	assert.Equal(t, 0, f.documents.locks.size())
}
