package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DF-FORMS/internal/models"
)

func validComplianceForm() *models.ComplianceForm {
	return &models.ComplianceForm{
		TenantID: "tenant-1",
		Employer: models.Employer{
			LegalName: "Capacitación Integral SA de CV", TaxID: "cin010101ab1",
			LegalRepresentative: "Laura Méndez", Address: "Av. Reforma 1, CDMX", Phone: "5555555555",
		},
		Training: models.Training{
			Name: "Excel avanzado", DurationHours: 12, StartDate: "2025-01-10", EndDate: "2025-01-20",
			Modality: models.ModalityInPerson, Objective: "Automatizar reportes", Topics: []string{"Tablas"},
		},
		Instructor: models.Instructor{Name: "Pedro Ruiz"},
		Trainee:    models.Trainee{Name: "Ana Torres", PopulationID: "TOAA900101MDFRRN09"},
		Outcome:    models.Outcome{Score: 90, Passed: true},
	}
}

func newComplianceFixture(t *testing.T, withStorage bool) (*exportFixture, *ComplianceService) {
	t.Helper()
	ef := newExportFixture(t, withStorage)
	return ef, NewComplianceService(ef.store, ef.exports, ef.clock.Now)
}

func TestFinalize_AssignsSequentialFolios(t *testing.T) {
	f, svc := newComplianceFixture(t, false)
	ctx := context.Background()

	input := validComplianceForm()
	first, err := svc.Finalize(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "DC3-2025-000001", first.Folio)
	require.NotNil(t, first.IssuedAt)
	assert.Equal(t, f.clock.Now(), *first.IssuedAt)
	assert.Equal(t, "CIN010101AB1", first.Employer.TaxID)
	assert.Empty(t, input.Folio, "the caller's form is not modified")

	second, err := svc.Finalize(ctx, validComplianceForm())
	require.NoError(t, err)
	assert.Equal(t, "DC3-2025-000002", second.Folio)

	got, err := svc.Get(ctx, "DC3-2025-000001")
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestFinalize_ConcurrentFoliosAreUnique(t *testing.T) {
	_, svc := newComplianceFixture(t, false)
	ctx := context.Background()

	const n = 10
	folios := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			form, err := svc.Finalize(ctx, validComplianceForm())
			if assert.NoError(t, err) {
				folios <- form.Folio
			}
		}()
	}
	wg.Wait()
	close(folios)

	seen := map[string]bool{}
	for f := range folios {
		assert.False(t, seen[f], f)
		seen[f] = true
	}
	assert.Len(t, seen, n)
}

func TestFinalize_Rejects(t *testing.T) {
	_, svc := newComplianceFixture(t, false)
	ctx := context.Background()

	bad := validComplianceForm()
	bad.Trainee.PopulationID = "nope"
	bad.Training.Topics = nil
	_, err := svc.Finalize(ctx, bad)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Trainee population id: Invalid format")
	assert.Contains(t, err.Error(), "Training topics: At least one topic is required")
	assert.Len(t, svc.Check(bad), 2)
	assert.Empty(t, svc.Check(validComplianceForm()))

	done, err := svc.Finalize(ctx, validComplianceForm())
	require.NoError(t, err)
	_, err = svc.Finalize(ctx, done)
	assert.ErrorIs(t, err, ErrInvalidInput, "already finalized")

	_, err = svc.Get(ctx, "DC3-1999-000001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComplianceExport(t *testing.T) {
	f, svc := newComplianceFixture(t, true)
	ctx := context.Background()

	form, err := svc.Finalize(ctx, validComplianceForm())
	require.NoError(t, err)

	res, err := svc.Export(ctx, form.Folio, models.FormatHTML, models.ExportOptions{Store: true})
	require.NoError(t, err)
	assert.Contains(t, res.Text(), form.Folio)
	assert.Contains(t, res.Text(), "https://forms.test/verify/"+form.Folio)
	assert.Equal(t, "compliance/DC3-2025-000001/dc3-2025-000001.html", res.StoragePath)
	assert.Contains(t, f.storage.objects, res.StoragePath)

	preview, err := svc.Preview(ctx, validComplianceForm(), models.FormatHTML, models.ExportOptions{Store: true})
	require.NoError(t, err)
	assert.Empty(t, preview.StoragePath, "previews are never stored")
	assert.NotEmpty(t, preview.Note)

	_, err = svc.Export(ctx, "DC3-2025-999999", models.FormatHTML, models.ExportOptions{})
	assert.ErrorIs(t, err, ErrNotFound)
}
