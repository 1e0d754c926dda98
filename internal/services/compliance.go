package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"DF-FORMS/internal/models"
	"DF-FORMS/internal/store"
)

// folioFormat renders DC3-<year>-<sequence>, the sequence restarting each year.
const folioFormat = "DC3-%d-%06d"

// ComplianceService validates compliance forms and issues folios.
type ComplianceService struct {
	store   store.ComplianceStore
	exports *ExportService
	now     func() time.Time

	// mu serializes folio allocation within this process; the store's
	// unique (year, sequence) index catches collisions across processes.
	mu sync.Mutex
}

func NewComplianceService(complianceStore store.ComplianceStore, exports *ExportService, clock func() time.Time) *ComplianceService {
	if clock == nil {
		clock = time.Now
	}
	return &ComplianceService{store: complianceStore, exports: exports, now: clock}
}

// Check returns the form's problems without side effects.
func (s *ComplianceService) Check(form *models.ComplianceForm) []string {
	problems := form.Validate()
	if problems == nil {
		problems = []string{}
	}
	return problems
}

// Finalize validates the form, assigns the next folio of the current year and
// stores it. The caller's form is not modified.
func (s *ComplianceService) Finalize(ctx context.Context, form *models.ComplianceForm) (*models.ComplianceForm, error) {
	if form.Folio != "" || form.IssuedAt != nil {
		return nil, invalidInput("form already carries folio %q", form.Folio)
	}
	if problems := form.Validate(); len(problems) > 0 {
		return nil, invalidInput("%s", strings.Join(problems, "; "))
	}

	out := form.Clone()
	out.Employer.TaxID = strings.ToUpper(out.Employer.TaxID)
	out.Trainee.PopulationID = strings.ToUpper(out.Trainee.PopulationID)

	s.mu.Lock()
	defer s.mu.Unlock()

	issued := s.now().UTC()
	year := issued.Year()
	last, err := s.store.LastFolioSequence(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to read folio sequence: %w", err)
	}
	seq := last + 1
	out.Folio = fmt.Sprintf(folioFormat, year, seq)
	out.IssuedAt = &issued

	if err := s.store.SaveComplianceForm(ctx, year, seq, out); err != nil {
		return nil, fmt.Errorf("failed to save compliance form: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"folio":     out.Folio,
		"tenant_id": out.TenantID,
		"training":  out.Training.Name,
	}).Info("compliance form finalized")
	return out, nil
}

func (s *ComplianceService) Get(ctx context.Context, folio string) (*models.ComplianceForm, error) {
	form, err := s.store.GetComplianceForm(ctx, folio)
	if err != nil {
		return nil, notFound("compliance form", folio, err)
	}
	return form, nil
}

// Export renders a finalized form.
func (s *ComplianceService) Export(ctx context.Context, folio string, format models.ExportFormat, opts models.ExportOptions) (*models.ExportResult, error) {
	form, err := s.Get(ctx, folio)
	if err != nil {
		return nil, err
	}
	return s.exports.ExportCompliance(ctx, form, format, opts)
}

// Preview renders a form that has not been finalized. Nothing is stored.
func (s *ComplianceService) Preview(ctx context.Context, form *models.ComplianceForm, format models.ExportFormat, opts models.ExportOptions) (*models.ExportResult, error) {
	opts.Store = false
	return s.exports.ExportCompliance(ctx, form, format, opts)
}
