package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout is the calendar date format used throughout the compliance form.
const DateLayout = "2006-01-02"

// Modality represents how a training course was delivered
type Modality string

const (
	ModalityInPerson Modality = "presencial"
	ModalityVirtual  Modality = "virtual"
	ModalityHybrid   Modality = "hibrido"
)

var (
	// Registro Federal de Contribuyentes: 12 chars for companies, 13 for people.
	taxIDPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}$`)
	// Clave Única de Registro de Población.
	populationIDPattern = regexp.MustCompile(`^[A-Z]{4}\d{6}[HMX][A-Z]{5}[0-9A-Z]\d$`)
)

// Employer identifies the company that provided the training.
type Employer struct {
	LegalName           string `json:"legalName"`
	TaxID               string `json:"taxId"`
	LegalRepresentative string `json:"legalRepresentative"`
	Address             string `json:"address"`
	Phone               string `json:"phone"`
}

// Training describes the course the trainee completed.
type Training struct {
	Name          string   `json:"name"`
	DurationHours float64  `json:"durationHours"`
	StartDate     string   `json:"startDate"`
	EndDate       string   `json:"endDate"`
	Modality      Modality `json:"modality"`
	Objective     string   `json:"objective"`
	Topics        []string `json:"topics"`
	ThematicArea  string   `json:"thematicArea,omitempty"`
}

// Instructor identifies who delivered the training.
type Instructor struct {
	Name              string `json:"name"`
	PersonalID        string `json:"personalId,omitempty"`
	TaxID             string `json:"taxId,omitempty"`
	LaborRegistration string `json:"laborRegistration,omitempty"` // training-agent registration with the labor authority
}

// Trainee identifies the worker who received the training.
type Trainee struct {
	Name         string `json:"name"`
	PopulationID string `json:"populationId"`
	JobTitle     string `json:"jobTitle,omitempty"`
	Area         string `json:"area,omitempty"`
}

// Outcome records the evaluation result.
type Outcome struct {
	Score   float64 `json:"score"`
	Passed  bool    `json:"passed"`
	Remarks string  `json:"remarks,omitempty"`
}

// ComplianceForm is the fixed-shape training completion record mandated by
// the labor authority. It does not use the generic section model.
type ComplianceForm struct {
	Folio      string     `json:"folio,omitempty"`
	IssuedAt   *time.Time `json:"issuedAt,omitempty"`
	TenantID   string     `json:"tenantId,omitempty"`
	Employer   Employer   `json:"employer"`
	Training   Training   `json:"training"`
	Instructor Instructor `json:"instructor"`
	Trainee    Trainee    `json:"trainee"`
	Outcome    Outcome    `json:"outcome"`
}

// Finalized reports whether a folio and issuance date were assigned.
func (f *ComplianceForm) Finalized() bool {
	return f.Folio != "" && f.IssuedAt != nil
}

// Validate returns every problem found in the form; an empty slice means the
// form can be finalized.
func (f *ComplianceForm) Validate() []string {
	var problems []string
	required := func(label, v string) {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, label+": This field is required")
		}
	}

	required("Employer legal name", f.Employer.LegalName)
	required("Employer tax id", f.Employer.TaxID)
	if f.Employer.TaxID != "" && !taxIDPattern.MatchString(strings.ToUpper(f.Employer.TaxID)) {
		problems = append(problems, "Employer tax id: Invalid format")
	}
	required("Employer legal representative", f.Employer.LegalRepresentative)
	required("Employer address", f.Employer.Address)
	required("Employer phone", f.Employer.Phone)

	required("Training name", f.Training.Name)
	if f.Training.DurationHours <= 0 {
		problems = append(problems, "Training duration: Must be greater than zero hours")
	}
	start, startErr := time.Parse(DateLayout, f.Training.StartDate)
	if startErr != nil {
		problems = append(problems, "Training start date: Invalid date")
	}
	end, endErr := time.Parse(DateLayout, f.Training.EndDate)
	if endErr != nil {
		problems = append(problems, "Training end date: Invalid date")
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		problems = append(problems, "Training end date: Must not be before the start date")
	}
	switch f.Training.Modality {
	case ModalityInPerson, ModalityVirtual, ModalityHybrid:
	default:
		problems = append(problems, fmt.Sprintf("Training modality: Unknown modality %q", f.Training.Modality))
	}
	required("Training objective", f.Training.Objective)
	if len(f.Training.Topics) == 0 {
		problems = append(problems, "Training topics: At least one topic is required")
	}

	required("Instructor name", f.Instructor.Name)
	if f.Instructor.PersonalID != "" && !populationIDPattern.MatchString(strings.ToUpper(f.Instructor.PersonalID)) {
		problems = append(problems, "Instructor personal id: Invalid format")
	}
	if f.Instructor.TaxID != "" && !taxIDPattern.MatchString(strings.ToUpper(f.Instructor.TaxID)) {
		problems = append(problems, "Instructor tax id: Invalid format")
	}

	required("Trainee name", f.Trainee.Name)
	required("Trainee population id", f.Trainee.PopulationID)
	if f.Trainee.PopulationID != "" && !populationIDPattern.MatchString(strings.ToUpper(f.Trainee.PopulationID)) {
		problems = append(problems, "Trainee population id: Invalid format")
	}

	if f.Outcome.Score < 0 || f.Outcome.Score > 100 {
		problems = append(problems, "Outcome score: Must be between 0 and 100")
	}
	return problems
}

// Clone returns a deep copy of the form.
func (f *ComplianceForm) Clone() *ComplianceForm {
	if f == nil {
		return nil
	}
	out := *f
	out.IssuedAt = cloneTime(f.IssuedAt)
	out.Training.Topics = cloneStrings(f.Training.Topics)
	return &out
}
