package export

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"DF-FORMS/internal/models"
)

// complianceView feeds the fixed DC-3 layout.
type complianceView struct {
	Form      *models.ComplianceForm
	Options   models.ExportOptions
	PageCSS   template.CSS
	IssuedAt  string
	Duration  string
	Modality  string
	Score     string
	VerifyURL string
	QRCode    template.URL // data URI of the folio verification code
}

var modalityLabels = map[models.Modality]string{
	models.ModalityInPerson: "Presencial",
	models.ModalityVirtual:  "En línea",
	models.ModalityHybrid:   "Mixta",
}

func buildComplianceView(form *models.ComplianceForm, opts models.ExportOptions, verifyBase string) (*complianceView, error) {
	view := &complianceView{
		Form:     form,
		Options:  opts,
		PageCSS:  pageCSS(opts),
		Duration: strconv.FormatFloat(form.Training.DurationHours, 'f', -1, 64),
		Modality: modalityLabels[form.Training.Modality],
		Score:    strconv.FormatFloat(form.Outcome.Score, 'f', -1, 64),
	}
	if form.IssuedAt != nil {
		view.IssuedAt = form.IssuedAt.Format(models.DateLayout)
	}
	if form.Folio != "" {
		view.VerifyURL = strings.TrimRight(verifyBase, "/") + "/" + form.Folio
		png, err := qrcode.Encode(view.VerifyURL, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to encode folio qr: %w", err)
		}
		view.QRCode = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}
	return view, nil
}

// complianceDOCX lays out the same blocks as the HTML form as paragraphs and
// two-column tables.
func complianceDOCX(view *complianceView) ([]byte, error) {
	f := view.Form
	var b docxBody

	b.paragraph("Title", "FORMATO DC-3 · CONSTANCIA DE COMPETENCIAS O DE HABILIDADES LABORALES", false)
	folio := "Folio: " + f.Folio
	if view.IssuedAt != "" {
		folio += " · Fecha de expedición: " + view.IssuedAt
	}
	b.paragraph("", folio, false)

	b.paragraph("Heading1", "DATOS DEL TRABAJADOR", false)
	b.table(nil, [][]string{
		{"Nombre", f.Trainee.Name},
		{"CURP", f.Trainee.PopulationID},
		{"Ocupación específica", f.Trainee.JobTitle},
		{"Puesto / área", f.Trainee.Area},
	})

	b.paragraph("Heading1", "DATOS DE LA EMPRESA", false)
	b.table(nil, [][]string{
		{"Nombre o razón social", f.Employer.LegalName},
		{"RFC", f.Employer.TaxID},
		{"Domicilio", f.Employer.Address},
		{"Teléfono", f.Employer.Phone},
	})

	b.paragraph("Heading1", "DATOS DEL PROGRAMA DE CAPACITACIÓN, ADIESTRAMIENTO Y PRODUCTIVIDAD", false)
	b.table(nil, [][]string{
		{"Nombre del curso", f.Training.Name},
		{"Duración en horas", view.Duration},
		{"Periodo de ejecución", fmt.Sprintf("De %s a %s", f.Training.StartDate, f.Training.EndDate)},
		{"Modalidad", view.Modality},
		{"Área temática", f.Training.ThematicArea},
		{"Objetivo", f.Training.Objective},
		{"Temario", strings.Join(f.Training.Topics, "; ")},
		{"Agente capacitador", f.Instructor.Name},
		{"Registro del agente capacitador", f.Instructor.LaborRegistration},
	})

	b.paragraph("Heading1", "RESULTADO", false)
	result := "No aprobado"
	if f.Outcome.Passed {
		result = "Aprobado"
	}
	b.table(nil, [][]string{{"Calificación", view.Score}, {"Resultado", result}, {"Observaciones", f.Outcome.Remarks}})

	b.paragraph("", "", false)
	b.table([]string{"Instructor o tutor", "Patrón o representante legal", "Representante de los trabajadores"},
		[][]string{{f.Instructor.Name, f.Employer.LegalRepresentative, ""}})
	if view.VerifyURL != "" {
		b.paragraph("", "Verificación: "+view.VerifyURL, true)
	}
	return writeDOCX(b.String(), view.Options)
}
