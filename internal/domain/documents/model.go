package documents

import (
	"net/url"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/internal/platform/validate"
)

type PatientSummary struct {
	ID        resource.ID `json:"id"`
	FirstName string      `json:"nombre"`
	LastName  string      `json:"apellido"`
}

// MedicalRecord is the historial médico opened once per patient.
type MedicalRecord struct {
	resource.Record
	Number       string          `json:"numero_historial"`
	GeneralNotes *string         `json:"notas_generales,omitempty"`
	PatientID    string          `json:"paciente_id"`
	Status       string          `json:"estado"`
	Patient      *PatientSummary `json:"paciente,omitempty"`
}

type CreateMedicalRecordRequest struct {
	resource.CreatedBy
	Number       string  `json:"numero_historial"`
	GeneralNotes *string `json:"notas_generales,omitempty"`
	PatientID    string  `json:"paciente_id"`
}

func (r CreateMedicalRecordRequest) Validate() error {
	var v validate.Checker
	v.Required("numero_historial", r.Number)
	checkRecordNumber(&v, r.Number)
	checkGeneralNotes(&v, r.GeneralNotes)
	v.Required("paciente_id", r.PatientID)
	return v.Err()
}

type UpdateMedicalRecordRequest struct {
	resource.EditedByField
	Number       *string `json:"numero_historial,omitempty"`
	GeneralNotes *string `json:"notas_generales,omitempty"`
	Status       *string `json:"estado,omitempty"`
}

func (r UpdateMedicalRecordRequest) Validate() error {
	var v validate.Checker
	if r.Number != nil {
		v.Required("numero_historial", *r.Number)
		checkRecordNumber(&v, *r.Number)
	}
	checkGeneralNotes(&v, r.GeneralNotes)
	return v.Err()
}

func checkRecordNumber(v *validate.Checker, n string) {
	v.MinLen("numero_historial", n, 3)
	v.MaxLen("numero_historial", n, 50)
}

func checkGeneralNotes(v *validate.Checker, notes *string) {
	if notes != nil {
		v.MaxLen("notas_generales", *notes, 1000)
	}
}

type MedicalRecordFilter struct {
	PatientID string
	Number    string
}

func (f MedicalRecordFilter) Params() apiclient.Params {
	return apiclient.Params{
		"paciente_id":      f.PatientID,
		"numero_historial": f.Number,
	}
}

func ParseMedicalRecordFilter(q url.Values) MedicalRecordFilter {
	return MedicalRecordFilter{
		PatientID: q.Get("paciente_id"),
		Number:    q.Get("numero_historial"),
	}
}

type RecordSummary struct {
	ID     resource.ID `json:"id"`
	Number string      `json:"numero_historial"`
}

type PhysicianSummary struct {
	ID        resource.ID `json:"id"`
	FirstName string      `json:"nombre"`
	LastName  string      `json:"apellido"`
}

// RecordEntry is one consultation appended to a medical record.
type RecordEntry struct {
	resource.Record
	ConsultedAt     string            `json:"fecha_consulta"`
	Diagnosis       string            `json:"diagnostico"`
	Treatment       *string           `json:"tratamiento,omitempty"`
	Observations    *string           `json:"observaciones,omitempty"`
	MedicalRecordID string            `json:"historial_medico_id"`
	PhysicianID     string            `json:"medico_id"`
	MedicalRecord   *RecordSummary    `json:"historial_medico,omitempty"`
	Physician       *PhysicianSummary `json:"medico,omitempty"`
}

type CreateRecordEntryRequest struct {
	resource.CreatedBy
	ConsultedAt     string  `json:"fecha_consulta"`
	Diagnosis       string  `json:"diagnostico"`
	Treatment       *string `json:"tratamiento,omitempty"`
	Observations    *string `json:"observaciones,omitempty"`
	MedicalRecordID string  `json:"historial_medico_id"`
	PhysicianID     string  `json:"medico_id"`
}

func (r CreateRecordEntryRequest) Validate() error {
	var v validate.Checker
	v.Required("fecha_consulta", r.ConsultedAt)
	v.Required("diagnostico", r.Diagnosis)
	checkEntryText(&v, &r.Diagnosis, r.Treatment, r.Observations)
	v.Required("historial_medico_id", r.MedicalRecordID)
	v.Required("medico_id", r.PhysicianID)
	return v.Err()
}

type UpdateRecordEntryRequest struct {
	resource.EditedByField
	ConsultedAt  *string `json:"fecha_consulta,omitempty"`
	Diagnosis    *string `json:"diagnostico,omitempty"`
	Treatment    *string `json:"tratamiento,omitempty"`
	Observations *string `json:"observaciones,omitempty"`
}

func (r UpdateRecordEntryRequest) Validate() error {
	var v validate.Checker
	checkEntryText(&v, r.Diagnosis, r.Treatment, r.Observations)
	return v.Err()
}

func checkEntryText(v *validate.Checker, diagnosis, treatment, observations *string) {
	if diagnosis != nil {
		v.MinLen("diagnostico", *diagnosis, 3)
		v.MaxLen("diagnostico", *diagnosis, 255)
	}
	if treatment != nil {
		v.MaxLen("tratamiento", *treatment, 500)
	}
	if observations != nil {
		v.MaxLen("observaciones", *observations, 500)
	}
}

type RecordEntryFilter struct {
	MedicalRecordID string
	PhysicianID     string
}

func (f RecordEntryFilter) Params() apiclient.Params {
	return apiclient.Params{
		"historial_medico_id": f.MedicalRecordID,
		"medico_id":           f.PhysicianID,
	}
}

func ParseRecordEntryFilter(q url.Values) RecordEntryFilter {
	return RecordEntryFilter{
		MedicalRecordID: q.Get("historial_medico_id"),
		PhysicianID:     q.Get("medico_id"),
	}
}
