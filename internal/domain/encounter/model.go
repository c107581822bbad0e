package encounter

import (
	"net/url"
	"strings"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/internal/platform/validate"
)

// PersonSummary is the patient, physician or nurse the backend may embed.
type PersonSummary struct {
	ID        resource.ID `json:"id"`
	FirstName string      `json:"nombre"`
	LastName  string      `json:"apellido"`
}

// Hospitalization is an inpatient stay.
type Hospitalization struct {
	resource.Record
	AdmittedAt   string         `json:"fecha_ingreso"`
	DischargedAt *string        `json:"fecha_salida,omitempty"`
	Reason       string         `json:"motivo"`
	Room         string         `json:"numero_habitacion"`
	Notes        *string        `json:"notas,omitempty"`
	PatientID    string         `json:"paciente_id"`
	PhysicianID  string         `json:"medico_id"`
	NurseID      *string        `json:"enfermera_id,omitempty"`
	Status       string         `json:"estado"`
	Patient      *PersonSummary `json:"paciente,omitempty"`
	Physician    *PersonSummary `json:"medico,omitempty"`
	Nurse        *PersonSummary `json:"enfermera,omitempty"`
}

// IsCurrent reports whether the stay is still open: its estado reads "activa"
// or "activo" (any case, surrounding spaces ignored) and the row is active.
func (h Hospitalization) IsCurrent() bool {
	if !h.Active {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(h.Status)) {
	case "activa", "activo":
		return true
	}
	return false
}

type CreateHospitalizationRequest struct {
	resource.CreatedBy
	AdmittedAt   string  `json:"fecha_ingreso"`
	DischargedAt *string `json:"fecha_salida,omitempty"`
	Reason       string  `json:"motivo"`
	Room         string  `json:"numero_habitacion"`
	Notes        *string `json:"notas,omitempty"`
	PatientID    string  `json:"paciente_id"`
	PhysicianID  string  `json:"medico_id"`
	NurseID      *string `json:"enfermera_id,omitempty"`
}

func (r CreateHospitalizationRequest) Validate() error {
	var v validate.Checker
	v.Required("fecha_ingreso", r.AdmittedAt)
	v.Required("motivo", r.Reason)
	checkReason(&v, r.Reason)
	v.Required("numero_habitacion", r.Room)
	v.MaxLen("numero_habitacion", r.Room, 10)
	checkNotes(&v, r.Notes)
	v.Required("paciente_id", r.PatientID)
	v.Required("medico_id", r.PhysicianID)
	return v.Err()
}

type UpdateHospitalizationRequest struct {
	resource.EditedByField
	AdmittedAt   *string `json:"fecha_ingreso,omitempty"`
	DischargedAt *string `json:"fecha_salida,omitempty"`
	Reason       *string `json:"motivo,omitempty"`
	Room         *string `json:"numero_habitacion,omitempty"`
	Notes        *string `json:"notas,omitempty"`
	Status       *string `json:"estado,omitempty"`
}

func (r UpdateHospitalizationRequest) Validate() error {
	var v validate.Checker
	if r.Reason != nil {
		checkReason(&v, *r.Reason)
	}
	if r.Room != nil {
		v.Required("numero_habitacion", *r.Room)
		v.MaxLen("numero_habitacion", *r.Room, 10)
	}
	checkNotes(&v, r.Notes)
	return v.Err()
}

func checkReason(v *validate.Checker, reason string) {
	v.MinLen("motivo", reason, 3)
	v.MaxLen("motivo", reason, 255)
}

func checkNotes(v *validate.Checker, notes *string) {
	if notes != nil {
		v.MaxLen("notas", *notes, 500)
	}
}

type HospitalizationFilter struct {
	PatientID       string
	PhysicianID     string
	Status          string
	IncludeInactive bool
}

func (f HospitalizationFilter) Params() apiclient.Params {
	return apiclient.Params{
		"paciente_id": f.PatientID,
		"medico_id":   f.PhysicianID,
		"estado":      f.Status,
	}.Merge(resource.IncludeInactive(f.IncludeInactive))
}

func ParseHospitalizationFilter(q url.Values) HospitalizationFilter {
	return HospitalizationFilter{
		PatientID:       q.Get("paciente_id"),
		PhysicianID:     q.Get("medico_id"),
		Status:          q.Get("estado"),
		IncludeInactive: resource.IncludeInactiveParam(q),
	}
}
