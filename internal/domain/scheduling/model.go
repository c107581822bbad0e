package scheduling

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

type PhysicianSummary struct {
	ID        resource.ID `json:"id"`
	FirstName string      `json:"nombre"`
	LastName  string      `json:"apellido"`
	Specialty string      `json:"especialidad"`
}

// Appointment is a cita. The backend may embed the patient and physician.
type Appointment struct {
	resource.Record
	ScheduledAt string            `json:"fecha_cita"`
	Reason      string            `json:"motivo"`
	Notes       *string           `json:"notas,omitempty"`
	PatientID   string            `json:"paciente_id"`
	PhysicianID string            `json:"medico_id"`
	Status      string            `json:"estado"`
	Patient     *PatientSummary   `json:"paciente,omitempty"`
	Physician   *PhysicianSummary `json:"medico,omitempty"`
}

type CreateAppointmentRequest struct {
	resource.CreatedBy
	ScheduledAt string  `json:"fecha_cita"`
	Reason      string  `json:"motivo"`
	Notes       *string `json:"notas,omitempty"`
	PatientID   string  `json:"paciente_id"`
	PhysicianID string  `json:"medico_id"`
}

func (r CreateAppointmentRequest) Validate() error {
	var v validate.Checker
	v.Required("fecha_cita", r.ScheduledAt)
	v.Required("motivo", r.Reason)
	v.MinLen("motivo", r.Reason, 3)
	v.MaxLen("motivo", r.Reason, 255)
	if r.Notes != nil {
		v.MaxLen("notas", *r.Notes, 500)
	}
	v.Required("paciente_id", r.PatientID)
	v.Required("medico_id", r.PhysicianID)
	return v.Err()
}

type UpdateAppointmentRequest struct {
	resource.EditedByField
	ScheduledAt *string `json:"fecha_cita,omitempty"`
	Reason      *string `json:"motivo,omitempty"`
	Notes       *string `json:"notas,omitempty"`
	Status      *string `json:"estado,omitempty"`
}

func (r UpdateAppointmentRequest) Validate() error {
	var v validate.Checker
	if r.Reason != nil {
		v.MinLen("motivo", *r.Reason, 3)
		v.MaxLen("motivo", *r.Reason, 255)
	}
	if r.Notes != nil {
		v.MaxLen("notas", *r.Notes, 500)
	}
	return v.Err()
}

// AppointmentFilter selects a sub-resource rather than adding query
// parameters: PatientID wins over PhysicianID, which wins over Status.
type AppointmentFilter struct {
	PatientID       string
	PhysicianID     string
	Status          string
	IncludeInactive bool
}

// Params carries only what is not encoded in the endpoint.
func (f AppointmentFilter) Params() apiclient.Params {
	return apiclient.Params{}.Merge(resource.IncludeInactive(f.IncludeInactive))
}

// Endpoint returns the collection path the filter routes to.
func (f AppointmentFilter) Endpoint() string {
	switch {
	case f.PatientID != "":
		return apiclient.Path(Endpoint, "paciente", f.PatientID)
	case f.PhysicianID != "":
		return apiclient.Path(Endpoint, "medico", f.PhysicianID)
	case f.Status != "":
		return apiclient.Path(Endpoint, "estado", f.Status)
	}
	return Endpoint
}

func ParseAppointmentFilter(q url.Values) AppointmentFilter {
	return AppointmentFilter{
		PatientID:       q.Get("paciente_id"),
		PhysicianID:     q.Get("medico_id"),
		Status:          q.Get("estado"),
		IncludeInactive: resource.IncludeInactiveParam(q),
	}
}
