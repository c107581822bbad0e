package identity

import (
	"net/url"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/internal/platform/validate"
)

// -- Patient --

type Patient struct {
	resource.Record
	FirstName string  `json:"nombre"`
	LastName  string  `json:"apellido"`
	Email     string  `json:"email"`
	Phone     *string `json:"telefono,omitempty"`
	BirthDate string  `json:"fecha_nacimiento"`
	Address   *string `json:"direccion,omitempty"`
}

type CreatePatientRequest struct {
	resource.CreatedBy
	FirstName string  `json:"nombre"`
	LastName  string  `json:"apellido"`
	Email     string  `json:"email"`
	Phone     *string `json:"telefono,omitempty"`
	BirthDate string  `json:"fecha_nacimiento"`
	Address   *string `json:"direccion,omitempty"`
}

func (r CreatePatientRequest) Validate() error {
	var v validate.Checker
	checkPerson(&v, r.FirstName, r.LastName, r.Email, r.Phone)
	v.Required("fecha_nacimiento", r.BirthDate)
	return v.Err()
}

type UpdatePatientRequest struct {
	resource.EditedByField
	FirstName *string `json:"nombre,omitempty"`
	LastName  *string `json:"apellido,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"telefono,omitempty"`
	BirthDate *string `json:"fecha_nacimiento,omitempty"`
	Address   *string `json:"direccion,omitempty"`
	Active    *bool   `json:"activo,omitempty"`
}

func (r UpdatePatientRequest) Validate() error {
	var v validate.Checker
	checkPersonUpdate(&v, r.FirstName, r.LastName, r.Email, r.Phone)
	return v.Err()
}

type PatientFilter struct {
	Name            string
	Email           string
	Active          *bool
	IncludeInactive bool
}

func (f PatientFilter) Params() apiclient.Params {
	return apiclient.Params{
		"nombre": f.Name,
		"email":  f.Email,
		"activo": f.Active,
	}.Merge(resource.IncludeInactive(f.IncludeInactive))
}

// ParsePatientFilter reads nombre, email and activo ("true"/"false").
func ParsePatientFilter(q url.Values) PatientFilter {
	return PatientFilter{
		Name:            q.Get("nombre"),
		Email:           q.Get("email"),
		Active:          resource.BoolParam(q.Get("activo")),
		IncludeInactive: resource.IncludeInactiveParam(q),
	}
}

// -- Physician --

type Physician struct {
	resource.Record
	FirstName     string  `json:"nombre"`
	LastName      string  `json:"apellido"`
	Email         string  `json:"email"`
	Phone         *string `json:"telefono,omitempty"`
	Specialty     string  `json:"especialidad"`
	LicenseNumber string  `json:"numero_licencia"`
	BirthDate     string  `json:"fecha_nacimiento"`
	Office        *string `json:"consultorio,omitempty"`
	Address       *string `json:"direccion,omitempty"`
}

type CreatePhysicianRequest struct {
	resource.CreatedBy
	FirstName     string  `json:"nombre"`
	LastName      string  `json:"apellido"`
	Email         string  `json:"email"`
	Phone         *string `json:"telefono,omitempty"`
	BirthDate     string  `json:"fecha_nacimiento"`
	Specialty     string  `json:"especialidad"`
	LicenseNumber string  `json:"numero_licencia"`
	Office        *string `json:"consultorio,omitempty"`
	Address       *string `json:"direccion,omitempty"`
}

func (r CreatePhysicianRequest) Validate() error {
	var v validate.Checker
	checkPerson(&v, r.FirstName, r.LastName, r.Email, r.Phone)
	v.Required("fecha_nacimiento", r.BirthDate)
	v.Required("especialidad", r.Specialty)
	v.MinLen("especialidad", r.Specialty, 2)
	v.MaxLen("especialidad", r.Specialty, 100)
	checkLicense(&v, r.LicenseNumber)
	return v.Err()
}

type UpdatePhysicianRequest struct {
	resource.EditedByField
	FirstName     *string `json:"nombre,omitempty"`
	LastName      *string `json:"apellido,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"telefono,omitempty"`
	Specialty     *string `json:"especialidad,omitempty"`
	LicenseNumber *string `json:"numero_licencia,omitempty"`
	BirthDate     *string `json:"fecha_nacimiento,omitempty"`
	Office        *string `json:"consultorio,omitempty"`
	Address       *string `json:"direccion,omitempty"`
	Active        *bool   `json:"activo,omitempty"`
}

func (r UpdatePhysicianRequest) Validate() error {
	var v validate.Checker
	checkPersonUpdate(&v, r.FirstName, r.LastName, r.Email, r.Phone)
	if r.LicenseNumber != nil {
		checkLicense(&v, *r.LicenseNumber)
	}
	return v.Err()
}

type PhysicianFilter struct {
	Name            string
	Specialty       string
	IncludeInactive bool
}

func (f PhysicianFilter) Params() apiclient.Params {
	return apiclient.Params{
		"nombre":       f.Name,
		"especialidad": f.Specialty,
	}.Merge(resource.IncludeInactive(f.IncludeInactive))
}

func ParsePhysicianFilter(q url.Values) PhysicianFilter {
	return PhysicianFilter{
		Name:            q.Get("nombre"),
		Specialty:       q.Get("especialidad"),
		IncludeInactive: resource.IncludeInactiveParam(q),
	}
}

// -- Nurse --

type Nurse struct {
	resource.Record
	FirstName     string  `json:"nombre"`
	LastName      string  `json:"apellido"`
	Email         string  `json:"email"`
	Phone         *string `json:"telefono,omitempty"`
	LicenseNumber string  `json:"numero_licencia"`
	Shift         string  `json:"turno"`
}

type CreateNurseRequest struct {
	resource.CreatedBy
	FirstName     string  `json:"nombre"`
	LastName      string  `json:"apellido"`
	Email         string  `json:"email"`
	Phone         *string `json:"telefono,omitempty"`
	LicenseNumber string  `json:"numero_licencia"`
	Shift         string  `json:"turno"`
}

func (r CreateNurseRequest) Validate() error {
	var v validate.Checker
	checkPerson(&v, r.FirstName, r.LastName, r.Email, r.Phone)
	checkLicense(&v, r.LicenseNumber)
	v.Required("turno", r.Shift)
	return v.Err()
}

type UpdateNurseRequest struct {
	resource.EditedByField
	FirstName     *string `json:"nombre,omitempty"`
	LastName      *string `json:"apellido,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"telefono,omitempty"`
	LicenseNumber *string `json:"numero_licencia,omitempty"`
	Shift         *string `json:"turno,omitempty"`
	Active        *bool   `json:"activo,omitempty"`
}

func (r UpdateNurseRequest) Validate() error {
	var v validate.Checker
	checkPersonUpdate(&v, r.FirstName, r.LastName, r.Email, r.Phone)
	if r.LicenseNumber != nil {
		checkLicense(&v, *r.LicenseNumber)
	}
	return v.Err()
}

type NurseFilter struct {
	Name            string
	Shift           string
	IncludeInactive bool
}

func (f NurseFilter) Params() apiclient.Params {
	return apiclient.Params{
		"nombre": f.Name,
		"turno":  f.Shift,
	}.Merge(resource.IncludeInactive(f.IncludeInactive))
}

func ParseNurseFilter(q url.Values) NurseFilter {
	return NurseFilter{
		Name:            q.Get("nombre"),
		Shift:           q.Get("turno"),
		IncludeInactive: resource.IncludeInactiveParam(q),
	}
}

// -- shared form rules --

func checkName(v *validate.Checker, field, value string) {
	v.MinLen(field, value, 2)
	v.MaxLen(field, value, 100)
}

func checkPerson(v *validate.Checker, first, last, email string, phone *string) {
	v.Required("nombre", first)
	checkName(v, "nombre", first)
	v.Required("apellido", last)
	checkName(v, "apellido", last)
	v.Required("email", email)
	v.Email("email", email)
	if phone != nil {
		v.Phone("telefono", *phone)
	}
}

func checkPersonUpdate(v *validate.Checker, first, last, email, phone *string) {
	if first != nil {
		checkName(v, "nombre", *first)
	}
	if last != nil {
		checkName(v, "apellido", *last)
	}
	if email != nil {
		v.Email("email", *email)
	}
	if phone != nil {
		v.Phone("telefono", *phone)
	}
}

func checkLicense(v *validate.Checker, license string) {
	v.Required("numero_licencia", license)
	v.MinLen("numero_licencia", license, 3)
	v.MaxLen("numero_licencia", license, 50)
}
