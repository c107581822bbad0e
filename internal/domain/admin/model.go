package admin

import (
	"net/url"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/internal/platform/validate"
)

// User is a console operator account. Its id may arrive as a number.
type User struct {
	resource.Record
	Name      string  `json:"nombre"`
	Username  string  `json:"nombre_usuario"`
	Email     string  `json:"email"`
	Phone     *string `json:"telefono,omitempty"`
	IsAdmin   bool    `json:"es_admin"`
	CreatedBy *string `json:"id_usuario_creacion,omitempty"`
	EditedBy  *string `json:"id_usuario_edicion,omitempty"`
}

type CreateUserRequest struct {
	resource.CreatedBy
	Name     string  `json:"nombre"`
	Username string  `json:"nombre_usuario"`
	Email    string  `json:"email"`
	Password string  `json:"contraseña"`
	Phone    *string `json:"telefono,omitempty"`
	IsAdmin  *bool   `json:"es_admin,omitempty"`
}

const minPasswordLen = 8

func (r CreateUserRequest) Validate() error {
	var v validate.Checker
	v.Required("nombre", r.Name)
	v.Required("nombre_usuario", r.Username)
	v.Required("email", r.Email)
	v.Required("contraseña", r.Password)
	checkAccount(&v, &r.Name, &r.Username, &r.Email, r.Phone)
	v.MinLen("contraseña", r.Password, minPasswordLen)
	return v.Err()
}

type UpdateUserRequest struct {
	resource.EditedByField
	Name     *string `json:"nombre,omitempty"`
	Username *string `json:"nombre_usuario,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"telefono,omitempty"`
	IsAdmin  *bool   `json:"es_admin,omitempty"`
	Active   *bool   `json:"activo,omitempty"`
}

func (r UpdateUserRequest) Validate() error {
	var v validate.Checker
	checkAccount(&v, r.Name, r.Username, r.Email, r.Phone)
	return v.Err()
}

func checkAccount(v *validate.Checker, name, username, email, phone *string) {
	if name != nil {
		v.MinLen("nombre", *name, 2)
		v.MaxLen("nombre", *name, 100)
	}
	if username != nil {
		v.MinLen("nombre_usuario", *username, 3)
		v.MaxLen("nombre_usuario", *username, 50)
	}
	if email != nil {
		v.Email("email", *email)
	}
	if phone != nil {
		v.Phone("telefono", *phone)
	}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	var v validate.Checker
	v.Required("current_password", r.CurrentPassword)
	v.Required("new_password", r.NewPassword)
	v.MinLen("new_password", r.NewPassword, minPasswordLen)
	return v.Err()
}

type UserFilter struct {
	Email           string
	Name            string
	LastName        string
	Active          *bool
	From            string
	To              string
	IncludeInactive bool
}

func (f UserFilter) Params() apiclient.Params {
	return apiclient.Params{
		"email":       f.Email,
		"nombre":      f.Name,
		"apellido":    f.LastName,
		"activo":      f.Active,
		"fecha_desde": f.From,
		"fecha_hasta": f.To,
	}.Merge(resource.IncludeInactive(f.IncludeInactive))
}

func ParseUserFilter(q url.Values) UserFilter {
	return UserFilter{
		Email:           q.Get("email"),
		Name:            q.Get("nombre"),
		LastName:        q.Get("apellido"),
		Active:          resource.BoolParam(q.Get("activo")),
		From:            q.Get("fecha_desde"),
		To:              q.Get("fecha_hasta"),
		IncludeInactive: resource.IncludeInactiveParam(q),
	}
}
