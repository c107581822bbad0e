package resource

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ID is an identifier the backend sends either as a JSON string or a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*id = ID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// ParseBool accepts a literal bool or the strings "true"/"false". Anything else
// is reported as not set.
func ParseBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case *bool:
		if t == nil {
			return false, false
		}
		return *t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

// BoolParam parses a filter value into a pointer usable in apiclient.Params.
func BoolParam(v string) *bool {
	b, ok := ParseBool(v)
	if !ok {
		return nil
	}
	return &b
}

// IncludeInactive returns the query parameter that asks the backend to return
// deactivated rows, or nil when not requested.
func IncludeInactive(include bool) map[string]any {
	if !include {
		return nil
	}
	return map[string]any{"incluir_inactivos": true}
}

// Audit receives the identifiers stamped on create and update requests.
type Audit interface {
	IdentifierForCreation() string
	IdentifierForEdition() (string, bool)
}

// EditedBy returns a pointer for id_usuario_edicion, nil when the current
// identifier is not valid and the field must be omitted.
func EditedBy(a Audit) *string {
	if a == nil {
		return nil
	}
	id, ok := a.IdentifierForEdition()
	if !ok {
		return nil
	}
	return &id
}

// CreatedBy is embedded in create requests; handlers stamp it before sending.
type CreatedBy struct {
	CreatedBy string `json:"id_usuario_creacion,omitempty"`
}

func (c *CreatedBy) StampCreation(a Audit) {
	if a != nil {
		c.CreatedBy = a.IdentifierForCreation()
	}
}

// EditedByField is embedded in update requests. The field is omitted when the
// current user id is not a valid identifier.
type EditedByField struct {
	EditedBy *string `json:"id_usuario_edicion,omitempty"`
}

func (e *EditedByField) StampEdition(a Audit) {
	e.EditedBy = EditedBy(a)
}

// IncludeInactiveParam reads incluir_inactivos from console query parameters.
func IncludeInactiveParam(q url.Values) bool {
	b, _ := ParseBool(q.Get("incluir_inactivos"))
	return b
}

// Record holds the fields every backend entity carries.
type Record struct {
	ID        ID      `json:"id"`
	Active    bool    `json:"activo"`
	CreatedAt *string `json:"fecha_creacion,omitempty"`
	UpdatedAt *string `json:"fecha_actualizacion,omitempty"`
}
