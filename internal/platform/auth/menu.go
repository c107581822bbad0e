package auth

import "strings"

// MenuItem is one navigation entry. Roles, when set, restricts visibility.
type MenuItem struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Roles []Role `json:"roles,omitempty"`
}

// Route returns the route name the item points at.
func (m MenuItem) Route() string {
	return strings.TrimPrefix(m.Path, "/")
}

var menu = []MenuItem{
	{Path: "/dashboard", Title: "Dashboard", Icon: "design_app"},
	{Path: "/usuarios", Title: "Usuarios", Icon: "users_single-02", Roles: []Role{RoleAdmin}},
	{Path: "/pacientes", Title: "Pacientes", Icon: "users_single-02", Roles: []Role{RoleAdmin}},
	{Path: "/medicos", Title: "Médicos", Icon: "users_single-02", Roles: []Role{RoleAdmin}},
	{Path: "/enfermeras", Title: "Enfermeras", Icon: "users_single-02", Roles: []Role{RoleAdmin}},
	{Path: "/citas", Title: "Citas", Icon: "ui-1_calendar-60"},
	{Path: "/hospitalizaciones", Title: "Hospitalizaciones", Icon: "business_bank", Roles: []Role{RoleAdmin}},
	{Path: "/historiales-medicos", Title: "Historiales Médicos", Icon: "files_paper"},
	{Path: "/historiales-entrada", Title: "Historiales Entrada", Icon: "files_paper", Roles: []Role{RoleAdmin}},
	{Path: "/facturas", Title: "Facturas", Icon: "business_money-coins"},
	{Path: "/facturas-detalle", Title: "Facturas Detalle", Icon: "business_money-coins", Roles: []Role{RoleAdmin}},
}

// AllMenuItems returns the full navigation in display order.
func AllMenuItems() []MenuItem {
	out := make([]MenuItem, len(menu))
	copy(out, menu)
	return out
}

// Menu returns the items visible to role.
func Menu(role Role) []MenuItem {
	var out []MenuItem
	for _, item := range menu {
		if CanSeeMenuItem(role, item) {
			out = append(out, item)
		}
	}
	return out
}

// CanSeeMenuItem applies the menu visibility rule. Unrestricted items follow
// the consumer allow-list for consumers and are open to every other role.
func CanSeeMenuItem(role Role, item MenuItem) bool {
	if role == "" {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	if len(item.Roles) == 0 {
		if role == RoleConsumer {
			return consumerRoutes[strings.ToLower(item.Route())]
		}
		return true
	}
	for _, r := range item.Roles {
		if r == role {
			return true
		}
	}
	return false
}
