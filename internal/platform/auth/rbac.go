package auth

import "strings"

// Role is the operator role persisted with the session.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleConsumer Role = "consumidor"
)

// RoleFromAdminFlag derives the role from the backend es_admin flag.
func RoleFromAdminFlag(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleConsumer
}

// Console route names.
const (
	RouteDashboard       = "dashboard"
	RouteUsers           = "usuarios"
	RoutePatients        = "pacientes"
	RoutePhysicians      = "medicos"
	RouteNurses          = "enfermeras"
	RouteAppointments    = "citas"
	RouteHospitalization = "hospitalizaciones"
	RouteMedicalRecords  = "historiales-medicos"
	RouteRecordEntries   = "historiales-entrada"
	RouteInvoices        = "facturas"
	RouteInvoiceLines    = "facturas-detalle"
)

// consumerRoutes is the closed allow-list for consumers.
var consumerRoutes = map[string]bool{
	RouteDashboard:      true,
	RouteAppointments:   true,
	RouteInvoices:       true,
	RouteMedicalRecords: true,
}

// CanAccess decides whether role may open route. Rules in order: no role is
// denied, admin sees everything, consumers see only their allow-list, and any
// other role sees everything except the users route. Matching is
// case-insensitive.
func CanAccess(role Role, route string) bool {
	if role == "" {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	route = strings.ToLower(strings.Trim(route, "/"))
	if role == RoleConsumer {
		return consumerRoutes[route]
	}
	return route != RouteUsers
}
