package console

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/ehr/hospital-console/internal/domain/admin"
	"github.com/ehr/hospital-console/internal/domain/billing"
	"github.com/ehr/hospital-console/internal/domain/documents"
	"github.com/ehr/hospital-console/internal/domain/encounter"
	"github.com/ehr/hospital-console/internal/domain/identity"
	"github.com/ehr/hospital-console/internal/domain/scheduling"
	"github.com/ehr/hospital-console/internal/platform/auth"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/pkg/pagination"
)

// Entry exposes one entity to commands that only know its route name.
// Reactivate and Purge are nil for entities without soft delete.
type Entry struct {
	Route      string
	List       func(ctx context.Context, p pagination.Params, q url.Values) (any, error)
	Get        func(ctx context.Context, id string) (any, error)
	Delete     func(ctx context.Context, id string) error
	Reactivate func(ctx context.Context, id string) error
	Purge      func(ctx context.Context, id string) error
}

func newEntry[T, C, U any](route string, svc resource.Service[T, C, U], filter resource.FilterParser) Entry {
	e := Entry{
		Route: route,
		List: func(ctx context.Context, p pagination.Params, q url.Values) (any, error) {
			return svc.List(ctx, p, filter(q))
		},
		Get: func(ctx context.Context, id string) (any, error) {
			return svc.Get(ctx, id)
		},
		Delete: svc.Delete,
	}
	if soft, ok := svc.(resource.SoftService); ok {
		e.Reactivate = soft.Reactivate
		e.Purge = soft.Purge
	}
	return e
}

// Registry indexes the entity services by route name.
type Registry struct {
	entries map[string]Entry
}

func (a *App) Registry() *Registry {
	entries := []Entry{
		newEntry[admin.User, admin.CreateUserRequest, admin.UpdateUserRequest](auth.RouteUsers, a.Users, resource.Parser(admin.ParseUserFilter)),
		newEntry[identity.Patient, identity.CreatePatientRequest, identity.UpdatePatientRequest](auth.RoutePatients, a.Identity.Patients, resource.Parser(identity.ParsePatientFilter)),
		newEntry[identity.Physician, identity.CreatePhysicianRequest, identity.UpdatePhysicianRequest](auth.RoutePhysicians, a.Identity.Physicians, resource.Parser(identity.ParsePhysicianFilter)),
		newEntry[identity.Nurse, identity.CreateNurseRequest, identity.UpdateNurseRequest](auth.RouteNurses, a.Identity.Nurses, resource.Parser(identity.ParseNurseFilter)),
		newEntry[scheduling.Appointment, scheduling.CreateAppointmentRequest, scheduling.UpdateAppointmentRequest](auth.RouteAppointments, a.Appointments, resource.Parser(scheduling.ParseAppointmentFilter)),
		newEntry[encounter.Hospitalization, encounter.CreateHospitalizationRequest, encounter.UpdateHospitalizationRequest](auth.RouteHospitalization, a.Stays, resource.Parser(encounter.ParseHospitalizationFilter)),
		newEntry[documents.MedicalRecord, documents.CreateMedicalRecordRequest, documents.UpdateMedicalRecordRequest](auth.RouteMedicalRecords, a.Documents.Records, resource.Parser(documents.ParseMedicalRecordFilter)),
		newEntry[documents.RecordEntry, documents.CreateRecordEntryRequest, documents.UpdateRecordEntryRequest](auth.RouteRecordEntries, a.Documents.Entries, resource.Parser(documents.ParseRecordEntryFilter)),
		newEntry[billing.Invoice, billing.CreateInvoiceRequest, billing.UpdateInvoiceRequest](auth.RouteInvoices, a.Billing.Invoices, resource.Parser(billing.ParseInvoiceFilter)),
		newEntry[billing.LineItem, billing.CreateLineItemRequest, billing.UpdateLineItemRequest](auth.RouteInvoiceLines, a.Billing.LineItems, resource.Parser(billing.ParseLineItemFilter)),
	}
	r := &Registry{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		r.entries[e.Route] = e
	}
	return r
}

// Lookup returns the entry for route.
func (r *Registry) Lookup(route string) (Entry, error) {
	e, ok := r.entries[route]
	if !ok {
		return Entry{}, fmt.Errorf("unknown resource %q (one of %v)", route, r.Routes())
	}
	return e, nil
}

// Routes lists the registered route names, sorted.
func (r *Registry) Routes() []string {
	out := make([]string, 0, len(r.entries))
	for route := range r.entries {
		out = append(out, route)
	}
	sort.Strings(out)
	return out
}
