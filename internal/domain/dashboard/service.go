// Package dashboard computes the admin landing statistics from six concurrent
// list calls.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ehr/hospital-console/internal/domain/admin"
	"github.com/ehr/hospital-console/internal/domain/encounter"
	"github.com/ehr/hospital-console/internal/domain/identity"
	"github.com/ehr/hospital-console/internal/domain/scheduling"
	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/pkg/pagination"
)

// statsPage is the largest page the backend serves.
var statsPage = pagination.Params{Page: 1, Limit: pagination.MaxLimit}

type Stats struct {
	Users                  int `json:"usuariosRegistrados"`
	Patients               int `json:"pacientesRegistrados"`
	Physicians             int `json:"medicosRegistrados"`
	Nurses                 int `json:"enfermerasRegistradas"`
	ActiveHospitalizations int `json:"hospitalizacionesActivas"`
	AppointmentsToday      int `json:"citasHoy"`
	TotalAppointments      int `json:"totalCitas"`
}

// Lister is the list half of an entity service.
type Lister[T any] interface {
	List(ctx context.Context, p pagination.Params, filter resource.Filter) (*pagination.Response[T], error)
}

type Service struct {
	users            Lister[admin.User]
	patients         Lister[identity.Patient]
	physicians       Lister[identity.Physician]
	nurses           Lister[identity.Nurse]
	hospitalizations Lister[encounter.Hospitalization]
	appointments     Lister[scheduling.Appointment]
	now              func() time.Time
}

type Option func(*Service)

// WithClock fixes "today" for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(b resource.Backend, opts ...Option) *Service {
	people := identity.NewService(b)
	s := &Service{
		users:            admin.NewService(b),
		patients:         people.Patients,
		physicians:       people.Physicians,
		nurses:           people.Nurses,
		hospitalizations: encounter.NewService(b),
		appointments:     scheduling.NewService(b),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats lists every source including inactive rows. Any failure aborts the
// whole computation.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var (
		users            []admin.User
		patients         []identity.Patient
		physicians       []identity.Physician
		nurses           []identity.Nurse
		hospitalizations []encounter.Hospitalization
		appointments     []scheduling.Appointment
	)

	g, ctx := errgroup.WithContext(ctx)
	fetch(ctx, g, "usuarios", s.users, admin.UserFilter{IncludeInactive: true}, &users)
	fetch(ctx, g, "pacientes", s.patients, identity.PatientFilter{IncludeInactive: true}, &patients)
	fetch(ctx, g, "medicos", s.physicians, identity.PhysicianFilter{IncludeInactive: true}, &physicians)
	fetch(ctx, g, "enfermeras", s.nurses, identity.NurseFilter{IncludeInactive: true}, &nurses)
	fetch(ctx, g, "hospitalizaciones", s.hospitalizations, encounter.HospitalizationFilter{IncludeInactive: true}, &hospitalizations)
	fetch(ctx, g, "citas", s.appointments, scheduling.AppointmentFilter{IncludeInactive: true}, &appointments)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &Stats{
		Users:             len(users),
		Patients:          len(patients),
		Physicians:        len(physicians),
		Nurses:            len(nurses),
		TotalAppointments: len(appointments),
	}
	for _, h := range hospitalizations {
		if h.IsCurrent() {
			stats.ActiveHospitalizations++
		}
	}
	today := s.now()
	for _, a := range appointments {
		if sameDay(a.ScheduledAt, today) {
			stats.AppointmentsToday++
		}
	}
	return stats, nil
}

func fetch[T any](ctx context.Context, g *errgroup.Group, name string, l Lister[T], f resource.Filter, dst *[]T) {
	g.Go(func() error {
		resp, err := l.List(ctx, statsPage, f)
		if err != nil {
			return fmt.Errorf("dashboard %s: %w", name, err)
		}
		*dst = resp.Data
		return nil
	})
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// sameDay reports whether the timestamp falls on the local calendar day of
// ref. Zoned timestamps are converted to ref's location first; unzoned ones
// are read as local time.
func sameDay(value string, ref time.Time) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	loc := ref.Location()
	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		t = t.In(loc)
	} else {
		var ok bool
		for _, layout := range localLayouts {
			if t, err = time.ParseInLocation(layout, value, loc); err == nil {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	y1, m1, d1 := t.Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
