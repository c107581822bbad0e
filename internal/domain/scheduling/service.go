package scheduling

import (
	"context"

	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/pkg/pagination"
)

const Endpoint = "/citas"

type Service struct {
	*resource.Resource[Appointment, CreateAppointmentRequest, UpdateAppointmentRequest]
}

func NewService(b resource.Backend) *Service {
	return &Service{resource.New[Appointment, CreateAppointmentRequest, UpdateAppointmentRequest](b, Endpoint)}
}

// List routes an AppointmentFilter to its sub-resource. Other filters are
// applied to /citas unchanged.
func (s *Service) List(ctx context.Context, p pagination.Params, filter resource.Filter) (*pagination.Response[Appointment], error) {
	switch f := filter.(type) {
	case AppointmentFilter:
		return s.ListAt(ctx, f.Endpoint(), p, f)
	case *AppointmentFilter:
		if f != nil {
			return s.ListAt(ctx, f.Endpoint(), p, f)
		}
		filter = nil
	}
	return s.Resource.List(ctx, p, filter)
}
