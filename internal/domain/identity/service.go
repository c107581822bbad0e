package identity

import (
	"context"
	"fmt"

	"github.com/ehr/hospital-console/internal/platform/apiclient"
	"github.com/ehr/hospital-console/internal/platform/resource"
)

const (
	PatientsEndpoint   = "/pacientes"
	PhysiciansEndpoint = "/medicos"
	NursesEndpoint     = "/enfermeras"
)

type PatientService struct {
	*resource.Resource[Patient, CreatePatientRequest, UpdatePatientRequest]
}

func NewPatientService(b resource.Backend) *PatientService {
	return &PatientService{resource.New[Patient, CreatePatientRequest, UpdatePatientRequest](b, PatientsEndpoint)}
}

func (s *PatientService) ByEmail(ctx context.Context, email string) (*Patient, error) {
	endpoint := apiclient.Path(PatientsEndpoint, "email", email)
	var p Patient
	if err := s.Backend().Get(ctx, endpoint, nil, &p); err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	return &p, nil
}

// Search matches patients by name; the backend does not paginate it.
func (s *PatientService) Search(ctx context.Context, name string) ([]Patient, error) {
	return s.All(ctx, apiclient.Path(PatientsEndpoint, "buscar", name))
}

type PhysicianService struct {
	*resource.Resource[Physician, CreatePhysicianRequest, UpdatePhysicianRequest]
}

func NewPhysicianService(b resource.Backend) *PhysicianService {
	return &PhysicianService{resource.New[Physician, CreatePhysicianRequest, UpdatePhysicianRequest](b, PhysiciansEndpoint)}
}

// NurseService deactivates on Delete; Purge removes the row.
type NurseService struct {
	*resource.SoftResource[Nurse, CreateNurseRequest, UpdateNurseRequest]
}

func NewNurseService(b resource.Backend) *NurseService {
	return &NurseService{resource.NewSoft[Nurse, CreateNurseRequest, UpdateNurseRequest](b, NursesEndpoint)}
}

type Service struct {
	Patients   *PatientService
	Physicians *PhysicianService
	Nurses     *NurseService
}

func NewService(b resource.Backend) *Service {
	return &Service{
		Patients:   NewPatientService(b),
		Physicians: NewPhysicianService(b),
		Nurses:     NewNurseService(b),
	}
}
