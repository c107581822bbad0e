package encounter

import "github.com/ehr/hospital-console/internal/platform/resource"

const Endpoint = "/hospitalizaciones"

type Service struct {
	*resource.Resource[Hospitalization, CreateHospitalizationRequest, UpdateHospitalizationRequest]
}

func NewService(b resource.Backend) *Service {
	return &Service{resource.New[Hospitalization, CreateHospitalizationRequest, UpdateHospitalizationRequest](b, Endpoint)}
}
