package documents

import (
	"context"

	"github.com/ehr/hospital-console/internal/platform/resource"
	"github.com/ehr/hospital-console/pkg/pagination"
)

const (
	MedicalRecordsEndpoint = "/historiales-medicos"
	RecordEntriesEndpoint  = "/historial-entradas"
)

type MedicalRecordService struct {
	*resource.Resource[MedicalRecord, CreateMedicalRecordRequest, UpdateMedicalRecordRequest]
}

func NewMedicalRecordService(b resource.Backend) *MedicalRecordService {
	return &MedicalRecordService{resource.New[MedicalRecord, CreateMedicalRecordRequest, UpdateMedicalRecordRequest](b, MedicalRecordsEndpoint)}
}

type RecordEntryService struct {
	*resource.Resource[RecordEntry, CreateRecordEntryRequest, UpdateRecordEntryRequest]
}

func NewRecordEntryService(b resource.Backend) *RecordEntryService {
	return &RecordEntryService{resource.New[RecordEntry, CreateRecordEntryRequest, UpdateRecordEntryRequest](b, RecordEntriesEndpoint)}
}

// ForRecord lists the entries of one medical record.
func (s *RecordEntryService) ForRecord(ctx context.Context, recordID string, p pagination.Params) (*pagination.Response[RecordEntry], error) {
	return s.List(ctx, p, RecordEntryFilter{MedicalRecordID: recordID})
}

type Service struct {
	Records *MedicalRecordService
	Entries *RecordEntryService
}

func NewService(b resource.Backend) *Service {
	return &Service{
		Records: NewMedicalRecordService(b),
		Entries: NewRecordEntryService(b),
	}
}
