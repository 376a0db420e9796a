package mock

import (
	"context"

	"github.com/fwojciec/sapnhap"
)

var _ sapnhap.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of sapnhap.RecordService.
type RecordService struct {
	CreateRecordsFn func(ctx context.Context, records []*sapnhap.MergerRecord) error
	FindRecordsFn   func(ctx context.Context, filter sapnhap.RecordFilter) ([]*sapnhap.MergerRecord, error)
	FindProvincesFn func(ctx context.Context) ([]sapnhap.AdministrativeUnit, error)
	FindCommunesFn  func(ctx context.Context, provinceCode string) ([]sapnhap.AdministrativeUnit, error)
}

func (s *RecordService) CreateRecords(ctx context.Context, records []*sapnhap.MergerRecord) error {
	return s.CreateRecordsFn(ctx, records)
}

func (s *RecordService) FindRecords(ctx context.Context, filter sapnhap.RecordFilter) ([]*sapnhap.MergerRecord, error) {
	return s.FindRecordsFn(ctx, filter)
}

func (s *RecordService) FindProvinces(ctx context.Context) ([]sapnhap.AdministrativeUnit, error) {
	return s.FindProvincesFn(ctx)
}

func (s *RecordService) FindCommunes(ctx context.Context, provinceCode string) ([]sapnhap.AdministrativeUnit, error) {
	return s.FindCommunesFn(ctx, provinceCode)
}
