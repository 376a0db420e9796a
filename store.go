package sapnhap

import "context"

// RecordService stores crawl results for the lookup service.
type RecordService interface {
	// CreateRecords stores records. Records already stored with identical
	// content are skipped.
	CreateRecords(ctx context.Context, records []*MergerRecord) error

	// FindRecords retrieves records matching the filter, ordered by
	// province code, then commune code.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*MergerRecord, error)

	// FindProvinces returns distinct provinces ordered by name.
	FindProvinces(ctx context.Context) ([]AdministrativeUnit, error)

	// FindCommunes returns distinct communes of a province ordered by name.
	FindCommunes(ctx context.Context, provinceCode string) ([]AdministrativeUnit, error)
}

// RecordFilter represents a filter for FindRecords. Code fields match
// exactly; text fields match case-insensitive substrings.
type RecordFilter struct {
	ProvinceCode *string `json:"provinceCode"`
	CommuneCode  *string `json:"communeCode"`
	ProvinceName *string `json:"provinceName"`
	CommuneName  *string `json:"communeName"`
	Before       *string `json:"before"`
	HasInfo      *bool   `json:"hasInfo"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
