package mock

import "github.com/fwojciec/sapnhap"

var _ sapnhap.Discoverer = (*Discoverer)(nil)

// Discoverer is a mock implementation of sapnhap.Discoverer.
type Discoverer struct {
	DiscoverProvincesFn func(html string) ([]sapnhap.AdministrativeUnit, error)
	DiscoverCommunesFn  func(html string, provinceCode string) ([]sapnhap.AdministrativeUnit, error)
}

func (d *Discoverer) DiscoverProvinces(html string) ([]sapnhap.AdministrativeUnit, error) {
	return d.DiscoverProvincesFn(html)
}

func (d *Discoverer) DiscoverCommunes(html string, provinceCode string) ([]sapnhap.AdministrativeUnit, error) {
	return d.DiscoverCommunesFn(html, provinceCode)
}

var _ sapnhap.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of sapnhap.Extractor.
type Extractor struct {
	ExtractFn func(html string) *sapnhap.MergerInfo
}

func (e *Extractor) Extract(html string) *sapnhap.MergerInfo {
	return e.ExtractFn(html)
}
