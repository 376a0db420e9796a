package sapnhap

import "net/url"

// Default upstream search endpoint and its identifying query parameters.
const (
	DefaultBaseURL       = "https://thuvienphapluat.vn/ma-so-thue/tra-cuu-thong-tin-sap-nhap-tinh"
	DefaultProvinceParam = "MaTinh"
	DefaultCommuneParam  = "MaXa"
)

// Endpoint describes the single upstream page all data is fetched from.
// Omitting the commune identifier yields the province-level page; omitting
// both yields the search root.
type Endpoint struct {
	BaseURL       string
	ProvinceParam string
	CommuneParam  string
}

// DefaultEndpoint returns the endpoint of the public legal-reference website.
func DefaultEndpoint() Endpoint {
	return Endpoint{
		BaseURL:       DefaultBaseURL,
		ProvinceParam: DefaultProvinceParam,
		CommuneParam:  DefaultCommuneParam,
	}
}

// URL builds the page URL for a province and optional commune.
// Parameters keep province-then-commune order so URLs match the links
// published by the site.
func (e Endpoint) URL(provinceCode, communeCode string) string {
	if provinceCode == "" {
		return e.BaseURL
	}
	q := e.ProvinceParam + "=" + url.QueryEscape(provinceCode)
	if communeCode != "" {
		q += "&" + e.CommuneParam + "=" + url.QueryEscape(communeCode)
	}
	sep := "?"
	if u, err := url.Parse(e.BaseURL); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return e.BaseURL + sep + q
}
