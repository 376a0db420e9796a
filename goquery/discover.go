package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sapnhap"
)

// Ensure Discoverer implements sapnhap.Discoverer.
var _ sapnhap.Discoverer = (*Discoverer)(nil)

// DefaultProvinceKeywords are province-name fragments that identify the
// province select widget.
var DefaultProvinceKeywords = []string{
	"hà nội", "hồ chí minh", "bến tre", "vĩnh long", "đà nẵng", "hải phòng", "cần thơ",
}

// DefaultCommuneKeywords identify the commune select widget.
var DefaultCommuneKeywords = []string{"phường", "xã", "thị trấn"}

var ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Discoverer finds provinces and communes on a page by trying a fixed
// sequence of strategies: select widgets first, then query-string links.
type Discoverer struct {
	ProvinceParam    string
	CommuneParam     string
	ProvinceKeywords []string
	CommuneKeywords  []string
}

// NewDiscoverer creates a Discoverer for links built from the endpoint's
// query parameters.
func NewDiscoverer(endpoint sapnhap.Endpoint) *Discoverer {
	return &Discoverer{
		ProvinceParam:    endpoint.ProvinceParam,
		CommuneParam:     endpoint.CommuneParam,
		ProvinceKeywords: DefaultProvinceKeywords,
		CommuneKeywords:  DefaultCommuneKeywords,
	}
}

// strategy returns the units it finds in a document, or nothing.
type strategy func(doc *goquery.Document) []sapnhap.AdministrativeUnit

// DiscoverProvinces returns the provinces listed on the page.
func (d *Discoverer) DiscoverProvinces(content string) ([]sapnhap.AdministrativeUnit, error) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}
	return firstOf(doc,
		func(doc *goquery.Document) []sapnhap.AdministrativeUnit {
			return selectOptions(doc, d.ProvinceKeywords, sapnhap.LevelProvince, "")
		},
		func(doc *goquery.Document) []sapnhap.AdministrativeUnit {
			return d.provinceLinks(doc)
		},
	), nil
}

// DiscoverCommunes returns the communes of provinceCode listed on the page.
func (d *Discoverer) DiscoverCommunes(content string, provinceCode string) ([]sapnhap.AdministrativeUnit, error) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}
	return firstOf(doc,
		func(doc *goquery.Document) []sapnhap.AdministrativeUnit {
			return selectOptions(doc, d.CommuneKeywords, sapnhap.LevelCommune, provinceCode)
		},
		func(doc *goquery.Document) []sapnhap.AdministrativeUnit {
			return d.communeLinks(doc, provinceCode)
		},
	), nil
}

// firstOf returns the result of the first strategy that finds anything.
func firstOf(doc *goquery.Document, strategies ...strategy) []sapnhap.AdministrativeUnit {
	for _, s := range strategies {
		if units := s(doc); len(units) > 0 {
			return units
		}
	}
	return []sapnhap.AdministrativeUnit{}
}

// selectOptions reads the options of the first select widget whose option
// texts mention one of the keywords.
func selectOptions(doc *goquery.Document, keywords []string, level sapnhap.Level, parent string) []sapnhap.AdministrativeUnit {
	var units []sapnhap.AdministrativeUnit
	doc.Find("select").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		options := sel.Find("option")
		if !anyOptionMatches(options, keywords) {
			return true
		}
		seen := make(map[string]bool)
		options.Each(func(_ int, opt *goquery.Selection) {
			value := strings.TrimSpace(opt.AttrOr("value", ""))
			text := cellText(opt)
			if isPlaceholder(value, text) || seen[value] {
				return
			}
			seen[value] = true
			units = append(units, sapnhap.AdministrativeUnit{
				Code:       value,
				Name:       text,
				Level:      level,
				ParentCode: parent,
			})
		})
		return len(units) == 0
	})
	return units
}

func anyOptionMatches(options *goquery.Selection, keywords []string) bool {
	found := false
	options.EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		text := strings.ToLower(cellText(opt))
		for _, k := range keywords {
			if strings.Contains(text, k) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

func isPlaceholder(value, text string) bool {
	return value == "" || value == "0" || text == "" || strings.HasPrefix(text, "--")
}

// communeLinks scans links carrying the commune parameter, keeping those
// scoped to provinceCode. Some pages list links of unrelated provinces.
func (d *Discoverer) communeLinks(doc *goquery.Document, provinceCode string) []sapnhap.AdministrativeUnit {
	return scanLinks(doc, d.CommuneParam, func(q url.Values) bool {
		return q.Get(d.ProvinceParam) == provinceCode
	}, sapnhap.LevelCommune, provinceCode)
}

func (d *Discoverer) provinceLinks(doc *goquery.Document) []sapnhap.AdministrativeUnit {
	return scanLinks(doc, d.ProvinceParam, func(q url.Values) bool {
		return !q.Has(d.CommuneParam)
	}, sapnhap.LevelProvince, "")
}

func scanLinks(doc *goquery.Document, param string, keep func(url.Values) bool, level sapnhap.Level, parent string) []sapnhap.AdministrativeUnit {
	var units []sapnhap.AdministrativeUnit
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if !strings.Contains(href, param+"=") {
			return
		}
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		q := u.Query()
		code := q.Get(param)
		if code == "" || seen[code] || !keep(q) {
			return
		}
		seen[code] = true
		units = append(units, sapnhap.AdministrativeUnit{
			Code:       code,
			Name:       ordinalPrefix.ReplaceAllString(cellText(a), ""),
			Level:      level,
			ParentCode: parent,
		})
	})
	return units
}
