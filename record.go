package sapnhap

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DetailPair is one before/after row of a merger table.
type DetailPair struct {
	Before string `json:"truoc"`
	After  string `json:"sau"`
}

// MergerInfo is the merger information extracted from one page.
type MergerInfo struct {
	// Before and After hold the first non-empty values found on the page.
	Before string
	After  string

	// Details holds every before/after row of the first matching table.
	Details []DetailPair
}

// Empty reports whether nothing was extracted.
func (i *MergerInfo) Empty() bool {
	return i == nil || (i.Before == "" && i.After == "" && len(i.Details) == 0)
}

// Extractor locates merger information in page content.
//
// Extraction is best-effort: pages without a recognizable table or marker
// text yield an empty MergerInfo, never an error.
type Extractor interface {
	Extract(html string) *MergerInfo
}

// MergerRecord is one row of output: the merger information of a single
// province or commune page. Records are immutable once created.
type MergerRecord struct {
	ProvinceCode string       `json:"provinceCode"`
	ProvinceName string       `json:"provinceName"`
	CommuneCode  string       `json:"communeCode,omitempty"`
	CommuneName  string       `json:"communeName,omitempty"`
	Level        Level        `json:"level"`
	SourceURL    string       `json:"sourceUrl"`
	Before       string       `json:"before"`
	After        string       `json:"after"`
	Details      []DetailPair `json:"details"`
	ChangeCount  int          `json:"changeCount"`
	HasInfo      bool         `json:"hasInfo"`
}

// NewMergerRecord builds the record for a fetched page. A nil commune
// produces a province-level record. ChangeCount and HasInfo are derived
// from info so they always agree with the details.
func NewMergerRecord(province AdministrativeUnit, commune *AdministrativeUnit, sourceURL string, info *MergerInfo) *MergerRecord {
	if info == nil {
		info = &MergerInfo{}
	}
	r := &MergerRecord{
		ProvinceCode: province.Code,
		ProvinceName: province.Name,
		Level:        LevelProvince,
		SourceURL:    sourceURL,
		Before:       info.Before,
		After:        info.After,
		Details:      append([]DetailPair(nil), info.Details...),
	}
	if commune != nil {
		r.CommuneCode = commune.Code
		r.CommuneName = commune.Name
		r.Level = LevelCommune
	}
	r.ChangeCount = len(r.Details)
	r.HasInfo = r.Before != "" || r.After != "" || r.ChangeCount > 0
	return r
}

// Validate returns an error if the record breaks its invariants.
func (r *MergerRecord) Validate() error {
	if r.ProvinceCode == "" {
		return Errorf(EINVALID, "record province code required")
	}
	if r.ChangeCount != len(r.Details) {
		return Errorf(EINVALID, "record change count %d does not match %d details", r.ChangeCount, len(r.Details))
	}
	if r.HasInfo != (r.Before != "" || r.After != "" || r.ChangeCount > 0) {
		return Errorf(EINVALID, "record has-info flag inconsistent with content")
	}
	return nil
}

// Province returns the province unit of the record.
func (r *MergerRecord) Province() AdministrativeUnit {
	return AdministrativeUnit{Code: r.ProvinceCode, Name: r.ProvinceName, Level: LevelProvince}
}

// Commune returns the commune unit of the record, or nil for province-level records.
func (r *MergerRecord) Commune() *AdministrativeUnit {
	if r.CommuneCode == "" {
		return nil
	}
	return &AdministrativeUnit{Code: r.CommuneCode, Name: r.CommuneName, Level: LevelCommune, ParentCode: r.ProvinceCode}
}

// DetailsJSON serializes the detail pairs for flat report columns.
// Records without details serialize to an empty string.
func (r *MergerRecord) DetailsJSON() string {
	if len(r.Details) == 0 {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Details); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// ParseDetailsJSON is the inverse of DetailsJSON.
func ParseDetailsJSON(s string) ([]DetailPair, error) {
	if s == "" {
		return nil, nil
	}
	var details []DetailPair
	if err := json.Unmarshal([]byte(s), &details); err != nil {
		return nil, Errorf(EINVALID, "invalid details column: %v", err)
	}
	return details, nil
}
