package sapnhap

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Column names of the record table shared by every report format.
var RecordColumns = []string{
	"ma_tinh", "ten_tinh", "ma_xa", "ten_xa", "cap_hanh_chinh", "url",
	"truoc_sap_nhap", "sau_sap_nhap", "chi_tiet_json", "so_luong_thay_doi", "co_thong_tin",
}

// Column names of the error-log table. Files with this header are accepted
// as input of the retry pass.
var ErrorLogColumns = []string{
	"timestamp", "error_type", "url", "message", "ma_tinh", "ma_xa", "ten_tinh", "ten_xa",
}

// RetryUnitColumns are the columns of the deduplicated retry list.
var RetryUnitColumns = []string{"url", "ma_tinh", "ma_xa", "ten_tinh", "ten_xa"}

// MaxCellLength is the longest text a spreadsheet cell can hold.
const MaxCellLength = 32767

// SanitizeCell drops control characters other than tab and newline and
// truncates the text to MaxCellLength characters.
func SanitizeCell(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' {
			return r
		}
		if r < 0x20 || (r >= 0x7f && r < 0xa0) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
	if utf8.RuneCountInString(s) > MaxCellLength {
		s = string([]rune(s)[:MaxCellLength])
	}
	return s
}

// Row returns the record as cells in RecordColumns order.
func (r *MergerRecord) Row() []string {
	return []string{
		r.ProvinceCode, r.ProvinceName, r.CommuneCode, r.CommuneName, r.Level.Label(), r.SourceURL,
		r.Before, r.After, r.DetailsJSON(), strconv.Itoa(r.ChangeCount), strconv.FormatBool(r.HasInfo),
	}
}

// Row returns the entry as cells in ErrorLogColumns order.
func (e *ErrorLogEntry) Row() []string {
	ts := ""
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.Format(TimestampLayout)
	}
	return []string{ts, string(e.Kind), e.URL, e.Message, e.ProvinceCode, e.CommuneCode, e.ProvinceName, e.CommuneName}
}

// RetryRow returns the entry as cells in RetryUnitColumns order.
func (e *ErrorLogEntry) RetryRow() []string {
	return []string{e.URL, e.ProvinceCode, e.CommuneCode, e.ProvinceName, e.CommuneName}
}

// TableReader maps the header of a table to column positions so rows can
// be read by column name regardless of column order.
type TableReader struct {
	index map[string]int
}

// NewTableReader indexes a header row. Names are matched after trimming
// spaces and a UTF-8 byte order mark.
func NewTableReader(header []string) *TableReader {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return &TableReader{index: index}
}

// Has reports whether the header contains every named column.
func (t *TableReader) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.index[n]; !ok {
			return false
		}
	}
	return true
}

// Get returns the trimmed cell of the named column, or "" when the column
// or cell is missing.
func (t *TableReader) Get(row []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseRecordRow reads a record row. ChangeCount and HasInfo are derived
// from the row content rather than trusted.
func (t *TableReader) ParseRecordRow(row []string) (*MergerRecord, error) {
	if !t.Has("ma_tinh") {
		return nil, Errorf(EINVALID, "record table has no ma_tinh column")
	}
	details, err := ParseDetailsJSON(t.Get(row, "chi_tiet_json"))
	if err != nil {
		return nil, err
	}
	province := AdministrativeUnit{Code: t.Get(row, "ma_tinh"), Name: t.Get(row, "ten_tinh"), Level: LevelProvince}
	var commune *AdministrativeUnit
	if code := t.Get(row, "ma_xa"); code != "" {
		commune = &AdministrativeUnit{Code: code, Name: t.Get(row, "ten_xa"), Level: LevelCommune, ParentCode: province.Code}
	}
	rec := NewMergerRecord(province, commune, t.Get(row, "url"), &MergerInfo{
		Before:  t.Get(row, "truoc_sap_nhap"),
		After:   t.Get(row, "sau_sap_nhap"),
		Details: details,
	})
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// ParseErrorLogRow reads an error-log row. Timestamps that do not parse are
// left zero.
func (t *TableReader) ParseErrorLogRow(row []string) (*ErrorLogEntry, error) {
	if !t.Has("ma_tinh", "ma_xa") {
		return nil, Errorf(EINVALID, "error log table requires ma_tinh and ma_xa columns")
	}
	e := &ErrorLogEntry{
		Kind:         ErrorKind(t.Get(row, "error_type")),
		URL:          t.Get(row, "url"),
		Message:      t.Get(row, "message"),
		ProvinceCode: t.Get(row, "ma_tinh"),
		CommuneCode:  t.Get(row, "ma_xa"),
		ProvinceName: t.Get(row, "ten_tinh"),
		CommuneName:  t.Get(row, "ten_xa"),
	}
	if ts, err := time.ParseInLocation(TimestampLayout, t.Get(row, "timestamp"), time.Local); err == nil {
		e.Timestamp = ts
	}
	return e, nil
}
