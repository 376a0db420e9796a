// Package excelize writes and reads XLSX reports and error logs using
// github.com/xuri/excelize/v2.
package excelize

import (
	"fmt"

	"github.com/fwojciec/sapnhap"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	DataSheet       = "Dữ liệu sáp nhập"
	StatsSheet      = "Thống kê"
	WithInfoSheet   = "Có thông tin sáp nhập"
	ErrorsSheet     = "Danh sách lỗi"
	ErrorStatsSheet = "Thống kê lỗi"
	RetrySheet      = "URLs cần retry"
)

// Ext is the file extension of files written by this package.
const Ext = ".xlsx"

// Ensure types implement their interfaces at compile time.
var (
	_ sapnhap.ReportWriter  = (*ReportWriter)(nil)
	_ sapnhap.RecordReader  = (*ReportReader)(nil)
	_ sapnhap.ErrorLogStore = (*ErrorLogStore)(nil)
)

// ReportWriter writes a report workbook with data, statistics, has-info and
// error sheets. The has-info and error sheets are only written when they
// have rows.
type ReportWriter struct{}

// NewReportWriter creates a ReportWriter.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// WriteReport writes report to path.
func (w *ReportWriter) WriteReport(path string, report *sapnhap.Report) error {
	b, err := newBook()
	if err != nil {
		return err
	}
	defer b.f.Close()

	if err := b.sheet(DataSheet, sapnhap.RecordColumns, recordRows(report.Records)); err != nil {
		return err
	}

	stats := report.Statistics()
	rows := make([][]any, len(stats))
	for i, s := range stats {
		rows[i] = []any{s.Category, s.Value, s.Count}
	}
	if err := b.sheet(StatsSheet, sapnhap.StatisticColumns, rows); err != nil {
		return err
	}

	if withInfo := report.RecordsWithInfo(); len(withInfo) > 0 {
		if err := b.sheet(WithInfoSheet, sapnhap.RecordColumns, recordRows(withInfo)); err != nil {
			return err
		}
	}
	if len(report.Errors) > 0 {
		if err := b.sheet(ErrorsSheet, sapnhap.ErrorLogColumns, errorRows(report.Errors)); err != nil {
			return err
		}
	}
	return b.save(path)
}

// ErrorLogStore writes error logs with detail, per-kind count and retry
// sheets, and reads them back.
type ErrorLogStore struct{}

// NewErrorLogStore creates an ErrorLogStore.
func NewErrorLogStore() *ErrorLogStore {
	return &ErrorLogStore{}
}

// WriteErrorLog writes entries to path.
func (s *ErrorLogStore) WriteErrorLog(path string, entries []*sapnhap.ErrorLogEntry) error {
	b, err := newBook()
	if err != nil {
		return err
	}
	defer b.f.Close()

	if err := b.sheet(ErrorsSheet, sapnhap.ErrorLogColumns, errorRows(entries)); err != nil {
		return err
	}

	counts := sapnhap.CountErrorKinds(entries)
	var countRows [][]any
	for _, kind := range []sapnhap.ErrorKind{
		sapnhap.ErrorKindRateLimited, sapnhap.ErrorKindTimeout, sapnhap.ErrorKindConnection, sapnhap.ErrorKindRequest,
	} {
		if n := counts[kind]; n > 0 {
			countRows = append(countRows, []any{string(kind), n})
		}
	}
	if err := b.sheet(ErrorStatsSheet, []string{"Loại lỗi", "Số lượng"}, countRows); err != nil {
		return err
	}

	units := sapnhap.UniqueFailedUnits(entries)
	retryRows := make([][]any, len(units))
	for i, e := range units {
		retryRows[i] = cells(e.RetryRow())
	}
	if err := b.sheet(RetrySheet, sapnhap.RetryUnitColumns, retryRows); err != nil {
		return err
	}
	return b.save(path)
}

// ReadErrorLog reads the error sheet of an error log or report workbook.
func (s *ErrorLogStore) ReadErrorLog(path string) ([]*sapnhap.ErrorLogEntry, error) {
	rows, err := readSheet(path, ErrorsSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*sapnhap.ErrorLogEntry{}, nil
	}
	t := sapnhap.NewTableReader(rows[0])
	entries := make([]*sapnhap.ErrorLogEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		e, err := t.ParseErrorLogRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", ErrorsSheet, i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReportReader reads records back from the data sheet of a report.
type ReportReader struct{}

// NewReportReader creates a ReportReader.
func NewReportReader() *ReportReader {
	return &ReportReader{}
}

// ReadRecords reads the data sheet of the report at path.
func (r *ReportReader) ReadRecords(path string) ([]*sapnhap.MergerRecord, error) {
	rows, err := readSheet(path, DataSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []*sapnhap.MergerRecord{}, nil
	}
	t := sapnhap.NewTableReader(rows[0])
	records := make([]*sapnhap.MergerRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec, err := t.ParseRecordRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", DataSheet, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// book tracks sheet creation on a new workbook.
type book struct {
	f       *excelize.File
	header  int
	created int
}

func newBook() (*book, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	return &book{f: f, header: style}, nil
}

// sheet writes a header and rows to a new sheet. The first sheet reuses
// the default sheet of the workbook.
func (b *book) sheet(name string, header []string, rows [][]any) error {
	if b.created == 0 {
		if err := b.f.SetSheetName(b.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := b.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	b.created++

	if err := b.f.SetSheetRow(name, "A1", ptr(cells(header))); err != nil {
		return fmt.Errorf("write header of %s: %w", name, err)
	}
	if err := b.f.SetRowStyle(name, 1, 1, b.header); err != nil {
		return fmt.Errorf("style header of %s: %w", name, err)
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := b.f.SetColWidth(name, "A", last, 20); err != nil {
		return fmt.Errorf("set widths of %s: %w", name, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := b.f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+2, err)
		}
	}
	return b.f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (b *book) save(path string) error {
	if err := b.f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// readSheet returns the rows of the named sheet, or of the first sheet when
// the workbook has no sheet of that name.
func readSheet(path, name string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, sapnhap.Errorf(sapnhap.EINVALID, "cannot open workbook %s: %v", path, err)
	}
	defer f.Close()

	sheet := name
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func recordRows(records []*sapnhap.MergerRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		row := cells(r.Row())
		row[9] = r.ChangeCount
		row[10] = r.HasInfo
		rows[i] = row
	}
	return rows
}

func errorRows(entries []*sapnhap.ErrorLogEntry) [][]any {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = cells(e.Row())
	}
	return rows
}

// cells sanitizes text for spreadsheet cells.
func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = sapnhap.SanitizeCell(v)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

func ptr[T any](v T) *T { return &v }
