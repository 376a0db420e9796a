// Package csv writes and reads reports and error logs as UTF-8 CSV files
// with a byte order mark, so spreadsheet programs detect the encoding.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/fs"
)

// Ext is the file extension of files written by this package.
const Ext = ".csv"

const bom = "\ufeff"

// Ensure types implement their interfaces at compile time.
var (
	_ sapnhap.ReportWriter  = (*ReportWriter)(nil)
	_ sapnhap.RecordReader  = (*ReportReader)(nil)
	_ sapnhap.ErrorLogStore = (*ErrorLogStore)(nil)
)

// ReportWriter writes the record table of a report. CSV has a single
// table, so statistics and errors are left to the summary and error log.
type ReportWriter struct{}

// NewReportWriter creates a ReportWriter.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// WriteReport writes the records of report to path.
func (w *ReportWriter) WriteReport(path string, report *sapnhap.Report) error {
	rows := make([][]string, len(report.Records))
	for i, r := range report.Records {
		rows[i] = r.Row()
	}
	return writeTable(path, sapnhap.RecordColumns, rows)
}

// ReportReader reads records from a CSV report.
type ReportReader struct{}

// NewReportReader creates a ReportReader.
func NewReportReader() *ReportReader {
	return &ReportReader{}
}

// ReadRecords reads the records of the report at path.
func (r *ReportReader) ReadRecords(path string) ([]*sapnhap.MergerRecord, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	t := sapnhap.NewTableReader(header)
	records := make([]*sapnhap.MergerRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := t.ParseRecordRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ErrorLogStore writes and reads error logs.
type ErrorLogStore struct{}

// NewErrorLogStore creates an ErrorLogStore.
func NewErrorLogStore() *ErrorLogStore {
	return &ErrorLogStore{}
}

// WriteErrorLog writes entries to path.
func (s *ErrorLogStore) WriteErrorLog(path string, entries []*sapnhap.ErrorLogEntry) error {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}
	return writeTable(path, sapnhap.ErrorLogColumns, rows)
}

// ReadErrorLog reads the entries of the error log at path.
func (s *ErrorLogStore) ReadErrorLog(path string) ([]*sapnhap.ErrorLogEntry, error) {
	header, rows, err := readTable(path)
	if err != nil {
		return nil, err
	}
	t := sapnhap.NewTableReader(header)
	entries := make([]*sapnhap.ErrorLogEntry, 0, len(rows))
	for i, row := range rows {
		e, err := t.ParseErrorLogRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func writeTable(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	buf.WriteString(bom)
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		clean := make([]string, len(row))
		for i, c := range row {
			clean[i] = sapnhap.SanitizeCell(c)
		}
		if err := w.Write(clean); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return fs.WriteFileAtomic(path, buf.Bytes())
}

// readTable returns the header and data rows of the file at path. Blank
// lines are skipped and rows may have fewer fields than the header.
func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, sapnhap.Errorf(sapnhap.ENOTFOUND, "file %s not found", path)
		}
		return nil, nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if b, err := br.Peek(len(bom)); err == nil && string(b) == bom {
		_, _ = br.Discard(len(bom))
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, sapnhap.Errorf(sapnhap.EINVALID, "file %s is empty", path)
	}
	if err != nil {
		return nil, nil, sapnhap.Errorf(sapnhap.EINVALID, "cannot parse %s: %v", path, err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, sapnhap.Errorf(sapnhap.EINVALID, "cannot parse %s: %v", path, err)
	}
	return header, rows, nil
}
