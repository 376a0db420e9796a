package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/crawl"
	sapnhapcsv "github.com/fwojciec/sapnhap/csv"
	"github.com/fwojciec/sapnhap/excelize"
	"github.com/fwojciec/sapnhap/fs"
	sapnhapslog "github.com/fwojciec/sapnhap/slog"
	"github.com/fwojciec/sapnhap/sqlite"
)

// save writes the report, the error log when errors occurred, and the
// summary. A report that cannot be written as XLSX is written as CSV.
// Records are also stored in the database when one is configured.
func (deps *Dependencies) save(prefix string, report *sapnhap.Report) error {
	out := deps.Config.Out
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	now := deps.Now()

	path, err := writeWithFallback(
		filepath.Join(out, fs.ReportName(prefix, now, excelize.Ext)),
		func(p string) error { return deps.Reports.WriteReport(p, report) },
		filepath.Join(out, fs.ReportName(prefix, now, sapnhapcsv.Ext)),
		func(p string) error { return sapnhapcsv.NewReportWriter().WriteReport(p, report) },
		deps.Stderr,
	)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Report saved: %s\n", path)

	if len(report.Errors) > 0 {
		path, err := writeWithFallback(
			filepath.Join(out, fs.ErrorLogName(now, excelize.Ext)),
			func(p string) error { return deps.ErrorLogs.WriteErrorLog(p, report.Errors) },
			filepath.Join(out, fs.ErrorLogName(now, sapnhapcsv.Ext)),
			func(p string) error { return sapnhapcsv.NewErrorLogStore().WriteErrorLog(p, report.Errors) },
			deps.Stderr,
		)
		if err != nil {
			return fmt.Errorf("save error log: %w", err)
		}
		fmt.Fprintf(deps.Stdout, "Error log saved: %s\n", path)
	}

	fmt.Fprintln(deps.Stdout)
	crawl.WriteSummary(deps.Stdout, report)

	if deps.Config.DB != "" && len(report.Records) > 0 {
		// Interrupted runs still store what they collected.
		if err := deps.storeRecords(context.WithoutCancel(deps.Ctx), report.Records); err != nil {
			return err
		}
	}
	return nil
}

func writeWithFallback(primary string, write func(string) error, fallback string, writeFallback func(string) error, stderr io.Writer) (string, error) {
	err := write(primary)
	if err == nil {
		return primary, nil
	}
	fmt.Fprintf(stderr, "warning: cannot write %s: %v; writing %s instead\n", primary, err, fallback)
	if err := writeFallback(fallback); err != nil {
		return "", err
	}
	return fallback, nil
}

// openRecords opens the configured database and returns its record service.
func (deps *Dependencies) openRecords() (*sqlite.DB, sapnhap.RecordService, error) {
	if deps.Config.DB == "" {
		return nil, nil, sapnhap.Errorf(sapnhap.EINVALID, "no database configured; pass --db or set SAPNHAP_DB")
	}
	db := sqlite.NewDB(deps.Config.DB)
	if err := db.Open(); err != nil {
		return nil, nil, fmt.Errorf("failed to open database at %q: %w", deps.Config.DB, err)
	}
	return db, sapnhapslog.NewLoggingRecordService(sqlite.NewRecordService(db), deps.Logger), nil
}

func (deps *Dependencies) storeRecords(ctx context.Context, records []*sapnhap.MergerRecord) error {
	db, svc, err := deps.openRecords()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := svc.CreateRecords(ctx, records); err != nil {
		return fmt.Errorf("store records: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Stored %d records in %s\n", len(records), deps.Config.DB)
	return nil
}

// recordReader picks a reader by file extension.
func recordReader(path string) sapnhap.RecordReader {
	switch strings.ToLower(filepath.Ext(path)) {
	case sapnhapcsv.Ext:
		return sapnhapcsv.NewReportReader()
	case ".json":
		return checkpointReader{}
	default:
		return excelize.NewReportReader()
	}
}

type checkpointReader struct{}

func (checkpointReader) ReadRecords(path string) ([]*sapnhap.MergerRecord, error) {
	return fs.ReadCheckpoint(path)
}

// errorLogStore picks an error log store by file extension.
func errorLogStore(path string) sapnhap.ErrorLogStore {
	if strings.ToLower(filepath.Ext(path)) == sapnhapcsv.Ext {
		return sapnhapcsv.NewErrorLogStore()
	}
	return excelize.NewErrorLogStore()
}

// progressPrinter renders crawl events: progress on stdout, failures and
// retries on stderr.
func (deps *Dependencies) progressPrinter(noun string) crawl.ProgressFunc {
	var provinces int
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Found %d %s\n", e.Total, noun)
		case crawl.ProgressProvince:
			provinces++
			fmt.Fprintf(deps.Stdout, "[%d/%d] %s (%s)\n", provinces, e.Total, e.Province, e.Code)
		case crawl.ProgressUnitDone:
			name := e.Unit
			if name == "" {
				name = e.Province
			}
			if e.Record != nil && e.Record.HasInfo {
				fmt.Fprintf(deps.Stdout, "  + %s: %d changes\n", name, e.Record.ChangeCount)
			} else {
				fmt.Fprintf(deps.Stdout, "  - %s: no merger info\n", name)
			}
		case crawl.ProgressUnitFailed:
			fmt.Fprintf(deps.Stderr, "  ! %s: %v\n", crawl.TruncateURL(e.URL, 80), e.Error)
		case crawl.ProgressRetrying:
			fmt.Fprintf(deps.Stderr, "  retry %d %s: %v\n", e.Attempt, crawl.TruncateURL(e.URL, 80), e.Error)
		case crawl.ProgressCheckpoint:
			if e.Error != nil {
				fmt.Fprintf(deps.Stderr, "warning: checkpoint after %d provinces failed: %v\n", e.Completed, e.Error)
			} else {
				fmt.Fprintf(deps.Stdout, "Checkpoint saved: %s\n", e.Path)
			}
		case crawl.ProgressFinished:
			fmt.Fprintf(deps.Stdout, "Collected %d records\n", e.Completed)
		}
	}
}
