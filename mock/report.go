package mock

import (
	"context"

	"github.com/fwojciec/sapnhap"
)

var _ sapnhap.ReportWriter = (*ReportWriter)(nil)

// ReportWriter is a mock implementation of sapnhap.ReportWriter.
type ReportWriter struct {
	WriteReportFn func(path string, report *sapnhap.Report) error
}

func (w *ReportWriter) WriteReport(path string, report *sapnhap.Report) error {
	return w.WriteReportFn(path, report)
}

var _ sapnhap.ErrorLogStore = (*ErrorLogStore)(nil)

// ErrorLogStore is a mock implementation of sapnhap.ErrorLogStore.
type ErrorLogStore struct {
	WriteErrorLogFn func(path string, entries []*sapnhap.ErrorLogEntry) error
	ReadErrorLogFn  func(path string) ([]*sapnhap.ErrorLogEntry, error)
}

func (s *ErrorLogStore) WriteErrorLog(path string, entries []*sapnhap.ErrorLogEntry) error {
	return s.WriteErrorLogFn(path, entries)
}

func (s *ErrorLogStore) ReadErrorLog(path string) ([]*sapnhap.ErrorLogEntry, error) {
	return s.ReadErrorLogFn(path)
}

var _ sapnhap.Checkpointer = (*Checkpointer)(nil)

// Checkpointer is a mock implementation of sapnhap.Checkpointer.
type Checkpointer struct {
	CheckpointFn func(ctx context.Context, n int, records []*sapnhap.MergerRecord) (string, error)
}

func (c *Checkpointer) Checkpoint(ctx context.Context, n int, records []*sapnhap.MergerRecord) (string, error) {
	return c.CheckpointFn(ctx, n, records)
}
