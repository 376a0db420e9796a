// Package slog provides logging decorators for sapnhap services using
// log/slog.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sapnhap"
)

// Ensure LoggingFetcher implements sapnhap.Fetcher.
var _ sapnhap.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging. Failed fetches are
// logged at warn level with their failure kind.
type LoggingFetcher struct {
	next   sapnhap.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next sapnhap.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		if err != nil {
			f.logger.Warn("fetch",
				"url", url,
				"kind", sapnhap.ErrorKindOf(err),
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		f.logger.Info("fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Ensure LoggingDiscoverer implements sapnhap.Discoverer.
var _ sapnhap.Discoverer = (*LoggingDiscoverer)(nil)

// LoggingDiscoverer wraps a Discoverer with debug logging of unit counts.
type LoggingDiscoverer struct {
	next   sapnhap.Discoverer
	logger *slog.Logger
}

// NewLoggingDiscoverer creates a new LoggingDiscoverer.
func NewLoggingDiscoverer(next sapnhap.Discoverer, logger *slog.Logger) *LoggingDiscoverer {
	return &LoggingDiscoverer{next: next, logger: logger}
}

// DiscoverProvinces delegates to the wrapped discoverer and logs the result.
func (d *LoggingDiscoverer) DiscoverProvinces(html string) (units []sapnhap.AdministrativeUnit, err error) {
	defer func() {
		d.logger.Debug("discover provinces", "count", len(units), "err", err)
	}()
	return d.next.DiscoverProvinces(html)
}

// DiscoverCommunes delegates to the wrapped discoverer and logs the result.
func (d *LoggingDiscoverer) DiscoverCommunes(html string, provinceCode string) (units []sapnhap.AdministrativeUnit, err error) {
	defer func() {
		d.logger.Debug("discover communes", "province", provinceCode, "count", len(units), "err", err)
	}()
	return d.next.DiscoverCommunes(html, provinceCode)
}

// Ensure LoggingRecordService implements sapnhap.RecordService.
var _ sapnhap.RecordService = (*LoggingRecordService)(nil)

// LoggingRecordService wraps a RecordService with logging.
type LoggingRecordService struct {
	next   sapnhap.RecordService
	logger *slog.Logger
}

// NewLoggingRecordService creates a new LoggingRecordService.
func NewLoggingRecordService(next sapnhap.RecordService, logger *slog.Logger) *LoggingRecordService {
	return &LoggingRecordService{next: next, logger: logger}
}

// CreateRecords delegates to the wrapped service and logs the operation.
func (s *LoggingRecordService) CreateRecords(ctx context.Context, records []*sapnhap.MergerRecord) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("create records",
			"count", len(records),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateRecords(ctx, records)
}

// FindRecords delegates to the wrapped service and logs the operation.
func (s *LoggingRecordService) FindRecords(ctx context.Context, filter sapnhap.RecordFilter) (records []*sapnhap.MergerRecord, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find records",
			"filter", filter,
			"count", len(records),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindRecords(ctx, filter)
}

// FindProvinces delegates to the wrapped service and logs the operation.
func (s *LoggingRecordService) FindProvinces(ctx context.Context) (units []sapnhap.AdministrativeUnit, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find provinces",
			"count", len(units),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindProvinces(ctx)
}

// FindCommunes delegates to the wrapped service and logs the operation.
func (s *LoggingRecordService) FindCommunes(ctx context.Context, provinceCode string) (units []sapnhap.AdministrativeUnit, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find communes",
			"province", provinceCode,
			"count", len(units),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindCommunes(ctx, provinceCode)
}
