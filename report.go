package sapnhap

import "math"

// Report is everything persisted at the end of a run.
type Report struct {
	Records []*MergerRecord
	Errors  []*ErrorLogEntry
	Stats   CrawlStats
}

// ReportSummary holds statistics derived from a report's records.
type ReportSummary struct {
	ByLevel      map[Level]int
	WithInfo     int
	WithoutInfo  int
	TotalChanges int
	Provinces    int
}

// Summarize derives the statistics shown in the summary sheet.
func (r *Report) Summarize() ReportSummary {
	s := ReportSummary{ByLevel: make(map[Level]int)}
	provinces := make(map[string]bool)
	for _, rec := range r.Records {
		s.ByLevel[rec.Level]++
		if rec.HasInfo {
			s.WithInfo++
		} else {
			s.WithoutInfo++
		}
		s.TotalChanges += rec.ChangeCount
		provinces[rec.ProvinceCode] = true
	}
	s.Provinces = len(provinces)
	return s
}

// RecordsWithInfo returns the records that carry merger information.
func (r *Report) RecordsWithInfo() []*MergerRecord {
	var out []*MergerRecord
	for _, rec := range r.Records {
		if rec.HasInfo {
			out = append(out, rec)
		}
	}
	return out
}

// ReportWriter persists a report to a file.
type ReportWriter interface {
	WriteReport(path string, report *Report) error
}

// RecordReader loads records back from a previously written report.
type RecordReader interface {
	ReadRecords(path string) ([]*MergerRecord, error)
}

// ErrorLogStore persists the error log so a later run can retry it.
type ErrorLogStore interface {
	WriteErrorLog(path string, entries []*ErrorLogEntry) error
	ReadErrorLog(path string) ([]*ErrorLogEntry, error)
}

// Statistic is one row of the statistics sheet.
type Statistic struct {
	Category string
	Value    string
	Count    float64
}

// StatisticColumns are the headers of the statistics sheet.
var StatisticColumns = []string{"Loại", "Giá trị", "Số lượng"}

// Statistics returns the rows of the statistics sheet: record counts by
// level and by merger information, then request counts. Per-kind error
// counts are only listed when errors occurred.
func (r *Report) Statistics() []Statistic {
	s := r.Summarize()
	stats := []Statistic{
		{"Cấp hành chính", LevelProvince.Label(), float64(s.ByLevel[LevelProvince])},
		{"Cấp hành chính", LevelCommune.Label(), float64(s.ByLevel[LevelCommune])},
		{"Thông tin sáp nhập", "Có thông tin sáp nhập", float64(s.WithInfo)},
		{"Thông tin sáp nhập", "Không có thông tin", float64(s.WithoutInfo)},
		{"Tổng số tỉnh/thành", "", float64(s.Provinces)},
		{"Tổng số thay đổi", "", float64(s.TotalChanges)},
		{"Tổng request", "", float64(r.Stats.TotalProcessed)},
		{"Request thành công", "", float64(r.Stats.SuccessCount)},
		{"Request lỗi", "", float64(r.Stats.ErrorCount)},
	}
	if r.Stats.TotalProcessed > 0 {
		rate := math.Round(r.Stats.SuccessRate()*10) / 10
		stats = append(stats, Statistic{"Tỷ lệ thành công (%)", "", rate})
	}
	if r.Stats.ErrorCount > 0 {
		stats = append(stats,
			Statistic{"Rate limit errors", "", float64(r.Stats.RateLimitCount)},
			Statistic{"Timeout errors", "", float64(r.Stats.TimeoutCount)},
			Statistic{"Connection errors", "", float64(r.Stats.ConnectionErrorCount)},
		)
	}
	return stats
}
