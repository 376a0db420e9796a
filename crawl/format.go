package crawl

import (
	"fmt"
	"io"

	"github.com/fwojciec/sapnhap"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatRate formats a percentage with one decimal.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// WriteSummary prints the end-of-run summary. When errors occurred it
// suggests running the retry pass.
func WriteSummary(w io.Writer, r *sapnhap.Report) {
	s := r.Summarize()
	fmt.Fprintf(w, "Records:          %d\n", len(r.Records))
	fmt.Fprintf(w, "  %-16s%d\n", sapnhap.LevelProvince.Label()+":", s.ByLevel[sapnhap.LevelProvince])
	fmt.Fprintf(w, "  %-16s%d\n", sapnhap.LevelCommune.Label()+":", s.ByLevel[sapnhap.LevelCommune])
	fmt.Fprintf(w, "With merger info: %d\n", s.WithInfo)
	fmt.Fprintf(w, "Without info:     %d\n", s.WithoutInfo)
	fmt.Fprintf(w, "Total changes:    %d\n", s.TotalChanges)
	fmt.Fprintf(w, "Requests:         %d (%d ok, %d failed, %s success)\n",
		r.Stats.TotalProcessed, r.Stats.SuccessCount, r.Stats.ErrorCount, FormatRate(r.Stats.SuccessRate()))

	if r.Stats.ErrorCount == 0 {
		return
	}
	fmt.Fprintf(w, "Errors:\n")
	fmt.Fprintf(w, "  rate limited:   %d\n", r.Stats.RateLimitCount)
	fmt.Fprintf(w, "  timeout:        %d\n", r.Stats.TimeoutCount)
	fmt.Fprintf(w, "  connection:     %d\n", r.Stats.ConnectionErrorCount)
	other := r.Stats.ErrorCount - r.Stats.RateLimitCount - r.Stats.TimeoutCount - r.Stats.ConnectionErrorCount
	fmt.Fprintf(w, "  other:          %d\n", other)
	fmt.Fprintf(w, "Run 'sapnhap retry' to retry %d failed units.\n", len(sapnhap.UniqueFailedUnits(r.Errors)))
}
