package sapnhap

// CrawlStats counts request outcomes during a crawl.
type CrawlStats struct {
	TotalProcessed       int `json:"totalProcessed"`
	SuccessCount         int `json:"successCount"`
	ErrorCount           int `json:"errorCount"`
	RateLimitCount       int `json:"rateLimitCount"`
	TimeoutCount         int `json:"timeoutCount"`
	ConnectionErrorCount int `json:"connectionErrorCount"`
}

// RecordError counts one logged failure of the given kind.
func (s *CrawlStats) RecordError(kind ErrorKind) {
	s.ErrorCount++
	switch kind {
	case ErrorKindRateLimited:
		s.RateLimitCount++
	case ErrorKindTimeout:
		s.TimeoutCount++
	case ErrorKindConnection:
		s.ConnectionErrorCount++
	}
}

// SuccessRate returns the percentage of processed requests that succeeded.
// It is zero when nothing was processed.
func (s CrawlStats) SuccessRate() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.TotalProcessed) * 100
}
