package sapnhap

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a terminal fetch failure.
type ErrorKind string

// Fetch failure kinds. Values match the error-log file format.
const (
	ErrorKindRateLimited ErrorKind = "rate_limit"
	ErrorKindTimeout     ErrorKind = "timeout"
	ErrorKindConnection  ErrorKind = "connection_error"
	ErrorKindRequest     ErrorKind = "request_error"
)

// FetchError is a classified transport failure.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s for %s", e.Kind, e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrorKindOf returns the kind of a fetch failure. Errors that were not
// classified by a Fetcher are reported as ErrorKindRequest.
func ErrorKindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrorKindRequest
}

// ErrorLogEntry records one unit whose fetch failed after all retries.
type ErrorLogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Kind         ErrorKind `json:"errorType"`
	URL          string    `json:"url"`
	Message      string    `json:"message"`
	ProvinceCode string    `json:"provinceCode,omitempty"`
	CommuneCode  string    `json:"communeCode,omitempty"`
	ProvinceName string    `json:"provinceName,omitempty"`
	CommuneName  string    `json:"communeName,omitempty"`
}

// TimestampLayout is the timestamp format used in error-log files.
const TimestampLayout = "2006-01-02 15:04:05"

// UniqueFailedUnits deduplicates entries by (province code, commune code),
// keeping the first entry of each pair. Entries without a province code do
// not identify a unit and are dropped.
func UniqueFailedUnits(entries []*ErrorLogEntry) []*ErrorLogEntry {
	type key struct{ province, commune string }
	seen := make(map[key]bool)
	var out []*ErrorLogEntry
	for _, e := range entries {
		if e == nil || e.ProvinceCode == "" {
			continue
		}
		k := key{e.ProvinceCode, e.CommuneCode}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// CountErrorKinds returns the number of entries per kind.
func CountErrorKinds(entries []*ErrorLogEntry) map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, e := range entries {
		counts[e.Kind]++
	}
	return counts
}
