package crawl

import "github.com/fwojciec/sapnhap"

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressProvince
	ProgressUnitDone
	ProgressUnitFailed
	ProgressRetrying
	ProgressCheckpoint
	ProgressFinished
)

// ProgressEvent reports progress during a crawl or retry pass.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int

	// Province and Unit are display names; Unit is empty for
	// province-level pages. Code is the unit's code.
	Province string
	Unit     string
	Code     string

	URL     string
	Attempt int
	Path    string

	Record *sapnhap.MergerRecord
	Entry  *sapnhap.ErrorLogEntry
	Error  error
}

// ProgressFunc is a callback for reporting crawl progress. Calls are
// serialized by the Crawler.
type ProgressFunc func(event ProgressEvent)
