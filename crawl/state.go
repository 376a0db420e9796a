package crawl

import (
	"sync"

	"github.com/fwojciec/sapnhap"
)

// State holds everything a crawl mutates: the collected records, the error
// log and the statistics. A single mutex guards all three so the log and
// the counters never disagree.
type State struct {
	mu        sync.Mutex
	records   []*sapnhap.MergerRecord
	errors    []*sapnhap.ErrorLogEntry
	stats     sapnhap.CrawlStats
	provinces int
}

// NewState returns an empty State.
func NewState() *State {
	return &State{}
}

// Succeeded counts one successful page fetch.
func (s *State) Succeeded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalProcessed++
	s.stats.SuccessCount++
}

// Failed counts one failed page fetch and appends its log entry.
func (s *State) Failed(entry *sapnhap.ErrorLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalProcessed++
	s.stats.RecordError(entry.Kind)
	s.errors = append(s.errors, entry)
}

// AddRecords appends records in order.
func (s *State) AddRecords(records ...*sapnhap.MergerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// ProvinceDone counts a finished province and returns the running total.
func (s *State) ProvinceDone() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provinces++
	return s.provinces
}

// Len returns the number of collected records.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// RecordsFrom returns a copy of the records collected from index i on.
func (s *State) RecordsFrom(i int) []*sapnhap.MergerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.records) {
		return []*sapnhap.MergerRecord{}
	}
	return append([]*sapnhap.MergerRecord(nil), s.records[i:]...)
}

// Report returns a consistent copy of the state.
func (s *State) Report() *sapnhap.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &sapnhap.Report{
		Records: append([]*sapnhap.MergerRecord(nil), s.records...),
		Errors:  append([]*sapnhap.ErrorLogEntry(nil), s.errors...),
		Stats:   s.stats,
	}
}

// communeCache maps province codes to their discovered communes.
type communeCache struct {
	mu sync.RWMutex
	m  map[string][]sapnhap.AdministrativeUnit
}

func newCommuneCache() *communeCache {
	return &communeCache{m: make(map[string][]sapnhap.AdministrativeUnit)}
}

func (c *communeCache) get(provinceCode string) ([]sapnhap.AdministrativeUnit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	units, ok := c.m[provinceCode]
	if !ok {
		return nil, false
	}
	return append([]sapnhap.AdministrativeUnit(nil), units...), true
}

func (c *communeCache) put(provinceCode string, units []sapnhap.AdministrativeUnit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[provinceCode] = append([]sapnhap.AdministrativeUnit(nil), units...)
}
