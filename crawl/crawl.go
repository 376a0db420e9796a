// Package crawl drives discovery and extraction across the province and
// commune tree, recording failures for a later retry pass.
package crawl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/sapnhap"
	"golang.org/x/sync/errgroup"
)

// Crawl defaults.
const (
	DefaultCommuneDelay    = 1200 * time.Millisecond
	DefaultProvinceDelay   = 3 * time.Second
	DefaultRetryPassDelay  = 2 * time.Second
	DefaultCheckpointEvery = 5
	MaxWorkers             = 5
)

// Crawler orchestrates fetching and extraction of merger pages.
// A Crawler accumulates state across calls; use a new one per run.
type Crawler struct {
	Endpoint   sapnhap.Endpoint
	Fetcher    sapnhap.Fetcher
	Discoverer sapnhap.Discoverer
	Extractor  sapnhap.Extractor

	// RateLimiter is optional.
	RateLimiter sapnhap.RateLimiter

	// Checkpointer is optional. It receives every record collected so far
	// after each CheckpointEvery finished provinces.
	Checkpointer    sapnhap.Checkpointer
	CheckpointEvery int

	// Workers is the number of provinces processed in parallel, capped at
	// MaxWorkers. Values below 2 process provinces sequentially.
	Workers int

	// RetryDelays are the waits between attempts of one fetch. Nil means
	// DefaultRetryDelays; an empty slice disables retries.
	RetryDelays []time.Duration

	// Politeness delays. Zero disables the delay.
	CommuneDelay   time.Duration
	ProvinceDelay  time.Duration
	RetryPassDelay time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	once       sync.Once
	state      *State
	cache      *communeCache
	progressMu sync.Mutex
}

// Scope selects which units a run covers.
type Scope struct {
	// Known, when non-nil, replaces province discovery with a fixed list.
	Known []sapnhap.KnownProvince

	// MaxProvinces keeps only the first N provinces. Zero means all.
	MaxProvinces int

	// MaxCommunes keeps only the first N communes of each province.
	// Zero means all.
	MaxCommunes int
}

// SampleScope covers the first 3 provinces with at most 5 communes each.
func SampleScope() Scope {
	return Scope{MaxProvinces: 3, MaxCommunes: 5}
}

// NewCrawler returns a Crawler with the default delays.
func NewCrawler(endpoint sapnhap.Endpoint, fetcher sapnhap.Fetcher, discoverer sapnhap.Discoverer, extractor sapnhap.Extractor) *Crawler {
	return &Crawler{
		Endpoint:        endpoint,
		Fetcher:         fetcher,
		Discoverer:      discoverer,
		Extractor:       extractor,
		CheckpointEvery: DefaultCheckpointEvery,
		Workers:         1,
		CommuneDelay:    DefaultCommuneDelay,
		ProvinceDelay:   DefaultProvinceDelay,
		RetryPassDelay:  DefaultRetryPassDelay,
	}
}

func (c *Crawler) init() {
	c.once.Do(func() {
		c.state = NewState()
		c.cache = newCommuneCache()
	})
}

// Run crawls the units selected by scope and returns the records it
// collected. Unit failures are logged and never stop the run. When ctx is
// canceled Run returns the records collected so far together with the
// context error. Run fails with ENOTFOUND when no provinces can be found.
func (c *Crawler) Run(ctx context.Context, scope Scope, progress ProgressFunc) ([]*sapnhap.MergerRecord, error) {
	c.init()
	start := c.state.Len()

	provinces, err := c.provinces(ctx, scope, progress)
	if err != nil {
		return c.state.RecordsFrom(start), err
	}
	if scope.MaxProvinces > 0 && len(provinces) > scope.MaxProvinces {
		provinces = provinces[:scope.MaxProvinces]
	}

	total := len(provinces)
	c.emit(progress, ProgressEvent{Type: ProgressStarted, Total: total})

	var g errgroup.Group
	g.SetLimit(c.workers())
	for i, p := range provinces {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			c.emit(progress, ProgressEvent{Type: ProgressProvince, Total: total, Province: p.Name, Code: p.Code})
			records := c.processProvince(ctx, p, scope.MaxCommunes, progress)
			c.state.AddRecords(records...)
			done := c.state.ProvinceDone()
			c.maybeCheckpoint(ctx, done, progress)
			if i < total-1 {
				_ = sleep(ctx, c.ProvinceDelay)
			}
			return nil
		})
	}
	_ = g.Wait()

	records := c.state.RecordsFrom(start)
	c.emit(progress, ProgressEvent{Type: ProgressFinished, Completed: len(records), Total: total})
	return records, ctx.Err()
}

// provinces returns the fixed list from scope or discovers it from the
// search root page.
func (c *Crawler) provinces(ctx context.Context, scope Scope, progress ProgressFunc) ([]sapnhap.KnownProvince, error) {
	if scope.Known != nil {
		if len(scope.Known) == 0 {
			return nil, sapnhap.Errorf(sapnhap.EINVALID, "known province list is empty")
		}
		return scope.Known, nil
	}

	rootURL := c.Endpoint.URL("", "")
	html, ok := c.fetch(ctx, rootURL, sapnhap.AdministrativeUnit{}, nil, progress)
	if !ok {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, sapnhap.Errorf(sapnhap.ENOTFOUND, "could not fetch search page %s", rootURL)
	}
	units, err := c.Discoverer.DiscoverProvinces(html)
	if err != nil {
		return nil, fmt.Errorf("discover provinces: %w", err)
	}
	if len(units) == 0 {
		return nil, sapnhap.Errorf(sapnhap.ENOTFOUND, "no provinces found on %s", rootURL)
	}
	out := make([]sapnhap.KnownProvince, len(units))
	for i, u := range units {
		out[i] = sapnhap.KnownProvince{AdministrativeUnit: u}
	}
	return out, nil
}

// processProvince fetches the province page, then each of its communes in
// order. It returns the records it collected, also when interrupted.
func (c *Crawler) processProvince(ctx context.Context, p sapnhap.KnownProvince, maxCommunes int, progress ProgressFunc) []*sapnhap.MergerRecord {
	province := p.AdministrativeUnit
	province.Level = sapnhap.LevelProvince

	var records []*sapnhap.MergerRecord
	provinceURL := c.Endpoint.URL(province.Code, "")
	html, ok := c.fetch(ctx, provinceURL, province, nil, progress)
	if ok {
		rec := sapnhap.NewMergerRecord(province, nil, provinceURL, c.Extractor.Extract(html))
		records = append(records, rec)
		c.emit(progress, ProgressEvent{Type: ProgressUnitDone, Province: province.Name, Code: province.Code, URL: provinceURL, Record: rec})
	}

	communes := p.Communes
	if len(communes) == 0 {
		if cached, hit := c.cache.get(province.Code); hit {
			communes = cached
		} else if ok {
			communes = c.discoverCommunes(html, province.Code)
		}
	}
	if maxCommunes > 0 && len(communes) > maxCommunes {
		communes = communes[:maxCommunes]
	}

	for _, commune := range communes {
		if err := sleep(ctx, c.CommuneDelay); err != nil {
			break
		}
		commune.Level = sapnhap.LevelCommune
		commune.ParentCode = province.Code
		if rec := c.fetchRecord(ctx, province, &commune, progress); rec != nil {
			records = append(records, rec)
		}
	}
	return records
}

// Communes returns the communes of a province, fetching the province page
// only when they are not cached yet.
func (c *Crawler) Communes(ctx context.Context, province sapnhap.AdministrativeUnit) ([]sapnhap.AdministrativeUnit, error) {
	c.init()
	if units, ok := c.cache.get(province.Code); ok {
		return units, nil
	}
	url := c.Endpoint.URL(province.Code, "")
	html, ok := c.fetch(ctx, url, province, nil, nil)
	if !ok {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, sapnhap.Errorf(sapnhap.ENOTFOUND, "could not fetch province page %s", url)
	}
	return c.discoverCommunes(html, province.Code), nil
}

func (c *Crawler) discoverCommunes(html, provinceCode string) []sapnhap.AdministrativeUnit {
	units, err := c.Discoverer.DiscoverCommunes(html, provinceCode)
	if err != nil || units == nil {
		units = []sapnhap.AdministrativeUnit{}
	}
	c.cache.put(provinceCode, units)
	return units
}

// fetchRecord fetches and extracts one unit page. It returns nil when the
// fetch failed.
func (c *Crawler) fetchRecord(ctx context.Context, province sapnhap.AdministrativeUnit, commune *sapnhap.AdministrativeUnit, progress ProgressFunc) *sapnhap.MergerRecord {
	communeCode := ""
	if commune != nil {
		communeCode = commune.Code
	}
	url := c.Endpoint.URL(province.Code, communeCode)
	html, ok := c.fetch(ctx, url, province, commune, progress)
	if !ok {
		return nil
	}
	rec := sapnhap.NewMergerRecord(province, commune, url, c.Extractor.Extract(html))
	c.emit(progress, ProgressEvent{Type: ProgressUnitDone, Province: province.Name, Unit: rec.CommuneName, Code: communeCode, URL: url, Record: rec})
	return rec
}

// fetch performs one logical fetch with retries. Terminal failures are
// appended to the error log; interruptions are not.
func (c *Crawler) fetch(ctx context.Context, url string, province sapnhap.AdministrativeUnit, commune *sapnhap.AdministrativeUnit, progress ProgressFunc) (string, bool) {
	c.init()
	if ctx.Err() != nil {
		return "", false
	}
	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx, url); err != nil {
			return "", false
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	onRetry := func(attempt int, err error) {
		c.emit(progress, ProgressEvent{Type: ProgressRetrying, URL: url, Attempt: attempt, Error: err})
	}
	html, err := FetchWithRetryDelays(ctx, url, c.Fetcher.Fetch, onRetry, delays)
	if err == nil {
		c.state.Succeeded()
		return html, true
	}
	if ctx.Err() != nil {
		return "", false
	}

	entry := &sapnhap.ErrorLogEntry{
		Timestamp:    c.now(),
		Kind:         sapnhap.ErrorKindOf(err),
		URL:          url,
		Message:      err.Error(),
		ProvinceCode: province.Code,
		ProvinceName: province.Name,
	}
	if commune != nil {
		entry.CommuneCode = commune.Code
		entry.CommuneName = commune.Name
	}
	c.state.Failed(entry)
	c.emit(progress, ProgressEvent{Type: ProgressUnitFailed, Province: province.Name, Unit: entry.CommuneName, URL: url, Error: err, Entry: entry})
	return "", false
}

func (c *Crawler) maybeCheckpoint(ctx context.Context, done int, progress ProgressFunc) {
	if c.Checkpointer == nil || c.CheckpointEvery <= 0 || done%c.CheckpointEvery != 0 {
		return
	}
	path, err := c.Checkpointer.Checkpoint(ctx, done, c.state.Report().Records)
	c.emit(progress, ProgressEvent{Type: ProgressCheckpoint, Completed: done, Path: path, Error: err})
}

// Retry re-fetches each unit of the error log once, deduplicated by
// province and commune code, and returns the records that now succeed.
// Units failing again are appended to this crawler's error log; the
// given entries are left untouched.
func (c *Crawler) Retry(ctx context.Context, entries []*sapnhap.ErrorLogEntry, progress ProgressFunc) ([]*sapnhap.MergerRecord, error) {
	c.init()
	start := c.state.Len()

	units := sapnhap.UniqueFailedUnits(entries)
	c.emit(progress, ProgressEvent{Type: ProgressStarted, Total: len(units)})

	for i, e := range units {
		if i > 0 {
			if err := sleep(ctx, c.RetryPassDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		province := sapnhap.AdministrativeUnit{Code: e.ProvinceCode, Name: e.ProvinceName, Level: sapnhap.LevelProvince}
		var commune *sapnhap.AdministrativeUnit
		if e.CommuneCode != "" {
			commune = &sapnhap.AdministrativeUnit{Code: e.CommuneCode, Name: e.CommuneName, Level: sapnhap.LevelCommune, ParentCode: e.ProvinceCode}
		}
		if rec := c.fetchRecord(ctx, province, commune, progress); rec != nil {
			c.state.AddRecords(rec)
		}
	}

	records := c.state.RecordsFrom(start)
	c.emit(progress, ProgressEvent{Type: ProgressFinished, Completed: len(records), Total: len(units)})
	return records, ctx.Err()
}

// Snapshot returns the records, error log and statistics accumulated so far.
func (c *Crawler) Snapshot() *sapnhap.Report {
	c.init()
	return c.state.Report()
}

func (c *Crawler) workers() int {
	switch {
	case c.Workers < 1:
		return 1
	case c.Workers > MaxWorkers:
		return MaxWorkers
	default:
		return c.Workers
	}
}

func (c *Crawler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// emit delivers events one at a time, also when workers run in parallel.
func (c *Crawler) emit(progress ProgressFunc, event ProgressEvent) {
	if progress == nil {
		return
	}
	c.progressMu.Lock()
	defer c.progressMu.Unlock()
	progress(event)
}
