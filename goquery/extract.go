package goquery

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sapnhap"
)

// Ensure Extractor implements sapnhap.Extractor.
var _ sapnhap.Extractor = (*Extractor)(nil)

// Default header markers.
const (
	DefaultBeforeMarker = "trước sáp nhập"
	DefaultAfterMarker  = "sau sáp nhập"
)

// Extractor reads before/after merger pairs from the first table whose
// header row names both markers. Pages without such a table fall back to
// a text search for "<marker>: value" lines.
type Extractor struct {
	beforeMarker string
	afterMarker  string
	minLength    int

	beforePattern *regexp.Regexp
	afterPattern  *regexp.Regexp
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMarkers overrides the header markers. Matching is case-insensitive
// substring containment.
func WithMarkers(before, after string) ExtractorOption {
	return func(e *Extractor) {
		e.beforeMarker = before
		e.afterMarker = after
	}
}

// WithMinCellLength rejects data cells whose text is not longer than n
// characters.
func WithMinCellLength(n int) ExtractorOption {
	return func(e *Extractor) {
		e.minLength = n
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		beforeMarker: DefaultBeforeMarker,
		afterMarker:  DefaultAfterMarker,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.beforeMarker = strings.ToLower(e.beforeMarker)
	e.afterMarker = strings.ToLower(e.afterMarker)
	e.beforePattern = markerPattern(e.beforeMarker)
	e.afterPattern = markerPattern(e.afterMarker)
	return e
}

func markerPattern(marker string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(marker) + `[:\s]*([^\n]+)`)
}

// Extract never fails: unparseable or unrecognized pages yield an empty
// MergerInfo. The marker-line fallback over page text applies only when no
// table had a matching header row.
func (e *Extractor) Extract(content string) *sapnhap.MergerInfo {
	info := &sapnhap.MergerInfo{}
	doc, err := parse(content)
	if err != nil {
		return info
	}

	matched := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		matched = e.extractTable(table, info)
		return !matched
	})

	if !matched {
		text := doc.Text()
		info.Before = firstMatch(e.beforePattern, text)
		info.After = firstMatch(e.afterPattern, text)
	}
	return info
}

// extractTable reports whether the table had a matching header row.
func (e *Extractor) extractTable(table *goquery.Selection, info *sapnhap.MergerInfo) bool {
	beforeCol, afterCol := -1, -1
	matched := false
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if !matched {
			beforeCol, afterCol = e.headerColumns(cells)
			matched = beforeCol >= 0 && afterCol >= 0
			return
		}
		if cells.Length() <= max(beforeCol, afterCol) {
			return
		}
		before := cellText(cells.Eq(beforeCol))
		after := cellText(cells.Eq(afterCol))
		if !e.accept(before) || !e.accept(after) {
			return
		}
		info.Details = append(info.Details, sapnhap.DetailPair{Before: before, After: after})
		if info.Before == "" {
			info.Before = before
		}
		if info.After == "" {
			info.After = after
		}
	})
	return matched
}

// headerColumns returns the first column containing each marker, or -1.
func (e *Extractor) headerColumns(cells *goquery.Selection) (int, int) {
	beforeCol, afterCol := -1, -1
	if cells.Length() < 2 {
		return beforeCol, afterCol
	}
	cells.Each(func(i int, cell *goquery.Selection) {
		text := strings.ToLower(cellText(cell))
		if beforeCol < 0 && strings.Contains(text, e.beforeMarker) {
			beforeCol = i
		}
		if afterCol < 0 && strings.Contains(text, e.afterMarker) {
			afterCol = i
		}
	})
	return beforeCol, afterCol
}

func (e *Extractor) accept(text string) bool {
	return text != "" && utf8.RuneCountInString(text) > e.minLength
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
