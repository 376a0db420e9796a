// Package goquery implements page discovery and merger-info extraction
// on top of github.com/PuerkitoBio/goquery.
package goquery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sapnhap"
	"golang.org/x/net/html"
)

var spaceRun = regexp.MustCompile(`\s+`)

// cellText returns the trimmed, entity-decoded text of a selection.
// The parser already decodes entities once; a second pass catches
// double-escaped values such as "&amp;agrave;".
func cellText(sel *goquery.Selection) string {
	text := html.UnescapeString(sel.Text())
	return strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
}

func parse(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, sapnhap.Errorf(sapnhap.EINVALID, "failed to parse HTML: %v", err)
	}
	return doc, nil
}
