package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/crawl"
	"github.com/fwojciec/sapnhap/fs"
	"github.com/fwojciec/sapnhap/toml"
)

// Run executes the sample command.
func (c *SampleCmd) Run(deps *Dependencies) error {
	return deps.crawl(crawl.SampleScope())
}

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	if c.MaxProvinces < 0 || c.MaxCommunes < 0 {
		return sapnhap.Errorf(sapnhap.EINVALID, "limits must not be negative")
	}
	return deps.crawl(crawl.Scope{MaxProvinces: c.MaxProvinces, MaxCommunes: c.MaxCommunes})
}

// Run executes the known command.
func (c *KnownCmd) Run(deps *Dependencies) error {
	known, err := toml.LoadKnownList(c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sapnhap.ErrorMessage(err))
		return err
	}
	return deps.crawl(crawl.Scope{Known: known, MaxCommunes: c.MaxCommunes})
}

// crawl runs the crawler over scope and saves whatever it collected, also
// when the run fails or is interrupted.
func (deps *Dependencies) crawl(scope crawl.Scope) error {
	c, fetcher := deps.Config.newCrawler(deps.Logger)
	defer fetcher.Close()

	fmt.Fprintf(deps.Stdout, "Crawling %s\n", deps.Config.BaseURL)
	_, runErr := c.Run(deps.Ctx, scope, deps.progressPrinter("provinces"))

	saveErr := deps.save(fs.ReportPrefix, c.Snapshot())
	return errors.Join(runErr, saveErr)
}
