package main

import (
	"errors"
	"fmt"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/fs"
)

// Run executes the retry command.
func (c *RetryCmd) Run(deps *Dependencies) error {
	path := c.File
	if path == "" {
		latest, err := fs.LatestErrorLog(deps.Config.Out)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", sapnhap.ErrorMessage(err))
			return err
		}
		path = latest
	}

	entries, err := errorLogStore(path).ReadErrorLog(path)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sapnhap.ErrorMessage(err))
		return err
	}
	units := sapnhap.UniqueFailedUnits(entries)
	if len(units) == 0 {
		fmt.Fprintf(deps.Stdout, "No failed units in %s\n", path)
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Retrying %d units from %s\n", len(units), path)

	crawler, fetcher := deps.Config.newCrawler(deps.Logger)
	defer fetcher.Close()

	_, runErr := crawler.Retry(deps.Ctx, units, deps.progressPrinter("units to retry"))
	saveErr := deps.save(fs.RetryPrefix, crawler.Snapshot())
	return errors.Join(runErr, saveErr)
}
