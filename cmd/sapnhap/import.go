package main

import (
	"fmt"

	"github.com/fwojciec/sapnhap"
)

// Run executes the import command.
func (c *ImportCmd) Run(deps *Dependencies) error {
	records, err := recordReader(c.Path).ReadRecords(c.Path)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sapnhap.ErrorMessage(err))
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(deps.Stdout, "No records in %s\n", c.Path)
		return nil
	}
	return deps.storeRecords(deps.Ctx, records)
}
