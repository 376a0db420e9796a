package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/sapnhap"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Config *Config
	Logger *slog.Logger
	Now    func() time.Time

	Reports   sapnhap.ReportWriter
	ErrorLogs sapnhap.ErrorLogStore
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config

	Sample SampleCmd `cmd:"" help:"Crawl the first 3 provinces with up to 5 communes each"`
	Crawl  CrawlCmd  `cmd:"" help:"Discover and crawl all provinces and communes"`
	Known  KnownCmd  `cmd:"" help:"Crawl a fixed province and commune list"`
	Retry  RetryCmd  `cmd:"" help:"Retry the units of an error log"`
	Menu   MenuCmd   `cmd:"" help:"Choose a crawl mode interactively"`
	Import ImportCmd `cmd:"" help:"Load a report or checkpoint into the lookup database"`
	Serve  ServeCmd  `cmd:"" help:"Serve the lookup API from the database"`
}

// SampleCmd is the "sample" subcommand.
type SampleCmd struct{}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	MaxProvinces int `name:"max-provinces" short:"n" help:"Crawl only the first N provinces (0 = all)"`
	MaxCommunes  int `name:"max-communes" help:"Crawl only the first N communes of each province (0 = all)"`
}

// KnownCmd is the "known" subcommand.
type KnownCmd struct {
	File        string `short:"f" required:"" type:"existingfile" env:"SAPNHAP_KNOWN_FILE" help:"TOML file listing provinces and communes"`
	MaxCommunes int    `name:"max-communes" help:"Crawl only the first N communes of each province (0 = all)"`
}

// RetryCmd is the "retry" subcommand.
type RetryCmd struct {
	File string `short:"f" help:"Error log to retry (default: newest error_log_* in the output directory)"`
}

// MenuCmd is the "menu" subcommand.
type MenuCmd struct{}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	Path string `arg:"" type:"existingfile" help:"Report (.xlsx, .csv) or checkpoint (.json) to import"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:"127.0.0.1:8080" env:"SAPNHAP_ADDR" help:"Listen address"`
}
