package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/crawl"
	"github.com/fwojciec/sapnhap/fs"
	"github.com/fwojciec/sapnhap/goquery"
	sapnhaphttp "github.com/fwojciec/sapnhap/http"
	sapnhapslog "github.com/fwojciec/sapnhap/slog"
)

// Config holds the flags shared by every command.
type Config struct {
	BaseURL       string `name:"base-url" default:"${base_url}" env:"SAPNHAP_BASE_URL" help:"Search page URL"`
	ProvinceParam string `name:"province-param" default:"${province_param}" env:"SAPNHAP_PROVINCE_PARAM" help:"Query parameter identifying a province"`
	CommuneParam  string `name:"commune-param" default:"${commune_param}" env:"SAPNHAP_COMMUNE_PARAM" help:"Query parameter identifying a commune"`

	Timeout         time.Duration `default:"15s" env:"SAPNHAP_TIMEOUT" help:"Per-request timeout"`
	Attempts        int           `default:"3" env:"SAPNHAP_ATTEMPTS" help:"Attempts per page"`
	Backoff         time.Duration `default:"2s" env:"SAPNHAP_BACKOFF" help:"Wait before the first retry, doubled after each retry"`
	CommuneDelay    time.Duration `name:"commune-delay" default:"1.2s" env:"SAPNHAP_COMMUNE_DELAY" help:"Wait before each commune page"`
	ProvinceDelay   time.Duration `name:"province-delay" default:"3s" env:"SAPNHAP_PROVINCE_DELAY" help:"Wait after each province"`
	RetryDelay      time.Duration `name:"retry-delay" default:"2s" env:"SAPNHAP_RETRY_DELAY" help:"Wait between units of a retry pass"`
	Workers         int           `default:"1" env:"SAPNHAP_WORKERS" help:"Provinces crawled in parallel (max 5)"`
	RPS             float64       `name:"rps" default:"0" env:"SAPNHAP_RPS" help:"Maximum requests per second (0 = unlimited)"`
	CheckpointEvery int           `name:"checkpoint-every" default:"5" env:"SAPNHAP_CHECKPOINT_EVERY" help:"Write a checkpoint after every N provinces (0 = never)"`

	MinCellLength int    `name:"min-cell-length" default:"0" env:"SAPNHAP_MIN_CELL_LENGTH" help:"Ignore table cells not longer than N characters"`
	BeforeMarker  string `name:"before-marker" default:"${before_marker}" env:"SAPNHAP_BEFORE_MARKER" help:"Header text of the before-merger column"`
	AfterMarker   string `name:"after-marker" default:"${after_marker}" env:"SAPNHAP_AFTER_MARKER" help:"Header text of the after-merger column"`

	Out     string `short:"o" default:"." type:"path" env:"SAPNHAP_OUT" help:"Output directory"`
	DB      string `name:"db" type:"path" env:"SAPNHAP_DB" help:"SQLite database receiving crawled records"`
	Verbose bool   `short:"v" env:"SAPNHAP_VERBOSE" help:"Log requests to stderr"`
}

func (cfg *Config) endpoint() sapnhap.Endpoint {
	return sapnhap.Endpoint{
		BaseURL:       cfg.BaseURL,
		ProvinceParam: cfg.ProvinceParam,
		CommuneParam:  cfg.CommuneParam,
	}
}

func (cfg *Config) logger(stderr io.Writer) *slog.Logger {
	if !cfg.Verbose {
		return discardLogger()
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newCrawler wires the HTTP fetcher, goquery discovery and extraction,
// rate limiting and checkpoints into a Crawler. The caller closes the
// returned fetcher.
func (cfg *Config) newCrawler(logger *slog.Logger) (*crawl.Crawler, sapnhap.Fetcher) {
	endpoint := cfg.endpoint()
	fetcher := sapnhapslog.NewLoggingFetcher(sapnhaphttp.NewFetcher(sapnhaphttp.WithTimeout(cfg.Timeout)), logger)
	discoverer := sapnhapslog.NewLoggingDiscoverer(goquery.NewDiscoverer(endpoint), logger)
	extractor := goquery.NewExtractor(
		goquery.WithMarkers(cfg.BeforeMarker, cfg.AfterMarker),
		goquery.WithMinCellLength(cfg.MinCellLength),
	)

	c := crawl.NewCrawler(endpoint, fetcher, discoverer, extractor)
	c.RateLimiter = crawl.NewLimiter(cfg.RPS)
	c.Checkpointer = fs.NewCheckpointStore(cfg.Out)
	c.CheckpointEvery = cfg.CheckpointEvery
	c.Workers = cfg.Workers
	c.RetryDelays = crawl.BackoffDelays(cfg.Attempts, cfg.Backoff)
	c.CommuneDelay = cfg.CommuneDelay
	c.ProvinceDelay = cfg.ProvinceDelay
	c.RetryPassDelay = cfg.RetryDelay
	return c, fetcher
}
