package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sapnhap"
	"github.com/fwojciec/sapnhap/excelize"
	"github.com/fwojciec/sapnhap/goquery"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Now stamps output file names. Defaults to time.Now.
	Now func() time.Time

	// Primary output formats. CSV is written when they fail.
	ReportWriter  sapnhap.ReportWriter
	ErrorLogStore sapnhap.ErrorLogStore
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Now:           time.Now,
		ReportWriter:  excelize.NewReportWriter(),
		ErrorLogStore: excelize.NewErrorLogStore(),
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sapnhap"),
		kong.Description("Collect Vietnamese administrative merger information."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{
			"base_url":       sapnhap.DefaultBaseURL,
			"province_param": sapnhap.DefaultProvinceParam,
			"commune_param":  sapnhap.DefaultCommuneParam,
			"before_marker":  goquery.DefaultBeforeMarker,
			"after_marker":   goquery.DefaultAfterMarker,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'sapnhap --help' to see available commands")
	}

	switch args[0] {
	case "help", "--help", "-h":
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Config: &cli.Config,
		Now:    m.Now,
		Logger: cli.Config.logger(stderr),

		Reports:   m.ReportWriter,
		ErrorLogs: m.ErrorLogStore,
	}

	// Interrupted commands return after saving partial results.
	err = kongCtx.Run(deps)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, "Interrupted.")
	}
	return err
}

// errorText returns the message of application errors and the full text
// of anything else.
func errorText(err error) string {
	if sapnhap.ErrorCode(err) == sapnhap.EINTERNAL {
		return err.Error()
	}
	return sapnhap.ErrorMessage(err)
}

// discardLogger drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
