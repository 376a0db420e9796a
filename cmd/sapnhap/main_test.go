package main_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sapnhap"
	main "github.com/fwojciec/sapnhap/cmd/sapnhap"
	sapnhapcsv "github.com/fwojciec/sapnhap/csv"
	"github.com/fwojciec/sapnhap/excelize"
	"github.com/fwojciec/sapnhap/mock"
	"github.com/fwojciec/sapnhap/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

// site serves a search root listing two provinces, each with two
// communes. While failing is set, commune 792 answers 500.
type site struct {
	*httptest.Server
	failing atomic.Bool
}

func newSite(t *testing.T) *site {
	t.Helper()
	s := &site{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tra-cuu", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		province := r.URL.Query().Get("MaTinh")
		commune := r.URL.Query().Get("MaXa")
		switch {
		case province == "":
			fmt.Fprint(w, `<select name="tinh"><option value="">-- Chọn tỉnh --</option>
<option value="01">Hà Nội</option><option value="79">Hồ Chí Minh</option></select>`)
		case commune == "":
			fmt.Fprintf(w, `<a href="/tra-cuu?MaTinh=%[1]s&amp;MaXa=%[1]s1">Phường Một</a>
<a href="/tra-cuu?MaTinh=%[1]s&amp;MaXa=%[1]s2">Xã Hai</a>`, province)
		case commune == "792" && s.failing.Load():
			w.WriteHeader(http.StatusInternalServerError)
		default:
			fmt.Fprintf(w, `<table><tr><th>Trước sáp nhập</th><th>Sau sáp nhập</th></tr>
<tr><td>Xã cũ %[1]s</td><td>Xã mới %[1]s</td></tr></table>`, commune)
		}
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *site) flags(out string) []string {
	return []string{
		"--base-url", s.URL + "/tra-cuu",
		"--out", out,
		"--attempts", "1",
		"--commune-delay", "0s",
		"--province-delay", "0s",
		"--retry-delay", "0s",
		"--checkpoint-every", "0",
		"--timeout", "5s",
	}
}

type result struct {
	stdout, stderr string
	err            error
}

func run(ctx context.Context, stdin string, args ...string) result {
	return runMain(ctx, main.NewMain(), stdin, args...)
}

func runMain(ctx context.Context, m *main.Main, stdin string, args ...string) result {
	m.Now = func() time.Time { return fixedNow }
	var stdout, stderr bytes.Buffer
	err := m.Run(ctx, args, strings.NewReader(stdin), &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func readReport(t *testing.T, path string) []*sapnhap.MergerRecord {
	t.Helper()
	records, err := excelize.NewReportReader().ReadRecords(path)
	require.NoError(t, err)
	return records
}

func TestMain_Run_Help(t *testing.T) {
	t.Parallel()

	t.Run("lists commands", func(t *testing.T) {
		t.Parallel()

		r := run(context.Background(), "", "--help")

		require.NoError(t, r.err)
		for _, cmd := range []string{"sample", "crawl", "known", "retry", "menu", "import", "serve"} {
			assert.Contains(t, r.stdout, cmd, "Help should mention %s command", cmd)
		}
	})

	t.Run("fails without command", func(t *testing.T) {
		t.Parallel()

		r := run(context.Background(), "")

		require.Error(t, r.err)
		assert.Contains(t, r.err.Error(), "no command specified")
	})
}

func TestSampleCmd(t *testing.T) {
	t.Parallel()

	t.Run("saves report, error log and summary", func(t *testing.T) {
		t.Parallel()

		s := newSite(t)
		s.failing.Store(true)
		out := t.TempDir()

		r := run(context.Background(), "", append([]string{"sample"}, s.flags(out)...)...)

		require.NoError(t, r.err)
		reportPath := filepath.Join(out, "sap_nhap_20250701_120000.xlsx")
		assert.Contains(t, r.stdout, "Report saved: "+reportPath)
		assert.Contains(t, r.stdout, "Error log saved: "+filepath.Join(out, "error_log_20250701_120000.xlsx"))
		assert.Contains(t, r.stdout, "Found 2 provinces")
		assert.Contains(t, r.stdout, "Requests:         7 (6 ok, 1 failed, 85.7% success)")
		assert.Contains(t, r.stdout, "Run 'sapnhap retry' to retry 1 failed units.")
		assert.Contains(t, r.stderr, "HTTP 500")
		assert.Len(t, readReport(t, reportPath), 5)
	})

	t.Run("retry recovers failed units from the latest error log", func(t *testing.T) {
		t.Parallel()

		s := newSite(t)
		s.failing.Store(true)
		out := t.TempDir()
		require.NoError(t, run(context.Background(), "", append([]string{"sample"}, s.flags(out)...)...).err)

		s.failing.Store(false)
		r := run(context.Background(), "", append([]string{"retry"}, s.flags(out)...)...)

		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Retrying 1 units")
		records := readReport(t, filepath.Join(out, "sap_nhap_retry_20250701_120000.xlsx"))
		require.Len(t, records, 1)
		assert.Equal(t, "792", records[0].CommuneCode)
		assert.Equal(t, "Xã cũ 792", records[0].Before)
	})

	t.Run("saves partial results when interrupted", func(t *testing.T) {
		t.Parallel()

		s := newSite(t)
		out := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := run(ctx, "", append([]string{"sample"}, s.flags(out)...)...)

		assert.ErrorIs(t, r.err, context.Canceled)
		assert.Contains(t, r.stderr, "Interrupted.")
		assert.FileExists(t, filepath.Join(out, "sap_nhap_20250701_120000.xlsx"))
	})
}

func TestSave_FallsBackToCSV(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	s.failing.Store(true)
	out := t.TempDir()
	m := main.NewMain()
	m.ReportWriter = &mock.ReportWriter{
		WriteReportFn: func(path string, report *sapnhap.Report) error {
			return errors.New("disk full")
		},
	}
	m.ErrorLogStore = &mock.ErrorLogStore{
		WriteErrorLogFn: func(path string, entries []*sapnhap.ErrorLogEntry) error {
			return errors.New("disk full")
		},
	}

	r := runMain(context.Background(), m, "", append([]string{"sample"}, s.flags(out)...)...)

	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "disk full")
	records, err := sapnhapcsv.NewReportReader().ReadRecords(filepath.Join(out, "sap_nhap_20250701_120000.csv"))
	require.NoError(t, err)
	assert.Len(t, records, 5)

	s.failing.Store(false)
	retry := run(context.Background(), "", append([]string{"retry"}, s.flags(out)...)...)
	require.NoError(t, retry.err)
	assert.Contains(t, retry.stdout, "error_log_20250701_120000.csv")
}

func TestCrawlCmd(t *testing.T) {
	t.Parallel()

	t.Run("limits provinces and stores records in the database", func(t *testing.T) {
		t.Parallel()

		s := newSite(t)
		out := t.TempDir()
		dbPath := filepath.Join(out, "sapnhap.db")

		r := run(context.Background(), "", append([]string{"crawl", "--max-provinces", "1", "--db", dbPath}, s.flags(out)...)...)

		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Stored 3 records")

		db := sqlite.NewDB(dbPath)
		require.NoError(t, db.Open())
		defer db.Close()
		records, err := sqlite.NewRecordService(db).FindRecords(context.Background(), sapnhap.RecordFilter{})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "01", records[0].ProvinceCode)
	})

	t.Run("reports unreachable search page", func(t *testing.T) {
		t.Parallel()

		out := t.TempDir()
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()

		r := run(context.Background(), "", "crawl", "--base-url", dead.URL, "--out", out, "--attempts", "1")

		require.Error(t, r.err)
		assert.Equal(t, sapnhap.ENOTFOUND, sapnhap.ErrorCode(r.err))
		assert.FileExists(t, filepath.Join(out, "error_log_20250701_120000.xlsx"))
	})
}

func TestKnownCmd(t *testing.T) {
	t.Parallel()

	s := newSite(t)
	out := t.TempDir()
	known := filepath.Join(out, "known.toml")
	require.NoError(t, os.WriteFile(known, []byte(`
[[province]]
code = "79"
name = "TP. Hồ Chí Minh"

  [[province.commune]]
  code = "791"
  name = "Phường Một"
`), 0644))

	r := run(context.Background(), "", append([]string{"known", "--file", known}, s.flags(out)...)...)

	require.NoError(t, r.err)
	records := readReport(t, filepath.Join(out, "sap_nhap_20250701_120000.xlsx"))
	require.Len(t, records, 2)
	assert.Equal(t, "TP. Hồ Chí Minh", records[0].ProvinceName)
	assert.Equal(t, "791", records[1].CommuneCode)
}

func TestMenuCmd(t *testing.T) {
	t.Parallel()

	t.Run("runs limited discovery with chosen province count", func(t *testing.T) {
		t.Parallel()

		s := newSite(t)
		out := t.TempDir()

		r := run(context.Background(), "4\n1\n", append([]string{"menu"}, s.flags(out)...)...)

		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Number of provinces [5]")
		assert.Len(t, readReport(t, filepath.Join(out, "sap_nhap_20250701_120000.xlsx")), 3)
	})

	t.Run("rejects unknown choice", func(t *testing.T) {
		t.Parallel()

		r := run(context.Background(), "9\n", "menu", "--out", t.TempDir())

		assert.Equal(t, sapnhap.EINVALID, sapnhap.ErrorCode(r.err))
	})

	t.Run("rejects invalid province count", func(t *testing.T) {
		t.Parallel()

		r := run(context.Background(), "4\nmany\n", "menu", "--out", t.TempDir())

		assert.Equal(t, sapnhap.EINVALID, sapnhap.ErrorCode(r.err))
	})
}

func TestImportCmd(t *testing.T) {
	t.Parallel()

	t.Run("imports report into database", func(t *testing.T) {
		t.Parallel()

		s := newSite(t)
		out := t.TempDir()
		require.NoError(t, run(context.Background(), "", append([]string{"sample"}, s.flags(out)...)...).err)
		dbPath := filepath.Join(t.TempDir(), "lookup.db")

		r := run(context.Background(), "", "import", filepath.Join(out, "sap_nhap_20250701_120000.xlsx"), "--db", dbPath)

		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Stored 6 records")
	})

	t.Run("requires a database", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "checkpoint.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"provinceCode":"01","provinceName":"Hà Nội","level":"province"}]`), 0644))

		r := run(context.Background(), "", "import", path)

		assert.Equal(t, sapnhap.EINVALID, sapnhap.ErrorCode(r.err))
	})
}

func TestServeCmd(t *testing.T) {
	t.Parallel()

	t.Run("stops when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r := run(ctx, "", "serve", "--addr", "127.0.0.1:0", "--db", filepath.Join(t.TempDir(), "lookup.db"))

		require.NoError(t, r.err)
		assert.Contains(t, r.stdout, "Serving lookup API on http://127.0.0.1:")
	})

	t.Run("requires a database", func(t *testing.T) {
		t.Parallel()

		r := run(context.Background(), "", "serve", "--addr", "127.0.0.1:0")

		assert.Equal(t, sapnhap.EINVALID, sapnhap.ErrorCode(r.err))
	})
}
