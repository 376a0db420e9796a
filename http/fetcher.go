// Package http provides the net/http implementation of sapnhap.Fetcher and
// the JSON lookup handler.
package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/fwojciec/sapnhap"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 15 * time.Second

// DefaultHeaders are sent with every request. The upstream site serves a
// reduced page to clients that do not look like a browser.
var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "vi-VN,vi;q=0.9,en;q=0.8",
}

// Ensure Fetcher implements sapnhap.Fetcher at compile time.
var _ sapnhap.Fetcher = (*Fetcher)(nil)

// Fetcher performs single GET requests and classifies failures.
// It never retries; see crawl.FetchWithRetryDelays.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	headers map[string]string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (15s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHeader sets a request header, replacing the default of the same name.
func WithHeader(key, value string) Option {
	return func(f *Fetcher) {
		f.headers[key] = value
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout: DefaultFetchTimeout,
		headers: make(map[string]string, len(DefaultHeaders)),
	}
	for k, v := range DefaultHeaders {
		f.headers[k] = v
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the page at url and returns it as UTF-8 text.
// Failures are returned as *sapnhap.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &sapnhap.FetchError{Kind: sapnhap.ErrorKindRequest, URL: url, Err: err}
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &sapnhap.FetchError{Kind: classify(ctx, err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &sapnhap.FetchError{Kind: sapnhap.ErrorKindRateLimited, URL: url, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &sapnhap.FetchError{Kind: sapnhap.ErrorKindRequest, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		return "", &sapnhap.FetchError{Kind: classify(ctx, err), URL: url, Err: err}
	}

	return string(body), nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// decodeBody converts the body to UTF-8 when the response declares another
// charset. Undeclared bodies are assumed to be UTF-8.
func decodeBody(resp *http.Response) io.Reader {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return resp.Body
	}
	label := strings.TrimSpace(params["charset"])
	if label == "" {
		return resp.Body
	}
	enc, name := charset.Lookup(label)
	if enc == nil || name == "utf-8" {
		return resp.Body
	}
	return enc.NewDecoder().Reader(resp.Body)
}

// classify maps a transport error to an error kind.
func classify(ctx context.Context, err error) sapnhap.ErrorKind {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		return sapnhap.ErrorKindRequest
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return sapnhap.ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return sapnhap.ErrorKindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return sapnhap.ErrorKindConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return sapnhap.ErrorKindConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return sapnhap.ErrorKindConnection
	}
	return sapnhap.ErrorKindRequest
}
