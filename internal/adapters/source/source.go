// Package source fetches the raw dataset payload from a file or an http(s) URL.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/okian/dinger/internal/domain/dataset"
)

const defaultTimeout = 30 * time.Second

// Option applies a configuration option to the Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds a single fetch, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHTTPClient replaces the http client used for URL locations.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.http = c
		}
	}
}

// Fetcher opens dataset payloads.
type Fetcher struct {
	http    *http.Client
	timeout time.Duration
}

// New returns a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{http: &http.Client{}, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Open returns the payload at location. The caller closes it.
func (f *Fetcher) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}
	if !isURL(location) {
		fh, err := os.Open(location) //nolint:gosec // location comes from operator config
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return fh, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: GET %s: %w", ErrUnavailable, location, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: GET %s: HTTP %d", ErrStatus, location, resp.StatusCode)
	}
	return &cancelBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// Load opens location and parses it into a dataset.
func (f *Fetcher) Load(ctx context.Context, location string) (*dataset.Dataset, error) {
	rc, err := f.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := dataset.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", location, err)
	}
	return ds, nil
}

// cancelBody releases the request context once the body is closed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
