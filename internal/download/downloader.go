// Package download fetches image bytes over HTTP, one at a time or as a
// concurrent batch that waits for every download before returning.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDownload marks failures to retrieve an image from its remote URL.
var ErrDownload = errors.New("download failed")

const maxImageSize = 20 << 20

// Cache stores downloaded bytes by URL. Implementations report failures as misses.
type Cache interface {
	Get(ctx context.Context, url string) ([]byte, bool)
	Set(ctx context.Context, url string, data []byte)
}

type Downloader struct {
	httpClient *http.Client
	timeout    time.Duration
	// limit caps in-flight downloads in FetchAll; 0 means unlimited.
	limit int
	cache Cache
}

type Option func(*Downloader)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.httpClient = c }
}

func WithCache(c Cache) Option {
	return func(d *Downloader) { d.cache = c }
}

func NewDownloader(timeout time.Duration, limit int, opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: http.DefaultClient,
		timeout:    timeout,
		limit:      limit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Result is one successful download.
type Result struct {
	URL  string
	Data []byte
}

// Fetch downloads a single URL.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	if d.cache != nil {
		if data, ok := d.cache.Get(ctx, url); ok {
			slog.Debug("image cache hit", "url", url)
			return data, nil
		}
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDownload, url, err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDownload, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w %s: unexpected status: %s", ErrDownload, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDownload, url, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w %s: empty body", ErrDownload, url)
	}

	if d.cache != nil {
		d.cache.Set(ctx, url, data)
	}
	return data, nil
}

// FetchAll downloads every URL concurrently and waits for all of them.
// Failed downloads are logged and dropped; the successful results keep the
// input order. An error is returned only when ctx is done.
func (d *Downloader) FetchAll(ctx context.Context, urls []string) ([]Result, error) {
	slots := make([][]byte, len(urls))

	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			data, err := d.Fetch(ctx, url)
			if err != nil {
				slog.Warn("dropping failed download", "url", url, "error", err)
				return nil
			}
			slots[i] = data
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(urls))
	for i, data := range slots {
		if data != nil {
			results = append(results, Result{URL: urls[i], Data: data})
		}
	}
	return results, nil
}
