// Package fetch implements the SourceFetcher port: it downloads the
// upstream source tarball over HTTP and unpacks it, replacing the
// wget/tar pair of the original bootstrap script.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"golang.org/x/time/rate"

	"github.com/monetci/monetup/internal/core/ports/driven"
	"github.com/monetci/monetup/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.SourceFetcher = (*Fetcher)(nil)

const (
	downloadAttempts = 3
	downloadDelay    = 2 * time.Second
)

// Fetcher downloads and unpacks source tarballs.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with a default HTTP client.
func NewFetcher() *Fetcher {
	return &Fetcher{client: &http.Client{}}
}

// Fetch downloads rawURL into destDir and returns the archive path. A
// non-empty archive of the same name from an earlier run is reused.
// Transient failures are retried with backoff; HTTP 4xx responses are
// fatal immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, destDir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("source url %q has no file name", rawURL)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	dest := filepath.Join(destDir, name)
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		logger.Info("reusing downloaded archive %s (%s)", dest, humanize.Bytes(uint64(info.Size())))
		return dest, nil
	}

	err = retry.Call(retry.CallArgs{
		Func: func() error {
			return f.download(ctx, rawURL, dest)
		},
		IsFatalError: func(err error) bool {
			var status *statusError
			return errors.As(err, &status) && status.code >= 400 && status.code < 500
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Warn("download attempt %d failed: %v", attempt, err)
		},
		Attempts:    downloadAttempts,
		Delay:       downloadDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clock.WallClock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	return dest, nil
}

// statusError carries a non-2xx HTTP response status.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return "unexpected HTTP status " + e.status
}

func (f *Fetcher) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}

	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return err
	}

	logger.Info("downloading %s (%s)", rawURL, sizeLabel(resp.ContentLength))
	written, err := io.Copy(out, &progressReader{
		r:       resp.Body,
		total:   resp.ContentLength,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	})
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(part)
		return err
	}

	logger.Info("downloaded %s", humanize.Bytes(uint64(written)))
	return os.Rename(part, dest)
}

// progressReader logs download progress, throttled so verbose runs do
// not drown in progress lines.
type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	limiter *rate.Limiter
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if n > 0 && p.limiter.Allow() {
		logger.Debug("downloaded %s of %s", humanize.Bytes(uint64(p.read)), sizeLabel(p.total))
	}
	return n, err
}

func sizeLabel(n int64) string {
	if n < 0 {
		return "unknown size"
	}
	return humanize.Bytes(uint64(n))
}
