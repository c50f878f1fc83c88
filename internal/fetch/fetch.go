// Package fetch downloads resolved media candidates into ledger-managed files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mediaforge/internal/fileutil"
	"mediaforge/internal/logging"
	"mediaforge/internal/resolver"
	"mediaforge/internal/services"
	"mediaforge/internal/tempfiles"
)

const defaultMaxBytes = 100 << 20

// Fetcher downloads Direct candidates.
type Fetcher struct {
	files      tempfiles.Reserver
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithMaxBytes caps the size of a single download.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New returns a Fetcher that writes into files reserved from files.
func New(files tempfiles.Reserver, timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	f := &Fetcher{
		files:      files,
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   defaultMaxBytes,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetch")
	return f
}

// Fetch downloads c into a new managed file. The file's extension comes from
// the URL path, else the response content type.
func (f *Fetcher) Fetch(ctx context.Context, c resolver.Candidate) (*tempfiles.File, error) {
	if c.Kind != resolver.Direct {
		return nil, services.Wrap(services.ErrValidation, "fetch", "fetch", "candidate is not directly fetchable: "+c.URL, nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "fetch", "fetch", "invalid url", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "fetch", "fetch", "request "+c.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		marker := services.ErrExternalTool
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			marker = services.ErrNotFound
		}
		return nil, services.Wrap(marker, "fetch", "fetch", fmt.Sprintf("%s returned status %d", c.URL, resp.StatusCode), nil)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, services.Wrap(services.ErrValidation, "fetch", "fetch",
			fmt.Sprintf("%s is %d bytes, limit is %d", c.URL, resp.ContentLength, f.maxBytes), nil)
	}

	file := f.files.Reserve(extensionFor(c.URL, resp.Header.Get("Content-Type")))
	written, err := fileutil.WriteLimited(file.Path(), resp.Body, f.maxBytes)
	if err != nil {
		f.files.Release(file)
		if errors.Is(err, fileutil.ErrTooLarge) {
			return nil, services.Wrap(services.ErrValidation, "fetch", "fetch", c.URL, err)
		}
		return nil, services.Wrap(services.ErrTransient, "fetch", "fetch", "download "+c.URL, err)
	}
	logging.WithContext(ctx, f.logger).Debug("media downloaded",
		logging.String("url", c.URL),
		logging.String("path", file.Path()),
		logging.Int64("bytes", written),
	)
	return file, nil
}

// FetchAll downloads every candidate concurrently. If any download fails,
// the files fetched so far are released and the first error is returned.
func (f *Fetcher) FetchAll(ctx context.Context, candidates []resolver.Candidate) ([]*tempfiles.File, error) {
	files := make([]*tempfiles.File, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		g.Go(func() error {
			file, err := f.Fetch(gctx, c)
			if err != nil {
				return err
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, file := range files {
			if file != nil {
				f.files.Release(file)
			}
		}
		return nil, err
	}
	return files, nil
}

func extensionFor(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), "."); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "image/gif":
			return "gif"
		case "image/png", "image/apng":
			return "png"
		case "image/jpeg":
			return "jpg"
		case "video/mp4":
			return "mp4"
		case "audio/mpeg":
			return "mp3"
		}
		if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
	}
	return "bin"
}
