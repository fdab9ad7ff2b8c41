package contacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"

	"github.com/tartampluch/go-amlich/internal/config"
)

// ErrTooLarge is returned when a downloaded address book exceeds the size cap.
var ErrTooLarge = errors.New(config.ErrBodyTooLarge)

// Fetcher retrieves a remote address book as a vCard stream.
type Fetcher interface {
	Fetch(ctx context.Context, url, user, pass string) (io.ReadCloser, error)
}

// HTTPFetcher downloads an address book exported by a CardDAV or WebDAV server.
type HTTPFetcher struct {
	Client *http.Client
	// MaxBytes caps the body; reading past it fails with ErrTooLarge.
	MaxBytes int64
}

// NewHTTPFetcher returns an HTTPFetcher with the standard timeout. A
// non-positive maxBytes selects config.MaxHTTPResponseSize.
func NewHTTPFetcher(maxBytes int64) *HTTPFetcher {
	if maxBytes <= 0 {
		maxBytes = config.MaxHTTPResponseSize
	}
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		MaxBytes: maxBytes,
	}
}

// Fetch downloads targetURL. Only http and https are accepted and query
// strings are kept out of the logs. HTML answers, typically a login page
// served for a wrong collection URL, are rejected before any vCard parsing.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL, user, pass string) (io.ReadCloser, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, u.Scheme+"://"+u.Host+u.Path),
	)
	log.DebugContext(ctx, config.MsgDownloadStart, slog.Int64(config.LogKeyMaxBytes, f.MaxBytes))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequestBuild, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	req.Header.Set(config.HeaderAccept, config.MimeVCardAccept)
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		log.WarnContext(ctx, config.MsgBadStatus, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, fmt.Errorf("%s: %d %s", config.ErrHTTPStatus, resp.StatusCode, resp.Status)
	}

	if mt, _, err := mime.ParseMediaType(resp.Header.Get(config.HeaderContentType)); err == nil && mt == config.MimeHTML {
		_ = resp.Body.Close()
		log.WarnContext(ctx, config.MsgBadContent, slog.String(config.LogKeyMediaType, mt))
		return nil, errors.New(config.ErrContentType)
	}

	if resp.ContentLength > f.MaxBytes {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %d > %d", ErrTooLarge, resp.ContentLength, f.MaxBytes)
	}

	log.InfoContext(ctx, config.MsgDownloading, slog.Int64(config.LogKeyLength, resp.ContentLength))

	return &cappedBody{
		r:   io.LimitReader(resp.Body, f.MaxBytes+1),
		c:   resp.Body,
		max: f.MaxBytes,
	}, nil
}

// cappedBody reads at most max bytes and fails, on every later call too, once
// the stream proves longer.
type cappedBody struct {
	r    io.Reader
	c    io.Closer
	max  int64
	read int64
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.read > b.max {
		return 0, ErrTooLarge
	}
	n, err := b.r.Read(p)
	b.read += int64(n)
	if b.read > b.max {
		return n - int(b.read-b.max), ErrTooLarge
	}
	return n, err
}

func (b *cappedBody) Close() error { return b.c.Close() }
