// Package server exposes the almanac over HTTP: the good-day iCalendar feed,
// a small JSON API and Prometheus metrics.
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/tuvi"
)

// cacheItem is a rendered feed with its HTTP validators.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // http.TimeFormat
}

// Server serves the cached feed and answers API queries.
type Server struct {
	// cache is swapped whole by Update; readers never lock.
	cache   atomic.Pointer[cacheItem]
	Port    string
	engine  *engine.Engine
	charts  *tuvi.Builder
	metrics *Metrics
}

// New returns a server for the given engine and chart builder. A nil metrics
// gets a fresh registry.
func New(port string, eng *engine.Engine, charts *tuvi.Builder, metrics *Metrics) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		Port:    port,
		engine:  eng,
		charts:  charts,
		metrics: metrics,
	}
}

// Metrics returns the collectors of the server.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the routing table of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	calendar := s.metrics.instrument(config.RouteCalendar, s.handleCalendar)
	mux.HandleFunc(config.RouteCalendar, calendar)
	mux.HandleFunc(config.RouteRoot+"{$}", calendar)
	mux.HandleFunc(config.RouteDay, s.metrics.instrument(config.RouteDay, s.handleDay))
	mux.HandleFunc(config.RouteAnalyze, s.metrics.instrument(config.RouteAnalyze, s.handleAnalyze))
	mux.HandleFunc(config.RouteGoodDays, s.metrics.instrument(config.RouteGoodDays, s.handleGoodDays))
	mux.HandleFunc(config.RouteChart, s.metrics.instrument(config.RouteChart, s.handleChart))
	mux.Handle(config.RouteMetrics, s.metrics.Handler())
	return mux
}

// Start listens on localhost and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)
	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// Update atomically replaces the served feed.
func (s *Server) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	s.cache.Store(&cacheItem{
		data:         data,
		etag:         etag,
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// handleCalendar serves the feed with ETag and Last-Modified validation.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}

	item := s.cache.Load()
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(config.HeaderContentType, config.MimeTextCalendar)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	if notModified(r, item) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}

// notModified evaluates If-None-Match, then If-Modified-Since.
func notModified(r *http.Request, item *cacheItem) bool {
	if match := r.Header.Get(config.HeaderIfNoneMatch); match != "" {
		return match == item.etag
	}
	since := r.Header.Get(config.HeaderIfModifiedSince)
	if since == "" {
		return false
	}
	clientTime, err := time.Parse(http.TimeFormat, since)
	if err != nil {
		return false
	}
	serverTime, err := time.Parse(http.TimeFormat, item.lastModified)
	if err != nil {
		return false
	}
	return !serverTime.After(clientTime)
}

// allowRead rejects anything but GET and HEAD.
func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set(config.HeaderAllow, config.AllowedMethods)
	http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
	return false
}
