package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/lunar"
	"github.com/tartampluch/go-amlich/internal/tuvi"
	"go.uber.org/goleak"
)

func newTestServer(port string) *Server {
	conv := lunar.NewVietnamese()
	return New(port, engine.New(conv), tuvi.NewBuilder(conv), nil)
}

// -----------------------------------------------------------------------------
// Calendar Feed Handler
// -----------------------------------------------------------------------------

func TestCalendar_ServesContent(t *testing.T) {
	srv := newTestServer("0")
	ics := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR")
	srv.Update(ics)

	w := httptest.NewRecorder()
	srv.handleCalendar(w, httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil))

	resp := w.Result()
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
	assert.NotEmpty(t, resp.Header.Get(config.HeaderLastModified))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, ics, body)
}

func TestCalendar_HeadHasNoBody(t *testing.T) {
	srv := newTestServer("0")
	srv.Update([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR"))

	w := httptest.NewRecorder()
	srv.handleCalendar(w, httptest.NewRequest(http.MethodHead, config.RouteCalendar, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestCalendar_ConditionalRequests(t *testing.T) {
	srv := newTestServer("0")
	srv.Update([]byte("FEED_V1"))

	first := httptest.NewRecorder()
	srv.handleCalendar(first, httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil))
	etag := first.Result().Header.Get(config.HeaderETag)
	lastMod := first.Result().Header.Get(config.HeaderLastModified)
	require.NotEmpty(t, etag)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"matching etag", config.HeaderIfNoneMatch, etag, http.StatusNotModified},
		{"stale etag", config.HeaderIfNoneMatch, `"old"`, http.StatusOK},
		{"not modified since", config.HeaderIfModifiedSince, lastMod, http.StatusNotModified},
		{"modified since", config.HeaderIfModifiedSince, time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat), http.StatusOK},
		{"garbage date", config.HeaderIfModifiedSince, "yesterday", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil)
			req.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()
			srv.handleCalendar(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusNotModified {
				assert.Empty(t, w.Body.Bytes())
			}
		})
	}
}

func TestCalendar_MethodNotAllowed(t *testing.T) {
	srv := newTestServer("0")

	w := httptest.NewRecorder()
	srv.handleCalendar(w, httptest.NewRequest(http.MethodPost, config.RouteCalendar, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, config.AllowedMethods, w.Result().Header.Get(config.HeaderAllow))
}

func TestCalendar_Initializing(t *testing.T) {
	srv := newTestServer("0")

	w := httptest.NewRecorder()
	srv.handleCalendar(w, httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, config.RetryAfterSeconds, w.Result().Header.Get(config.HeaderRetryAfter))
}

// TestCalendar_ConcurrentUpdates swaps the feed while readers hit the handler.
// Run with -race.
func TestCalendar_ConcurrentUpdates(t *testing.T) {
	srv := newTestServer("0")
	var wg sync.WaitGroup
	end := time.Now().Add(300 * time.Millisecond)

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; time.Now().Before(end); i++ {
				srv.Update([]byte(fmt.Sprintf("VERSION:%d-%d", id, i)))
				time.Sleep(time.Microsecond)
			}
		}(w)
	}
	for r := 0; r < 16; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				srv.handleCalendar(w, httptest.NewRequest(http.MethodGet, config.RouteCalendar, nil))
				if w.Code != http.StatusOK && w.Code != http.StatusServiceUnavailable {
					t.Errorf("unexpected status %d", w.Code)
				}
			}
		}()
	}
	wg.Wait()
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

func TestServer_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	const port = "18099"
	srv := newTestServer(port)
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start(ctx) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	base := "http://127.0.0.1:" + port

	require.Eventually(t, func() bool {
		resp, err := client.Get(base + config.RouteCalendar)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 50*time.Millisecond, "server failed to listen in time")

	resp, err := client.Get(base + config.RouteCalendar)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Update([]byte("BEGIN:VCALENDAR\nEND:VCALENDAR"))

	for _, path := range []string{config.RouteRoot, config.RouteCalendar} {
		resp, err = client.Get(base + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, string(body), "BEGIN:VCALENDAR")
	}

	resp, err = client.Get(base + "/unknown")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err, "graceful shutdown returns nil")
	case <-time.After(5 * time.Second):
		t.Fatal("server shutdown timed out")
	}
}

func TestServer_StartRequiresPort(t *testing.T) {
	err := newTestServer("").Start(context.Background())
	assert.EqualError(t, err, config.ErrPortRequired)
}
