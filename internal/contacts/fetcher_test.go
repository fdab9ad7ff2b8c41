package contacts_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/contacts"
)

const sampleCard = "BEGIN:VCARD\nVERSION:3.0\nFN:Nguyễn Văn A\nBDAY:1990-05-15\nEND:VCARD\n"

func TestHTTPFetcher_SendsCredentialsAndAgent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "lan", user)
		assert.Equal(t, "bí-mật", pass)
		assert.Equal(t, config.UserAgent, r.Header.Get(config.HeaderUserAgent))
		assert.Equal(t, config.MimeVCardAccept, r.Header.Get(config.HeaderAccept))
		_, _ = io.WriteString(w, sampleCard)
	}))
	defer ts.Close()

	rc, err := contacts.NewHTTPFetcher(0).Fetch(context.Background(), ts.URL+"/book.vcf?token=x", "lan", "bí-mật")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, sampleCard, string(body))
}

func TestHTTPFetcher_NoAuthWhenAnonymous(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, ok := r.BasicAuth()
		assert.False(t, ok)
	}))
	defer ts.Close()

	rc, err := contacts.NewHTTPFetcher(0).Fetch(context.Background(), ts.URL, "", "")
	require.NoError(t, err)
	_ = rc.Close()
}

func TestHTTPFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		url     string
		wantErr string
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: "404"},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: "401"},
		{name: "server error", status: http.StatusInternalServerError, wantErr: config.ErrHTTPStatus},
		{name: "bad url", url: string([]byte{0x7f}), wantErr: config.ErrInvalidURL},
		{name: "ftp", url: "ftp://example.com/book.vcf", wantErr: config.ErrProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.url
			if target == "" {
				ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))
				defer ts.Close()
				target = ts.URL
			}

			rc, err := contacts.NewHTTPFetcher(0).Fetch(context.Background(), target, "", "")
			require.Error(t, err)
			assert.Nil(t, rc)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHTTPFetcher_RespectsDeadline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := contacts.NewHTTPFetcher(0).Fetch(ctx, ts.URL, "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPFetcher_RejectsHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HeaderContentType, "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body>Sign in</body></html>")
	}))
	defer ts.Close()

	rc, err := contacts.NewHTTPFetcher(0).Fetch(context.Background(), ts.URL, "", "")
	assert.Nil(t, rc)
	assert.EqualError(t, err, config.ErrContentType)
}

// streamBody writes body in two flushed halves so no Content-Length is sent.
func streamBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HeaderContentType, "text/vcard")
		half := len(body) / 2
		_, _ = io.WriteString(w, body[:half])
		w.(http.Flusher).Flush()
		_, _ = io.WriteString(w, body[half:])
	}
}

func TestHTTPFetcher_SizeCap(t *testing.T) {
	t.Run("declared length", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, sampleCard)
		}))
		defer ts.Close()

		rc, err := contacts.NewHTTPFetcher(16).Fetch(context.Background(), ts.URL, "", "")
		assert.Nil(t, rc)
		assert.ErrorIs(t, err, contacts.ErrTooLarge)
	})

	t.Run("streamed", func(t *testing.T) {
		ts := httptest.NewServer(streamBody(sampleCard))
		defer ts.Close()

		rc, err := contacts.NewHTTPFetcher(16).Fetch(context.Background(), ts.URL, "", "")
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()

		body, err := io.ReadAll(rc)
		assert.ErrorIs(t, err, contacts.ErrTooLarge)
		assert.Len(t, body, 16)
	})

	t.Run("exact fit", func(t *testing.T) {
		ts := httptest.NewServer(streamBody(sampleCard))
		defer ts.Close()

		rc, err := contacts.NewHTTPFetcher(int64(len(sampleCard))).Fetch(context.Background(), ts.URL, "", "")
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()

		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, sampleCard, string(body))
	})
}

func TestLoad_WebBookTooLarge(t *testing.T) {
	ts := httptest.NewServer(streamBody(strings.Repeat(sampleCard, 50)))
	defer ts.Close()

	l := newLoader(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), contacts.NewHTTPFetcher(int64(3*len(sampleCard))))
	people, err := l.Load(context.Background(), contacts.Source{Mode: config.SourceModeWeb, WebURL: ts.URL})
	assert.ErrorIs(t, err, contacts.ErrTooLarge)
	assert.Nil(t, people)
}
