package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/i18n"
	"github.com/tartampluch/go-amlich/internal/lunar"
	"go.uber.org/goleak"
)

func newRefresher(srv *Server, cfg engine.FeedConfig) *Refresher {
	return &Refresher{
		Feed: &engine.FeedGenerator{
			Engine: engine.New(lunar.NewVietnamese()),
			Clock:  engine.FixedClock(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)),
			Text:   i18n.MustTranslator(config.DefaultLanguage),
		},
		Config:   cfg,
		Interval: 20 * time.Millisecond,
		Target:   srv,
	}
}

func TestRefresher_Publishes(t *testing.T) {
	srv := newTestServer("0")
	r := newRefresher(srv, engine.FeedConfig{Activities: []string{"wedding"}, WindowDays: 14, MinScore: 70})

	require.NoError(t, r.Refresh(context.Background()))

	item := srv.cache.Load()
	require.NotNil(t, item)
	assert.True(t, strings.HasPrefix(string(item.data), "BEGIN:VCALENDAR"))
	assert.Contains(t, string(item.data), "20240317")

	m := srv.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedBuilds.WithLabelValues(config.OutcomeSuccess)))
	assert.Equal(t, float64(strings.Count(string(item.data), "BEGIN:VEVENT")), testutil.ToFloat64(m.feedDays))
}

func TestRefresher_FailureKeepsPreviousFeed(t *testing.T) {
	srv := newTestServer("0")
	srv.Update([]byte("PREVIOUS"))
	r := newRefresher(srv, engine.FeedConfig{WindowDays: 14})

	err := r.Refresh(context.Background())
	require.ErrorIs(t, err, engine.ErrPrecondition)

	assert.Equal(t, "PREVIOUS", string(srv.cache.Load().data))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.Metrics().feedBuilds.WithLabelValues(config.OutcomeError)))
}

func TestRefresher_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := newTestServer("0")
	r := newRefresher(srv, engine.FeedConfig{Activities: []string{"travel"}, WindowDays: 7})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(srv.Metrics().feedBuilds.WithLabelValues(config.OutcomeSuccess)) >= 2
	}, 2*time.Second, 10*time.Millisecond, "the ticker rebuilds the feed")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("refresher did not stop")
	}
}
