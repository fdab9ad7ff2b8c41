package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
)

// Refresher rebuilds the good-day feed on a fixed schedule and publishes it
// to a Server.
type Refresher struct {
	Feed     *engine.FeedGenerator
	Config   engine.FeedConfig
	Interval time.Duration
	Target   *Server
}

// Run refreshes once, then on every tick until ctx is cancelled. A failed
// rebuild keeps the previous feed online.
func (r *Refresher) Run(ctx context.Context) {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	interval := r.Interval
	if interval <= 0 {
		interval = time.Duration(config.DefaultRefreshMin) * time.Minute
	}

	_ = r.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, interval)

	for {
		select {
		case <-ctx.Done():
			log.Info(config.MsgWorkerStop)
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Refresh rebuilds the feed now.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()
	data, count, err := r.Feed.Generate(ctx, r.Config)
	r.Target.metrics.observeFeed(time.Since(start).Seconds(), count, err)
	if err != nil {
		slog.ErrorContext(ctx, config.MsgFeedFailed,
			config.LogKeyComponent, config.CompFeed,
			config.LogKeyError, err,
		)
		return err
	}
	r.Target.Update(data)
	return nil
}
