package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-amlich/internal/config"
	"github.com/tartampluch/go-amlich/internal/engine"
	"github.com/tartampluch/go-amlich/internal/server"
	"golang.org/x/sync/errgroup"
)

func (a *app) serveCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   config.CmdServe,
		Short: config.ShortServe,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == "" {
				port = a.settings.Server.Port
			}
			if err := config.ValidatePort(port); err != nil {
				return err
			}

			srv := server.New(port, a.engine, a.charts, nil)
			refresher := &server.Refresher{
				Feed: &engine.FeedGenerator{
					Engine: a.engine,
					Clock:  a.clock,
					Text:   a.text,
				},
				Config:   a.feedConfig(),
				Interval: time.Duration(a.settings.Server.RefreshMinutes) * time.Minute,
				Target:   srv,
			}

			// Either side failing stops the other.
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return srv.Start(ctx) })
			g.Go(func() error {
				refresher.Run(ctx)
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&port, config.FlagPort, "", config.FlagDescPort)
	return cmd
}

// feedConfig maps the feed settings onto the generator's configuration.
func (a *app) feedConfig() engine.FeedConfig {
	f := a.settings.Feed
	return engine.FeedConfig{
		Activities:      f.Activities,
		WindowDays:      f.WindowDays,
		BirthYear:       birthYear(f.BirthYear),
		MinScore:        f.MinScore,
		MaxResults:      a.settings.Engine.MaxResults,
		ReminderTrigger: f.Reminder,
	}
}
