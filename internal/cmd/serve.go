package cmd

import (
	"context"

	"whatsgood/internal/api"
	"whatsgood/internal/cmd/flags"
	"whatsgood/internal/feed"
	"whatsgood/internal/livestore"
	"whatsgood/internal/metrics"
	"whatsgood/internal/nats"
	"whatsgood/internal/persistence"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Serve the feed API: live subscriptions over websockets, one-shot reads over HTTP",
	Flags: []cli.Flag{
		flags.DatabaseURL,
		flags.NATSURL,
		flags.InitNATS,
		flags.APIAddr,
		flags.MetricsAddr,
		flags.PeopleAPIURL,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			persistence.Provide(),
			nats.Provide(),
			livestore.Provide(),
			pal.Provide(&feed.Enricher{}),
			api.Provide(),
			metrics.Provide(),
		)
	},
}
