package cmd

import (
	"context"

	"whatsgood/internal/cmd/flags"
	"whatsgood/internal/persistence"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"
)

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Manage the database schema",
	Commands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply all pending migrations",
			Flags: []cli.Flag{
				flags.DatabaseURL,
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return run(ctx, c,
					persistence.Provide(),
					pal.Provide(&persistence.MigrationUpRunner{}),
				)
			},
		},
		{
			Name:  "down",
			Usage: "Roll back the most recent migration",
			Flags: []cli.Flag{
				flags.DatabaseURL,
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return run(ctx, c,
					persistence.Provide(),
					pal.Provide(&persistence.MigrationDownRunner{}),
				)
			},
		},
	},
}
