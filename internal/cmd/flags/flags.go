package flags

import (
	"fmt"
	"slices"

	libnats "github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

var DatabaseURL = &cli.StringFlag{
	Name:    "database-url",
	Aliases: []string{"d"},
	Usage:   "The PostgreSQL connection string",
	Value:   "postgres://localhost:5432/whatsgood?sslmode=disable",
	Sources: cli.EnvVars("DATABASE_URL"),
}

var NATSURL = &cli.StringFlag{
	Name:    "nats-url",
	Aliases: []string{"n"},
	Usage:   "The URL of the NATS server",
	Value:   libnats.DefaultURL,
	Sources: cli.EnvVars("NATS_URL"),
}

var InitNATS = &cli.BoolFlag{
	Name:        "nats-init",
	Aliases:     []string{"i"},
	Usage:       "Initialize the NATS server: create streams, buckets, etc.",
	DefaultText: "false",
	Value:       false,
	Sources:     cli.EnvVars("NATS_INIT"),
}

var APIAddr = &cli.StringFlag{
	Name:    "api-addr",
	Usage:   "The listen address of the public API",
	Value:   ":8888",
	Sources: cli.EnvVars("API_ADDR"),
}

var MetricsAddr = &cli.StringFlag{
	Name:    "metrics-addr",
	Usage:   "The listen address of the metrics and health endpoint",
	Value:   ":8080",
	Sources: cli.EnvVars("METRICS_ADDR"),
}

var PeopleAPIURL = &cli.StringFlag{
	Name:    "people-api-url",
	Usage:   "The base URL of the people directory API, empty disables remote photo lookups",
	Value:   "",
	Sources: cli.EnvVars("PEOPLE_API_URL"),
}

// TODO: extract custom EnumFlag
var LogLevel = &cli.StringFlag{
	Name:    "log-level",
	Aliases: []string{"l"},
	Usage:   "The level of the logs",
	Value:   "info",
	Validator: func(value string) error {
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("invalid log level: %s, allowed values are: %s", value, validLogLevels)
		}
		return nil
	},
	Sources: cli.EnvVars("LOG_LEVEL"),
}
