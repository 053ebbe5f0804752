package config

// Config is populated from CLI flags and environment variables by clicfg.
type Config struct {
	DatabaseURL string `flag:"database-url"`

	NATSURL  string `flag:"nats-url"`
	NATSInit bool   `flag:"nats-init"`

	APIAddr     string `flag:"api-addr"`
	MetricsAddr string `flag:"metrics-addr"`

	PeopleAPIURL string `flag:"people-api-url"`

	LogLevel string `flag:"log-level"`
}
