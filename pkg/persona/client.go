// Package persona is a thin client for the people directory API. The feed
// enricher asks it for member profiles when a post carries no usable author
// photo and the local directory has none either.
package persona

import (
	"context"
	"time"

	"resty.dev/v3"
)

type Client struct {
	client *resty.Client
}

func NewClient(baseURL string, cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultConfig
	}

	client := resty.NewWithTransportSettings(cfg.TransportSettings).
		SetBaseURL(baseURL)

	for _, m := range cfg.RequestMiddlewares {
		client.AddRequestMiddleware(m)
	}
	for _, m := range cfg.ResponseMiddlewares {
		client.AddResponseMiddleware(m)
	}

	return &Client{client: client}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx)
}

type ClientConfig struct {
	TransportSettings *resty.TransportSettings

	RequestMiddlewares  []resty.RequestMiddleware
	ResponseMiddlewares []resty.ResponseMiddleware
}

var DefaultConfig = &ClientConfig{
	TransportSettings: &resty.TransportSettings{
		DialerTimeout:         1 * time.Second,
		DialerKeepAlive:       1 * time.Second,
		IdleConnTimeout:       1 * time.Second,
		TLSHandshakeTimeout:   1 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 1 * time.Second,
	},
}
