package upstream

import (
	"net/http"
	"time"

	"github.com/okian/dingerzone/pkg/logger"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds a single call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
