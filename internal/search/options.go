package search

import (
	"net/http"
	"net/url"
	"time"

	"searchgofer/internal/metrics"
	"searchgofer/internal/task"
	"searchgofer/internal/transport"
)

// RequestOption customizes a single API call
type RequestOption func(*transport.Call)

// WithHeader adds a header to the call
func WithHeader(key, value string) RequestOption {
	return func(c *transport.Call) {
		if c.Header == nil {
			c.Header = make(http.Header)
		}
		c.Header.Set(key, value)
	}
}

// WithQueryParam adds a query string parameter to the call
func WithQueryParam(key, value string) RequestOption {
	return func(c *transport.Call) {
		if c.Query == nil {
			c.Query = make(url.Values)
		}
		c.Query.Set(key, value)
	}
}

// WithTimeout overrides the per-host timeout of the call
func WithTimeout(d time.Duration) RequestOption {
	return func(c *transport.Call) {
		c.Timeout = d
	}
}

// WithDeadline stops failing over to other hosts once t has passed
func WithDeadline(t time.Time) RequestOption {
	return func(c *transport.Call) {
		c.Deadline = t
	}
}

// Re-exported so callers only import this package
var (
	WithPollInterval = task.WithPollInterval
	WithPollTimeout  = task.WithPollTimeout
)

// Option customizes a Client
type Option func(*clientOptions)

type clientOptions struct {
	requester transport.Requester
	collector *metrics.Collector
	userAgent string
}

// WithRequester replaces the HTTP requester
func WithRequester(r transport.Requester) Option {
	return func(o *clientOptions) {
		o.requester = r
	}
}

// WithMetrics records attempts and polls on c
func WithMetrics(c *metrics.Collector) Option {
	return func(o *clientOptions) {
		o.collector = c
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}
