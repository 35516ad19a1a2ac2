package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Request is a single HTTP exchange against one host
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the raw result of a Request
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Requester issues a Request and returns the status and body, or a
// network-level error (connect failure, timeout, broken stream).
// A non-2xx status is not an error at this level.
type Requester interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// RequesterFunc adapts a function to the Requester interface
type RequesterFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req)
func (f RequesterFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Credential headers sent with every request
const (
	HeaderApplicationID = "X-Algolia-Application-Id"
	HeaderAPIKey        = "X-Algolia-API-Key"
)

// DefaultMaxResponseBytes caps the size of a response body
const DefaultMaxResponseBytes = 64 << 20

// HTTPConfig for creating an HTTPRequester
type HTTPConfig struct {
	AppID     string
	APIKey    string
	UserAgent string
	// MaxResponseBytes defaults to DefaultMaxResponseBytes when not positive
	MaxResponseBytes int64
	Logger           zerolog.Logger
}

// HTTPRequester is the net/http backed Requester
type HTTPRequester struct {
	httpClient      *http.Client
	headers         http.Header
	maxResponseSize int64
	logger          zerolog.Logger
}

// NewHTTPRequester creates an HTTPRequester. Timeouts are driven by the
// context of each call, so the client itself has none. Redirects are
// not followed: a 3xx is returned as is so the executor can fail over.
func NewHTTPRequester(cfg HTTPConfig) *HTTPRequester {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}

	headers := make(http.Header)
	headers.Set(HeaderApplicationID, cfg.AppID)
	headers.Set(HeaderAPIKey, cfg.APIKey)
	headers.Set("Content-Type", "application/json; charset=utf-8")
	headers.Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	maxResponseSize := cfg.MaxResponseBytes
	if maxResponseSize <= 0 {
		maxResponseSize = DefaultMaxResponseBytes
	}

	return &HTTPRequester{
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		headers:         headers,
		maxResponseSize: maxResponseSize,
		logger:          cfg.Logger.With().Str("component", "http").Logger(),
	}
}

// Do sends the request. Per-request headers override the defaults.
func (r *HTTPRequester) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for k, v := range r.headers {
		httpReq.Header[k] = v
	}
	for k, v := range req.Header {
		httpReq.Header[k] = v
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, r.maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(respBody)) > r.maxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", r.maxResponseSize)
	}

	r.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Int("bytes", len(respBody)).
		Msg("HTTP exchange")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// Close releases idle connections
func (r *HTTPRequester) Close() {
	r.httpClient.CloseIdleConnections()
}
