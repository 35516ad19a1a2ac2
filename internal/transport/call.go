package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"searchgofer/internal/host"
)

// ErrInvalidCall is returned when a Call cannot be sent to any host
var ErrInvalidCall = errors.New("invalid call")

// Call describes one API call, independent of the host that serves it.
// The executor only reads it.
type Call struct {
	Role    host.Role
	Method  string
	Path    string
	Query   url.Values
	Header  http.Header
	Body    []byte
	Timeout time.Duration // per-host attempt timeout, 0 uses the role default

	// Deadline, if set, stops failover once it has passed
	Deadline time.Time
}

// Result is a successful call
type Result struct {
	StatusCode int
	Body       []byte
	Host       string // host that served the call
	Attempts   int
}

func (c *Call) validate() error {
	if c.Role != host.RoleRead && c.Role != host.RoleWrite {
		return fmt.Errorf("%w: role must be read or write, got %s", ErrInvalidCall, c.Role)
	}
	if c.Method == "" {
		return fmt.Errorf("%w: method is required", ErrInvalidCall)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: path must start with '/'", ErrInvalidCall)
	}
	return nil
}

// request builds the attempt against h. Header and query are copied.
func (c *Call) request(h *host.Host) *Request {
	u := h.URL() + c.Path
	if len(c.Query) > 0 {
		u += "?" + c.Query.Encode()
	}

	var header http.Header
	if c.Header != nil {
		header = c.Header.Clone()
	}

	return &Request{
		Method: c.Method,
		URL:    u,
		Header: header,
		Body:   c.Body,
	}
}
