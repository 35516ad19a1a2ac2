package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRetryExhausted is matched by a *RetryError
var ErrRetryExhausted = errors.New("all hosts failed")

// ErrDeadlineExceeded is returned when the call deadline passes before every host was tried
var ErrDeadlineExceeded = errors.New("call deadline exceeded")

// APIError is a 4xx answer: the request is invalid regardless of the host
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
	Host       string
}

func newAPIError(status int, body []byte, host string) *APIError {
	e := &APIError{StatusCode: status, Body: body, Host: host}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		e.Message = payload.Message
	} else {
		e.Message = truncate(body, 256)
	}
	return e
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// HostFailure is the last transient failure seen on one host
type HostFailure struct {
	Host string
	Err  error
}

// RetryError reports that every host for the role failed transiently
type RetryError struct {
	Failures []HostFailure
}

func (e *RetryError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Host, f.Err))
	}
	return fmt.Sprintf("%s (%d hosts): %s", ErrRetryExhausted, len(e.Failures), strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrRetryExhausted) match
func (e *RetryError) Is(target error) bool {
	return target == ErrRetryExhausted
}

// IsRetryExhausted returns true if err means every host failed
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}

// AsAPIError returns the APIError wrapped in err, if any
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
