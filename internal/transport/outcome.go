package transport

import "fmt"

// OutcomeKind is the decision taken about one attempt
type OutcomeKind int

const (
	// OutcomeSuccess - 2xx, the call is done
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRetryable - network failure, timeout or server-side status, try the next host
	OutcomeRetryable
	// OutcomeFatal - 4xx, the request itself is wrong and no host will accept it
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the classification of one attempt
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	Body       []byte
	Err        error // cause, set for retryable outcomes
}

// Classify decides the outcome of an attempt from its response or network error
func Classify(resp *Response, err error) Outcome {
	if err != nil {
		return Outcome{Kind: OutcomeRetryable, Err: err}
	}
	if resp == nil {
		return Outcome{Kind: OutcomeRetryable, Err: fmt.Errorf("empty response")}
	}

	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		return Outcome{Kind: OutcomeSuccess, StatusCode: status, Body: resp.Body}
	case status >= 400 && status < 500:
		return Outcome{Kind: OutcomeFatal, StatusCode: status, Body: resp.Body}
	default:
		return Outcome{
			Kind:       OutcomeRetryable,
			StatusCode: status,
			Body:       resp.Body,
			Err:        fmt.Errorf("HTTP error %d: %s", status, truncate(resp.Body, 256)),
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
