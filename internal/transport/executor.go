package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"searchgofer/internal/config"
	"searchgofer/internal/host"
)

// Default per-host attempt timeouts
const (
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Config holds the executor defaults
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ConfigFromConfig extracts executor settings from the global config
func ConfigFromConfig(cfg *config.Config) Config {
	return Config{
		ReadTimeout:  cfg.GetReadTimeoutDuration(),
		WriteTimeout: cfg.GetWriteTimeoutDuration(),
	}
}

// Executor sends calls to the hosts of a registry with failover.
// It is safe for concurrent use.
type Executor struct {
	registry  *host.Registry
	requester Requester
	config    Config
	observer  Observer
	logger    zerolog.Logger
}

// NewExecutor creates a new Executor
func NewExecutor(registry *host.Registry, requester Requester, cfg Config, logger zerolog.Logger) *Executor {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Executor{
		registry:  registry,
		requester: requester,
		config:    cfg,
		observer:  nopObserver{},
		logger:    logger.With().Str("component", "transport").Logger(),
	}
}

// SetObserver sets the attempt observer. Must be called before use.
func (e *Executor) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
}

// Execute sends the call to the hosts serving its role, one at a time in
// ranked order, until one succeeds or answers with a client error.
// Each host is tried at most once, so a write is never sent twice to the
// same host within one call.
func (e *Executor) Execute(ctx context.Context, call *Call) (*Result, error) {
	if err := call.validate(); err != nil {
		return nil, err
	}

	hosts, err := e.registry.HostsFor(call.Role)
	if err != nil {
		return nil, err
	}

	timeout := e.timeoutFor(call)
	logger := e.logger.With().
		Str("callId", uuid.NewString()).
		Str("role", call.Role.String()).
		Str("method", call.Method).
		Str("path", call.Path).
		Logger()

	failures := make([]HostFailure, 0, len(hosts))

	for i, h := range hosts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !call.Deadline.IsZero() && !e.registry.Now().Before(call.Deadline) {
			logger.Warn().
				Int("tried", i).
				Int("hosts", len(hosts)).
				Msg("call deadline exceeded")
			return nil, fmt.Errorf("%w: tried %d of %d hosts", ErrDeadlineExceeded, i, len(hosts))
		}

		outcome, elapsed := e.attempt(ctx, call, h, timeout)

		// The caller gave up, not the host
		if outcome.Kind == OutcomeRetryable && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		e.observer.ObserveAttempt(h.URL(), call.Role, outcome.Kind, elapsed)

		switch outcome.Kind {
		case OutcomeSuccess:
			e.registry.MarkHealthy(h)
			logger.Debug().
				Str("host", h.URL()).
				Int("attempt", i+1).
				Int("status", outcome.StatusCode).
				Dur("elapsed", elapsed).
				Msg("request succeeded")
			return &Result{
				StatusCode: outcome.StatusCode,
				Body:       outcome.Body,
				Host:       h.URL(),
				Attempts:   i + 1,
			}, nil

		case OutcomeFatal:
			apiErr := newAPIError(outcome.StatusCode, outcome.Body, h.URL())
			logger.Debug().
				Str("host", h.URL()).
				Int("status", outcome.StatusCode).
				Str("message", apiErr.Message).
				Msg("request rejected")
			return nil, apiErr

		default:
			e.registry.MarkUnhealthy(h, e.registry.Now())
			failures = append(failures, HostFailure{Host: h.URL(), Err: outcome.Err})
			logger.Warn().
				Err(outcome.Err).
				Str("host", h.URL()).
				Int("attempt", i+1).
				Int("hosts", len(hosts)).
				Dur("elapsed", elapsed).
				Msg("request failed, trying next host")
		}
	}

	return nil, &RetryError{Failures: failures}
}

// attempt sends the call to a single host, bounded by timeout
func (e *Executor) attempt(ctx context.Context, call *Call, h *host.Host, timeout time.Duration) (Outcome, time.Duration) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.requester.Do(attemptCtx, call.request(h))
	elapsed := time.Since(start)

	// A response that made it back is classified even if the deadline
	// fired right after it.
	if resp == nil && err == nil && attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = fmt.Errorf("attempt timed out after %s", timeout)
	}

	return Classify(resp, err), elapsed
}

// timeoutFor returns the per-host timeout of a call
func (e *Executor) timeoutFor(call *Call) time.Duration {
	if call.Timeout > 0 {
		return call.Timeout
	}
	if call.Role == host.RoleWrite {
		return e.config.WriteTimeout
	}
	return e.config.ReadTimeout
}
