package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"searchgofer/internal/config"
	"searchgofer/internal/host"
	"searchgofer/internal/transport"
)

// DefaultPollInterval is the delay between two status polls
const DefaultPollInterval = 100 * time.Millisecond

var errNotPublished = errors.New("task not published yet")

// Caller executes an API call; satisfied by *transport.Executor
type Caller interface {
	Execute(ctx context.Context, call *transport.Call) (*transport.Result, error)
}

// PollObserver is notified of every poll result
type PollObserver interface {
	ObservePoll(result string)
}

type nopPollObserver struct{}

func (nopPollObserver) ObservePoll(string) {}

// Config holds waiter settings
type Config struct {
	PollInterval time.Duration
	CacheSize    int // published tasks remembered, 0 disables
}

// ConfigFromConfig extracts waiter settings from the global config
func ConfigFromConfig(cfg *config.Config) Config {
	return Config{
		PollInterval: cfg.GetPollIntervalDuration(),
		CacheSize:    cfg.TaskCacheSize,
	}
}

// Option customizes a single wait
type Option func(*waitOptions)

type waitOptions struct {
	interval    time.Duration
	pollTimeout time.Duration
}

// WithPollInterval overrides the delay between polls
func WithPollInterval(d time.Duration) Option {
	return func(o *waitOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithPollTimeout sets the per-host timeout of each status call
func WithPollTimeout(d time.Duration) Option {
	return func(o *waitOptions) {
		o.pollTimeout = d
	}
}

// Waiter blocks until asynchronous write tasks are published
type Waiter struct {
	caller    Caller
	interval  time.Duration
	published *lru.Cache[string, struct{}]
	observer  PollObserver
	logger    zerolog.Logger
}

// NewWaiter creates a new Waiter
func NewWaiter(caller Caller, cfg Config, logger zerolog.Logger) (*Waiter, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	w := &Waiter{
		caller:   caller,
		interval: cfg.PollInterval,
		observer: nopPollObserver{},
		logger:   logger.With().Str("component", "task").Logger(),
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, struct{}](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create task cache: %w", err)
		}
		w.published = cache
	}

	return w, nil
}

// SetObserver sets the poll observer. Must be called before use.
func (w *Waiter) SetObserver(o PollObserver) {
	if o == nil {
		o = nopPollObserver{}
	}
	w.observer = o
}

// Poll fetches the status of a task once, on the read hosts
func (w *Waiter) Poll(ctx context.Context, indexName string, taskID int64, timeout time.Duration) (*Status, error) {
	res, err := w.caller.Execute(ctx, &transport.Call{
		Role:    host.RoleRead,
		Method:  http.MethodGet,
		Path:    fmt.Sprintf("/1/indexes/%s/task/%d", url.PathEscape(indexName), taskID),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(res.Body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse task status: %w", err)
	}
	status.TaskID = taskID
	status.IndexName = indexName
	return &status, nil
}

// Wait polls the task until it is published. There is no iteration limit:
// it returns only once the task is published, a poll fails for a
// non-transient reason, or ctx is done.
func (w *Waiter) Wait(ctx context.Context, indexName string, taskID int64, opts ...Option) error {
	_, err := w.run(ctx, indexName, taskID, opts...)
	return err
}

// WaitAll waits for several tasks concurrently, one per index.
// The first failure cancels the other waits.
func (w *Waiter) WaitAll(ctx context.Context, tasks map[string]int64, opts ...Option) error {
	g, gctx := errgroup.WithContext(ctx)
	for indexName, taskID := range tasks {
		g.Go(func() error {
			return w.Wait(gctx, indexName, taskID, opts...)
		})
	}
	return g.Wait()
}

// wait is the state of one Wait call
type wait struct {
	indexName string
	taskID    int64
	state     State
	polls     int
}

func (w *Waiter) run(ctx context.Context, indexName string, taskID int64, opts ...Option) (*wait, error) {
	if indexName == "" {
		return nil, fmt.Errorf("%w: index name is required", ErrWaitFailed)
	}

	o := waitOptions{interval: w.interval}
	for _, opt := range opts {
		opt(&o)
	}

	wt := &wait{indexName: indexName, taskID: taskID, state: StatePolling}
	logger := w.logger.With().
		Str("index", indexName).
		Int64("taskId", taskID).
		Logger()

	k := key(indexName, taskID)
	if w.published != nil && w.published.Contains(k) {
		wt.state = StateDone
		return wt, nil
	}

	err := retry.Do(ctx, retry.NewConstant(o.interval), func(ctx context.Context) error {
		wt.polls++
		status, err := w.Poll(ctx, indexName, taskID, o.pollTimeout)
		switch {
		case err == nil && status.IsPublished():
			return nil
		case err == nil:
			w.observer.ObservePoll("not_published")
			return retry.RetryableError(errNotPublished)
		case ctx.Err() != nil:
			return ctx.Err()
		case transport.IsRetryExhausted(err):
			w.observer.ObservePoll("transient_error")
			logger.Warn().
				Err(err).
				Int("poll", wt.polls).
				Msg("task status unavailable, polling again")
			return retry.RetryableError(err)
		default:
			w.observer.ObservePoll("error")
			return err
		}
	})

	switch {
	case err == nil:
		wt.state = StateDone
		w.observer.ObservePoll("published")
		if w.published != nil {
			w.published.Add(k, struct{}{})
		}
		logger.Debug().Int("polls", wt.polls).Msg("task published")
		return wt, nil

	case ctx.Err() != nil:
		wt.state = StateCancelled
		logger.Debug().Int("polls", wt.polls).Msg("task wait cancelled")
		return wt, fmt.Errorf("%w: %w", ErrWaitCancelled, ctx.Err())

	default:
		wt.state = StateFailed
		logger.Warn().Err(err).Int("polls", wt.polls).Msg("task wait failed")
		return wt, fmt.Errorf("%w: index %s task %d: %w", ErrWaitFailed, indexName, taskID, err)
	}
}
