package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"searchgofer/internal/host"
	"searchgofer/internal/transport"
)

const namespace = "searchgofer"

// Collector records host attempts and task polls as prometheus metrics.
// It implements transport.Observer and task.PollObserver.
type Collector struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
	polls    *prometheus.CounterVec
}

// New creates a Collector and registers its metrics on reg
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_attempts_total",
			Help:      "Requests sent to a host, by outcome.",
		}, []string{"host", "role", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "host_attempt_duration_seconds",
			Help:      "Time spent on a single host attempt.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host", "role"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_polls_total",
			Help:      "Task status polls, by result.",
		}, []string{"result"}),
	}

	for _, col := range []prometheus.Collector{c.attempts, c.duration, c.polls} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return c, nil
}

// ObserveAttempt implements transport.Observer
func (c *Collector) ObserveAttempt(hostURL string, role host.Role, kind transport.OutcomeKind, elapsed time.Duration) {
	c.attempts.WithLabelValues(hostURL, role.String(), kind.String()).Inc()
	c.duration.WithLabelValues(hostURL, role.String()).Observe(elapsed.Seconds())
}

// ObservePoll implements task.PollObserver
func (c *Collector) ObservePoll(result string) {
	c.polls.WithLabelValues(result).Inc()
}
