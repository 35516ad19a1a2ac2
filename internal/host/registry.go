package host

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"searchgofer/internal/config"
)

// ErrNoHostsForRole is returned when a role has no configured hosts
var ErrNoHostsForRole = errors.New("no hosts configured for role")

// DefaultBackoff is how long a failed host is deprioritized when no window is configured
const DefaultBackoff = 5 * time.Minute

// Registry holds the ranked hosts of an application and their health.
// The host list is fixed at construction; health lives in per-host Status cells,
// so selection and marking are safe for concurrent use.
type Registry struct {
	hosts   []*Host
	backoff time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewRegistry creates a Registry. Hosts are ranked by priority, keeping the
// given order among equal priorities.
func NewRegistry(hosts []*Host, backoff time.Duration, logger zerolog.Logger) *Registry {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	ranked := make([]*Host, len(hosts))
	copy(ranked, hosts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].priority < ranked[j].priority
	})

	return &Registry{
		hosts:   ranked,
		backoff: backoff,
		now:     time.Now,
		logger:  logger.With().Str("component", "hosts").Logger(),
	}
}

// NewRegistryFromConfig creates a Registry from config
func NewRegistryFromConfig(cfg *config.Config, logger zerolog.Logger) *Registry {
	hosts := make([]*Host, 0, len(cfg.Hosts))
	for _, hc := range cfg.Hosts {
		hosts = append(hosts, NewHostFromConfig(hc))
	}
	return NewRegistry(hosts, cfg.GetHostBackoffDuration(), logger)
}

// SetClock replaces the time source used to evaluate health. Must be
// called before use.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Now returns the registry's current time
func (r *Registry) Now() time.Time {
	return r.now()
}

// Backoff returns the unhealthy backoff window
func (r *Registry) Backoff() time.Duration {
	return r.backoff
}

// HostsFor returns the hosts serving role: healthy ones first by priority,
// then unhealthy ones in their original ranking. Unhealthy hosts are never
// dropped, so a call still reaches every host when all of them are failing.
func (r *Registry) HostsFor(role Role) ([]*Host, error) {
	now := r.now()

	healthy := make([]*Host, 0, len(r.hosts))
	var unhealthy []*Host
	for _, h := range r.hosts {
		if !h.Serves(role) {
			continue
		}
		if h.IsHealthy(now) {
			healthy = append(healthy, h)
		} else {
			unhealthy = append(unhealthy, h)
		}
	}

	if len(healthy) == 0 && len(unhealthy) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHostsForRole, role)
	}

	return append(healthy, unhealthy...), nil
}

// MarkUnhealthy records a transient failure of h at now
func (r *Registry) MarkUnhealthy(h *Host, now time.Time) {
	wasHealthy := h.IsHealthy(now)
	h.status.MarkFailed(now, r.backoff)
	if wasHealthy {
		r.logger.Warn().
			Str("host", h.URL()).
			Dur("backoff", r.backoff).
			Msg("host marked unhealthy")
	}
}

// MarkHealthy clears the failure state of h. No-op if h has none.
func (r *Registry) MarkHealthy(h *Host) {
	if h.status.Clear() {
		r.logger.Info().
			Str("host", h.URL()).
			Msg("host recovered, marking healthy")
	}
}

// Snapshot returns the diagnostic state of every host in ranked order
func (r *Registry) Snapshot() []State {
	now := r.now()
	states := make([]State, 0, len(r.hosts))
	for _, h := range r.hosts {
		states = append(states, h.State(now))
	}
	return states
}

// LogStatus logs healthy and unhealthy hosts per role
func (r *Registry) LogStatus() {
	now := r.now()
	var healthy, unhealthy []string
	for _, h := range r.hosts {
		entry := fmt.Sprintf("%s(%s)", h.URL(), h.Roles())
		if h.IsHealthy(now) {
			healthy = append(healthy, entry)
		} else {
			unhealthy = append(unhealthy, entry)
		}
	}

	r.logger.Info().
		Strs("healthy", healthy).
		Strs("unhealthy", unhealthy).
		Msg("hosts status")
}
