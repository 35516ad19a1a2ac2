package host

import (
	"strings"
	"time"

	"searchgofer/internal/config"
)

// Host represents a single API endpoint
type Host struct {
	url      string
	roles    Role
	priority int

	status *Status
}

// Config for creating a new Host
type Config struct {
	URL      string
	Roles    Role
	Priority int
}

// NewHost creates a new healthy Host
func NewHost(cfg Config) *Host {
	return &Host{
		url:      strings.TrimRight(cfg.URL, "/"),
		roles:    cfg.Roles,
		priority: cfg.Priority,
		status:   &Status{},
	}
}

// NewHostFromConfig creates a Host from config
func NewHostFromConfig(cfg config.HostConfig) *Host {
	return NewHost(Config{
		URL:      cfg.URL,
		Roles:    RoleFromConfig(cfg),
		Priority: cfg.Priority,
	})
}

// URL returns the base URL of the host, without trailing slash
func (h *Host) URL() string {
	return h.url
}

// Roles returns the roles served by the host
func (h *Host) Roles() Role {
	return h.roles
}

// Priority returns the host priority, lower is tried first
func (h *Host) Priority() int {
	return h.priority
}

// Serves returns true if the host serves the role
func (h *Host) Serves(role Role) bool {
	return h.roles.Has(role)
}

// IsHealthy returns the health status at the given instant
func (h *Host) IsHealthy(now time.Time) bool {
	return h.status.IsHealthy(now)
}

// State returns a diagnostic snapshot of the host
func (h *Host) State(now time.Time) State {
	return State{
		URL:            h.url,
		Roles:          h.roles.String(),
		Priority:       h.priority,
		Healthy:        h.status.IsHealthy(now),
		LastFailure:    h.status.LastFailure(),
		RetryableAfter: h.status.RetryableAfter(),
	}
}
