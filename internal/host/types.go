package host

import (
	"strings"
	"sync"
	"time"

	"searchgofer/internal/config"
)

// Role is a set of call roles a host serves
type Role uint8

const (
	RoleRead Role = 1 << iota
	RoleWrite
)

// RoleFromConfig converts the roles of a configured host into a Role set
func RoleFromConfig(hc config.HostConfig) Role {
	var r Role
	if hc.HasRole(config.RoleRead) {
		r |= RoleRead
	}
	if hc.HasRole(config.RoleWrite) {
		r |= RoleWrite
	}
	return r
}

// Has returns true if every role in other is part of r
func (r Role) Has(other Role) bool {
	return other != 0 && r&other == other
}

func (r Role) String() string {
	var parts []string
	if r&RoleRead != 0 {
		parts = append(parts, "read")
	}
	if r&RoleWrite != 0 {
		parts = append(parts, "write")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Status holds the failure state of a host.
// A zero Status is healthy.
type Status struct {
	mu             sync.RWMutex
	lastFailure    time.Time
	retryableAfter time.Time
}

// IsHealthy reports whether the host is eligible at the given instant
func (s *Status) IsHealthy(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retryableAfter.IsZero() || !now.Before(s.retryableAfter)
}

// MarkFailed records a failure at now, excluding the host until now+window
func (s *Status) MarkFailed(now time.Time, window time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFailure = now
	s.retryableAfter = now.Add(window)
}

// Clear resets failure state. Returns false if there was nothing to clear.
func (s *Status) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFailure.IsZero() && s.retryableAfter.IsZero() {
		return false
	}
	s.lastFailure = time.Time{}
	s.retryableAfter = time.Time{}
	return true
}

// LastFailure returns the time of the last recorded failure (zero if none)
func (s *Status) LastFailure() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFailure
}

// RetryableAfter returns the instant the host becomes eligible again (zero if never failed)
func (s *Status) RetryableAfter() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retryableAfter
}

// State is a point-in-time view of a host, used for diagnostics
type State struct {
	URL            string    `json:"url"`
	Roles          string    `json:"roles"`
	Priority       int       `json:"priority"`
	Healthy        bool      `json:"healthy"`
	LastFailure    time.Time `json:"lastFailure,omitempty"`
	RetryableAfter time.Time `json:"retryableAfter,omitempty"`
}
