package config

import "time"

// Role defines a host role name as it appears in the config file
type Role string

const (
	RoleRead  Role = "read"
	RoleWrite Role = "write"
)

// Config represents the main configuration structure.
// Values from the JSON file can be overridden by SEARCH_* environment variables.
type Config struct {
	AppID         string       `json:"appId" env:"SEARCH_APP_ID"`
	APIKey        string       `json:"apiKey" env:"SEARCH_API_KEY"`
	LogLevel      string       `json:"logLevel" env:"SEARCH_LOG_LEVEL"`
	ReadTimeout   int          `json:"readTimeout" env:"SEARCH_READ_TIMEOUT"`   // ms - per-host timeout for read calls
	WriteTimeout  int          `json:"writeTimeout" env:"SEARCH_WRITE_TIMEOUT"` // ms - per-host timeout for write calls
	PollInterval  int          `json:"pollInterval" env:"SEARCH_POLL_INTERVAL"` // ms - delay between task status polls
	HostBackoff   int          `json:"hostBackoff" env:"SEARCH_HOST_BACKOFF"`   // ms - how long a failed host is deprioritized
	TaskCacheSize int          `json:"taskCacheSize" env:"SEARCH_TASK_CACHE_SIZE"`
	StatusLog     int          `json:"statusLogInterval" env:"SEARCH_STATUS_LOG_INTERVAL"` // ms - host status log period, 0 disables
	Hosts         []HostConfig `json:"hosts"`
}

// HostConfig represents a single host configuration
type HostConfig struct {
	URL      string `json:"url"`
	Roles    []Role `json:"roles"`
	Priority int    `json:"priority"`
}

// Default values
const (
	DefaultLogLevel      = "info"
	DefaultReadTimeout   = 5000   // ms
	DefaultWriteTimeout  = 30000  // ms
	DefaultPollInterval  = 100    // ms
	DefaultHostBackoff   = 300000 // ms - 5 minutes
	DefaultTaskCacheSize = 1024

	DefaultDomain         = "algolia.net"
	DefaultFallbackDomain = "algolianet.com"
)

// GetReadTimeoutDuration returns read timeout as time.Duration
func (c *Config) GetReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}

// GetWriteTimeoutDuration returns write timeout as time.Duration
func (c *Config) GetWriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Millisecond
}

// GetPollIntervalDuration returns poll interval as time.Duration
func (c *Config) GetPollIntervalDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// GetHostBackoffDuration returns the unhealthy host backoff window as time.Duration
func (c *Config) GetHostBackoffDuration() time.Duration {
	return time.Duration(c.HostBackoff) * time.Millisecond
}

// GetStatusLogIntervalDuration returns the host status log period as time.Duration
func (c *Config) GetStatusLogIntervalDuration() time.Duration {
	return time.Duration(c.StatusLog) * time.Millisecond
}

// HasRole returns true if the host serves the given role
func (h HostConfig) HasRole(role Role) bool {
	for _, r := range h.Roles {
		if r == role {
			return true
		}
	}
	return false
}
