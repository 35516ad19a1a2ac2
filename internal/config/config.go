package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load reads the configuration file (if path is not empty), applies
// environment overrides, defaults and validation
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env file is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := Prepare(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// New builds a configuration from credentials alone, everything else
// takes its default value
func New(appID, apiKey string) (*Config, error) {
	cfg := &Config{AppID: appID, APIKey: apiKey}
	if err := Prepare(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Prepare applies defaults and validates a configuration built in code
func Prepare(cfg *Config) error {
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.HostBackoff == 0 {
		cfg.HostBackoff = DefaultHostBackoff
	}
	if cfg.TaskCacheSize == 0 {
		cfg.TaskCacheSize = DefaultTaskCacheSize
	}
	if len(cfg.Hosts) == 0 && strings.TrimSpace(cfg.AppID) != "" {
		cfg.Hosts = DefaultHosts(cfg.AppID)
	}
}

// DefaultHosts returns the standard host topology for an application:
// a read-only DSN host and a write-only host first, then three shared
// fallback hosts serving both roles at a lower priority.
func DefaultHosts(appID string) []HostConfig {
	hosts := []HostConfig{
		{URL: fmt.Sprintf("https://%s-dsn.%s", appID, DefaultDomain), Roles: []Role{RoleRead}, Priority: 0},
		{URL: fmt.Sprintf("https://%s.%s", appID, DefaultDomain), Roles: []Role{RoleWrite}, Priority: 0},
	}
	for i := 1; i <= 3; i++ {
		hosts = append(hosts, HostConfig{
			URL:      fmt.Sprintf("https://%s-%d.%s", appID, i, DefaultFallbackDomain),
			Roles:    []Role{RoleRead, RoleWrite},
			Priority: 10,
		})
	}
	return hosts
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.AppID) == "" {
		return errors.New("appId is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return errors.New("apiKey is required")
	}

	if len(cfg.Hosts) == 0 {
		return errors.New("at least one host is required")
	}

	urls := make(map[string]bool)
	for i, h := range cfg.Hosts {
		if h.URL == "" {
			return fmt.Errorf("host[%d]: url is required", i)
		}
		u, err := url.Parse(h.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("host[%d]: invalid url '%s'", i, h.URL)
		}
		if urls[h.URL] {
			return fmt.Errorf("host[%d]: duplicate url '%s'", i, h.URL)
		}
		urls[h.URL] = true

		if len(h.Roles) == 0 {
			return fmt.Errorf("host '%s': at least one role is required", h.URL)
		}
		for _, r := range h.Roles {
			if r != RoleRead && r != RoleWrite {
				return fmt.Errorf("host '%s': role must be 'read' or 'write'", h.URL)
			}
		}
		if h.Priority < 0 {
			return fmt.Errorf("host '%s': priority must be non-negative", h.URL)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("logLevel must be one of: debug, info, warn, error")
	}

	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return fmt.Errorf("readTimeout and writeTimeout must be non-negative")
	}

	if cfg.PollInterval < 0 {
		return fmt.Errorf("pollInterval must be non-negative")
	}

	if cfg.HostBackoff < 0 {
		return fmt.Errorf("hostBackoff must be non-negative")
	}

	if cfg.StatusLog < 0 {
		return fmt.Errorf("statusLogInterval must be non-negative")
	}

	if cfg.TaskCacheSize < 0 {
		return fmt.Errorf("taskCacheSize must be non-negative")
	}

	return nil
}
