package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `{
		"appId": "APP",
		"apiKey": "secret",
		"hosts": [{"url": "https://a.example.com", "roles": ["read", "write"]}]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.GetReadTimeoutDuration())
	assert.Equal(t, 30*time.Second, cfg.GetWriteTimeoutDuration())
	assert.Equal(t, 100*time.Millisecond, cfg.GetPollIntervalDuration())
	assert.Equal(t, 5*time.Minute, cfg.GetHostBackoffDuration())
	assert.Equal(t, DefaultTaskCacheSize, cfg.TaskCacheSize)
	require.Len(t, cfg.Hosts, 1)
	assert.True(t, cfg.Hosts[0].HasRole(RoleRead))
	assert.True(t, cfg.Hosts[0].HasRole(RoleWrite))
}

func TestLoad_DefaultHostsFromAppID(t *testing.T) {
	path := writeConfig(t, `{"appId": "MYAPP", "apiKey": "secret"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Hosts, 5)

	assert.Equal(t, "https://MYAPP-dsn.algolia.net", cfg.Hosts[0].URL)
	assert.Equal(t, []Role{RoleRead}, cfg.Hosts[0].Roles)
	assert.Equal(t, "https://MYAPP.algolia.net", cfg.Hosts[1].URL)
	assert.Equal(t, []Role{RoleWrite}, cfg.Hosts[1].Roles)
	for _, h := range cfg.Hosts[2:] {
		assert.True(t, h.HasRole(RoleRead))
		assert.True(t, h.HasRole(RoleWrite))
		assert.Greater(t, h.Priority, cfg.Hosts[0].Priority)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SEARCH_APP_ID", "ENVAPP")
	t.Setenv("SEARCH_API_KEY", "env-key")
	t.Setenv("SEARCH_POLL_INTERVAL", "250")

	path := writeConfig(t, `{"appId": "FILEAPP", "apiKey": "file-key", "pollInterval": 50}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ENVAPP", cfg.AppID)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.GetPollIntervalDuration())
	assert.Equal(t, "https://ENVAPP-dsn.algolia.net", cfg.Hosts[0].URL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing app id",
			body: `{"apiKey": "k"}`,
			want: "appId is required",
		},
		{
			name: "blank api key",
			body: `{"appId": "A", "apiKey": "   "}`,
			want: "apiKey is required",
		},
		{
			name: "bad role",
			body: `{"appId": "A", "apiKey": "k", "hosts": [{"url": "https://a.example.com", "roles": ["admin"]}]}`,
			want: "role must be 'read' or 'write'",
		},
		{
			name: "no roles",
			body: `{"appId": "A", "apiKey": "k", "hosts": [{"url": "https://a.example.com"}]}`,
			want: "at least one role is required",
		},
		{
			name: "duplicate url",
			body: `{"appId": "A", "apiKey": "k", "hosts": [
				{"url": "https://a.example.com", "roles": ["read"]},
				{"url": "https://a.example.com", "roles": ["write"]}
			]}`,
			want: "duplicate url",
		},
		{
			name: "relative url",
			body: `{"appId": "A", "apiKey": "k", "hosts": [{"url": "a.example.com", "roles": ["read"]}]}`,
			want: "invalid url",
		},
		{
			name: "bad log level",
			body: `{"appId": "A", "apiKey": "k", "logLevel": "trace"}`,
			want: "logLevel must be one of",
		},
		{
			name: "negative backoff",
			body: `{"appId": "A", "apiKey": "k", "hostBackoff": -1}`,
			want: "hostBackoff must be non-negative",
		},
		{
			name: "negative status log interval",
			body: `{"appId": "A", "apiKey": "k", "statusLogInterval": -5}`,
			want: "statusLogInterval must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("SEARCH_APP_ID=\"unterminated\n"), 0o600))

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load .env")
}

func TestLoad_NoDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEARCH_APP_ID", "APP")
	t.Setenv("SEARCH_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "APP", cfg.AppID)
}

func TestNew(t *testing.T) {
	cfg, err := New("APP", "secret")
	require.NoError(t, err)
	assert.Len(t, cfg.Hosts, 5)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)

	_, err = New("  ", "secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "appId is required")

	_, err = New("APP", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiKey is required")
}
