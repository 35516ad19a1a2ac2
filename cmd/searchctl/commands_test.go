package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searchgofer/internal/config"
	"searchgofer/internal/search"
	"searchgofer/internal/transport"
)

func newClient(t *testing.T, routes map[string]string) *search.Client {
	t.Helper()
	requester := transport.RequesterFunc(func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		path := strings.TrimPrefix(req.URL, "https://h.example.com")
		body, ok := routes[req.Method+" "+path]
		if !ok {
			return &transport.Response{StatusCode: http.StatusNotFound, Body: []byte(`{"message":"not found"}`)}, nil
		}
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	})

	cfg := &config.Config{
		AppID:        "APP",
		APIKey:       "secret",
		PollInterval: 1,
		Hosts: []config.HostConfig{
			{URL: "https://h.example.com", Roles: []config.Role{config.RoleRead, config.RoleWrite}},
		},
	}
	client, err := search.NewClient(cfg, zerolog.Nop(), search.WithRequester(requester))
	require.NoError(t, err)
	return client
}

func TestRun_Usage(t *testing.T) {
	client := newClient(t, nil)

	tests := [][]string{
		{},
		{"unknown"},
		{"key"},
		{"wait", "products"},
		{"wait", "products", "abc"},
		{"browse"},
		{"secured-key"},
	}
	for _, args := range tests {
		err := run(context.Background(), client, args, &bytes.Buffer{})
		assert.True(t, errors.Is(err, errUsage), "args %v: %v", args, err)
	}
}

func TestRun_Indices(t *testing.T) {
	client := newClient(t, map[string]string{
		"GET /1/indexes": `{"items":[{"name":"products","entries":4}]}`,
	})

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), client, []string{"indices"}, &out))
	assert.Contains(t, out.String(), `"name": "products"`)
	assert.Contains(t, out.String(), `"entries": 4`)
}

func TestRun_Wait(t *testing.T) {
	client := newClient(t, map[string]string{
		"GET /1/indexes/products/task/3": `{"status":"published"}`,
	})

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), client, []string{"wait", "products", "3"}, &out))
	assert.Contains(t, out.String(), "task 3 published on products")
}

func TestRun_Browse(t *testing.T) {
	client := newClient(t, map[string]string{
		"POST /1/indexes/products/browse": `{"hits":[{"objectID":"1"},{"objectID":"2"}]}`,
	})

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), client, []string{"browse", "products"}, &out))
	assert.Equal(t, "{\"objectID\":\"1\"}\n{\"objectID\":\"2\"}\n", out.String())
}

func TestRun_SecuredKey(t *testing.T) {
	client := newClient(t, nil)

	var out bytes.Buffer
	err := run(context.Background(), client, []string{"secured-key", "-indices", "a,b", "-user-token", "u1", "parent"}, &out)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "restrictIndices=a%2Cb&userToken=u1", string(decoded[64:]))
}

func TestRun_Hosts(t *testing.T) {
	client := newClient(t, nil)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), client, []string{"hosts"}, &out))
	assert.Contains(t, out.String(), `"url": "https://h.example.com"`)
	assert.Contains(t, out.String(), `"healthy": true`)
}

func TestRun_APIErrorPropagates(t *testing.T) {
	client := newClient(t, nil)

	err := run(context.Background(), client, []string{"key", "missing"}, &bytes.Buffer{})
	apiErr, ok := transport.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
