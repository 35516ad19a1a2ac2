package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"searchgofer/internal/config"
	"searchgofer/internal/host"
	"searchgofer/internal/task"
	"searchgofer/internal/transport"
)

// Version is sent in the default User-Agent
const Version = "0.1.0"

// Client is the entry point of the API. It is safe for concurrent use.
type Client struct {
	config   *config.Config
	registry *host.Registry
	executor *transport.Executor
	waiter   *task.Waiter
	http     *transport.HTTPRequester // nil when a custom requester is used
	logger   zerolog.Logger
}

// NewClient creates a Client. cfg must carry an app id and an api key;
// missing settings take their defaults, hosts included.
func NewClient(cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, fmt.Errorf("%w: app id can't be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: api key can't be empty", ErrInvalidArgument)
	}

	c := *cfg
	if err := config.Prepare(&c); err != nil {
		return nil, err
	}

	o := clientOptions{userAgent: "searchgofer/" + Version}
	for _, opt := range opts {
		opt(&o)
	}

	client := &Client{
		config: &c,
		logger: logger.With().Str("component", "search").Logger(),
	}

	requester := o.requester
	if requester == nil {
		client.http = transport.NewHTTPRequester(transport.HTTPConfig{
			AppID:     c.AppID,
			APIKey:    c.APIKey,
			UserAgent: o.userAgent,
			Logger:    logger,
		})
		requester = client.http
	}

	client.registry = host.NewRegistryFromConfig(&c, logger)
	client.executor = transport.NewExecutor(client.registry, requester, transport.ConfigFromConfig(&c), logger)

	waiter, err := task.NewWaiter(client.executor, task.ConfigFromConfig(&c), logger)
	if err != nil {
		return nil, err
	}
	client.waiter = waiter

	if o.collector != nil {
		client.executor.SetObserver(o.collector)
		client.waiter.SetObserver(o.collector)
	}

	client.logger.Info().
		Str("appId", c.AppID).
		Int("hosts", len(c.Hosts)).
		Msg("client created")

	return client, nil
}

// AppID returns the application id of the client
func (c *Client) AppID() string {
	return c.config.AppID
}

// Hosts returns the current state of every host
func (c *Client) Hosts() []host.State {
	return c.registry.Snapshot()
}

// Registry returns the host registry shared by every call of the client
func (c *Client) Registry() *host.Registry {
	return c.registry
}

// Close releases idle connections
func (c *Client) Close() {
	if c.http != nil {
		c.http.Close()
	}
}

// InitIndex returns a handle on an index. No request is sent.
func (c *Client) InitIndex(name string) (*Index, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: index name is required", ErrInvalidArgument)
	}
	return &Index{client: c, name: name}, nil
}

// ListIndices lists the indices of the application
func (c *Client) ListIndices(ctx context.Context, opts ...RequestOption) ([]IndexInfo, error) {
	var resp listIndicesResponse
	if err := c.do(ctx, host.RoleRead, http.MethodGet, "/1/indexes", nil, &resp, opts); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ListAPIKeys lists the api keys of the application
func (c *Client) ListAPIKeys(ctx context.Context, opts ...RequestOption) ([]APIKey, error) {
	var resp listAPIKeysResponse
	if err := c.do(ctx, host.RoleRead, http.MethodGet, "/1/keys", nil, &resp, opts); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

// GetAPIKey fetches the permissions of one api key
func (c *Client) GetAPIKey(ctx context.Context, key string, opts ...RequestOption) (*APIKey, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: api key is required", ErrInvalidArgument)
	}

	var resp APIKey
	if err := c.do(ctx, host.RoleRead, http.MethodGet, "/1/keys/"+url.PathEscape(key), nil, &resp, opts); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultipleGetObjects fetches objects from several indices at once
func (c *Client) MultipleGetObjects(ctx context.Context, requests []GetObjectRequest, opts ...RequestOption) (*MultipleGetObjectsResponse, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: at least one object is required", ErrInvalidArgument)
	}

	payload := struct {
		Requests []GetObjectRequest `json:"requests"`
	}{Requests: requests}

	var resp MultipleGetObjectsResponse
	if err := c.do(ctx, host.RoleRead, http.MethodPost, "/1/indexes/*/objects", payload, &resp, opts); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultipleQueries runs several searches, possibly on different indices
func (c *Client) MultipleQueries(ctx context.Context, queries []IndexQuery, strategy Strategy, opts ...RequestOption) (*MultipleQueriesResponse, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: at least one query is required", ErrInvalidArgument)
	}

	payload := multipleQueriesRequest{
		Requests: make([]indexQueryRequest, 0, len(queries)),
		Strategy: strategy,
	}
	for i, q := range queries {
		if q.IndexName == "" {
			return nil, fmt.Errorf("%w: query %d: index name is required", ErrInvalidArgument, i)
		}
		payload.Requests = append(payload.Requests, indexQueryRequest{
			IndexName: q.IndexName,
			Params:    q.Query.Encode(),
		})
	}

	var resp MultipleQueriesResponse
	if err := c.do(ctx, host.RoleRead, http.MethodPost, "/1/indexes/*/queries", payload, &resp, opts); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MultipleBatch applies write operations on several indices at once.
// The returned response can wait for the resulting tasks.
func (c *Client) MultipleBatch(ctx context.Context, operations []BatchOperation, opts ...RequestOption) (*MultipleBatchResponse, error) {
	if len(operations) == 0 {
		return nil, fmt.Errorf("%w: at least one operation is required", ErrInvalidArgument)
	}
	for i, op := range operations {
		if op.IndexName == "" {
			return nil, fmt.Errorf("%w: operation %d: index name is required", ErrInvalidArgument, i)
		}
		if op.Action == "" {
			return nil, fmt.Errorf("%w: operation %d: action is required", ErrInvalidArgument, i)
		}
	}

	var resp MultipleBatchResponse
	if err := c.do(ctx, host.RoleWrite, http.MethodPost, "/1/indexes/*/batch", batchRequest{Requests: operations}, &resp, opts); err != nil {
		return nil, err
	}
	resp.waiter = c.waiter
	return &resp, nil
}

// WaitTask blocks until the task is published on the index, or ctx is done
func (c *Client) WaitTask(ctx context.Context, indexName string, taskID int64, opts ...task.Option) error {
	index, err := c.InitIndex(indexName)
	if err != nil {
		return err
	}
	return index.WaitTask(ctx, taskID, opts...)
}

// do sends one call through the executor and decodes the answer into out
func (c *Client) do(ctx context.Context, role host.Role, method, path string, payload, out any, opts []RequestOption) error {
	call := &transport.Call{
		Role:   role,
		Method: method,
		Path:   path,
	}

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		call.Body = body
	}

	for _, opt := range opts {
		opt(call)
	}

	res, err := c.executor.Execute(ctx, call)
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(res.Body, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", res.Host, err)
		}
	}
	return nil
}
