package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"searchgofer/internal/host"
	"searchgofer/internal/task"
)

// Index is a handle on one index
type Index struct {
	client *Client
	name   string
}

// Name returns the index name
func (i *Index) Name() string {
	return i.name
}

func (i *Index) path(suffix string) string {
	return "/1/indexes/" + url.PathEscape(i.name) + suffix
}

// Browse returns one page of the index content. Pass the cursor of the
// previous page to get the next one; q is ignored when cursor is set.
func (i *Index) Browse(ctx context.Context, q *Query, cursor string, opts ...RequestOption) (*BrowseResponse, error) {
	payload := browseRequest{Cursor: cursor}
	if cursor == "" {
		payload.Params = q.Encode()
	}

	var resp BrowseResponse
	if err := i.client.do(ctx, host.RoleRead, http.MethodPost, i.path("/browse"), payload, &resp, opts); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BrowseAll walks every page of the index and calls fn for each hit.
// It stops at the first error returned by fn.
func (i *Index) BrowseAll(ctx context.Context, q *Query, fn func(hit json.RawMessage) error, opts ...RequestOption) error {
	cursor := ""
	for page := 0; ; page++ {
		resp, err := i.Browse(ctx, q, cursor, opts...)
		if err != nil {
			return fmt.Errorf("browse page %d: %w", page, err)
		}

		for _, hit := range resp.Hits {
			if err := fn(hit); err != nil {
				return err
			}
		}

		if resp.Cursor == "" {
			return nil
		}
		cursor = resp.Cursor
	}
}

// WaitTask blocks until the task is published, or ctx is done
func (i *Index) WaitTask(ctx context.Context, taskID int64, opts ...task.Option) error {
	return i.client.waiter.Wait(ctx, i.name, taskID, opts...)
}
