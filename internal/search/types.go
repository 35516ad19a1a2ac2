package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"searchgofer/internal/task"
)

// ErrInvalidArgument is returned before any network call when an
// argument cannot produce a valid request
var ErrInvalidArgument = errors.New("invalid argument")

// IndexInfo describes one index of the application
type IndexInfo struct {
	Name                 string    `json:"name"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
	Entries              int64     `json:"entries"`
	DataSize             int64     `json:"dataSize"`
	FileSize             int64     `json:"fileSize"`
	LastBuildTimeS       int       `json:"lastBuildTimeS"`
	NumberOfPendingTasks int       `json:"numberOfPendingTasks"`
	PendingTask          bool      `json:"pendingTask"`
	Primary              string    `json:"primary,omitempty"`
	Replicas             []string  `json:"replicas,omitempty"`
}

type listIndicesResponse struct {
	Items   []IndexInfo `json:"items"`
	NbPages int         `json:"nbPages"`
}

// APIKey is an API key and its permissions
type APIKey struct {
	Value                  string   `json:"value"`
	CreatedAt              int64    `json:"createdAt"`
	ACL                    []string `json:"acl"`
	Validity               int64    `json:"validity"`
	MaxHitsPerQuery        int      `json:"maxHitsPerQuery,omitempty"`
	MaxQueriesPerIPPerHour int      `json:"maxQueriesPerIPPerHour,omitempty"`
	Indexes                []string `json:"indexes,omitempty"`
	Referers               []string `json:"referers,omitempty"`
	QueryParameters        string   `json:"queryParameters,omitempty"`
	Description            string   `json:"description,omitempty"`
}

type listAPIKeysResponse struct {
	Keys []APIKey `json:"keys"`
}

// GetObjectRequest identifies one object to fetch
type GetObjectRequest struct {
	IndexName            string   `json:"indexName"`
	ObjectID             string   `json:"objectID"`
	AttributesToRetrieve []string `json:"attributesToRetrieve,omitempty"`
}

// MultipleGetObjectsResponse holds the objects in request order.
// A missing object is a JSON null.
type MultipleGetObjectsResponse struct {
	Results []json.RawMessage `json:"results"`
}

// DecodeResults decodes raw objects into T. Null entries decode to nil.
func DecodeResults[T any](raw []json.RawMessage) ([]*T, error) {
	out := make([]*T, len(raw))
	for i, r := range raw {
		if len(r) == 0 || string(r) == "null" {
			continue
		}
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		out[i] = &v
	}
	return out, nil
}

// Strategy controls how a multiple queries call runs its queries
type Strategy string

const (
	StrategyNone                Strategy = "none"
	StrategyStopIfEnoughMatches Strategy = "stopIfEnoughMatches"
)

// IndexQuery is one query of a multiple queries call
type IndexQuery struct {
	IndexName string
	Query     *Query
}

type indexQueryRequest struct {
	IndexName string `json:"indexName"`
	Params    string `json:"params"`
}

type multipleQueriesRequest struct {
	Requests []indexQueryRequest `json:"requests"`
	Strategy Strategy            `json:"strategy,omitempty"`
}

// QueryResult is the answer to one search or browse
type QueryResult struct {
	Index            string            `json:"index,omitempty"`
	Hits             []json.RawMessage `json:"hits"`
	NbHits           int               `json:"nbHits"`
	Page             int               `json:"page"`
	NbPages          int               `json:"nbPages"`
	HitsPerPage      int               `json:"hitsPerPage"`
	ProcessingTimeMS int               `json:"processingTimeMS"`
	Query            string            `json:"query"`
	Params           string            `json:"params"`
	Cursor           string            `json:"cursor,omitempty"`
}

// MultipleQueriesResponse holds one result per query, in request order
type MultipleQueriesResponse struct {
	Results []QueryResult `json:"results"`
}

// BatchAction is the kind of a batch operation
type BatchAction string

const (
	ActionAddObject                   BatchAction = "addObject"
	ActionUpdateObject                BatchAction = "updateObject"
	ActionPartialUpdateObject         BatchAction = "partialUpdateObject"
	ActionPartialUpdateObjectNoCreate BatchAction = "partialUpdateObjectNoCreate"
	ActionDeleteObject                BatchAction = "deleteObject"
	ActionDelete                      BatchAction = "delete"
	ActionClear                       BatchAction = "clear"
)

// BatchOperation is one write of a multiple batch call
type BatchOperation struct {
	Action    BatchAction `json:"action"`
	IndexName string      `json:"indexName"`
	Body      any         `json:"body,omitempty"`
}

type batchRequest struct {
	Requests []BatchOperation `json:"requests"`
}

// MultipleBatchResponse lists the task created on each index
type MultipleBatchResponse struct {
	TaskID    map[string]int64 `json:"taskID"`
	ObjectIDs []string         `json:"objectIDs"`

	waiter *task.Waiter
}

// Wait blocks until the tasks of every index are published
func (r *MultipleBatchResponse) Wait(ctx context.Context, opts ...task.Option) error {
	if r.waiter == nil {
		return fmt.Errorf("%w: response is not attached to a client", ErrInvalidArgument)
	}
	return r.waiter.WaitAll(ctx, r.TaskID, opts...)
}

// BrowseResponse is one page of a browse
type BrowseResponse = QueryResult

type browseRequest struct {
	Params string `json:"params,omitempty"`
	Cursor string `json:"cursor,omitempty"`
}
