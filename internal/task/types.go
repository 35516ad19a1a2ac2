package task

import (
	"errors"
	"strconv"
)

// ErrWaitCancelled is returned when the wait is cancelled before the task is published
var ErrWaitCancelled = errors.New("task wait cancelled")

// ErrWaitFailed wraps the error that ended a wait
var ErrWaitFailed = errors.New("task wait failed")

// State is the state of a wait
type State int

const (
	StatePolling State = iota
	StateDone
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// PublishState is the server-side state of a task
type PublishState string

const (
	Published    PublishState = "published"
	NotPublished PublishState = "notPublished"
)

// Status is the answer of the task status endpoint
type Status struct {
	TaskID      int64        `json:"-"`
	IndexName   string       `json:"-"`
	State       PublishState `json:"status"`
	PendingTask bool         `json:"pendingTask"`
}

// IsPublished returns true once the task is applied
func (s *Status) IsPublished() bool {
	return s.State == Published
}

func key(indexName string, taskID int64) string {
	return indexName + "/" + strconv.FormatInt(taskID, 10)
}
