// Package queue runs fire-and-forget background tasks after a response has
// been written. Tasks are never retried.
package queue

import (
	"context"
	"errors"
)

var ErrStopped = errors.New("queue: executor stopped")

type Task struct {
	Type    string
	Payload []byte
}

// Handler executes one task. A returned error is logged, never retried.
type Handler func(ctx context.Context, t Task) error

// Executor accepts tasks and runs them on registered handlers.
type Executor interface {
	Register(taskType string, h Handler)
	Start(ctx context.Context) error
	Dispatch(ctx context.Context, t Task) error
	// Stop waits for accepted tasks to finish or ctx to expire.
	Stop(ctx context.Context) error
}
