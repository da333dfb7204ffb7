package input

import (
	"context"

	"booking-runner/internal/domain/entity"
)

// Summary aggregates a finished run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []*entity.Result
}

// TaskRunner drains the queue with a pool of workers and returns once
// every enqueued task has exactly one terminal result.
type TaskRunner interface {
	Run(ctx context.Context) (*Summary, error)
}

// TaskExecutor drives one task against one session to a terminal result.
type TaskExecutor interface {
	Execute(ctx context.Context, task *entity.Task) *entity.Result
}
