package output

import (
	"context"

	"booking-runner/internal/domain/entity"
)

// TaskQueue hands pending tasks to workers. Higher priority first, FIFO
// within equal priority. Depth is the only backpressure signal.
type TaskQueue interface {
	// Enqueue never blocks and never drops a task.
	Enqueue(task *entity.Task)

	// Dequeue blocks until a task is available, ctx is done, or the
	// queue is closed and drained (entity.ErrQueueClosed).
	Dequeue(ctx context.Context) (*entity.Task, error)

	// Depth reports the number of pending tasks.
	Depth() int

	// Close stops accepting work; queued tasks are still handed out.
	Close()
}
