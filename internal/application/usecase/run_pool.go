package usecase

import (
	"context"
	"errors"
	"sync"

	"booking-runner/internal/application/port/input"
	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

var _ input.TaskRunner = (*Runner)(nil)

// Runner fans a queue out over a fixed set of workers. Each worker loops
// dequeue -> execute -> record until the queue is closed and drained.
// Results are unordered relative to enqueue order unless Workers is 1.
type Runner struct {
	queue   output.TaskQueue
	sink    output.ResultSink
	exec    input.TaskExecutor
	log     output.LoggerPort
	workers int
}

func NewRunner(queue output.TaskQueue, sink output.ResultSink, exec input.TaskExecutor, log output.LoggerPort, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		queue:   queue,
		sink:    sink,
		exec:    exec,
		log:     log,
		workers: workers,
	}
}

func (r *Runner) Run(ctx context.Context) (*input.Summary, error) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		summary input.Summary
	)

	record := func(result *entity.Result) {
		if err := r.sink.Record(result); err != nil {
			r.log.Error("result record failed", "task_id", result.TaskID, "error", err)
		}
		mu.Lock()
		summary.Total++
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Results = append(summary.Results, result)
		mu.Unlock()
	}

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			log := r.log.WithField("worker", worker)

			for {
				task, err := r.queue.Dequeue(ctx)
				if err != nil {
					if !errors.Is(err, entity.ErrQueueClosed) && !errors.Is(err, context.Canceled) {
						log.Error("dequeue failed", "error", err)
					}
					return
				}

				log.Info("task started", "task_id", task.ID, "task", task.Name, "queue_depth", r.queue.Depth())
				result := r.exec.Execute(ctx, task)
				record(result)
				log.Info("task finished",
					"task_id", task.ID,
					"success", result.Success,
					"attempts", len(result.Attempts),
					"failure_kind", result.FailureKind,
				)
			}
		}(w)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return &summary, err
	}
	return &summary, nil
}
