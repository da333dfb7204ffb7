package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-runner/internal/domain/entity"
	"booking-runner/internal/infrastructure/logger"
	"booking-runner/internal/infrastructure/queue"
	"booking-runner/internal/infrastructure/sink"
)

func TestRunner_EveryTaskGetsExactlyOneResult(t *testing.T) {
	pool := newFakePool(newFakeSession("s1"), newFakeSession("s2"))
	pool.block = true
	exec := NewExecutor(pool, logger.NewNop(), testExecutorConfig(t))

	q := queue.NewMemory()
	results := sink.NewMemory()
	runner := NewRunner(q, results, exec, logger.NewNop(), 4)

	const total = 20
	for i := 0; i < total; i++ {
		q.Enqueue(&entity.Task{
			ID:   fmt.Sprintf("t%02d", i),
			Name: fmt.Sprintf("task-%d", i),
			Steps: []entity.Step{
				{Kind: entity.StepNavigate, Name: "open", Value: "https://example.test"},
			},
		})
	}
	q.Close()

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, total, summary.Total)
	assert.Equal(t, total, summary.Succeeded)
	require.Len(t, results.Results(), total)

	seen := map[string]int{}
	for _, r := range results.Results() {
		seen[r.TaskID]++
	}
	assert.Len(t, seen, total, "no task may be lost")
	for id, n := range seen {
		assert.Equal(t, 1, n, "task %s recorded %d times", id, n)
	}

	assert.Empty(t, pool.misuse, "no session may be shared between executors")
	assert.LessOrEqual(t, pool.maxHeld, 2, "pool ceiling must bound concurrent sessions")
	assert.Equal(t, 0, q.Depth())
}

func TestRunner_FailuresAreRecordedNotDropped(t *testing.T) {
	broken := newFakeSession("broken")
	broken.hangFirst = 1000
	pool := newFakePool(broken)
	exec := NewExecutor(pool, logger.NewNop(), testExecutorConfig(t))

	q := queue.NewMemory()
	results := sink.NewMemory()
	runner := NewRunner(q, results, exec, logger.NewNop(), 1)

	q.Enqueue(&entity.Task{
		ID:      "doomed",
		Name:    "doomed",
		Retries: 1,
		Steps: []entity.Step{
			{Kind: entity.StepNavigate, Name: "open", Value: "https://example.test"},
		},
	})
	q.Close()

	summary, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, results.Results(), 1)
	assert.Equal(t, "TaskExhausted", results.Results()[0].FailureKind)
}

func TestRunner_SingleWorkerPreservesPriorityOrder(t *testing.T) {
	pool := newFakePool(newFakeSession("s1"))
	exec := NewExecutor(pool, logger.NewNop(), testExecutorConfig(t))

	q := queue.NewMemory()
	results := sink.NewMemory()
	runner := NewRunner(q, results, exec, logger.NewNop(), 1)

	q.Enqueue(&entity.Task{ID: "low", Name: "low", Priority: 0,
		Steps: []entity.Step{{Kind: entity.StepNavigate, Value: "https://example.test"}}})
	q.Enqueue(&entity.Task{ID: "high", Name: "high", Priority: 9,
		Steps: []entity.Step{{Kind: entity.StepNavigate, Value: "https://example.test"}}})
	q.Close()

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	got := results.Results()
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].TaskID)
	assert.Equal(t, "low", got[1].TaskID)
}

func TestRunner_ContextCancelStopsWorkers(t *testing.T) {
	pool := newFakePool(newFakeSession("s1"))
	exec := NewExecutor(pool, logger.NewNop(), testExecutorConfig(t))

	q := queue.NewMemory() // stays open and empty
	runner := NewRunner(q, sink.NewMemory(), exec, logger.NewNop(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	summary, err := runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Total)
}
