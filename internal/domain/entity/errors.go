package entity

import "errors"

var (
	// ErrLaunchFailed means the browser runtime could not start at all.
	// Fatal: the process should exit non-zero.
	ErrLaunchFailed = errors.New("browser launch failed")

	// ErrPoolExhausted means no session freed up within the acquire budget.
	ErrPoolExhausted = errors.New("session pool exhausted")

	// ErrStepTimeout means one step overran its timeout. The task is
	// retried; the session stays usable unless its health check fails.
	ErrStepTimeout = errors.New("step timed out")

	// ErrTaskExhausted means the task failed on every attempt of its
	// retry budget. Terminal, surfaced in the Result.
	ErrTaskExhausted = errors.New("task retries exhausted")

	// ErrQueueClosed is returned by Dequeue once the queue is closed and
	// drained.
	ErrQueueClosed = errors.New("task queue closed")

	// ErrSessionUnhealthy marks a session the pool destroyed instead of
	// returning to the idle set.
	ErrSessionUnhealthy = errors.New("session unhealthy")
)

// FailureKind maps a terminal error to the tag stored on a failed Result.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTaskExhausted):
		return "TaskExhausted"
	case errors.Is(err, ErrStepTimeout):
		return "StepTimeout"
	case errors.Is(err, ErrPoolExhausted):
		return "PoolExhausted"
	case errors.Is(err, ErrLaunchFailed):
		return "LaunchFailed"
	default:
		return "Error"
	}
}
