package entity

import "time"

// Attempt is the audit record of one execution attempt of a task.
type Attempt struct {
	Number     int           `json:"number"` // 1-based
	StepsDone  int           `json:"steps_done"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Result is the immutable outcome of one task. Exactly one Result exists
// per enqueued task; it is never updated after the sink records it.
type Result struct {
	TaskID      string            `json:"task_id"`
	TaskName    string            `json:"task_name"`
	Success     bool              `json:"success"`
	Payload     map[string]string `json:"payload,omitempty"`
	Error       string            `json:"error,omitempty"`
	FailureKind string            `json:"failure_kind,omitempty"`
	Attempts    []Attempt         `json:"attempts"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
