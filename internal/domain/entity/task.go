package entity

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
)

// StepKind names one browser interaction the executor knows how to drive.
type StepKind string

const (
	StepNavigate    StepKind = "navigate"
	StepClick       StepKind = "click"
	StepClickText   StepKind = "click_text"
	StepFill        StepKind = "fill"
	StepSelect      StepKind = "select"
	StepWaitVisible StepKind = "wait_visible"
	StepWaitGone    StepKind = "wait_gone"
	StepEval        StepKind = "eval"
	StepExtract     StepKind = "extract"
	StepExtractText StepKind = "extract_text"
	StepScreenshot  StepKind = "screenshot"
	StepPressEnter  StepKind = "press_enter"
	StepScroll      StepKind = "scroll"
	StepSleep       StepKind = "sleep"
)

// Step is one scripted action inside a task. Selector and Value are
// interpreted per kind: navigate reads Value as the URL, fill uses both,
// extract stores its output under Name in the result payload.
type Step struct {
	Kind     StepKind
	Name     string
	Selector string
	Value    string
	Timeout  time.Duration // 0 means the executor default
}

// Task is one unit of automation work. Status moves pending -> running ->
// (succeeded | failed) exactly once; a retry re-runs the steps inside the
// same running task, it never resurrects a terminal one.
type Task struct {
	ID       string
	Name     string
	Priority int
	Steps    []Step
	Timeout  time.Duration // budget for one attempt over all steps
	Retries  int           // extra attempts after the first
	Seq      uint64        // enqueue order, assigned by the queue
	Status   TaskStatus
}

// Terminal reports whether the task already reached a final status.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusSucceeded || t.Status == TaskStatusFailed
}
