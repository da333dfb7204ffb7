package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"booking-runner/internal/application/port/input"
	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

const (
	defaultActionTimeout  = 20 * time.Second
	defaultBackoffInitial = 800 * time.Millisecond
	defaultBackoffMax     = 10 * time.Second
)

var _ input.TaskExecutor = (*Executor)(nil)

type ExecutorConfig struct {
	ActionTimeout  time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	ArtifactDir    string
}

func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		ActionTimeout:  defaultActionTimeout,
		BackoffInitial: defaultBackoffInitial,
		BackoffMax:     defaultBackoffMax,
		ArtifactDir:    "artifacts",
	}
}

// Executor drives one task at a time. For each task it borrows a session
// from the pool, runs the step script with per-step timeouts drawn from
// the task budget, retries whole attempts with exponential backoff, and
// always produces exactly one terminal Result.
type Executor struct {
	pool output.SessionPool
	log  output.LoggerPort
	cfg  ExecutorConfig
}

func NewExecutor(pool output.SessionPool, log output.LoggerPort, cfg ExecutorConfig) *Executor {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = defaultBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaultBackoffMax
	}
	return &Executor{pool: pool, log: log, cfg: cfg}
}

func (e *Executor) Execute(ctx context.Context, task *entity.Task) *entity.Result {
	log := e.log.WithFields(map[string]any{"task_id": task.ID, "task": task.Name})

	task.Status = entity.TaskStatusRunning
	result := &entity.Result{
		TaskID:    task.ID,
		TaskName:  task.Name,
		StartedAt: time.Now(),
	}

	session, err := e.pool.Acquire(ctx)
	if err != nil {
		log.Error("session acquire failed", "error", err)
		return e.finish(task, result, nil, err)
	}
	defer func() { e.pool.Release(session) }()

	log.Debug("session acquired", "session_id", session.ID())

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.BackoffInitial
	bo.MaxInterval = e.cfg.BackoffMax
	bo.MaxElapsedTime = 0
	bo.Reset()

	var (
		payload map[string]string
		lastErr error
	)

	for attempt := 1; attempt <= task.Retries+1; attempt++ {
		start := time.Now()
		p, done, err := e.runAttempt(ctx, session, task)

		result.Attempts = append(result.Attempts, entity.Attempt{
			Number:     attempt,
			StepsDone:  done,
			Error:      errString(err),
			Duration:   time.Since(start),
			StartedAt:  start,
			FinishedAt: time.Now(),
		})

		if err == nil {
			payload = p
			lastErr = nil
			break
		}
		lastErr = err
		log.Warn("attempt failed", "attempt", attempt, "steps_done", done, "error", err)

		if ctx.Err() != nil || attempt > task.Retries {
			break
		}

		// a wedged session must not serve the next attempt
		if !session.Healthy() {
			e.pool.Release(session)
			session, err = e.pool.Acquire(ctx)
			if err != nil {
				lastErr = err
				break
			}
			log.Debug("session replaced", "session_id", session.ID())
		}

		wait := bo.NextBackOff()
		log.Debug("backing off", "wait", wait.String())
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
		case <-time.After(wait):
		}
		if ctx.Err() != nil {
			break
		}
	}

	return e.finish(task, result, payload, lastErr)
}

func (e *Executor) finish(task *entity.Task, result *entity.Result, payload map[string]string, err error) *entity.Result {
	result.FinishedAt = time.Now()

	if err == nil {
		task.Status = entity.TaskStatusSucceeded
		result.Success = true
		result.Payload = payload
		return result
	}

	task.Status = entity.TaskStatusFailed
	result.Error = err.Error()

	switch {
	case errors.Is(err, entity.ErrPoolExhausted), errors.Is(err, entity.ErrLaunchFailed):
		result.FailureKind = entity.FailureKind(err)
	case errors.Is(err, context.Canceled):
		result.FailureKind = "Canceled"
	case len(result.Attempts) > 0:
		// the retry budget was spent on the steps themselves
		result.FailureKind = entity.FailureKind(entity.ErrTaskExhausted)
	default:
		result.FailureKind = entity.FailureKind(err)
	}
	return result
}

// runAttempt executes every step once, sequentially. The task timeout
// bounds the whole attempt; each step additionally gets its own slice.
func (e *Executor) runAttempt(ctx context.Context, s output.BrowserSession, task *entity.Task) (map[string]string, int, error) {
	attemptCtx := ctx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	payload := make(map[string]string)

	for i, step := range task.Steps {
		timeout := step.Timeout
		if timeout <= 0 {
			timeout = e.cfg.ActionTimeout
		}
		stepCtx, cancel := context.WithTimeout(attemptCtx, timeout)

		err := e.runStep(stepCtx, s, task, i, step, payload)

		timedOut := stepCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil
		cancel()

		if err != nil {
			if timedOut {
				err = fmt.Errorf("%w: step %s: %v", entity.ErrStepTimeout, stepLabel(i, step), err)
			} else {
				err = fmt.Errorf("step %s: %w", stepLabel(i, step), err)
			}
			return nil, i, err
		}
	}

	payload["final_url"] = s.CurrentURL()
	return payload, len(task.Steps), nil
}

func (e *Executor) runStep(ctx context.Context, s output.BrowserSession, task *entity.Task, idx int, step entity.Step, payload map[string]string) error {
	switch step.Kind {
	case entity.StepNavigate:
		return s.Navigate(ctx, step.Value)
	case entity.StepClick:
		return s.Click(ctx, step.Selector)
	case entity.StepClickText:
		return s.ClickText(ctx, step.Selector, step.Value)
	case entity.StepFill:
		return s.Fill(ctx, step.Selector, step.Value)
	case entity.StepSelect:
		return s.Select(ctx, step.Selector, step.Value)
	case entity.StepWaitVisible:
		return s.WaitVisible(ctx, step.Selector)
	case entity.StepWaitGone:
		return s.WaitGone(ctx, step.Selector)
	case entity.StepEval:
		out, err := s.Eval(ctx, step.Value)
		if err != nil {
			return err
		}
		payload[payloadKey(idx, step)] = out
		return nil
	case entity.StepExtract:
		out, err := s.ExtractText(ctx, step.Selector)
		if err != nil {
			return err
		}
		payload[payloadKey(idx, step)] = out
		return nil
	case entity.StepExtractText:
		out, err := s.PageText(ctx)
		if err != nil {
			return err
		}
		payload[payloadKey(idx, step)] = out
		return nil
	case entity.StepScreenshot:
		shot, err := s.Screenshot(ctx)
		if err != nil {
			return err
		}
		path, err := e.saveArtifact(task, idx, shot)
		if err != nil {
			return err
		}
		payload[payloadKey(idx, step)] = path
		return nil
	case entity.StepPressEnter:
		return s.PressEnter(ctx)
	case entity.StepScroll:
		return s.Scroll(ctx, step.Value)
	case entity.StepSleep:
		d, err := time.ParseDuration(step.Value)
		if err != nil {
			return fmt.Errorf("bad sleep duration %q: %w", step.Value, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}

func (e *Executor) saveArtifact(task *entity.Task, idx int, shot *entity.Screenshot) (string, error) {
	if err := os.MkdirAll(e.cfg.ArtifactDir, 0755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	path := filepath.Join(e.cfg.ArtifactDir, fmt.Sprintf("%s_step%02d.%s", task.ID, idx, shot.Format))
	if err := os.WriteFile(path, shot.Data, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func payloadKey(idx int, step entity.Step) string {
	if step.Name != "" {
		return step.Name
	}
	return fmt.Sprintf("step_%02d_%s", idx, step.Kind)
}

func stepLabel(idx int, step entity.Step) string {
	if step.Name != "" {
		return fmt.Sprintf("%d (%s)", idx, step.Name)
	}
	return fmt.Sprintf("%d (%s)", idx, step.Kind)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
