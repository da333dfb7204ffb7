package taskfile

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"booking-runner/internal/domain/booking"
	"booking-runner/internal/domain/entity"
)

// Duration lets task files write timeouts as "30s" / "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

type File struct {
	Defaults Defaults   `yaml:"defaults"`
	Tasks    []TaskSpec `yaml:"tasks"`
}

type Defaults struct {
	Timeout  Duration `yaml:"timeout"`
	Retries  *int     `yaml:"retries"`
	Priority int      `yaml:"priority"`
}

// TaskSpec is one task entry: either a raw step script or a booking
// request compiled into one.
type TaskSpec struct {
	Name     string           `yaml:"name"`
	Priority *int             `yaml:"priority"`
	Timeout  Duration         `yaml:"timeout"`
	Retries  *int             `yaml:"retries"`
	DryRun   *bool            `yaml:"dry_run"`
	Steps    []StepSpec       `yaml:"steps"`
	Booking  *booking.Request `yaml:"booking"`
}

type StepSpec struct {
	Kind     string   `yaml:"kind"`
	Name     string   `yaml:"name"`
	Selector string   `yaml:"selector"`
	Value    string   `yaml:"value"`
	Timeout  Duration `yaml:"timeout"`
}

// Options carries everything the loader needs beyond the file itself.
type Options struct {
	Flow        booking.FlowConfig
	PhoneRegion string
	Now         time.Time
}

// Load reads a task file and materializes executor tasks. Booking
// entries are validated and compiled here so a bad request fails the
// whole load instead of burning a browser session at run time.
func Load(path string, opts Options) ([]*entity.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return Parse(data, opts)
}

func Parse(data []byte, opts Options) ([]*entity.Task, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if len(file.Tasks) == 0 {
		return nil, fmt.Errorf("task file has no tasks")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	tasks := make([]*entity.Task, 0, len(file.Tasks))
	for i, spec := range file.Tasks {
		task, err := buildTask(i, spec, file.Defaults, opts)
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i, spec.Name, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func buildTask(idx int, spec TaskSpec, defaults Defaults, opts Options) (*entity.Task, error) {
	if spec.Booking == nil && len(spec.Steps) == 0 {
		return nil, fmt.Errorf("needs either steps or a booking")
	}
	if spec.Booking != nil && len(spec.Steps) > 0 {
		return nil, fmt.Errorf("steps and booking are mutually exclusive")
	}

	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("task-%d", idx)
	}

	priority := defaults.Priority
	if spec.Priority != nil {
		priority = *spec.Priority
	}

	timeout := time.Duration(spec.Timeout)
	if timeout == 0 {
		timeout = time.Duration(defaults.Timeout)
	}

	retries := 0
	if defaults.Retries != nil {
		retries = *defaults.Retries
	}
	if spec.Retries != nil {
		retries = *spec.Retries
	}
	if retries < 0 {
		return nil, fmt.Errorf("negative retries")
	}

	var steps []entity.Step
	if spec.Booking != nil {
		normalized, err := spec.Booking.Normalize(opts.PhoneRegion, opts.Now)
		if err != nil {
			return nil, fmt.Errorf("invalid booking: %w", err)
		}
		flow := opts.Flow
		if spec.DryRun != nil {
			flow.DryRun = *spec.DryRun
		}
		steps = booking.Compile(normalized, flow)
	} else {
		for j, s := range spec.Steps {
			step, err := buildStep(s)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", j, err)
			}
			steps = append(steps, step)
		}
	}

	return &entity.Task{
		ID:       uuid.NewString(),
		Name:     name,
		Priority: priority,
		Steps:    steps,
		Timeout:  timeout,
		Retries:  retries,
		Status:   entity.TaskStatusPending,
	}, nil
}

var knownKinds = map[entity.StepKind]bool{
	entity.StepNavigate:    true,
	entity.StepClick:       true,
	entity.StepClickText:   true,
	entity.StepFill:        true,
	entity.StepSelect:      true,
	entity.StepWaitVisible: true,
	entity.StepWaitGone:    true,
	entity.StepEval:        true,
	entity.StepExtract:     true,
	entity.StepExtractText: true,
	entity.StepScreenshot:  true,
	entity.StepPressEnter:  true,
	entity.StepScroll:      true,
	entity.StepSleep:       true,
}

func buildStep(s StepSpec) (entity.Step, error) {
	kind := entity.StepKind(s.Kind)
	if !knownKinds[kind] {
		return entity.Step{}, fmt.Errorf("unknown step kind %q", s.Kind)
	}
	return entity.Step{
		Kind:     kind,
		Name:     s.Name,
		Selector: s.Selector,
		Value:    s.Value,
		Timeout:  time.Duration(s.Timeout),
	}, nil
}
