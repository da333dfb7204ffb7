package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

var _ output.ResultSink = (*JSONL)(nil)

// JSONL appends one JSON line per result. The file is opened append-only
// so a recorded result can never be rewritten; the mutex serializes
// writes in completion order.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
}

func NewJSONL(path string) (*JSONL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create results dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}

	return &JSONL{file: file}, nil
}

func (s *JSONL) Record(result *entity.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func (s *JSONL) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
