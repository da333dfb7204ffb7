package sink

import (
	"sync"

	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

var _ output.ResultSink = (*Memory)(nil)

// Memory keeps results in completion order for summaries and tests.
type Memory struct {
	mu      sync.RWMutex
	results []*entity.Result
}

func NewMemory() *Memory {
	return &Memory{}
}

func (s *Memory) Record(result *entity.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns a snapshot; safe to call while workers are recording.
func (s *Memory) Results() []*entity.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Result, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Memory) Close() error { return nil }

// Tee records into several sinks, typically memory plus a JSONL file.
type Tee struct {
	sinks []output.ResultSink
}

func NewTee(sinks ...output.ResultSink) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Record(result *entity.Result) error {
	for _, s := range t.sinks {
		if err := s.Record(result); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tee) Close() error {
	var first error
	for _, s := range t.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
