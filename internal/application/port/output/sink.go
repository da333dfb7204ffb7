package output

import "booking-runner/internal/domain/entity"

// ResultSink collects terminal results. Append-only in completion order;
// a recorded result is never rewritten.
type ResultSink interface {
	Record(result *entity.Result) error
	Close() error
}
