package queue

import (
	"container/heap"
	"context"
	"sync"

	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

var _ output.TaskQueue = (*Memory)(nil)

// Memory is an in-process task queue. Higher Priority dequeues first;
// within equal priority the enqueue sequence number keeps FIFO order.
type Memory struct {
	mu     sync.Mutex
	heap   taskHeap
	seq    uint64
	closed bool

	// notify wakes one blocked Dequeue per Enqueue; done wakes all on Close.
	notify chan struct{}
	done   chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (q *Memory) Enqueue(task *entity.Task) {
	q.mu.Lock()
	q.seq++
	task.Seq = q.seq
	task.Status = entity.TaskStatusPending
	heap.Push(&q.heap, task)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Memory) Dequeue(ctx context.Context) (*entity.Task, error) {
	for {
		q.mu.Lock()
		if q.heap.Len() > 0 {
			task := heap.Pop(&q.heap).(*entity.Task)
			remaining := q.heap.Len()
			q.mu.Unlock()
			if remaining > 0 {
				// pass the wakeup on: notify is cap 1, so a burst of
				// enqueues can coalesce into a single signal
				select {
				case q.notify <- struct{}{}:
				default:
				}
			}
			return task, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, entity.ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		case <-q.done:
		}
	}
}

func (q *Memory) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

func (q *Memory) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
}

type taskHeap []*entity.Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*entity.Task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}
