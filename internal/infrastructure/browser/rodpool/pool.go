package rodpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

var _ output.SessionPool = (*Pool)(nil)

const defaultAcquireTimeout = 30 * time.Second

type PoolConfig struct {
	Size           int
	AcquireTimeout time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Size:           2,
		AcquireTimeout: defaultAcquireTimeout,
	}
}

// Pool hands out browser sessions with check-out/check-in discipline.
// A session exists in exactly one place: the idle channel, or the hands
// of the worker that acquired it. Capacity tokens in the slots channel
// account for sessions not yet created, so idle count + held count +
// token count always equals Size.
type Pool struct {
	factory        SessionFactory
	log            output.LoggerPort
	acquireTimeout time.Duration

	idle  chan output.BrowserSession
	slots chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewPool(factory SessionFactory, cfg PoolConfig, log output.LoggerPort) *Pool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = defaultAcquireTimeout
	}

	p := &Pool{
		factory:        factory,
		log:            log,
		acquireTimeout: cfg.AcquireTimeout,
		idle:           make(chan output.BrowserSession, cfg.Size),
		slots:          make(chan struct{}, cfg.Size),
	}
	for i := 0; i < cfg.Size; i++ {
		p.slots <- struct{}{}
	}
	return p
}

func (p *Pool) Acquire(ctx context.Context) (output.BrowserSession, error) {
	// prefer reusing an idle session over spawning a new context
	select {
	case s := <-p.idle:
		return s, nil
	default:
	}

	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case s := <-p.idle:
		return s, nil
	case <-p.slots:
		s, err := p.factory.NewSession(ctx)
		if err != nil {
			p.slots <- struct{}{}
			return nil, fmt.Errorf("create session: %w", err)
		}
		p.log.Debug("session created", "session_id", s.ID())
		return s, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: no session freed within %s", entity.ErrPoolExhausted, p.acquireTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) Release(s output.BrowserSession) {
	if s == nil {
		return
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed || !s.Healthy() {
		if !closed {
			p.log.Warn("destroying unhealthy session", "session_id", s.ID())
		}
		p.destroy(s)
		return
	}

	p.idle <- s
}

func (p *Pool) destroy(s output.BrowserSession) {
	if err := s.Close(); err != nil {
		p.log.Debug("session close failed", "session_id", s.ID(), "error", err)
	}
	p.slots <- struct{}{}
}

func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case s := <-p.idle:
			p.destroy(s)
		default:
			p.factory.Close()
			return
		}
	}
}
