package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

// fakeSession hangs on the first hangFirst navigations (until the step
// context times out) and then succeeds. All other operations succeed.
type fakeSession struct {
	id        string
	mu        sync.Mutex
	navCalls  int
	hangFirst int
	unhealthy bool
	closed    bool
	inUse     bool
	onMisuse  func(format string, args ...any)
}

var _ output.BrowserSession = (*fakeSession)(nil)

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id, onMisuse: func(string, ...any) {}}
}

func (s *fakeSession) enter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inUse {
		s.onMisuse("session %s used concurrently", s.id)
	}
	if s.closed {
		s.onMisuse("session %s used after close", s.id)
	}
	s.inUse = true
}

func (s *fakeSession) leave() {
	s.mu.Lock()
	s.inUse = false
	s.mu.Unlock()
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	s.enter()
	defer s.leave()

	s.mu.Lock()
	s.navCalls++
	hang := s.navCalls <= s.hangFirst
	s.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (s *fakeSession) Click(ctx context.Context, selector string) error {
	s.enter()
	defer s.leave()
	return nil
}

func (s *fakeSession) ClickText(ctx context.Context, selector, text string) error { return nil }
func (s *fakeSession) Fill(ctx context.Context, selector, text string) error      { return nil }
func (s *fakeSession) Select(ctx context.Context, selector, value string) error   { return nil }
func (s *fakeSession) WaitVisible(ctx context.Context, selector string) error     { return nil }
func (s *fakeSession) WaitGone(ctx context.Context, selector string) error        { return nil }
func (s *fakeSession) PressEnter(ctx context.Context) error                       { return nil }
func (s *fakeSession) Scroll(ctx context.Context, direction string) error         { return nil }

func (s *fakeSession) Eval(ctx context.Context, js string) (string, error) {
	return "evaluated", nil
}

func (s *fakeSession) ExtractText(ctx context.Context, selector string) (string, error) {
	s.enter()
	defer s.leave()
	return "extracted from " + selector, nil
}

func (s *fakeSession) PageText(ctx context.Context) (string, error) {
	return "page text", nil
}

func (s *fakeSession) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	return &entity.Screenshot{Data: []byte{0xff}, Format: "jpeg", Width: 1, Height: 1}, nil
}

func (s *fakeSession) CurrentURL() string { return "https://example.test/done" }

func (s *fakeSession) Healthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unhealthy
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// fakePool hands out fake sessions with the same check-out/check-in
// discipline as the real pool and records misuse instead of panicking.
type fakePool struct {
	mu       sync.Mutex
	free     []*fakeSession
	held     map[string]bool
	acquires int
	releases int
	maxHeld  int
	misuse   []string
	makeNext func(n int) *fakeSession
	block    bool // wait for a free session instead of failing fast
}

var _ output.SessionPool = (*fakePool)(nil)

func newFakePool(sessions ...*fakeSession) *fakePool {
	p := &fakePool{held: map[string]bool{}}
	p.free = append(p.free, sessions...)
	for _, s := range sessions {
		s.onMisuse = p.recordMisuse
	}
	return p
}

func (p *fakePool) recordMisuse(format string, args ...any) {
	p.mu.Lock()
	p.misuse = append(p.misuse, fmt.Sprintf(format, args...))
	p.mu.Unlock()
}

func (p *fakePool) Acquire(ctx context.Context) (output.BrowserSession, error) {
	for {
		p.mu.Lock()
		if len(p.free) == 0 && p.makeNext != nil {
			s := p.makeNext(p.acquires + 1)
			s.onMisuse = p.recordMisuse
			p.free = append(p.free, s)
		}
		if len(p.free) > 0 {
			s := p.free[0]
			p.free = p.free[1:]
			p.acquires++
			p.held[s.id] = true
			if len(p.held) > p.maxHeld {
				p.maxHeld = len(p.held)
			}
			p.mu.Unlock()
			return s, nil
		}
		block := p.block
		p.mu.Unlock()

		if !block {
			return nil, entity.ErrPoolExhausted
		}
		select {
		case <-ctx.Done():
			return nil, entity.ErrPoolExhausted
		case <-time.After(time.Millisecond):
		}
	}
}

func (p *fakePool) Release(s output.BrowserSession) {
	if s == nil {
		return
	}
	fs := s.(*fakeSession)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.releases++
	if !p.held[fs.id] {
		p.misuse = append(p.misuse, fmt.Sprintf("session %s released but not held", fs.id))
		return
	}
	delete(p.held, fs.id)

	if fs.Healthy() {
		p.free = append(p.free, fs)
	} else {
		fs.Close()
	}
}

func (p *fakePool) Close() {}
