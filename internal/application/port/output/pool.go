package output

import "context"

// SessionPool owns every BrowserSession. Check-out/check-in discipline:
// a session handed out by Acquire is owned by the caller until Release.
type SessionPool interface {
	// Acquire returns an idle session, creating one up to the pool
	// ceiling. Blocks up to the configured acquire budget, then fails
	// with entity.ErrPoolExhausted.
	Acquire(ctx context.Context) (BrowserSession, error)

	// Release returns a session to the idle set, or destroys it when
	// its health check fails. Never blocks.
	Release(s BrowserSession)

	// Close destroys every idle session and the underlying browser.
	Close()
}
