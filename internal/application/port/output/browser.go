package output

import (
	"context"

	"booking-runner/internal/domain/entity"
)

// BrowserSession is one live browser context, checked out of the pool by
// exactly one executor at a time.
type BrowserSession interface {
	ID() string

	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	ClickText(ctx context.Context, selector, text string) error
	Fill(ctx context.Context, selector, text string) error
	Select(ctx context.Context, selector, value string) error
	WaitVisible(ctx context.Context, selector string) error
	WaitGone(ctx context.Context, selector string) error
	Eval(ctx context.Context, js string) (string, error)
	PressEnter(ctx context.Context) error
	Scroll(ctx context.Context, direction string) error

	ExtractText(ctx context.Context, selector string) (string, error)
	PageText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Healthy() bool
	Close() error
}
