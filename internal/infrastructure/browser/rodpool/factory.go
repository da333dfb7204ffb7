package rodpool

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultSlowMotion = 0 * time.Millisecond
)

type Config struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool
}

func DefaultConfig() Config {
	return Config{
		Headless:   true,
		SlowMotion: defaultSlowMotion,
		Timeout:    defaultTimeout,
		NoSandbox:  false,
		DevTools:   false,
	}
}

// SessionFactory creates browser sessions for the pool.
type SessionFactory interface {
	NewSession(ctx context.Context) (output.BrowserSession, error)
	Close()
}

var _ SessionFactory = (*RodFactory)(nil)

// RodFactory owns one Chromium process; each session is an incognito
// context with a single page, so sessions share nothing but the process.
type RodFactory struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// NewRodFactory launches the browser process. A failure here is
// entity.ErrLaunchFailed and fatal to the run.
func NewRodFactory(ctx context.Context, cfg Config) (*RodFactory, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-dev-shm-usage")

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrLaunchFailed, err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("%w: connect: %v", entity.ErrLaunchFailed, err)
	}

	return &RodFactory{
		browser:  browser,
		launcher: l,
		timeout:  cfg.Timeout,
	}, nil
}

func (f *RodFactory) NewSession(ctx context.Context) (output.BrowserSession, error) {
	incognito, err := f.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &Session{
		id:      uuid.NewString(),
		page:    page,
		timeout: f.timeout,
	}, nil
}

func (f *RodFactory) Close() {
	if f.browser != nil {
		_ = f.browser.Close()
	}
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher.Cleanup()
	}
}
