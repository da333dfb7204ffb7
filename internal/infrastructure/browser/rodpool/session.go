package rodpool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"booking-runner/internal/application/port/output"
	"booking-runner/internal/domain/entity"
)

var ErrInvalidURL = errors.New("invalid url")

var _ output.BrowserSession = (*Session)(nil)

// Session drives one rod page inside its own incognito context.
type Session struct {
	id      string
	page    *rod.Page
	timeout time.Duration
}

func (s *Session) ID() string { return s.id }

func (s *Session) Navigate(ctx context.Context, target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidURL, target)
	}

	p := s.page.Context(ctx)
	if err := p.Navigate(target); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	p.WaitIdle(5 * time.Second)
	return nil
}

func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	p := s.page.Context(ctx).Timeout(s.timeout)
	if strings.HasPrefix(selector, "/") {
		return p.ElementX(selector)
	}
	return p.Element(selector)
}

func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	s.page.Context(ctx).WaitIdle(2 * time.Second)
	return nil
}

func (s *Session) ClickText(ctx context.Context, selector, text string) error {
	p := s.page.Context(ctx).Timeout(s.timeout)
	el, err := p.ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return fmt.Errorf("element with text %q not found: %w", text, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("element with text %q not visible: %w", text, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	s.page.Context(ctx).WaitIdle(2 * time.Second)
	return nil
}

func (s *Session) Fill(ctx context.Context, selector, text string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return fmt.Errorf("field not found: %s: %w", selector, err)
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

const selectOptionJS = `() => {
	const el = document.querySelector(%q);
	if (!el) { throw new Error('select not found'); }
	if (el.options.length < 2) { return false; }
	const value = %q;
	for (const opt of el.options) {
		if (opt.value === value || opt.textContent.trim().includes(value)) {
			el.value = opt.value;
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
	}
	throw new Error('option not available: ' + value);
}`

// Select waits for the dropdown options to populate (the site loads time
// slots lazily), then picks by value or visible text.
func (s *Session) Select(ctx context.Context, selector, value string) error {
	js := fmt.Sprintf(selectOptionJS, selector, value)

	for {
		res, err := s.page.Context(ctx).Eval(js)
		if err != nil {
			return fmt.Errorf("select %s: %w", selector, err)
		}
		if res.Value.Bool() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("select %s: options never populated: %w", selector, ctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return fmt.Errorf("element not found: %s: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("element not visible: %s: %w", selector, err)
	}
	return nil
}

func (s *Session) WaitGone(ctx context.Context, selector string) error {
	js := fmt.Sprintf(`() => document.querySelector(%q) === null`, selector)

	for {
		res, err := s.page.Context(ctx).Eval(js)
		if err != nil {
			return fmt.Errorf("wait gone %s: %w", selector, err)
		}
		if res.Value.Bool() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("element still present: %s: %w", selector, ctx.Err())
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func (s *Session) Eval(ctx context.Context, js string) (string, error) {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return "", fmt.Errorf("eval failed: %w", err)
	}
	if res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

func (s *Session) PressEnter(ctx context.Context) error {
	el, err := s.element(ctx, "body")
	if err != nil {
		return fmt.Errorf("body not found: %w", err)
	}
	if err := el.Input("\r"); err != nil {
		return fmt.Errorf("failed to press Enter: %w", err)
	}
	s.page.Context(ctx).WaitIdle(1 * time.Second)
	return nil
}

func (s *Session) Scroll(ctx context.Context, direction string) error {
	p := s.page.Context(ctx)

	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		p.Eval(`() => window.scrollBy(0, window.innerHeight * 2)`)
	case "up":
		p.Eval(`() => window.scrollBy(0, -window.innerHeight * 2)`)
	case "top":
		p.Eval(`() => window.scrollTo(0, 0)`)
	case "bottom":
		p.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}

	p.WaitIdle(800 * time.Millisecond)
	return nil
}

func (s *Session) ExtractText(ctx context.Context, selector string) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("get html: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return "", fmt.Errorf("nothing matches selector %q", selector)
	}

	var parts []string
	sel.Each(func(_ int, node *goquery.Selection) {
		if t := strings.TrimSpace(node.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n"), nil
}

func (s *Session) PageText(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("get html: %w", err)
	}
	return ExtractVisibleText(html), nil
}

func (s *Session) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := s.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > 1024 {
		img = imaging.Resize(img, 1024, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Healthy probes the page with a trivial eval. A crashed or wedged
// context fails the probe and gets destroyed by the pool.
func (s *Session) Healthy() bool {
	p := s.page.Timeout(3 * time.Second)
	res, err := p.Eval(`() => document.readyState`)
	if err != nil {
		return false
	}
	return res.Value.Str() != ""
}

func (s *Session) Close() error {
	return s.page.Close()
}
