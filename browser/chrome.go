package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/rs/zerolog/log"
)

const (
	pollInterval = 250 * time.Millisecond
	idleSettle   = 750 * time.Millisecond
)

// ChromeLauncher launches a local Chrome through chromedp.
type ChromeLauncher struct{}

// NewChromeLauncher creates a new ChromeLauncher
func NewChromeLauncher() *ChromeLauncher {
	return &ChromeLauncher{}
}

// Launch starts a browser and opens a tab. There is no retry: any failure is
// returned as LaunchError.
func (l *ChromeLauncher) Launch(ctx context.Context, opts Options) (Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		log.Debug().Msgf(format, args...)
	}))

	s := &chromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// The first Run owns the browser's lifetime, so it must get the tab
	// context itself; the launch timeout is enforced from outside.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	timeout := opts.LaunchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-started:
		if err != nil {
			s.Close()
			return nil, common.LaunchError("failed to start browser", err)
		}
	case <-timer.C:
		s.Close()
		return nil, common.LaunchError(fmt.Sprintf("browser did not start within %s", timeout), nil)
	case <-ctx.Done():
		s.Close()
		return nil, common.LaunchError("browser launch cancelled", ctx.Err())
	}

	log.Debug().
		Bool("headless", opts.Headless).
		Int("viewport_width", opts.ViewportWidth).
		Int("viewport_height", opts.ViewportHeight).
		Msg("Browser session started")
	return s, nil
}

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

// run executes actions on the tab, bounded by both the tab and the caller's ctx.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *chromeSession) readyState(ctx context.Context) (string, error) {
	var state string
	err := s.run(ctx, chromedp.Evaluate("document.readyState", &state))
	return state, err
}

// waitFor polls cond until it reports true or ctx ends.
func (s *chromeSession) waitFor(ctx context.Context, cond func() (bool, error)) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		ok, err := cond()
		if ok {
			return nil
		}
		if err != nil && ctx.Err() != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *chromeSession) WaitReady(ctx context.Context, selector string) error {
	err := s.waitFor(ctx, func() (bool, error) {
		state, err := s.readyState(ctx)
		return state == "interactive" || state == "complete", err
	})
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *chromeSession) WaitIdle(ctx context.Context) error {
	err := s.waitFor(ctx, func() (bool, error) {
		state, err := s.readyState(ctx)
		return state == "complete", err
	})
	if err != nil {
		return err
	}
	return sleep(ctx, idleSettle)
}

func (s *chromeSession) WaitNavigation(ctx context.Context, from string) error {
	return s.waitFor(ctx, func() (bool, error) {
		loc, err := s.Location(ctx)
		if err != nil || loc == from {
			return false, err
		}
		state, err := s.readyState(ctx)
		return state == "complete", err
	})
}

func (s *chromeSession) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (s *chromeSession) Count(ctx context.Context, selector string) (int, error) {
	var n int
	expr := fmt.Sprintf("document.querySelectorAll(%s).length", jsString(selector))
	if err := s.run(ctx, chromedp.Evaluate(expr, &n)); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *chromeSession) Click(ctx context.Context, selector string) (bool, error) {
	var clicked bool
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) { return false; }
		el.click();
		return true;
	})()`, jsString(selector))
	if err := s.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return false, err
	}
	return clicked, nil
}

func (s *chromeSession) Type(ctx context.Context, selector, value string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (s *chromeSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, chromedp.Evaluate("window.scrollTo(0, document.body.scrollHeight)", nil))
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromeSession) Close() error {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil && !strings.Contains(err.Error(), "context canceled") {
			s.closeErr = err
		}
		s.cancelTab()
		s.cancelAlloc()
	})
	return s.closeErr
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
