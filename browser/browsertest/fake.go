// Package browsertest provides in-memory browser sessions for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"

	"github.com/researchaccelerator-hub/page-scraper/browser"
)

// FakeSession is a scriptable browser.Session. Zero values behave like an
// empty page that is immediately ready.
type FakeSession struct {
	mu sync.Mutex

	// URL is the current location. Navigate sets it unless NavigateHook
	// overrides it.
	URL string

	// Document is returned by HTML.
	Document string

	// Counts is consulted by Count on every call; the n-th call returns
	// Counts[n], repeating the last entry once exhausted.
	Counts []int

	// Present lists selectors that Click can find.
	Present map[string]bool

	// AfterSubmit is the URL the tab lands on when SubmitSelector is clicked.
	SubmitSelector string
	AfterSubmit    string

	NavigateErr  error
	ReadyErr     error
	IdleErr      error
	WaitNavErr   error
	HTMLErr      error
	ScrollErr    error
	TypeErr      error
	ClickErr     error
	BlockOnReady bool

	// BlockOnNavigation makes WaitNavigation hang until ctx ends, like a tab
	// that never leaves the current page.
	BlockOnNavigation bool

	// Recorded calls.
	Navigations []string
	Clicks      []string
	Typed       map[string]string
	Scrolls     int
	CountCalls  int
	CloseCalls  int
}

var _ browser.Session = (*FakeSession)(nil)

func (f *FakeSession) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigations = append(f.Navigations, url)
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.URL = url
	return ctx.Err()
}

func (f *FakeSession) WaitReady(ctx context.Context, selector string) error {
	if f.BlockOnReady {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.ReadyErr != nil {
		return f.ReadyErr
	}
	return ctx.Err()
}

func (f *FakeSession) WaitIdle(ctx context.Context) error {
	if f.IdleErr != nil {
		return f.IdleErr
	}
	return ctx.Err()
}

func (f *FakeSession) WaitNavigation(ctx context.Context, from string) error {
	if f.BlockOnNavigation {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.WaitNavErr != nil {
		return f.WaitNavErr
	}
	return ctx.Err()
}

func (f *FakeSession) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.URL, nil
}

func (f *FakeSession) Count(ctx context.Context, selector string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	if len(f.Counts) > 0 {
		i := f.CountCalls
		if i >= len(f.Counts) {
			i = len(f.Counts) - 1
		}
		n = f.Counts[i]
	}
	f.CountCalls++
	return n, nil
}

func (f *FakeSession) Click(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClickErr != nil {
		return false, f.ClickErr
	}
	if !f.Present[selector] {
		return false, nil
	}
	f.Clicks = append(f.Clicks, selector)
	if selector == f.SubmitSelector && f.AfterSubmit != "" {
		f.URL = f.AfterSubmit
	}
	return true, nil
}

func (f *FakeSession) Type(ctx context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TypeErr != nil {
		return f.TypeErr
	}
	if f.Typed == nil {
		f.Typed = make(map[string]string)
	}
	f.Typed[selector] = value
	return nil
}

func (f *FakeSession) ScrollToBottom(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scrolls++
	return f.ScrollErr
}

func (f *FakeSession) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Document, f.HTMLErr
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCalls++
	return nil
}

// Closed reports whether Close was called at least once.
func (f *FakeSession) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CloseCalls > 0
}

// ErrLaunch is returned by a FakeLauncher configured to fail.
var ErrLaunch = errors.New("chrome executable not found")

// FakeLauncher hands out a single FakeSession.
type FakeLauncher struct {
	Session  *FakeSession
	Fail     bool
	Launches int
}

var _ browser.Launcher = (*FakeLauncher)(nil)

func (l *FakeLauncher) Launch(ctx context.Context, opts browser.Options) (browser.Session, error) {
	l.Launches++
	if l.Fail {
		return nil, ErrLaunch
	}
	if l.Session == nil {
		l.Session = &FakeSession{}
	}
	return l.Session, nil
}
