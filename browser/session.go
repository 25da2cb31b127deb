// Package browser provides the session controller: it owns a single headless
// browser instance for the lifetime of one scrape.
package browser

import (
	"context"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/rs/zerolog/log"
)

// Options configures a browser launch
type Options struct {
	Headless       bool
	NoSandbox      bool
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	ExecPath       string
	LaunchTimeout  time.Duration
}

// OptionsFromConfig builds launch options from the process configuration.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Headless:       cfg.Browser.Headless,
		NoSandbox:      cfg.Browser.NoSandbox,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		ExecPath:       cfg.Browser.ExecPath,
		LaunchTimeout:  cfg.Timeouts.Launch,
	}
}

// Session is a live browser tab. Every blocking method is bounded by the
// context it is given. Sessions are not safe for concurrent use; a scrape
// drives its session strictly sequentially.
type Session interface {
	// Navigate loads url in the tab.
	Navigate(ctx context.Context, url string) error

	// WaitReady blocks until the document is interactive and selector matches.
	WaitReady(ctx context.Context, selector string) error

	// WaitIdle blocks until the document finished loading and then pauses
	// briefly so late network activity can settle.
	WaitIdle(ctx context.Context) error

	// WaitNavigation blocks until the tab has left the URL from and the new
	// document is ready.
	WaitNavigation(ctx context.Context, from string) error

	// Location returns the current URL.
	Location(ctx context.Context) (string, error)

	// Count returns the number of elements matching selector.
	Count(ctx context.Context, selector string) (int, error)

	// Click clicks the first element matching selector. A missing element is
	// reported as clicked == false, not as an error.
	Click(ctx context.Context, selector string) (bool, error)

	// Type focuses the element matching selector and types value into it.
	Type(ctx context.Context, selector, value string) error

	// ScrollToBottom scrolls the window to the end of the document.
	ScrollToBottom(ctx context.Context) error

	// HTML returns the outer HTML of the rendered document.
	HTML(ctx context.Context) (string, error)

	// Close tears the browser down. It is idempotent.
	Close() error
}

// Launcher creates sessions.
type Launcher interface {
	Launch(ctx context.Context, opts Options) (Session, error)
}

// WithSession acquires a session, runs fn and always releases the session,
// including when fn fails, panics or ctx is cancelled. Launch failures are
// returned as LaunchError and fn is not called.
func WithSession(ctx context.Context, launcher Launcher, opts Options, fn func(Session) error) error {
	session, err := launcher.Launch(ctx, opts)
	if err != nil {
		if _, ok := common.KindOf(err); ok {
			return err
		}
		return common.LaunchError("failed to launch browser", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Error closing browser session")
		}
	}()

	return fn(session)
}
