// Package orchestrator composes the browser session, authenticator, content
// loader and extractor into a single scrape.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/auth"
	"github.com/researchaccelerator-hub/page-scraper/browser"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/crawler"
	"github.com/researchaccelerator-hub/page-scraper/extract"
	"github.com/researchaccelerator-hub/page-scraper/loader"
	"github.com/researchaccelerator-hub/page-scraper/model"
)

// State is a step of a scrape.
type State string

const (
	StateIdle           State = "idle"
	StateNavigating     State = "navigating"
	StateAuthenticating State = "authenticating"
	StateLoading        State = "loading"
	StateExtracting     State = "extracting"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TransitionFunc observes state changes. It runs on the scrape goroutine and
// must not block.
type TransitionFunc func(from, to State)

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLauncher replaces the Chrome launcher
func WithLauncher(l browser.Launcher) Option {
	return func(o *Orchestrator) { o.launcher = l }
}

// WithTransitionHook registers fn to observe every state change
func WithTransitionHook(fn TransitionFunc) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

// WithClock replaces the clock used to stamp scrapes
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator is the browser-backed crawler.Scraper. Every Scrape owns its
// own browser session; an Orchestrator may serve concurrent requests.
type Orchestrator struct {
	cfg          config.Config
	launcher     browser.Launcher
	auth         *auth.Authenticator
	loader       *loader.Loader
	extractor    *extract.Extractor
	onTransition TransitionFunc
	now          func() time.Time

	mu          sync.RWMutex
	initialized bool
}

var _ crawler.Scraper = (*Orchestrator)(nil)

// NewOrchestrator creates an uninitialised orchestrator
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New creates an orchestrator initialised with cfg
func New(cfg config.Config, opts ...Option) *Orchestrator {
	o := NewOrchestrator(opts...)
	o.configure(cfg)
	return o
}

// Initialize builds the pipeline components from cfg
func (o *Orchestrator) Initialize(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.configure(cfg)
	return nil
}

func (o *Orchestrator) configure(cfg config.Config) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cfg = cfg
	if o.launcher == nil {
		o.launcher = browser.NewChromeLauncher()
	}
	o.auth = auth.NewAuthenticator(cfg.Auth, cfg.Timeouts.Login)
	o.loader = loader.NewLoader(cfg.Loader, cfg.Extract.ContainerSelector)
	o.extractor = extract.NewExtractor(cfg.Extract)
	o.initialized = true
}

// Backend returns the backend type
func (o *Orchestrator) Backend() crawler.BackendType {
	return crawler.BackendBrowser
}

// ValidateRequest checks a normalised request
func (o *Orchestrator) ValidateRequest(req model.ScrapeRequest) error {
	return req.Validate(o.cfg.Scrape.AllowedHosts)
}

// Close is a no-op; sessions never outlive a Scrape call
func (o *Orchestrator) Close() error {
	return nil
}

// Scrape runs one request: validate, acquire a session, navigate, optionally
// authenticate, wait for the page to become interactive, reveal content and
// extract records. The session is released on every path.
func (o *Orchestrator) Scrape(ctx context.Context, req model.ScrapeRequest) (model.ScrapeResult, error) {
	o.mu.RLock()
	ready := o.initialized
	o.mu.RUnlock()
	if !ready {
		se := common.LaunchError("browser scraper is not initialised", nil)
		return model.Failed(se), se
	}

	req = req.Normalize(o.cfg.Scrape.DefaultLimit, o.cfg.Scrape.MaxLimit)
	logger := common.Logger(ctx).With().
		Str("target_url", req.TargetURL).
		Str("mode", string(req.Mode)).
		Int("limit", req.Limit).
		Logger()

	r := &run{o: o, state: StateIdle, logger: &logger}

	if err := o.ValidateRequest(req); err != nil {
		se := common.AsScrapeError(err, common.KindInvalidRequest, "invalid request")
		r.fail(se)
		return model.Failed(se), se
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeouts.Request)
	defer cancel()

	var records []model.Record
	err := browser.WithSession(ctx, o.launcher, browser.OptionsFromConfig(o.cfg), func(s browser.Session) error {
		var err error
		records, err = r.execute(ctx, s, req)
		return err
	})
	if err != nil {
		se := common.AsScrapeError(err, common.KindTargetUnavailable, "scrape failed")
		r.fail(se)
		return model.Failed(se), se
	}

	r.transition(StateDone)
	logger.Info().Int("count", len(records)).Msg("Scrape completed")
	return model.Succeeded(records, req), nil
}
