package orchestrator

import (
	"context"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/browser"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/extract"
	"github.com/researchaccelerator-hub/page-scraper/model"
	"github.com/rs/zerolog"
)

// run carries the state of a single Scrape call.
type run struct {
	o      *Orchestrator
	state  State
	logger *zerolog.Logger
}

func (r *run) transition(to State) {
	from := r.state
	if from.Terminal() {
		return
	}
	r.state = to
	r.logger.Debug().Str("from", string(from)).Str("to", string(to)).Msg("State transition")
	if r.o.onTransition != nil {
		r.o.onTransition(from, to)
	}
}

func (r *run) fail(se *common.ScrapeError) {
	r.transition(StateFailed)
	r.logger.Error().
		Err(se).
		Str("kind", string(se.Kind)).
		Msg("Scrape failed")
}

func (r *run) execute(ctx context.Context, s browser.Session, req model.ScrapeRequest) ([]model.Record, error) {
	r.transition(StateNavigating)
	if err := r.navigate(ctx, s, req.TargetURL); err != nil {
		return nil, err
	}

	if req.Credentials != nil {
		r.transition(StateAuthenticating)
		if err := r.o.auth.Login(ctx, s, *req.Credentials); err != nil {
			return nil, err
		}
		if err := r.navigate(ctx, s, req.TargetURL); err != nil {
			return nil, err
		}
	}

	if err := r.waitReady(ctx, s); err != nil {
		return nil, err
	}

	r.transition(StateLoading)
	desired := req.Limit
	if req.Mode == model.ModeComments {
		// The post's own container precedes the comments.
		desired++
	}
	page, err := r.o.loader.Reveal(ctx, s, desired)
	if err != nil {
		return nil, common.AsScrapeError(err, common.KindTargetUnavailable, "content loading interrupted")
	}
	r.logger.Info().
		Int("rounds", page.Rounds).
		Int("item_count", page.ItemCount).
		Str("reason", string(page.Reason)).
		Msg("Content revealed")

	r.transition(StateExtracting)
	document, err := s.HTML(ctx)
	if err != nil {
		return nil, common.AsScrapeError(err, common.KindExtraction, "failed to read rendered document")
	}

	return r.o.extractor.Extract(document, extract.Options{
		Mode:      req.Mode,
		Limit:     req.Limit,
		PostID:    req.PostID,
		PageURL:   req.TargetURL,
		ScrapedAt: r.o.now(),
	})
}

func (r *run) navigate(ctx context.Context, s browser.Session, url string) error {
	stepCtx, cancel := context.WithTimeout(ctx, r.o.cfg.Timeouts.Navigation)
	defer cancel()

	start := time.Now()
	if err := s.Navigate(stepCtx, url); err != nil {
		return common.AsScrapeError(err, common.KindTargetUnavailable, "failed to navigate to "+url)
	}
	r.logger.Debug().Dur("elapsed", time.Since(start)).Str("url", url).Msg("Navigation finished")
	return nil
}

// waitReady blocks until the page is interactive. A timeout here means the
// target is unavailable, never an extraction failure.
func (r *run) waitReady(ctx context.Context, s browser.Session) error {
	stepCtx, cancel := context.WithTimeout(ctx, r.o.cfg.Timeouts.Ready)
	defer cancel()

	if err := s.WaitReady(stepCtx, r.o.cfg.Extract.ReadySelector); err != nil {
		return common.TargetUnavailable("page did not become interactive", err)
	}
	return nil
}
