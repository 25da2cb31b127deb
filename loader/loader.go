// Package loader drives progressive content reveal on infinite-scroll pages.
package loader

import (
	"context"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/browser"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/rs/zerolog/log"
)

// StopReason says why Reveal stopped growing the page.
type StopReason string

const (
	ReasonTargetReached StopReason = "target_reached"
	ReasonStagnated     StopReason = "stagnated"
	ReasonRoundBudget   StopReason = "round_budget"
	ReasonGrowFailed    StopReason = "grow_failed"
)

// stagnationRounds is the number of consecutive rounds without growth after
// which the page is considered exhausted.
const stagnationRounds = 2

// RevealedPage summarises a Reveal run. ItemCount may be below the desired
// count; callers must cope with fewer records than requested.
type RevealedPage struct {
	Rounds    int
	ItemCount int
	Reason    StopReason
}

// Loader reveals lazily loaded item containers.
type Loader struct {
	MaxRounds        int
	SettleDelay      time.Duration
	ItemSelector     string
	LoadMoreSelector string
}

// NewLoader creates a Loader from configuration.
func NewLoader(cfg config.LoaderConfig, itemSelector string) *Loader {
	return &Loader{
		MaxRounds:        cfg.MaxRounds,
		SettleDelay:      cfg.SettleDelay,
		ItemSelector:     itemSelector,
		LoadMoreSelector: cfg.LoadMoreSelector,
	}
}

// Reveal grows the page until desired containers are present, the round
// budget is spent, or two consecutive rounds add nothing. Each round clicks
// the "load more" control when present and scrolls to the bottom otherwise,
// then waits SettleDelay for rendering. Only context errors are returned; a
// failing scroll or count ends the loop with ReasonGrowFailed.
func (l *Loader) Reveal(ctx context.Context, session browser.Session, desired int) (RevealedPage, error) {
	count, err := session.Count(ctx, l.ItemSelector)
	if err != nil {
		if ctx.Err() != nil {
			return RevealedPage{}, ctx.Err()
		}
		log.Warn().Err(err).Msg("Initial item count failed")
		return RevealedPage{Reason: ReasonGrowFailed}, nil
	}

	page := RevealedPage{ItemCount: count, Reason: ReasonRoundBudget}
	if desired > 0 && count >= desired {
		page.Reason = ReasonTargetReached
		return page, nil
	}

	stagnant := 0
	for round := 1; round <= l.MaxRounds; round++ {
		page.Rounds = round

		if err := l.grow(ctx, session); err != nil {
			if ctx.Err() != nil {
				return page, ctx.Err()
			}
			log.Warn().Err(err).Int("round", round).Msg("Content growth failed")
			page.Reason = ReasonGrowFailed
			return page, nil
		}

		if err := sleep(ctx, l.SettleDelay); err != nil {
			return page, err
		}

		next, err := session.Count(ctx, l.ItemSelector)
		if err != nil {
			if ctx.Err() != nil {
				return page, ctx.Err()
			}
			log.Warn().Err(err).Int("round", round).Msg("Item count failed")
			page.Reason = ReasonGrowFailed
			return page, nil
		}

		log.Debug().
			Int("round", round).
			Int("previous_count", page.ItemCount).
			Int("item_count", next).
			Msg("Reveal round finished")

		if next > page.ItemCount {
			page.ItemCount = next
			stagnant = 0
		} else {
			stagnant++
		}

		if desired > 0 && page.ItemCount >= desired {
			page.Reason = ReasonTargetReached
			return page, nil
		}
		if stagnant >= stagnationRounds {
			page.Reason = ReasonStagnated
			return page, nil
		}
	}

	return page, nil
}

func (l *Loader) grow(ctx context.Context, session browser.Session) error {
	if l.LoadMoreSelector != "" {
		clicked, err := session.Click(ctx, l.LoadMoreSelector)
		if err != nil {
			return err
		}
		if clicked {
			return nil
		}
	}
	return session.ScrollToBottom(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
