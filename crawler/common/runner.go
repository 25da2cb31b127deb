// Package common provides shared functionality for all scraper backends
package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/crawler"
	"github.com/researchaccelerator-hub/page-scraper/model"
)

// Stats counts finished scrapes
type Stats struct {
	Total     int                      `json:"total"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	ByKind    map[common.ErrorKind]int `json:"byKind"`
}

// ScrapeRunner resolves the configured backend and runs requests through it
type ScrapeRunner struct {
	factory  crawler.ScraperFactory
	cfg      config.Config
	mu       sync.Mutex
	scrapers map[crawler.BackendType]crawler.Scraper
	stats    Stats
}

// NewScrapeRunner creates a new runner
func NewScrapeRunner(factory crawler.ScraperFactory, cfg config.Config) *ScrapeRunner {
	return &ScrapeRunner{
		factory:  factory,
		cfg:      cfg,
		scrapers: make(map[crawler.BackendType]crawler.Scraper),
		stats:    Stats{ByKind: make(map[common.ErrorKind]int)},
	}
}

// Run executes a single request with the configured backend. The returned
// result is always a complete envelope; on failure err is the same
// *common.ScrapeError carried by the result.
func (r *ScrapeRunner) Run(ctx context.Context, req model.ScrapeRequest) (model.ScrapeResult, error) {
	ctx, _ = common.WithRequestLogger(ctx)
	logger := common.Logger(ctx)
	backend := crawler.BackendType(r.cfg.Backend)

	req = req.Normalize(r.cfg.Scrape.DefaultLimit, r.cfg.Scrape.MaxLimit)
	logger.Info().
		Str("backend", string(backend)).
		Str("target_url", req.TargetURL).
		Str("mode", string(req.Mode)).
		Int("limit", req.Limit).
		Bool("authenticated", req.Credentials != nil).
		Msg("Scrape requested")

	start := time.Now()
	result, err := r.run(ctx, backend, req)
	if err != nil {
		se := common.AsScrapeError(err, common.KindTargetUnavailable, "scrape failed")
		r.record(se)
		logger.Error().
			Err(err).
			Str("kind", string(se.Kind)).
			Dur("elapsed", time.Since(start)).
			Msg("Scrape failed")
		return model.Failed(se), se
	}

	r.record(nil)
	logger.Info().
		Int("count", result.Count).
		Dur("elapsed", time.Since(start)).
		Msg("Scrape finished")
	return result, nil
}

func (r *ScrapeRunner) run(ctx context.Context, backend crawler.BackendType, req model.ScrapeRequest) (model.ScrapeResult, error) {
	s, err := r.getScraper(ctx, backend)
	if err != nil {
		return model.ScrapeResult{}, err
	}

	// Reject bad input before any session or upstream call is made
	if err := s.ValidateRequest(req); err != nil {
		return model.ScrapeResult{}, common.AsScrapeError(err, common.KindInvalidRequest, "invalid request")
	}

	return s.Scrape(ctx, req)
}

// RunBatch executes requests one after another and returns their results in
// order. A failing request does not stop the batch.
func (r *ScrapeRunner) RunBatch(ctx context.Context, reqs []model.ScrapeRequest) []model.ScrapeResult {
	results := make([]model.ScrapeResult, 0, len(reqs))
	for _, req := range reqs {
		if ctx.Err() != nil {
			se := common.AsScrapeError(ctx.Err(), common.KindTargetUnavailable, "batch interrupted")
			r.record(se)
			results = append(results, model.Failed(se))
			continue
		}
		result, _ := r.Run(ctx, req)
		results = append(results, result)
	}
	return results
}

// getScraper gets or creates the scraper for backend
func (r *ScrapeRunner) getScraper(ctx context.Context, backend crawler.BackendType) (crawler.Scraper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, exists := r.scrapers[backend]; exists {
		return s, nil
	}

	s, err := r.factory.GetScraper(backend)
	if err != nil {
		return nil, common.LaunchError(fmt.Sprintf("no scraper for backend %s", backend), err)
	}
	if err := s.Initialize(ctx, r.cfg); err != nil {
		return nil, common.LaunchError(fmt.Sprintf("failed to initialise %s scraper", backend), err)
	}

	r.scrapers[backend] = s
	return s, nil
}

func (r *ScrapeRunner) record(se *common.ScrapeError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Total++
	if se == nil {
		r.stats.Succeeded++
		return
	}
	r.stats.Failed++
	r.stats.ByKind[se.Kind]++
}

// Stats returns a snapshot of the runner's counters
func (r *ScrapeRunner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.stats
	snapshot.ByKind = make(map[common.ErrorKind]int, len(r.stats.ByKind))
	for k, v := range r.stats.ByKind {
		snapshot.ByKind[k] = v
	}
	return snapshot
}

// Close cleans up all scrapers
func (r *ScrapeRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for backend, s := range r.scrapers {
		if err := s.Close(); err != nil {
			common.Logger(context.Background()).Error().Err(err).Str("backend", string(backend)).Msg("Error closing scraper")
			lastErr = err
		}
	}
	return lastErr
}
