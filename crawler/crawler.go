// Package crawler defines the contract shared by every scraping backend and
// the factory that selects one by name.
package crawler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/model"
)

// BackendType names a scraping backend
type BackendType string

const (
	// BackendBrowser drives a local headless browser
	BackendBrowser BackendType = config.BackendBrowser
	// BackendApify delegates to the Apify actor API
	BackendApify BackendType = config.BackendApify
)

// Scraper executes a single scrape request. Callers are unaffected by which
// backend runs the scrape: every implementation returns the same envelope
// and error kinds.
type Scraper interface {
	// Initialize prepares the scraper with the process configuration
	Initialize(ctx context.Context, cfg config.Config) error

	// ValidateRequest checks a normalised request before any work starts
	ValidateRequest(req model.ScrapeRequest) error

	// Scrape runs the request. On failure the returned error carries a
	// common.ErrorKind and the result is the failure envelope.
	Scrape(ctx context.Context, req model.ScrapeRequest) (model.ScrapeResult, error)

	// Backend returns the backend type
	Backend() BackendType

	// Close releases any resources held by the scraper
	Close() error
}

// ScraperFactory creates scrapers by backend type
type ScraperFactory interface {
	GetScraper(backend BackendType) (Scraper, error)
}

// DefaultScraperFactory is a registry of scraper constructors
type DefaultScraperFactory struct {
	mu       sync.RWMutex
	creators map[BackendType]func() Scraper
}

// NewScraperFactory creates an empty factory
func NewScraperFactory() *DefaultScraperFactory {
	return &DefaultScraperFactory{
		creators: make(map[BackendType]func() Scraper),
	}
}

// RegisterScraper adds a constructor for backend
func (f *DefaultScraperFactory) RegisterScraper(backend BackendType, creator func() Scraper) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.creators[backend]; exists {
		return fmt.Errorf("scraper for backend %s already registered", backend)
	}
	f.creators[backend] = creator
	return nil
}

// GetScraper returns a new, uninitialised scraper for backend
func (f *DefaultScraperFactory) GetScraper(backend BackendType) (Scraper, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	creator, exists := f.creators[backend]
	if !exists {
		return nil, fmt.Errorf("no scraper registered for backend %s", backend)
	}
	return creator(), nil
}

// Backends lists the registered backend types in sorted order
func (f *DefaultScraperFactory) Backends() []BackendType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	backends := make([]BackendType, 0, len(f.creators))
	for b := range f.creators {
		backends = append(backends, b)
	}
	sort.Slice(backends, func(i, j int) bool { return backends[i] < backends[j] })
	return backends
}
