package orchestrator

import (
	"github.com/researchaccelerator-hub/page-scraper/crawler"
)

// RegisterBrowserScraper registers the browser-backed scraper with the factory
func RegisterBrowserScraper(factory *crawler.DefaultScraperFactory) error {
	return factory.RegisterScraper(crawler.BackendBrowser, func() crawler.Scraper {
		return NewOrchestrator()
	})
}
