// Package common provides shared functionality for scraper backends
package common

import (
	"github.com/researchaccelerator-hub/page-scraper/crawler"
	"github.com/researchaccelerator-hub/page-scraper/crawler/apify"
	"github.com/researchaccelerator-hub/page-scraper/orchestrator"
)

// RegisterAllScrapers registers all scraper backends with the factory
func RegisterAllScrapers(factory *crawler.DefaultScraperFactory) error {
	// Register the browser-backed scraper
	if err := orchestrator.RegisterBrowserScraper(factory); err != nil {
		return err
	}

	// Register the delegated Apify scraper
	if err := apify.RegisterApifyScraper(factory); err != nil {
		return err
	}

	return nil
}
