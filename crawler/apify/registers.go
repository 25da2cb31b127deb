package apify

import (
	"github.com/researchaccelerator-hub/page-scraper/crawler"
)

// RegisterApifyScraper registers the delegated backend with the factory
func RegisterApifyScraper(factory *crawler.DefaultScraperFactory) error {
	return factory.RegisterScraper(crawler.BackendApify, func() crawler.Scraper {
		return NewApifyScraper()
	})
}
