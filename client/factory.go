package client

import (
	"fmt"

	"github.com/researchaccelerator-hub/page-scraper/config"
)

// NewActorClient creates the ActorClient for the configured backend
func NewActorClient(cfg config.Config) (ActorClient, error) {
	switch cfg.Backend {
	case config.BackendApify:
		return NewApifyClient(cfg.Apify)
	default:
		return nil, fmt.Errorf("backend %s has no actor client", cfg.Backend)
	}
}
