// Package apify implements the delegated backend: scrapes run on the Apify
// actor platform and their dataset items are mapped to records.
package apify

import (
	"context"
	"fmt"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/client"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/crawler"
	"github.com/researchaccelerator-hub/page-scraper/extract"
	"github.com/researchaccelerator-hub/page-scraper/model"
)

// ApifyScraper implements crawler.Scraper on top of an ActorClient
type ApifyScraper struct {
	cfg         config.Config
	client      client.ActorClient
	now         func() time.Time
	initialized bool
}

var _ crawler.Scraper = (*ApifyScraper)(nil)

// NewApifyScraper creates an uninitialised scraper
func NewApifyScraper() *ApifyScraper {
	return &ApifyScraper{now: time.Now}
}

// NewWithClient creates a scraper that uses c instead of building its own
func NewWithClient(cfg config.Config, c client.ActorClient) *ApifyScraper {
	return &ApifyScraper{cfg: cfg, client: c, now: time.Now, initialized: true}
}

// Initialize builds the Apify client from cfg
func (s *ApifyScraper) Initialize(ctx context.Context, cfg config.Config) error {
	if s.initialized {
		return nil
	}
	c, err := client.NewActorClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create apify client: %w", err)
	}
	s.cfg = cfg
	s.client = c
	s.initialized = true
	return nil
}

// Backend returns the backend type
func (s *ApifyScraper) Backend() crawler.BackendType {
	return crawler.BackendApify
}

// ValidateRequest checks a normalised request
func (s *ApifyScraper) ValidateRequest(req model.ScrapeRequest) error {
	if err := req.Validate(s.cfg.Scrape.AllowedHosts); err != nil {
		return err
	}
	if req.Credentials != nil {
		return common.InvalidRequest("credentials are not supported by the apify backend")
	}
	return nil
}

// Close is a no-op
func (s *ApifyScraper) Close() error {
	return nil
}

// Scrape runs the posts or comments actor for req
func (s *ApifyScraper) Scrape(ctx context.Context, req model.ScrapeRequest) (model.ScrapeResult, error) {
	if !s.initialized {
		se := common.UpstreamError("apify scraper is not initialised", nil)
		return model.Failed(se), se
	}

	req = req.Normalize(s.cfg.Scrape.DefaultLimit, s.cfg.Scrape.MaxLimit)
	logger := common.Logger(ctx).With().
		Str("backend", string(crawler.BackendApify)).
		Str("target_url", req.TargetURL).
		Str("mode", string(req.Mode)).
		Logger()

	if err := s.ValidateRequest(req); err != nil {
		se := common.AsScrapeError(err, common.KindInvalidRequest, "invalid request")
		return model.Failed(se), se
	}

	if s.cfg.Apify.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Apify.Timeout)
		defer cancel()
	}

	var (
		records []model.Record
		err     error
	)
	switch req.Mode {
	case model.ModeComments:
		records, err = s.comments(ctx, req)
	default:
		records, err = s.posts(ctx, req)
	}
	if err != nil {
		se := common.AsScrapeError(err, common.KindUpstream, "apify scrape failed")
		logger.Error().Err(se).Str("kind", string(se.Kind)).Msg("Apify scrape failed")
		return model.Failed(se), se
	}

	logger.Info().Int("count", len(records)).Msg("Apify scrape completed")
	return model.Succeeded(records, req), nil
}

func (s *ApifyScraper) posts(ctx context.Context, req model.ScrapeRequest) ([]model.Record, error) {
	scrapedAt := s.now()
	items, err := s.client.FetchPosts(ctx, req.TargetURL, req.Limit, scrapedAt)
	if err != nil {
		return nil, err
	}

	ids := extract.NewIDSet(scrapedAt)
	records := make([]model.Record, 0, len(items))
	for i, item := range items {
		if len(records) >= req.Limit {
			break
		}
		records = append(records, PostFromItem(item, ids, i))
	}
	return records, nil
}

func (s *ApifyScraper) comments(ctx context.Context, req model.ScrapeRequest) ([]model.Record, error) {
	items, err := s.client.FetchComments(ctx, req.TargetURL, req.Limit)
	if err != nil {
		return nil, err
	}

	ids := extract.NewIDSet(s.now())
	records := make([]model.Record, 0, len(items))
	for i, item := range items {
		if len(records) >= req.Limit {
			break
		}
		records = append(records, CommentFromItem(item, req.PostID, ids, i))
	}
	return records, nil
}

// PostFromItem maps a pages scraper item to a Post
func PostFromItem(item client.PostItem, ids *extract.IDSet, position int) model.Post {
	candidate := item.PostID
	if candidate == "" {
		candidate = common.LastPathSegment(item.PostURL)
	}
	return model.Post{
		ID:           ids.Assign(candidate, item.PostURL, position),
		Content:      item.Text,
		Date:         item.Time,
		SourceURL:    item.PostURL,
		Likes:        item.Likes.Int(),
		CommentCount: item.Comments.Int(),
		Shares:       item.Shares.Int(),
	}
}

// CommentFromItem maps a comment scraper item to a Comment of postID
func CommentFromItem(item client.CommentItem, postID string, ids *extract.IDSet, position int) model.Comment {
	candidate := item.CommentID
	if candidate == "" {
		candidate = common.LastPathSegment(item.CommentURL)
	}
	author := item.Name
	if author == "" {
		author = model.UnknownAuthor
	}
	return model.Comment{
		ID:       ids.Assign(candidate, item.CommentURL, position),
		PostID:   postID,
		Author:   author,
		AuthorID: common.LastPathSegment(item.ProfileURL),
		Content:  item.Text,
		Date:     item.Time,
		Likes:    item.Likes.Int(),
	}
}
