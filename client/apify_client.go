// Package client talks to the hosted scraping API used by the delegated
// backend.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const runSyncPath = "/acts/{actor}/run-sync-get-dataset-items"

// maxErrorBody bounds the upstream body quoted in an UpstreamError
const maxErrorBody = 512

// ApifyClient runs Apify actors synchronously
type ApifyClient struct {
	http          *resty.Client
	postsActor    string
	commentsActor string
}

var _ ActorClient = (*ApifyClient)(nil)

// NewApifyClient creates a client from cfg
func NewApifyClient(cfg config.ApifyConfig) (*ApifyClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("apify token is not configured")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("apify base URL is not configured")
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	httpClient.SetAuthToken(cfg.Token)
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	return &ApifyClient{
		http:          httpClient,
		postsActor:    cfg.PostsActor,
		commentsActor: cfg.CommentsActor,
	}, nil
}

// FetchPosts runs the pages scraper without comments
func (c *ApifyClient) FetchPosts(ctx context.Context, pageURL string, limit int, maxPostDate time.Time) ([]PostItem, error) {
	input := PostsInput{
		StartURLs:        []StartURL{{URL: pageURL}},
		MaxPosts:         limit,
		CommentsMode:     "NONE",
		MaxPostDate:      maxPostDate.UTC().Format(time.RFC3339),
		MaxComments:      0,
		MaxCommentsDepth: 0,
	}
	var items []PostItem
	if err := c.runSync(ctx, c.postsActor, input, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchComments runs the comment scraper without replies
func (c *ApifyClient) FetchComments(ctx context.Context, postURL string, limit int) ([]CommentItem, error) {
	input := CommentsInput{
		StartURLs:   []StartURL{{URL: postURL}},
		MaxComments: limit,
		MaxReplies:  0,
	}
	var items []CommentItem
	if err := c.runSync(ctx, c.commentsActor, input, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *ApifyClient) runSync(ctx context.Context, actor string, input, out interface{}) error {
	start := time.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("actor", actor).
		SetBody(input).
		SetResult(out).
		Post(runSyncPath)
	if err != nil {
		if ctx.Err() != nil {
			return common.AsScrapeError(ctx.Err(), common.KindUpstream, "apify request interrupted")
		}
		return common.UpstreamError("apify request failed", err)
	}

	log.Debug().
		Str("actor", actor).
		Int("status", res.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("Apify actor run finished")

	if res.IsError() || res.StatusCode() < 200 || res.StatusCode() >= 300 {
		body := strings.TrimSpace(res.String())
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return common.UpstreamError(fmt.Sprintf("Apify API error: %d %s", res.StatusCode(), body), nil)
	}
	return nil
}
