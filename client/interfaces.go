package client

import (
	"context"
	"time"
)

// ActorClient runs hosted scraping actors and returns their dataset items
type ActorClient interface {
	// FetchPosts runs the posts actor against a page URL
	FetchPosts(ctx context.Context, pageURL string, limit int, maxPostDate time.Time) ([]PostItem, error)

	// FetchComments runs the comments actor against a post URL
	FetchComments(ctx context.Context, postURL string, limit int) ([]CommentItem, error)
}
