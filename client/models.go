package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/researchaccelerator-hub/page-scraper/common"
)

// StartURL is an actor input URL entry
type StartURL struct {
	URL string `json:"url"`
}

// PostsInput is the input of the pages scraper actor
type PostsInput struct {
	StartURLs        []StartURL `json:"startUrls"`
	MaxPosts         int        `json:"maxPosts"`
	CommentsMode     string     `json:"commentsMode"`
	MaxPostDate      string     `json:"maxPostDate"`
	MaxComments      int        `json:"maxComments"`
	MaxCommentsDepth int        `json:"maxCommentsDepth"`
}

// CommentsInput is the input of the comment scraper actor
type CommentsInput struct {
	StartURLs   []StartURL `json:"startUrls"`
	MaxComments int        `json:"maxComments"`
	MaxReplies  int        `json:"maxReplies"`
}

// PostItem is a dataset item produced by the pages scraper actor
type PostItem struct {
	PostID   string  `json:"postId"`
	PostURL  string  `json:"postUrl"`
	Text     string  `json:"text"`
	Time     string  `json:"time"`
	Likes    FlexInt `json:"likes"`
	Comments FlexInt `json:"comments"`
	Shares   FlexInt `json:"shares"`
}

// CommentItem is a dataset item produced by the comment scraper actor
type CommentItem struct {
	CommentID  string  `json:"commentId"`
	CommentURL string  `json:"commentUrl"`
	Name       string  `json:"name"`
	ProfileURL string  `json:"profileUrl"`
	Text       string  `json:"text"`
	Time       string  `json:"time"`
	Likes      FlexInt `json:"likes"`
}

// FlexInt decodes counters that arrive as numbers, numeric strings such as
// "1,234", or null. Anything unparsable decodes to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to decode counter: %w", err)
		}
		*f = FlexInt(common.FirstNumber(s))
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		*f = 0
		return nil
	}
	*f = FlexInt(common.NonNegative(int(n)))
	return nil
}

// Int returns the counter as a non-negative int
func (f FlexInt) Int() int {
	return common.NonNegative(int(f))
}
