package model

// Record is one extracted item, either a Post or a Comment.
type Record interface {
	RecordID() string
	// Columns returns the record's fields in their serialised order.
	Columns() []Column
}

// Column is a single named value of a record, used by the exporters.
type Column struct {
	Key   string
	Value interface{}
}

// Post is a single post extracted from a page.
type Post struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	Date         string `json:"date"`
	SourceURL    string `json:"sourceUrl,omitempty"`
	Likes        int    `json:"likes"`
	CommentCount int    `json:"comments"`
	Shares       int    `json:"shares"`
}

func (p Post) RecordID() string { return p.ID }

func (p Post) Columns() []Column {
	return []Column{
		{Key: "id", Value: p.ID},
		{Key: "content", Value: p.Content},
		{Key: "date", Value: p.Date},
		{Key: "sourceUrl", Value: p.SourceURL},
		{Key: "likes", Value: p.Likes},
		{Key: "comments", Value: p.CommentCount},
		{Key: "shares", Value: p.Shares},
	}
}

// Comment is a single comment extracted from a post. PostID always refers to
// the post that was the scrape target.
type Comment struct {
	ID       string `json:"id"`
	PostID   string `json:"postId"`
	Author   string `json:"author"`
	AuthorID string `json:"authorId,omitempty"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	Likes    int    `json:"likes"`
}

// UnknownAuthor is used when a comment's author cannot be resolved.
const UnknownAuthor = "Unknown"

func (c Comment) RecordID() string { return c.ID }

func (c Comment) Columns() []Column {
	return []Column{
		{Key: "id", Value: c.ID},
		{Key: "postId", Value: c.PostID},
		{Key: "author", Value: c.Author},
		{Key: "authorId", Value: c.AuthorID},
		{Key: "content", Value: c.Content},
		{Key: "date", Value: c.Date},
		{Key: "likes", Value: c.Likes},
	}
}
