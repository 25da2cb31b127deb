package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/researchaccelerator-hub/page-scraper/common"
)

// ExtractFunc reads a value from a matched element.
type ExtractFunc func(sel *goquery.Selection) string

// FieldRule pairs a selector, evaluated relative to the container, with the
// function that reads the field from the first match. An empty Selector
// targets the container itself.
type FieldRule struct {
	Selector string
	Extract  ExtractFunc
}

// FieldStrategy is an ordered list of rules for one field. The first rule
// that yields a non-empty value wins.
type FieldStrategy []FieldRule

// Resolve evaluates the strategy against container, returning "" when no
// rule matches.
func (fs FieldStrategy) Resolve(container *goquery.Selection) string {
	for _, rule := range fs {
		sel := container
		if rule.Selector != "" {
			sel = container.Find(rule.Selector)
		}
		if sel.Length() == 0 {
			continue
		}
		if v := rule.Extract(sel.First()); v != "" {
			return v
		}
	}
	return ""
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// Text returns the element's text with runs of whitespace collapsed.
func Text(sel *goquery.Selection) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(sel.Text(), " "))
}

// Attr returns the value of the named attribute.
func Attr(name string) ExtractFunc {
	return func(sel *goquery.Selection) string {
		return strings.TrimSpace(sel.AttrOr(name, ""))
	}
}

// LastPathSegment returns the last path segment of the URL held in attr.
func LastPathSegment(attr string) ExtractFunc {
	return func(sel *goquery.Selection) string {
		return common.LastPathSegment(sel.AttrOr(attr, ""))
	}
}

// QueryParam returns the named query parameter of the URL held in attr.
func QueryParam(attr, key string) ExtractFunc {
	return func(sel *goquery.Selection) string {
		u, err := url.Parse(strings.TrimSpace(sel.AttrOr(attr, "")))
		if err != nil {
			return ""
		}
		return u.Query().Get(key)
	}
}

// PostFields holds the strategies used to build a Post.
type PostFields struct {
	ID        FieldStrategy
	SourceURL FieldStrategy
	Content   FieldStrategy
	Date      FieldStrategy
}

// CommentFields holds the strategies used to build a Comment.
type CommentFields struct {
	ID        FieldStrategy
	SourceURL FieldStrategy
	Author    FieldStrategy
	AuthorID  FieldStrategy
	Content   FieldStrategy
	Date      FieldStrategy
}

// DefaultPostFields returns the strategies for the markup of public pages.
func DefaultPostFields() PostFields {
	return PostFields{
		ID: FieldStrategy{
			{Selector: "", Extract: Attr("data-post-id")},
			{Selector: "", Extract: Attr("data-id")},
		},
		SourceURL: FieldStrategy{
			{Selector: `a[href*="/posts/"]`, Extract: Attr("href")},
			{Selector: `a[href*="/permalink/"]`, Extract: Attr("href")},
			{Selector: `a[href*="/videos/"]`, Extract: Attr("href")},
			{Selector: `a[href*="/photos/"]`, Extract: Attr("href")},
		},
		Content: FieldStrategy{
			{Selector: `[data-ad-preview="message"]`, Extract: Text},
			{Selector: `[data-ad-comet-preview="message"]`, Extract: Text},
			{Selector: `div[dir="auto"]`, Extract: Text},
		},
		Date: FieldStrategy{
			{Selector: "abbr[title]", Extract: Attr("title")},
			{Selector: "time[datetime]", Extract: Attr("datetime")},
			{Selector: `a[href*="/posts/"] span`, Extract: Text},
			{Selector: "abbr", Extract: Text},
		},
	}
}

// DefaultCommentFields returns the strategies for the markup of comment
// threads.
func DefaultCommentFields() CommentFields {
	return CommentFields{
		ID: FieldStrategy{
			{Selector: "", Extract: Attr("data-comment-id")},
			{Selector: `a[href*="comment_id="]`, Extract: QueryParam("href", "comment_id")},
		},
		SourceURL: FieldStrategy{
			{Selector: `a[href*="comment_id="]`, Extract: Attr("href")},
		},
		Author: FieldStrategy{
			{Selector: `a[role="link"] span[dir="auto"]`, Extract: Text},
			{Selector: `a[role="link"] strong`, Extract: Text},
			{Selector: "h3", Extract: Text},
			{Selector: "strong", Extract: Text},
		},
		AuthorID: FieldStrategy{
			{Selector: `a[href*="profile.php"]`, Extract: QueryParam("href", "id")},
			{Selector: `a[role="link"][href]:not([href*="comment_id="])`, Extract: LastPathSegment("href")},
		},
		Content: FieldStrategy{
			{Selector: `div[dir="auto"][style]`, Extract: Text},
			{Selector: `div[dir="auto"]`, Extract: Text},
		},
		Date: FieldStrategy{
			{Selector: "abbr[title]", Extract: Attr("title")},
			{Selector: "time[datetime]", Extract: Attr("datetime")},
			{Selector: `a[href*="comment_id="]`, Extract: Text},
		},
	}
}
