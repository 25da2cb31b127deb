// Package extract maps a rendered page to typed records. Markup knowledge
// lives in the FieldStrategy tables; missing fields fall back to defaults and
// never fail a record.
package extract

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/model"
	"github.com/rs/zerolog/log"
)

// Options controls a single extraction.
type Options struct {
	Mode model.Mode
	// Limit truncates the output; zero or negative means no limit.
	Limit int
	// PostID is stamped on every comment.
	PostID string
	// PageURL resolves relative links.
	PageURL string
	// ScrapedAt seeds identifiers of records without a natural key.
	ScrapedAt time.Time
}

// Extractor turns a rendered document into posts or comments.
type Extractor struct {
	ContainerSelector string
	Posts             PostFields
	Comments          CommentFields
}

// NewExtractor creates an Extractor using the default field tables.
func NewExtractor(cfg config.ExtractConfig) *Extractor {
	return &Extractor{
		ContainerSelector: cfg.ContainerSelector,
		Posts:             DefaultPostFields(),
		Comments:          DefaultCommentFields(),
	}
}

// Extract parses document and returns records in document order. The only
// error is an ExtractionError for a document that cannot be parsed.
func (e *Extractor) Extract(document string, opts Options) ([]model.Record, error) {
	if strings.TrimSpace(document) == "" {
		return nil, common.ExtractionError("rendered document is empty", nil)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, common.ExtractionError("failed to parse rendered document", err)
	}
	return e.ExtractDocument(doc, opts), nil
}

// ExtractDocument extracts records from an already parsed document.
func (e *Extractor) ExtractDocument(doc *goquery.Document, opts Options) []model.Record {
	containers := doc.Find(e.ContainerSelector)
	base, _ := url.Parse(opts.PageURL)
	ids := NewIDSet(opts.ScrapedAt)

	records := []model.Record{}
	containers.EachWithBreak(func(i int, container *goquery.Selection) bool {
		if opts.Limit > 0 && len(records) >= opts.Limit {
			return false
		}
		switch opts.Mode {
		case model.ModeComments:
			// Container 0 is the post itself.
			if i == 0 {
				return true
			}
			records = append(records, e.comment(container, i, opts.PostID, base, ids))
		default:
			records = append(records, e.post(container, i, base, ids))
		}
		return true
	})

	log.Debug().
		Str("mode", string(opts.Mode)).
		Int("containers", containers.Length()).
		Int("records", len(records)).
		Msg("Extracted records")
	return records
}

func (e *Extractor) post(container *goquery.Selection, position int, base *url.URL, ids *IDSet) model.Post {
	source := resolve(base, e.Posts.SourceURL.Resolve(container))
	candidate := e.Posts.ID.Resolve(container)
	if candidate == "" {
		candidate = common.LastPathSegment(source)
	}
	return model.Post{
		ID:           ids.Assign(candidate, source, position),
		Content:      e.Posts.Content.Resolve(container),
		Date:         e.Posts.Date.Resolve(container),
		SourceURL:    source,
		Likes:        MetricLikes.Count(container),
		CommentCount: MetricComments.Count(container),
		Shares:       MetricShares.Count(container),
	}
}

func (e *Extractor) comment(container *goquery.Selection, position int, postID string, base *url.URL, ids *IDSet) model.Comment {
	source := resolve(base, e.Comments.SourceURL.Resolve(container))
	candidate := e.Comments.ID.Resolve(container)
	if candidate == "" {
		candidate = common.LastPathSegment(source)
	}
	author := e.Comments.Author.Resolve(container)
	if author == "" {
		author = model.UnknownAuthor
	}
	return model.Comment{
		ID:       ids.Assign(candidate, source, position),
		PostID:   postID,
		Author:   author,
		AuthorID: e.Comments.AuthorID.Resolve(container),
		Content:  e.Comments.Content.Resolve(container),
		Date:     e.Comments.Date.Resolve(container),
		Likes:    MetricLikes.Count(container),
	}
}

func resolve(base *url.URL, href string) string {
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
