package extract

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/researchaccelerator-hub/page-scraper/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scrapedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestExtractor() *Extractor {
	return NewExtractor(config.Default().Extract)
}

func page(containers ...string) string {
	return "<html><body><div role=\"feed\">" + strings.Join(containers, "\n") + "</div></body></html>"
}

func TestExtractPostsInDocumentOrder(t *testing.T) {
	doc := page(
		`<div role="article"><div dir="auto">first</div></div>`,
		`<div role="article"><div dir="auto">second</div></div>`,
		`<div role="article"><div dir="auto">third</div></div>`,
	)

	records, err := newTestExtractor().Extract(doc, Options{
		Mode:      model.ModePosts,
		Limit:     2,
		PageURL:   "https://example.com/page",
		ScrapedAt: scrapedAt,
	})

	require.NoError(t, err)
	require.Len(t, records, 2)

	first, ok := records[0].(model.Post)
	require.True(t, ok)
	second := records[1].(model.Post)
	assert.Equal(t, "first", first.Content)
	assert.Equal(t, "second", second.Content)

	for _, r := range records {
		p := r.(model.Post)
		assert.Zero(t, p.Likes)
		assert.Zero(t, p.CommentCount)
		assert.Zero(t, p.Shares)
		assert.NotEmpty(t, p.ID)
	}
	assert.NotEqual(t, first.ID, second.ID)
}

func TestExtractPostFields(t *testing.T) {
	doc := page(`<div role="article">
		<a href="/acme/posts/98765?__cft__=x"><span>2 hrs</span></a>
		<div data-ad-preview="message">  Hello
			world </div>
		<div aria-label="Like"></div>
		<div aria-label="1,234 reactions"></div>
		<div aria-label="Leave a comment"></div>
		<span aria-label="56 comments"></span>
		<span aria-label="7 shares"></span>
	</div>`)

	records, err := newTestExtractor().Extract(doc, Options{
		Mode:    model.ModePosts,
		PageURL: "https://www.facebook.com/acme",
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	p := records[0].(model.Post)
	assert.Equal(t, "98765", p.ID)
	assert.Equal(t, "https://www.facebook.com/acme/posts/98765?__cft__=x", p.SourceURL)
	assert.Equal(t, "Hello world", p.Content)
	assert.Equal(t, "2 hrs", p.Date)
	assert.Equal(t, 1234, p.Likes)
	assert.Equal(t, 56, p.CommentCount)
	assert.Equal(t, 7, p.Shares)
}

func TestExtractCommentsSkipsPostContainer(t *testing.T) {
	containers := []string{`<div role="article"><div dir="auto">the post</div></div>`}
	for i := 1; i <= 4; i++ {
		containers = append(containers, fmt.Sprintf(
			`<div role="article"><a role="link" href="/user%d"><span dir="auto">User %d</span></a><div dir="auto">comment %d</div></div>`,
			i, i, i))
	}

	records, err := newTestExtractor().Extract(page(containers...), Options{
		Mode:      model.ModeComments,
		PostID:    "98765",
		PageURL:   "https://www.facebook.com/acme/posts/98765",
		ScrapedAt: scrapedAt,
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, len(records), len(containers)-1)
	require.Len(t, records, 4)
	for i, r := range records {
		c := r.(model.Comment)
		assert.Equal(t, "98765", c.PostID)
		assert.Equal(t, fmt.Sprintf("User %d", i+1), c.Author)
		assert.Equal(t, fmt.Sprintf("user%d", i+1), c.AuthorID)
		assert.NotEqual(t, "the post", c.Content)
	}
}

func TestExtractCommentFallbacks(t *testing.T) {
	doc := page(
		`<div role="article">post</div>`,
		`<div role="article" data-comment-id="c-1"><div dir="auto">anonymous</div><div aria-label="Like"></div></div>`,
		`<div role="article"><a href="https://www.facebook.com/acme/posts/1?comment_id=555">3d</a><div aria-label="12 reactions"></div></div>`,
	)

	records, err := newTestExtractor().Extract(doc, Options{Mode: model.ModeComments, PostID: "1"})

	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0].(model.Comment)
	assert.Equal(t, "c-1", first.ID)
	assert.Equal(t, model.UnknownAuthor, first.Author)
	assert.Empty(t, first.AuthorID)
	assert.Zero(t, first.Likes)

	second := records[1].(model.Comment)
	assert.Equal(t, "555", second.ID)
	assert.Equal(t, "3d", second.Date)
	assert.Equal(t, 12, second.Likes)
}

func TestExtractIDsAreUnique(t *testing.T) {
	tests := []struct {
		name       string
		containers []string
	}{
		{
			name: "colliding source urls",
			containers: []string{
				`<div role="article"><a href="https://example.com/page/posts/1">a</a></div>`,
				`<div role="article"><a href="https://example.com/page/posts/1">b</a></div>`,
				`<div role="article"><a href="https://example.com/other/posts/1">c</a></div>`,
			},
		},
		{
			name: "absent source urls",
			containers: []string{
				`<div role="article">a</div>`,
				`<div role="article">b</div>`,
				`<div role="article">c</div>`,
			},
		},
		{
			name: "duplicate id attributes",
			containers: []string{
				`<div role="article" data-post-id="x">a</div>`,
				`<div role="article" data-post-id="x">b</div>`,
				`<div role="article">c</div>`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := newTestExtractor().Extract(page(tt.containers...), Options{
				Mode:      model.ModePosts,
				ScrapedAt: scrapedAt,
			})
			require.NoError(t, err)
			require.Len(t, records, len(tt.containers))

			seen := map[string]bool{}
			for _, r := range records {
				assert.NotEmpty(t, r.RecordID())
				assert.False(t, seen[r.RecordID()], "duplicate id %s", r.RecordID())
				seen[r.RecordID()] = true
			}
		})
	}
}

func TestExtractIDsAreDeterministic(t *testing.T) {
	doc := page(`<div role="article">a</div>`, `<div role="article">b</div>`)
	opts := Options{Mode: model.ModePosts, ScrapedAt: scrapedAt}

	first, err := newTestExtractor().Extract(doc, opts)
	require.NoError(t, err)
	second, err := newTestExtractor().Extract(doc, opts)
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].RecordID(), second[i].RecordID())
	}
}

func TestExtractNoContainers(t *testing.T) {
	records, err := newTestExtractor().Extract("<html><body><p>nothing here</p></body></html>", Options{Mode: model.ModePosts})

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestExtractEmptyDocument(t *testing.T) {
	_, err := newTestExtractor().Extract("   ", Options{Mode: model.ModePosts})

	kind, ok := common.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, common.KindExtraction, kind)
}
