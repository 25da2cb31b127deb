package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func container(t *testing.T, inner string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div id="c">` + inner + `</div>`))
	require.NoError(t, err)
	return doc.Find("#c")
}

func TestMetricCount(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		inner  string
		want   int
	}{
		{name: "no labels", metric: MetricLikes, inner: `<span>12 likes</span>`, want: 0},
		{name: "label without digits", metric: MetricLikes, inner: `<div aria-label="Like"></div>`, want: 0},
		{name: "thousands separator", metric: MetricLikes, inner: `<div aria-label="Like: 12,345 people"></div>`, want: 12345},
		{name: "reaction keyword", metric: MetricLikes, inner: `<div aria-label="See who reacted: 8 reactions"></div>`, want: 8},
		{name: "keyword is case insensitive", metric: MetricShares, inner: `<div aria-label="3 Shares"></div>`, want: 3},
		{name: "skips unrelated labels", metric: MetricComments, inner: `<div aria-label="40 reactions"></div><div aria-label="9 comments"></div>`, want: 9},
		{name: "malformed number", metric: MetricComments, inner: `<div aria-label="comments: many"></div>`, want: 0},
		{name: "negative text", metric: MetricShares, inner: `<div aria-label="-5 shares"></div>`, want: 5},
		{name: "overflow", metric: MetricLikes, inner: `<div aria-label="99999999999999999999999 likes"></div>`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.metric.Count(container(t, tt.inner))
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestFieldStrategyFallsThrough(t *testing.T) {
	c := container(t, `<a class="empty" href=""></a><a class="full" href="https://example.com/a/b/42">x</a>`)

	fs := FieldStrategy{
		{Selector: ".missing", Extract: Text},
		{Selector: "a.empty", Extract: Attr("href")},
		{Selector: "a.full", Extract: LastPathSegment("href")},
	}

	assert.Equal(t, "42", fs.Resolve(c))
	assert.Empty(t, FieldStrategy{}.Resolve(c))
}

func TestQueryParam(t *testing.T) {
	c := container(t, `<a href="https://www.facebook.com/profile.php?id=100042&amp;ref=x">p</a>`)

	assert.Equal(t, "100042", QueryParam("href", "id")(c.Find("a")))
	assert.Empty(t, QueryParam("href", "missing")(c.Find("a")))
}
