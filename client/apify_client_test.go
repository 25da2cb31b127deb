package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/researchaccelerator-hub/page-scraper/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *ApifyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default().Apify
	cfg.Token = "test-token"
	cfg.BaseURL = srv.URL
	cfg.RequestsPerSecond = 100

	c, err := NewApifyClient(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchPosts(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/acts/apify~facebook-pages-scraper/run-sync-get-dataset-items", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"postId": "1", "postUrl": "https://www.facebook.com/acme/posts/1", "text": "hi", "time": "2024-05-01", "likes": 5, "comments": "1,204", "shares": null},
			{"postUrl": "https://www.facebook.com/acme/posts/2", "likes": -3}
		]`))
	})

	maxDate := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	items, err := c.FetchPosts(context.Background(), "https://www.facebook.com/acme", 7, maxDate)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].PostID)
	assert.Equal(t, 5, items[0].Likes.Int())
	assert.Equal(t, 1204, items[0].Comments.Int())
	assert.Zero(t, items[0].Shares.Int())
	assert.Zero(t, items[1].Likes.Int())

	assert.Equal(t, []interface{}{map[string]interface{}{"url": "https://www.facebook.com/acme"}}, got["startUrls"])
	assert.EqualValues(t, 7, got["maxPosts"])
	assert.Equal(t, "NONE", got["commentsMode"])
	assert.Equal(t, "2024-05-02T10:00:00Z", got["maxPostDate"])
	assert.EqualValues(t, 0, got["maxComments"])
	assert.EqualValues(t, 0, got["maxCommentsDepth"])
}

func TestFetchComments(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acts/apify~facebook-comment-scraper/run-sync-get-dataset-items", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, []map[string]interface{}{
			{"commentId": "c1", "name": "Jane", "profileUrl": "https://www.facebook.com/jane.doe", "text": "nice", "likes": 2},
		})
	})

	items, err := c.FetchComments(context.Background(), "https://www.facebook.com/acme/posts/1", 25)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c1", items[0].CommentID)
	assert.Equal(t, "Jane", items[0].Name)
	assert.EqualValues(t, 25, got["maxComments"])
	assert.EqualValues(t, 0, got["maxReplies"])
}

func TestUpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorised", status: http.StatusUnauthorized, body: `{"error":{"type":"token-not-valid"}}`},
		{name: "actor failure", status: http.StatusBadRequest, body: `run failed`},
		{name: "server error", status: http.StatusBadGateway, body: `upstream down`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.FetchPosts(context.Background(), "https://www.facebook.com/acme", 1, time.Now())

			require.Error(t, err)
			kind, ok := common.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, common.KindUpstream, kind)
			assert.Contains(t, err.Error(), fmt.Sprintf("Apify API error: %d %s", tt.status, tt.body))
		})
	}
}

func TestNewApifyClientRequiresToken(t *testing.T) {
	_, err := NewApifyClient(config.Default().Apify)
	assert.Error(t, err)
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: `12`, want: 12},
		{in: `12.7`, want: 12},
		{in: `"3,400"`, want: 3400},
		{in: `"many"`, want: 0},
		{in: `null`, want: 0},
		{in: `-4`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var f FlexInt
			require.NoError(t, json.Unmarshal([]byte(tt.in), &f))
			assert.Equal(t, tt.want, f.Int())
		})
	}
}
