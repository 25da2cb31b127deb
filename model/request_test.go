package model

import (
	"testing"

	"github.com/researchaccelerator-hub/page-scraper/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeRequestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		req       ScrapeRequest
		wantMode  Mode
		wantLimit int
	}{
		{
			name:      "posts by default",
			req:       ScrapeRequest{TargetURL: " https://example.com/page "},
			wantMode:  ModePosts,
			wantLimit: 10,
		},
		{
			name:      "post id implies comments",
			req:       ScrapeRequest{TargetURL: "https://example.com/page/posts/1", PostID: "1", Limit: 5},
			wantMode:  ModeComments,
			wantLimit: 5,
		},
		{
			name:      "explicit mode is kept",
			req:       ScrapeRequest{TargetURL: "https://example.com/page", Mode: ModeComments},
			wantMode:  ModeComments,
			wantLimit: 10,
		},
		{
			name:      "limit clamped",
			req:       ScrapeRequest{TargetURL: "https://example.com/page", Limit: 5000},
			wantMode:  ModePosts,
			wantLimit: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.req.Normalize(10, 100)
			assert.Equal(t, tt.wantMode, got.Mode)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.NotContains(t, got.TargetURL, " ")
		})
	}
}

func TestScrapeRequestValidate(t *testing.T) {
	tests := []struct {
		name         string
		req          ScrapeRequest
		allowedHosts []string
		expectError  bool
	}{
		{name: "valid posts", req: ScrapeRequest{TargetURL: "https://example.com/page", Mode: ModePosts, Limit: 2}},
		{name: "missing url", req: ScrapeRequest{Mode: ModePosts, Limit: 2}, expectError: true},
		{name: "relative url", req: ScrapeRequest{TargetURL: "/page", Mode: ModePosts, Limit: 2}, expectError: true},
		{name: "ftp url", req: ScrapeRequest{TargetURL: "ftp://example.com/page", Mode: ModePosts, Limit: 2}, expectError: true},
		{name: "comments without post id", req: ScrapeRequest{TargetURL: "https://example.com/page", Mode: ModeComments, Limit: 2}, expectError: true},
		{name: "comments with post id", req: ScrapeRequest{TargetURL: "https://example.com/page", Mode: ModeComments, PostID: "9", Limit: 2}},
		{name: "negative limit", req: ScrapeRequest{TargetURL: "https://example.com/page", Mode: ModePosts, Limit: -1}, expectError: true},
		{name: "unknown mode", req: ScrapeRequest{TargetURL: "https://example.com/page", Mode: "videos", Limit: 1}, expectError: true},
		{
			name:        "half credentials",
			req:         ScrapeRequest{TargetURL: "https://example.com/page", Mode: ModePosts, Limit: 1, Credentials: &Credentials{Email: "a@b.c"}},
			expectError: true,
		},
		{
			name:         "allowed subdomain",
			req:          ScrapeRequest{TargetURL: "https://www.facebook.com/acme", Mode: ModePosts, Limit: 1},
			allowedHosts: []string{"facebook.com", "fb.com"},
		},
		{
			name:         "host not allowed",
			req:          ScrapeRequest{TargetURL: "https://notfacebook.com/acme", Mode: ModePosts, Limit: 1},
			allowedHosts: []string{"facebook.com"},
			expectError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.allowedHosts)
			if !tt.expectError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			kind, ok := common.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, common.KindInvalidRequest, kind)
		})
	}
}

func TestCredentialsStringRedactsPassword(t *testing.T) {
	c := Credentials{Email: "jane@example.com", Password: "hunter2"}
	assert.NotContains(t, c.String(), "hunter2")
	assert.Contains(t, c.String(), "jane@example.com")
}

func TestSucceededEnvelope(t *testing.T) {
	res := Succeeded(nil, ScrapeRequest{TargetURL: "https://example.com/page", Mode: ModePosts})
	require.NotNil(t, res.Records)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, "https://example.com/page", res.PageURL)
	assert.Empty(t, res.PostURL)

	records := []Record{Comment{ID: "c1", PostID: "9"}, Comment{ID: "c2", PostID: "9"}}
	res = Succeeded(records, ScrapeRequest{TargetURL: "https://example.com/p/9", Mode: ModeComments, PostID: "9"})
	assert.Equal(t, len(res.Records), res.Count)
	assert.Equal(t, "https://example.com/p/9", res.PostURL)

	failed := Failed(common.LaunchError("chrome not found", nil))
	assert.False(t, failed.Success)
	assert.NotNil(t, failed.Records)
	assert.Equal(t, common.KindLaunch, failed.Err.Kind)
}
