package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastPathSegment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "post url", in: "https://www.facebook.com/acme/posts/12345", want: "12345"},
		{name: "trailing slash", in: "https://www.facebook.com/acme/posts/12345/", want: "12345"},
		{name: "query and fragment dropped", in: "https://www.facebook.com/profile/jane.doe?ref=comment#top", want: "jane.doe"},
		{name: "relative path", in: "/acme/videos/987", want: "987"},
		{name: "host only", in: "https://www.facebook.com", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "whitespace", in: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastPathSegment(tt.in))
		})
	}
}

func TestFirstNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "plain count", in: "Like: 42 people", want: 42},
		{name: "thousands separator", in: "1,234 comments", want: 1234},
		{name: "first run wins", in: "12 shares of 300", want: 12},
		{name: "no digits", in: "Like", want: 0},
		{name: "empty", in: "", want: 0},
		{name: "overflow is zero", in: "99999999999999999999999 likes", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstNumber(tt.in))
		})
	}
}

func TestNonNegative(t *testing.T) {
	assert.Equal(t, 0, NonNegative(-5))
	assert.Equal(t, 0, NonNegative(0))
	assert.Equal(t, 7, NonNegative(7))
}
