package common

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`\d[\d,]*`)

// LastPathSegment returns the last non-empty path segment of rawURL with any
// query or fragment removed. It returns "" when rawURL has no path.
//
//	LastPathSegment("https://www.facebook.com/page/posts/12345?ref=x") == "12345"
func LastPathSegment(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	} else if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// FirstNumber extracts the first run of digits in s, ignoring thousands
// separators. It returns 0 when s has no digits or the value overflows.
func FirstNumber(s string) int {
	m := digitRun.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NonNegative clamps n to zero.
func NonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
