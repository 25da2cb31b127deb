package model

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/researchaccelerator-hub/page-scraper/common"
)

// Mode selects what a scrape extracts.
type Mode string

const (
	ModePosts    Mode = "posts"
	ModeComments Mode = "comments"
)

// Credentials are used for a single session only and are never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// String redacts the password so credentials never reach a log line.
func (c Credentials) String() string {
	return fmt.Sprintf("{email:%s password:***}", c.Email)
}

// Empty reports whether either field is missing.
func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Email) == "" || c.Password == ""
}

// ScrapeRequest describes one scrape.
type ScrapeRequest struct {
	TargetURL   string       `json:"url"`
	Mode        Mode         `json:"mode,omitempty"`
	PostID      string       `json:"postId,omitempty"`
	Limit       int          `json:"limit,omitempty"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

// Normalize fills in the mode and limit defaults. An empty mode is derived
// from the presence of a post id; a zero limit becomes defaultLimit and a
// limit above maxLimit is clamped (maxLimit <= 0 disables clamping).
func (r ScrapeRequest) Normalize(defaultLimit, maxLimit int) ScrapeRequest {
	r.TargetURL = strings.TrimSpace(r.TargetURL)
	r.PostID = strings.TrimSpace(r.PostID)
	if r.Mode == "" {
		if r.PostID != "" {
			r.Mode = ModeComments
		} else {
			r.Mode = ModePosts
		}
	}
	if r.Limit == 0 {
		r.Limit = defaultLimit
	}
	if maxLimit > 0 && r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	return r
}

// Validate checks a normalised request. allowedHosts restricts the target
// host (suffix match); an empty list allows any host.
func (r ScrapeRequest) Validate(allowedHosts []string) error {
	if r.TargetURL == "" {
		return common.InvalidRequest("page URL is required")
	}
	u, err := url.Parse(r.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return common.InvalidRequest(fmt.Sprintf("page URL %q is not an absolute http(s) URL", r.TargetURL))
	}
	if !hostAllowed(u.Hostname(), allowedHosts) {
		return common.InvalidRequest(fmt.Sprintf("host %q is not supported", u.Hostname()))
	}

	switch r.Mode {
	case ModePosts:
	case ModeComments:
		if r.PostID == "" {
			return common.InvalidRequest("postId is required when scraping comments")
		}
	default:
		return common.InvalidRequest(fmt.Sprintf("unknown mode %q", r.Mode))
	}

	if r.Limit < 0 {
		return common.InvalidRequest("limit must be a positive integer")
	}
	if r.Credentials != nil && r.Credentials.Empty() {
		return common.InvalidRequest("credentials require both email and password")
	}
	return nil
}

func hostAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimPrefix(a, "."))
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}
