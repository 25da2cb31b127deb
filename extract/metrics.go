package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/researchaccelerator-hub/page-scraper/common"
)

// Metric names an engagement counter and the label keywords that identify it.
type Metric struct {
	Name     string
	Keywords []string
}

var (
	MetricLikes    = Metric{Name: "likes", Keywords: []string{"like", "reaction"}}
	MetricComments = Metric{Name: "comments", Keywords: []string{"comment"}}
	MetricShares   = Metric{Name: "shares", Keywords: []string{"share"}}
)

// Count scans the aria-labelled controls inside container and returns the
// first digit run of the first label that mentions the metric and carries a
// number. Labels without digits are skipped; the result defaults to 0.
func (m Metric) Count(container *goquery.Selection) int {
	n := 0
	container.Find("[aria-label]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		label := strings.ToLower(el.AttrOr("aria-label", ""))
		if !m.matches(label) {
			return true
		}
		if v := common.FirstNumber(label); v > 0 {
			n = v
			return false
		}
		return true
	})
	return common.NonNegative(n)
}

func (m Metric) matches(label string) bool {
	for _, kw := range m.Keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}
