package model

import "github.com/researchaccelerator-hub/page-scraper/common"

// ScrapeResult is the envelope returned by every scraping backend.
type ScrapeResult struct {
	Success bool                `json:"success"`
	Records []Record            `json:"data"`
	Count   int                 `json:"count"`
	PageURL string              `json:"pageUrl,omitempty"`
	PostURL string              `json:"postUrl,omitempty"`
	Err     *common.ScrapeError `json:"-"`
}

// Succeeded builds a successful envelope. Records is never nil and Count
// always equals len(Records).
func Succeeded(records []Record, req ScrapeRequest) ScrapeResult {
	if records == nil {
		records = []Record{}
	}
	res := ScrapeResult{
		Success: true,
		Records: records,
		Count:   len(records),
	}
	if req.Mode == ModeComments {
		res.PostURL = req.TargetURL
	} else {
		res.PageURL = req.TargetURL
	}
	return res
}

// Failed builds a failed envelope carrying err.
func Failed(err *common.ScrapeError) ScrapeResult {
	return ScrapeResult{
		Success: false,
		Records: []Record{},
		Err:     err,
	}
}
