// Package standalone runs scrapes from the command line without the HTTP
// server and writes the records as JSON or CSV.
package standalone

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/researchaccelerator-hub/page-scraper/export"
	"github.com/researchaccelerator-hub/page-scraper/model"
	"github.com/rs/zerolog/log"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// BatchRunner runs requests sequentially
type BatchRunner interface {
	RunBatch(ctx context.Context, reqs []model.ScrapeRequest) []model.ScrapeResult
}

// Options describes a standalone run
type Options struct {
	URLs     []string
	URLFile  string
	PostID   string
	Limit    int
	Format   string
	Output   string
	Email    string
	Password string
}

// Validate checks the options that do not depend on the URL file
func (o Options) Validate() error {
	if len(o.URLs) == 0 && o.URLFile == "" {
		return fmt.Errorf("no URLs provided, use --url or --url-file")
	}
	if o.Limit < 0 {
		return fmt.Errorf("--limit must be positive")
	}
	if o.Email != "" && o.Password == "" {
		return fmt.Errorf("--email requires a password")
	}
	switch o.Format {
	case FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("invalid format '%s', must be one of: %s, %s", o.Format, FormatJSON, FormatCSV)
	}
	return nil
}

// Run collects the URLs, scrapes them one by one and writes every record to
// w, or to Output when set. Failed scrapes are reported in the returned error
// after the successful records have been written.
func Run(ctx context.Context, runner BatchRunner, opts Options, w io.Writer) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	urls, err := CollectURLs(opts.URLs, opts.URLFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs provided, use --url or --url-file")
	}
	if opts.PostID != "" && len(urls) > 1 {
		return fmt.Errorf("--post-id applies to a single URL, got %d", len(urls))
	}

	log.Info().Int("url_count", len(urls)).Str("format", opts.Format).Msg("Starting standalone scrape")
	results := runner.RunBatch(ctx, Requests(urls, opts))

	out := w
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return WriteResults(out, results, opts.Format)
}

// CollectURLs merges the URLs given directly with those read from urlFile
func CollectURLs(urlList []string, urlFile string) ([]string, error) {
	var urls []string
	for _, u := range urlList {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	if urlFile != "" {
		fileURLs, err := readURLsFromFile(urlFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read URLs from file: %w", err)
		}
		urls = append(urls, fileURLs...)
	}
	return urls, nil
}

// readURLsFromFile reads one URL per line, skipping blank lines and # comments
func readURLsFromFile(filename string) ([]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	var urls []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}

	return urls, nil
}

// Requests builds one request per URL
func Requests(urls []string, opts Options) []model.ScrapeRequest {
	var creds *model.Credentials
	if opts.Email != "" {
		creds = &model.Credentials{Email: opts.Email, Password: opts.Password}
	}

	reqs := make([]model.ScrapeRequest, 0, len(urls))
	for _, u := range urls {
		reqs = append(reqs, model.ScrapeRequest{
			TargetURL:   u,
			PostID:      opts.PostID,
			Limit:       opts.Limit,
			Credentials: creds,
		})
	}
	return reqs
}

// WriteResults writes the records of every successful result and returns an
// error naming the failed ones.
func WriteResults(w io.Writer, results []model.ScrapeResult, format string) error {
	var (
		records []model.Record
		failed  []string
	)
	for i, res := range results {
		if !res.Success {
			msg := "unknown error"
			if res.Err != nil {
				msg = res.Err.Error()
			}
			failed = append(failed, fmt.Sprintf("#%d: %s", i+1, msg))
			continue
		}
		records = append(records, res.Records...)
	}

	switch format {
	case FormatCSV:
		if s := export.CSV(records); s != "" {
			if _, err := fmt.Fprintln(w, s); err != nil {
				return err
			}
		}
	default:
		data, err := export.JSON(records)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}

	log.Info().Int("records", len(records)).Int("failed", len(failed)).Msg("Standalone scrape finished")
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d scrapes failed: %s", len(failed), len(results), strings.Join(failed, "; "))
	}
	return nil
}
