// Package transcript fetches the markdown notes published for each session.
package transcript

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"learnerportal/internal/keys"
)

// maxSize caps how much of a transcript is read.
const maxSize = 1 << 20

// Fetcher resolves a URL template such as
// "https://example.com/notes/semana{week}/{day}.md" per session.
type Fetcher struct {
	template   string
	httpClient *http.Client
}

// NewFetcher creates a fetcher. An empty template makes every transcript
// unavailable.
func NewFetcher(template string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		template:   template,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// URL returns the transcript location for a session.
func (f *Fetcher) URL(week int, day string) string {
	r := strings.NewReplacer(
		"{week}", strconv.Itoa(week),
		"{day}", url.PathEscape(keys.NormalizeDay(day)),
	)
	return r.Replace(f.template)
}

// Fetch returns the markdown for a session and whether it was available.
// A missing document, a non-200 response or a network failure all report
// unavailable.
func (f *Fetcher) Fetch(ctx context.Context, week int, day string) (string, bool) {
	if f.template == "" {
		return "", false
	}

	target := f.URL(week, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		log.Printf("Warning: invalid transcript URL %s: %v", target, err)
		return "", false
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		log.Printf("Warning: failed to fetch transcript %s: %v", target, err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode != http.StatusNotFound {
			log.Printf("Warning: transcript %s returned %s", target, resp.Status)
		}
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
	if err != nil {
		log.Printf("Warning: failed to read transcript %s: %v", target, err)
		return "", false
	}
	return string(body), true
}

// String describes the fetcher for startup logs.
func (f *Fetcher) String() string {
	if f.template == "" {
		return "transcripts disabled"
	}
	return fmt.Sprintf("transcripts from %s", f.template)
}
