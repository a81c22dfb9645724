package tle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultSourceURL is CelesTrak's active-satellite group.
const DefaultSourceURL = "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle"

// DefaultMaxBytes caps a single response body.
const DefaultMaxBytes int64 = 50 << 20

// Fetcher retrieves raw TLE text from a primary URL and optional extra URLs.
// The primary must succeed; extras are best effort and appended in order.
type Fetcher struct {
	sourceURL  string
	extraURLs  []string
	maxBytes   int64
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. An empty sourceURL selects DefaultSourceURL and
// a non-positive maxBytes selects DefaultMaxBytes.
func NewFetcher(sourceURL string, maxBytes int64, logger *slog.Logger, extraURLs ...string) *Fetcher {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		sourceURL: sourceURL,
		extraURLs: extraURLs,
		maxBytes:  maxBytes,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SourceURL returns the primary source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Fetch downloads the primary source followed by every reachable extra source.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	body, err := f.get(ctx, f.sourceURL)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(body)
	for _, u := range f.extraURLs {
		extra, err := f.get(ctx, u)
		if err != nil {
			f.logger.Warn("extra TLE source failed", "component", "tle", "url", u, "error", err)
			continue
		}
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteByte('\n')
		}
		buf.Write(extra)
	}
	return buf.Bytes(), nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching TLE data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", url, f.maxBytes)
	}
	return body, nil
}
