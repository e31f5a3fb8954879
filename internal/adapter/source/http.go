package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chatlogs/internal/domain"
)

// maxPageBytes bounds a single transcript download.
const maxPageBytes = 32 << 20

// HTTPSource fetches daily transcript pages laid out as
// <base>/<channel>/<YYYY>/<YYYY-MM>/<YYYY-MM-DD>.html.
type HTTPSource struct {
	baseURL   string
	userAgent string
	client    *http.Client
	maxBytes  int64
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL, userAgent string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		maxBytes:  maxPageBytes,
	}
}

// PageURL returns the transcript URL for channel on date.
func (s *HTTPSource) PageURL(channel string, date time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s.html",
		s.baseURL,
		url.PathEscape(channel),
		date.Format("2006"),
		date.Format("2006-01"),
		date.Format("2006-01-02"),
	)
}

// Fetch downloads one day's page. A 404 is domain.ErrNotFound; any other
// failure wraps domain.ErrFetchFailed.
func (s *HTTPSource) Fetch(ctx context.Context, channel string, date time.Time) (domain.Transcript, error) {
	pageURL := s.PageURL(channel, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: building request for %s: %w", domain.ErrFetchFailed, pageURL, err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: %s: %w", domain.ErrFetchFailed, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return domain.Transcript{}, fmt.Errorf("%s: %w", pageURL, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Transcript{}, fmt.Errorf("%w: %s: unexpected status %s", domain.ErrFetchFailed, pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return domain.Transcript{}, fmt.Errorf("%w: reading %s: %w", domain.ErrFetchFailed, pageURL, err)
	}
	if int64(len(body)) > s.maxBytes {
		return domain.Transcript{}, fmt.Errorf("%w: %s: page exceeds %d bytes", domain.ErrFetchFailed, pageURL, s.maxBytes)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return domain.Transcript{URL: finalURL, Body: body}, nil
}
