package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Fetcher is the page-fetch capability. Fetch returns "" for any
// unrecoverable failure; callers treat that as "no content", never as an
// error. Reachable performs a lightweight HEAD probe.
type Fetcher interface {
	Fetch(url string) string
	Reachable(url string) bool
}

// HTTPError carries the status code so retry policy can distinguish
// permanent failures from transient ones.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// PageFetcher fetches third-party pages with exponential backoff. 401,
// 403 and 404 stop the retry loop immediately; everything else gets up
// to three attempts.
type PageFetcher struct {
	client *http.Client
	log    *zap.SugaredLogger
}

func NewPageFetcher(log *zap.SugaredLogger) *PageFetcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PageFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		log: log,
	}
}

// Fetch GETs the URL and returns the raw body, or "" on failure.
func (f *PageFetcher) Fetch(rawURL string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", browserUA)

			resp, err := f.client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				herr := &HTTPError{StatusCode: resp.StatusCode, URL: rawURL}
				if isPermanentStatus(resp.StatusCode) {
					return nil, retry.Unrecoverable(herr)
				}
				return nil, herr
			}
			return io.ReadAll(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			f.log.Debugf("[Fetch] retry %d for %s: %v", n+1, rawURL, err)
		}),
	)
	if err != nil {
		f.log.Debugf("[Fetch] giving up on %s: %v", rawURL, err)
		return ""
	}
	return string(body)
}

// Reachable issues a HEAD request and reports whether the URL answers
// with a non-error status. Some sites reject HEAD outright, so a 405
// falls back to a body-less GET.
func (f *PageFetcher) Reachable(rawURL string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return f.Fetch(rawURL) != ""
	}
	return resp.StatusCode < 400
}

func isPermanentStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}
