package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrNoAPIKey signals a missing credential. Callers degrade to an empty
// result instead of propagating it.
var ErrNoAPIKey = errors.New("api key not set")

// SerpResult is one organic search hit.
type SerpResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher is the web-search capability consumed by the domain researcher
// and the profile matcher. Implementations never panic on missing
// credentials; they return an error the caller treats as "no results".
type Searcher interface {
	Search(query string, maxResults int) ([]SerpResult, error)
}

type serpAPIResponse struct {
	OrganicResults []SerpResult `json:"organic_results"`
}

// SerpClient queries SerpAPI's google engine with client-side rate
// limiting to stay inside the provider's request budget.
type SerpClient struct {
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// NewSerpClient reads SERPAPI_KEY from the environment. A missing key is
// not fatal here; Search reports it per call.
func NewSerpClient(log *zap.SugaredLogger) *SerpClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SerpClient{
		apiKey:  os.Getenv("SERPAPI_KEY"),
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 3), // ~1 req/s, burst 3
		log:     log,
	}
}

// Search runs one google query and returns up to maxResults organic hits.
func (s *SerpClient) Search(query string, maxResults int) ([]SerpResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("SERPAPI_KEY: %w", ErrNoAPIKey)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse("https://serpapi.com/search.json")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("engine", "google")
	q.Set("api_key", s.apiKey)
	q.Set("num", fmt.Sprintf("%d", maxResults))
	u.RawQuery = q.Encode()

	resp, err := s.client.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SerpAPI returned status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data serpAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("SerpAPI parse error: %w", err)
	}

	s.log.Debugf("[Serp] %q → %d organic results", query, len(data.OrganicResults))
	return data.OrganicResults, nil
}
