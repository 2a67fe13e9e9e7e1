// In-memory TTL cache for email inference results.
// Key: "company" (lowered) → cached inference.
package services

import (
	"strings"
	"sync"
	"time"

	"github.com/veritalent/veritalent-backend/models"
)

const inferenceTTL = 24 * time.Hour

type inferenceCacheEntry struct {
	Inference models.EmailInference
	Found     bool
	CachedAt  time.Time
}

// inferenceCache is owned by one DomainResearcher; instances are
// isolated from each other.
type inferenceCache struct {
	mu        sync.RWMutex
	byCompany map[string]*inferenceCacheEntry
	ttl       time.Duration
}

func newInferenceCache(ttl time.Duration) *inferenceCache {
	return &inferenceCache{
		byCompany: map[string]*inferenceCacheEntry{},
		ttl:       ttl,
	}
}

func inferenceKey(company string) string {
	return strings.ToLower(strings.TrimSpace(company))
}

// get returns a cached result if still fresh. The second boolean
// distinguishes a cached negative ("we looked, found nothing") from a
// cache miss.
func (c *inferenceCache) get(company string) (models.EmailInference, bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byCompany[inferenceKey(company)]
	if !ok || time.Since(e.CachedAt) > c.ttl {
		return models.EmailInference{}, false, false
	}
	return e.Inference, e.Found, true
}

// set stores the result for future calls. Negative results are cached
// too, so a dead company name does not re-trigger searches.
func (c *inferenceCache) set(company string, inf models.EmailInference, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCompany[inferenceKey(company)] = &inferenceCacheEntry{
		Inference: inf,
		Found:     found,
		CachedAt:  time.Now(),
	}
}
