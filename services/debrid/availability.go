package debrid

import (
	"context"
	"log"
	"time"

	"fkstream/internal/database"
)

// AvailabilityService answers batch availability queries through the
// per-hash cache, forwarding only uncached hashes to the provider.
type AvailabilityService struct {
	repo *database.Repository
	ttl  time.Duration
}

// NewAvailabilityService creates the cached availability layer.
func NewAvailabilityService(repo *database.Repository, ttl time.Duration) *AvailabilityService {
	return &AvailabilityService{repo: repo, ttl: ttl}
}

// Lookup maps every hash to a status for the given media and provider.
// Cached entries within their TTL are served locally; the rest go to the
// provider in one batch and the replies are written back. Provider failure
// degrades the remaining hashes to unknown rather than failing the lookup.
func (s *AvailabilityService) Lookup(ctx context.Context, provider Provider, mediaID string, hashes []string) map[string]string {
	statuses := make(map[string]string, len(hashes))
	var misses []string
	for _, hash := range hashes {
		if status, ok := s.repo.GetDebridStatus(ctx, mediaID, hash, provider.Name()); ok {
			statuses[hash] = status
			continue
		}
		misses = append(misses, hash)
	}

	if len(misses) > 0 {
		results, err := provider.GetAvailability(ctx, misses)
		if err != nil {
			log.Printf("[debrid] availability query failed for %s: %v", mediaID, err)
		}
		for _, result := range results {
			statuses[result.Hash] = result.Status
			if err := s.repo.SetDebridStatus(ctx, mediaID, result.Hash, provider.Name(), result.Status, s.ttl); err != nil {
				log.Printf("[debrid] failed to cache availability for %s: %v", result.Hash, err)
			}
		}
	}

	for _, hash := range hashes {
		if _, ok := statuses[hash]; !ok {
			statuses[hash] = StatusUnknown
		}
	}
	return statuses
}
