// Copyright 2025 The Geomux Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"log"
	"time"

	"github.com/jcodagnone/geomux/geocode"
)

// CachedService wraps a service adapter with the result cache: a hit
// answers from the repository without touching the network, a miss calls
// through and stores the best candidate of a successful answer. Cache
// problems never fail the call; they are logged and the inner service
// answers as if no cache existed.
type CachedService struct {
	inner geocode.GeocodeService
	repo  Repository
}

// NewCachedService wraps inner with the repository.
func NewCachedService(inner geocode.GeocodeService, repo Repository) *CachedService {
	return &CachedService{inner: inner, repo: repo}
}

// Name implements geocode.GeocodeService.
func (s *CachedService) Name() string {
	return s.inner.Name()
}

// Timeout forwards the inner adapter's deadline so the orchestrator's
// watchdog stays correctly sized.
func (s *CachedService) Timeout() time.Duration {
	if tr, ok := s.inner.(geocode.TimeoutReporter); ok {
		return tr.Timeout()
	}

	return geocode.DefaultTimeout
}

// Geocode implements geocode.GeocodeService.
func (s *CachedService) Geocode(ctx context.Context, q geocode.Query) ([]geocode.Candidate, *geocode.UpstreamResponseInfo) {
	key := Key(q)

	start := time.Now()

	if key != "" {
		entry, err := s.repo.Get(key)
		if err != nil {
			log.Printf("cache: lookup %q: %v", key, err)
		} else if entry != nil {
			return []geocode.Candidate{entry.Candidate}, &geocode.UpstreamResponseInfo{
				Service:        s.inner.Name(),
				ProcessedQuery: q,
				Success:        true,
				ResponseTime:   time.Since(start),
			}
		}
	}

	candidates, info := s.inner.Geocode(ctx, q)

	if key != "" && info != nil && info.Success && len(candidates) > 0 {
		entry := &Entry{Query: key, Candidate: candidates[0]}
		if err := s.repo.Save(entry); err != nil {
			log.Printf("cache: saving %q: %v", key, err)
		}
	}

	return candidates, info
}
