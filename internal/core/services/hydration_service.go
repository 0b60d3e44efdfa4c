package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/zing-commerce/cart-engine/internal/core/domain"
)

// HydrationService turns id-only cart entries into display-ready rows by
// cross-referencing the catalog. The attribute reference set is small and
// changes rarely, so it sits in an explicit service-owned cache with a short
// TTL (roughly one page view) instead of a module-level global.
type HydrationService struct {
	catalog domain.CatalogGateway

	mu        sync.Mutex
	cached    *domain.AttributeReferenceSet
	fetchedAt time.Time
	ttl       time.Duration
}

const DefaultAttributeTTL = 60 * time.Second

func NewHydrationService(catalog domain.CatalogGateway, attributeTTL time.Duration) *HydrationService {
	if attributeTTL <= 0 {
		attributeTTL = DefaultAttributeTTL
	}
	return &HydrationService{
		catalog: catalog,
		ttl:     attributeTTL,
	}
}

// Attributes returns the cached reference set, fetching it when stale. A
// fetch failure surfaces as ErrReferenceUnavailable; callers render without
// attribute names rather than failing the whole view.
func (s *HydrationService) Attributes(ctx context.Context) (*domain.AttributeReferenceSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	attrs, err := s.catalog.FetchAttributes(ctx)
	if err != nil {
		// A stale snapshot beats no snapshot.
		if s.cached != nil {
			log.Printf("[HYDRATE] attribute refresh failed, serving stale set: %v", err)
			return s.cached, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReferenceUnavailable, err)
	}

	s.cached = attrs
	s.fetchedAt = time.Now()
	return attrs, nil
}

// Hydrate enriches a single entry. A failed product fetch degrades the row
// (nil Product) instead of dropping it; an unresolvable color/size id is nil,
// not an error. Hydrating the same entry against the same reference set is
// idempotent.
func (s *HydrationService) Hydrate(ctx context.Context, entry domain.CartEntry, attrs *domain.AttributeReferenceSet) domain.HydratedCartEntry {
	hydrated := domain.HydratedCartEntry{CartEntry: entry}

	product, err := s.catalog.FetchProduct(ctx, entry.ProductID)
	if err != nil {
		log.Printf("[HYDRATE] product %s unavailable: %v", entry.ProductID, err)
	} else {
		hydrated.Product = product
	}

	if attrs != nil {
		hydrated.Color = attrs.Color(entry.ColorID)
		hydrated.Size = attrs.Size(entry.SizeID)
	}

	return hydrated
}

// HydrateAll hydrates every entry concurrently. Entries are independent, so
// completion order is irrelevant; the returned slice always preserves the
// cart order of the input.
func (s *HydrationService) HydrateAll(ctx context.Context, entries []domain.CartEntry) []domain.HydratedCartEntry {
	if len(entries) == 0 {
		return []domain.HydratedCartEntry{}
	}

	attrs, err := s.Attributes(ctx)
	if err != nil {
		log.Printf("[HYDRATE] rendering without attribute names: %v", err)
		attrs = nil
	}

	hydrated := make([]domain.HydratedCartEntry, len(entries))

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry domain.CartEntry) {
			defer wg.Done()
			hydrated[i] = s.Hydrate(ctx, entry, attrs)
		}(i, entry)
	}
	wg.Wait()

	return hydrated
}
