package venue

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SlugLookup resolves a venue id to its menu slug.
// Consumers define this interface, not the catalog implementation.
type SlugLookup interface {
	ResolveVenueSlug(ctx context.Context, venueID string) (string, error)
}

// Resolver decides whether items from two venues may coexist in one
// cart. Slug resolutions are I/O, so successful lookups are cached for
// the process lifetime; failures are not cached so a later call can
// retry. Lookup errors mean "cannot verify" and fail closed: unrelated
// venues are never merged silently.
type Resolver struct {
	lookup SlugLookup
	groups *Groups

	mu    sync.RWMutex
	slugs map[string]string  // venueID -> slug
	sfg   singleflight.Group // Prevents duplicate concurrent lookups for same id
}

func NewResolver(lookup SlugLookup, groups *Groups) *Resolver {
	return &Resolver{
		lookup: lookup,
		groups: groups,
		slugs:  make(map[string]string),
	}
}

// Compatible reports whether an item from venueB may join a cart bound
// to venueA. An unbound cart (empty venueA) accepts anything.
func (r *Resolver) Compatible(ctx context.Context, venueA, venueB string) (bool, error) {
	if venueA == "" || venueA == venueB {
		return true, nil
	}

	slugA, err := r.slugFor(ctx, venueA)
	if err != nil {
		return false, fmt.Errorf("resolve venue %s: %w", venueA, err)
	}
	slugB, err := r.slugFor(ctx, venueB)
	if err != nil {
		return false, fmt.Errorf("resolve venue %s: %w", venueB, err)
	}

	groupA := r.groups.GroupOf(slugA)
	groupB := r.groups.GroupOf(slugB)
	if groupA == nil || groupB == nil {
		log.Printf("venue slug outside configured groups: %q / %q", slugA, slugB)
		return false, nil
	}

	if groupA.Name == groupB.Name {
		return true, nil
	}
	if groupA.CombinesWithAll || groupB.CombinesWithAll {
		return true, nil
	}
	return false, nil
}

func (r *Resolver) slugFor(ctx context.Context, venueID string) (string, error) {
	r.mu.RLock()
	slug, ok := r.slugs[venueID]
	r.mu.RUnlock()
	if ok {
		return slug, nil
	}

	v, err, _ := r.sfg.Do(venueID, func() (interface{}, error) {
		resolved, errLookup := r.lookup.ResolveVenueSlug(ctx, venueID)
		if errLookup != nil {
			return "", errLookup
		}
		if resolved == "" {
			return "", fmt.Errorf("venue %s has no slug", venueID)
		}
		r.mu.Lock()
		r.slugs[venueID] = resolved
		r.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
