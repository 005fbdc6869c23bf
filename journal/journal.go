// Package journal accumulates the trips of a paginated search.
//
// Trip ids are not stable across pages, so trips are de-duplicated by their content hash.
package journal

import (
	"github.com/cespare/xxhash/v2"
	"github.com/jamespfennell/hafas"
)

type Journal struct {
	Trips []hafas.Trip

	// Context is the most recent pagination context seen. Older contexts of the same
	// search are stale.
	Context *hafas.PaginationContext

	seen map[uint64]bool
}

// Add records the trips of a result that are not yet in the journal and returns how
// many were new.
func (j *Journal) Add(result *hafas.TripsResult) int {
	if result == nil {
		return 0
	}
	if j.seen == nil {
		j.seen = map[uint64]bool{}
	}
	if result.Context != nil {
		j.Context = result.Context
	}
	n := 0
	for i := range result.Trips {
		h := xxhash.New()
		result.Trips[i].Hash(h)
		key := h.Sum64()
		if j.seen[key] {
			continue
		}
		j.seen[key] = true
		j.Trips = append(j.Trips, result.Trips[i])
		n++
	}
	return n
}
