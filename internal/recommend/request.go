// Package recommend implements the ranking engine: it fetches candidate
// events and user context from collaborators, filters and scores candidates,
// sorts and paginates the result, maintains the cache-aside store, and
// dispatches asynchronous history persistence.
package recommend

import (
	"github.com/gatherly/recs/internal/event"
)

// Pagination defaults. Size is clamped to [1, MaxPageSize].
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Request carries the query parameters for a personalized recommendation
// request. The zero value is a valid request for the first default-size page.
type Request struct {
	Page int `json:"page"`
	Size int `json:"size"`

	// Filters. A candidate failing any present filter is excluded,
	// never an error.
	Category      string   `json:"category,omitempty"`
	MaxDistanceKm *float64 `json:"max_distance_km,omitempty"`
	MaxPrice      *float64 `json:"max_price,omitempty"`
	FreeOnly      bool     `json:"free_only,omitempty"`
	VerifiedOnly  bool     `json:"verified_only,omitempty"`

	// Refresh bypasses the cache read (the result is still written back).
	Refresh bool `json:"refresh,omitempty"`
}

// Normalize clamps page and size into their valid ranges using the given
// defaults. defaultSize and maxSize of zero or less fall back to the package
// constants.
func (r *Request) Normalize(defaultSize, maxSize int) {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}

	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = defaultSize
	}
	if r.Size > maxSize {
		r.Size = maxSize
	}
}

// matches reports whether a candidate passes every present filter except the
// distance filter, which is applied after distance computation.
func (r *Request) matches(e *event.Event) bool {
	if r.Category != "" && !e.MatchesCategory(r.Category) {
		return false
	}
	if r.MaxPrice != nil && e.TicketPrice != nil && *e.TicketPrice > *r.MaxPrice {
		return false
	}
	if r.FreeOnly && !e.IsFree() {
		return false
	}
	if r.VerifiedOnly && !e.Verified {
		return false
	}
	return true
}

// paginate slices recommendations to the requested page. Out-of-range pages
// yield an empty list, not an error.
func paginate(recommendations []Recommendation, page, size int) []Recommendation {
	from := page * size
	if from >= len(recommendations) {
		return []Recommendation{}
	}

	to := from + size
	if to > len(recommendations) {
		to = len(recommendations)
	}
	return recommendations[from:to]
}
