package scoring

import (
	"strings"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/geo"
)

// UserContext is the ranking engine's view of the requesting user: who they
// are, where they are, what they declared interest in, and whether they have
// any recorded interaction history.
type UserContext struct {
	ID       uuid.UUID  `json:"user_id"`
	Username string     `json:"username,omitempty"`
	City     string     `json:"city,omitempty"`
	Location *geo.Point `json:"location,omitempty"`

	// Interests are declared interest tags, e.g. ["music", "tech"].
	Interests []string `json:"interests,omitempty"`

	// HasInteractions is set by the engine after fetching the user's
	// interaction records. It drives cold-start branching.
	HasInteractions bool `json:"has_interactions"`
}

// ColdStart reports whether the user has no recorded interaction history.
func (u *UserContext) ColdStart() bool {
	return !u.HasInteractions
}

// HasLocation reports whether the user has a valid location.
func (u *UserContext) HasLocation() bool {
	return u.Location.Valid()
}

// HasInterests reports whether the user declared any interest tags.
func (u *UserContext) HasInterests() bool {
	return len(u.Interests) > 0
}

// InterestedIn reports whether any declared interest tag equals category,
// ignoring case.
func (u *UserContext) InterestedIn(category string) bool {
	if category == "" {
		return false
	}
	for _, interest := range u.Interests {
		if strings.EqualFold(interest, category) {
			return true
		}
	}
	return false
}
