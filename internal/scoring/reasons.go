package scoring

import (
	"fmt"

	"github.com/gatherly/recs/internal/event"
	"github.com/gatherly/recs/internal/geo"
)

// Reasons generates human-readable explanations for a scored recommendation.
// The output is deterministic and threshold-driven; reasons appear in a fixed
// precedence order and multiple reasons may co-occur.
func Reasons(e *event.Event, user *UserContext, b Breakdown, distanceKm float64) []string {
	reasons := make([]string, 0, 4)

	if b.Geo >= 0.8 {
		reasons = append(reasons, fmt.Sprintf("Only %.1f km away", distanceKm))
	} else if b.Geo >= 0.5 {
		reasons = append(reasons, fmt.Sprintf("Within your area (%.1f km)", distanceKm))
	}

	if b.Interest == 1.0 {
		reasons = append(reasons, fmt.Sprintf("Matches your interest in %s", e.CategoryName()))
	}

	if b.Interaction >= 0.5 {
		reasons = append(reasons, "Similar to events you've saved")
	}

	if b.Popularity >= 0.7 {
		reasons = append(reasons, "Trending in your area")
	}

	if b.Recency == 1.0 {
		reasons = append(reasons, "Happening this weekend!")
	} else if b.Recency >= 0.8 {
		reasons = append(reasons, "Coming up this week")
	}

	if e.IsFree() {
		reasons = append(reasons, "Free event")
	}

	if e.Verified {
		reasons = append(reasons, "Verified host")
	}

	return reasons
}

// ColdStartReasons generates the reduced reason list for cold-start users,
// who have no interaction history to explain against.
func ColdStartReasons(e *event.Event, distanceKm float64) []string {
	reasons := []string{"Popular in your area"}

	if distanceKm < 10 && distanceKm != geo.MaxDistanceKm {
		reasons = append(reasons, fmt.Sprintf("Only %s away", geo.FormatDistance(distanceKm)))
	}
	if e.IsFree() {
		reasons = append(reasons, "Free event")
	}

	return reasons
}
