// Package history provides fire-and-forget persistence of served
// recommendations with their score breakdowns, for later feedback-driven
// evaluation of the ranking algorithm.
package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/scoring"
)

// AlgorithmVersion tags every persisted recommendation with the scoring
// formula revision that produced it.
const AlgorithmVersion = "v1.0"

// Record is one served recommendation. Records are append-only at creation;
// only the feedback fields (clicked/saved/converted) are mutated afterwards,
// by feedback events arriving through the API.
type Record struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	EventID uuid.UUID `json:"event_id"`

	Score        float64           `json:"score"`
	RankPosition int               `json:"rank_position"`
	Breakdown    scoring.Breakdown `json:"breakdown"`

	Reasons          []string `json:"reasons"`
	AlgorithmVersion string   `json:"algorithm_version"`
	DistanceKm       *float64 `json:"distance_km,omitempty"`

	RecommendedAt time.Time `json:"recommended_at"`

	Clicked     bool       `json:"clicked"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`
	Saved       bool       `json:"saved"`
	SavedAt     *time.Time `json:"saved_at,omitempty"`
	Converted   bool       `json:"converted"`
	ConvertedAt *time.Time `json:"converted_at,omitempty"`
}
