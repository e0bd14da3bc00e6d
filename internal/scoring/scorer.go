package scoring

import (
	"time"

	"github.com/gatherly/recs/internal/event"
	"github.com/gatherly/recs/internal/geo"
)

// interactionCeiling is the accumulated category affinity weight that maps to
// a full interaction score of 1.0.
const interactionCeiling = 10.0

// Breakdown holds the per-factor components of a recommendation score.
// Each component is in [0, 1]; Final is clamped to [0, 1].
type Breakdown struct {
	Geo         float64 `json:"geo_score"`
	Interest    float64 `json:"interest_score"`
	Interaction float64 `json:"interaction_score"`
	Popularity  float64 `json:"popularity_score"`
	Recency     float64 `json:"recency_score"`
	Final       float64 `json:"final_score"`
}

// Scorer computes recommendation scores using configured weights.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer with the given weights. A nil weights value
// falls back to defaults.
func NewScorer(weights *Weights) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: *weights}
}

// Weights returns a copy of the scorer's configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score computes the standard five-factor breakdown for an event. This path
// is used when the user has interaction history.
//
// distanceKm is the precomputed user-to-event distance; callers pass
// geo.MaxDistanceKm when either location is missing. now is the reference
// time for recency so that scoring stays pure.
func (s *Scorer) Score(e *event.Event, user *UserContext, interactions []event.Interaction, distanceKm float64, now time.Time) Breakdown {
	geoScore := 0.0
	if user.HasLocation() {
		geoScore = geo.Score(distanceKm)
	}

	interestScore := interestScore(user, e)
	interactionScore := interactionScore(e, interactions)
	popularityScore := PopularityScore(e.TotalInteractions())
	recencyScore := RecencyScore(e.StartTime, now)

	final := (s.weights.Geo * geoScore) +
		(s.weights.Interest * interestScore) +
		(s.weights.Interaction * interactionScore) +
		(s.weights.Popularity * popularityScore) +
		(s.weights.Recency * recencyScore)

	return Breakdown{
		Geo:         geoScore,
		Interest:    interestScore,
		Interaction: interactionScore,
		Popularity:  popularityScore,
		Recency:     recencyScore,
		Final:       clamp01(final),
	}
}

// ColdStartScore computes the reduced breakdown for a user with no
// interaction history. The interaction component is always reported as 0.0;
// the interest component participates only when the user declared interests.
func (s *Scorer) ColdStartScore(e *event.Event, user *UserContext, distanceKm float64, now time.Time) Breakdown {
	geoScore := 0.0
	if user.HasLocation() {
		geoScore = geo.Score(distanceKm)
	}

	popularityScore := PopularityScore(e.TotalInteractions())
	recencyScore := RecencyScore(e.StartTime, now)

	if user.HasInterests() {
		interestScore := interestScore(user, e)
		final := (ColdStartInterestGeoWeight * geoScore) +
			(ColdStartInterestWeight * interestScore) +
			(ColdStartInterestPopularityWeight * popularityScore) +
			(ColdStartInterestRecencyWeight * recencyScore)

		return Breakdown{
			Geo:        geoScore,
			Interest:   interestScore,
			Popularity: popularityScore,
			Recency:    recencyScore,
			Final:      clamp01(final),
		}
	}

	final := (ColdStartGeoWeight * geoScore) +
		(ColdStartPopularityWeight * popularityScore) +
		(ColdStartRecencyWeight * recencyScore)

	return Breakdown{
		Geo:        geoScore,
		Popularity: popularityScore,
		Recency:    recencyScore,
		Final:      clamp01(final),
	}
}

// TrendingScore computes the reduced global-trending score for an event:
// (popularity * 0.7) + (recency * 0.3). No per-user context participates.
func TrendingScore(e *event.Event, now time.Time) float64 {
	return (TrendingPopularityWeight * PopularityScore(e.TotalInteractions())) +
		(TrendingRecencyWeight * RecencyScore(e.StartTime, now))
}

// SimilarScore computes the reduced similarity score of an event relative to
// a target event: (geo-to-target * 0.6) + (popularity * 0.4).
func SimilarScore(e *event.Event, distanceToTargetKm float64) float64 {
	return (SimilarGeoWeight * geo.Score(distanceToTargetKm)) +
		(SimilarPopularityWeight * PopularityScore(e.TotalInteractions()))
}

// interestScore returns 1.0 when the event's category name case-insensitively
// equals any declared user interest, else 0.0. Partial-credit category
// similarity is out of scope for v1.
func interestScore(user *UserContext, e *event.Event) float64 {
	if !user.HasInterests() || e.CategoryName() == "" {
		return 0.0
	}
	if user.InterestedIn(e.CategoryName()) {
		return 1.0
	}
	return 0.0
}

// interactionScore accumulates the weighted affinity of the user's past
// interactions whose category matches the event's category, normalized
// against a ceiling of 10 weight-units and capped at 1.0.
func interactionScore(e *event.Event, interactions []event.Interaction) float64 {
	if len(interactions) == 0 {
		return 0.0
	}

	weighted := 0.0
	for _, i := range interactions {
		if i.MatchesCategory(e.CategoryName()) {
			weighted += i.Weight()
		}
	}

	normalized := weighted / interactionCeiling
	if normalized > 1.0 {
		return 1.0
	}
	return normalized
}

// PopularityScore buckets an event's total interaction count into [0, 1].
// More interacted-with events score higher.
func PopularityScore(totalInteractions int64) float64 {
	switch {
	case totalInteractions >= 100:
		return 1.0
	case totalInteractions >= 50:
		return 0.7
	case totalInteractions >= 20:
		return 0.4
	case totalInteractions >= 5:
		return 0.2
	default:
		return 0.1
	}
}

// RecencyScore buckets the whole days between now and the event start into
// [0, 1]. Events that already started score 0.0; events starting sooner
// score higher.
func RecencyScore(start time.Time, now time.Time) float64 {
	daysUntil := int64(start.Sub(now).Hours() / 24)

	if start.Before(now) {
		return 0.0
	}

	switch {
	case daysUntil <= 3:
		return 1.0
	case daysUntil <= 7:
		return 0.8
	case daysUntil <= 14:
		return 0.5
	case daysUntil <= 30:
		return 0.3
	default:
		return 0.1
	}
}

// clamp01 clamps v to the [0, 1] interval.
func clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
