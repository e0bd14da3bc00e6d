package recommend

import (
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/event"
	"github.com/gatherly/recs/internal/geo"
	"github.com/gatherly/recs/internal/scoring"
)

// Recommendation is a ranked event as returned to clients: the event's
// display fields plus the score, its per-factor breakdown, human-readable
// reasons, and the 1-based rank within the descending-score ordering.
type Recommendation struct {
	EventID     uuid.UUID `json:"event_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	Address     string    `json:"address,omitempty"`

	Location  *geo.Point `json:"location,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time,omitempty"`

	TicketPrice      *float64 `json:"ticket_price,omitempty"`
	TicketsAvailable bool     `json:"tickets_available"`
	ImageURL         string   `json:"image_url,omitempty"`
	Verified         bool     `json:"verified"`

	Score      float64            `json:"score"`
	DistanceKm *float64           `json:"distance_km,omitempty"`
	Reasons    []string           `json:"reasons,omitempty"`
	Breakdown  *scoring.Breakdown `json:"breakdown,omitempty"`
	Rank       int                `json:"rank"`
}

// newRecommendation builds the client-facing view of a scored candidate.
// distanceKm carries the geo.MaxDistanceKm sentinel when unknown, which maps
// to a nil DistanceKm in the response.
func newRecommendation(e *event.Event, score float64, b *scoring.Breakdown, reasons []string, distanceKm float64) Recommendation {
	rec := Recommendation{
		EventID:          e.ID,
		Title:            e.Title,
		Description:      e.Description,
		Category:         e.CategoryName(),
		Venue:            e.Venue,
		Address:          e.Address,
		Location:         e.Location,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		TicketPrice:      e.TicketPrice,
		TicketsAvailable: e.HasAvailableTickets(),
		ImageURL:         e.ImageURL,
		Verified:         e.Verified,
		Score:            score,
		Reasons:          reasons,
		Breakdown:        b,
	}
	if distanceKm > 0 && distanceKm != geo.MaxDistanceKm {
		d := distanceKm
		rec.DistanceKm = &d
	}
	return rec
}
