// Package event provides the candidate event and interaction models used by
// the recommendation engine. Events are fetched from the upstream event
// service and are treated as read-only inputs to scoring.
package event

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/geo"
)

// Category identifies an event category. Categories are always modeled as an
// id+name pair; scoring and filtering compare names case-insensitively and
// never treat a bare string as a category.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Event is a candidate event under consideration for recommendation.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`

	HostID uuid.UUID `json:"host_id"`

	Venue    string     `json:"venue"`
	Address  string     `json:"address"`
	Location *geo.Point `json:"location,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	TicketPrice *float64 `json:"ticket_price,omitempty"`
	TicketLimit *int     `json:"ticket_limit,omitempty"`
	TicketsSold *int     `json:"tickets_sold,omitempty"`

	ImageURL string `json:"image_url,omitempty"`
	Verified bool   `json:"verified"`

	// Aggregate interaction counters maintained by the event service,
	// used for popularity scoring.
	ViewCount  int64 `json:"view_count"`
	SaveCount  int64 `json:"save_count"`
	RSVPCount  int64 `json:"rsvp_count"`
	ShareCount int64 `json:"share_count"`
}

// IsFree reports whether the event has no ticket price.
func (e *Event) IsFree() bool {
	return e.TicketPrice == nil || *e.TicketPrice == 0
}

// HasAvailableTickets reports whether tickets remain. Events without a ticket
// limit are assumed available.
func (e *Event) HasAvailableTickets() bool {
	if e.TicketLimit == nil || e.TicketsSold == nil {
		return true
	}
	return *e.TicketsSold < *e.TicketLimit
}

// TotalInteractions returns the sum of all interaction counters.
func (e *Event) TotalInteractions() int64 {
	return e.ViewCount + e.SaveCount + e.RSVPCount + e.ShareCount
}

// CategoryName returns the event's category name, or "" when unset.
func (e *Event) CategoryName() string {
	return e.Category.Name
}

// MatchesCategory reports whether the event's category name equals name,
// ignoring case. An empty name never matches.
func (e *Event) MatchesCategory(name string) bool {
	return name != "" && strings.EqualFold(e.Category.Name, name)
}
