package event

import (
	"strings"

	"github.com/google/uuid"
)

// InteractionType classifies a recorded user interaction with an event.
type InteractionType string

// Known interaction types, ordered by signal strength.
const (
	InteractionBuy   InteractionType = "BUY"
	InteractionRSVP  InteractionType = "RSVP"
	InteractionSave  InteractionType = "SAVE"
	InteractionShare InteractionType = "SHARE"
	InteractionView  InteractionType = "VIEW"
)

// Weight returns the affinity weight for the interaction type. Unknown types
// weigh 0.0 so malformed upstream data cannot inflate scores.
func (t InteractionType) Weight() float64 {
	switch t {
	case InteractionBuy:
		return 1.0
	case InteractionRSVP:
		return 0.8
	case InteractionSave:
		return 0.6
	case InteractionShare:
		return 0.4
	case InteractionView:
		return 0.2
	default:
		return 0.0
	}
}

// StrongSignal reports whether the interaction type expresses deliberate
// intent (save, RSVP, or purchase) rather than passive browsing.
func (t InteractionType) StrongSignal() bool {
	switch t {
	case InteractionSave, InteractionRSVP, InteractionBuy:
		return true
	default:
		return false
	}
}

// Interaction is a single historical interaction of a user with an event,
// tagged with the event's category at interaction time.
type Interaction struct {
	UserID   uuid.UUID       `json:"user_id"`
	EventID  uuid.UUID       `json:"event_id"`
	Type     InteractionType `json:"type"`
	Category string          `json:"category"`
}

// Weight returns the affinity weight of this interaction.
func (i Interaction) Weight() float64 {
	return i.Type.Weight()
}

// MatchesCategory reports whether the interaction's category tag equals name,
// ignoring case.
func (i Interaction) MatchesCategory(name string) bool {
	return i.Category != "" && strings.EqualFold(i.Category, name)
}
