package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/event"
)

// EventSource supplies candidate events for ranking.
type EventSource interface {
	// Upcoming returns up to limit upcoming approved events.
	Upcoming(ctx context.Context, limit int) ([]event.Event, error)

	// Nearby returns events within radiusKm of the given coordinates.
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]event.Event, error)

	// ByCategory returns up to limit upcoming events in a category.
	ByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]event.Event, error)
}

// InteractionSource supplies a user's historical interaction records.
type InteractionSource interface {
	ForUser(ctx context.Context, userID uuid.UUID, token string) ([]event.Interaction, error)
}

// EventClient fetches candidate events and interactions from the event
// service over HTTP. It implements EventSource and InteractionSource.
type EventClient struct {
	*client
}

// NewEventClient creates an EventClient for the event service at baseURL.
func NewEventClient(baseURL string, logger *slog.Logger) *EventClient {
	return &EventClient{client: newClient("event-service", baseURL, logger)}
}

// pagedEvents is the paged envelope the event service wraps listings in.
type pagedEvents struct {
	Content []event.Event `json:"content"`
}

// Upcoming implements EventSource.
func (c *EventClient) Upcoming(ctx context.Context, limit int) ([]event.Event, error) {
	query := url.Values{
		"page": {"0"},
		"size": {strconv.Itoa(limit)},
	}

	var page pagedEvents
	if err := c.getJSON(ctx, "/api/events/upcoming", query, "", &page); err != nil {
		c.logger.Error("failed to fetch upcoming events", "error", err)
		return nil, fmt.Errorf("fetching upcoming events: %w", err)
	}
	return page.Content, nil
}

// Nearby implements EventSource.
func (c *EventClient) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]event.Event, error) {
	query := url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lng, 'f', -1, 64)},
		"radiusKm":  {strconv.FormatFloat(radiusKm, 'f', -1, 64)},
	}

	var events []event.Event
	if err := c.getJSON(ctx, "/api/events/nearby", query, "", &events); err != nil {
		c.logger.Error("failed to fetch nearby events",
			"lat", lat,
			"lng", lng,
			"radius_km", radiusKm,
			"error", err)
		return nil, fmt.Errorf("fetching nearby events: %w", err)
	}
	return events, nil
}

// ByCategory implements EventSource.
func (c *EventClient) ByCategory(ctx context.Context, categoryID uuid.UUID, limit int) ([]event.Event, error) {
	query := url.Values{
		"page": {"0"},
		"size": {strconv.Itoa(limit)},
	}

	var page pagedEvents
	path := "/api/events/category/" + categoryID.String()
	if err := c.getJSON(ctx, path, query, "", &page); err != nil {
		c.logger.Error("failed to fetch events by category",
			"category_id", categoryID,
			"error", err)
		return nil, fmt.Errorf("fetching events by category: %w", err)
	}
	return page.Content, nil
}

// ForUser implements InteractionSource. The caller's bearer token is
// forwarded so the event service can authorize access to the user's history.
func (c *EventClient) ForUser(ctx context.Context, userID uuid.UUID, token string) ([]event.Interaction, error) {
	var interactions []event.Interaction
	path := "/api/interactions/user/" + userID.String()
	if err := c.getJSON(ctx, path, nil, token, &interactions); err != nil {
		c.logger.Warn("failed to fetch user interactions",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("fetching user interactions: %w", err)
	}
	return interactions, nil
}
