package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/geo"
	"github.com/gatherly/recs/internal/scoring"
)

// UserSource supplies the requesting user's preferences. Implementations
// must provide a deterministic default context on failure so the ranking
// request never fails on an unavailable user service.
type UserSource interface {
	Preferences(ctx context.Context, userID uuid.UUID, token string) (*scoring.UserContext, error)

	// DefaultContext returns the fallback context used when preferences
	// cannot be fetched.
	DefaultContext(userID uuid.UUID) *scoring.UserContext
}

// UserClient fetches user preferences from the user service over HTTP.
type UserClient struct {
	*client

	// defaultInterests seeds the interest set for users without declared
	// interests and for the failure fallback.
	defaultInterests []string
}

// NewUserClient creates a UserClient for the user service at baseURL.
func NewUserClient(baseURL string, defaultInterests []string, logger *slog.Logger) *UserClient {
	return &UserClient{
		client:           newClient("user-service", baseURL, logger),
		defaultInterests: defaultInterests,
	}
}

// userPayload is the wire shape of the user service's profile response.
type userPayload struct {
	Username  string     `json:"username"`
	City      string     `json:"city"`
	Location  *geo.Point `json:"location"`
	Interests []string   `json:"interests"`
}

// Preferences implements UserSource. On any fetch or decode failure it
// returns the deterministic default context alongside the error; callers may
// use the returned context unconditionally.
func (c *UserClient) Preferences(ctx context.Context, userID uuid.UUID, token string) (*scoring.UserContext, error) {
	var payload userPayload
	path := "/api/users/" + userID.String()
	if err := c.getJSON(ctx, path, nil, token, &payload); err != nil {
		c.logger.Error("failed to fetch user preferences, using defaults",
			"user_id", userID,
			"error", err)
		return c.DefaultContext(userID), fmt.Errorf("fetching user preferences: %w", err)
	}

	interests := payload.Interests
	if len(interests) == 0 {
		interests = slices.Clone(c.defaultInterests)
	}

	location := payload.Location
	if !location.Valid() {
		location = nil
	}

	return &scoring.UserContext{
		ID:        userID,
		Username:  payload.Username,
		City:      payload.City,
		Location:  location,
		Interests: interests,
		// HasInteractions is set by the engine after fetching interactions.
		HasInteractions: false,
	}, nil
}

// DefaultContext implements UserSource: no location, the configured default
// interest set, and no interaction history.
func (c *UserClient) DefaultContext(userID uuid.UUID) *scoring.UserContext {
	return &scoring.UserContext{
		ID:              userID,
		Interests:       slices.Clone(c.defaultInterests),
		HasInteractions: false,
	}
}
