package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/middleware"
	"github.com/gatherly/recs/internal/recommend"
)

// Recommender is the ranking engine surface the handlers depend on.
type Recommender interface {
	GetPersonalized(ctx context.Context, userID uuid.UUID, token string, req recommend.Request) ([]recommend.Recommendation, error)
	GetTrending(ctx context.Context, limit int) ([]recommend.Recommendation, error)
	GetSimilar(ctx context.Context, eventID uuid.UUID, limit int) ([]recommend.Recommendation, error)
	GetByCategory(ctx context.Context, userID uuid.UUID, category, token string, limit int) ([]recommend.Recommendation, error)
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

// RecommendationHandlers holds dependencies for recommendation HTTP handlers.
type RecommendationHandlers struct {
	engine Recommender
}

// NewRecommendationHandlers creates a new RecommendationHandlers instance.
func NewRecommendationHandlers(engine Recommender) *RecommendationHandlers {
	return &RecommendationHandlers{engine: engine}
}

// GetPersonalized handles GET /api/recommendations/events - returns one page
// of personalized recommendations for the authenticated user.
func (h *RecommendationHandlers) GetPersonalized(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	req, err := parseRequest(r)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	token := middleware.GetBearerToken(r.Context())
	recommendations, err := h.engine.GetPersonalized(r.Context(), userID, token, req)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build recommendations", "error", err, "user_id", userID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to build recommendations")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, recommendations)
}

// GetTrending handles GET /api/recommendations/trending - returns globally
// trending events. No authentication required.
func (h *RecommendationHandlers) GetTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	recommendations, err := h.engine.GetTrending(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build trending recommendations", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to build trending recommendations")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, recommendations)
}

// GetSimilar handles GET /api/recommendations/similar/{eventId} - returns
// events similar to the given event. No authentication required.
func (h *RecommendationHandlers) GetSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/api/recommendations/similar/")
	eventID, err := uuid.Parse(rawID)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Event ID must be a valid UUID")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	recommendations, err := h.engine.GetSimilar(r.Context(), eventID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build similar recommendations", "error", err, "event_id", eventID)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to build similar recommendations")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, recommendations)
}

// GetByCategory handles GET /api/recommendations/category/{category} - returns
// personalized recommendations within one category.
func (h *RecommendationHandlers) GetByCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	category := strings.TrimPrefix(r.URL.Path, "/api/recommendations/category/")
	if category == "" || strings.Contains(category, "/") {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Category is required")
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	token := middleware.GetBearerToken(r.Context())
	recommendations, err := h.engine.GetByCategory(r.Context(), userID, category, token, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to build category recommendations",
			"error", err,
			"user_id", userID,
			"category", category)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to build category recommendations")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, recommendations)
}

// InvalidateCache handles DELETE /api/recommendations/cache - drops every
// cached listing for the authenticated user, forcing fresh results.
func (h *RecommendationHandlers) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	h.engine.InvalidateUser(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

// parseRequest builds a recommendation request from query parameters.
func parseRequest(r *http.Request) (recommend.Request, error) {
	q := r.URL.Query()
	var req recommend.Request
	var err error

	if req.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return req, err
	}
	if req.Size, err = intParam(q.Get("size"), "size"); err != nil {
		return req, err
	}
	req.Category = q.Get("category")
	if req.MaxDistanceKm, err = floatParam(q.Get("maxDistanceKm"), "maxDistanceKm"); err != nil {
		return req, err
	}
	if req.MaxPrice, err = floatParam(q.Get("maxPrice"), "maxPrice"); err != nil {
		return req, err
	}
	req.FreeOnly = boolParam(q.Get("freeOnly"))
	req.VerifiedOnly = boolParam(q.Get("verifiedOnly"))
	req.Refresh = boolParam(q.Get("refresh"))
	return req, nil
}

func parseLimit(r *http.Request) (int, error) {
	return intParam(r.URL.Query().Get("limit"), "limit")
}

func intParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{name: name, kind: "an integer"}
	}
	return v, nil
}

func floatParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &paramError{name: name, kind: "a number"}
	}
	return &v, nil
}

func boolParam(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	}
	return false
}

type paramError struct {
	name string
	kind string
}

func (e *paramError) Error() string {
	return e.name + " must be " + e.kind
}
