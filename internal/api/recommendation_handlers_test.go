package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/middleware"
	"github.com/gatherly/recs/internal/recommend"
)

// fakeEngine records calls and returns canned recommendations.
type fakeEngine struct {
	recommendations []recommend.Recommendation
	err             error

	lastUserID   uuid.UUID
	lastToken    string
	lastReq      recommend.Request
	lastEventID  uuid.UUID
	lastCategory string
	lastLimit    int
	invalidated  []uuid.UUID
}

func (f *fakeEngine) GetPersonalized(_ context.Context, userID uuid.UUID, token string, req recommend.Request) ([]recommend.Recommendation, error) {
	f.lastUserID, f.lastToken, f.lastReq = userID, token, req
	return f.recommendations, f.err
}

func (f *fakeEngine) GetTrending(_ context.Context, limit int) ([]recommend.Recommendation, error) {
	f.lastLimit = limit
	return f.recommendations, f.err
}

func (f *fakeEngine) GetSimilar(_ context.Context, eventID uuid.UUID, limit int) ([]recommend.Recommendation, error) {
	f.lastEventID, f.lastLimit = eventID, limit
	return f.recommendations, f.err
}

func (f *fakeEngine) GetByCategory(_ context.Context, userID uuid.UUID, category, token string, limit int) ([]recommend.Recommendation, error) {
	f.lastUserID, f.lastCategory, f.lastToken, f.lastLimit = userID, category, token, limit
	return f.recommendations, f.err
}

func (f *fakeEngine) InvalidateUser(_ context.Context, userID uuid.UUID) {
	f.invalidated = append(f.invalidated, userID)
}

func authedRequest(method, target string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := middleware.SetUserID(req.Context(), userID)
	ctx = middleware.SetBearerToken(ctx, "test-token")
	return req.WithContext(ctx)
}

func TestGetPersonalizedParsesQueryParams(t *testing.T) {
	engine := &fakeEngine{recommendations: []recommend.Recommendation{{Title: "one", Rank: 1}}}
	h := NewRecommendationHandlers(engine)

	userID := uuid.New()
	req := authedRequest(http.MethodGet,
		"/api/recommendations/events?page=2&size=10&category=music&maxDistanceKm=12.5&maxPrice=30&freeOnly=true&refresh=1",
		userID)
	rec := httptest.NewRecorder()
	h.GetPersonalized(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if engine.lastUserID != userID {
		t.Errorf("user ID = %s, want %s", engine.lastUserID, userID)
	}
	if engine.lastToken != "test-token" {
		t.Errorf("token = %q, want forwarded bearer token", engine.lastToken)
	}
	got := engine.lastReq
	if got.Page != 2 || got.Size != 10 || got.Category != "music" || !got.FreeOnly || !got.Refresh {
		t.Errorf("request = %+v, want parsed query values", got)
	}
	if got.MaxDistanceKm == nil || *got.MaxDistanceKm != 12.5 {
		t.Errorf("maxDistanceKm = %v, want 12.5", got.MaxDistanceKm)
	}
	if got.MaxPrice == nil || *got.MaxPrice != 30 {
		t.Errorf("maxPrice = %v, want 30", got.MaxPrice)
	}

	var body []recommend.Recommendation
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body) != 1 || body[0].Title != "one" {
		t.Errorf("body = %+v, want the engine's recommendations", body)
	}
}

func TestGetPersonalizedRequiresAuth(t *testing.T) {
	h := NewRecommendationHandlers(&fakeEngine{})
	rec := httptest.NewRecorder()
	h.GetPersonalized(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations/events", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestGetPersonalizedRejectsBadParams(t *testing.T) {
	h := NewRecommendationHandlers(&fakeEngine{})
	req := authedRequest(http.MethodGet, "/api/recommendations/events?page=abc", uuid.New())
	rec := httptest.NewRecorder()
	h.GetPersonalized(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetPersonalizedEngineError(t *testing.T) {
	h := NewRecommendationHandlers(&fakeEngine{err: errors.New("boom")})
	req := authedRequest(http.MethodGet, "/api/recommendations/events", uuid.New())
	rec := httptest.NewRecorder()
	h.GetPersonalized(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Error.Code != ErrCodeInternal {
		t.Errorf("error code = %q, want %q", resp.Error.Code, ErrCodeInternal)
	}
}

func TestGetTrendingPassesLimit(t *testing.T) {
	engine := &fakeEngine{recommendations: []recommend.Recommendation{}}
	h := NewRecommendationHandlers(engine)

	rec := httptest.NewRecorder()
	h.GetTrending(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations/trending?limit=7", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if engine.lastLimit != 7 {
		t.Errorf("limit = %d, want 7", engine.lastLimit)
	}
}

func TestGetSimilarParsesEventID(t *testing.T) {
	engine := &fakeEngine{recommendations: []recommend.Recommendation{}}
	h := NewRecommendationHandlers(engine)

	eventID := uuid.New()
	rec := httptest.NewRecorder()
	h.GetSimilar(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations/similar/"+eventID.String(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if engine.lastEventID != eventID {
		t.Errorf("event ID = %s, want %s", engine.lastEventID, eventID)
	}
}

func TestGetSimilarRejectsNonUUID(t *testing.T) {
	h := NewRecommendationHandlers(&fakeEngine{})
	rec := httptest.NewRecorder()
	h.GetSimilar(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations/similar/not-a-uuid", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetByCategoryPassesCategory(t *testing.T) {
	engine := &fakeEngine{recommendations: []recommend.Recommendation{}}
	h := NewRecommendationHandlers(engine)

	userID := uuid.New()
	req := authedRequest(http.MethodGet, "/api/recommendations/category/music?limit=5", userID)
	rec := httptest.NewRecorder()
	h.GetByCategory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if engine.lastCategory != "music" {
		t.Errorf("category = %q, want %q", engine.lastCategory, "music")
	}
	if engine.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", engine.lastLimit)
	}
}

func TestInvalidateCache(t *testing.T) {
	engine := &fakeEngine{}
	h := NewRecommendationHandlers(engine)

	userID := uuid.New()
	req := authedRequest(http.MethodDelete, "/api/recommendations/cache", userID)
	rec := httptest.NewRecorder()
	h.InvalidateCache(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(engine.invalidated) != 1 || engine.invalidated[0] != userID {
		t.Errorf("invalidated = %v, want [%s]", engine.invalidated, userID)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := NewRecommendationHandlers(&fakeEngine{})

	rec := httptest.NewRecorder()
	h.GetTrending(rec, httptest.NewRequest(http.MethodPost, "/api/recommendations/trending", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
