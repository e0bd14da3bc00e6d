package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/cache"
	"github.com/gatherly/recs/internal/event"
	"github.com/gatherly/recs/internal/geo"
	"github.com/gatherly/recs/internal/history"
	"github.com/gatherly/recs/internal/scoring"
	"github.com/gatherly/recs/internal/upstream"
)

// Engine operation defaults.
const (
	DefaultRadiusKm          = 20.0
	DefaultCandidatePoolSize = 100
)

// Config carries the engine's tunables.
type Config struct {
	DefaultPageSize   int
	MaxPageSize       int
	DefaultRadiusKm   float64
	CandidatePoolSize int
	TTL               cache.TTLConfig
}

func (c *Config) applyDefaults() {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = DefaultPageSize
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = MaxPageSize
	}
	if c.DefaultRadiusKm <= 0 {
		c.DefaultRadiusKm = DefaultRadiusKm
	}
	if c.CandidatePoolSize <= 0 {
		c.CandidatePoolSize = DefaultCandidatePoolSize
	}
	if c.TTL == (cache.TTLConfig{}) {
		c.TTL = cache.DefaultTTLConfig()
	}
}

// Engine produces ranked event recommendations. It orchestrates the upstream
// fetches, filtering, scoring, sorting, pagination, cache-aside reads and
// writes, and asynchronous history dispatch.
type Engine struct {
	cfg Config

	events       upstream.EventSource
	interactions upstream.InteractionSource
	users        upstream.UserSource

	store    cache.Store
	recorder *history.Recorder
	scorer   *scoring.Scorer

	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a ranking engine. recorder and metrics may be nil.
func NewEngine(
	cfg Config,
	events upstream.EventSource,
	interactions upstream.InteractionSource,
	users upstream.UserSource,
	store cache.Store,
	recorder *history.Recorder,
	scorer *scoring.Scorer,
	metrics *Metrics,
	logger *slog.Logger,
) *Engine {
	cfg.applyDefaults()
	if scorer == nil {
		scorer = scoring.NewScorer(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:          cfg,
		events:       events,
		interactions: interactions,
		users:        users,
		store:        store,
		recorder:     recorder,
		scorer:       scorer,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// GetPersonalized returns one page of personalized recommendations for a
// user. Failures of the user or interaction services degrade to defaults;
// only a failure to obtain any candidate events yields an empty result.
func (e *Engine) GetPersonalized(ctx context.Context, userID uuid.UUID, token string, req Request) ([]Recommendation, error) {
	start := e.now()
	req.Normalize(e.cfg.DefaultPageSize, e.cfg.MaxPageSize)

	key := cache.UserPageKey(userID, req.Page)
	if !req.Refresh {
		var cached []Recommendation
		if e.store.Get(ctx, key, &cached) {
			e.observe("personalized", "hit", 0, start)
			return cached, nil
		}
	}
	cacheOutcome := "miss"
	if req.Refresh {
		cacheOutcome = "bypass"
	}

	user := e.userContext(ctx, userID, token)
	interactions := e.userInteractions(ctx, userID, token)
	user.HasInteractions = len(interactions) > 0

	candidates, err := e.fetchCandidates(ctx, user, req.MaxDistanceKm)
	if err != nil {
		e.logger.Error("failed to fetch candidate events",
			"user_id", userID,
			"error", err)
		e.observe("personalized", cacheOutcome, 0, start)
		return []Recommendation{}, nil
	}

	scored := e.scoreCandidates(candidates, user, interactions, &req)
	sortByScore(scored)
	assignRanks(scored)

	page := paginate(scored, req.Page, req.Size)

	e.store.Set(ctx, key, page, e.cfg.TTL.UserRecommendations)
	e.recordHistory(userID, page)

	e.observe("personalized", cacheOutcome, len(scored), start)
	return page, nil
}

// GetTrending returns up to limit events ranked purely by popularity and
// recency. The full ranked pool is cached once and shared across callers.
func (e *Engine) GetTrending(ctx context.Context, limit int) ([]Recommendation, error) {
	start := e.now()
	limit = e.clampLimit(limit)

	key := cache.TrendingKey()
	var cached []Recommendation
	if e.store.Get(ctx, key, &cached) {
		e.observe("trending", "hit", 0, start)
		return head(cached, limit), nil
	}

	pool, err := e.events.Upcoming(ctx, e.cfg.CandidatePoolSize)
	if err != nil {
		e.observe("trending", "miss", 0, start)
		return []Recommendation{}, nil
	}

	now := e.now()
	scored := make([]Recommendation, 0, len(pool))
	for i := range pool {
		ev := &pool[i]
		if malformed(ev) {
			e.logger.Warn("skipping malformed candidate", "event_id", ev.ID)
			continue
		}
		b := scoring.Breakdown{
			Popularity: scoring.PopularityScore(ev.TotalInteractions()),
			Recency:    scoring.RecencyScore(ev.StartTime, now),
		}
		b.Final = scoring.TrendingScore(ev, now)
		scored = append(scored, newRecommendation(ev, b.Final, &b, []string{"Trending now"}, geo.MaxDistanceKm))
	}
	sortByScore(scored)
	assignRanks(scored)

	e.store.Set(ctx, key, scored, e.cfg.TTL.Trending)

	e.observe("trending", "miss", len(scored), start)
	return head(scored, limit), nil
}

// GetSimilar returns up to limit events in the same category as the target
// event, ranked by proximity to the target and popularity. An unknown target
// yields an empty result, not an error.
func (e *Engine) GetSimilar(ctx context.Context, eventID uuid.UUID, limit int) ([]Recommendation, error) {
	start := e.now()
	limit = e.clampLimit(limit)

	key := cache.SimilarKey(eventID)
	var cached []Recommendation
	if e.store.Get(ctx, key, &cached) {
		e.observe("similar", "hit", 0, start)
		return head(cached, limit), nil
	}

	pool, err := e.events.Upcoming(ctx, e.cfg.CandidatePoolSize)
	if err != nil {
		e.observe("similar", "miss", 0, start)
		return []Recommendation{}, nil
	}

	var target *event.Event
	for i := range pool {
		if pool[i].ID == eventID {
			target = &pool[i]
			break
		}
	}
	if target == nil {
		e.logger.Warn("similar target not found in candidate pool", "event_id", eventID)
		e.observe("similar", "miss", 0, start)
		return []Recommendation{}, nil
	}

	scored := make([]Recommendation, 0, len(pool))
	for i := range pool {
		ev := &pool[i]
		if ev.ID == target.ID || malformed(ev) || !ev.MatchesCategory(target.CategoryName()) {
			continue
		}

		// Unknown distance counts as co-located, keeping location-less
		// events rankable within the category.
		distance := 0.0
		if target.Location.Valid() && ev.Location.Valid() {
			distance = geo.DistanceKm(target.Location, ev.Location)
		}

		b := scoring.Breakdown{
			Geo:        geo.Score(distance),
			Popularity: scoring.PopularityScore(ev.TotalInteractions()),
		}
		b.Final = scoring.SimilarScore(ev, distance)
		scored = append(scored, newRecommendation(ev, b.Final, &b, []string{"Similar to " + target.Title}, distance))
	}
	sortByScore(scored)
	assignRanks(scored)

	e.store.Set(ctx, key, scored, e.cfg.TTL.Similar)

	e.observe("similar", "miss", len(scored), start)
	return head(scored, limit), nil
}

// GetByCategory returns up to limit events in the given category, personalized
// for the user. The category may be a category ID or a category name.
func (e *Engine) GetByCategory(ctx context.Context, userID uuid.UUID, category, token string, limit int) ([]Recommendation, error) {
	start := e.now()
	limit = e.clampLimit(limit)

	key := cache.CategoryKey(userID, category)
	var cached []Recommendation
	if e.store.Get(ctx, key, &cached) {
		e.observe("category", "hit", 0, start)
		return head(cached, limit), nil
	}

	user := e.userContext(ctx, userID, token)
	interactions := e.userInteractions(ctx, userID, token)
	user.HasInteractions = len(interactions) > 0

	candidates, err := e.categoryCandidates(ctx, category)
	if err != nil {
		e.logger.Error("failed to fetch category candidates",
			"category", category,
			"error", err)
		e.observe("category", "miss", 0, start)
		return []Recommendation{}, nil
	}

	// categoryCandidates already narrowed the pool, so no category filter here:
	// on the ID path the candidates carry the endpoint's category, whose name
	// would never match the raw ID string.
	req := Request{}
	scored := e.scoreCandidates(candidates, user, interactions, &req)
	sortByScore(scored)
	assignRanks(scored)

	e.store.Set(ctx, key, scored, e.cfg.TTL.Category)

	e.observe("category", "miss", len(scored), start)
	return head(scored, limit), nil
}

// InvalidateUser drops every cached page and category listing for a user,
// typically after a preference change or a strong interaction signal.
func (e *Engine) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	e.store.InvalidatePattern(ctx, cache.UserPagePattern(userID))
	e.store.InvalidatePattern(ctx, cache.CategoryPattern(userID))
}

// InvalidateTrending drops the shared trending listing.
func (e *Engine) InvalidateTrending(ctx context.Context) {
	e.store.Invalidate(ctx, cache.TrendingKey())
}

// InvalidateSimilar drops the similar-events listing for one event.
func (e *Engine) InvalidateSimilar(ctx context.Context, eventID uuid.UUID) {
	e.store.Invalidate(ctx, cache.SimilarKey(eventID))
}

// userContext fetches the user's preferences, degrading to the deterministic
// default context when the user service is unavailable.
func (e *Engine) userContext(ctx context.Context, userID uuid.UUID, token string) *scoring.UserContext {
	user, err := e.users.Preferences(ctx, userID, token)
	if err != nil || user == nil {
		return e.users.DefaultContext(userID)
	}
	return user
}

// userInteractions fetches the user's interaction history, degrading to none.
func (e *Engine) userInteractions(ctx context.Context, userID uuid.UUID, token string) []event.Interaction {
	interactions, err := e.interactions.ForUser(ctx, userID, token)
	if err != nil {
		return nil
	}
	return interactions
}

// fetchCandidates returns the candidate pool: a radius query around the
// user's location when known, otherwise the global upcoming pool.
func (e *Engine) fetchCandidates(ctx context.Context, user *scoring.UserContext, maxDistanceKm *float64) ([]event.Event, error) {
	if user.HasLocation() {
		radius := e.cfg.DefaultRadiusKm
		if maxDistanceKm != nil && *maxDistanceKm > 0 {
			radius = *maxDistanceKm
		}
		return e.events.Nearby(ctx, user.Location.Lat, user.Location.Lng, radius)
	}
	return e.events.Upcoming(ctx, e.cfg.CandidatePoolSize)
}

// categoryCandidates resolves the category argument: a UUID goes straight to
// the category endpoint, a name filters the upcoming pool.
func (e *Engine) categoryCandidates(ctx context.Context, category string) ([]event.Event, error) {
	if id, err := uuid.Parse(category); err == nil {
		return e.events.ByCategory(ctx, id, e.cfg.CandidatePoolSize)
	}

	pool, err := e.events.Upcoming(ctx, e.cfg.CandidatePoolSize)
	if err != nil {
		return nil, err
	}
	filtered := pool[:0]
	for i := range pool {
		if pool[i].MatchesCategory(category) {
			filtered = append(filtered, pool[i])
		}
	}
	return filtered, nil
}

// scoreCandidates filters and scores the candidate pool for one user.
// Malformed candidates are skipped, never fatal.
func (e *Engine) scoreCandidates(candidates []event.Event, user *scoring.UserContext, interactions []event.Interaction, req *Request) []Recommendation {
	now := e.now()
	scored := make([]Recommendation, 0, len(candidates))

	for i := range candidates {
		ev := &candidates[i]
		if malformed(ev) {
			e.logger.Warn("skipping malformed candidate", "event_id", ev.ID)
			continue
		}
		if !req.matches(ev) {
			continue
		}

		distance := geo.DistanceKm(user.Location, ev.Location)
		if req.MaxDistanceKm != nil && distance != geo.MaxDistanceKm && distance > *req.MaxDistanceKm {
			continue
		}

		var b scoring.Breakdown
		var reasons []string
		if user.ColdStart() {
			b = e.scorer.ColdStartScore(ev, user, distance, now)
			reasons = scoring.ColdStartReasons(ev, distance)
		} else {
			b = e.scorer.Score(ev, user, interactions, distance, now)
			reasons = scoring.Reasons(ev, user, b, distance)
		}

		scored = append(scored, newRecommendation(ev, b.Final, &b, reasons, distance))
	}
	return scored
}

// recordHistory dispatches the served page to the asynchronous history
// recorder. A full queue drops the batch; serving is never blocked.
func (e *Engine) recordHistory(userID uuid.UUID, page []Recommendation) {
	if e.recorder == nil || len(page) == 0 {
		return
	}

	now := e.now()
	records := make([]history.Record, 0, len(page))
	for _, rec := range page {
		records = append(records, history.Record{
			ID:               uuid.New(),
			UserID:           userID,
			EventID:          rec.EventID,
			Score:            rec.Score,
			RankPosition:     rec.Rank,
			Breakdown:        *rec.Breakdown,
			Reasons:          rec.Reasons,
			AlgorithmVersion: history.AlgorithmVersion,
			DistanceKm:       rec.DistanceKm,
			RecommendedAt:    now,
		})
	}
	e.recorder.Enqueue(records)
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultPageSize
	}
	if limit > e.cfg.MaxPageSize {
		return e.cfg.MaxPageSize
	}
	return limit
}

func (e *Engine) observe(operation, cacheOutcome string, candidates int, start time.Time) {
	e.metrics.observeRequest(operation, cacheOutcome, candidates, e.now().Sub(start).Seconds())
}

// malformed reports whether a candidate lacks the fields scoring depends on.
func malformed(e *event.Event) bool {
	return e.ID == uuid.Nil || e.StartTime.IsZero()
}

// sortByScore orders recommendations by descending score, breaking ties by
// ascending event ID so repeated requests over the same pool rank identically.
func sortByScore(recommendations []Recommendation) {
	sort.Slice(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return strings.Compare(a.EventID.String(), b.EventID.String()) < 0
	})
}

// assignRanks numbers the sorted list 1-based.
func assignRanks(recommendations []Recommendation) {
	for i := range recommendations {
		recommendations[i].Rank = i + 1
	}
}

func head(recommendations []Recommendation, limit int) []Recommendation {
	if limit >= len(recommendations) {
		return recommendations
	}
	return recommendations[:limit]
}
