// Package cache provides the namespaced, TTL-based cache-aside store for
// ranked recommendation lists. The cache is strictly an optimization: every
// store error is degraded to a miss or a no-op and never surfaced to callers.
package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key prefixes per cache kind. Values under different kinds never collide.
const (
	userPrefix     = "rec:user:"
	trendingKey    = "rec:trending"
	similarPrefix  = "rec:similar:"
	categoryPrefix = "rec:category:"
)

// UserPageKey returns the cache key for one page of a user's personalized
// recommendations.
func UserPageKey(userID uuid.UUID, page int) string {
	return fmt.Sprintf("%s%s:page:%d", userPrefix, userID, page)
}

// TrendingKey returns the singleton cache key for globally trending events.
func TrendingKey() string {
	return trendingKey
}

// SimilarKey returns the cache key for events similar to the given event.
func SimilarKey(eventID uuid.UUID) string {
	return similarPrefix + eventID.String()
}

// CategoryKey returns the cache key for a user's recommendations within one
// category. The category is lowercased so case variants share an entry.
func CategoryKey(userID uuid.UUID, category string) string {
	return fmt.Sprintf("%s%s:%s", categoryPrefix, userID, strings.ToLower(category))
}

// UserPagePattern matches all per-page entries for a user.
func UserPagePattern(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s:*", userPrefix, userID)
}

// CategoryPattern matches all per-category entries for a user.
func CategoryPattern(userID uuid.UUID) string {
	return fmt.Sprintf("%s%s:*", categoryPrefix, userID)
}

// TTLConfig holds the independently configured TTL per cache kind.
type TTLConfig struct {
	UserRecommendations time.Duration
	Trending            time.Duration
	Similar             time.Duration
	Category            time.Duration
}

// DefaultTTLConfig returns the default per-kind TTLs.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		UserRecommendations: 15 * time.Minute,
		Trending:            30 * time.Minute,
		Similar:             60 * time.Minute,
		Category:            15 * time.Minute,
	}
}
