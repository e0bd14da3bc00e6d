package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type cachedItem struct {
	EventID string  `cbor:"event_id"`
	Score   float64 `cbor:"score"`
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := []cachedItem{
		{EventID: uuid.NewString(), Score: 0.94},
		{EventID: uuid.NewString(), Score: 0.71},
	}

	store.Set(ctx, "rec:trending", original, time.Minute)

	var got []cachedItem
	if !store.Get(ctx, "rec:trending", &got) {
		t.Fatal("expected cache hit immediately after set")
	}
	if len(got) != 2 || got[0] != original[0] || got[1] != original[1] {
		t.Errorf("round trip mismatch: got %+v, expected %+v", got, original)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	store := NewMemoryStore()

	var got []cachedItem
	if store.Get(context.Background(), "rec:trending", &got) {
		t.Error("expected miss for unknown key")
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	store.Set(ctx, "rec:trending", []cachedItem{{EventID: "e1", Score: 1}}, 10*time.Minute)

	var got []cachedItem
	if !store.Get(ctx, "rec:trending", &got) {
		t.Fatal("expected hit before expiry")
	}

	// Advance past the TTL.
	current = current.Add(11 * time.Minute)
	if store.Get(ctx, "rec:trending", &got) {
		t.Error("expected miss after TTL expiry")
	}
}

func TestMemoryStoreInvalidate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Set(ctx, "rec:trending", []cachedItem{{EventID: "e1"}}, time.Minute)
	store.Invalidate(ctx, "rec:trending")

	var got []cachedItem
	if store.Get(ctx, "rec:trending", &got) {
		t.Error("expected miss after invalidation")
	}
}

func TestMemoryStoreInvalidatePattern(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	store.Set(ctx, UserPageKey(userID, 0), []cachedItem{{EventID: "a"}}, time.Minute)
	store.Set(ctx, UserPageKey(userID, 1), []cachedItem{{EventID: "b"}}, time.Minute)
	store.Set(ctx, UserPageKey(otherID, 0), []cachedItem{{EventID: "c"}}, time.Minute)
	store.Set(ctx, TrendingKey(), []cachedItem{{EventID: "d"}}, time.Minute)

	store.InvalidatePattern(ctx, UserPagePattern(userID))

	var got []cachedItem
	if store.Get(ctx, UserPageKey(userID, 0), &got) || store.Get(ctx, UserPageKey(userID, 1), &got) {
		t.Error("expected all pages for the user to be invalidated")
	}
	if !store.Get(ctx, UserPageKey(otherID, 0), &got) {
		t.Error("other user's entries must survive pattern invalidation")
	}
	if !store.Get(ctx, TrendingKey(), &got) {
		t.Error("trending entry must survive user pattern invalidation")
	}
}

func TestKeyScheme(t *testing.T) {
	userID := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	eventID := uuid.MustParse("aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee")

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "user page",
			key:      UserPageKey(userID, 2),
			expected: "rec:user:11111111-2222-3333-4444-555555555555:page:2",
		},
		{
			name:     "trending singleton",
			key:      TrendingKey(),
			expected: "rec:trending",
		},
		{
			name:     "similar",
			key:      SimilarKey(eventID),
			expected: "rec:similar:aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		},
		{
			name:     "category lowercased",
			key:      CategoryKey(userID, "Music"),
			expected: "rec:category:11111111-2222-3333-4444-555555555555:music",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key != tt.expected {
				t.Errorf("key = %q, expected %q", tt.key, tt.expected)
			}
		})
	}

	if !strings.HasSuffix(UserPagePattern(userID), ":*") {
		t.Errorf("user pattern %q must end with glob", UserPagePattern(userID))
	}
}
