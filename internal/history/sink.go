package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrRecordNotFound is returned when a feedback update targets an unknown
// history record.
var ErrRecordNotFound = errors.New("history record not found")

// Sink persists recommendation records. Append is batch and best-effort;
// the Mark* methods apply feedback mutations to already-persisted records.
type Sink interface {
	Append(ctx context.Context, records []Record) error

	MarkClicked(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkSaved(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkConverted(ctx context.Context, id uuid.UUID, at time.Time) error
}

// PostgresSink implements Sink on PostgreSQL.
type PostgresSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresSink creates a PostgresSink.
func NewPostgresSink(db *sql.DB, logger *slog.Logger) *PostgresSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSink{db: db, logger: logger}
}

// Append inserts a batch of records in one transaction. The whole batch is
// committed or rolled back atomically.
func (s *PostgresSink) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			s.logger.Warn("failed to rollback history transaction", "error", err)
		}
	}()

	const insert = `
		INSERT INTO recommendation_history (
			id, user_id, event_id, score, rank_position,
			geo_score, interest_score, interaction_score, popularity_score, recency_score,
			reasons, algorithm_version, distance_km, recommended_at,
			clicked, saved, converted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, false, false, false)
	`

	for _, r := range records {
		id := r.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := tx.ExecContext(ctx, insert,
			id, r.UserID, r.EventID, r.Score, r.RankPosition,
			r.Breakdown.Geo, r.Breakdown.Interest, r.Breakdown.Interaction,
			r.Breakdown.Popularity, r.Breakdown.Recency,
			pq.Array(r.Reasons), r.AlgorithmVersion, r.DistanceKm, r.RecommendedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert history record for event %s: %w", r.EventID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history batch: %w", err)
	}

	s.logger.Debug("appended recommendation history", "count", len(records))
	return nil
}

// MarkClicked implements Sink.
func (s *PostgresSink) MarkClicked(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.mark(ctx, id, "clicked", "clicked_at", at)
}

// MarkSaved implements Sink.
func (s *PostgresSink) MarkSaved(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.mark(ctx, id, "saved", "saved_at", at)
}

// MarkConverted implements Sink.
func (s *PostgresSink) MarkConverted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.mark(ctx, id, "converted", "converted_at", at)
}

// mark sets one feedback flag and its timestamp. flag and tsColumn are
// compile-time constants from the Mark* methods, never caller input.
func (s *PostgresSink) mark(ctx context.Context, id uuid.UUID, flag, tsColumn string, at time.Time) error {
	query := fmt.Sprintf(
		"UPDATE recommendation_history SET %s = true, %s = $1 WHERE id = $2",
		flag, tsColumn,
	)

	result, err := s.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark history record %s: %w", flag, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MemorySink is an in-memory Sink for tests. Thread-safe.
type MemorySink struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record

	// appendErr, when set, is returned by Append to simulate sink failure.
	appendErr error
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{records: make(map[uuid.UUID]*Record)}
}

// FailWith makes subsequent Append calls return err.
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// Append implements Sink.
func (s *MemorySink) Append(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	for _, r := range records {
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		stored := r
		s.records[r.ID] = &stored
	}
	return nil
}

// MarkClicked implements Sink.
func (s *MemorySink) MarkClicked(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	r.Clicked = true
	r.ClickedAt = &at
	return nil
}

// MarkSaved implements Sink.
func (s *MemorySink) MarkSaved(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	r.Saved = true
	r.SavedAt = &at
	return nil
}

// MarkConverted implements Sink.
func (s *MemorySink) MarkConverted(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrRecordNotFound
	}
	r.Converted = true
	r.ConvertedAt = &at
	return nil
}

// All returns a snapshot of stored records. Intended for tests.
func (s *MemorySink) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out
}
