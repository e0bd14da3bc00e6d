package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/history"
)

func seedRecord(t *testing.T, sink *history.MemorySink) uuid.UUID {
	t.Helper()
	record := history.Record{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		EventID:       uuid.New(),
		Score:         0.8,
		RankPosition:  1,
		RecommendedAt: time.Now().UTC(),
	}
	if err := sink.Append(context.Background(), []history.Record{record}); err != nil {
		t.Fatalf("seeding record: %v", err)
	}
	return record.ID
}

func TestFeedbackRecordsActions(t *testing.T) {
	for _, action := range []string{"clicked", "saved", "converted"} {
		t.Run(action, func(t *testing.T) {
			sink := history.NewMemorySink()
			id := seedRecord(t, sink)
			h := NewFeedbackHandlers(sink)

			target := "/api/recommendations/feedback/" + id.String() + "/" + action
			rec := httptest.NewRecorder()
			h.Record(rec, httptest.NewRequest(http.MethodPost, target, nil))

			if rec.Code != http.StatusNoContent {
				t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
			}

			stored := sink.All()[0]
			switch action {
			case "clicked":
				if !stored.Clicked || stored.ClickedAt == nil {
					t.Error("clicked flag not set")
				}
			case "saved":
				if !stored.Saved || stored.SavedAt == nil {
					t.Error("saved flag not set")
				}
			case "converted":
				if !stored.Converted || stored.ConvertedAt == nil {
					t.Error("converted flag not set")
				}
			}
		})
	}
}

func TestFeedbackUnknownRecord(t *testing.T) {
	h := NewFeedbackHandlers(history.NewMemorySink())

	target := "/api/recommendations/feedback/" + uuid.New().String() + "/clicked"
	rec := httptest.NewRecorder()
	h.Record(rec, httptest.NewRequest(http.MethodPost, target, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFeedbackValidation(t *testing.T) {
	sink := history.NewMemorySink()
	id := seedRecord(t, sink)
	h := NewFeedbackHandlers(sink)

	tests := []struct {
		name   string
		method string
		target string
		want   int
	}{
		{"unknown action", http.MethodPost, "/api/recommendations/feedback/" + id.String() + "/liked", http.StatusBadRequest},
		{"bad uuid", http.MethodPost, "/api/recommendations/feedback/nope/clicked", http.StatusBadRequest},
		{"missing parts", http.MethodPost, "/api/recommendations/feedback/" + id.String(), http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/api/recommendations/feedback/" + id.String() + "/clicked", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Record(rec, httptest.NewRequest(tt.method, tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestFeedbackDisabledSink(t *testing.T) {
	h := NewFeedbackHandlers(nil)
	target := "/api/recommendations/feedback/" + uuid.New().String() + "/clicked"
	rec := httptest.NewRecorder()
	h.Record(rec, httptest.NewRequest(http.MethodPost, target, nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when history is disabled", rec.Code)
	}
}
