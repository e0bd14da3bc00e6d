package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/recs/internal/history"
)

// FeedbackHandlers records user feedback (clicks, saves, conversions) against
// previously served recommendations, closing the loop for ranking evaluation.
type FeedbackHandlers struct {
	sink history.Sink
}

// NewFeedbackHandlers creates a new FeedbackHandlers instance.
func NewFeedbackHandlers(sink history.Sink) *FeedbackHandlers {
	return &FeedbackHandlers{sink: sink}
}

// Record handles POST /api/recommendations/feedback/{historyId}/{action}
// where action is one of clicked, saved, or converted.
func (h *FeedbackHandlers) Record(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	if h.sink == nil {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Feedback recording is not enabled")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/recommendations/feedback/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "History ID and action are required")
		return
	}

	historyID, err := uuid.Parse(parts[0])
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "History ID must be a valid UUID")
		return
	}

	now := time.Now().UTC()
	switch parts[1] {
	case "clicked":
		err = h.sink.MarkClicked(r.Context(), historyID, now)
	case "saved":
		err = h.sink.MarkSaved(r.Context(), historyID, now)
	case "converted":
		err = h.sink.MarkConverted(r.Context(), historyID, now)
	default:
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Action must be clicked, saved, or converted")
		return
	}

	if err != nil {
		if errors.Is(err, history.ErrRecordNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Recommendation history record not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to record feedback",
			"error", err,
			"history_id", historyID,
			"action", parts[1])
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to record feedback")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
