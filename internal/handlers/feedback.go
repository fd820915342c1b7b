package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/api/internal/platform/httpx"
	"github.com/orderdesk/api/internal/repositories"
	"github.com/orderdesk/api/internal/services"
)

// FeedbackHandlers exposes order-scoped customer feedback endpoints.
type FeedbackHandlers struct {
	feedback services.FeedbackService
}

// NewFeedbackHandlers constructs a new FeedbackHandlers instance.
func NewFeedbackHandlers(feedback services.FeedbackService) *FeedbackHandlers {
	return &FeedbackHandlers{feedback: feedback}
}

// Routes registers the /orders/{orderId}/feedback endpoints. The registrar is
// meant to run inside the orders route group.
func (h *FeedbackHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/{orderId}/feedback", h.recordFeedback)
	r.Get("/{orderId}/feedback", h.listFeedback)
}

func (h *FeedbackHandlers) recordFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.feedback == nil {
		httpx.WriteError(ctx, w, httpx.NewError("feedback_service_unavailable", "feedback service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))

	var req recordFeedbackRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	entry, err := h.feedback.RecordFeedback(ctx, services.RecordFeedbackCommand{
		OrderID: orderID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, feedbackResponse{Feedback: buildFeedbackPayload(entry)})
}

func (h *FeedbackHandlers) listFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.feedback == nil {
		httpx.WriteError(ctx, w, httpx.NewError("feedback_service_unavailable", "feedback service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	entries, err := h.feedback.ListFeedback(ctx, orderID)
	if err != nil {
		writeFeedbackError(ctx, w, err)
		return
	}

	payloads := make([]feedbackPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, buildFeedbackPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, feedbackListResponse{Feedback: payloads})
}

type recordFeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type feedbackResponse struct {
	Feedback feedbackPayload `json:"feedback"`
}

type feedbackListResponse struct {
	Feedback []feedbackPayload `json:"feedback"`
}

type feedbackPayload struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

func buildFeedbackPayload(entry services.Feedback) feedbackPayload {
	return feedbackPayload{
		ID:        entry.ID,
		OrderID:   entry.OrderRef,
		Rating:    entry.Rating,
		Comment:   entry.Comment,
		CreatedAt: formatTime(entry.CreatedAt),
	}
}

func writeFeedbackError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", validation.Error(), http.StatusBadRequest).
			WithDetails(map[string]any{"field": validation.Field}))
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("feedback_service_unavailable", "feedback storage unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("feedback_error", "failed to process feedback request", http.StatusInternalServerError))
	}
}
