package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/api/internal/platform/httpx"
	"github.com/orderdesk/api/internal/services"
)

// DashboardHandlers exposes the operational dashboard endpoints.
type DashboardHandlers struct {
	orders services.OrderService
}

// NewDashboardHandlers constructs a new DashboardHandlers instance.
func NewDashboardHandlers(orders services.OrderService) *DashboardHandlers {
	return &DashboardHandlers{orders: orders}
}

// Routes registers the /dashboard endpoints.
func (h *DashboardHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/urgent", h.listUrgentOrders)
}

func (h *DashboardHandlers) listUrgentOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	ranked, err := h.orders.RankOpenOrders(ctx)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payloads := make([]rankedOrderPayload, 0, len(ranked))
	for _, entry := range ranked {
		payloads = append(payloads, rankedOrderPayload{
			Order:             buildOrderPayload(entry.Order),
			EffectivePriority: entry.EffectivePriority,
			Tier:              string(entry.Tier),
		})
	}
	writeJSONResponse(w, http.StatusOK, urgentOrdersResponse{Orders: payloads})
}

type urgentOrdersResponse struct {
	Orders []rankedOrderPayload `json:"orders"`
}

type rankedOrderPayload struct {
	Order             orderPayload `json:"order"`
	EffectivePriority int          `json:"effective_priority"`
	Tier              string       `json:"tier"`
}
