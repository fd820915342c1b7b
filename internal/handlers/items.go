package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/api/internal/platform/httpx"
	"github.com/orderdesk/api/internal/repositories"
	"github.com/orderdesk/api/internal/services"
)

// ItemHandlers exposes catalog item management endpoints.
type ItemHandlers struct {
	catalog services.CatalogService
}

// NewItemHandlers constructs a new ItemHandlers instance.
func NewItemHandlers(catalog services.CatalogService) *ItemHandlers {
	return &ItemHandlers{catalog: catalog}
}

// Routes registers the /items endpoints.
func (h *ItemHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createItem)
	r.Get("/", h.listItems)
	r.Get("/{itemId}", h.getItem)
	r.Patch("/{itemId}", h.updateItem)
}

func (h *ItemHandlers) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createItemRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	item, err := h.catalog.CreateItem(ctx, services.CreateItemCommand{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Active:    req.Active,
	})
	if err != nil {
		writeItemError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, itemResponse{Item: buildItemPayload(item)})
}

func (h *ItemHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	filter := services.ItemListFilter{}
	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "active must be a boolean", http.StatusBadRequest))
			return
		}
		filter.ActiveOnly = active
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
			return
		}
		filter.Limit = limit
	}

	items, err := h.catalog.ListItems(ctx, filter)
	if err != nil {
		writeItemError(ctx, w, err)
		return
	}

	payloads := make([]itemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, buildItemPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, itemListResponse{Items: payloads})
}

func (h *ItemHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
	item, err := h.catalog.GetItem(ctx, itemID)
	if err != nil {
		writeItemError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, itemResponse{Item: buildItemPayload(item)})
}

func (h *ItemHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))

	var req updateItemRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	item, err := h.catalog.UpdateItem(ctx, services.UpdateItemCommand{
		ItemID:    itemID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Active:    req.Active,
	})
	if err != nil {
		writeItemError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, itemResponse{Item: buildItemPayload(item)})
}

type createItemRequest struct {
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Active    *bool  `json:"active"`
}

type updateItemRequest struct {
	Name      *string `json:"name"`
	UnitPrice *int64  `json:"unit_price"`
	Active    *bool   `json:"active"`
}

type itemResponse struct {
	Item itemPayload `json:"item"`
}

type itemListResponse struct {
	Items []itemPayload `json:"items"`
}

type itemPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func buildItemPayload(item services.CatalogItem) itemPayload {
	return itemPayload{
		ID:        item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Active:    item.Active,
		CreatedAt: formatTime(item.CreatedAt),
		UpdatedAt: formatTime(item.UpdatedAt),
	}
}

func writeItemError(ctx context.Context, w http.ResponseWriter, err error) {
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
	case errors.Is(err, services.ErrItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "catalog item not found", http.StatusNotFound))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) {
			if repoErr.IsConflict() {
				httpx.WriteError(ctx, w, httpx.NewError("item_conflict", "catalog item was modified concurrently", http.StatusConflict))
				return
			}
			if repoErr.IsUnavailable() {
				httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog storage unavailable", http.StatusServiceUnavailable))
				return
			}
		}
		httpx.WriteError(ctx, w, httpx.NewError("item_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}
