package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/orderdesk/api/internal/domain"
	"github.com/orderdesk/api/internal/platform/httpx"
	"github.com/orderdesk/api/internal/repositories"
	"github.com/orderdesk/api/internal/services"
)

const maxOrderBodySize = 256 * 1024

// OrderHandlers exposes the order CRUD endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderId}", h.getOrder)
	r.Patch("/{orderId}", h.updateOrder)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createOrderRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	input := services.CreateOrderInput{
		Channel:              strings.TrimSpace(req.Channel),
		CustomerName:         req.CustomerName,
		CustomerID:           strings.TrimSpace(req.CustomerID),
		Items:                buildLineItemInputs(req.Items),
		Status:               req.Status,
		PaymentStatus:        req.PaymentStatus,
		PaidAmount:           req.PaidAmount,
		ConfirmationStatus:   req.ConfirmationStatus,
		DeliveryStatus:       req.DeliveryStatus,
		TrackingID:           strings.TrimSpace(req.TrackingID),
		DeliveryPartner:      strings.TrimSpace(req.DeliveryPartner),
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Notes:                req.Notes,
		Priority:             req.Priority,
	}

	order, err := h.orders.CreateOrder(ctx, input)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	filter, err := parseOrderListFilter(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payloads := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payloads = append(payloads, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Orders: payloads})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))

	var req updateOrderRequest
	if !decodeRequest(ctx, w, r, &req) {
		return
	}

	patch := services.OrderPatch{
		Channel:              req.Channel,
		CustomerName:         req.CustomerName,
		CustomerID:           req.CustomerID,
		Items:                buildLineItemPatch(req.Items),
		Status:               req.Status,
		PaymentStatus:        req.PaymentStatus,
		PaidAmount:           req.PaidAmount,
		ConfirmationStatus:   req.ConfirmationStatus,
		DeliveryStatus:       req.DeliveryStatus,
		TrackingID:           req.TrackingID,
		DeliveryPartner:      req.DeliveryPartner,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		ActualDeliveryDate:   req.ActualDeliveryDate,
		Notes:                req.Notes,
		Priority:             req.Priority,
	}

	order, err := h.orders.UpdateOrder(ctx, orderID, patch)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

type lineItemRequest struct {
	ItemID        string `json:"item_id"`
	Quantity      int    `json:"quantity"`
	Customization string `json:"customization"`
}

type createOrderRequest struct {
	Channel              string            `json:"channel"`
	CustomerName         string            `json:"customer_name"`
	CustomerID           string            `json:"customer_id"`
	Items                []lineItemRequest `json:"items"`
	Status               *string           `json:"status"`
	PaymentStatus        *string           `json:"payment_status"`
	PaidAmount           *int64            `json:"paid_amount"`
	ConfirmationStatus   *string           `json:"confirmation_status"`
	DeliveryStatus       *string           `json:"delivery_status"`
	TrackingID           string            `json:"tracking_id"`
	DeliveryPartner      string            `json:"delivery_partner"`
	ExpectedDeliveryDate *string           `json:"expected_delivery_date"`
	Notes                string            `json:"notes"`
	Priority             *int              `json:"priority"`
}

type updateOrderRequest struct {
	Channel              domain.Optional[string]            `json:"channel"`
	CustomerName         domain.Optional[string]            `json:"customer_name"`
	CustomerID           domain.Optional[string]            `json:"customer_id"`
	Items                domain.Optional[[]lineItemRequest] `json:"items"`
	Status               domain.Optional[string]            `json:"status"`
	PaymentStatus        domain.Optional[string]            `json:"payment_status"`
	PaidAmount           domain.Optional[int64]             `json:"paid_amount"`
	ConfirmationStatus   domain.Optional[string]            `json:"confirmation_status"`
	DeliveryStatus       domain.Optional[string]            `json:"delivery_status"`
	TrackingID           domain.Optional[string]            `json:"tracking_id"`
	DeliveryPartner      domain.Optional[string]            `json:"delivery_partner"`
	ExpectedDeliveryDate domain.Optional[string]            `json:"expected_delivery_date"`
	ActualDeliveryDate   domain.Optional[string]            `json:"actual_delivery_date"`
	Notes                domain.Optional[string]            `json:"notes"`
	Priority             domain.Optional[int]               `json:"priority"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderListResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderPayload struct {
	ID                   string            `json:"id"`
	OrderCode            string            `json:"order_code"`
	Channel              string            `json:"channel"`
	CustomerName         string            `json:"customer_name"`
	CustomerID           string            `json:"customer_id"`
	Items                []lineItemPayload `json:"items"`
	TotalPrice           int64             `json:"total_price"`
	Status               string            `json:"status"`
	PaymentStatus        string            `json:"payment_status"`
	PaidAmount           int64             `json:"paid_amount"`
	ConfirmationStatus   string            `json:"confirmation_status"`
	DeliveryStatus       string            `json:"delivery_status"`
	TrackingID           string            `json:"tracking_id,omitempty"`
	DeliveryPartner      string            `json:"delivery_partner,omitempty"`
	ExpectedDeliveryDate *string           `json:"expected_delivery_date"`
	ActualDeliveryDate   *string           `json:"actual_delivery_date"`
	Notes                string            `json:"notes,omitempty"`
	Priority             int               `json:"priority"`
	CreatedAt            string            `json:"created_at"`
	UpdatedAt            string            `json:"updated_at"`
}

type lineItemPayload struct {
	ItemID        string `json:"item_id"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unit_price"`
	Quantity      int    `json:"quantity"`
	LineTotal     int64  `json:"line_total"`
	Customization string `json:"customization,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	items := make([]lineItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, lineItemPayload{
			ItemID:        item.ItemRef,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			LineTotal:     item.LineTotal(),
			Customization: item.Customization,
		})
	}
	return orderPayload{
		ID:                   order.ID,
		OrderCode:            order.OrderCode,
		Channel:              string(order.Channel),
		CustomerName:         order.CustomerName,
		CustomerID:           order.CustomerID,
		Items:                items,
		TotalPrice:           order.TotalPrice,
		Status:               string(order.Status),
		PaymentStatus:        string(order.PaymentStatus),
		PaidAmount:           order.PaidAmount,
		ConfirmationStatus:   string(order.ConfirmationStatus),
		DeliveryStatus:       string(order.DeliveryStatus),
		TrackingID:           order.TrackingID,
		DeliveryPartner:      order.DeliveryPartner,
		ExpectedDeliveryDate: formatDate(order.ExpectedDeliveryDate),
		ActualDeliveryDate:   formatDate(order.ActualDeliveryDate),
		Notes:                order.Notes,
		Priority:             order.Priority,
		CreatedAt:            formatTime(order.CreatedAt),
		UpdatedAt:            formatTime(order.UpdatedAt),
	}
}

func buildLineItemInputs(items []lineItemRequest) []services.LineItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]services.LineItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, services.LineItemInput{
			ItemID:        strings.TrimSpace(item.ItemID),
			Quantity:      item.Quantity,
			Customization: item.Customization,
		})
	}
	return inputs
}

func buildLineItemPatch(items domain.Optional[[]lineItemRequest]) domain.Optional[[]services.LineItemInput] {
	out := domain.Optional[[]services.LineItemInput]{Set: items.Set, Null: items.Null}
	if items.Present() {
		out.Value = buildLineItemInputs(items.Value)
	}
	return out
}

func parseOrderListFilter(r *http.Request) (services.OrderListFilter, error) {
	filter := services.OrderListFilter{}
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status := strings.TrimSpace(part)
			if status == "" {
				continue
			}
			filter.Status = append(filter.Status, domain.OrderStatus(status))
		}
	}
	if channel := strings.TrimSpace(query.Get("channel")); channel != "" {
		filter.Channel = domain.OrderChannel(channel)
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return services.OrderListFilter{}, errors.New("limit must be a positive integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

func decodeRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxOrderBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errEmptyBody):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return false
	}
	return true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
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
		if errors.As(err, &repoErr) {
			if repoErr.IsConflict() {
				httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order was modified concurrently", http.StatusConflict))
				return
			}
			if repoErr.IsUnavailable() {
				httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order storage unavailable", http.StatusServiceUnavailable))
				return
			}
		}
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
