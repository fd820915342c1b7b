package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/orderdesk/api/internal/domain"
	"github.com/orderdesk/api/internal/services"
)

type stubOrderService struct {
	createFn func(context.Context, services.CreateOrderInput) (services.Order, error)
	updateFn func(context.Context, string, services.OrderPatch) (services.Order, error)
	getFn    func(context.Context, string) (services.Order, error)
	listFn   func(context.Context, services.OrderListFilter) ([]services.Order, error)
	rankFn   func(context.Context) ([]services.RankedOrder, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, input services.CreateOrderInput) (services.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return services.Order{}, nil
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, orderID string, patch services.OrderPatch) (services.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, orderID, patch)
	}
	return services.Order{}, nil
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return services.Order{}, nil
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) ([]services.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubOrderService) RankOpenOrders(ctx context.Context) ([]services.RankedOrder, error) {
	if s.rankFn != nil {
		return s.rankFn(ctx)
	}
	return nil, nil
}

func sampleOrder() services.Order {
	due := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	return services.Order{
		ID:           "ord_123",
		OrderCode:    "OD-2025-000042",
		Channel:      domain.OrderChannelInstagram,
		CustomerName: "Aisha Khan",
		CustomerID:   "cus_123",
		Items: []services.OrderLineItem{
			{ItemRef: "itm_cake", Name: "Chocolate Cake", UnitPrice: 2500, Quantity: 2},
		},
		TotalPrice:           5000,
		Status:               domain.OrderStatusPending,
		PaymentStatus:        domain.PaymentStatusUnpaid,
		ConfirmationStatus:   domain.ConfirmationUnconfirmed,
		DeliveryStatus:       domain.DeliveryNotShipped,
		ExpectedDeliveryDate: &due,
		Priority:             5,
		CreatedAt:            time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		UpdatedAt:            time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
	}
}

func newOrdersRouter(svc services.OrderService) http.Handler {
	r := chi.NewRouter()
	handlers := NewOrderHandlers(svc)
	r.Route("/orders", handlers.Routes)
	return r
}

func TestCreateOrderEndpointReturnsCreated(t *testing.T) {
	var captured services.CreateOrderInput
	svc := &stubOrderService{createFn: func(_ context.Context, input services.CreateOrderInput) (services.Order, error) {
		captured = input
		return sampleOrder(), nil
	}}

	body := `{
		"channel": "instagram",
		"customer_name": "Aisha Khan",
		"customer_id": "cus_123",
		"items": [{"item_id": "itm_cake", "quantity": 2}],
		"priority": 5
	}`
	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(body))
	rr := httptest.NewRecorder()

	newOrdersRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Channel != "instagram" || len(captured.Items) != 1 || captured.Items[0].Quantity != 2 {
		t.Fatalf("unexpected input forwarded: %+v", captured)
	}
	if captured.Priority == nil || *captured.Priority != 5 {
		t.Fatalf("expected priority pointer forwarded, got %v", captured.Priority)
	}

	var resp struct {
		Order struct {
			ID                   string  `json:"id"`
			OrderCode            string  `json:"order_code"`
			TotalPrice           int64   `json:"total_price"`
			ExpectedDeliveryDate *string `json:"expected_delivery_date"`
		} `json:"order"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Order.ID != "ord_123" || resp.Order.OrderCode != "OD-2025-000042" {
		t.Fatalf("unexpected order payload: %+v", resp.Order)
	}
	if resp.Order.ExpectedDeliveryDate == nil || *resp.Order.ExpectedDeliveryDate != "2025-06-20" {
		t.Fatalf("expected day-precision date, got %v", resp.Order.ExpectedDeliveryDate)
	}
}

func TestCreateOrderEndpointRejectsInvalidJSON(t *testing.T) {
	svc := &stubOrderService{}
	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()

	newOrdersRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCreateOrderEndpointSurfacesFieldErrors(t *testing.T) {
	svc := &stubOrderService{createFn: func(context.Context, services.CreateOrderInput) (services.Order, error) {
		return services.Order{}, &services.ValidationError{Field: "items", Reason: `unknown item "itm_ghost"`}
	}}

	body := `{"channel":"online","customer_name":"A","customer_id":"c","items":[{"item_id":"itm_ghost","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(body))
	rr := httptest.NewRecorder()

	newOrdersRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "invalid_request" {
		t.Fatalf("expected invalid_request code, got %v", resp["error"])
	}
	if resp["field"] != "items" {
		t.Fatalf("expected offending field in details, got %v", resp["field"])
	}
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	svc := &stubOrderService{getFn: func(context.Context, string) (services.Order, error) {
		return services.Order{}, services.ErrOrderNotFound
	}}
	req := httptest.NewRequest(http.MethodGet, "/orders/ord_missing", nil)
	rr := httptest.NewRecorder()

	newOrdersRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUpdateOrderEndpointDistinguishesNullFromAbsent(t *testing.T) {
	var captured services.OrderPatch
	svc := &stubOrderService{updateFn: func(_ context.Context, _ string, patch services.OrderPatch) (services.Order, error) {
		captured = patch
		return sampleOrder(), nil
	}}

	body := `{"tracking_id": null, "priority": 7}`
	req := httptest.NewRequest(http.MethodPatch, "/orders/ord_123", strings.NewReader(body))
	rr := httptest.NewRecorder()

	newOrdersRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !captured.TrackingID.Set || !captured.TrackingID.Null {
		t.Fatalf("expected tracking_id to decode as explicit null, got %+v", captured.TrackingID)
	}
	if !captured.Priority.Set || captured.Priority.Null || captured.Priority.Value != 7 {
		t.Fatalf("expected priority 7, got %+v", captured.Priority)
	}
	if captured.Status.Set {
		t.Fatalf("expected absent status to stay unset, got %+v", captured.Status)
	}
}

func TestListOrdersEndpointParsesFilter(t *testing.T) {
	var captured services.OrderListFilter
	svc := &stubOrderService{listFn: func(_ context.Context, filter services.OrderListFilter) ([]services.Order, error) {
		captured = filter
		return []services.Order{sampleOrder()}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/orders/?status=pending,processing&channel=online&limit=10", nil)
	rr := httptest.NewRecorder()

	newOrdersRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(captured.Status) != 2 || captured.Status[0] != domain.OrderStatusPending {
		t.Fatalf("unexpected status filter: %+v", captured.Status)
	}
	if captured.Channel != domain.OrderChannelOnline || captured.Limit != 10 {
		t.Fatalf("unexpected filter: %+v", captured)
	}
}

func TestListOrdersEndpointRejectsBadLimit(t *testing.T) {
	svc := &stubOrderService{}
	req := httptest.NewRequest(http.MethodGet, "/orders/?limit=zero", nil)
	rr := httptest.NewRecorder()

	newOrdersRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
