package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	domain "github.com/orderdesk/api/internal/domain"
	"github.com/orderdesk/api/internal/repositories"
)

type stubOrderRepo struct {
	insertFn   func(context.Context, domain.Order) error
	updateFn   func(context.Context, domain.Order) error
	findFn     func(context.Context, string) (domain.Order, error)
	listFn     func(context.Context, repositories.OrderListFilter) ([]domain.Order, error)
	listOpenFn func(context.Context) ([]domain.Order, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubOrderRepo) ListOpen(ctx context.Context) ([]domain.Order, error) {
	if s.listOpenFn != nil {
		return s.listOpenFn(ctx)
	}
	return nil, nil
}

type stubCounterRepo struct {
	nextFn func(context.Context, string, int64) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID, step)
	}
	return 1, nil
}

type stubResolver struct {
	items map[string]domain.CatalogItem
}

func (s *stubResolver) ResolveItem(_ context.Context, itemID string) (domain.CatalogItem, error) {
	item, ok := s.items[itemID]
	if !ok {
		return domain.CatalogItem{}, fmt.Errorf("%w: item %q", ErrItemNotFound, itemID)
	}
	return item, nil
}

type captureOrderEvents struct {
	events []OrderEvent
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.events = append(c.events, event)
	return nil
}

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func testResolver() *stubResolver {
	return &stubResolver{items: map[string]domain.CatalogItem{
		"itm_cake": {ID: "itm_cake", Name: "Chocolate Cake", UnitPrice: 2500, Active: true},
		"itm_box":  {ID: "itm_box", Name: "Gift Box", UnitPrice: 500, Active: true},
	}}
}

func newTestOrderService(t *testing.T, orders *stubOrderRepo, events *captureOrderEvents) OrderService {
	t.Helper()
	var publisher OrderEventPublisher
	if events != nil {
		publisher = events
	}
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:      orders,
		Counters:    &stubCounterRepo{nextFn: func(context.Context, string, int64) (int64, error) { return 42, nil }},
		Catalog:     testResolver(),
		Clock:       func() time.Time { return testNow },
		IDGenerator: func() string { return "01TESTULID" },
		Events:      publisher,
	})
	if err != nil {
		t.Fatalf("NewOrderService returned error: %v", err)
	}
	return svc
}

func TestCreateOrderAppliesDefaultsAndSnapshotsItems(t *testing.T) {
	var inserted domain.Order
	orders := &stubOrderRepo{insertFn: func(_ context.Context, order domain.Order) error {
		inserted = order
		return nil
	}}
	events := &captureOrderEvents{}
	svc := newTestOrderService(t, orders, events)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		Channel:      "instagram",
		CustomerName: "  Aisha   Khan ",
		CustomerID:   "cus_123",
		Items: []LineItemInput{
			{ItemID: "itm_cake", Quantity: 2, Customization: "happy birthday"},
			{ItemID: "itm_box", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}

	if order.ID != "ord_01TESTULID" {
		t.Fatalf("expected generated order id, got %q", order.ID)
	}
	if order.OrderCode != "OD-2025-000042" {
		t.Fatalf("expected order code OD-2025-000042, got %q", order.OrderCode)
	}
	if order.CustomerName != "Aisha Khan" {
		t.Fatalf("expected normalized customer name, got %q", order.CustomerName)
	}
	if order.TotalPrice != 5500 {
		t.Fatalf("expected total 5500, got %d", order.TotalPrice)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected default status pending, got %s", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusUnpaid || order.PaidAmount != 0 {
		t.Fatalf("expected default payment unpaid/0, got %s/%d", order.PaymentStatus, order.PaidAmount)
	}
	if order.ConfirmationStatus != domain.ConfirmationUnconfirmed {
		t.Fatalf("expected default confirmation unconfirmed, got %s", order.ConfirmationStatus)
	}
	if order.DeliveryStatus != domain.DeliveryNotShipped {
		t.Fatalf("expected default delivery not_shipped, got %s", order.DeliveryStatus)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.Items))
	}
	if order.Items[0].Name != "Chocolate Cake" || order.Items[0].UnitPrice != 2500 {
		t.Fatalf("expected catalog snapshot on first line, got %+v", order.Items[0])
	}
	if inserted.ID != order.ID {
		t.Fatalf("expected order persisted via repository")
	}
	if len(events.events) != 1 || events.events[0].Type != "order.created" {
		t.Fatalf("expected one order.created event, got %+v", events.events)
	}
}

func TestCreateOrderValidationFailures(t *testing.T) {
	svc := newTestOrderService(t, &stubOrderRepo{}, nil)

	validItems := []LineItemInput{{ItemID: "itm_cake", Quantity: 1}}
	status := func(v string) *string { return &v }
	amount := func(v int64) *int64 { return &v }

	cases := []struct {
		name  string
		input CreateOrderInput
		field string
	}{
		{
			name:  "missing channel",
			input: CreateOrderInput{CustomerName: "A", CustomerID: "c", Items: validItems},
			field: "channel",
		},
		{
			name:  "unknown channel",
			input: CreateOrderInput{Channel: "telegram", CustomerName: "A", CustomerID: "c", Items: validItems},
			field: "channel",
		},
		{
			name:  "blank customer name",
			input: CreateOrderInput{Channel: "online", CustomerName: "   ", CustomerID: "c", Items: validItems},
			field: "customer_name",
		},
		{
			name:  "missing customer id",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", Items: validItems},
			field: "customer_id",
		},
		{
			name:  "no items",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c"},
			field: "items",
		},
		{
			name: "unknown item",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: []LineItemInput{{ItemID: "itm_ghost", Quantity: 1}}},
			field: "items",
		},
		{
			name: "zero quantity",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: []LineItemInput{{ItemID: "itm_cake", Quantity: 0}}},
			field: "items",
		},
		{
			name: "priority out of range",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: validItems, Priority: intPtr(11)},
			field: "priority",
		},
		{
			name: "past expected delivery date",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: validItems, ExpectedDeliveryDate: status("2025-06-14")},
			field: "expected_delivery_date",
		},
		{
			name: "malformed date",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: validItems, ExpectedDeliveryDate: status("15/06/2025")},
			field: "expected_delivery_date",
		},
		{
			name: "negative paid amount",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: validItems, PaidAmount: amount(-1)},
			field: "paid_amount",
		},
		{
			name: "paid amount above total",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: validItems, PaidAmount: amount(9999)},
			field: "paid_amount",
		},
		{
			name: "partially paid requires strict range",
			input: CreateOrderInput{Channel: "online", CustomerName: "A", CustomerID: "c",
				Items: validItems, PaymentStatus: status("partially_paid"), PaidAmount: amount(2500)},
			field: "payment_status",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tc.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q (%v)", tc.field, verr.Field, verr)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected error to unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestCreateOrderFailFastSkipsLaterLines(t *testing.T) {
	resolved := 0
	resolver := &stubResolver{items: map[string]domain.CatalogItem{
		"itm_cake": {ID: "itm_cake", Name: "Chocolate Cake", UnitPrice: 2500, Active: true},
	}}
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:   &stubOrderRepo{},
		Counters: &stubCounterRepo{},
		Catalog: resolverFunc(func(ctx context.Context, itemID string) (domain.CatalogItem, error) {
			resolved++
			return resolver.ResolveItem(ctx, itemID)
		}),
		Clock: func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("NewOrderService returned error: %v", err)
	}

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		Channel:      "online",
		CustomerName: "A",
		CustomerID:   "c",
		Items: []LineItemInput{
			{ItemID: "itm_missing", Quantity: 1},
			{ItemID: "itm_cake", Quantity: 1},
		},
	})
	if err == nil {
		t.Fatalf("expected error for unknown first item")
	}
	if resolved != 1 {
		t.Fatalf("expected resolution to stop at first failure, resolved %d lines", resolved)
	}
}

type resolverFunc func(ctx context.Context, itemID string) (domain.CatalogItem, error)

func (f resolverFunc) ResolveItem(ctx context.Context, itemID string) (domain.CatalogItem, error) {
	return f(ctx, itemID)
}

func storedOrder() domain.Order {
	return domain.Order{
		ID:           "ord_existing",
		OrderCode:    "OD-2025-000007",
		Channel:      domain.OrderChannelOnline,
		CustomerName: "Aisha Khan",
		CustomerID:   "cus_123",
		Items: []domain.OrderLineItem{
			{ItemRef: "itm_cake", Name: "Chocolate Cake", UnitPrice: 2500, Quantity: 2},
		},
		TotalPrice:         5000,
		Status:             domain.OrderStatusPending,
		PaymentStatus:      domain.PaymentStatusUnpaid,
		ConfirmationStatus: domain.ConfirmationUnconfirmed,
		DeliveryStatus:     domain.DeliveryNotShipped,
		TrackingID:         "TRK-1",
		Priority:           3,
		CreatedAt:          testNow.Add(-48 * time.Hour),
		UpdatedAt:          testNow.Add(-48 * time.Hour),
	}
}

func TestUpdateOrderMergesOnlyPresentFields(t *testing.T) {
	var updated domain.Order
	orders := &stubOrderRepo{
		findFn: func(_ context.Context, id string) (domain.Order, error) {
			if id != "ord_existing" {
				return domain.Order{}, errors.New("unexpected id")
			}
			return storedOrder(), nil
		},
		updateFn: func(_ context.Context, order domain.Order) error {
			updated = order
			return nil
		},
	}
	events := &captureOrderEvents{}
	svc := newTestOrderService(t, orders, events)

	got, err := svc.UpdateOrder(context.Background(), "ord_existing", OrderPatch{
		Status:   domain.Some("processing"),
		Priority: domain.Some(9),
	})
	if err != nil {
		t.Fatalf("UpdateOrder returned error: %v", err)
	}

	if got.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected status processing, got %s", got.Status)
	}
	if got.Priority != 9 {
		t.Fatalf("expected priority 9, got %d", got.Priority)
	}
	if got.CustomerName != "Aisha Khan" || got.TotalPrice != 5000 || got.TrackingID != "TRK-1" {
		t.Fatalf("expected untouched fields to survive, got %+v", got)
	}
	if !got.UpdatedAt.Equal(testNow) {
		t.Fatalf("expected UpdatedAt bumped to clock, got %s", got.UpdatedAt)
	}
	if updated.ID != "ord_existing" {
		t.Fatalf("expected update persisted")
	}
	if len(events.events) != 1 || events.events[0].Type != "order.updated" {
		t.Fatalf("expected one order.updated event, got %+v", events.events)
	}
}

func TestUpdateOrderNullSemantics(t *testing.T) {
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) {
		return storedOrder(), nil
	}}
	svc := newTestOrderService(t, orders, nil)

	got, err := svc.UpdateOrder(context.Background(), "ord_existing", OrderPatch{
		TrackingID: domain.Null[string](),
	})
	if err != nil {
		t.Fatalf("UpdateOrder returned error: %v", err)
	}
	if got.TrackingID != "" {
		t.Fatalf("expected null to clear tracking id, got %q", got.TrackingID)
	}

	_, err = svc.UpdateOrder(context.Background(), "ord_existing", OrderPatch{
		Status: domain.Null[string](),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "status" {
		t.Fatalf("expected null status to be rejected, got %v", err)
	}
}

func TestUpdateOrderAllOrNothing(t *testing.T) {
	updateCalled := false
	orders := &stubOrderRepo{
		findFn: func(context.Context, string) (domain.Order, error) {
			return storedOrder(), nil
		},
		updateFn: func(context.Context, domain.Order) error {
			updateCalled = true
			return nil
		},
	}
	svc := newTestOrderService(t, orders, nil)

	_, err := svc.UpdateOrder(context.Background(), "ord_existing", OrderPatch{
		Priority: domain.Some(5),
		Channel:  domain.Some("carrier-pigeon"),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "channel" {
		t.Fatalf("expected channel validation error, got %v", err)
	}
	if updateCalled {
		t.Fatalf("expected no persistence after validation failure")
	}
}

func TestUpdateOrderRejectsTotalBelowPaidAmount(t *testing.T) {
	order := storedOrder()
	order.PaymentStatus = domain.PaymentStatusPaid
	order.PaidAmount = 5000

	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) {
		return order, nil
	}}
	svc := newTestOrderService(t, orders, nil)

	// Swapping to a single gift box drops the total to 500, far below the
	// already recorded payment of 5000.
	_, err := svc.UpdateOrder(context.Background(), "ord_existing", OrderPatch{
		Items: domain.Some([]LineItemInput{{ItemID: "itm_box", Quantity: 1}}),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "paid_amount" {
		t.Fatalf("expected paid_amount violation, got %v", err)
	}
}

func TestUpdateOrderPartiallyPaidRequiresStrictRange(t *testing.T) {
	order := storedOrder()
	order.PaymentStatus = domain.PaymentStatusPartiallyPaid
	order.PaidAmount = 2000

	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) {
		return order, nil
	}}
	svc := newTestOrderService(t, orders, nil)

	// Raising the paid amount to exactly the total must flip the status too;
	// leaving it partially_paid is inconsistent.
	_, err := svc.UpdateOrder(context.Background(), "ord_existing", OrderPatch{
		PaidAmount: domain.Some(int64(5000)),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "payment_status" {
		t.Fatalf("expected payment_status violation, got %v", err)
	}
}

func TestUpdateOrderEmptyItemsRejected(t *testing.T) {
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) {
		return storedOrder(), nil
	}}
	svc := newTestOrderService(t, orders, nil)

	for _, patch := range []OrderPatch{
		{Items: domain.Some([]LineItemInput{})},
		{Items: domain.Null[[]LineItemInput]()},
	} {
		_, err := svc.UpdateOrder(context.Background(), "ord_existing", patch)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Field != "items" {
			t.Fatalf("expected items violation, got %v", err)
		}
	}
}

func TestUpdateOrderNotFound(t *testing.T) {
	orders := &stubOrderRepo{findFn: func(context.Context, string) (domain.Order, error) {
		return domain.Order{}, stubRepoError{notFound: true}
	}}
	svc := newTestOrderService(t, orders, nil)

	_, err := svc.UpdateOrder(context.Background(), "ord_missing", OrderPatch{
		Priority: domain.Some(1),
	})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestRankOpenOrdersUsesOpenSnapshot(t *testing.T) {
	due := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	orders := &stubOrderRepo{listOpenFn: func(context.Context) ([]domain.Order, error) {
		return []domain.Order{
			{ID: "ord_low", Priority: 1},
			{ID: "ord_overdue", Priority: 2, ExpectedDeliveryDate: &due},
		}, nil
	}}
	svc := newTestOrderService(t, orders, nil)

	ranked, err := svc.RankOpenOrders(context.Background())
	if err != nil {
		t.Fatalf("RankOpenOrders returned error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked orders, got %d", len(ranked))
	}
	if ranked[0].Order.ID != "ord_overdue" {
		t.Fatalf("expected overdue order first, got %s", ranked[0].Order.ID)
	}
	if ranked[0].Tier != domain.UrgencyCritical {
		t.Fatalf("expected critical tier, got %s", ranked[0].Tier)
	}
}

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string       { return "stub repository error" }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

func intPtr(v int) *int { return &v }
