package services

import (
	"context"
	"time"

	domain "github.com/orderdesk/api/internal/domain"
	"github.com/orderdesk/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order              = domain.Order
	OrderLineItem      = domain.OrderLineItem
	OrderStatus        = domain.OrderStatus
	PaymentStatus      = domain.PaymentStatus
	ConfirmationStatus = domain.ConfirmationStatus
	DeliveryStatus     = domain.DeliveryStatus
	OrderChannel       = domain.OrderChannel
	CatalogItem        = domain.CatalogItem
	Feedback           = domain.Feedback
	UrgencyTier        = domain.UrgencyTier
	OrderListFilter    = repositories.OrderListFilter
	ItemListFilter     = repositories.ItemListFilter
)

// OrderService validates, composes, and persists orders, and ranks the open
// ones for the operational dashboard.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error)
	UpdateOrder(ctx context.Context, orderID string, patch OrderPatch) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error)
	RankOpenOrders(ctx context.Context) ([]RankedOrder, error)
}

// CatalogService manages catalog items and backs line-item resolution.
type CatalogService interface {
	CatalogResolver
	CreateItem(ctx context.Context, cmd CreateItemCommand) (CatalogItem, error)
	UpdateItem(ctx context.Context, cmd UpdateItemCommand) (CatalogItem, error)
	GetItem(ctx context.Context, itemID string) (CatalogItem, error)
	ListItems(ctx context.Context, filter ItemListFilter) ([]CatalogItem, error)
}

// CatalogResolver is the single lookup the order core needs from the catalog.
// Implementations must report missing or retired items via ErrItemNotFound.
type CatalogResolver interface {
	ResolveItem(ctx context.Context, itemID string) (CatalogItem, error)
}

// FeedbackService records and lists customer feedback for orders.
type FeedbackService interface {
	RecordFeedback(ctx context.Context, cmd RecordFeedbackCommand) (Feedback, error)
	ListFeedback(ctx context.Context, orderID string) ([]Feedback, error)
}

// LineItemInput is one requested order line before catalog resolution.
type LineItemInput struct {
	ItemID        string
	Quantity      int
	Customization string
}

// CreateOrderInput carries every field a caller may supply at creation time.
// Pointer fields distinguish omitted values, which receive defaults, from
// explicitly supplied ones, which are validated as given.
type CreateOrderInput struct {
	Channel              string
	CustomerName         string
	CustomerID           string
	Items                []LineItemInput
	Status               *string
	PaymentStatus        *string
	PaidAmount           *int64
	ConfirmationStatus   *string
	DeliveryStatus       *string
	TrackingID           string
	DeliveryPartner      string
	ExpectedDeliveryDate *string
	Notes                string
	Priority             *int
}

// OrderPatch is an explicit partial-update request. Each field records whether
// it was present in the request and whether it was explicitly null; absent
// fields keep their stored values. Dates are day-precision strings in
// YYYY-MM-DD form.
type OrderPatch struct {
	Channel              domain.Optional[string]
	CustomerName         domain.Optional[string]
	CustomerID           domain.Optional[string]
	Items                domain.Optional[[]LineItemInput]
	Status               domain.Optional[string]
	PaymentStatus        domain.Optional[string]
	PaidAmount           domain.Optional[int64]
	ConfirmationStatus   domain.Optional[string]
	DeliveryStatus       domain.Optional[string]
	TrackingID           domain.Optional[string]
	DeliveryPartner      domain.Optional[string]
	ExpectedDeliveryDate domain.Optional[string]
	ActualDeliveryDate   domain.Optional[string]
	Notes                domain.Optional[string]
	Priority             domain.Optional[int]
}

// RankedOrder is an order annotated with its dashboard urgency.
type RankedOrder struct {
	Order             Order
	EffectivePriority int
	Tier              UrgencyTier
}

// CreateItemCommand carries catalog item creation input. UnitPrice is in
// minor currency units.
type CreateItemCommand struct {
	Name      string
	UnitPrice int64
	Active    *bool
}

// UpdateItemCommand mutates an existing catalog item. Nil fields are left
// unchanged. Price changes never rewrite snapshots on existing orders.
type UpdateItemCommand struct {
	ItemID    string
	Name      *string
	UnitPrice *int64
	Active    *bool
}

// RecordFeedbackCommand carries a customer feedback submission.
type RecordFeedbackCommand struct {
	OrderID string
	Rating  int
	Comment string
}

// OrderEventPublisher publishes order domain events for downstream consumers
// such as the digest scheduler.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type       string
	OrderID    string
	OrderCode  string
	Status     OrderStatus
	OccurredAt time.Time
}
