package domain

import (
	"time"
)

// OrderChannel enumerates the origin channels an order can arrive through.
type OrderChannel string

const (
	// OrderChannelOnline indicates the order was placed through the web storefront.
	OrderChannelOnline OrderChannel = "online"
	// OrderChannelInstagram indicates the order was taken over Instagram.
	OrderChannelInstagram OrderChannel = "instagram"
	// OrderChannelWhatsApp indicates the order was taken over WhatsApp.
	OrderChannelWhatsApp OrderChannel = "whatsapp"
	// OrderChannelPhone indicates the order was taken over a phone call.
	OrderChannelPhone OrderChannel = "phone"
	// OrderChannelWalkIn indicates the order was taken in person.
	OrderChannelWalkIn OrderChannel = "walk_in"
)

// OrderStatus enumerates workflow states for orders. Statuses are plain tiers,
// not a sequenced machine: operators may set any value directly.
type OrderStatus string

const (
	// OrderStatusPending indicates the order has been received but not started.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing indicates the order is being worked on.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted indicates the order has been fulfilled.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled indicates the order was abandoned or withdrawn.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus enumerates payment tiers for an order.
type PaymentStatus string

const (
	// PaymentStatusUnpaid indicates no payment has been received.
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	// PaymentStatusPartiallyPaid indicates a payment strictly between zero and the total.
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	// PaymentStatusPaid indicates the order is fully paid.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusCashOnDelivery indicates payment is collected at delivery.
	PaymentStatusCashOnDelivery PaymentStatus = "cash_on_delivery"
	// PaymentStatusRefunded indicates the payment has been returned to the customer.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ConfirmationStatus enumerates customer confirmation tiers.
type ConfirmationStatus string

const (
	// ConfirmationUnconfirmed indicates the customer has not yet confirmed the order.
	ConfirmationUnconfirmed ConfirmationStatus = "unconfirmed"
	// ConfirmationConfirmed indicates the customer confirmed the order.
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	// ConfirmationDeclined indicates the customer declined the order.
	ConfirmationDeclined ConfirmationStatus = "declined"
)

// DeliveryStatus enumerates fulfilment tiers for an order.
type DeliveryStatus string

const (
	// DeliveryNotShipped indicates the order has not left the workshop.
	DeliveryNotShipped DeliveryStatus = "not_shipped"
	// DeliveryShipped indicates the order has been handed to a delivery partner.
	DeliveryShipped DeliveryStatus = "shipped"
	// DeliveryInTransit indicates the order is on its way to the customer.
	DeliveryInTransit DeliveryStatus = "in_transit"
	// DeliveryDelivered indicates the order has reached the customer.
	DeliveryDelivered DeliveryStatus = "delivered"
	// DeliveryReturned indicates the shipment came back undelivered.
	DeliveryReturned DeliveryStatus = "returned"
)

// PriorityMin and PriorityMax bound the operator-assigned priority level.
const (
	PriorityMin = 0
	PriorityMax = 10
)

// Order is the aggregate managed by the back office. All monetary amounts are
// integer minor currency units. TotalPrice is derived from the line items and
// never trusted from caller input.
type Order struct {
	ID                   string
	OrderCode            string
	Channel              OrderChannel
	CustomerName         string
	CustomerID           string
	Items                []OrderLineItem
	TotalPrice           int64
	Status               OrderStatus
	PaymentStatus        PaymentStatus
	PaidAmount           int64
	ConfirmationStatus   ConfirmationStatus
	DeliveryStatus       DeliveryStatus
	TrackingID           string
	DeliveryPartner      string
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Notes                string
	Priority             int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Open reports whether the order still needs operational attention.
func (o Order) Open() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

// OrderLineItem snapshots one catalog item at order time. Name and UnitPrice
// are copied from the catalog and stay fixed even if the item later changes.
type OrderLineItem struct {
	ItemRef       string
	Name          string
	UnitPrice     int64
	Quantity      int
	Customization string
}

// LineTotal returns the extended price for the line.
func (l OrderLineItem) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// CatalogItem is the projection of a catalog entry the order core depends on.
type CatalogItem struct {
	ID        string
	Name      string
	UnitPrice int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UrgencyTier groups ranked orders for dashboard display.
type UrgencyTier string

const (
	// UrgencyCritical marks overdue orders and undated top-priority orders.
	UrgencyCritical UrgencyTier = "critical"
	// UrgencyHigh marks orders due today and undated high-priority orders.
	UrgencyHigh UrgencyTier = "high"
	// UrgencyMedium marks orders due within the next three days.
	UrgencyMedium UrgencyTier = "medium"
	// UrgencyNormal marks orders with no deadline pressure.
	UrgencyNormal UrgencyTier = "normal"
)

// Feedback captures customer feedback recorded against an order.
type Feedback struct {
	ID        string
	OrderRef  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// FeedbackRatingMin and FeedbackRatingMax bound the feedback rating scale.
const (
	FeedbackRatingMin = 1
	FeedbackRatingMax = 5
)

// HealthStatus values reported by health endpoints.
const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
)

// SystemHealthCheck reports the outcome of one dependency probe.
type SystemHealthCheck struct {
	Status    string
	Latency   time.Duration
	Error     string
	CheckedAt time.Time
}
