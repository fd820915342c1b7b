package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/orderdesk/api/internal/domain"
	pfirestore "github.com/orderdesk/api/internal/platform/firestore"
	"github.com/orderdesk/api/internal/repositories"
)

const (
	ordersCollection = "orders"

	defaultOrderListLimit = 100
)

type orderLineItemDocument struct {
	ItemRef       string `firestore:"itemRef"`
	Name          string `firestore:"name"`
	UnitPrice     int64  `firestore:"unitPrice"`
	Quantity      int    `firestore:"quantity"`
	Customization string `firestore:"customization,omitempty"`
}

type orderDocument struct {
	OrderCode            string                  `firestore:"orderCode"`
	Channel              string                  `firestore:"channel"`
	CustomerName         string                  `firestore:"customerName"`
	CustomerID           string                  `firestore:"customerId"`
	Items                []orderLineItemDocument `firestore:"items"`
	TotalPrice           int64                   `firestore:"totalPrice"`
	Status               string                  `firestore:"status"`
	PaymentStatus        string                  `firestore:"paymentStatus"`
	PaidAmount           int64                   `firestore:"paidAmount"`
	ConfirmationStatus   string                  `firestore:"confirmationStatus"`
	DeliveryStatus       string                  `firestore:"deliveryStatus"`
	TrackingID           string                  `firestore:"trackingId,omitempty"`
	DeliveryPartner      string                  `firestore:"deliveryPartner,omitempty"`
	ExpectedDeliveryDate *time.Time              `firestore:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time              `firestore:"actualDeliveryDate,omitempty"`
	Notes                string                  `firestore:"notes,omitempty"`
	Priority             int                     `firestore:"priority"`
	CreatedAt            time.Time               `firestore:"createdAt"`
	UpdatedAt            time.Time               `firestore:"updatedAt"`
}

// OrderRepository persists order aggregates as single Firestore documents.
// Line items live inside the order document, so every mutation of an order is
// atomic without an explicit transaction.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		base:     pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection),
		provider: provider,
	}, nil
}

// Insert writes a brand new order document and fails when the ID is taken.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	return r.base.Create(ctx, id, encodeOrder(order))
}

// Update overwrites the stored order document with the given aggregate state.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	return r.base.Set(ctx, id, encodeOrder(order))
}

// FindByID loads a single order aggregate.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(doc.ID, doc.Data), nil
}

// List returns orders newest first, narrowed by the optional filter.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultOrderListLimit
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, status := range filter.Status {
				statuses = append(statuses, string(status))
			}
			query = query.Where("status", "in", statuses)
		}
		if filter.Channel != "" {
			query = query.Where("channel", "==", string(filter.Channel))
		}
		return query.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs), nil
}

// ListOpen returns every order still in a workable status.
func (r *OrderRepository) ListOpen(ctx context.Context) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("status", "in", []string{
			string(domain.OrderStatusPending),
			string(domain.OrderStatusProcessing),
		})
	})
	if err != nil {
		return nil, err
	}
	return decodeOrders(docs), nil
}

func encodeOrder(order domain.Order) orderDocument {
	items := make([]orderLineItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderLineItemDocument{
			ItemRef:       item.ItemRef,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			Customization: item.Customization,
		})
	}
	return orderDocument{
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
		ExpectedDeliveryDate: cloneTime(order.ExpectedDeliveryDate),
		ActualDeliveryDate:   cloneTime(order.ActualDeliveryDate),
		Notes:                order.Notes,
		Priority:             order.Priority,
		CreatedAt:            order.CreatedAt.UTC(),
		UpdatedAt:            order.UpdatedAt.UTC(),
	}
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	items := make([]domain.OrderLineItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderLineItem{
			ItemRef:       item.ItemRef,
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			Customization: item.Customization,
		})
	}
	return domain.Order{
		ID:                   id,
		OrderCode:            doc.OrderCode,
		Channel:              domain.OrderChannel(doc.Channel),
		CustomerName:         doc.CustomerName,
		CustomerID:           doc.CustomerID,
		Items:                items,
		TotalPrice:           doc.TotalPrice,
		Status:               domain.OrderStatus(doc.Status),
		PaymentStatus:        domain.PaymentStatus(doc.PaymentStatus),
		PaidAmount:           doc.PaidAmount,
		ConfirmationStatus:   domain.ConfirmationStatus(doc.ConfirmationStatus),
		DeliveryStatus:       domain.DeliveryStatus(doc.DeliveryStatus),
		TrackingID:           doc.TrackingID,
		DeliveryPartner:      doc.DeliveryPartner,
		ExpectedDeliveryDate: cloneTime(doc.ExpectedDeliveryDate),
		ActualDeliveryDate:   cloneTime(doc.ActualDeliveryDate),
		Notes:                doc.Notes,
		Priority:             doc.Priority,
		CreatedAt:            doc.CreatedAt.UTC(),
		UpdatedAt:            doc.UpdatedAt.UTC(),
	}
}

func decodeOrders(docs []pfirestore.Document[orderDocument]) []domain.Order {
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc.ID, doc.Data))
	}
	return orders
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	t := value.UTC()
	return &t
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
