package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/orderdesk/api/internal/domain"
	"github.com/orderdesk/api/internal/platform/textutil"
	"github.com/orderdesk/api/internal/repositories"
)

const (
	orderEventCreated = "order.created"
	orderEventUpdated = "order.updated"

	orderIDPrefix    = "ord_"
	orderCodeCounter = "orders"
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Counters    repositories.CounterRepository
	Catalog     CatalogResolver
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	counters   repositories.CounterRepository
	catalog    CatalogResolver
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	events     OrderEventPublisher
	logger     func(context.Context, string, map[string]any)
	sanitizer  *bluemonday.Policy
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog resolver is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:     deps.Orders,
		counters:   deps.Counters,
		catalog:    deps.Catalog,
		unitOfWork: unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		events:    deps.Events,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	now := s.clock()

	channelRaw := strings.TrimSpace(input.Channel)
	if channelRaw == "" {
		return Order{}, invalidField("channel", "origin channel is required")
	}
	channel, verr := validateEnum("channel", channelRaw, allowedChannels)
	if verr != nil {
		return Order{}, verr
	}

	customerName := textutil.NormalizeName(input.CustomerName)
	if customerName == "" {
		return Order{}, invalidField("customer_name", "customer name is required")
	}
	if verr := validateBoundedString("customer_name", customerName, maxNameLength); verr != nil {
		return Order{}, verr
	}

	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		return Order{}, invalidField("customer_id", "customer identifier is required")
	}

	status := domain.OrderStatusPending
	if input.Status != nil {
		status, verr = validateEnum("status", strings.TrimSpace(*input.Status), allowedOrderStatuses)
		if verr != nil {
			return Order{}, verr
		}
	}

	confirmation := domain.ConfirmationUnconfirmed
	if input.ConfirmationStatus != nil {
		confirmation, verr = validateEnum("confirmation_status", strings.TrimSpace(*input.ConfirmationStatus), allowedConfirmationStatuses)
		if verr != nil {
			return Order{}, verr
		}
	}

	delivery := domain.DeliveryNotShipped
	if input.DeliveryStatus != nil {
		delivery, verr = validateEnum("delivery_status", strings.TrimSpace(*input.DeliveryStatus), allowedDeliveryStatuses)
		if verr != nil {
			return Order{}, verr
		}
	}

	priority := domain.PriorityMin
	if input.Priority != nil {
		if verr := validateIntRange("priority", *input.Priority, domain.PriorityMin, domain.PriorityMax); verr != nil {
			return Order{}, verr
		}
		priority = *input.Priority
	}

	notes := strings.TrimSpace(input.Notes)
	if verr := validateBoundedString("customer_notes", notes, maxNotesLength); verr != nil {
		return Order{}, verr
	}
	notes = s.sanitizer.Sanitize(notes)

	var expectedDelivery *time.Time
	if input.ExpectedDeliveryDate != nil && strings.TrimSpace(*input.ExpectedDeliveryDate) != "" {
		parsed, verr := parseDateField("expected_delivery_date", strings.TrimSpace(*input.ExpectedDeliveryDate))
		if verr != nil {
			return Order{}, verr
		}
		// The not-before-today rule applies on creation only; updates may
		// legitimately edit dates already in the past.
		if verr := validateNotPast("expected_delivery_date", parsed, now); verr != nil {
			return Order{}, verr
		}
		expectedDelivery = &parsed
	}

	if len(input.Items) == 0 {
		return Order{}, invalidField("items", "at least one line item is required")
	}
	lines, total, err := resolveLineItems(ctx, s.catalog, input.Items)
	if err != nil {
		return Order{}, err
	}

	paymentStatus, paidAmount, verr := checkPayment(paymentInput{
		RawStatus:   input.PaymentStatus,
		RawPaid:     input.PaidAmount,
		Current:     domain.PaymentStatusUnpaid,
		CurrentPaid: 0,
		Total:       total,
	})
	if verr != nil {
		return Order{}, verr
	}

	code, err := s.generateOrderCode(ctx, now)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:                   orderIDPrefix + s.newID(),
		OrderCode:            code,
		Channel:              channel,
		CustomerName:         customerName,
		CustomerID:           customerID,
		Items:                lines,
		TotalPrice:           total,
		Status:               status,
		PaymentStatus:        paymentStatus,
		PaidAmount:           paidAmount,
		ConfirmationStatus:   confirmation,
		DeliveryStatus:       delivery,
		TrackingID:           strings.TrimSpace(input.TrackingID),
		DeliveryPartner:      strings.TrimSpace(input.DeliveryPartner),
		ExpectedDeliveryDate: expectedDelivery,
		Notes:                notes,
		Priority:             priority,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       orderEventCreated,
		OrderID:    order.ID,
		OrderCode:  order.OrderCode,
		Status:     order.Status,
		OccurredAt: now,
	})

	return order, nil
}

func (s *orderService) UpdateOrder(ctx context.Context, orderID string, patch OrderPatch) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, invalidField("order_id", "order id is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	merged, err := s.composeUpdate(ctx, order, patch)
	if err != nil {
		return Order{}, err
	}

	merged.UpdatedAt = s.clock()

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, merged); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, OrderEvent{
		Type:       orderEventUpdated,
		OrderID:    merged.ID,
		OrderCode:  merged.OrderCode,
		Status:     merged.Status,
		OccurredAt: merged.UpdatedAt,
	})

	return merged, nil
}

// composeUpdate validates every field present in the patch and merges it over
// the stored order. The merge is all-or-nothing: the first failing rule
// returns an error and no field is applied. Cross-field payment invariants
// are re-checked against effective post-merge values whenever the total, the
// payment status, or the paid amount may have changed.
func (s *orderService) composeUpdate(ctx context.Context, order Order, patch OrderPatch) (Order, error) {
	merged := order

	if patch.Channel.Set {
		if patch.Channel.Null {
			return Order{}, invalidField("channel", "must not be null")
		}
		channel, verr := validateEnum("channel", strings.TrimSpace(patch.Channel.Value), allowedChannels)
		if verr != nil {
			return Order{}, verr
		}
		merged.Channel = channel
	}

	if patch.CustomerName.Set {
		if patch.CustomerName.Null {
			return Order{}, invalidField("customer_name", "must not be null")
		}
		name := textutil.NormalizeName(patch.CustomerName.Value)
		if name == "" {
			return Order{}, invalidField("customer_name", "customer name is required")
		}
		if verr := validateBoundedString("customer_name", name, maxNameLength); verr != nil {
			return Order{}, verr
		}
		merged.CustomerName = name
	}

	if patch.CustomerID.Set {
		if patch.CustomerID.Null {
			return Order{}, invalidField("customer_id", "must not be null")
		}
		id := strings.TrimSpace(patch.CustomerID.Value)
		if id == "" {
			return Order{}, invalidField("customer_id", "customer identifier is required")
		}
		merged.CustomerID = id
	}

	if patch.Status.Set {
		if patch.Status.Null {
			return Order{}, invalidField("status", "must not be null")
		}
		status, verr := validateEnum("status", strings.TrimSpace(patch.Status.Value), allowedOrderStatuses)
		if verr != nil {
			return Order{}, verr
		}
		merged.Status = status
	}

	if patch.ConfirmationStatus.Set {
		if patch.ConfirmationStatus.Null {
			return Order{}, invalidField("confirmation_status", "must not be null")
		}
		confirmation, verr := validateEnum("confirmation_status", strings.TrimSpace(patch.ConfirmationStatus.Value), allowedConfirmationStatuses)
		if verr != nil {
			return Order{}, verr
		}
		merged.ConfirmationStatus = confirmation
	}

	if patch.DeliveryStatus.Set {
		if patch.DeliveryStatus.Null {
			return Order{}, invalidField("delivery_status", "must not be null")
		}
		delivery, verr := validateEnum("delivery_status", strings.TrimSpace(patch.DeliveryStatus.Value), allowedDeliveryStatuses)
		if verr != nil {
			return Order{}, verr
		}
		merged.DeliveryStatus = delivery
	}

	if patch.Priority.Set {
		if patch.Priority.Null {
			return Order{}, invalidField("priority", "must not be null")
		}
		if verr := validateIntRange("priority", patch.Priority.Value, domain.PriorityMin, domain.PriorityMax); verr != nil {
			return Order{}, verr
		}
		merged.Priority = patch.Priority.Value
	}

	if patch.Notes.Set {
		notes := ""
		if !patch.Notes.Null {
			notes = strings.TrimSpace(patch.Notes.Value)
		}
		if verr := validateBoundedString("customer_notes", notes, maxNotesLength); verr != nil {
			return Order{}, verr
		}
		merged.Notes = s.sanitizer.Sanitize(notes)
	}

	if patch.TrackingID.Set {
		if patch.TrackingID.Null {
			merged.TrackingID = ""
		} else {
			merged.TrackingID = strings.TrimSpace(patch.TrackingID.Value)
		}
	}

	if patch.DeliveryPartner.Set {
		if patch.DeliveryPartner.Null {
			merged.DeliveryPartner = ""
		} else {
			merged.DeliveryPartner = strings.TrimSpace(patch.DeliveryPartner.Value)
		}
	}

	if patch.ExpectedDeliveryDate.Set {
		date, verr := parseOptionalDate("expected_delivery_date", patch.ExpectedDeliveryDate)
		if verr != nil {
			return Order{}, verr
		}
		merged.ExpectedDeliveryDate = date
	}

	if patch.ActualDeliveryDate.Set {
		date, verr := parseOptionalDate("actual_delivery_date", patch.ActualDeliveryDate)
		if verr != nil {
			return Order{}, verr
		}
		merged.ActualDeliveryDate = date
	}

	totalChanged := false
	if patch.Items.Set {
		if patch.Items.Null || len(patch.Items.Value) == 0 {
			return Order{}, invalidField("items", "items must be a non-empty list")
		}
		lines, total, err := resolveLineItems(ctx, s.catalog, patch.Items.Value)
		if err != nil {
			return Order{}, err
		}
		merged.Items = lines
		totalChanged = total != merged.TotalPrice
		merged.TotalPrice = total
	}

	if patch.PaymentStatus.Set || patch.PaidAmount.Set || totalChanged {
		if patch.PaymentStatus.Set && patch.PaymentStatus.Null {
			return Order{}, invalidField("payment_status", "must not be null")
		}
		if patch.PaidAmount.Set && patch.PaidAmount.Null {
			return Order{}, invalidField("paid_amount", "must not be null")
		}
		var rawStatus *string
		if patch.PaymentStatus.Set {
			trimmed := strings.TrimSpace(patch.PaymentStatus.Value)
			rawStatus = &trimmed
		}
		var rawPaid *int64
		if patch.PaidAmount.Set {
			rawPaid = &patch.PaidAmount.Value
		}
		status, paid, verr := checkPayment(paymentInput{
			RawStatus:   rawStatus,
			RawPaid:     rawPaid,
			Current:     order.PaymentStatus,
			CurrentPaid: order.PaidAmount,
			Total:       merged.TotalPrice,
		})
		if verr != nil {
			return Order{}, verr
		}
		merged.PaymentStatus = status
		merged.PaidAmount = paid
	}

	return merged, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, invalidField("order_id", "order id is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) RankOpenOrders(ctx context.Context) ([]RankedOrder, error) {
	orders, err := s.orders.ListOpen(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return RankByUrgency(orders, s.clock()), nil
}

func parseOptionalDate(field string, raw domain.Optional[string]) (*time.Time, *ValidationError) {
	if raw.Null || strings.TrimSpace(raw.Value) == "" {
		return nil, nil
	}
	parsed, verr := parseDateField(field, strings.TrimSpace(raw.Value))
	if verr != nil {
		return nil, verr
	}
	return &parsed, nil
}

func (s *orderService) generateOrderCode(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderCodeCounter, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("OD-%04d-%06d", now.Year(), seq), nil
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
