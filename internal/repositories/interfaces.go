package repositories

import (
	"context"

	domain "github.com/orderdesk/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists order aggregates. Line items are owned by their
// order document and written as a whole group with it.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	ListOpen(ctx context.Context) ([]domain.Order, error)
}

// OrderListFilter narrows order listings. A zero Limit falls back to the
// repository default.
type OrderListFilter struct {
	Status  []domain.OrderStatus
	Channel domain.OrderChannel
	Limit   int
}

// ItemRepository persists catalog items.
type ItemRepository interface {
	Insert(ctx context.Context, item domain.CatalogItem) error
	Update(ctx context.Context, item domain.CatalogItem) error
	FindByID(ctx context.Context, itemID string) (domain.CatalogItem, error)
	List(ctx context.Context, filter ItemListFilter) ([]domain.CatalogItem, error)
}

// ItemListFilter narrows catalog listings.
type ItemListFilter struct {
	ActiveOnly bool
	Limit      int
}

// FeedbackRepository persists customer feedback entries.
type FeedbackRepository interface {
	Insert(ctx context.Context, feedback domain.Feedback) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Feedback, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}
