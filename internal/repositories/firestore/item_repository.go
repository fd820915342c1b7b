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
	itemsCollection = "items"

	defaultItemListLimit = 200
)

type itemDocument struct {
	Name      string    `firestore:"name"`
	UnitPrice int64     `firestore:"unitPrice"`
	Active    bool      `firestore:"active"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// ItemRepository persists catalog items within Firestore.
type ItemRepository struct {
	base     *pfirestore.BaseRepository[itemDocument]
	provider *pfirestore.Provider
}

// NewItemRepository constructs a Firestore-backed catalog item repository.
func NewItemRepository(provider *pfirestore.Provider) (*ItemRepository, error) {
	if provider == nil {
		return nil, errors.New("item repository requires firestore provider")
	}
	return &ItemRepository{
		base:     pfirestore.NewBaseRepository[itemDocument](provider, itemsCollection),
		provider: provider,
	}, nil
}

// Insert writes a brand new catalog item document.
func (r *ItemRepository) Insert(ctx context.Context, item domain.CatalogItem) error {
	if r == nil || r.base == nil {
		return errors.New("item repository not initialised")
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return errors.New("item repository: item id is required")
	}
	return r.base.Create(ctx, id, encodeItem(item))
}

// Update overwrites the stored catalog item.
func (r *ItemRepository) Update(ctx context.Context, item domain.CatalogItem) error {
	if r == nil || r.base == nil {
		return errors.New("item repository not initialised")
	}
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return errors.New("item repository: item id is required")
	}
	return r.base.Set(ctx, id, encodeItem(item))
}

// FindByID loads a single catalog item.
func (r *ItemRepository) FindByID(ctx context.Context, itemID string) (domain.CatalogItem, error) {
	if r == nil || r.base == nil {
		return domain.CatalogItem{}, errors.New("item repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(itemID))
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return decodeItem(doc.ID, doc.Data), nil
}

// List returns catalog items ordered by name.
func (r *ItemRepository) List(ctx context.Context, filter repositories.ItemListFilter) ([]domain.CatalogItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("item repository not initialised")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultItemListLimit
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.ActiveOnly {
			query = query.Where("active", "==", true)
		}
		return query.OrderBy("name", firestore.Asc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.CatalogItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, decodeItem(doc.ID, doc.Data))
	}
	return items, nil
}

func encodeItem(item domain.CatalogItem) itemDocument {
	return itemDocument{
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Active:    item.Active,
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	}
}

func decodeItem(id string, doc itemDocument) domain.CatalogItem {
	return domain.CatalogItem{
		ID:        id,
		Name:      doc.Name,
		UnitPrice: doc.UnitPrice,
		Active:    doc.Active,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

var _ repositories.ItemRepository = (*ItemRepository)(nil)
