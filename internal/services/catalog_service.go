package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/orderdesk/api/internal/repositories"
)

const itemIDPrefix = "itm_"

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Items       repositories.ItemRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	items repositories.ItemRepository
	clock func() time.Time
	newID func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Items == nil {
		return nil, errors.New("catalog service: item repository is required")
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

	return &catalogService{
		items: deps.Items,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *catalogService) CreateItem(ctx context.Context, cmd CreateItemCommand) (CatalogItem, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return CatalogItem{}, invalidField("name", "item name is required")
	}
	if verr := validateBoundedString("name", name, maxNameLength); verr != nil {
		return CatalogItem{}, verr
	}
	if cmd.UnitPrice <= 0 {
		return CatalogItem{}, invalidField("unit_price", "must be a positive amount in minor units")
	}

	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}

	now := s.clock()
	item := CatalogItem{
		ID:        itemIDPrefix + s.newID(),
		Name:      name,
		UnitPrice: cmd.UnitPrice,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.items.Insert(ctx, item); err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *catalogService) UpdateItem(ctx context.Context, cmd UpdateItemCommand) (CatalogItem, error) {
	itemID := strings.TrimSpace(cmd.ItemID)
	if itemID == "" {
		return CatalogItem{}, invalidField("item_id", "item id is required")
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}

	if cmd.Name != nil {
		name := strings.TrimSpace(*cmd.Name)
		if name == "" {
			return CatalogItem{}, invalidField("name", "item name is required")
		}
		if verr := validateBoundedString("name", name, maxNameLength); verr != nil {
			return CatalogItem{}, verr
		}
		item.Name = name
	}

	if cmd.UnitPrice != nil {
		if *cmd.UnitPrice <= 0 {
			return CatalogItem{}, invalidField("unit_price", "must be a positive amount in minor units")
		}
		item.UnitPrice = *cmd.UnitPrice
	}

	if cmd.Active != nil {
		item.Active = *cmd.Active
	}

	item.UpdatedAt = s.clock()

	if err := s.items.Update(ctx, item); err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *catalogService) GetItem(ctx context.Context, itemID string) (CatalogItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return CatalogItem{}, invalidField("item_id", "item id is required")
	}

	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return CatalogItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *catalogService) ListItems(ctx context.Context, filter ItemListFilter) ([]CatalogItem, error) {
	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return items, nil
}

// ResolveItem looks up an item for order line resolution. Retired items are
// reported as not found so new orders cannot reference them.
func (s *catalogService) ResolveItem(ctx context.Context, itemID string) (CatalogItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return CatalogItem{}, err
	}
	if !item.Active {
		return CatalogItem{}, fmt.Errorf("%w: item %q is retired", ErrItemNotFound, itemID)
	}
	return item, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrItemNotFound, err)
	}
	return err
}

var _ CatalogResolver = (*catalogService)(nil)
