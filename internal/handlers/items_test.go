package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/api/internal/services"
)

type stubCatalogService struct {
	createFn  func(context.Context, services.CreateItemCommand) (services.CatalogItem, error)
	updateFn  func(context.Context, services.UpdateItemCommand) (services.CatalogItem, error)
	getFn     func(context.Context, string) (services.CatalogItem, error)
	listFn    func(context.Context, services.ItemListFilter) ([]services.CatalogItem, error)
	resolveFn func(context.Context, string) (services.CatalogItem, error)
}

func (s *stubCatalogService) CreateItem(ctx context.Context, cmd services.CreateItemCommand) (services.CatalogItem, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.CatalogItem{}, nil
}

func (s *stubCatalogService) UpdateItem(ctx context.Context, cmd services.UpdateItemCommand) (services.CatalogItem, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.CatalogItem{}, nil
}

func (s *stubCatalogService) GetItem(ctx context.Context, itemID string) (services.CatalogItem, error) {
	if s.getFn != nil {
		return s.getFn(ctx, itemID)
	}
	return services.CatalogItem{}, nil
}

func (s *stubCatalogService) ListItems(ctx context.Context, filter services.ItemListFilter) ([]services.CatalogItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubCatalogService) ResolveItem(ctx context.Context, itemID string) (services.CatalogItem, error) {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, itemID)
	}
	return services.CatalogItem{}, nil
}

func newItemsRouter(svc services.CatalogService) http.Handler {
	r := chi.NewRouter()
	r.Route("/items", NewItemHandlers(svc).Routes)
	return r
}

func TestCreateItemEndpoint(t *testing.T) {
	svc := &stubCatalogService{createFn: func(_ context.Context, cmd services.CreateItemCommand) (services.CatalogItem, error) {
		return services.CatalogItem{ID: "itm_1", Name: cmd.Name, UnitPrice: cmd.UnitPrice, Active: true}, nil
	}}

	body := `{"name": "Chocolate Cake", "unit_price": 2500}`
	req := httptest.NewRequest(http.MethodPost, "/items/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newItemsRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Item struct {
			ID        string `json:"id"`
			UnitPrice int64  `json:"unit_price"`
			Active    bool   `json:"active"`
		} `json:"item"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Item.ID != "itm_1" || resp.Item.UnitPrice != 2500 || !resp.Item.Active {
		t.Fatalf("unexpected payload: %+v", resp.Item)
	}
}

func TestGetItemEndpointNotFound(t *testing.T) {
	svc := &stubCatalogService{getFn: func(context.Context, string) (services.CatalogItem, error) {
		return services.CatalogItem{}, services.ErrItemNotFound
	}}

	req := httptest.NewRequest(http.MethodGet, "/items/itm_ghost", nil)
	rr := httptest.NewRecorder()
	newItemsRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListItemsEndpointParsesActiveFilter(t *testing.T) {
	var captured services.ItemListFilter
	svc := &stubCatalogService{listFn: func(_ context.Context, filter services.ItemListFilter) ([]services.CatalogItem, error) {
		captured = filter
		return []services.CatalogItem{{ID: "itm_1", Name: "Cake", UnitPrice: 2500, Active: true}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/items/?active=true&limit=5", nil)
	rr := httptest.NewRecorder()
	newItemsRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !captured.ActiveOnly || captured.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", captured)
	}
}

func TestUpdateItemEndpointForwardsPatch(t *testing.T) {
	var captured services.UpdateItemCommand
	svc := &stubCatalogService{updateFn: func(_ context.Context, cmd services.UpdateItemCommand) (services.CatalogItem, error) {
		captured = cmd
		return services.CatalogItem{ID: cmd.ItemID, Name: "Cake", UnitPrice: 2800, Active: false}, nil
	}}

	body := `{"unit_price": 2800, "active": false}`
	req := httptest.NewRequest(http.MethodPatch, "/items/itm_1", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newItemsRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured.ItemID != "itm_1" {
		t.Fatalf("expected item id from path, got %q", captured.ItemID)
	}
	if captured.Name != nil {
		t.Fatalf("expected absent name to stay nil")
	}
	if captured.UnitPrice == nil || *captured.UnitPrice != 2800 {
		t.Fatalf("expected unit price pointer, got %v", captured.UnitPrice)
	}
	if captured.Active == nil || *captured.Active {
		t.Fatalf("expected active=false pointer, got %v", captured.Active)
	}
}
