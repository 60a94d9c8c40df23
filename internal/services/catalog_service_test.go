package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
)

func newTestCatalogService(t *testing.T, products *stubProductRepo, methods *stubShippingMethodRepo) CatalogService {
	t.Helper()
	if products == nil {
		products = &stubProductRepo{}
	}
	if methods == nil {
		methods = &stubShippingMethodRepo{}
	}
	counter := 0
	svc, err := NewCatalogService(CatalogServiceDeps{
		Products:        products,
		ShippingMethods: methods,
		Clock:           func() time.Time { return time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC) },
		IDGenerator: func() string {
			counter++
			return []string{"gen-1", "gen-2"}[counter-1]
		},
	})
	if err != nil {
		t.Fatalf("NewCatalogService returned error: %v", err)
	}
	return svc
}

func TestCreateProductDefaultsToActive(t *testing.T) {
	var inserted domain.Product
	products := &stubProductRepo{
		insert: func(ctx context.Context, product domain.Product) error {
			inserted = product
			return nil
		},
	}

	svc := newTestCatalogService(t, products, nil)
	product, err := svc.CreateProduct(context.Background(), ProductInput{
		Name:  "Print 10x15",
		Price: "10.50",
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}
	if !inserted.Active {
		t.Fatalf("expected new products active by default")
	}
	if !product.Price.Equal(decimal.RequireFromString("10.50")) {
		t.Fatalf("unexpected price %s", product.Price)
	}
	if product.ID != "gen-1" {
		t.Fatalf("expected generated id, got %q", product.ID)
	}
}

func TestCreateProductRejectsBadPrice(t *testing.T) {
	svc := newTestCatalogService(t, nil, nil)

	for _, price := range []string{"", "abc", "-1.00"} {
		if _, err := svc.CreateProduct(context.Background(), ProductInput{Name: "Print", Price: price}); !errors.Is(err, ErrCatalogInvalidInput) {
			t.Fatalf("price %q: expected ErrCatalogInvalidInput, got %v", price, err)
		}
	}
}

func TestUpdateProductAppliesPartialChanges(t *testing.T) {
	existing := domain.Product{
		ID:     "P1",
		Name:   "Print",
		Price:  decimal.RequireFromString("10.00"),
		Active: true,
	}
	var updated domain.Product
	products := &stubProductRepo{
		findByID: func(ctx context.Context, productID string) (domain.Product, error) {
			return existing, nil
		},
		update: func(ctx context.Context, product domain.Product) error {
			updated = product
			return nil
		},
	}

	inactive := false
	svc := newTestCatalogService(t, products, nil)
	_, err := svc.UpdateProduct(context.Background(), "P1", ProductInput{Active: &inactive})
	if err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}
	if updated.Active {
		t.Fatalf("expected product deactivated")
	}
	if updated.Name != "Print" || !updated.Price.Equal(existing.Price) {
		t.Fatalf("expected untouched fields preserved, got %+v", updated)
	}
}

func TestListProductsStorefrontSeesActiveOnly(t *testing.T) {
	var activeOnly bool
	products := &stubProductRepo{
		list: func(ctx context.Context, active bool) ([]domain.Product, error) {
			activeOnly = active
			return nil, nil
		},
	}

	svc := newTestCatalogService(t, products, nil)
	if _, err := svc.ListProducts(context.Background(), false); err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if !activeOnly {
		t.Fatalf("expected active-only listing for storefront callers")
	}
}

func TestCreateShippingMethodValidatesType(t *testing.T) {
	svc := newTestCatalogService(t, nil, nil)

	if _, err := svc.CreateShippingMethod(context.Background(), ShippingMethodInput{
		Name:  "Drone",
		Price: "5.00",
		Type:  domain.ShippingType("drone"),
	}); !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
}

func TestCreateShippingMethodStoresPickup(t *testing.T) {
	var inserted domain.ShippingMethod
	methods := &stubShippingMethodRepo{
		insert: func(ctx context.Context, method domain.ShippingMethod) error {
			inserted = method
			return nil
		},
	}

	svc := newTestCatalogService(t, nil, methods)
	_, err := svc.CreateShippingMethod(context.Background(), ShippingMethodInput{
		Name:  "Levantamento na escola",
		Price: "0.00",
		Type:  domain.ShippingTypePickup,
	})
	if err != nil {
		t.Fatalf("CreateShippingMethod returned error: %v", err)
	}
	if inserted.Type != domain.ShippingTypePickup || !inserted.Price.IsZero() {
		t.Fatalf("unexpected method %+v", inserted)
	}
}

func TestGetProductTranslatesNotFound(t *testing.T) {
	products := &stubProductRepo{
		findByID: func(ctx context.Context, productID string) (domain.Product, error) {
			return domain.Product{}, errStubNotFound
		},
	}

	svc := newTestCatalogService(t, products, nil)
	if _, err := svc.GetProduct(context.Background(), "missing"); !errors.Is(err, ErrCatalogNotFound) {
		t.Fatalf("expected ErrCatalogNotFound, got %v", err)
	}
}
