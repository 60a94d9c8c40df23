package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/services"
)

func adminCatalogRouter(t *testing.T, h *AdminCatalogHandlers) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/admin", func(group chi.Router) {
		h.Routes(group)
	})
	return r
}

func TestAdminListProductsIncludesInactive(t *testing.T) {
	var gotIncludeInactive bool
	catalog := &stubCatalogService{
		listProducts: func(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
			gotIncludeInactive = includeInactive
			return []domain.Product{
				{ID: "P1", Name: "Print 10x15", Price: decimal.RequireFromString("10.50"), Active: true},
				{ID: "P2", Name: "Poster A3", Price: decimal.RequireFromString("25.00"), Active: false},
			}, nil
		},
	}

	router := adminCatalogRouter(t, NewAdminCatalogHandlers(catalog))

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !gotIncludeInactive {
		t.Fatalf("admin listing must include inactive products")
	}

	var body struct {
		Products []productPayload `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Products) != 2 || body.Products[1].Active {
		t.Fatalf("unexpected products %+v", body.Products)
	}
}

func TestAdminCreateProduct(t *testing.T) {
	var received services.ProductInput
	catalog := &stubCatalogService{
		createProduct: func(ctx context.Context, input services.ProductInput) (domain.Product, error) {
			received = input
			return domain.Product{
				ID:     "P1",
				Name:   input.Name,
				Price:  decimal.RequireFromString(input.Price),
				Active: true,
			}, nil
		},
	}

	router := adminCatalogRouter(t, NewAdminCatalogHandlers(catalog))

	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"name":" Print 10x15 ","price":"10.50","imageUrl":"https://cdn.example.com/print.jpg"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.Name != "Print 10x15" || received.Price != "10.50" {
		t.Fatalf("unexpected input %+v", received)
	}

	var body productPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.ID != "P1" || body.Price != "10.50" {
		t.Fatalf("unexpected product %+v", body)
	}
}

func TestAdminCreateProductRejectsBadPrice(t *testing.T) {
	catalog := &stubCatalogService{
		createProduct: func(ctx context.Context, input services.ProductInput) (domain.Product, error) {
			return domain.Product{}, services.ErrCatalogInvalidInput
		},
	}

	router := adminCatalogRouter(t, NewAdminCatalogHandlers(catalog))

	req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"name":"Print","price":"ten euros"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminUpdateProductDeactivates(t *testing.T) {
	var received services.ProductInput
	catalog := &stubCatalogService{
		updateProduct: func(ctx context.Context, productID string, input services.ProductInput) (domain.Product, error) {
			if productID != "P1" {
				t.Fatalf("unexpected product id %q", productID)
			}
			received = input
			return domain.Product{ID: productID, Name: input.Name, Price: decimal.RequireFromString("10.50")}, nil
		},
	}

	router := adminCatalogRouter(t, NewAdminCatalogHandlers(catalog))

	req := httptest.NewRequest(http.MethodPut, "/admin/products/P1", strings.NewReader(`{"name":"Print 10x15","price":"10.50","active":false}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.Active == nil || *received.Active {
		t.Fatalf("expected active=false to reach the service, got %+v", received)
	}
}

func TestAdminDeleteProductNotFound(t *testing.T) {
	catalog := &stubCatalogService{
		deleteProduct: func(ctx context.Context, productID string) error {
			return services.ErrCatalogNotFound
		},
	}

	router := adminCatalogRouter(t, NewAdminCatalogHandlers(catalog))

	req := httptest.NewRequest(http.MethodDelete, "/admin/products/ghost", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestAdminCreateShippingMethod(t *testing.T) {
	var received services.ShippingMethodInput
	catalog := &stubCatalogService{
		createShippingMethod: func(ctx context.Context, input services.ShippingMethodInput) (domain.ShippingMethod, error) {
			received = input
			return domain.ShippingMethod{
				ID:    "M1",
				Name:  input.Name,
				Price: decimal.RequireFromString(input.Price),
				Type:  input.Type,
			}, nil
		},
	}

	router := adminCatalogRouter(t, NewAdminCatalogHandlers(catalog))

	req := httptest.NewRequest(http.MethodPost, "/admin/shipping-methods", strings.NewReader(`{"name":"Envio CTT","price":"4.50","type":"Delivery"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.Type != domain.ShippingTypeDelivery {
		t.Fatalf("expected normalised shipping type, got %q", received.Type)
	}

	var body shippingMethodPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.ID != "M1" || body.Price != "4.50" {
		t.Fatalf("unexpected method %+v", body)
	}
}

func TestAdminDeleteShippingMethod(t *testing.T) {
	var deleted string
	catalog := &stubCatalogService{
		deleteShippingMethod: func(ctx context.Context, methodID string) error {
			deleted = methodID
			return nil
		},
	}

	router := adminCatalogRouter(t, NewAdminCatalogHandlers(catalog))

	req := httptest.NewRequest(http.MethodDelete, "/admin/shipping-methods/M1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if deleted != "M1" {
		t.Fatalf("unexpected method id %q", deleted)
	}
}
