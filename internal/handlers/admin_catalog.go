package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/platform/httpx"
	"github.com/fotoescola/api/internal/services"
)

const maxCatalogRequestBody = 16 * 1024

// AdminCatalogHandlers serves product and shipping method management.
type AdminCatalogHandlers struct {
	catalog services.CatalogService
}

// NewAdminCatalogHandlers constructs the admin catalog handlers.
func NewAdminCatalogHandlers(catalog services.CatalogService) *AdminCatalogHandlers {
	return &AdminCatalogHandlers{catalog: catalog}
}

// Routes registers catalog endpoints under the admin group.
func (h *AdminCatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{productID}", h.getProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)

	r.Get("/shipping-methods", h.listShippingMethods)
	r.Post("/shipping-methods", h.createShippingMethod)
	r.Put("/shipping-methods/{methodID}", h.updateShippingMethod)
	r.Delete("/shipping-methods/{methodID}", h.deleteShippingMethod)
}

func (h *AdminCatalogHandlers) guard(w http.ResponseWriter, r *http.Request) bool {
	if h.catalog != nil {
		return true
	}
	httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
	return false
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	Price       string `json:"price"`
	Active      *bool  `json:"active"`
}

func (h *AdminCatalogHandlers) decodeProduct(w http.ResponseWriter, r *http.Request) (services.ProductInput, bool) {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxCatalogRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return services.ProductInput{}, false
	}
	var req productRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return services.ProductInput{}, false
	}
	return services.ProductInput{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Price:       strings.TrimSpace(req.Price),
		Active:      req.Active,
	}, true
}

func (h *AdminCatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	products, err := h.catalog.ListProducts(ctx, true)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, productToPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": payload})
}

func (h *AdminCatalogHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	input, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	product, err := h.catalog.CreateProduct(ctx, input)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, productToPayload(product))
}

func (h *AdminCatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productToPayload(product))
}

func (h *AdminCatalogHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	input, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "productID"), input)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, productToPayload(product))
}

func (h *AdminCatalogHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.catalog.DeleteProduct(ctx, chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type shippingMethodRequest struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Type  string `json:"type"`
}

func (h *AdminCatalogHandlers) decodeShippingMethod(w http.ResponseWriter, r *http.Request) (services.ShippingMethodInput, bool) {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxCatalogRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return services.ShippingMethodInput{}, false
	}
	var req shippingMethodRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return services.ShippingMethodInput{}, false
	}
	return services.ShippingMethodInput{
		Name:  strings.TrimSpace(req.Name),
		Price: strings.TrimSpace(req.Price),
		Type:  domain.ShippingType(strings.ToLower(strings.TrimSpace(req.Type))),
	}, true
}

func (h *AdminCatalogHandlers) listShippingMethods(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	methods, err := h.catalog.ListShippingMethods(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	payload := make([]shippingMethodPayload, 0, len(methods))
	for _, method := range methods {
		payload = append(payload, shippingMethodToPayload(method))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"shippingMethods": payload})
}

func (h *AdminCatalogHandlers) createShippingMethod(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	input, ok := h.decodeShippingMethod(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	method, err := h.catalog.CreateShippingMethod(ctx, input)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, shippingMethodToPayload(method))
}

func (h *AdminCatalogHandlers) updateShippingMethod(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	input, ok := h.decodeShippingMethod(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	method, err := h.catalog.UpdateShippingMethod(ctx, chi.URLParam(r, "methodID"), input)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, shippingMethodToPayload(method))
}

func (h *AdminCatalogHandlers) deleteShippingMethod(w http.ResponseWriter, r *http.Request) {
	if !h.guard(w, r) {
		return
	}
	ctx := r.Context()
	if err := h.catalog.DeleteShippingMethod(ctx, chi.URLParam(r, "methodID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
