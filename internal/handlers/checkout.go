package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/platform/auth"
	"github.com/fotoescola/api/internal/platform/httpx"
	"github.com/fotoescola/api/internal/services"
)

const (
	maxCheckoutRequestBody = 32 * 1024

	idempotencyKeyHeader = "Idempotency-Key"
)

// CheckoutHandlers exposes order submission and payment re-dispatch for
// guardians holding a valid gallery session.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs the checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submit)
	r.Post("/orders/{orderID}/payment", h.createPayment)
}

type checkoutItemRequest struct {
	PhotoURL  string `json:"photoUrl"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type checkoutRequest struct {
	Items            []checkoutItemRequest  `json:"items"`
	ShippingMethodID string                 `json:"shippingMethodId"`
	Shipping         shippingDetailsPayload `json:"shipping"`
	Email            string                 `json:"email"`
	PaymentMethod    string                 `json:"paymentMethod"`
}

type checkoutResponse struct {
	Order         orderPayload   `json:"order"`
	SkippedPhotos int            `json:"skippedPhotos,omitempty"`
	Payment       paymentPayload `json:"payment"`
	Replayed      bool           `json:"replayed,omitempty"`
}

func (h *CheckoutHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	session, ok := auth.GallerySessionFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "gallery session required", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req checkoutRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if len(req.Items) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "items must not be empty", http.StatusBadRequest))
		return
	}

	items := make([]services.CartItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.CartItemInput{
			PhotoURL:  strings.TrimSpace(item.PhotoURL),
			ProductID: strings.TrimSpace(item.ProductID),
			StudentID: session.StudentID,
			Quantity:  item.Quantity,
		})
	}

	cmd := services.CheckoutCommand{
		StudentID:        session.StudentID,
		Items:            items,
		ShippingMethodID: strings.TrimSpace(req.ShippingMethodID),
		Shipping: domain.ShippingDetails{
			Name:       req.Shipping.Name,
			Phone:      req.Shipping.Phone,
			Address:    req.Shipping.Address,
			PostalCode: req.Shipping.PostalCode,
			City:       req.Shipping.City,
		},
		Email:          strings.TrimSpace(req.Email),
		PaymentMethod:  domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyKeyHeader)),
	}

	result, err := h.checkout.Checkout(ctx, cmd)
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSONResponse(w, status, checkoutResponse{
		Order:         orderToPayload(result.Order),
		SkippedPhotos: result.SkippedPhotos,
		Payment:       paymentToPayload(result.Payment),
		Replayed:      result.Replayed,
	})
}

type createPaymentRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
}

func (h *CheckoutHandlers) createPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	session, ok := auth.GallerySessionFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "gallery session required", http.StatusUnauthorized))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req createPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	outcome, err := h.checkout.CreatePayment(ctx, services.CreatePaymentCommand{
		OrderID:       orderID,
		PaymentMethod: domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		Email:         strings.TrimSpace(req.Email),
		Name:          strings.TrimSpace(req.Name),
		Phone:         strings.TrimSpace(req.Phone),
		StudentID:     session.StudentID,
	})
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"payment": paymentToPayload(outcome)})
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "order or referenced entity not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCheckoutPersistFailed):
		httpx.WriteError(ctx, w, httpx.NewError("order_assembly_failed", "order could not be assembled; retry checkout", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout request", http.StatusInternalServerError))
	}
}
