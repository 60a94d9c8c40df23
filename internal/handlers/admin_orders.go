package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/platform/httpx"
	"github.com/fotoescola/api/internal/platform/pagination"
	"github.com/fotoescola/api/internal/services"
)

const maxOrderRequestBody = 8 * 1024

// AdminOrderHandlers serves the back-office order surface.
type AdminOrderHandlers struct {
	orders services.OrderService
}

// NewAdminOrderHandlers constructs the admin order handlers.
func NewAdminOrderHandlers(orders services.OrderService) *AdminOrderHandlers {
	return &AdminOrderHandlers{orders: orders}
}

// Routes registers order endpoints under the admin group.
func (h *AdminOrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.list)
	r.Get("/orders/{orderID}", h.get)
	r.Patch("/orders/{orderID}/status", h.updateStatus)
	r.Get("/orders/by-payment/{paymentID}", h.findByPaymentID)
}

type orderListResponse struct {
	Orders        []orderPayload `json:"orders"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

func (h *AdminOrderHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	filter := domain.OrderFilter{
		Status:        domain.OrderStatus(strings.TrimSpace(query.Get("status"))),
		PaymentStatus: domain.PaymentStatus(strings.TrimSpace(query.Get("paymentStatus"))),
		StudentID:     strings.TrimSpace(query.Get("studentId")),
	}

	page, err := h.orders.List(ctx, filter, domain.Pagination{
		PageSize:  params.PageSize,
		PageToken: params.Cursor,
	})
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	resp := orderListResponse{
		Orders:        make([]orderPayload, 0, len(page.Items)),
		NextPageToken: pagination.EncodeToken(page.NextPageToken),
	}
	for _, order := range page.Items {
		resp.Orders = append(resp.Orders, orderToPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

type orderDetailsResponse struct {
	Order orderPayload       `json:"order"`
	Items []orderItemPayload `json:"items"`
}

func (h *AdminOrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	details, err := h.orders.Get(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}

	resp := orderDetailsResponse{
		Order: orderToPayload(details.Order),
		Items: make([]orderItemPayload, 0, len(details.Items)),
	}
	for _, item := range details.Items {
		resp.Items = append(resp.Items, orderItemToPayload(item))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

type orderStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

func (h *AdminOrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxOrderRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req orderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	var cmd services.OrderStatusCommand
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		status := domain.OrderStatus(trimmed)
		cmd.Status = &status
	}
	if trimmed := strings.TrimSpace(req.PaymentStatus); trimmed != "" {
		status := domain.PaymentStatus(trimmed)
		cmd.PaymentStatus = &status
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "orderID"), cmd)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderToPayload(order))
}

func (h *AdminOrderHandlers) findByPaymentID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.FindByPaymentID(ctx, chi.URLParam(r, "paymentID"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderToPayload(order))
}

func (h *AdminOrderHandlers) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", "requested status transition is not allowed", http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("orders_unavailable", "order service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("orders_error", "failed to process order request", http.StatusInternalServerError))
	}
}
