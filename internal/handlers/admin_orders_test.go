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
	"github.com/fotoescola/api/internal/platform/pagination"
	"github.com/fotoescola/api/internal/services"
)

func adminOrderRouter(t *testing.T, h *AdminOrderHandlers) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/admin", func(group chi.Router) {
		h.Routes(group)
	})
	return r
}

func TestAdminOrdersListAppliesFiltersAndPaging(t *testing.T) {
	var gotFilter domain.OrderFilter
	var gotPager domain.Pagination
	orders := &stubOrderService{
		list: func(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error) {
			gotFilter = filter
			gotPager = pager
			return domain.CursorPage[domain.Order]{
				Items:         []domain.Order{{ID: "order-1", TotalAmount: decimal.RequireFromString("21.00")}},
				NextPageToken: "order-1",
			}, nil
		},
	}

	router := adminOrderRouter(t, NewAdminOrderHandlers(orders))

	token := pagination.EncodeToken("order-0")
	req := httptest.NewRequest(http.MethodGet, "/admin/orders?status=pending&paymentStatus=completed&studentId=S1&pageSize=25&pageToken="+token, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotFilter.Status != domain.OrderStatusPending || gotFilter.PaymentStatus != domain.PaymentStatusCompleted || gotFilter.StudentID != "S1" {
		t.Fatalf("unexpected filter %+v", gotFilter)
	}
	if gotPager.PageSize != 25 || gotPager.PageToken != "order-0" {
		t.Fatalf("unexpected pager %+v", gotPager)
	}

	var body orderListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Orders) != 1 || body.Orders[0].ID != "order-1" {
		t.Fatalf("unexpected orders %+v", body.Orders)
	}

	cursor, err := pagination.DecodeToken(body.NextPageToken)
	if err != nil || cursor != "order-1" {
		t.Fatalf("expected opaque next page token for order-1, got %q (%v)", body.NextPageToken, err)
	}
}

func TestAdminOrdersListRejectsBadToken(t *testing.T) {
	router := adminOrderRouter(t, NewAdminOrderHandlers(&stubOrderService{}))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders?pageToken=%21%21not-base64", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminOrdersGetJoinsItems(t *testing.T) {
	orders := &stubOrderService{
		get: func(ctx context.Context, orderID string) (services.OrderDetails, error) {
			return services.OrderDetails{
				Order: domain.Order{ID: orderID},
				Items: []domain.OrderItem{{
					ID:          "item-1",
					OrderID:     orderID,
					PhotoID:     "p1",
					ProductID:   "P1",
					PriceAtTime: decimal.RequireFromString("10.50"),
					Quantity:    2,
				}},
			}, nil
		},
	}

	router := adminOrderRouter(t, NewAdminOrderHandlers(orders))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders/order-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body orderDetailsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Order.ID != "order-1" || len(body.Items) != 1 || body.Items[0].PriceAtTime != "10.50" {
		t.Fatalf("unexpected details %+v", body)
	}
}

func TestAdminOrdersUpdateStatus(t *testing.T) {
	var received services.OrderStatusCommand
	orders := &stubOrderService{
		updateStatus: func(ctx context.Context, orderID string, cmd services.OrderStatusCommand) (domain.Order, error) {
			received = cmd
			return domain.Order{ID: orderID, Status: domain.OrderStatusCompleted}, nil
		},
	}

	router := adminOrderRouter(t, NewAdminOrderHandlers(orders))

	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/order-1/status", strings.NewReader(`{"status":"completed"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.Status == nil || *received.Status != domain.OrderStatusCompleted {
		t.Fatalf("unexpected command %+v", received)
	}
	if received.PaymentStatus != nil {
		t.Fatalf("payment status must stay untouched, got %+v", received)
	}
}

func TestAdminOrdersUpdateStatusInvalidTransition(t *testing.T) {
	orders := &stubOrderService{
		updateStatus: func(ctx context.Context, orderID string, cmd services.OrderStatusCommand) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderInvalidTransition
		},
	}

	router := adminOrderRouter(t, NewAdminOrderHandlers(orders))

	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/order-1/status", strings.NewReader(`{"status":"completed"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestAdminOrdersFindByPaymentID(t *testing.T) {
	orders := &stubOrderService{
		findByPaymentID: func(ctx context.Context, paymentID string) (domain.Order, error) {
			if paymentID != "cs_test_1" {
				t.Fatalf("unexpected payment id %q", paymentID)
			}
			return domain.Order{ID: "order-1", PaymentID: paymentID}, nil
		},
	}

	router := adminOrderRouter(t, NewAdminOrderHandlers(orders))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders/by-payment/cs_test_1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body orderPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.ID != "order-1" {
		t.Fatalf("unexpected order %+v", body)
	}
}
