package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/services"
)

func checkoutRouter(t *testing.T, h *CheckoutHandlers, now time.Time) (chi.Router, string) {
	t.Helper()
	sessions := testSessionManager(t, now)
	token, _, err := sessions.Issue("S1", "C1")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	r := chi.NewRouter()
	r.Route("/checkout", func(group chi.Router) {
		group.Use(sessions.RequireGallerySession())
		h.Routes(group)
	})
	return r, token
}

const checkoutBody = `{
	"items": [{"photoUrl": "https://cdn.example.com/photos/p1.jpg", "productId": "P1", "quantity": 2}],
	"shippingMethodId": "M1",
	"shipping": {"name": "Maria Santos", "phone": "912345678"},
	"email": "maria@example.com",
	"paymentMethod": "mbway"
}`

func TestCheckoutSubmitCreatesOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	var received services.CheckoutCommand
	checkout := &stubCheckoutService{
		checkout: func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			received = cmd
			return services.CheckoutResult{
				Order: domain.Order{
					ID:            "order-1",
					StudentID:     cmd.StudentID,
					Status:        domain.OrderStatusPending,
					PaymentStatus: domain.PaymentStatusPending,
					TotalAmount:   decimal.RequireFromString("21.00"),
					ShippingPrice: decimal.Zero,
				},
				Payment: services.PaymentOutcome{
					Provider:  "eupago",
					PaymentID: "TX1",
					Reference: "123456789",
					Status:    string(domain.PaymentStatusPending),
				},
			}, nil
		},
	}

	router, token := checkoutRouter(t, NewCheckoutHandlers(checkout), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/", strings.NewReader(checkoutBody))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(idempotencyKeyHeader, "idem-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	if received.StudentID != "S1" {
		t.Fatalf("expected student from session, got %q", received.StudentID)
	}
	if received.IdempotencyKey != "idem-1" {
		t.Fatalf("expected idempotency key from header, got %q", received.IdempotencyKey)
	}
	if len(received.Items) != 1 || received.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", received.Items)
	}
	if received.PaymentMethod != domain.PaymentMethodMBWay {
		t.Fatalf("unexpected payment method %q", received.PaymentMethod)
	}

	var body checkoutResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Order.ID != "order-1" || body.Order.TotalAmount != "21.00" {
		t.Fatalf("unexpected order payload %+v", body.Order)
	}
	if body.Payment.Reference != "123456789" {
		t.Fatalf("unexpected payment payload %+v", body.Payment)
	}
}

func TestCheckoutSubmitReplayedOrderReturns200(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	checkout := &stubCheckoutService{
		checkout: func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{
				Order:    domain.Order{ID: "order-1"},
				Replayed: true,
			}, nil
		},
	}

	router, token := checkoutRouter(t, NewCheckoutHandlers(checkout), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/", strings.NewReader(checkoutBody))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for replay, got %d", rr.Code)
	}
}

func TestCheckoutSubmitRequiresSession(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	router, _ := checkoutRouter(t, NewCheckoutHandlers(&stubCheckoutService{}), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/", strings.NewReader(checkoutBody))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestCheckoutSubmitTranslatesInvalidInput(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	checkout := &stubCheckoutService{
		checkout: func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{}, services.ErrCheckoutInvalidInput
		},
	}

	router, token := checkoutRouter(t, NewCheckoutHandlers(checkout), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/", strings.NewReader(checkoutBody))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCheckoutSubmitUnknownProductReturns400(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	checkout := &stubCheckoutService{
		checkout: func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
			if len(cmd.Items) == 1 && cmd.Items[0].ProductID == "ghost" {
				return services.CheckoutResult{}, services.ErrCheckoutInvalidInput
			}
			return services.CheckoutResult{}, nil
		},
	}

	router, token := checkoutRouter(t, NewCheckoutHandlers(checkout), now)

	body := `{
		"items": [{"photoUrl": "https://cdn.example.com/photos/p1.jpg", "productId": "ghost", "quantity": 1}],
		"shippingMethodId": "M1",
		"shipping": {"name": "Maria Santos", "phone": "912345678"},
		"email": "maria@example.com",
		"paymentMethod": "mbway"
	}`
	req := httptest.NewRequest(http.MethodPost, "/checkout/", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown product, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCheckoutSubmitRejectsEmptyItems(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	router, token := checkoutRouter(t, NewCheckoutHandlers(&stubCheckoutService{}), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/", strings.NewReader(`{"items": []}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCreatePaymentDispatchesForExistingOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)

	var received services.CreatePaymentCommand
	checkout := &stubCheckoutService{
		createPayment: func(ctx context.Context, cmd services.CreatePaymentCommand) (services.PaymentOutcome, error) {
			received = cmd
			return services.PaymentOutcome{
				Provider: "eupago",
				Multibanco: &domain.MultibancoReference{
					Entity:    "12345",
					Reference: "987654321",
					Amount:    decimal.RequireFromString("21.00"),
				},
				Status: string(domain.PaymentStatusPending),
			}, nil
		},
	}

	router, token := checkoutRouter(t, NewCheckoutHandlers(checkout), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/orders/order-1/payment", strings.NewReader(`{"paymentMethod":"multibanco","email":"maria@example.com"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.OrderID != "order-1" || received.PaymentMethod != domain.PaymentMethodMultibanco {
		t.Fatalf("unexpected command %+v", received)
	}
	if received.StudentID != "S1" {
		t.Fatalf("expected student from session, got %q", received.StudentID)
	}

	var body struct {
		Payment paymentPayload `json:"payment"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Payment.Multibanco == nil || body.Payment.Multibanco.Reference != "987654321" {
		t.Fatalf("expected multibanco reference, got %+v", body.Payment)
	}
	if body.Payment.Multibanco.Amount != "21.00" {
		t.Fatalf("expected fixed amount string, got %q", body.Payment.Multibanco.Amount)
	}
}

func TestCreatePaymentForeignOrderNotFound(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	checkout := &stubCheckoutService{
		createPayment: func(ctx context.Context, cmd services.CreatePaymentCommand) (services.PaymentOutcome, error) {
			if cmd.StudentID != "S1" {
				t.Fatalf("expected student from session, got %q", cmd.StudentID)
			}
			return services.PaymentOutcome{}, services.ErrCheckoutNotFound
		},
	}

	router, token := checkoutRouter(t, NewCheckoutHandlers(checkout), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/orders/order-2/payment", strings.NewReader(`{"paymentMethod":"card"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for another student's order, got %d", rr.Code)
	}
}

func TestCreatePaymentUnknownOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 30, 0, 0, time.UTC)
	checkout := &stubCheckoutService{
		createPayment: func(ctx context.Context, cmd services.CreatePaymentCommand) (services.PaymentOutcome, error) {
			return services.PaymentOutcome{}, services.ErrCheckoutNotFound
		},
	}

	router, token := checkoutRouter(t, NewCheckoutHandlers(checkout), now)

	req := httptest.NewRequest(http.MethodPost, "/checkout/orders/ghost/payment", strings.NewReader(`{"paymentMethod":"card"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
