package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	stripe "github.com/stripe/stripe-go/v78"

	"github.com/fotoescola/api/internal/services"
)

func webhookRouter(t *testing.T, h *WebhookHandlers) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/webhooks", func(group chi.Router) {
		h.Routes(group)
	})
	return r
}

func stubVerifier(event stripe.Event, err error) eventVerifier {
	return func(payload []byte, header, secret string) (stripe.Event, error) {
		return event, err
	}
}

func completedSessionEvent(t *testing.T, sessionID, orderID string) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":       sessionID,
		"metadata": map[string]string{"order_id": orderID},
	})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestStripeWebhookReconcilesCompletedSession(t *testing.T) {
	var received services.CardWebhookEvent
	webhooks := &stubWebhookService{
		cardEvent: func(ctx context.Context, event services.CardWebhookEvent) error {
			received = event
			return nil
		},
	}

	h := NewWebhookHandlers(WebhookHandlersConfig{
		Webhooks:            webhooks,
		StripeWebhookSecret: "whsec_test",
		Verify:              stubVerifier(completedSessionEvent(t, "cs_test_1", "order-1"), nil),
	})
	router := webhookRouter(t, h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set(stripeSignatureHeader, "t=1,v1=sig")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.Type != "checkout.session.completed" || received.SessionID != "cs_test_1" || received.OrderID != "order-1" {
		t.Fatalf("unexpected event %+v", received)
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	h := NewWebhookHandlers(WebhookHandlersConfig{
		Webhooks: &stubWebhookService{},
		Verify:   stubVerifier(stripe.Event{}, errors.New("signature mismatch")),
	})
	router := webhookRouter(t, h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestGatewayWebhookAcceptsQueryCallback(t *testing.T) {
	var received services.GatewayNotification
	webhooks := &stubWebhookService{
		notification: func(ctx context.Context, notification services.GatewayNotification) error {
			received = notification
			return nil
		},
	}

	h := NewWebhookHandlers(WebhookHandlersConfig{Webhooks: webhooks})
	router := webhookRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/eupago?valor=21.00&canal=mbway&referencia=123456789&transacao=TX1&identificador=order-1&estado=0", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.OrderID != "order-1" || received.TransactionID != "TX1" || received.State != "0" {
		t.Fatalf("unexpected notification %+v", received)
	}
	if received.Amount != "21.00" || received.Reference != "123456789" {
		t.Fatalf("unexpected notification %+v", received)
	}
}

func TestGatewayWebhookAcceptsFormPost(t *testing.T) {
	var received services.GatewayNotification
	webhooks := &stubWebhookService{
		notification: func(ctx context.Context, notification services.GatewayNotification) error {
			received = notification
			return nil
		},
	}

	h := NewWebhookHandlers(WebhookHandlersConfig{Webhooks: webhooks})
	router := webhookRouter(t, h)

	form := url.Values{
		"valor":         {"10.00"},
		"transacao":     {"TX2"},
		"identificador": {"order-2"},
		"estado":        {"5"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/eupago", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if received.TransactionID != "TX2" || received.State != "5" {
		t.Fatalf("unexpected notification %+v", received)
	}
}

func TestGatewayWebhookAcceptsJSONPost(t *testing.T) {
	var received services.GatewayNotification
	webhooks := &stubWebhookService{
		notification: func(ctx context.Context, notification services.GatewayNotification) error {
			received = notification
			return nil
		},
	}

	h := NewWebhookHandlers(WebhookHandlersConfig{Webhooks: webhooks})
	router := webhookRouter(t, h)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/eupago", strings.NewReader(`{"valor": 21.5, "transacao": "TX3", "identificador": "order-3", "estado": "0"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if received.TransactionID != "TX3" || received.Amount != "21.5" {
		t.Fatalf("unexpected notification %+v", received)
	}
}

func TestGatewayWebhookRejectsUnrecognisedPayload(t *testing.T) {
	h := NewWebhookHandlers(WebhookHandlersConfig{Webhooks: &stubWebhookService{}})
	router := webhookRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/eupago", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestGatewayWebhookUnknownOrder(t *testing.T) {
	webhooks := &stubWebhookService{
		notification: func(ctx context.Context, notification services.GatewayNotification) error {
			return services.ErrWebhookOrderNotFound
		},
	}

	h := NewWebhookHandlers(WebhookHandlersConfig{Webhooks: webhooks})
	router := webhookRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/eupago?transacao=TX9&estado=0", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestGatewayWebhookReconcileFailure(t *testing.T) {
	webhooks := &stubWebhookService{
		notification: func(ctx context.Context, notification services.GatewayNotification) error {
			return errors.New("firestore down")
		},
	}

	h := NewWebhookHandlers(WebhookHandlersConfig{Webhooks: webhooks})
	router := webhookRouter(t, h)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/eupago?transacao=TX9&estado=0", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
