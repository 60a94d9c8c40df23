package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/fotoescola/api/internal/platform/httpx"
	"github.com/fotoescola/api/internal/services"
)

const (
	maxWebhookBody        = 256 * 1024
	stripeSignatureHeader = "Stripe-Signature"
)

// eventVerifier checks a raw payload against its signature header and returns
// the decoded event. Split out so tests can bypass real signature computation.
type eventVerifier func(payload []byte, header, secret string) (stripe.Event, error)

// WebhookHandlers terminates payment provider callbacks.
type WebhookHandlers struct {
	webhooks     services.WebhookService
	stripeSecret string
	verify       eventVerifier
}

// WebhookHandlersConfig bundles construction parameters for WebhookHandlers.
type WebhookHandlersConfig struct {
	Webhooks            services.WebhookService
	StripeWebhookSecret string

	// Verify overrides signature verification; nil uses the provider library.
	Verify eventVerifier
}

// NewWebhookHandlers constructs webhook handlers for both payment providers.
func NewWebhookHandlers(cfg WebhookHandlersConfig) *WebhookHandlers {
	verify := cfg.Verify
	if verify == nil {
		verify = webhook.ConstructEvent
	}
	return &WebhookHandlers{
		webhooks:     cfg.Webhooks,
		stripeSecret: cfg.StripeWebhookSecret,
		verify:       verify,
	}
}

// Routes registers webhook endpoints under the provided router. The gateway
// endpoint accepts GET as well because the provider delivers notifications as
// query-string callbacks.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/stripe", h.stripeEvent)
	r.Get("/eupago", h.gatewayNotification)
	r.Post("/eupago", h.gatewayNotification)
}

func (h *WebhookHandlers) stripeEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.webhooks == nil {
		httpx.WriteError(ctx, w, httpx.NewError("webhooks_unavailable", "webhook service unavailable", http.StatusServiceUnavailable))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
		return
	}

	event, err := h.verify(payload, r.Header.Get(stripeSignatureHeader), h.stripeSecret)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "event signature verification failed", http.StatusBadRequest))
		return
	}

	cmd := services.CardWebhookEvent{Type: string(event.Type)}
	if len(event.Data.Raw) > 0 {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "event payload is not a checkout session", http.StatusBadRequest))
			return
		}
		cmd.SessionID = session.ID
		cmd.OrderID = session.Metadata["order_id"]
	}

	if err := h.webhooks.HandleCardEvent(ctx, cmd); err != nil {
		h.writeWebhookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
}

func (h *WebhookHandlers) gatewayNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.webhooks == nil {
		httpx.WriteError(ctx, w, httpx.NewError("webhooks_unavailable", "webhook service unavailable", http.StatusServiceUnavailable))
		return
	}

	notification, err := parseGatewayNotification(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	if err := h.webhooks.HandleGatewayNotification(ctx, notification); err != nil {
		h.writeWebhookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"received": true})
}

type gatewayJSONPayload struct {
	Valor         json.Number `json:"valor"`
	Canal         string      `json:"canal"`
	MP            string      `json:"mp"`
	Referencia    string      `json:"referencia"`
	Transacao     string      `json:"transacao"`
	Identificador string      `json:"identificador"`
	Estado        string      `json:"estado"`
	Entidade      string      `json:"entidade"`
}

// parseGatewayNotification accepts the three shapes the gateway delivers:
// query-string callbacks, form posts, and JSON posts.
func parseGatewayNotification(r *http.Request) (services.GatewayNotification, error) {
	values := r.URL.Query()

	if r.Method == http.MethodPost {
		contentType := strings.ToLower(r.Header.Get("Content-Type"))
		switch {
		case strings.Contains(contentType, "application/json"):
			var payload gatewayJSONPayload
			decoder := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody))
			decoder.UseNumber()
			if err := decoder.Decode(&payload); err != nil {
				return services.GatewayNotification{}, errors.New("request body must be valid JSON")
			}
			notification := notificationFromJSON(payload)
			if notification.State == "" && notification.OrderID == "" && notification.TransactionID == "" {
				return services.GatewayNotification{}, errors.New("unrecognised notification payload")
			}
			return notification, nil
		default:
			if err := r.ParseForm(); err != nil {
				return services.GatewayNotification{}, errors.New("unable to parse form payload")
			}
			values = r.Form
		}
	}

	notification := notificationFromValues(values)
	if notification.State == "" && notification.OrderID == "" && notification.TransactionID == "" {
		return services.GatewayNotification{}, errors.New("unrecognised notification payload")
	}
	return notification, nil
}

// The gateway labels the payment channel "canal" on newer callbacks and "mp"
// on legacy ones.
func notificationFromValues(values url.Values) services.GatewayNotification {
	channel := strings.TrimSpace(values.Get("canal"))
	if channel == "" {
		channel = strings.TrimSpace(values.Get("mp"))
	}
	return services.GatewayNotification{
		Amount:        strings.TrimSpace(values.Get("valor")),
		Channel:       channel,
		Reference:     strings.TrimSpace(values.Get("referencia")),
		TransactionID: strings.TrimSpace(values.Get("transacao")),
		OrderID:       strings.TrimSpace(values.Get("identificador")),
		State:         strings.TrimSpace(values.Get("estado")),
		Entity:        strings.TrimSpace(values.Get("entidade")),
	}
}

func notificationFromJSON(payload gatewayJSONPayload) services.GatewayNotification {
	channel := strings.TrimSpace(payload.Canal)
	if channel == "" {
		channel = strings.TrimSpace(payload.MP)
	}
	return services.GatewayNotification{
		Amount:        payload.Valor.String(),
		Channel:       channel,
		Reference:     strings.TrimSpace(payload.Referencia),
		TransactionID: strings.TrimSpace(payload.Transacao),
		OrderID:       strings.TrimSpace(payload.Identificador),
		State:         strings.TrimSpace(payload.Estado),
		Entity:        strings.TrimSpace(payload.Entidade),
	}
}

func (h *WebhookHandlers) writeWebhookError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrWebhookInvalidPayload):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "notification payload is incomplete", http.StatusBadRequest))
	case errors.Is(err, services.ErrWebhookOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "no order matches the notification", http.StatusNotFound))
	case errors.Is(err, services.ErrWebhookUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("webhooks_unavailable", "webhook service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("webhook_error", "failed to process notification", http.StatusInternalServerError))
	}
}
