package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	domain "github.com/fotoescola/api/internal/domain"
)

const stripeCurrency = "eur"

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CardProviderConfig configures the CardProvider.
type CardProviderConfig struct {
	APIKey     string
	SuccessURL string
	CancelURL  string
	Logger     Logger
	Sessions   stripeSessionAPI
}

// CardProvider collects card payments through Stripe hosted checkout sessions.
type CardProvider struct {
	sessions   stripeSessionAPI
	successURL string
	cancelURL  string
	logger     Logger
}

// NewCardProvider constructs a Stripe-backed card provider.
func NewCardProvider(cfg CardProviderConfig) (*CardProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Sessions == nil {
		return nil, errors.New("stripe: api key is required")
	}
	if strings.TrimSpace(cfg.SuccessURL) == "" || strings.TrimSpace(cfg.CancelURL) == "" {
		return nil, errors.New("stripe: success and cancel URLs are required")
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sc := client.New(apiKey, nil)
		sessions = sc.CheckoutSessions
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &CardProvider{
		sessions:   sessions,
		successURL: strings.TrimSpace(cfg.SuccessURL),
		cancelURL:  strings.TrimSpace(cfg.CancelURL),
		logger:     logger,
	}, nil
}

// Method reports the payment method this provider serves.
func (p *CardProvider) Method() domain.PaymentMethod {
	return domain.PaymentMethodCard
}

// CreatePayment opens a hosted checkout session itemising the order. Amounts
// cross to Stripe in integer minor units; the session id doubles as the
// payment reference matched back by the webhook.
func (p *CardProvider) CreatePayment(ctx context.Context, req Request) (Result, error) {
	if p == nil || p.sessions == nil {
		return Result{}, errors.New("stripe: provider not initialised")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return Result{}, errors.New("stripe: order id is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
		Metadata:   map[string]string{"order_id": req.OrderID},
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if email := strings.TrimSpace(req.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)+1)
	for _, item := range req.Items {
		quantity := int64(item.Quantity)
		if quantity < 1 {
			quantity = 1
		}
		line := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(stripeCurrency),
				UnitAmount: stripe.Int64(domain.MinorUnits(item.UnitAmount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		}
		if item.Description != "" {
			line.PriceData.ProductData.Description = stripe.String(item.Description)
		}
		lineItems = append(lineItems, line)
	}
	if len(lineItems) == 0 {
		return Result{}, errors.New("stripe: at least one line item is required")
	}

	if req.ShippingAmount.IsPositive() {
		label := strings.TrimSpace(req.ShippingLabel)
		if label == "" {
			label = "Shipping"
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(stripeCurrency),
				UnitAmount: stripe.Int64(domain.MinorUnits(req.ShippingAmount)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(label),
				},
			},
		})
	}
	params.LineItems = lineItems

	session, err := p.sessions.New(params)
	if err != nil {
		return Result{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	p.logger(ctx, "payments.stripe.session.created", map[string]any{
		"orderId":   req.OrderID,
		"sessionId": session.ID,
	})

	return Result{
		Provider:    "stripe",
		PaymentID:   session.ID,
		RedirectURL: session.URL,
		Status:      string(domain.PaymentStatusPending),
	}, nil
}

var _ Provider = (*CardProvider)(nil)
