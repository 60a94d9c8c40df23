package payments

import (
	"context"
	"errors"
	"strings"

	domain "github.com/fotoescola/api/internal/domain"
)

// MBWayProviderConfig configures the MBWayProvider.
type MBWayProviderConfig struct {
	Client     *EupagoClient
	SuccessURL string
	FailURL    string
	BackURL    string
}

// MBWayProvider collects payments through MBWay push notifications. A failed
// push leaves the order in place; the customer sees the gateway's answer and
// can retry with another method.
type MBWayProvider struct {
	client     *EupagoClient
	successURL string
	failURL    string
	backURL    string
}

// NewMBWayProvider constructs an MBWay provider over the gateway client.
func NewMBWayProvider(cfg MBWayProviderConfig) (*MBWayProvider, error) {
	if cfg.Client == nil {
		return nil, errors.New("mbway: gateway client is required")
	}
	return &MBWayProvider{
		client:     cfg.Client,
		successURL: strings.TrimSpace(cfg.SuccessURL),
		failURL:    strings.TrimSpace(cfg.FailURL),
		backURL:    strings.TrimSpace(cfg.BackURL),
	}, nil
}

// Method reports the payment method this provider serves.
func (p *MBWayProvider) Method() domain.PaymentMethod {
	return domain.PaymentMethodMBWay
}

// CreatePayment pushes the charge to the customer's phone. The order id
// travels as the gateway identifier so the webhook can match it back.
func (p *MBWayProvider) CreatePayment(ctx context.Context, req Request) (Result, error) {
	if p == nil || p.client == nil {
		return Result{}, errors.New("mbway: provider not initialised")
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return Result{}, errors.New("mbway: customer phone is required")
	}

	created, err := p.client.CreateMBWay(ctx, MBWayPayment{
		Amount:     req.Amount,
		OrderID:    req.OrderID,
		Phone:      req.CustomerPhone,
		Email:      req.CustomerEmail,
		Name:       req.CustomerName,
		SuccessURL: p.successURL,
		FailURL:    p.failURL,
		BackURL:    p.backURL,
	})
	if err != nil {
		return Result{}, err
	}

	paymentID := created.TransactionID
	if paymentID == "" {
		paymentID = created.Reference
	}
	return Result{
		Provider:  "eupago",
		PaymentID: paymentID,
		Reference: created.Reference,
		Status:    created.Status,
	}, nil
}

var _ Provider = (*MBWayProvider)(nil)
