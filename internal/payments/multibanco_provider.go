package payments

import (
	"context"
	"errors"

	domain "github.com/fotoescola/api/internal/domain"
)

// MultibancoProvider collects payments through bank reference numbers. The
// customer pays later at an ATM, so every order starts pending and resolves
// through the gateway webhook.
type MultibancoProvider struct {
	client *EupagoClient
}

// NewMultibancoProvider constructs a Multibanco provider over the gateway client.
func NewMultibancoProvider(client *EupagoClient) (*MultibancoProvider, error) {
	if client == nil {
		return nil, errors.New("multibanco: gateway client is required")
	}
	return &MultibancoProvider{client: client}, nil
}

// Method reports the payment method this provider serves.
func (p *MultibancoProvider) Method() domain.PaymentMethod {
	return domain.PaymentMethodMultibanco
}

// CreatePayment generates the entity/reference pair for the order amount.
func (p *MultibancoProvider) CreatePayment(ctx context.Context, req Request) (Result, error) {
	if p == nil || p.client == nil {
		return Result{}, errors.New("multibanco: provider not initialised")
	}

	reference, err := p.client.CreateMultibanco(ctx, MultibancoPayment{
		Amount:  req.Amount,
		OrderID: req.OrderID,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Provider:   "eupago",
		PaymentID:  reference.Reference,
		Reference:  reference.Reference,
		Status:     string(domain.PaymentStatusPending),
		Multibanco: &reference,
	}, nil
}

var _ Provider = (*MultibancoProvider)(nil)
