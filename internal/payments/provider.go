package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
)

// ErrUnsupportedMethod is returned when no provider is registered for a payment method.
var ErrUnsupportedMethod = errors.New("payments: unsupported payment method")

// Logger defines the logging contract for provider operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// LineItem describes one purchasable line inside a payment request.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  decimal.Decimal
	Quantity    int
}

// Request captures everything a provider needs to start collecting a payment.
// Amount is the full charge including shipping; card checkout rebuilds it from
// the line items so the customer sees an itemised breakdown.
type Request struct {
	OrderID        string
	Method         domain.PaymentMethod
	Amount         decimal.Decimal
	Items          []LineItem
	ShippingLabel  string
	ShippingAmount decimal.Decimal
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	IdempotencyKey string
}

// Result normalises what each provider hands back to the checkout flow.
// RedirectURL is set for card sessions, Reference for MBWay pushes and
// Multibanco for reference payments.
type Result struct {
	Provider    string
	PaymentID   string
	RedirectURL string
	Reference   string
	Status      string
	Multibanco  *domain.MultibancoReference
}

// Provider starts a payment with one concrete payment rail.
type Provider interface {
	Method() domain.PaymentMethod
	CreatePayment(ctx context.Context, req Request) (Result, error)
}

// Manager routes payment requests to the provider registered for their method.
type Manager struct {
	providers map[domain.PaymentMethod]Provider
}

// NewManager constructs a Manager over the supplied providers.
func NewManager(providers ...Provider) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("payments: at least one provider is required")
	}
	byMethod := make(map[domain.PaymentMethod]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return nil, errors.New("payments: nil provider registration")
		}
		method := p.Method()
		if !method.Valid() {
			return nil, fmt.Errorf("payments: provider registered for invalid method %q", method)
		}
		if _, exists := byMethod[method]; exists {
			return nil, fmt.Errorf("payments: duplicate provider for method %q", method)
		}
		byMethod[method] = p
	}
	return &Manager{providers: byMethod}, nil
}

// Supports reports whether a provider is registered for the method.
func (m *Manager) Supports(method domain.PaymentMethod) bool {
	if m == nil {
		return false
	}
	_, ok := m.providers[method]
	return ok
}

// Dispatch delegates the request to the provider registered for its method.
func (m *Manager) Dispatch(ctx context.Context, req Request) (Result, error) {
	if m == nil || len(m.providers) == 0 {
		return Result{}, errors.New("payments: manager not initialised")
	}
	provider, ok := m.providers[req.Method]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, req.Method)
	}
	return provider.CreatePayment(ctx, req)
}
