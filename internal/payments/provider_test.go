package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
)

type stubProvider struct {
	method domain.PaymentMethod
	create func(ctx context.Context, req Request) (Result, error)
}

func (s *stubProvider) Method() domain.PaymentMethod { return s.method }

func (s *stubProvider) CreatePayment(ctx context.Context, req Request) (Result, error) {
	if s.create == nil {
		return Result{}, errors.New("unexpected call")
	}
	return s.create(ctx, req)
}

func TestManagerDispatchRoutesByMethod(t *testing.T) {
	var cardCalls, mbwayCalls int
	card := &stubProvider{
		method: domain.PaymentMethodCard,
		create: func(ctx context.Context, req Request) (Result, error) {
			cardCalls++
			return Result{Provider: "stripe", PaymentID: "cs_1"}, nil
		},
	}
	mbway := &stubProvider{
		method: domain.PaymentMethodMBWay,
		create: func(ctx context.Context, req Request) (Result, error) {
			mbwayCalls++
			return Result{Provider: "eupago", Reference: "ref-1"}, nil
		},
	}

	manager, err := NewManager(card, mbway)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	result, err := manager.Dispatch(context.Background(), Request{
		OrderID: "order-1",
		Method:  domain.PaymentMethodMBWay,
		Amount:  decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if result.Reference != "ref-1" {
		t.Fatalf("expected mbway reference, got %+v", result)
	}
	if cardCalls != 0 || mbwayCalls != 1 {
		t.Fatalf("expected only mbway provider called, got card=%d mbway=%d", cardCalls, mbwayCalls)
	}
}

func TestManagerDispatchUnsupportedMethod(t *testing.T) {
	manager, err := NewManager(&stubProvider{method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	_, err = manager.Dispatch(context.Background(), Request{Method: domain.PaymentMethodMultibanco})
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	if manager.Supports(domain.PaymentMethodMultibanco) {
		t.Fatalf("expected multibanco to be unsupported")
	}
	if !manager.Supports(domain.PaymentMethodCard) {
		t.Fatalf("expected card to be supported")
	}
}

func TestNewManagerRejectsDuplicateMethod(t *testing.T) {
	_, err := NewManager(
		&stubProvider{method: domain.PaymentMethodCard},
		&stubProvider{method: domain.PaymentMethodCard},
	)
	if err == nil {
		t.Fatalf("expected error for duplicate method registration")
	}
}
