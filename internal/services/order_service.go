package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid input parameters.
	ErrOrderInvalidInput = errors.New("orders: invalid input")
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("orders: not found")
	// ErrOrderInvalidTransition indicates the requested status change is not allowed.
	ErrOrderInvalidTransition = errors.New("orders: invalid status transition")
	// ErrOrderUnavailable indicates order dependencies are currently unavailable.
	ErrOrderUnavailable = errors.New("orders: unavailable")
)

// OrderServiceDeps wires the dependencies required by the order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	now    func() time.Time
	logger func(ctx context.Context, event string, fields map[string]any)
}

// NewOrderService constructs an OrderService validating required dependencies.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders: deps.Orders,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// List returns a page of orders matching the filter, newest first.
func (s *orderService) List(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error) {
	if s == nil || s.orders == nil {
		return domain.CursorPage[domain.Order]{}, ErrOrderUnavailable
	}
	page, err := s.orders.List(ctx, filter, pager)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, s.translateError(err)
	}
	return page, nil
}

// Get loads one order with its line items.
func (s *orderService) Get(ctx context.Context, orderID string) (OrderDetails, error) {
	if s == nil || s.orders == nil {
		return OrderDetails{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return OrderDetails{}, ErrOrderInvalidInput
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return OrderDetails{}, s.translateError(err)
	}
	items, err := s.orders.ListItems(ctx, id)
	if err != nil {
		return OrderDetails{}, s.translateError(err)
	}
	return OrderDetails{Order: order, Items: items}, nil
}

// FindByPaymentID resolves the order carrying a provider payment reference.
func (s *orderService) FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error) {
	if s == nil || s.orders == nil {
		return domain.Order{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return domain.Order{}, ErrOrderInvalidInput
	}
	order, err := s.orders.FindByPaymentID(ctx, id)
	if err != nil {
		return domain.Order{}, s.translateError(err)
	}
	return order, nil
}

// UpdateStatus applies an admin-initiated transition, rejecting moves the
// state machine does not allow.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, cmd OrderStatusCommand) (domain.Order, error) {
	if s == nil || s.orders == nil {
		return domain.Order{}, ErrOrderUnavailable
	}
	id := strings.TrimSpace(orderID)
	if id == "" || (cmd.Status == nil && cmd.PaymentStatus == nil) {
		return domain.Order{}, ErrOrderInvalidInput
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.translateError(err)
	}

	if cmd.Status != nil && !domain.CanTransitionOrderStatus(order.Status, *cmd.Status) {
		return domain.Order{}, ErrOrderInvalidTransition
	}
	if cmd.PaymentStatus != nil && !domain.CanTransitionPaymentStatus(order.PaymentStatus, *cmd.PaymentStatus) {
		return domain.Order{}, ErrOrderInvalidTransition
	}

	updated, err := s.orders.UpdateStatus(ctx, id, repositories.OrderStatusUpdate{
		Status:        cmd.Status,
		PaymentStatus: cmd.PaymentStatus,
		UpdatedAt:     s.now(),
	})
	if err != nil {
		return domain.Order{}, s.translateError(err)
	}

	s.logger(ctx, "orders.statusUpdated", map[string]any{
		"orderId":       id,
		"status":        string(updated.Status),
		"paymentStatus": string(updated.PaymentStatus),
	})
	return updated, nil
}

func (s *orderService) translateError(err error) error {
	switch {
	case isRepositoryNotFound(err):
		return ErrOrderNotFound
	case isRepositoryUnavailable(err):
		return ErrOrderUnavailable
	default:
		return err
	}
}

var _ OrderService = (*orderService)(nil)
