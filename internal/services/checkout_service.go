package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/payments"
	"github.com/fotoescola/api/internal/repositories"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutNotFound indicates the referenced order does not exist.
	ErrCheckoutNotFound = errors.New("checkout: order not found")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
	// ErrCheckoutPersistFailed indicates line items could not be stored; the
	// order was marked failed.
	ErrCheckoutPersistFailed = errors.New("checkout: order assembly failed")
)

// paymentDispatcher abstracts payments.Manager for easier testing.
type paymentDispatcher interface {
	Dispatch(ctx context.Context, req payments.Request) (payments.Result, error)
}

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Orders          repositories.OrderRepository
	Products        repositories.ProductRepository
	ShippingMethods repositories.ShippingMethodRepository
	Resolver        PhotoResolver
	Payments        paymentDispatcher
	Clock           func() time.Time
	Logger          func(ctx context.Context, event string, fields map[string]any)
	IDGenerator     func() string
}

type checkoutService struct {
	orders          repositories.OrderRepository
	products        repositories.ProductRepository
	shippingMethods repositories.ShippingMethodRepository
	resolver        PhotoResolver
	payments        paymentDispatcher
	now             func() time.Time
	logger          func(ctx context.Context, event string, fields map[string]any)
	newID           func() string
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("checkout service: product repository is required")
	}
	if deps.ShippingMethods == nil {
		return nil, errors.New("checkout service: shipping method repository is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("checkout service: photo resolver is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("checkout service: payment dispatcher is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	return &checkoutService{
		orders:          deps.Orders,
		products:        deps.Products,
		shippingMethods: deps.ShippingMethods,
		resolver:        deps.Resolver,
		payments:        deps.Payments,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
		newID:  idGen,
	}, nil
}

// Checkout validates the submission, persists the order with its line items
// and dispatches payment collection. A provider rejection does not roll the
// order back; the outcome carries the provider's answer either way.
func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if s == nil || s.orders == nil || s.resolver == nil || s.payments == nil {
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	if err := validateCheckoutCommand(cmd); err != nil {
		return CheckoutResult{}, err
	}

	method, err := s.shippingMethods.FindByID(ctx, strings.TrimSpace(cmd.ShippingMethodID))
	if err != nil {
		if isRepositoryNotFound(err) {
			return CheckoutResult{}, ErrCheckoutInvalidInput
		}
		return CheckoutResult{}, s.translateError(err)
	}
	if method.Type.RequiresAddress() && !hasShippingAddress(cmd.Shipping) {
		return CheckoutResult{}, ErrCheckoutInvalidInput
	}

	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, key)
		switch {
		case err == nil:
			s.logger(ctx, "checkout.replayed", map[string]any{
				"orderId":        existing.ID,
				"idempotencyKey": key,
			})
			return CheckoutResult{
				Order:    existing,
				Replayed: true,
				Payment: PaymentOutcome{
					PaymentID: existing.PaymentID,
					Status:    string(existing.PaymentStatus),
				},
			}, nil
		case !isRepositoryNotFound(err):
			return CheckoutResult{}, s.translateError(err)
		}
	}

	resolved, err := s.resolver.Resolve(ctx, cmd.StudentID, cmd.Items)
	if err != nil {
		switch {
		case errors.Is(err, ErrPhotoResolveInvalidInput):
			return CheckoutResult{}, ErrCheckoutInvalidInput
		case errors.Is(err, ErrPhotoResolveUnavailable):
			return CheckoutResult{}, ErrCheckoutUnavailable
		}
		return CheckoutResult{}, s.translateError(err)
	}
	if len(resolved.Items) == 0 {
		return CheckoutResult{}, ErrCheckoutInvalidInput
	}

	cartItems := make([]domain.CartItem, 0, len(resolved.Items))
	for _, item := range resolved.Items {
		cartItems = append(cartItems, domain.CartItem{
			PhotoID:   item.Photo.ID,
			ProductID: item.Product.ID,
			StudentID: item.Photo.StudentID,
			Price:     item.Product.Price,
			Quantity:  item.Quantity,
		})
	}

	now := s.now()
	order := domain.Order{
		ID:               s.newID(),
		StudentID:        strings.TrimSpace(cmd.StudentID),
		ShippingMethodID: method.ID,
		Shipping:         trimShippingDetails(cmd.Shipping),
		Email:            strings.TrimSpace(cmd.Email),
		PaymentMethod:    cmd.PaymentMethod,
		PaymentStatus:    domain.PaymentStatusPending,
		Status:           domain.OrderStatusPending,
		TotalAmount:      domain.CartTotal(cartItems),
		ShippingPrice:    method.Price,
		IdempotencyKey:   strings.TrimSpace(cmd.IdempotencyKey),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return CheckoutResult{}, s.translateError(err)
	}

	items := make([]domain.OrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		items = append(items, domain.OrderItem{
			ID:          s.newID(),
			OrderID:     order.ID,
			PhotoID:     item.PhotoID,
			ProductID:   item.ProductID,
			PriceAtTime: item.Price,
			Quantity:    quantity,
		})
	}

	if err := s.orders.InsertItems(ctx, order.ID, items); err != nil {
		s.markOrderFailed(ctx, order.ID)
		s.logger(ctx, "checkout.items.persistFailed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
		return CheckoutResult{}, ErrCheckoutPersistFailed
	}

	outcome := s.dispatchPayment(ctx, order, resolved.Items, method)
	if outcome.PaymentID != "" {
		order = s.attachPaymentID(ctx, order, outcome.PaymentID)
	}

	s.logger(ctx, "checkout.completed", map[string]any{
		"orderId":       order.ID,
		"paymentMethod": string(order.PaymentMethod),
		"totalAmount":   order.TotalAmount.StringFixed(2),
		"skippedPhotos": resolved.Skipped,
	})

	return CheckoutResult{
		Order:         order,
		SkippedPhotos: resolved.Skipped,
		Payment:       outcome,
	}, nil
}

// CreatePayment re-dispatches payment collection for an existing order, for
// customers who abandoned or switched payment method. When the command names
// a student, the order must belong to that student.
func (s *checkoutService) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (PaymentOutcome, error) {
	if s == nil || s.orders == nil || s.payments == nil {
		return PaymentOutcome{}, ErrCheckoutUnavailable
	}

	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" || !cmd.PaymentMethod.Valid() {
		return PaymentOutcome{}, ErrCheckoutInvalidInput
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if isRepositoryNotFound(err) {
			return PaymentOutcome{}, ErrCheckoutNotFound
		}
		return PaymentOutcome{}, s.translateError(err)
	}
	if caller := strings.TrimSpace(cmd.StudentID); caller != "" && order.StudentID != caller {
		return PaymentOutcome{}, ErrCheckoutNotFound
	}
	if domain.IsTerminalPaymentStatus(order.PaymentStatus) {
		return PaymentOutcome{}, ErrCheckoutInvalidInput
	}

	items, err := s.orders.ListItems(ctx, orderID)
	if err != nil {
		return PaymentOutcome{}, s.translateError(err)
	}

	lines, err := s.paymentLines(ctx, items)
	if err != nil {
		return PaymentOutcome{}, err
	}

	shipping := order.Shipping
	if name := strings.TrimSpace(cmd.Name); name != "" {
		shipping.Name = name
	}
	if phone := strings.TrimSpace(cmd.Phone); phone != "" {
		shipping.Phone = phone
	}
	email := strings.TrimSpace(cmd.Email)
	if email == "" {
		email = order.Email
	}

	result, err := s.payments.Dispatch(ctx, payments.Request{
		OrderID:        order.ID,
		Method:         cmd.PaymentMethod,
		Amount:         order.TotalAmount.Add(order.ShippingPrice),
		Items:          lines,
		ShippingAmount: order.ShippingPrice,
		CustomerName:   shipping.Name,
		CustomerEmail:  email,
		CustomerPhone:  shipping.Phone,
	})
	if err != nil {
		s.logger(ctx, "checkout.payment.dispatchFailed", map[string]any{
			"orderId": order.ID,
			"method":  string(cmd.PaymentMethod),
			"error":   err.Error(),
		})
		return PaymentOutcome{}, fmt.Errorf("%w: %s", ErrCheckoutInvalidInput, err.Error())
	}

	if result.PaymentID != "" {
		s.attachPaymentID(ctx, order, result.PaymentID)
	}

	return paymentOutcomeFromResult(result), nil
}

func (s *checkoutService) dispatchPayment(ctx context.Context, order domain.Order, items []ResolvedCartItem, method domain.ShippingMethod) PaymentOutcome {
	lines := make([]payments.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, payments.LineItem{
			Name:        item.Product.Name,
			Description: fmt.Sprintf("Fotografia %s", item.Photo.ID),
			UnitAmount:  item.Product.Price,
			Quantity:    item.Quantity,
		})
	}

	result, err := s.payments.Dispatch(ctx, payments.Request{
		OrderID:        order.ID,
		Method:         order.PaymentMethod,
		Amount:         order.TotalAmount.Add(order.ShippingPrice),
		Items:          lines,
		ShippingLabel:  method.Name,
		ShippingAmount: method.Price,
		CustomerName:   order.Shipping.Name,
		CustomerEmail:  order.Email,
		CustomerPhone:  order.Shipping.Phone,
		IdempotencyKey: order.IdempotencyKey,
	})
	if err != nil {
		s.logger(ctx, "checkout.payment.dispatchFailed", map[string]any{
			"orderId": order.ID,
			"method":  string(order.PaymentMethod),
			"error":   err.Error(),
		})
		return PaymentOutcome{Error: err.Error()}
	}
	return paymentOutcomeFromResult(result)
}

func (s *checkoutService) paymentLines(ctx context.Context, items []domain.OrderItem) ([]payments.LineItem, error) {
	lines := make([]payments.LineItem, 0, len(items))
	for _, item := range items {
		name := item.ProductID
		if product, err := s.products.FindByID(ctx, item.ProductID); err == nil {
			name = product.Name
		}
		lines = append(lines, payments.LineItem{
			Name:        name,
			Description: fmt.Sprintf("Fotografia %s", item.PhotoID),
			UnitAmount:  item.PriceAtTime,
			Quantity:    item.Quantity,
		})
	}
	return lines, nil
}

// attachPaymentID records the provider reference on the order. Failures are
// logged only: the webhook can still match the order through its id.
func (s *checkoutService) attachPaymentID(ctx context.Context, order domain.Order, paymentID string) domain.Order {
	updated, err := s.orders.UpdateStatus(ctx, order.ID, repositories.OrderStatusUpdate{
		PaymentID: &paymentID,
		UpdatedAt: s.now(),
	})
	if err != nil {
		s.logger(ctx, "checkout.payment.idUpdateFailed", map[string]any{
			"orderId":   order.ID,
			"paymentId": paymentID,
			"error":     err.Error(),
		})
		order.PaymentID = paymentID
		return order
	}
	return updated
}

func (s *checkoutService) markOrderFailed(ctx context.Context, orderID string) {
	failedPayment := domain.PaymentStatusFailed
	failedOrder := domain.OrderStatusFailed
	if _, err := s.orders.UpdateStatus(ctx, orderID, repositories.OrderStatusUpdate{
		PaymentStatus: &failedPayment,
		Status:        &failedOrder,
		UpdatedAt:     s.now(),
	}); err != nil {
		s.logger(ctx, "checkout.markFailed.error", map[string]any{
			"orderId": orderID,
			"error":   err.Error(),
		})
	}
}

func (s *checkoutService) translateError(err error) error {
	if isRepositoryUnavailable(err) {
		return ErrCheckoutUnavailable
	}
	return err
}

func validateCheckoutCommand(cmd CheckoutCommand) error {
	if len(cmd.Items) == 0 {
		return ErrCheckoutInvalidInput
	}
	if !cmd.PaymentMethod.Valid() {
		return ErrCheckoutInvalidInput
	}
	if strings.TrimSpace(cmd.Email) == "" || strings.TrimSpace(cmd.Shipping.Name) == "" {
		return ErrCheckoutInvalidInput
	}
	if strings.TrimSpace(cmd.ShippingMethodID) == "" {
		return ErrCheckoutInvalidInput
	}
	if cmd.PaymentMethod == domain.PaymentMethodMBWay && strings.TrimSpace(cmd.Shipping.Phone) == "" {
		return ErrCheckoutInvalidInput
	}
	return nil
}

func hasShippingAddress(details domain.ShippingDetails) bool {
	return strings.TrimSpace(details.Address) != "" &&
		strings.TrimSpace(details.PostalCode) != "" &&
		strings.TrimSpace(details.City) != ""
}

func trimShippingDetails(details domain.ShippingDetails) domain.ShippingDetails {
	return domain.ShippingDetails{
		Name:       strings.TrimSpace(details.Name),
		Phone:      strings.TrimSpace(details.Phone),
		Address:    strings.TrimSpace(details.Address),
		PostalCode: strings.TrimSpace(details.PostalCode),
		City:       strings.TrimSpace(details.City),
	}
}

func paymentOutcomeFromResult(result payments.Result) PaymentOutcome {
	return PaymentOutcome{
		Provider:    result.Provider,
		PaymentID:   result.PaymentID,
		RedirectURL: result.RedirectURL,
		Reference:   result.Reference,
		Status:      result.Status,
		Multibanco:  result.Multibanco,
	}
}

var _ CheckoutService = (*checkoutService)(nil)
