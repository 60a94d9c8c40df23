package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/notifications"
	"github.com/fotoescola/api/internal/repositories"
)

const (
	cardEventCheckoutCompleted = "checkout.session.completed"

	webhookProviderCard    = "stripe"
	webhookProviderGateway = "eupago"

	// gatewayStateSuccess is the gateway's confirmation code for a settled payment.
	gatewayStateSuccess = "0"

	confirmationPublishTimeout = 30 * time.Second
)

var (
	// ErrWebhookInvalidPayload indicates the callback payload is missing required fields.
	ErrWebhookInvalidPayload = errors.New("webhooks: invalid payload")
	// ErrWebhookOrderNotFound indicates no order matches the callback reference.
	ErrWebhookOrderNotFound = errors.New("webhooks: order not found")
	// ErrWebhookUnavailable indicates webhook dependencies are currently unavailable.
	ErrWebhookUnavailable = errors.New("webhooks: unavailable")
)

// confirmationPublisher abstracts the notifications publisher for easier testing.
type confirmationPublisher interface {
	PublishOrderConfirmation(ctx context.Context, data notifications.OrderConfirmation) ([]string, error)
}

// WebhookServiceDeps wires the dependencies required by the webhook service.
type WebhookServiceDeps struct {
	Orders    repositories.OrderRepository
	Events    repositories.PaymentEventRepository
	Products  repositories.ProductRepository
	Students  repositories.StudentRepository
	Methods   repositories.ShippingMethodRepository
	Publisher confirmationPublisher
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
	// Async controls whether confirmation publishing happens in a goroutine.
	// Tests disable it to observe the publish synchronously.
	Async *bool
}

type webhookService struct {
	orders    repositories.OrderRepository
	events    repositories.PaymentEventRepository
	products  repositories.ProductRepository
	students  repositories.StudentRepository
	methods   repositories.ShippingMethodRepository
	publisher confirmationPublisher
	now       func() time.Time
	logger    func(ctx context.Context, event string, fields map[string]any)
	async     bool
}

// NewWebhookService constructs a WebhookService validating required dependencies.
func NewWebhookService(deps WebhookServiceDeps) (WebhookService, error) {
	if deps.Orders == nil {
		return nil, errors.New("webhook service: order repository is required")
	}
	if deps.Events == nil {
		return nil, errors.New("webhook service: payment event repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	async := true
	if deps.Async != nil {
		async = *deps.Async
	}

	return &webhookService{
		orders:    deps.Orders,
		events:    deps.Events,
		products:  deps.Products,
		students:  deps.Students,
		methods:   deps.Methods,
		publisher: deps.Publisher,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
		async:  async,
	}, nil
}

// HandleCardEvent applies a verified card-provider event to order state.
// Events other than a completed checkout session are acknowledged and ignored.
func (s *webhookService) HandleCardEvent(ctx context.Context, event CardWebhookEvent) error {
	if s == nil || s.orders == nil || s.events == nil {
		return ErrWebhookUnavailable
	}

	if event.Type != cardEventCheckoutCompleted {
		s.logger(ctx, "webhooks.card.ignored", map[string]any{"type": event.Type})
		return nil
	}

	sessionID := strings.TrimSpace(event.SessionID)
	if sessionID == "" {
		return ErrWebhookInvalidPayload
	}

	order, err := s.findOrder(ctx, strings.TrimSpace(event.OrderID), sessionID)
	if err != nil {
		return err
	}

	return s.reconcile(ctx, order, true, webhookProviderCard, sessionID)
}

// HandleGatewayNotification applies a gateway callback to order state. A zero
// state code settles the payment; anything else fails it and cancels the order.
func (s *webhookService) HandleGatewayNotification(ctx context.Context, notification GatewayNotification) error {
	if s == nil || s.orders == nil || s.events == nil {
		return ErrWebhookUnavailable
	}

	state := strings.TrimSpace(notification.State)
	orderID := strings.TrimSpace(notification.OrderID)
	transactionID := strings.TrimSpace(notification.TransactionID)
	if transactionID == "" {
		transactionID = strings.TrimSpace(notification.Reference)
	}
	if state == "" || (orderID == "" && transactionID == "") {
		return ErrWebhookInvalidPayload
	}
	if transactionID == "" {
		transactionID = orderID
	}

	order, err := s.findOrder(ctx, orderID, strings.TrimSpace(notification.Reference))
	if err != nil {
		return err
	}

	return s.reconcile(ctx, order, state == gatewayStateSuccess, webhookProviderGateway, transactionID)
}

// findOrder matches by order id first, then by the provider payment reference.
func (s *webhookService) findOrder(ctx context.Context, orderID, paymentRef string) (domain.Order, error) {
	if orderID != "" {
		order, err := s.orders.FindByID(ctx, orderID)
		if err == nil {
			return order, nil
		}
		if !isRepositoryNotFound(err) {
			return domain.Order{}, s.translateError(err)
		}
	}
	if paymentRef != "" {
		order, err := s.orders.FindByPaymentID(ctx, paymentRef)
		if err == nil {
			return order, nil
		}
		if !isRepositoryNotFound(err) {
			return domain.Order{}, s.translateError(err)
		}
	}
	return domain.Order{}, ErrWebhookOrderNotFound
}

func (s *webhookService) reconcile(ctx context.Context, order domain.Order, success bool, provider, transactionID string) error {
	targetPayment := domain.PaymentStatusFailed
	targetOrder := domain.OrderStatusCancelled
	if success {
		targetPayment = domain.PaymentStatusCompleted
		targetOrder = domain.OrderStatusProcessing
	}

	if domain.CanTransitionPaymentStatus(order.PaymentStatus, targetPayment) {
		update := repositories.OrderStatusUpdate{
			PaymentStatus: &targetPayment,
			UpdatedAt:     s.now(),
		}
		if domain.CanTransitionOrderStatus(order.Status, targetOrder) {
			update.Status = &targetOrder
		}
		updated, err := s.orders.UpdateStatus(ctx, order.ID, update)
		if err != nil {
			return s.translateError(err)
		}
		order = updated
	} else {
		// Terminal or already-applied state: acknowledge without mutating.
		s.logger(ctx, "webhooks.reconcile.noop", map[string]any{
			"orderId":       order.ID,
			"paymentStatus": string(order.PaymentStatus),
			"target":        string(targetPayment),
		})
	}

	first, err := s.events.Record(ctx, domain.PaymentEvent{
		Provider:      provider,
		TransactionID: transactionID,
		OrderID:       order.ID,
		Outcome:       targetPayment,
		ReceivedAt:    s.now(),
	})
	if err != nil {
		return s.translateError(err)
	}

	s.logger(ctx, "webhooks.reconciled", map[string]any{
		"orderId":       order.ID,
		"provider":      provider,
		"transactionId": transactionID,
		"outcome":       string(targetPayment),
		"firstDelivery": first,
	})

	if success && first {
		s.publishConfirmation(ctx, order)
	}
	return nil
}

// publishConfirmation enqueues the confirmation mail. Delivery is best-effort:
// a publish failure is logged and the webhook still succeeds.
func (s *webhookService) publishConfirmation(ctx context.Context, order domain.Order) {
	if s.publisher == nil {
		return
	}

	publish := func(ctx context.Context) {
		data, err := s.confirmationData(ctx, order)
		if err != nil {
			s.logger(ctx, "webhooks.email.buildFailed", map[string]any{
				"orderId": order.ID,
				"error":   err.Error(),
			})
			return
		}
		if _, err := s.publisher.PublishOrderConfirmation(ctx, data); err != nil {
			s.logger(ctx, "webhooks.email.publishFailed", map[string]any{
				"orderId": order.ID,
				"error":   err.Error(),
			})
		}
	}

	if !s.async {
		publish(ctx)
		return
	}

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmationPublishTimeout)
	go func() {
		defer cancel()
		publish(detached)
	}()
}

func (s *webhookService) confirmationData(ctx context.Context, order domain.Order) (notifications.OrderConfirmation, error) {
	items, err := s.orders.ListItems(ctx, order.ID)
	if err != nil {
		return notifications.OrderConfirmation{}, err
	}

	data := notifications.OrderConfirmation{
		Order:        order,
		Items:        items,
		ProductNames: make(map[string]string, len(items)),
	}

	if s.products != nil {
		for _, item := range items {
			if _, seen := data.ProductNames[item.ProductID]; seen {
				continue
			}
			if product, err := s.products.FindByID(ctx, item.ProductID); err == nil {
				data.ProductNames[item.ProductID] = product.Name
			}
		}
	}
	if s.methods != nil && order.ShippingMethodID != "" {
		if method, err := s.methods.FindByID(ctx, order.ShippingMethodID); err == nil {
			data.ShippingMethodName = method.Name
		}
	}
	if s.students != nil && order.StudentID != "" {
		if student, err := s.students.FindByID(ctx, order.StudentID); err == nil {
			data.StudentName = student.Name
		}
	}
	return data, nil
}

func (s *webhookService) translateError(err error) error {
	if isRepositoryUnavailable(err) {
		return ErrWebhookUnavailable
	}
	return err
}

var _ WebhookService = (*webhookService)(nil)
