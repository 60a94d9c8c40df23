package domain

import "github.com/shopspring/decimal"

// TerminalPaymentStatuses lists payment states that accept no further transitions.
var terminalPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {},
	PaymentStatusCancelled: {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusProcessing: {PaymentStatusCompleted, PaymentStatusCancelled, PaymentStatusFailed},
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
}

// IsTerminalPaymentStatus reports whether no further payment transitions are allowed.
func IsTerminalPaymentStatus(status PaymentStatus) bool {
	_, ok := terminalPaymentStatuses[status]
	return ok
}

// CanTransitionPaymentStatus reports whether the payment state machine permits
// moving from one status to another. Terminal states never transition, which
// keeps webhook redelivery idempotent on status.
func CanTransitionPaymentStatus(from, to PaymentStatus) bool {
	if from == to {
		return false
	}
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionOrderStatus reports whether the fulfilment state machine
// permits moving from one status to another.
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CartTotal sums unit price times quantity across the cart. A missing
// quantity counts as one.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// RequiresAddress reports whether the shipping type needs address fields on the order.
func (t ShippingType) RequiresAddress() bool {
	return t == ShippingTypeDelivery
}

// Valid reports whether the payment method is one of the supported rails.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodMBWay, PaymentMethodMultibanco:
		return true
	default:
		return false
	}
}
