package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage wraps a page of results together with the token for the next page.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// School groups classes for one institution.
type School struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Class groups students within a school (one class year or homeroom).
type Class struct {
	ID        string
	SchoolID  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Student is the subject of a photo gallery. The access code is the sole
// credential a guardian uses to open the student's gallery.
type Student struct {
	ID         string
	ClassID    string
	Name       string
	AccessCode string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Photo is a durable record for one stored image. The id equals the storage
// object's base filename, so repeated references to the same URL resolve to
// the same record.
type Photo struct {
	ID        string
	StudentID string
	URL       string
	CreatedAt time.Time
}

// Product is a purchasable print or package.
type Product struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShippingType classifies whether an order needs a postal address.
type ShippingType string

const (
	// ShippingTypePickup means the order is collected in person; no address required.
	ShippingTypePickup ShippingType = "pickup"
	// ShippingTypeDelivery means the order is posted; address, postal code and city required.
	ShippingTypeDelivery ShippingType = "delivery"
)

// ShippingMethod is a selectable fulfilment option with its price.
type ShippingMethod struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Type      ShippingType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem is a guardian's ephemeral selection of one photo and one product.
// It only exists in checkout requests and is never persisted as-is.
type CartItem struct {
	PhotoURL  string
	PhotoID   string
	ProductID string
	StudentID string
	Price     decimal.Decimal
	Quantity  int
}

// PaymentMethod enumerates the supported payment rails.
type PaymentMethod string

const (
	// PaymentMethodCard pays through a hosted card checkout session.
	PaymentMethodCard PaymentMethod = "card"
	// PaymentMethodMBWay pays through an instant push-to-phone request.
	PaymentMethodMBWay PaymentMethod = "mbway"
	// PaymentMethodMultibanco pays through a bank reference number.
	PaymentMethodMultibanco PaymentMethod = "multibanco"
)

// PaymentStatus tracks the provider-side payment lifecycle on an order.
type PaymentStatus string

const (
	// PaymentStatusPending means the payment was initiated but not confirmed.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusProcessing means the provider reported the payment in flight.
	PaymentStatusProcessing PaymentStatus = "processing"
	// PaymentStatusCompleted means the provider confirmed the payment.
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusFailed means the provider reported the payment as failed.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusCancelled means the payment was abandoned or voided.
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// OrderStatus tracks fulfilment progress of an order.
type OrderStatus string

const (
	// OrderStatusPending means the order exists but payment has not settled.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing means payment settled and fulfilment can start.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted means the order was fulfilled and handed over.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled means the order will not be fulfilled.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusFailed means order assembly itself failed after creation.
	OrderStatusFailed OrderStatus = "failed"
)

// ShippingDetails carries the customer-entered fulfilment contact fields.
type ShippingDetails struct {
	Name       string
	Phone      string
	Address    string
	PostalCode string
	City       string
}

// Order is the persisted purchase aggregate. TotalAmount is the item sum
// (unit price times quantity) excluding shipping; ShippingPrice snapshots the
// selected method's price at checkout time.
type Order struct {
	ID               string
	StudentID        string
	ShippingMethodID string
	Shipping         ShippingDetails
	Email            string
	PaymentMethod    PaymentMethod
	PaymentStatus    PaymentStatus
	Status           OrderStatus
	TotalAmount      decimal.Decimal
	ShippingPrice    decimal.Decimal
	PaymentID        string
	IdempotencyKey   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem is a persisted line item. PriceAtTime snapshots the unit price at
// purchase and is never recomputed when the product price changes later.
type OrderItem struct {
	ID          string
	OrderID     string
	PhotoID     string
	ProductID   string
	PriceAtTime decimal.Decimal
	Quantity    int
}

// PaymentEvent records one processed webhook delivery, keyed by provider and
// transaction id, so redelivered callbacks do not repeat side effects.
type PaymentEvent struct {
	ID            string
	Provider      string
	TransactionID string
	OrderID       string
	Outcome       PaymentStatus
	ReceivedAt    time.Time
}

// MultibancoReference is the entity/reference pair a customer pays against.
type MultibancoReference struct {
	Entity    string
	Reference string
	Amount    decimal.Decimal
}

// GallerySession is the authenticated scope minted from a valid access code.
type GallerySession struct {
	StudentID string
	ClassID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	StudentID     string
}
