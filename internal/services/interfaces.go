package services

import (
	"context"
	"io"
	"time"

	domain "github.com/fotoescola/api/internal/domain"
)

// GalleryAccess is the outcome of redeeming an access code.
type GalleryAccess struct {
	Token     string
	ExpiresAt time.Time
	Student   domain.Student
}

// Gallery bundles everything the storefront needs to render a student gallery.
type Gallery struct {
	Student         domain.Student
	Photos          []domain.Photo
	Products        []domain.Product
	ShippingMethods []domain.ShippingMethod
}

// GalleryService exchanges access codes for sessions and serves gallery views.
type GalleryService interface {
	Login(ctx context.Context, accessCode string) (GalleryAccess, error)
	Gallery(ctx context.Context, session domain.GallerySession) (Gallery, error)
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	ImageURL    string
	Price       string
	Active      *bool
}

// ShippingMethodInput carries the writable fields of a shipping method.
type ShippingMethodInput struct {
	Name  string
	Price string
	Type  domain.ShippingType
}

// CatalogService manages products and shipping methods.
type CatalogService interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, input ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error

	ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error)
	CreateShippingMethod(ctx context.Context, input ShippingMethodInput) (domain.ShippingMethod, error)
	UpdateShippingMethod(ctx context.Context, methodID string, input ShippingMethodInput) (domain.ShippingMethod, error)
	DeleteShippingMethod(ctx context.Context, methodID string) error
}

// UploadPhotoCommand carries one photo upload for a student.
type UploadPhotoCommand struct {
	StudentID   string
	FileName    string
	ContentType string
	Body        io.Reader
}

// RosterService manages schools, classes, students and their photos.
type RosterService interface {
	CreateSchool(ctx context.Context, name string) (domain.School, error)
	UpdateSchool(ctx context.Context, schoolID, name string) (domain.School, error)
	DeleteSchool(ctx context.Context, schoolID string) error
	GetSchool(ctx context.Context, schoolID string) (domain.School, error)
	ListSchools(ctx context.Context) ([]domain.School, error)

	CreateClass(ctx context.Context, schoolID, name string) (domain.Class, error)
	UpdateClass(ctx context.Context, classID, name string) (domain.Class, error)
	DeleteClass(ctx context.Context, classID string) error
	ListClasses(ctx context.Context, schoolID string) ([]domain.Class, error)

	CreateStudent(ctx context.Context, classID, name string) (domain.Student, error)
	UpdateStudent(ctx context.Context, studentID, name string) (domain.Student, error)
	RegenerateAccessCode(ctx context.Context, studentID string) (domain.Student, error)
	DeleteStudent(ctx context.Context, studentID string) error
	GetStudent(ctx context.Context, studentID string) (domain.Student, error)
	ListStudents(ctx context.Context, classID string) ([]domain.Student, error)

	UploadPhoto(ctx context.Context, cmd UploadPhotoCommand) (domain.Photo, error)
	DeletePhoto(ctx context.Context, photoID string) error
	ListStudentPhotos(ctx context.Context, studentID string) ([]domain.Photo, error)
}

// CartItemInput is one raw cart entry as submitted by the storefront.
type CartItemInput struct {
	PhotoURL  string
	ProductID string
	StudentID string
	Quantity  int
}

// ResolvedCartItem pairs a registered photo with its priced product.
type ResolvedCartItem struct {
	Photo    domain.Photo
	Product  domain.Product
	Quantity int
}

// ResolvedCart is the outcome of resolving raw cart entries. Entries whose
// photo URL cannot be parsed are dropped and counted in Skipped.
type ResolvedCart struct {
	Items   []ResolvedCartItem
	Skipped int
}

// PhotoResolver turns raw storefront cart entries into persisted photo records.
type PhotoResolver interface {
	Resolve(ctx context.Context, studentID string, items []CartItemInput) (ResolvedCart, error)
}

// PaymentOutcome is what the dispatcher handed back for an order. Error is set
// when the provider rejected the request; the order itself is kept.
type PaymentOutcome struct {
	Provider    string
	PaymentID   string
	RedirectURL string
	Reference   string
	Status      string
	Multibanco  *domain.MultibancoReference
	Error       string
}

// CheckoutCommand is a full checkout submission.
type CheckoutCommand struct {
	StudentID        string
	Items            []CartItemInput
	ShippingMethodID string
	Shipping         domain.ShippingDetails
	Email            string
	PaymentMethod    domain.PaymentMethod
	IdempotencyKey   string
}

// CheckoutResult reports the created (or replayed) order and the payment outcome.
type CheckoutResult struct {
	Order         domain.Order
	SkippedPhotos int
	Payment       PaymentOutcome
	Replayed      bool
}

// CreatePaymentCommand re-dispatches payment collection for an existing order.
type CreatePaymentCommand struct {
	OrderID       string
	PaymentMethod domain.PaymentMethod
	Email         string
	Name          string
	Phone         string

	// StudentID restricts the order to the caller's student when set.
	StudentID string
}

// CheckoutService orchestrates order creation and payment dispatch.
type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
	CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (PaymentOutcome, error)
}

// OrderDetails joins an order with its line items.
type OrderDetails struct {
	Order domain.Order
	Items []domain.OrderItem
}

// OrderStatusCommand is an admin-initiated status transition. Nil fields are
// left untouched.
type OrderStatusCommand struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
}

// OrderService serves the admin order surface.
type OrderService interface {
	List(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error)
	Get(ctx context.Context, orderID string) (OrderDetails, error)
	FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, cmd OrderStatusCommand) (domain.Order, error)
}

// CardWebhookEvent is a verified card-provider event, already parsed by the handler.
type CardWebhookEvent struct {
	Type      string
	SessionID string
	OrderID   string
}

// GatewayNotification is a validated gateway callback payload.
type GatewayNotification struct {
	Amount        string
	Channel       string
	OrderID       string
	TransactionID string
	State         string
	Entity        string
	Reference     string
}

// WebhookService reconciles provider callbacks into order state.
type WebhookService interface {
	HandleCardEvent(ctx context.Context, event CardWebhookEvent) error
	HandleGatewayNotification(ctx context.Context, notification GatewayNotification) error
}

// SystemService reports dependency health.
type SystemService interface {
	Health(ctx context.Context) (domain.SystemHealthReport, error)
}
