package repositories

import (
	"context"
	"time"

	domain "github.com/fotoescola/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SchoolRepository persists schools.
type SchoolRepository interface {
	Insert(ctx context.Context, school domain.School) error
	Update(ctx context.Context, school domain.School) error
	Delete(ctx context.Context, schoolID string) error
	FindByID(ctx context.Context, schoolID string) (domain.School, error)
	List(ctx context.Context) ([]domain.School, error)
}

// ClassRepository persists classes within schools.
type ClassRepository interface {
	Insert(ctx context.Context, class domain.Class) error
	Update(ctx context.Context, class domain.Class) error
	Delete(ctx context.Context, classID string) error
	FindByID(ctx context.Context, classID string) (domain.Class, error)
	ListBySchool(ctx context.Context, schoolID string) ([]domain.Class, error)
}

// StudentRepository persists students and resolves access codes.
type StudentRepository interface {
	Insert(ctx context.Context, student domain.Student) error
	Update(ctx context.Context, student domain.Student) error
	Delete(ctx context.Context, studentID string) error
	FindByID(ctx context.Context, studentID string) (domain.Student, error)
	FindByAccessCode(ctx context.Context, accessCode string) (domain.Student, error)
	ListByClass(ctx context.Context, classID string) ([]domain.Student, error)
}

// PhotoRepository persists photo records addressed by their storage-derived id.
type PhotoRepository interface {
	// CreateIfAbsent inserts the photo unless a record with the same id already
	// exists. It returns the stored record either way, so concurrent resolutions
	// of the same URL converge on one row.
	CreateIfAbsent(ctx context.Context, photo domain.Photo) (domain.Photo, error)
	FindByID(ctx context.Context, photoID string) (domain.Photo, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Photo, error)
	Delete(ctx context.Context, photoID string) error
}

// ProductRepository persists catalog products.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
}

// ShippingMethodRepository persists shipping methods.
type ShippingMethodRepository interface {
	Insert(ctx context.Context, method domain.ShippingMethod) error
	Update(ctx context.Context, method domain.ShippingMethod) error
	Delete(ctx context.Context, methodID string) error
	FindByID(ctx context.Context, methodID string) (domain.ShippingMethod, error)
	List(ctx context.Context) ([]domain.ShippingMethod, error)
}

// OrderStatusUpdate carries the fields mutated during a reconciliation or
// admin status transition. Nil fields are left untouched.
type OrderStatusUpdate struct {
	PaymentStatus *domain.PaymentStatus
	Status        *domain.OrderStatus
	PaymentID     *string
	UpdatedAt     time.Time
}

// OrderRepository persists order aggregates and their line items.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (domain.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error)
	// InsertItems writes all line items for one order in a single transaction;
	// either every item is stored or none are.
	InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	UpdateStatus(ctx context.Context, orderID string, update OrderStatusUpdate) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error)
}

// PaymentEventRepository deduplicates processed webhook deliveries.
type PaymentEventRepository interface {
	// Record stores the event unless one with the same provider and transaction
	// id exists; it reports whether this delivery was the first.
	Record(ctx context.Context, event domain.PaymentEvent) (bool, error)
	FindByTransaction(ctx context.Context, provider, transactionID string) (domain.PaymentEvent, error)
}

// HealthRepository reports dependency health for readiness probes.
type HealthRepository interface {
	Check(ctx context.Context) (domain.SystemHealthReport, error)
}
