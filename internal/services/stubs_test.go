package services

import (
	"context"
	"errors"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/repositories"
)

var errUnexpectedCall = errors.New("unexpected repository call")

// stubRepoError satisfies repositories.RepositoryError for error translation tests.
type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *stubRepoError) Error() string       { return "stub repository error" }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

var (
	errStubNotFound    = &stubRepoError{notFound: true}
	errStubUnavailable = &stubRepoError{unavailable: true}
)

type stubStudentRepo struct {
	insert           func(ctx context.Context, student domain.Student) error
	update           func(ctx context.Context, student domain.Student) error
	delete           func(ctx context.Context, studentID string) error
	findByID         func(ctx context.Context, studentID string) (domain.Student, error)
	findByAccessCode func(ctx context.Context, accessCode string) (domain.Student, error)
	listByClass      func(ctx context.Context, classID string) ([]domain.Student, error)
}

func (s *stubStudentRepo) Insert(ctx context.Context, student domain.Student) error {
	if s.insert == nil {
		return errUnexpectedCall
	}
	return s.insert(ctx, student)
}

func (s *stubStudentRepo) Update(ctx context.Context, student domain.Student) error {
	if s.update == nil {
		return errUnexpectedCall
	}
	return s.update(ctx, student)
}

func (s *stubStudentRepo) Delete(ctx context.Context, studentID string) error {
	if s.delete == nil {
		return errUnexpectedCall
	}
	return s.delete(ctx, studentID)
}

func (s *stubStudentRepo) FindByID(ctx context.Context, studentID string) (domain.Student, error) {
	if s.findByID == nil {
		return domain.Student{}, errUnexpectedCall
	}
	return s.findByID(ctx, studentID)
}

func (s *stubStudentRepo) FindByAccessCode(ctx context.Context, accessCode string) (domain.Student, error) {
	if s.findByAccessCode == nil {
		return domain.Student{}, errUnexpectedCall
	}
	return s.findByAccessCode(ctx, accessCode)
}

func (s *stubStudentRepo) ListByClass(ctx context.Context, classID string) ([]domain.Student, error) {
	if s.listByClass == nil {
		return nil, errUnexpectedCall
	}
	return s.listByClass(ctx, classID)
}

type stubPhotoRepo struct {
	createIfAbsent func(ctx context.Context, photo domain.Photo) (domain.Photo, error)
	findByID       func(ctx context.Context, photoID string) (domain.Photo, error)
	listByStudent  func(ctx context.Context, studentID string) ([]domain.Photo, error)
	delete         func(ctx context.Context, photoID string) error
}

func (s *stubPhotoRepo) CreateIfAbsent(ctx context.Context, photo domain.Photo) (domain.Photo, error) {
	if s.createIfAbsent == nil {
		return domain.Photo{}, errUnexpectedCall
	}
	return s.createIfAbsent(ctx, photo)
}

func (s *stubPhotoRepo) FindByID(ctx context.Context, photoID string) (domain.Photo, error) {
	if s.findByID == nil {
		return domain.Photo{}, errUnexpectedCall
	}
	return s.findByID(ctx, photoID)
}

func (s *stubPhotoRepo) ListByStudent(ctx context.Context, studentID string) ([]domain.Photo, error) {
	if s.listByStudent == nil {
		return nil, errUnexpectedCall
	}
	return s.listByStudent(ctx, studentID)
}

func (s *stubPhotoRepo) Delete(ctx context.Context, photoID string) error {
	if s.delete == nil {
		return errUnexpectedCall
	}
	return s.delete(ctx, photoID)
}

type stubProductRepo struct {
	insert   func(ctx context.Context, product domain.Product) error
	update   func(ctx context.Context, product domain.Product) error
	delete   func(ctx context.Context, productID string) error
	findByID func(ctx context.Context, productID string) (domain.Product, error)
	list     func(ctx context.Context, activeOnly bool) ([]domain.Product, error)
}

func (s *stubProductRepo) Insert(ctx context.Context, product domain.Product) error {
	if s.insert == nil {
		return errUnexpectedCall
	}
	return s.insert(ctx, product)
}

func (s *stubProductRepo) Update(ctx context.Context, product domain.Product) error {
	if s.update == nil {
		return errUnexpectedCall
	}
	return s.update(ctx, product)
}

func (s *stubProductRepo) Delete(ctx context.Context, productID string) error {
	if s.delete == nil {
		return errUnexpectedCall
	}
	return s.delete(ctx, productID)
}

func (s *stubProductRepo) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findByID == nil {
		return domain.Product{}, errUnexpectedCall
	}
	return s.findByID(ctx, productID)
}

func (s *stubProductRepo) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	if s.list == nil {
		return nil, errUnexpectedCall
	}
	return s.list(ctx, activeOnly)
}

type stubShippingMethodRepo struct {
	insert   func(ctx context.Context, method domain.ShippingMethod) error
	update   func(ctx context.Context, method domain.ShippingMethod) error
	delete   func(ctx context.Context, methodID string) error
	findByID func(ctx context.Context, methodID string) (domain.ShippingMethod, error)
	list     func(ctx context.Context) ([]domain.ShippingMethod, error)
}

func (s *stubShippingMethodRepo) Insert(ctx context.Context, method domain.ShippingMethod) error {
	if s.insert == nil {
		return errUnexpectedCall
	}
	return s.insert(ctx, method)
}

func (s *stubShippingMethodRepo) Update(ctx context.Context, method domain.ShippingMethod) error {
	if s.update == nil {
		return errUnexpectedCall
	}
	return s.update(ctx, method)
}

func (s *stubShippingMethodRepo) Delete(ctx context.Context, methodID string) error {
	if s.delete == nil {
		return errUnexpectedCall
	}
	return s.delete(ctx, methodID)
}

func (s *stubShippingMethodRepo) FindByID(ctx context.Context, methodID string) (domain.ShippingMethod, error) {
	if s.findByID == nil {
		return domain.ShippingMethod{}, errUnexpectedCall
	}
	return s.findByID(ctx, methodID)
}

func (s *stubShippingMethodRepo) List(ctx context.Context) ([]domain.ShippingMethod, error) {
	if s.list == nil {
		return nil, errUnexpectedCall
	}
	return s.list(ctx)
}

type stubOrderRepo struct {
	insert               func(ctx context.Context, order domain.Order) error
	findByID             func(ctx context.Context, orderID string) (domain.Order, error)
	findByIdempotencyKey func(ctx context.Context, key string) (domain.Order, error)
	findByPaymentID      func(ctx context.Context, paymentID string) (domain.Order, error)
	insertItems          func(ctx context.Context, orderID string, items []domain.OrderItem) error
	listItems            func(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	updateStatus         func(ctx context.Context, orderID string, update repositories.OrderStatusUpdate) (domain.Order, error)
	list                 func(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insert == nil {
		return errUnexpectedCall
	}
	return s.insert(ctx, order)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findByID == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return s.findByID(ctx, orderID)
}

func (s *stubOrderRepo) FindByIdempotencyKey(ctx context.Context, key string) (domain.Order, error) {
	if s.findByIdempotencyKey == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return s.findByIdempotencyKey(ctx, key)
}

func (s *stubOrderRepo) FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error) {
	if s.findByPaymentID == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return s.findByPaymentID(ctx, paymentID)
}

func (s *stubOrderRepo) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if s.insertItems == nil {
		return errUnexpectedCall
	}
	return s.insertItems(ctx, orderID, items)
}

func (s *stubOrderRepo) ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	if s.listItems == nil {
		return nil, errUnexpectedCall
	}
	return s.listItems(ctx, orderID)
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, orderID string, update repositories.OrderStatusUpdate) (domain.Order, error) {
	if s.updateStatus == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return s.updateStatus(ctx, orderID, update)
}

func (s *stubOrderRepo) List(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error) {
	if s.list == nil {
		return domain.CursorPage[domain.Order]{}, errUnexpectedCall
	}
	return s.list(ctx, filter, pager)
}

type stubPaymentEventRepo struct {
	record            func(ctx context.Context, event domain.PaymentEvent) (bool, error)
	findByTransaction func(ctx context.Context, provider, transactionID string) (domain.PaymentEvent, error)
}

func (s *stubPaymentEventRepo) Record(ctx context.Context, event domain.PaymentEvent) (bool, error) {
	if s.record == nil {
		return false, errUnexpectedCall
	}
	return s.record(ctx, event)
}

func (s *stubPaymentEventRepo) FindByTransaction(ctx context.Context, provider, transactionID string) (domain.PaymentEvent, error) {
	if s.findByTransaction == nil {
		return domain.PaymentEvent{}, errUnexpectedCall
	}
	return s.findByTransaction(ctx, provider, transactionID)
}
