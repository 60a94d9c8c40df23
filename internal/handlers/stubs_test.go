package handlers

import (
	"context"
	"errors"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/services"
)

var errUnexpectedCall = errors.New("unexpected call")

type stubGalleryService struct {
	login   func(ctx context.Context, accessCode string) (services.GalleryAccess, error)
	gallery func(ctx context.Context, session domain.GallerySession) (services.Gallery, error)
}

func (s *stubGalleryService) Login(ctx context.Context, accessCode string) (services.GalleryAccess, error) {
	if s.login == nil {
		return services.GalleryAccess{}, errUnexpectedCall
	}
	return s.login(ctx, accessCode)
}

func (s *stubGalleryService) Gallery(ctx context.Context, session domain.GallerySession) (services.Gallery, error) {
	if s.gallery == nil {
		return services.Gallery{}, errUnexpectedCall
	}
	return s.gallery(ctx, session)
}

type stubCheckoutService struct {
	checkout      func(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error)
	createPayment func(ctx context.Context, cmd services.CreatePaymentCommand) (services.PaymentOutcome, error)
}

func (s *stubCheckoutService) Checkout(ctx context.Context, cmd services.CheckoutCommand) (services.CheckoutResult, error) {
	if s.checkout == nil {
		return services.CheckoutResult{}, errUnexpectedCall
	}
	return s.checkout(ctx, cmd)
}

func (s *stubCheckoutService) CreatePayment(ctx context.Context, cmd services.CreatePaymentCommand) (services.PaymentOutcome, error) {
	if s.createPayment == nil {
		return services.PaymentOutcome{}, errUnexpectedCall
	}
	return s.createPayment(ctx, cmd)
}

type stubWebhookService struct {
	cardEvent    func(ctx context.Context, event services.CardWebhookEvent) error
	notification func(ctx context.Context, notification services.GatewayNotification) error
}

func (s *stubWebhookService) HandleCardEvent(ctx context.Context, event services.CardWebhookEvent) error {
	if s.cardEvent == nil {
		return errUnexpectedCall
	}
	return s.cardEvent(ctx, event)
}

func (s *stubWebhookService) HandleGatewayNotification(ctx context.Context, notification services.GatewayNotification) error {
	if s.notification == nil {
		return errUnexpectedCall
	}
	return s.notification(ctx, notification)
}

type stubOrderService struct {
	list            func(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error)
	get             func(ctx context.Context, orderID string) (services.OrderDetails, error)
	findByPaymentID func(ctx context.Context, paymentID string) (domain.Order, error)
	updateStatus    func(ctx context.Context, orderID string, cmd services.OrderStatusCommand) (domain.Order, error)
}

func (s *stubOrderService) List(ctx context.Context, filter domain.OrderFilter, pager domain.Pagination) (domain.CursorPage[domain.Order], error) {
	if s.list == nil {
		return domain.CursorPage[domain.Order]{}, errUnexpectedCall
	}
	return s.list(ctx, filter, pager)
}

func (s *stubOrderService) Get(ctx context.Context, orderID string) (services.OrderDetails, error) {
	if s.get == nil {
		return services.OrderDetails{}, errUnexpectedCall
	}
	return s.get(ctx, orderID)
}

func (s *stubOrderService) FindByPaymentID(ctx context.Context, paymentID string) (domain.Order, error) {
	if s.findByPaymentID == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return s.findByPaymentID(ctx, paymentID)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID string, cmd services.OrderStatusCommand) (domain.Order, error) {
	if s.updateStatus == nil {
		return domain.Order{}, errUnexpectedCall
	}
	return s.updateStatus(ctx, orderID, cmd)
}

type stubCatalogService struct {
	listProducts         func(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	getProduct           func(ctx context.Context, productID string) (domain.Product, error)
	createProduct        func(ctx context.Context, input services.ProductInput) (domain.Product, error)
	updateProduct        func(ctx context.Context, productID string, input services.ProductInput) (domain.Product, error)
	deleteProduct        func(ctx context.Context, productID string) error
	listShippingMethods  func(ctx context.Context) ([]domain.ShippingMethod, error)
	createShippingMethod func(ctx context.Context, input services.ShippingMethodInput) (domain.ShippingMethod, error)
	updateShippingMethod func(ctx context.Context, methodID string, input services.ShippingMethodInput) (domain.ShippingMethod, error)
	deleteShippingMethod func(ctx context.Context, methodID string) error
}

func (s *stubCatalogService) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	if s.listProducts == nil {
		return nil, errUnexpectedCall
	}
	return s.listProducts(ctx, includeInactive)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getProduct == nil {
		return domain.Product{}, errUnexpectedCall
	}
	return s.getProduct(ctx, productID)
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input services.ProductInput) (domain.Product, error) {
	if s.createProduct == nil {
		return domain.Product{}, errUnexpectedCall
	}
	return s.createProduct(ctx, input)
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, productID string, input services.ProductInput) (domain.Product, error) {
	if s.updateProduct == nil {
		return domain.Product{}, errUnexpectedCall
	}
	return s.updateProduct(ctx, productID, input)
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID string) error {
	if s.deleteProduct == nil {
		return errUnexpectedCall
	}
	return s.deleteProduct(ctx, productID)
}

func (s *stubCatalogService) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	if s.listShippingMethods == nil {
		return nil, errUnexpectedCall
	}
	return s.listShippingMethods(ctx)
}

func (s *stubCatalogService) CreateShippingMethod(ctx context.Context, input services.ShippingMethodInput) (domain.ShippingMethod, error) {
	if s.createShippingMethod == nil {
		return domain.ShippingMethod{}, errUnexpectedCall
	}
	return s.createShippingMethod(ctx, input)
}

func (s *stubCatalogService) UpdateShippingMethod(ctx context.Context, methodID string, input services.ShippingMethodInput) (domain.ShippingMethod, error) {
	if s.updateShippingMethod == nil {
		return domain.ShippingMethod{}, errUnexpectedCall
	}
	return s.updateShippingMethod(ctx, methodID, input)
}

func (s *stubCatalogService) DeleteShippingMethod(ctx context.Context, methodID string) error {
	if s.deleteShippingMethod == nil {
		return errUnexpectedCall
	}
	return s.deleteShippingMethod(ctx, methodID)
}

type stubRosterService struct {
	createSchool func(ctx context.Context, name string) (domain.School, error)
	updateSchool func(ctx context.Context, schoolID, name string) (domain.School, error)
	deleteSchool func(ctx context.Context, schoolID string) error
	getSchool    func(ctx context.Context, schoolID string) (domain.School, error)
	listSchools  func(ctx context.Context) ([]domain.School, error)

	createClass func(ctx context.Context, schoolID, name string) (domain.Class, error)
	updateClass func(ctx context.Context, classID, name string) (domain.Class, error)
	deleteClass func(ctx context.Context, classID string) error
	listClasses func(ctx context.Context, schoolID string) ([]domain.Class, error)

	createStudent        func(ctx context.Context, classID, name string) (domain.Student, error)
	updateStudent        func(ctx context.Context, studentID, name string) (domain.Student, error)
	regenerateAccessCode func(ctx context.Context, studentID string) (domain.Student, error)
	deleteStudent        func(ctx context.Context, studentID string) error
	getStudent           func(ctx context.Context, studentID string) (domain.Student, error)
	listStudents         func(ctx context.Context, classID string) ([]domain.Student, error)

	uploadPhoto       func(ctx context.Context, cmd services.UploadPhotoCommand) (domain.Photo, error)
	deletePhoto       func(ctx context.Context, photoID string) error
	listStudentPhotos func(ctx context.Context, studentID string) ([]domain.Photo, error)
}

func (s *stubRosterService) CreateSchool(ctx context.Context, name string) (domain.School, error) {
	if s.createSchool == nil {
		return domain.School{}, errUnexpectedCall
	}
	return s.createSchool(ctx, name)
}

func (s *stubRosterService) UpdateSchool(ctx context.Context, schoolID, name string) (domain.School, error) {
	if s.updateSchool == nil {
		return domain.School{}, errUnexpectedCall
	}
	return s.updateSchool(ctx, schoolID, name)
}

func (s *stubRosterService) DeleteSchool(ctx context.Context, schoolID string) error {
	if s.deleteSchool == nil {
		return errUnexpectedCall
	}
	return s.deleteSchool(ctx, schoolID)
}

func (s *stubRosterService) GetSchool(ctx context.Context, schoolID string) (domain.School, error) {
	if s.getSchool == nil {
		return domain.School{}, errUnexpectedCall
	}
	return s.getSchool(ctx, schoolID)
}

func (s *stubRosterService) ListSchools(ctx context.Context) ([]domain.School, error) {
	if s.listSchools == nil {
		return nil, errUnexpectedCall
	}
	return s.listSchools(ctx)
}

func (s *stubRosterService) CreateClass(ctx context.Context, schoolID, name string) (domain.Class, error) {
	if s.createClass == nil {
		return domain.Class{}, errUnexpectedCall
	}
	return s.createClass(ctx, schoolID, name)
}

func (s *stubRosterService) UpdateClass(ctx context.Context, classID, name string) (domain.Class, error) {
	if s.updateClass == nil {
		return domain.Class{}, errUnexpectedCall
	}
	return s.updateClass(ctx, classID, name)
}

func (s *stubRosterService) DeleteClass(ctx context.Context, classID string) error {
	if s.deleteClass == nil {
		return errUnexpectedCall
	}
	return s.deleteClass(ctx, classID)
}

func (s *stubRosterService) ListClasses(ctx context.Context, schoolID string) ([]domain.Class, error) {
	if s.listClasses == nil {
		return nil, errUnexpectedCall
	}
	return s.listClasses(ctx, schoolID)
}

func (s *stubRosterService) CreateStudent(ctx context.Context, classID, name string) (domain.Student, error) {
	if s.createStudent == nil {
		return domain.Student{}, errUnexpectedCall
	}
	return s.createStudent(ctx, classID, name)
}

func (s *stubRosterService) UpdateStudent(ctx context.Context, studentID, name string) (domain.Student, error) {
	if s.updateStudent == nil {
		return domain.Student{}, errUnexpectedCall
	}
	return s.updateStudent(ctx, studentID, name)
}

func (s *stubRosterService) RegenerateAccessCode(ctx context.Context, studentID string) (domain.Student, error) {
	if s.regenerateAccessCode == nil {
		return domain.Student{}, errUnexpectedCall
	}
	return s.regenerateAccessCode(ctx, studentID)
}

func (s *stubRosterService) DeleteStudent(ctx context.Context, studentID string) error {
	if s.deleteStudent == nil {
		return errUnexpectedCall
	}
	return s.deleteStudent(ctx, studentID)
}

func (s *stubRosterService) GetStudent(ctx context.Context, studentID string) (domain.Student, error) {
	if s.getStudent == nil {
		return domain.Student{}, errUnexpectedCall
	}
	return s.getStudent(ctx, studentID)
}

func (s *stubRosterService) ListStudents(ctx context.Context, classID string) ([]domain.Student, error) {
	if s.listStudents == nil {
		return nil, errUnexpectedCall
	}
	return s.listStudents(ctx, classID)
}

func (s *stubRosterService) UploadPhoto(ctx context.Context, cmd services.UploadPhotoCommand) (domain.Photo, error) {
	if s.uploadPhoto == nil {
		return domain.Photo{}, errUnexpectedCall
	}
	return s.uploadPhoto(ctx, cmd)
}

func (s *stubRosterService) DeletePhoto(ctx context.Context, photoID string) error {
	if s.deletePhoto == nil {
		return errUnexpectedCall
	}
	return s.deletePhoto(ctx, photoID)
}

func (s *stubRosterService) ListStudentPhotos(ctx context.Context, studentID string) ([]domain.Photo, error) {
	if s.listStudentPhotos == nil {
		return nil, errUnexpectedCall
	}
	return s.listStudentPhotos(ctx, studentID)
}

type stubSystemService struct {
	health func(ctx context.Context) (domain.SystemHealthReport, error)
}

func (s *stubSystemService) Health(ctx context.Context) (domain.SystemHealthReport, error) {
	if s.health == nil {
		return domain.SystemHealthReport{}, errUnexpectedCall
	}
	return s.health(ctx)
}

var (
	_ services.GalleryService  = (*stubGalleryService)(nil)
	_ services.CheckoutService = (*stubCheckoutService)(nil)
	_ services.WebhookService  = (*stubWebhookService)(nil)
	_ services.OrderService    = (*stubOrderService)(nil)
	_ services.CatalogService  = (*stubCatalogService)(nil)
	_ services.RosterService   = (*stubRosterService)(nil)
	_ services.SystemService   = (*stubSystemService)(nil)
)
