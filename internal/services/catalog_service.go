package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput indicates the caller supplied invalid input parameters.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the requested catalog entry does not exist.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogUnavailable indicates catalog dependencies are currently unavailable.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
)

// CatalogServiceDeps wires the dependencies required by the catalog service.
type CatalogServiceDeps struct {
	Products        repositories.ProductRepository
	ShippingMethods repositories.ShippingMethodRepository
	Clock           func() time.Time
	Logger          func(ctx context.Context, event string, fields map[string]any)
	IDGenerator     func() string
}

type catalogService struct {
	products        repositories.ProductRepository
	shippingMethods repositories.ShippingMethodRepository
	now             func() time.Time
	logger          func(ctx context.Context, event string, fields map[string]any)
	newID           func() string
}

// NewCatalogService constructs a CatalogService validating required dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.ShippingMethods == nil {
		return nil, errors.New("catalog service: shipping method repository is required")
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

	return &catalogService{
		products:        deps.Products,
		shippingMethods: deps.ShippingMethods,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
		newID:  idGen,
	}, nil
}

// ListProducts returns catalog products; storefront callers see active ones only.
func (s *catalogService) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	if s == nil || s.products == nil {
		return nil, ErrCatalogUnavailable
	}
	products, err := s.products.List(ctx, !includeInactive)
	if err != nil {
		return nil, s.translateError(err)
	}
	return products, nil
}

// GetProduct loads one product.
func (s *catalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s == nil || s.products == nil {
		return domain.Product{}, ErrCatalogUnavailable
	}
	if strings.TrimSpace(productID) == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}
	product, err := s.products.FindByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, s.translateError(err)
	}
	return product, nil
}

// CreateProduct validates and stores a new product.
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	if s == nil || s.products == nil {
		return domain.Product{}, ErrCatalogUnavailable
	}

	price, err := parseCatalogPrice(input.Price)
	if err != nil {
		return domain.Product{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	now := s.now()
	product := domain.Product{
		ID:          s.newID(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Price:       price,
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Insert(ctx, product); err != nil {
		return domain.Product{}, s.translateError(err)
	}

	s.logger(ctx, "catalog.product.created", map[string]any{
		"productId": product.ID,
		"name":      product.Name,
	})
	return product, nil
}

// UpdateProduct validates and applies changes to an existing product.
func (s *catalogService) UpdateProduct(ctx context.Context, productID string, input ProductInput) (domain.Product, error) {
	if s == nil || s.products == nil {
		return domain.Product{}, ErrCatalogUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, ErrCatalogInvalidInput
	}

	current, err := s.products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, s.translateError(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		current.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		current.Description = desc
	}
	if url := strings.TrimSpace(input.ImageURL); url != "" {
		current.ImageURL = url
	}
	if strings.TrimSpace(input.Price) != "" {
		price, err := parseCatalogPrice(input.Price)
		if err != nil {
			return domain.Product{}, err
		}
		current.Price = price
	}
	if input.Active != nil {
		current.Active = *input.Active
	}
	current.UpdatedAt = s.now()

	if err := s.products.Update(ctx, current); err != nil {
		return domain.Product{}, s.translateError(err)
	}
	return current, nil
}

// DeleteProduct removes a product from the catalog.
func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	if s == nil || s.products == nil {
		return ErrCatalogUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return s.translateError(err)
	}
	s.logger(ctx, "catalog.product.deleted", map[string]any{"productId": id})
	return nil
}

// ListShippingMethods returns all shipping methods.
func (s *catalogService) ListShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error) {
	if s == nil || s.shippingMethods == nil {
		return nil, ErrCatalogUnavailable
	}
	methods, err := s.shippingMethods.List(ctx)
	if err != nil {
		return nil, s.translateError(err)
	}
	return methods, nil
}

// CreateShippingMethod validates and stores a new shipping method.
func (s *catalogService) CreateShippingMethod(ctx context.Context, input ShippingMethodInput) (domain.ShippingMethod, error) {
	if s == nil || s.shippingMethods == nil {
		return domain.ShippingMethod{}, ErrCatalogUnavailable
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || !validShippingType(input.Type) {
		return domain.ShippingMethod{}, ErrCatalogInvalidInput
	}
	price, err := parseCatalogPrice(input.Price)
	if err != nil {
		return domain.ShippingMethod{}, err
	}

	now := s.now()
	method := domain.ShippingMethod{
		ID:        s.newID(),
		Name:      name,
		Price:     price,
		Type:      input.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.shippingMethods.Insert(ctx, method); err != nil {
		return domain.ShippingMethod{}, s.translateError(err)
	}

	s.logger(ctx, "catalog.shippingMethod.created", map[string]any{
		"shippingMethodId": method.ID,
		"type":             string(method.Type),
	})
	return method, nil
}

// UpdateShippingMethod validates and applies changes to an existing shipping method.
func (s *catalogService) UpdateShippingMethod(ctx context.Context, methodID string, input ShippingMethodInput) (domain.ShippingMethod, error) {
	if s == nil || s.shippingMethods == nil {
		return domain.ShippingMethod{}, ErrCatalogUnavailable
	}
	id := strings.TrimSpace(methodID)
	if id == "" {
		return domain.ShippingMethod{}, ErrCatalogInvalidInput
	}

	current, err := s.shippingMethods.FindByID(ctx, id)
	if err != nil {
		return domain.ShippingMethod{}, s.translateError(err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		current.Name = name
	}
	if strings.TrimSpace(input.Price) != "" {
		price, err := parseCatalogPrice(input.Price)
		if err != nil {
			return domain.ShippingMethod{}, err
		}
		current.Price = price
	}
	if input.Type != "" {
		if !validShippingType(input.Type) {
			return domain.ShippingMethod{}, ErrCatalogInvalidInput
		}
		current.Type = input.Type
	}
	current.UpdatedAt = s.now()

	if err := s.shippingMethods.Update(ctx, current); err != nil {
		return domain.ShippingMethod{}, s.translateError(err)
	}
	return current, nil
}

// DeleteShippingMethod removes a shipping method.
func (s *catalogService) DeleteShippingMethod(ctx context.Context, methodID string) error {
	if s == nil || s.shippingMethods == nil {
		return ErrCatalogUnavailable
	}
	id := strings.TrimSpace(methodID)
	if id == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.shippingMethods.Delete(ctx, id); err != nil {
		return s.translateError(err)
	}
	s.logger(ctx, "catalog.shippingMethod.deleted", map[string]any{"shippingMethodId": id})
	return nil
}

func (s *catalogService) translateError(err error) error {
	switch {
	case isRepositoryNotFound(err):
		return ErrCatalogNotFound
	case isRepositoryUnavailable(err):
		return ErrCatalogUnavailable
	default:
		return err
	}
}

func parseCatalogPrice(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, ErrCatalogInvalidInput
	}
	price, err := decimal.NewFromString(trimmed)
	if err != nil || price.IsNegative() {
		return decimal.Zero, ErrCatalogInvalidInput
	}
	return price, nil
}

func validShippingType(t domain.ShippingType) bool {
	switch t {
	case domain.ShippingTypePickup, domain.ShippingTypeDelivery:
		return true
	default:
		return false
	}
}

var _ CatalogService = (*catalogService)(nil)
