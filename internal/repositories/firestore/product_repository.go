package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/fotoescola/api/internal/domain"
	pfirestore "github.com/fotoescola/api/internal/platform/firestore"
	"github.com/fotoescola/api/internal/repositories"
)

const productCollection = "products"

// ProductRepository persists catalog products within Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// Insert stores a new product document.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	_, err := r.base.Set(ctx, id, newProductDocument(product))
	return err
}

// Update overwrites the mutable fields of a product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return errors.New("product repository: product id is required")
	}
	_, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "name", Value: strings.TrimSpace(product.Name)},
		{Path: "description", Value: strings.TrimSpace(product.Description)},
		{Path: "imageUrl", Value: strings.TrimSpace(product.ImageURL)},
		{Path: "price", Value: encodeAmount(product.Price)},
		{Path: "active", Value: product.Active},
		{Path: "updatedAt", Value: product.UpdatedAt.UTC()},
	})
	return err
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

// FindByID loads one product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID)
}

// List returns products ordered by name, optionally restricted to active ones.
func (r *ProductRepository) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if activeOnly {
			q = q.Where("active", "==", true)
		}
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product, err := doc.Data.toDomain(doc.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, product)
	}
	return out, nil
}

type productDocument struct {
	Name        string    `firestore:"name"`
	Description string    `firestore:"description,omitempty"`
	ImageURL    string    `firestore:"imageUrl,omitempty"`
	Price       string    `firestore:"price"`
	Active      bool      `firestore:"active"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		Name:        strings.TrimSpace(product.Name),
		Description: strings.TrimSpace(product.Description),
		ImageURL:    strings.TrimSpace(product.ImageURL),
		Price:       encodeAmount(product.Price),
		Active:      product.Active,
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
}

func (d productDocument) toDomain(id string) (domain.Product, error) {
	price, err := decodeAmount("product", d.Price)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		Price:       price,
		Active:      d.Active,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
