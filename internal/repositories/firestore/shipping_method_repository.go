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

const shippingMethodCollection = "shippingMethods"

// ShippingMethodRepository persists shipping methods within Firestore.
type ShippingMethodRepository struct {
	base *pfirestore.BaseRepository[shippingMethodDocument]
}

// NewShippingMethodRepository constructs a Firestore-backed shipping method repository.
func NewShippingMethodRepository(provider *pfirestore.Provider) (*ShippingMethodRepository, error) {
	if provider == nil {
		return nil, errors.New("shipping method repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[shippingMethodDocument](provider, shippingMethodCollection, nil, nil)
	return &ShippingMethodRepository{base: base}, nil
}

// Insert stores a new shipping method document.
func (r *ShippingMethodRepository) Insert(ctx context.Context, method domain.ShippingMethod) error {
	if r == nil || r.base == nil {
		return errors.New("shipping method repository not initialised")
	}
	id := strings.TrimSpace(method.ID)
	if id == "" {
		return errors.New("shipping method repository: method id is required")
	}
	_, err := r.base.Set(ctx, id, newShippingMethodDocument(method))
	return err
}

// Update overwrites the mutable fields of a shipping method document.
func (r *ShippingMethodRepository) Update(ctx context.Context, method domain.ShippingMethod) error {
	if r == nil || r.base == nil {
		return errors.New("shipping method repository not initialised")
	}
	id := strings.TrimSpace(method.ID)
	if id == "" {
		return errors.New("shipping method repository: method id is required")
	}
	_, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "name", Value: strings.TrimSpace(method.Name)},
		{Path: "price", Value: encodeAmount(method.Price)},
		{Path: "type", Value: string(method.Type)},
		{Path: "updatedAt", Value: method.UpdatedAt.UTC()},
	})
	return err
}

// Delete removes the shipping method document.
func (r *ShippingMethodRepository) Delete(ctx context.Context, methodID string) error {
	if r == nil || r.base == nil {
		return errors.New("shipping method repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(methodID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("shippingMethods.delete", err)
	}
	return nil
}

// FindByID loads one shipping method.
func (r *ShippingMethodRepository) FindByID(ctx context.Context, methodID string) (domain.ShippingMethod, error) {
	if r == nil || r.base == nil {
		return domain.ShippingMethod{}, errors.New("shipping method repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(methodID))
	if err != nil {
		return domain.ShippingMethod{}, err
	}
	return doc.Data.toDomain(doc.ID)
}

// List returns all shipping methods ordered by name.
func (r *ShippingMethodRepository) List(ctx context.Context) ([]domain.ShippingMethod, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("shipping method repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.ShippingMethod, 0, len(docs))
	for _, doc := range docs {
		method, err := doc.Data.toDomain(doc.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, method)
	}
	return out, nil
}

type shippingMethodDocument struct {
	Name      string    `firestore:"name"`
	Price     string    `firestore:"price"`
	Type      string    `firestore:"type"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newShippingMethodDocument(method domain.ShippingMethod) shippingMethodDocument {
	return shippingMethodDocument{
		Name:      strings.TrimSpace(method.Name),
		Price:     encodeAmount(method.Price),
		Type:      string(method.Type),
		CreatedAt: method.CreatedAt.UTC(),
		UpdatedAt: method.UpdatedAt.UTC(),
	}
}

func (d shippingMethodDocument) toDomain(id string) (domain.ShippingMethod, error) {
	price, err := decodeAmount("shipping method", d.Price)
	if err != nil {
		return domain.ShippingMethod{}, err
	}
	return domain.ShippingMethod{
		ID:        id,
		Name:      d.Name,
		Price:     price,
		Type:      domain.ShippingType(d.Type),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

var _ repositories.ShippingMethodRepository = (*ShippingMethodRepository)(nil)
