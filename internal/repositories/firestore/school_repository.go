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

const schoolCollection = "schools"

// SchoolRepository persists schools within Firestore.
type SchoolRepository struct {
	base *pfirestore.BaseRepository[schoolDocument]
}

// NewSchoolRepository constructs a Firestore-backed school repository.
func NewSchoolRepository(provider *pfirestore.Provider) (*SchoolRepository, error) {
	if provider == nil {
		return nil, errors.New("school repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[schoolDocument](provider, schoolCollection, nil, nil)
	return &SchoolRepository{base: base}, nil
}

// Insert stores a new school document.
func (r *SchoolRepository) Insert(ctx context.Context, school domain.School) error {
	if r == nil || r.base == nil {
		return errors.New("school repository not initialised")
	}
	id := strings.TrimSpace(school.ID)
	if id == "" {
		return errors.New("school repository: school id is required")
	}
	_, err := r.base.Set(ctx, id, newSchoolDocument(school))
	return err
}

// Update overwrites an existing school document.
func (r *SchoolRepository) Update(ctx context.Context, school domain.School) error {
	if r == nil || r.base == nil {
		return errors.New("school repository not initialised")
	}
	id := strings.TrimSpace(school.ID)
	if id == "" {
		return errors.New("school repository: school id is required")
	}
	_, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "name", Value: strings.TrimSpace(school.Name)},
		{Path: "updatedAt", Value: school.UpdatedAt.UTC()},
	})
	return err
}

// Delete removes the school document.
func (r *SchoolRepository) Delete(ctx context.Context, schoolID string) error {
	if r == nil || r.base == nil {
		return errors.New("school repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(schoolID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("schools.delete", err)
	}
	return nil
}

// FindByID loads one school.
func (r *SchoolRepository) FindByID(ctx context.Context, schoolID string) (domain.School, error) {
	if r == nil || r.base == nil {
		return domain.School{}, errors.New("school repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(schoolID))
	if err != nil {
		return domain.School{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns all schools ordered by name.
func (r *SchoolRepository) List(ctx context.Context) ([]domain.School, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("school repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.School, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}

type schoolDocument struct {
	Name      string    `firestore:"name"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newSchoolDocument(school domain.School) schoolDocument {
	return schoolDocument{
		Name:      strings.TrimSpace(school.Name),
		CreatedAt: school.CreatedAt.UTC(),
		UpdatedAt: school.UpdatedAt.UTC(),
	}
}

func (d schoolDocument) toDomain(id string) domain.School {
	return domain.School{
		ID:        id,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var _ repositories.SchoolRepository = (*SchoolRepository)(nil)
