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

const classCollection = "classes"

// ClassRepository persists classes within Firestore.
type ClassRepository struct {
	base *pfirestore.BaseRepository[classDocument]
}

// NewClassRepository constructs a Firestore-backed class repository.
func NewClassRepository(provider *pfirestore.Provider) (*ClassRepository, error) {
	if provider == nil {
		return nil, errors.New("class repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[classDocument](provider, classCollection, nil, nil)
	return &ClassRepository{base: base}, nil
}

// Insert stores a new class document.
func (r *ClassRepository) Insert(ctx context.Context, class domain.Class) error {
	if r == nil || r.base == nil {
		return errors.New("class repository not initialised")
	}
	id := strings.TrimSpace(class.ID)
	if id == "" {
		return errors.New("class repository: class id is required")
	}
	if strings.TrimSpace(class.SchoolID) == "" {
		return errors.New("class repository: school id is required")
	}
	_, err := r.base.Set(ctx, id, newClassDocument(class))
	return err
}

// Update overwrites the mutable fields of a class document.
func (r *ClassRepository) Update(ctx context.Context, class domain.Class) error {
	if r == nil || r.base == nil {
		return errors.New("class repository not initialised")
	}
	id := strings.TrimSpace(class.ID)
	if id == "" {
		return errors.New("class repository: class id is required")
	}
	_, err := r.base.Update(ctx, id, []firestore.Update{
		{Path: "name", Value: strings.TrimSpace(class.Name)},
		{Path: "updatedAt", Value: class.UpdatedAt.UTC()},
	})
	return err
}

// Delete removes the class document.
func (r *ClassRepository) Delete(ctx context.Context, classID string) error {
	if r == nil || r.base == nil {
		return errors.New("class repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(classID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("classes.delete", err)
	}
	return nil
}

// FindByID loads one class.
func (r *ClassRepository) FindByID(ctx context.Context, classID string) (domain.Class, error) {
	if r == nil || r.base == nil {
		return domain.Class{}, errors.New("class repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(classID))
	if err != nil {
		return domain.Class{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListBySchool returns the classes belonging to one school ordered by name.
func (r *ClassRepository) ListBySchool(ctx context.Context, schoolID string) ([]domain.Class, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("class repository not initialised")
	}
	sid := strings.TrimSpace(schoolID)
	if sid == "" {
		return nil, errors.New("class repository: school id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("schoolId", "==", sid).OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Class, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}

type classDocument struct {
	SchoolID  string    `firestore:"schoolId"`
	Name      string    `firestore:"name"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newClassDocument(class domain.Class) classDocument {
	return classDocument{
		SchoolID:  strings.TrimSpace(class.SchoolID),
		Name:      strings.TrimSpace(class.Name),
		CreatedAt: class.CreatedAt.UTC(),
		UpdatedAt: class.UpdatedAt.UTC(),
	}
}

func (d classDocument) toDomain(id string) domain.Class {
	return domain.Class{
		ID:        id,
		SchoolID:  d.SchoolID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var _ repositories.ClassRepository = (*ClassRepository)(nil)
