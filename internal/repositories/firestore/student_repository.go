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

const studentCollection = "students"

// ErrAccessCodeNotFound is returned when no student matches an access code.
var ErrAccessCodeNotFound = errors.New("student repository: access code not found")

// StudentRepository persists students within Firestore.
type StudentRepository struct {
	base *pfirestore.BaseRepository[studentDocument]
}

// NewStudentRepository constructs a Firestore-backed student repository.
func NewStudentRepository(provider *pfirestore.Provider) (*StudentRepository, error) {
	if provider == nil {
		return nil, errors.New("student repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[studentDocument](provider, studentCollection, nil, nil)
	return &StudentRepository{base: base}, nil
}

// Insert stores a new student document.
func (r *StudentRepository) Insert(ctx context.Context, student domain.Student) error {
	if r == nil || r.base == nil {
		return errors.New("student repository not initialised")
	}
	id := strings.TrimSpace(student.ID)
	if id == "" {
		return errors.New("student repository: student id is required")
	}
	if strings.TrimSpace(student.AccessCode) == "" {
		return errors.New("student repository: access code is required")
	}
	_, err := r.base.Set(ctx, id, newStudentDocument(student))
	return err
}

// Update overwrites the mutable fields of a student document.
func (r *StudentRepository) Update(ctx context.Context, student domain.Student) error {
	if r == nil || r.base == nil {
		return errors.New("student repository not initialised")
	}
	id := strings.TrimSpace(student.ID)
	if id == "" {
		return errors.New("student repository: student id is required")
	}
	updates := []firestore.Update{
		{Path: "name", Value: strings.TrimSpace(student.Name)},
		{Path: "updatedAt", Value: student.UpdatedAt.UTC()},
	}
	if code := strings.TrimSpace(student.AccessCode); code != "" {
		updates = append(updates, firestore.Update{Path: "accessCode", Value: code})
	}
	_, err := r.base.Update(ctx, id, updates)
	return err
}

// Delete removes the student document.
func (r *StudentRepository) Delete(ctx context.Context, studentID string) error {
	if r == nil || r.base == nil {
		return errors.New("student repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("students.delete", err)
	}
	return nil
}

// FindByID loads one student.
func (r *StudentRepository) FindByID(ctx context.Context, studentID string) (domain.Student, error) {
	if r == nil || r.base == nil {
		return domain.Student{}, errors.New("student repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(studentID))
	if err != nil {
		return domain.Student{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByAccessCode resolves the student owning the given access code.
func (r *StudentRepository) FindByAccessCode(ctx context.Context, accessCode string) (domain.Student, error) {
	if r == nil || r.base == nil {
		return domain.Student{}, errors.New("student repository not initialised")
	}
	code := strings.TrimSpace(accessCode)
	if code == "" {
		return domain.Student{}, ErrAccessCodeNotFound
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("accessCode", "==", code).Limit(1)
	})
	if err != nil {
		return domain.Student{}, err
	}
	if len(docs) == 0 {
		return domain.Student{}, ErrAccessCodeNotFound
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

// ListByClass returns the students in one class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]domain.Student, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("student repository not initialised")
	}
	cid := strings.TrimSpace(classID)
	if cid == "" {
		return nil, errors.New("student repository: class id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("classId", "==", cid).OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Student, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}

type studentDocument struct {
	ClassID    string    `firestore:"classId"`
	Name       string    `firestore:"name"`
	AccessCode string    `firestore:"accessCode"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func newStudentDocument(student domain.Student) studentDocument {
	return studentDocument{
		ClassID:    strings.TrimSpace(student.ClassID),
		Name:       strings.TrimSpace(student.Name),
		AccessCode: strings.TrimSpace(student.AccessCode),
		CreatedAt:  student.CreatedAt.UTC(),
		UpdatedAt:  student.UpdatedAt.UTC(),
	}
}

func (d studentDocument) toDomain(id string) domain.Student {
	return domain.Student{
		ID:         id,
		ClassID:    d.ClassID,
		Name:       d.Name,
		AccessCode: d.AccessCode,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

var _ repositories.StudentRepository = (*StudentRepository)(nil)
