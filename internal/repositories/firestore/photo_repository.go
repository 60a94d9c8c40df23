package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/fotoescola/api/internal/domain"
	pfirestore "github.com/fotoescola/api/internal/platform/firestore"
	"github.com/fotoescola/api/internal/repositories"
)

const photoCollection = "photos"

// PhotoRepository persists photo records within Firestore.
type PhotoRepository struct {
	base     *pfirestore.BaseRepository[photoDocument]
	provider *pfirestore.Provider
}

// NewPhotoRepository constructs a Firestore-backed photo repository.
func NewPhotoRepository(provider *pfirestore.Provider) (*PhotoRepository, error) {
	if provider == nil {
		return nil, errors.New("photo repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[photoDocument](provider, photoCollection, nil, nil)
	return &PhotoRepository{base: base, provider: provider}, nil
}

// CreateIfAbsent inserts the photo unless a record with the same id exists.
// The read and conditional create run in one transaction so two concurrent
// resolutions of the same URL cannot produce divergent rows.
func (r *PhotoRepository) CreateIfAbsent(ctx context.Context, photo domain.Photo) (domain.Photo, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.Photo{}, errors.New("photo repository not initialised")
	}
	id := strings.TrimSpace(photo.ID)
	if id == "" {
		return domain.Photo{}, errors.New("photo repository: photo id is required")
	}

	ref, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return domain.Photo{}, err
	}

	stored := photo
	stored.ID = id

	txErr := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		switch {
		case err == nil && snap.Exists():
			var doc photoDocument
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			stored = doc.toDomain(id)
			return nil
		case err != nil && status.Code(err) != codes.NotFound:
			return err
		}
		return tx.Create(ref, newPhotoDocument(photo))
	})
	if txErr != nil {
		return domain.Photo{}, pfirestore.WrapError("photos.createIfAbsent", txErr)
	}
	return stored, nil
}

// FindByID loads one photo record.
func (r *PhotoRepository) FindByID(ctx context.Context, photoID string) (domain.Photo, error) {
	if r == nil || r.base == nil {
		return domain.Photo{}, errors.New("photo repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(photoID))
	if err != nil {
		return domain.Photo{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListByStudent returns the photos owned by one student, newest first.
func (r *PhotoRepository) ListByStudent(ctx context.Context, studentID string) ([]domain.Photo, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("photo repository not initialised")
	}
	sid := strings.TrimSpace(studentID)
	if sid == "" {
		return nil, errors.New("photo repository: student id is required")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("studentId", "==", sid).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Photo, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Data.toDomain(doc.ID))
	}
	return out, nil
}

// Delete removes the photo record.
func (r *PhotoRepository) Delete(ctx context.Context, photoID string) error {
	if r == nil || r.base == nil {
		return errors.New("photo repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, strings.TrimSpace(photoID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("photos.delete", err)
	}
	return nil
}

type photoDocument struct {
	StudentID string    `firestore:"studentId"`
	URL       string    `firestore:"url"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func newPhotoDocument(photo domain.Photo) photoDocument {
	return photoDocument{
		StudentID: strings.TrimSpace(photo.StudentID),
		URL:       strings.TrimSpace(photo.URL),
		CreatedAt: photo.CreatedAt.UTC(),
	}
}

func (d photoDocument) toDomain(id string) domain.Photo {
	return domain.Photo{
		ID:        id,
		StudentID: d.StudentID,
		URL:       d.URL,
		CreatedAt: d.CreatedAt,
	}
}

var _ repositories.PhotoRepository = (*PhotoRepository)(nil)
