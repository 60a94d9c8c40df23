package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/fotoescola/api/internal/domain"
)

type stubSessionIssuer struct {
	issue func(studentID, classID string) (string, domain.GallerySession, error)
}

func (s *stubSessionIssuer) Issue(studentID, classID string) (string, domain.GallerySession, error) {
	if s.issue == nil {
		return "", domain.GallerySession{}, errors.New("unexpected issue call")
	}
	return s.issue(studentID, classID)
}

func newTestGalleryService(t *testing.T, deps GalleryServiceDeps) GalleryService {
	t.Helper()
	if deps.Students == nil {
		deps.Students = &stubStudentRepo{}
	}
	if deps.Photos == nil {
		deps.Photos = &stubPhotoRepo{}
	}
	if deps.Products == nil {
		deps.Products = &stubProductRepo{}
	}
	if deps.ShippingMethods == nil {
		deps.ShippingMethods = &stubShippingMethodRepo{}
	}
	if deps.Sessions == nil {
		deps.Sessions = &stubSessionIssuer{}
	}
	svc, err := NewGalleryService(deps)
	if err != nil {
		t.Fatalf("NewGalleryService returned error: %v", err)
	}
	return svc
}

func TestGalleryLoginNormalisesCode(t *testing.T) {
	expires := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)
	student := domain.Student{ID: "S1", ClassID: "C1", Name: "João", AccessCode: "ABCD2345"}

	var lookedUp string
	svc := newTestGalleryService(t, GalleryServiceDeps{
		Students: &stubStudentRepo{
			findByAccessCode: func(ctx context.Context, accessCode string) (domain.Student, error) {
				lookedUp = accessCode
				return student, nil
			},
		},
		Sessions: &stubSessionIssuer{
			issue: func(studentID, classID string) (string, domain.GallerySession, error) {
				if studentID != "S1" || classID != "C1" {
					t.Fatalf("unexpected session subject %s/%s", studentID, classID)
				}
				return "token-1", domain.GallerySession{StudentID: studentID, ClassID: classID, ExpiresAt: expires}, nil
			},
		},
	})

	access, err := svc.Login(context.Background(), "  abcd2345 ")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if lookedUp != "ABCD2345" {
		t.Fatalf("expected trimmed uppercase lookup, got %q", lookedUp)
	}
	if access.Token != "token-1" || !access.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected access %+v", access)
	}
	if access.Student.ID != "S1" {
		t.Fatalf("expected student in access, got %+v", access.Student)
	}
}

func TestGalleryLoginUnknownCode(t *testing.T) {
	svc := newTestGalleryService(t, GalleryServiceDeps{
		Students: &stubStudentRepo{
			findByAccessCode: func(ctx context.Context, accessCode string) (domain.Student, error) {
				return domain.Student{}, errStubNotFound
			},
		},
	})

	if _, err := svc.Login(context.Background(), "NOPE1234"); !errors.Is(err, ErrGalleryAccessCodeInvalid) {
		t.Fatalf("expected ErrGalleryAccessCodeInvalid, got %v", err)
	}
}

func TestGalleryViewLoadsPhotosAndCatalog(t *testing.T) {
	svc := newTestGalleryService(t, GalleryServiceDeps{
		Students: &stubStudentRepo{
			findByID: func(ctx context.Context, studentID string) (domain.Student, error) {
				return domain.Student{ID: studentID, Name: "João"}, nil
			},
		},
		Photos: &stubPhotoRepo{
			listByStudent: func(ctx context.Context, studentID string) ([]domain.Photo, error) {
				return []domain.Photo{{ID: "abc", StudentID: studentID}}, nil
			},
		},
		Products: &stubProductRepo{
			list: func(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
				if !activeOnly {
					t.Fatalf("gallery must only list active products")
				}
				return []domain.Product{{ID: "P1"}}, nil
			},
		},
		ShippingMethods: &stubShippingMethodRepo{
			list: func(ctx context.Context) ([]domain.ShippingMethod, error) {
				return []domain.ShippingMethod{{ID: "M1"}}, nil
			},
		},
	})

	gallery, err := svc.Gallery(context.Background(), domain.GallerySession{StudentID: "S1"})
	if err != nil {
		t.Fatalf("Gallery returned error: %v", err)
	}
	if len(gallery.Photos) != 1 || len(gallery.Products) != 1 || len(gallery.ShippingMethods) != 1 {
		t.Fatalf("unexpected gallery contents %+v", gallery)
	}
}

func TestGalleryViewRequiresStudent(t *testing.T) {
	svc := newTestGalleryService(t, GalleryServiceDeps{})
	if _, err := svc.Gallery(context.Background(), domain.GallerySession{}); !errors.Is(err, ErrGalleryInvalidInput) {
		t.Fatalf("expected ErrGalleryInvalidInput, got %v", err)
	}
}
