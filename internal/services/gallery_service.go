package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/repositories"
)

var (
	// ErrGalleryAccessCodeInvalid indicates the access code does not match any student.
	ErrGalleryAccessCodeInvalid = errors.New("gallery: invalid access code")
	// ErrGalleryInvalidInput indicates the caller supplied invalid input parameters.
	ErrGalleryInvalidInput = errors.New("gallery: invalid input")
	// ErrGalleryUnavailable indicates gallery dependencies are currently unavailable.
	ErrGalleryUnavailable = errors.New("gallery: unavailable")
)

// gallerySessionIssuer abstracts the session manager for easier testing.
type gallerySessionIssuer interface {
	Issue(studentID, classID string) (string, domain.GallerySession, error)
}

// GalleryServiceDeps wires the dependencies required by the gallery service.
type GalleryServiceDeps struct {
	Students        repositories.StudentRepository
	Photos          repositories.PhotoRepository
	Products        repositories.ProductRepository
	ShippingMethods repositories.ShippingMethodRepository
	Sessions        gallerySessionIssuer
	Clock           func() time.Time
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type galleryService struct {
	students        repositories.StudentRepository
	photos          repositories.PhotoRepository
	products        repositories.ProductRepository
	shippingMethods repositories.ShippingMethodRepository
	sessions        gallerySessionIssuer
	now             func() time.Time
	logger          func(ctx context.Context, event string, fields map[string]any)
}

// NewGalleryService constructs a GalleryService validating required dependencies.
func NewGalleryService(deps GalleryServiceDeps) (GalleryService, error) {
	if deps.Students == nil {
		return nil, errors.New("gallery service: student repository is required")
	}
	if deps.Photos == nil {
		return nil, errors.New("gallery service: photo repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("gallery service: product repository is required")
	}
	if deps.ShippingMethods == nil {
		return nil, errors.New("gallery service: shipping method repository is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("gallery service: session issuer is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &galleryService{
		students:        deps.Students,
		photos:          deps.Photos,
		products:        deps.Products,
		shippingMethods: deps.ShippingMethods,
		sessions:        deps.Sessions,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Login exchanges an access code for a gallery session token. Codes do not
// expire; only the session minted here does.
func (s *galleryService) Login(ctx context.Context, accessCode string) (GalleryAccess, error) {
	if s == nil || s.students == nil || s.sessions == nil {
		return GalleryAccess{}, ErrGalleryUnavailable
	}

	code := strings.ToUpper(strings.TrimSpace(accessCode))
	if code == "" {
		return GalleryAccess{}, ErrGalleryInvalidInput
	}

	student, err := s.students.FindByAccessCode(ctx, code)
	if err != nil {
		if isRepositoryNotFound(err) {
			return GalleryAccess{}, ErrGalleryAccessCodeInvalid
		}
		return GalleryAccess{}, s.translateRepositoryError(err)
	}

	token, session, err := s.sessions.Issue(student.ID, student.ClassID)
	if err != nil {
		return GalleryAccess{}, err
	}

	s.logger(ctx, "gallery.login", map[string]any{
		"studentId": student.ID,
		"classId":   student.ClassID,
	})

	return GalleryAccess{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Student:   student,
	}, nil
}

// Gallery loads the student's photos together with the purchasable catalog.
func (s *galleryService) Gallery(ctx context.Context, session domain.GallerySession) (Gallery, error) {
	if s == nil || s.students == nil || s.photos == nil {
		return Gallery{}, ErrGalleryUnavailable
	}

	studentID := strings.TrimSpace(session.StudentID)
	if studentID == "" {
		return Gallery{}, ErrGalleryInvalidInput
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return Gallery{}, s.translateRepositoryError(err)
	}

	photos, err := s.photos.ListByStudent(ctx, studentID)
	if err != nil {
		return Gallery{}, s.translateRepositoryError(err)
	}

	products, err := s.products.List(ctx, true)
	if err != nil {
		return Gallery{}, s.translateRepositoryError(err)
	}

	methods, err := s.shippingMethods.List(ctx)
	if err != nil {
		return Gallery{}, s.translateRepositoryError(err)
	}

	return Gallery{
		Student:         student,
		Photos:          photos,
		Products:        products,
		ShippingMethods: methods,
	}, nil
}

func (s *galleryService) translateRepositoryError(err error) error {
	if isRepositoryUnavailable(err) {
		return ErrGalleryUnavailable
	}
	return err
}

var _ GalleryService = (*galleryService)(nil)
