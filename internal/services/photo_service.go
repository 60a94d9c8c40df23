package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	domain "github.com/fotoescola/api/internal/domain"
	"github.com/fotoescola/api/internal/repositories"
)

const photoResolveConcurrency = 8

var (
	// ErrPhotoURLInvalid indicates a cart entry URL does not address a gallery photo.
	ErrPhotoURLInvalid = errors.New("photos: invalid photo url")
	// ErrPhotoResolveInvalidInput indicates the caller supplied invalid input parameters.
	ErrPhotoResolveInvalidInput = errors.New("photos: invalid input")
	// ErrPhotoResolveUnavailable indicates photo resolution dependencies are unavailable.
	ErrPhotoResolveUnavailable = errors.New("photos: unavailable")
)

// photoURLPattern extracts the storage file name from a gallery photo URL.
// The file name doubles as the photo's document id.
var photoURLPattern = regexp.MustCompile(`photos/([A-Za-z0-9_-]+)\.(jpe?g|png|webp)(?:\?|$)`)

// PhotoResolverDeps wires the dependencies required by the photo resolver.
type PhotoResolverDeps struct {
	Photos   repositories.PhotoRepository
	Products repositories.ProductRepository
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type photoResolver struct {
	photos   repositories.PhotoRepository
	products repositories.ProductRepository
	now      func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewPhotoResolver constructs a PhotoResolver validating required dependencies.
func NewPhotoResolver(deps PhotoResolverDeps) (PhotoResolver, error) {
	if deps.Photos == nil {
		return nil, errors.New("photo resolver: photo repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("photo resolver: product repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &photoResolver{
		photos:   deps.Photos,
		products: deps.Products,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// ParsePhotoID extracts the photo id from a gallery photo URL.
func ParsePhotoID(photoURL string) (string, error) {
	match := photoURLPattern.FindStringSubmatch(strings.TrimSpace(photoURL))
	if match == nil {
		return "", ErrPhotoURLInvalid
	}
	return match[1], nil
}

// Resolve registers each cart entry's photo and loads its product. An entry
// whose URL cannot be parsed, whose photo cannot be stored or whose product
// cannot be loaded is dropped and counted; the remaining entries still
// resolve. Only context cancellation aborts the run. Entries resolve
// concurrently but keep their order.
func (r *photoResolver) Resolve(ctx context.Context, studentID string, items []CartItemInput) (ResolvedCart, error) {
	if r == nil || r.photos == nil || r.products == nil {
		return ResolvedCart{}, ErrPhotoResolveUnavailable
	}
	if len(items) == 0 {
		return ResolvedCart{}, ErrPhotoResolveInvalidInput
	}

	resolved := make([]*ResolvedCartItem, len(items))
	var (
		mu      sync.Mutex
		skipped int
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(photoResolveConcurrency)

	for idx, item := range items {
		group.Go(func() error {
			photoID, err := ParsePhotoID(item.PhotoURL)
			if err != nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				r.logger(groupCtx, "photos.resolve.skipped", map[string]any{
					"photoUrl": item.PhotoURL,
				})
				return nil
			}

			owner := strings.TrimSpace(item.StudentID)
			if owner == "" {
				owner = strings.TrimSpace(studentID)
			}

			photo, err := r.photos.CreateIfAbsent(groupCtx, domain.Photo{
				ID:        photoID,
				StudentID: owner,
				URL:       strings.TrimSpace(item.PhotoURL),
				CreatedAt: r.now(),
			})
			if err != nil {
				if cancelled := groupCtx.Err(); cancelled != nil {
					return cancelled
				}
				mu.Lock()
				skipped++
				mu.Unlock()
				r.logger(groupCtx, "photos.resolve.skipped", map[string]any{
					"photoId": photoID,
					"error":   err.Error(),
				})
				return nil
			}

			product, err := r.products.FindByID(groupCtx, strings.TrimSpace(item.ProductID))
			if err != nil {
				if cancelled := groupCtx.Err(); cancelled != nil {
					return cancelled
				}
				mu.Lock()
				skipped++
				mu.Unlock()
				r.logger(groupCtx, "photos.resolve.skipped", map[string]any{
					"photoId":   photoID,
					"productId": item.ProductID,
					"error":     err.Error(),
				})
				return nil
			}

			resolved[idx] = &ResolvedCartItem{
				Photo:    photo,
				Product:  product,
				Quantity: item.Quantity,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return ResolvedCart{}, err
	}

	out := ResolvedCart{Skipped: skipped}
	for _, item := range resolved {
		if item != nil {
			out.Items = append(out.Items, *item)
		}
	}
	return out, nil
}

var _ PhotoResolver = (*photoResolver)(nil)
