package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fotoescola/api/internal/platform/auth"
	"github.com/fotoescola/api/internal/platform/httpx"
	"github.com/fotoescola/api/internal/services"
)

const (
	maxGalleryLoginBody = 4 * 1024

	defaultLoginLimit  = 10
	defaultLoginWindow = time.Minute
)

// GalleryHandlers serves the guardian-facing gallery surface: exchanging an
// access code for a session token and rendering the gallery contents.
type GalleryHandlers struct {
	sessions *auth.SessionManager
	gallery  services.GalleryService
	limiter  rateLimiter
}

// GalleryHandlersConfig bundles construction parameters for GalleryHandlers.
type GalleryHandlersConfig struct {
	Sessions *auth.SessionManager
	Gallery  services.GalleryService

	// LoginLimit and LoginWindow throttle access-code attempts per client
	// address. Zero values fall back to the package defaults.
	LoginLimit  int
	LoginWindow time.Duration
	Clock       func() time.Time
}

// NewGalleryHandlers constructs gallery handlers with login throttling.
func NewGalleryHandlers(cfg GalleryHandlersConfig) *GalleryHandlers {
	limit := cfg.LoginLimit
	if limit <= 0 {
		limit = defaultLoginLimit
	}
	window := cfg.LoginWindow
	if window <= 0 {
		window = defaultLoginWindow
	}

	return &GalleryHandlers{
		sessions: cfg.Sessions,
		gallery:  cfg.Gallery,
		limiter:  newSimpleRateLimiter(limit, window, cfg.Clock),
	}
}

// Routes registers gallery endpoints under the provided router.
func (h *GalleryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)

	group := r
	if h.sessions != nil {
		group = group.With(h.sessions.RequireGallerySession())
	}
	group.Get("/", h.view)
}

type galleryLoginRequest struct {
	AccessCode string `json:"accessCode"`
}

type galleryLoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt string         `json:"expiresAt"`
	Student   studentPayload `json:"student"`
}

func (h *GalleryHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.gallery == nil {
		httpx.WriteError(ctx, w, httpx.NewError("gallery_unavailable", "gallery service unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(clientAddress(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("too_many_attempts", "too many login attempts; retry later", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxGalleryLoginBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req galleryLoginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.AccessCode) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "accessCode is required", http.StatusBadRequest))
		return
	}

	access, err := h.gallery.Login(ctx, req.AccessCode)
	if err != nil {
		h.writeGalleryError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, galleryLoginResponse{
		Token:     access.Token,
		ExpiresAt: timestampString(access.ExpiresAt),
		Student:   studentToPayload(access.Student),
	})
}

type galleryViewResponse struct {
	Student         studentPayload          `json:"student"`
	Photos          []photoPayload          `json:"photos"`
	Products        []productPayload        `json:"products"`
	ShippingMethods []shippingMethodPayload `json:"shippingMethods"`
}

func (h *GalleryHandlers) view(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.gallery == nil {
		httpx.WriteError(ctx, w, httpx.NewError("gallery_unavailable", "gallery service unavailable", http.StatusServiceUnavailable))
		return
	}

	session, ok := auth.GallerySessionFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "gallery session required", http.StatusUnauthorized))
		return
	}

	gallery, err := h.gallery.Gallery(ctx, session)
	if err != nil {
		h.writeGalleryError(ctx, w, err)
		return
	}

	resp := galleryViewResponse{
		Student:         studentToPayload(gallery.Student),
		Photos:          make([]photoPayload, 0, len(gallery.Photos)),
		Products:        make([]productPayload, 0, len(gallery.Products)),
		ShippingMethods: make([]shippingMethodPayload, 0, len(gallery.ShippingMethods)),
	}
	for _, photo := range gallery.Photos {
		resp.Photos = append(resp.Photos, photoToPayload(photo))
	}
	for _, product := range gallery.Products {
		resp.Products = append(resp.Products, productToPayload(product))
	}
	for _, method := range gallery.ShippingMethods {
		resp.ShippingMethods = append(resp.ShippingMethods, shippingMethodToPayload(method))
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *GalleryHandlers) writeGalleryError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrGalleryAccessCodeInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_access_code", "access code not recognised", http.StatusUnauthorized))
	case errors.Is(err, services.ErrGalleryInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrGalleryUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("gallery_unavailable", "gallery service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("gallery_error", "failed to process gallery request", http.StatusInternalServerError))
	}
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
