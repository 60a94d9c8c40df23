package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fotoescola/api/internal/domain"
)

const sessionIssuer = "fotoescola-gallery"

var (
	// ErrSessionInvalid signals a malformed, forged, or wrongly scoped session token.
	ErrSessionInvalid = errors.New("auth: gallery session invalid")
	// ErrSessionExpired signals a session token past its expiry.
	ErrSessionExpired = errors.New("auth: gallery session expired")
)

// SessionManager mints and verifies gallery session tokens. A token is the
// explicit session object handed to the client after access-code
// authentication; the access code itself never expires, the token does.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SessionOption customises SessionManager behaviour.
type SessionOption func(*SessionManager)

// WithSessionClock injects a custom clock, useful for tests.
func WithSessionClock(clock func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewSessionManager constructs a SessionManager with an HMAC signing secret.
func NewSessionManager(secret string, ttl time.Duration, opts ...SessionOption) (*SessionManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}

	manager := &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}
	return manager, nil
}

type sessionClaims struct {
	ClassID string `json:"cls,omitempty"`
	jwt.RegisteredClaims
}

// Issue mints a signed session token scoped to one student.
func (m *SessionManager) Issue(studentID, classID string) (string, domain.GallerySession, error) {
	if m == nil {
		return "", domain.GallerySession{}, ErrSessionInvalid
	}
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return "", domain.GallerySession{}, errors.New("auth: student id is required")
	}

	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.ttl)

	claims := sessionClaims{
		ClassID: classID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", domain.GallerySession{}, fmt.Errorf("auth: sign session token: %w", err)
	}

	return signed, domain.GallerySession{
		StudentID: studentID,
		ClassID:   classID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify validates a session token and returns the session it encodes.
func (m *SessionManager) Verify(tokenStr string) (domain.GallerySession, error) {
	if m == nil {
		return domain.GallerySession{}, ErrSessionInvalid
	}
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return domain.GallerySession{}, ErrSessionInvalid
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(m.now),
	)

	claims := &sessionClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.GallerySession{}, ErrSessionExpired
		}
		return domain.GallerySession{}, ErrSessionInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return domain.GallerySession{}, ErrSessionInvalid
	}

	session := domain.GallerySession{
		StudentID: claims.Subject,
		ClassID:   claims.ClassID,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

type sessionContextKey string

const gallerySessionContextKey sessionContextKey = "github.com/fotoescola/api/internal/platform/auth/gallery-session"

// WithGallerySession stores the session within the context for downstream handlers.
func WithGallerySession(ctx context.Context, session domain.GallerySession) context.Context {
	return context.WithValue(ctx, gallerySessionContextKey, session)
}

// GallerySessionFromContext retrieves the session previously stored in context.
func GallerySessionFromContext(ctx context.Context) (domain.GallerySession, bool) {
	session, ok := ctx.Value(gallerySessionContextKey).(domain.GallerySession)
	if !ok || session.StudentID == "" {
		return domain.GallerySession{}, false
	}
	return session, true
}

// RequireGallerySession verifies the bearer session token and stores the
// decoded session on the request context.
func (m *SessionManager) RequireGallerySession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}

			session, err := m.Verify(tokenStr)
			if err != nil {
				if errors.Is(err, ErrSessionExpired) {
					respondAuthError(w, http.StatusUnauthorized, "session_expired", "gallery session expired")
					return
				}
				respondAuthError(w, http.StatusUnauthorized, "invalid_session", "gallery session invalid")
				return
			}

			ctx := WithGallerySession(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
