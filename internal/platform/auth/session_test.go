package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionIssueAndVerify(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	manager, err := NewSessionManager("test-secret", time.Hour, WithSessionClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	token, session, err := manager.Issue("student-1", "class-9")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if session.StudentID != "student-1" || session.ClassID != "class-9" {
		t.Fatalf("unexpected session %+v", session)
	}
	if !session.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %s", session.ExpiresAt)
	}

	verified, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if verified.StudentID != "student-1" {
		t.Fatalf("unexpected student id %s", verified.StudentID)
	}
	if verified.ClassID != "class-9" {
		t.Fatalf("unexpected class id %s", verified.ClassID)
	}
}

func TestSessionVerifyExpired(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	clock := now
	manager, err := NewSessionManager("test-secret", time.Minute, WithSessionClock(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	token, _, err := manager.Issue("student-1", "")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	clock = now.Add(2 * time.Minute)
	if _, err := manager.Verify(token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionVerifyRejectsForgedToken(t *testing.T) {
	manager, err := NewSessionManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}
	other, err := NewSessionManager("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	token, _, err := other.Issue("student-1", "")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := manager.Verify(token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestRequireGallerySessionMiddleware(t *testing.T) {
	manager, err := NewSessionManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	token, _, err := manager.Issue("student-7", "class-2")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	var captured string
	handler := manager.RequireGallerySession()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GallerySessionFromContext(r.Context())
		if !ok {
			t.Fatal("expected session on context")
		}
		captured = session.StudentID
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/gallery/photos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if captured != "student-7" {
		t.Fatalf("unexpected student id %s", captured)
	}
}

func TestRequireGallerySessionMissingHeader(t *testing.T) {
	manager, err := NewSessionManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}

	handler := manager.RequireGallerySession()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/gallery/photos", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}
