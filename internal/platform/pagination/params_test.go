package pagination

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{}, Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size %d, got %d", DefaultPageSize, params.PageSize)
	}
	if params.Cursor != "" {
		t.Fatalf("expected empty cursor, got %q", params.Cursor)
	}
}

func TestParseCapsPageSize(t *testing.T) {
	values := url.Values{"pageSize": {"5000"}}
	params, err := Parse(values, Options{MaxPageSize: 100})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.PageSize != 100 {
		t.Fatalf("expected capped page size 100, got %d", params.PageSize)
	}
}

func TestParseRejectsInvalidPageSize(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-5"} {
		values := url.Values{"pageSize": {raw}}
		if _, err := Parse(values, Options{}); !errors.Is(err, ErrInvalidPageSize) {
			t.Fatalf("pageSize %q: expected ErrInvalidPageSize, got %v", raw, err)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token := EncodeToken("order-123")
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if token == "order-123" {
		t.Fatal("token must not expose the raw cursor")
	}

	cursor, err := DecodeToken(token)
	if err != nil {
		t.Fatalf("DecodeToken returned error: %v", err)
	}
	if cursor != "order-123" {
		t.Fatalf("expected cursor order-123, got %q", cursor)
	}
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	if _, err := DecodeToken("not base64!!"); !errors.Is(err, ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestEncodeTokenEmptyCursor(t *testing.T) {
	if token := EncodeToken("  "); token != "" {
		t.Fatalf("expected empty token for blank cursor, got %q", token)
	}
}
