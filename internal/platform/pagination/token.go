package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// EncodeToken wraps a storage cursor in an opaque URL-safe page token. Clients
// must treat the token as a black box; its contents may change between releases.
func EncodeToken(cursor string) string {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(cursor))
}

// DecodeToken unwraps a page token produced by EncodeToken.
func DecodeToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: malformed cursor", ErrInvalidPageToken)
	}
	return string(decoded), nil
}
