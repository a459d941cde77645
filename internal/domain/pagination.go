package domain

import (
	"encoding/base64"
	"encoding/json"
)

// DefaultPageLimit is the default page size used by the CLI when none is specified.
const DefaultPageLimit = 100

// MaxPageLimit is the maximum allowed page size.
const MaxPageLimit = 1000

// ClampLimit returns the effective page size, clamped to [1, MaxPageLimit].
func ClampLimit(n int) int {
	if n <= 0 {
		return DefaultPageLimit
	}
	if n > MaxPageLimit {
		return MaxPageLimit
	}
	return n
}

// EncodeMarkerToken creates an opaque continuation token from the sort-key
// values of the last row on a page. A nil value records a NULL. Returns
// empty string for no values.
func EncodeMarkerToken(values map[string]*string) string {
	if len(values) == 0 {
		return ""
	}
	// map[string]*string always marshals.
	data, _ := json.Marshal(values)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeMarkerToken decodes a token produced by EncodeMarkerToken.
func DecodeMarkerToken(token string) (map[string]*string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrValidation("invalid marker token")
	}
	var values map[string]*string
	if err := json.Unmarshal(decoded, &values); err != nil || len(values) == 0 {
		return nil, ErrValidation("invalid marker token")
	}
	return values, nil
}
