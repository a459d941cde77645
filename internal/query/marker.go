package query

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"account-query/internal/domain"
)

// EncodeMarker builds a continuation token from the sort-key values of the
// last row of a page. Values are formatted according to their column type
// so the paginator can decode them back into bindable Go values. A nil value
// of a nullable column is recorded as NULL.
func EncodeMarker(schema *Schema, values map[string]any) (string, error) {
	formatted := make(map[string]*string, len(values))
	for name, v := range values {
		col, ok := schema.Column(name)
		if !ok {
			return "", &domain.UnknownFieldError{Entity: schema.Table, Field: name}
		}
		s, err := formatMarkerValue(col, v)
		if err != nil {
			return "", err
		}
		formatted[name] = s
	}
	return domain.EncodeMarkerToken(formatted), nil
}

func formatMarkerValue(col Column, v any) (*string, error) {
	var s string
	switch val := v.(type) {
	case nil:
		return nullMarker(col)
	case time.Time:
		s = val.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return nullMarker(col)
		}
		s = val.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		s = val.String()
	case int64:
		s = strconv.FormatInt(val, 10)
	case *int64:
		if val == nil {
			return nullMarker(col)
		}
		s = strconv.FormatInt(*val, 10)
	case int:
		s = strconv.Itoa(val)
	case bool:
		s = strconv.FormatBool(val)
	case string:
		s = val
	default:
		s = fmt.Sprint(val)
	}
	return &s, nil
}

func nullMarker(col Column) (*string, error) {
	if !col.Nullable {
		return nil, fmt.Errorf("marker value for %s is nil but the column is not nullable", col.Name)
	}
	return nil, nil
}

// decodeMarker returns the typed marker value of every key, in key order.
// A recorded NULL decodes to nil.
func decodeMarker(schema *Schema, token string, keys []string) ([]any, error) {
	raw, err := domain.DecodeMarkerToken(token)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(keys))
	for i, k := range keys {
		s, ok := raw[k]
		if !ok {
			return nil, domain.ErrValidation("marker has no value for sort key %q", k)
		}
		col, _ := schema.Column(k)
		if s == nil {
			if !col.Nullable {
				return nil, domain.ErrValidation("marker value for %q cannot be null", k)
			}
			continue
		}
		v, err := parseMarkerValue(col, *s)
		if err != nil {
			return nil, domain.ErrValidation("marker value for %q is invalid: %v", k, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseMarkerValue(col Column, s string) (any, error) {
	switch col.Type {
	case TypeInteger:
		return strconv.ParseInt(s, 10, 64)
	case TypeBoolean:
		return strconv.ParseBool(s)
	case TypeDecimal:
		return decimal.NewFromString(s)
	case TypeDateTime:
		return time.Parse(time.RFC3339Nano, s)
	default:
		return s, nil
	}
}

// keysetPredicate matches rows strictly after the marker position in the
// given ordering:
//
//	(k0 > m0) OR (k0 = m0 AND k1 > m1) OR ...
//
// with < in place of > for descending keys. NULL sorts after every value of
// a nullable key, so a NULL marker value is matched with IS NULL and rows
// after it are the non-NULL ones when descending and none when ascending.
func keysetPredicate(keys []SortKey, marker []any) Predicate {
	branches := make([]Predicate, 0, len(keys))
	for i, k := range keys {
		after := afterPredicate(k, marker[i])
		if after == nil {
			continue
		}
		parts := make([]Predicate, 0, i+1)
		for j := 0; j < i; j++ {
			parts = append(parts, equalPredicate(keys[j], marker[j]))
		}
		branches = append(branches, And(append(parts, after)...))
	}
	return Or(branches...)
}

func equalPredicate(k SortKey, m any) Predicate {
	if m == nil {
		return IsNull(k.Column)
	}
	return Eq(k.Column, m)
}

// afterPredicate returns nil when no value of k sorts after m.
func afterPredicate(k SortKey, m any) Predicate {
	switch {
	case m == nil && k.Direction == Desc:
		return NotNull(k.Column)
	case m == nil:
		return nil
	case k.Direction == Desc:
		return Lt(k.Column, m)
	case k.Nullable:
		return Or(Gt(k.Column, m), IsNull(k.Column))
	default:
		return Gt(k.Column, m)
	}
}
