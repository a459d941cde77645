package query

import (
	"reflect"
	"sort"
)

// ExactFilter applies exact-match filtering from a value map. Only the
// legalKeys present in values are used and each one is deleted from values
// once applied, so the caller can tell what is left. Slice values become an
// IN test; anything else is compared with =.
func ExactFilter(schema *Schema, h Handle, values map[string]any, legalKeys []string) Handle {
	for _, key := range legalKeys {
		v, ok := values[key]
		if !ok || !schema.Has(key) {
			continue
		}
		delete(values, key)

		if list, ok := asList(v); ok {
			h = h.Where(In(key, list...))
			continue
		}
		h = h.Where(Eq(key, v))
	}
	return h
}

func asList(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	// []byte is a scalar blob value, not a list.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// RegexFilter applies a pattern filter per entry of patterns using the
// dialect's inexact operator. Dialects without a regex operator fall back
// to a substring LIKE. Names that are not columns of the schema are skipped.
func RegexFilter(schema *Schema, h Handle, d Dialect, patterns map[string]string) Handle {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	op := d.InexactOperator()
	for _, name := range names {
		if !schema.Has(name) {
			continue
		}
		if op == "LIKE" {
			h = h.Where(Like(name, "%"+EscapeLike(patterns[name])+"%"))
			continue
		}
		h = h.Where(Regexp(name, op, patterns[name]))
	}
	return h
}
