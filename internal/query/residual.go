package query

import "strings"

// MatchResidual evaluates filters the engine left unresolved against one
// record. lookup returns the record's value for a field as a string and
// false when the record has no such field; a filter on a missing field
// never matches.
func MatchResidual(filters []Filter, lookup func(name string) (string, bool)) bool {
	for _, f := range filters {
		v, ok := lookup(f.Name)
		if !ok || !matchValue(f, v) {
			return false
		}
	}
	return true
}

func matchValue(f Filter, v string) bool {
	want := f.Value
	if !f.CaseSensitive {
		v = strings.ToLower(v)
		want = strings.ToLower(want)
	}
	switch f.Comparator {
	case Equals:
		return v == want
	case NotEquals:
		return v != want
	case Contains:
		return strings.Contains(v, want)
	case StartsWith:
		return strings.HasPrefix(v, want)
	case EndsWith:
		return strings.HasSuffix(v, want)
	default:
		return false
	}
}

// FilterResidual keeps the items matching every filter.
func FilterResidual[T any](items []T, filters []Filter, lookup func(item T, name string) (string, bool)) []T {
	if len(filters) == 0 {
		return items
	}
	out := items[:0:0]
	for _, it := range items {
		if MatchResidual(filters, func(name string) (string, bool) { return lookup(it, name) }) {
			out = append(out, it)
		}
	}
	return out
}

// Truncated runs fetch with the hints limit raised by one so it can tell
// whether more rows exist than were asked for. The result is trimmed to the
// limit and hints.Limit.Truncated records whether anything was dropped.
// Without a limit fetch runs unchanged.
func Truncated[T any](hints *Hints, fetch func(*Hints) ([]T, error)) ([]T, error) {
	if hints == nil || hints.Limit == nil {
		return fetch(hints)
	}
	limit := hints.Limit.Limit
	hints.Limit.Limit = limit + 1
	items, err := fetch(hints)
	hints.Limit.Limit = limit
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		hints.Limit.Truncated = true
		return items[:limit], nil
	}
	hints.Limit.Truncated = false
	return items, nil
}
