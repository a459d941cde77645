package query

import (
	"context"
	"strconv"
	"strings"

	"account-query/internal/domain"
)

// FilterLimit applies the hints filters and then, if every filter was
// resolved, the hints limit. With unresolved filters left the limit is the
// caller's job: limiting first could drop rows that survive its filtering.
func FilterLimit(schema *Schema, h Handle, hints *Hints) Outcome {
	if hints == nil {
		return Outcome{Handle: h}
	}
	out := ApplyFilters(schema, h, hints)
	if out.CannotMatch {
		return out
	}
	if len(hints.Filters) == 0 && hints.Limit != nil {
		out.Handle = out.Handle.Limit(hints.Limit.Limit)
	}
	return out
}

// Paginate applies filters, ordering, the marker, the limit and any offset
// pseudo-filter from hints.
//
// Sort keys are normalized with the schema's default keys. A marker
// restricts the rows to those strictly after it in that ordering. The limit
// and the offset are only applied when every filter was resolved; otherwise
// the offset is returned in Outcome.Offset for the caller to skip after its
// own filtering. On error hints are left unchanged.
func Paginate(schema *Schema, h Handle, hints *Hints) (Outcome, error) {
	if hints == nil {
		return Outcome{Handle: h}, nil
	}

	filters, offset, err := splitOffset(hints.Filters)
	if err != nil {
		return Outcome{}, err
	}

	keys, dirs, err := NormalizeSort(hints.SortKeys, hints.SortDirs, schema.SortDefaults(), Asc)
	if err != nil {
		return Outcome{}, err
	}
	order := make([]SortKey, len(keys))
	for i, k := range keys {
		col, ok := schema.Column(k)
		if !ok {
			return Outcome{}, &domain.InvalidSortKeyError{Entity: schema.Table, Key: k}
		}
		order[i] = SortKey{Column: k, Direction: dirs[i], Nullable: col.Nullable}
	}

	var marker []any
	if hints.Marker != "" {
		if marker, err = decodeMarker(schema, hints.Marker, keys); err != nil {
			return Outcome{}, err
		}
	}

	hints.Filters = filters
	out := ApplyFilters(schema, h, hints)
	if out.CannotMatch {
		return out, nil
	}

	h = out.Handle.OrderBy(order...)
	if marker != nil {
		h = h.Where(keysetPredicate(order, marker))
	}
	switch {
	case len(hints.Filters) > 0:
		out.Offset = offset
	default:
		if hints.Limit != nil {
			h = h.Limit(hints.Limit.Limit)
		}
		if offset > 0 {
			h = h.Offset(offset)
		}
	}
	out.Handle = h
	return out, nil
}

// FilterCount counts the rows matching the hints filters. Offset
// pseudo-filters are discarded. When the filters cannot match the store is
// not queried and the count is zero.
func FilterCount(ctx context.Context, schema *Schema, h Handle, hints *Hints) (int64, error) {
	if hints == nil {
		return h.Count(ctx)
	}
	if _, err := ExtractOffset(hints); err != nil {
		return 0, err
	}
	out := ApplyFilters(schema, h, hints)
	if out.CannotMatch {
		return 0, nil
	}
	return out.Handle.Count(ctx)
}

// ExtractOffset removes every offset pseudo-filter from hints and returns
// the last offset value. On error hints are left unchanged.
func ExtractOffset(hints *Hints) (int, error) {
	filters, offset, err := splitOffset(hints.Filters)
	if err != nil {
		return 0, err
	}
	hints.Filters = filters
	return offset, nil
}

func splitOffset(filters []Filter) ([]Filter, int, error) {
	var (
		offset int
		kept   = filters[:0:0]
	)
	for _, f := range filters {
		if f.Name != OffsetFilter {
			kept = append(kept, f)
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(f.Value))
		if err != nil || n < 0 {
			return nil, 0, domain.ErrValidation("offset must be a non-negative integer, got %q", f.Value)
		}
		offset = n
	}
	return kept, offset, nil
}
