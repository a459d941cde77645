package query

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Outcome is the result of running hints against a handle.
type Outcome struct {
	// Handle is the narrowed handle. It is nil when CannotMatch is true.
	Handle Handle
	// Unresolved holds the filters the engine did not apply, in their
	// original order. The caller must apply them itself.
	Unresolved []Filter
	// CannotMatch reports that no stored row can satisfy the filters; the
	// result set is definitively empty and the store was not queried.
	CannotMatch bool
	// Offset is the number of rows the caller must skip after applying
	// Unresolved. It is only set by Paginate, and only when filters remain.
	Offset int
}

// errWontMatch aborts a filter pass once a value provably matches nothing.
var errWontMatch = errors.New("filter cannot match")

// ApplyFilters translates the hints filters it understands into predicates
// on h and removes them from hints.Filters. Filters on fields outside the
// schema, and comparators the engine cannot express, are left in place and
// reported in Outcome.Unresolved.
//
// If a filter value cannot match any stored value, hints.CannotMatch is set
// and no predicate at all is applied.
func ApplyFilters(schema *Schema, h Handle, hints *Hints) Outcome {
	if hints == nil {
		return Outcome{Handle: h}
	}
	if hints.CannotMatch {
		return Outcome{CannotMatch: true}
	}

	var (
		staged    []Predicate
		remaining []Filter
	)
	for _, f := range hints.Filters {
		col, ok := schema.Column(f.Name)
		if !ok {
			remaining = append(remaining, f)
			continue
		}

		var (
			p   Predicate
			err error
		)
		if f.Comparator == Equals {
			p, err = exactPredicate(col, f)
		} else {
			p, err = inexactPredicate(col, f)
		}
		if errors.Is(err, errWontMatch) {
			hints.CannotMatch = true
			return Outcome{CannotMatch: true}
		}
		if p == nil {
			remaining = append(remaining, f)
			continue
		}
		staged = append(staged, p)
	}

	for _, p := range staged {
		h = h.Where(p)
	}
	hints.Filters = remaining
	return Outcome{Handle: h, Unresolved: append([]Filter(nil), remaining...)}
}

func exactPredicate(col Column, f Filter) (Predicate, error) {
	switch col.Type {
	case TypeBoolean:
		return Eq(col.Name, ParseBool(f.Value)), nil
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(f.Value), 10, 64)
		if err != nil {
			return nil, errWontMatch
		}
		return Eq(col.Name, n), nil
	case TypeDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(f.Value))
		if err != nil {
			return nil, errWontMatch
		}
		return Eq(col.Name, d), nil
	}
	if err := checkLength(col, f.Value); err != nil {
		return nil, err
	}
	return Eq(col.Name, f.Value), nil
}

// inexactPredicate returns a nil predicate for filters left to the caller.
func inexactPredicate(col Column, f Filter) (Predicate, error) {
	if f.CaseSensitive {
		if f.Comparator == NotEquals {
			return Ne(col.Name, f.Value), nil
		}
		return nil, nil
	}
	if col.Type != TypeString {
		return nil, nil
	}

	var pattern string
	switch f.Comparator {
	case Contains:
		pattern = "%" + EscapeLike(f.Value) + "%"
	case StartsWith:
		pattern = EscapeLike(f.Value) + "%"
	case EndsWith:
		pattern = "%" + EscapeLike(f.Value)
	default:
		return nil, nil
	}
	if err := checkLength(col, f.Value); err != nil {
		return nil, err
	}
	return ILike(col.Name, pattern), nil
}

// checkLength fails when value is longer than the column can store, in
// which case no stored value can equal, contain, start or end with it.
func checkLength(col Column, value string) error {
	if col.Type == TypeBoolean || col.MaxLength <= 0 {
		return nil
	}
	if utf8.RuneCountInString(value) > col.MaxLength {
		return errWontMatch
	}
	return nil
}
