package query

import (
	"sort"

	"account-query/internal/domain"
)

// Condition produces the clauses a constraint applies to one column.
type Condition interface {
	clauses(column string) []Predicate
}

// EqualAny matches rows whose field equals any of values. With no values
// the condition never matches.
func EqualAny(values ...any) Condition { return equalAny(values) }

// NotEqual matches rows whose field differs from every one of values.
func NotEqual(values ...any) Condition { return notEqual(values) }

type equalAny []any

// A single OR clause, even for one value.
func (e equalAny) clauses(column string) []Predicate {
	parts := make([]Predicate, len(e))
	for i, v := range e {
		parts[i] = Eq(column, v)
	}
	return []Predicate{Or(parts...)}
}

type notEqual []any

func (n notEqual) clauses(column string) []Predicate {
	out := make([]Predicate, len(n))
	for i, v := range n {
		out[i] = Ne(column, v)
	}
	return out
}

// Constraint maps field names to conditions. Build it once and apply it to
// any number of handles.
type Constraint struct {
	conditions map[string]Condition
}

// NewConstraint copies conditions into an immutable Constraint.
func NewConstraint(conditions map[string]Condition) Constraint {
	c := make(map[string]Condition, len(conditions))
	for k, v := range conditions {
		c[k] = v
	}
	return Constraint{conditions: c}
}

// Apply conjoins every condition onto h. Fields are visited in sorted order
// so the generated SQL is stable. An unknown field fails the whole
// application with *domain.UnknownFieldError and h is not narrowed.
func (c Constraint) Apply(schema *Schema, h Handle) (Handle, error) {
	fields := make([]string, 0, len(c.conditions))
	for f := range c.conditions {
		if !schema.Has(f) {
			return nil, &domain.UnknownFieldError{Entity: schema.Table, Field: f}
		}
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		for _, clause := range c.conditions[f].clauses(f) {
			h = h.Where(clause)
		}
	}
	return h, nil
}
