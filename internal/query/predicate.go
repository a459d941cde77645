package query

import "strings"

// Predicate is a boolean clause over an entity's columns. Only the
// constructors in this package produce predicates.
type Predicate interface {
	render(w *sqlWriter)
}

type comparison struct {
	column string
	op     string
	value  any
}

func (c comparison) render(w *sqlWriter) {
	w.ident(c.column)
	w.raw(" " + c.op + " ")
	w.arg(c.value)
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) Predicate { return comparison{column, "=", value} }

// Ne matches rows whose column differs from value.
func Ne(column string, value any) Predicate { return comparison{column, "!=", value} }

// Gt matches rows whose column is greater than value.
func Gt(column string, value any) Predicate { return comparison{column, ">", value} }

// Lt matches rows whose column is less than value.
func Lt(column string, value any) Predicate { return comparison{column, "<", value} }

type junction struct {
	op    string
	parts []Predicate
}

func (j junction) render(w *sqlWriter) {
	if len(j.parts) == 0 {
		if j.op == "OR" {
			w.raw("1 = 0")
		} else {
			w.raw("1 = 1")
		}
		return
	}
	if len(j.parts) == 1 {
		j.parts[0].render(w)
		return
	}
	w.raw("(")
	for i, p := range j.parts {
		if i > 0 {
			w.raw(" " + j.op + " ")
		}
		p.render(w)
	}
	w.raw(")")
}

// And conjoins predicates. An empty And always matches.
func And(parts ...Predicate) Predicate { return junction{"AND", parts} }

// Or disjoins predicates. An empty Or never matches.
func Or(parts ...Predicate) Predicate { return junction{"OR", parts} }

type nullCheck struct {
	column string
	not    bool
}

func (n nullCheck) render(w *sqlWriter) {
	w.ident(n.column)
	if n.not {
		w.raw(" IS NOT NULL")
		return
	}
	w.raw(" IS NULL")
}

// IsNull matches rows where column is NULL.
func IsNull(column string) Predicate { return nullCheck{column: column} }

// NotNull matches rows where column is not NULL.
func NotNull(column string) Predicate { return nullCheck{column: column, not: true} }

// Never matches no row.
func Never() Predicate { return junction{op: "OR"} }

type inList struct {
	column string
	values []any
}

func (in inList) render(w *sqlWriter) {
	if len(in.values) == 0 {
		w.raw("1 = 0")
		return
	}
	w.ident(in.column)
	w.raw(" IN (")
	for i, v := range in.values {
		if i > 0 {
			w.raw(", ")
		}
		w.arg(v)
	}
	w.raw(")")
}

// In matches rows whose column equals any of values.
func In(column string, values ...any) Predicate { return inList{column, values} }

type matchKind int

const (
	matchLike matchKind = iota
	matchILike
	matchRegexp
)

type match struct {
	column  string
	pattern string
	kind    matchKind
	op      string
}

func (m match) render(w *sqlWriter) {
	switch m.kind {
	case matchILike:
		if w.dialect.hasILike() {
			w.ident(m.column)
			w.raw(" ILIKE ")
			w.arg(m.pattern)
		} else {
			w.raw("LOWER(")
			w.ident(m.column)
			w.raw(") LIKE LOWER(")
			w.arg(m.pattern)
			w.raw(")")
		}
		w.raw(" ESCAPE '!'")
	case matchRegexp:
		w.ident(m.column)
		w.raw(" " + m.op + " ")
		w.arg(m.pattern)
	default:
		w.ident(m.column)
		w.raw(" LIKE ")
		w.arg(m.pattern)
		w.raw(" ESCAPE '!'")
	}
}

// Like matches column against a LIKE pattern. Use EscapeLike on literal parts.
func Like(column, pattern string) Predicate { return match{column: column, pattern: pattern, kind: matchLike} }

// ILike is the case-insensitive form of Like.
func ILike(column, pattern string) Predicate {
	return match{column: column, pattern: pattern, kind: matchILike}
}

// Regexp matches column against pattern using the dialect's operator, e.g.
// Dialect.InexactOperator().
func Regexp(column, op, pattern string) Predicate {
	return match{column: column, pattern: pattern, kind: matchRegexp, op: op}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// EscapeLike escapes LIKE wildcards in s so it matches literally with ESCAPE '!'.
func EscapeLike(s string) string { return likeEscaper.Replace(s) }

// Render returns the SQL text and bind arguments for p in dialect d.
func Render(d Dialect, p Predicate) (string, []any) {
	w := &sqlWriter{dialect: d}
	p.render(w)
	return w.String(), w.args
}

type sqlWriter struct {
	dialect Dialect
	b       strings.Builder
	args    []any
}

func (w *sqlWriter) raw(s string) { w.b.WriteString(s) }

func (w *sqlWriter) ident(name string) { w.b.WriteString(w.dialect.QuoteIdent(name)) }

func (w *sqlWriter) arg(v any) {
	w.args = append(w.args, v)
	w.b.WriteString(w.dialect.Placeholder(len(w.args)))
}

func (w *sqlWriter) String() string { return w.b.String() }
