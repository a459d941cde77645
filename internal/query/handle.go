package query

import (
	"context"
	"database/sql"
	"fmt"
)

// Direction is a sort direction token.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey orders results by one column. With Nullable set NULL sorts after
// every value, so last ascending and first descending on every dialect.
type SortKey struct {
	Column    string
	Direction Direction
	Nullable  bool
}

// Handle is a progressively narrowable view over an entity's rows. Every
// narrowing method returns a new Handle and leaves the receiver unchanged.
type Handle interface {
	Where(p Predicate) Handle
	OrderBy(keys ...SortKey) Handle
	Limit(n int) Handle
	Offset(n int) Handle

	// Rows runs the query and returns the matching rows.
	Rows(ctx context.Context) (*sql.Rows, error)
	// Count returns the number of rows matching the predicates, ignoring
	// ordering, limit and offset.
	Count(ctx context.Context) (int64, error)
}

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Query is the SQL implementation of Handle.
type Query struct {
	db      Querier
	dialect Dialect
	table   string
	columns []string
	where   []Predicate
	order   []SortKey
	limit   int
	offset  int
}

var _ Handle = (*Query)(nil)

// NewQuery returns a Handle over every row of the schema's table, selecting
// all declared columns.
func NewQuery(db Querier, dialect Dialect, schema *Schema) *Query {
	return &Query{
		db:      db,
		dialect: dialect,
		table:   schema.Table,
		columns: schema.ColumnNames(),
		limit:   -1,
	}
}

func (q *Query) clone() *Query {
	c := *q
	c.where = append([]Predicate(nil), q.where...)
	c.order = append([]SortKey(nil), q.order...)
	return &c
}

// Where adds p to the conjunction of predicates.
func (q *Query) Where(p Predicate) Handle {
	c := q.clone()
	c.where = append(c.where, p)
	return c
}

// OrderBy replaces the ordering.
func (q *Query) OrderBy(keys ...SortKey) Handle {
	c := q.clone()
	c.order = append([]SortKey(nil), keys...)
	return c
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) Handle {
	c := q.clone()
	c.limit = n
	return c
}

// Offset skips the first n rows.
func (q *Query) Offset(n int) Handle {
	c := q.clone()
	c.offset = n
	return c
}

// Dialect returns the dialect the query renders for.
func (q *Query) Dialect() Dialect { return q.dialect }

func (q *Query) renderWhere(w *sqlWriter) {
	if len(q.where) == 0 {
		return
	}
	w.raw(" WHERE ")
	for i, p := range q.where {
		if i > 0 {
			w.raw(" AND ")
		}
		p.render(w)
	}
}

// SQL renders the SELECT statement and its arguments.
func (q *Query) SQL() (string, []any) {
	w := &sqlWriter{dialect: q.dialect}
	w.raw("SELECT ")
	for i, c := range q.columns {
		if i > 0 {
			w.raw(", ")
		}
		w.ident(c)
	}
	w.raw(" FROM ")
	w.ident(q.table)
	q.renderWhere(w)
	if len(q.order) > 0 {
		w.raw(" ORDER BY ")
		for i, k := range q.order {
			if i > 0 {
				w.raw(", ")
			}
			dir := " ASC"
			if k.Direction == Desc {
				dir = " DESC"
			}
			if k.Nullable {
				w.raw("(")
				w.ident(k.Column)
				w.raw(" IS NULL)" + dir + ", ")
			}
			w.ident(k.Column)
			w.raw(dir)
		}
	}
	w.raw(q.dialect.limitClause(q.limit, q.offset))
	return w.String(), w.args
}

// CountSQL renders the COUNT statement and its arguments.
func (q *Query) CountSQL() (string, []any) {
	w := &sqlWriter{dialect: q.dialect}
	w.raw("SELECT COUNT(*) FROM ")
	w.ident(q.table)
	q.renderWhere(w)
	return w.String(), w.args
}

// Rows runs the SELECT statement.
func (q *Query) Rows(ctx context.Context) (*sql.Rows, error) {
	stmt, args := q.SQL()
	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.table, err)
	}
	return rows, nil
}

// Count runs the COUNT statement.
func (q *Query) Count(ctx context.Context) (int64, error) {
	stmt, args := q.CountSQL()
	var n int64
	if err := q.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.table, err)
	}
	return n, nil
}

// Collect runs h and scans every row with scan.
func Collect[T any](ctx context.Context, h Handle, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := h.Rows(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
