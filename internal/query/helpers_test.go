package query

import (
	"context"
	"database/sql"
)

// recorder is a Handle that records every narrowing call instead of
// building SQL. All handles derived from one recorder share its log.
type recorder struct {
	log *callLog
}

type callLog struct {
	wheres  []Predicate
	order   []SortKey
	limit   *int
	offset  int
	counted int
}

func newRecorder() *recorder { return &recorder{log: &callLog{}} }

func (r *recorder) Where(p Predicate) Handle {
	r.log.wheres = append(r.log.wheres, p)
	return r
}

func (r *recorder) OrderBy(keys ...SortKey) Handle {
	r.log.order = append([]SortKey(nil), keys...)
	return r
}

func (r *recorder) Limit(n int) Handle {
	r.log.limit = &n
	return r
}

func (r *recorder) Offset(n int) Handle {
	r.log.offset = n
	return r
}

func (r *recorder) Rows(context.Context) (*sql.Rows, error) { return nil, nil }

func (r *recorder) Count(context.Context) (int64, error) {
	r.log.counted++
	return 42, nil
}

// rendered returns the SQLite rendering of every recorded predicate.
func (r *recorder) rendered() []string {
	out := make([]string, len(r.log.wheres))
	for i, p := range r.log.wheres {
		out[i], _ = Render(DialectSQLite, p)
	}
	return out
}

// renderedArgs returns the bind arguments of every recorded predicate.
func (r *recorder) renderedArgs() [][]any {
	out := make([][]any, len(r.log.wheres))
	for i, p := range r.log.wheres {
		_, out[i] = Render(DialectSQLite, p)
	}
	return out
}

var widgetSchema = NewSchema("widgets",
	Integer("id"),
	String("name", 10),
	String("description", 0),
	Boolean("enabled"),
	Integer("size"),
	Decimal("price"),
	DateTime("created_at"),
)
