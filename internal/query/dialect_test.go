package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		conn string
		want Dialect
	}{
		{"postgresql://u:p@db:5432/acct", DialectPostgres},
		{"postgresql+psycopg2://u@db/acct", DialectPostgres},
		{"postgres://db/acct", DialectPostgres},
		{"mysql+pymysql://u:p@db/acct?charset=utf8", DialectMySQL},
		{"mysql://db/acct", DialectMySQL},
		{"sqlite:///account.sqlite", DialectSQLite},
		{"SQLite:////tmp/a.sqlite", DialectSQLite},
		{"duckdb:///acct.duckdb", DialectDuckDB},
		{"oracle://db/acct", DialectDefault},
		{"", DialectDefault},
	}
	for _, tc := range tests {
		t.Run(tc.conn, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDialect(tc.conn))
		})
	}
}

func TestDialect_InexactOperator(t *testing.T) {
	assert.Equal(t, "~", DialectPostgres.InexactOperator())
	assert.Equal(t, "REGEXP", DialectMySQL.InexactOperator())
	assert.Equal(t, "REGEXP", DialectSQLite.InexactOperator())
	assert.Equal(t, "LIKE", DialectDuckDB.InexactOperator())
	assert.Equal(t, "LIKE", DialectDefault.InexactOperator())
}

func TestDialect_DriverName(t *testing.T) {
	assert.Equal(t, "pgx", DialectPostgres.DriverName())
	assert.Equal(t, "mysql", DialectMySQL.DriverName())
	assert.Equal(t, "duckdb", DialectDuckDB.DriverName())
	assert.Equal(t, "sqlite3", DialectSQLite.DriverName())
}

func TestRender_Dialects(t *testing.T) {
	p := And(Eq("name", "bolt"), ILike("name", "%b%"))

	stmt, args := Render(DialectPostgres, p)
	assert.Equal(t, `("name" = $1 AND "name" ILIKE $2 ESCAPE '!')`, stmt)
	assert.Equal(t, []any{"bolt", "%b%"}, args)

	stmt, _ = Render(DialectMySQL, p)
	assert.Equal(t, "(`name` = ? AND LOWER(`name`) LIKE LOWER(?) ESCAPE '!')", stmt)

	stmt, _ = Render(DialectDuckDB, p)
	assert.Equal(t, `("name" = ? AND "name" ILIKE ? ESCAPE '!')`, stmt)
}

func TestRender_Predicates(t *testing.T) {
	tests := []struct {
		name string
		p    Predicate
		want string
	}{
		{"empty and", And(), "1 = 1"},
		{"empty or", Or(), "1 = 0"},
		{"never", Never(), "1 = 0"},
		{"empty in", In("id"), "1 = 0"},
		{"in", In("id", 1, 2, 3), `"id" IN (?, ?, ?)`},
		{"like", Like("name", "a%"), `"name" LIKE ? ESCAPE '!'`},
		{"regexp", Regexp("name", "REGEXP", "^a"), `"name" REGEXP ?`},
		{"single or", Or(Lt("id", 3)), `"id" < ?`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Render(DialectSQLite, tc.p)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!%", EscapeLike("100%"))
	assert.Equal(t, "a!_b", EscapeLike("a_b"))
	assert.Equal(t, "wow!!", EscapeLike("wow!"))
}

func TestQuery_QuotesIdentifiers(t *testing.T) {
	schema := NewSchema(`odd"table`, String(`we"ird`, 0))
	stmt, _ := NewQuery(nil, DialectSQLite, schema).SQL()
	assert.Equal(t, `SELECT "we""ird" FROM "odd""table"`, stmt)
}

func TestQuery_MySQLOffsetOnly(t *testing.T) {
	schema := NewSchema("t", Integer("id"))
	stmt, _ := NewQuery(nil, DialectMySQL, schema).Offset(5).SQL()
	assert.Equal(t, "SELECT `id` FROM `t` LIMIT 18446744073709551615 OFFSET 5", stmt)
}
