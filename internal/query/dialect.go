// Package query implements the hints-driven filter, sort and pagination
// engine that narrows entity queries before they reach the relational store.
package query

import (
	"strconv"
	"strings"
)

// Dialect identifies the SQL engine family behind a connection.
type Dialect int

const (
	// DialectDefault is any engine the resolver does not recognise.
	DialectDefault Dialect = iota
	DialectPostgres
	DialectMySQL
	DialectSQLite
	DialectDuckDB
)

// ParseDialect resolves the engine family from a connection string such as
// "mysql+pymysql://user@host/db" or "sqlite:///account.sqlite". Unknown
// families fall back to DialectDefault.
func ParseDialect(connection string) Dialect {
	scheme, _, _ := strings.Cut(connection, ":")
	scheme, _, _ = strings.Cut(scheme, "+")
	switch strings.ToLower(scheme) {
	case "postgresql", "postgres":
		return DialectPostgres
	case "mysql":
		return DialectMySQL
	case "sqlite", "sqlite3":
		return DialectSQLite
	case "duckdb":
		return DialectDuckDB
	default:
		return DialectDefault
	}
}

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgresql"
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	case DialectDuckDB:
		return "duckdb"
	default:
		return "default"
	}
}

// InexactOperator returns the operator used for pattern (regex) matching.
func (d Dialect) InexactOperator() string {
	switch d {
	case DialectPostgres:
		return "~"
	case DialectMySQL, DialectSQLite:
		return "REGEXP"
	default:
		return "LIKE"
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectMySQL:
		return "mysql"
	case DialectDuckDB:
		return "duckdb"
	default:
		return "sqlite3"
	}
}

// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes a table or column name.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d Dialect) hasILike() bool {
	return d == DialectPostgres || d == DialectDuckDB
}

// limitClause renders LIMIT/OFFSET. SQLite and MySQL reject a bare OFFSET.
func (d Dialect) limitClause(limit, offset int) string {
	var b strings.Builder
	switch {
	case limit >= 0:
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(limit))
	case offset > 0 && d == DialectSQLite:
		b.WriteString(" LIMIT -1")
	case offset > 0 && d == DialectMySQL:
		b.WriteString(" LIMIT 18446744073709551615")
	}
	if offset > 0 {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(offset))
	}
	return b.String()
}
