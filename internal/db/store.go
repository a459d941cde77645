package db

import (
	"context"
	"database/sql"
	"fmt"

	"account-query/internal/domain"
	"account-query/internal/query"
)

// ReadDeleted controls whether soft-deleted rows are visible to a model query.
type ReadDeleted string

const (
	// ReadDeletedNo hides soft-deleted rows.
	ReadDeletedNo ReadDeleted = "no"
	// ReadDeletedOnly returns only soft-deleted rows.
	ReadDeletedOnly ReadDeleted = "only"
	// ReadDeletedYes ignores the deleted flag.
	ReadDeletedYes ReadDeleted = "yes"
)

// deletedColumn is the soft-delete flag column.
const deletedColumn = "deleted"

// Store bundles the write pool, an optional read pool and the dialect of a
// connection. It is created once at startup and passed to repositories.
type Store struct {
	write   *sql.DB
	read    *sql.DB
	dialect query.Dialect
}

// NewStore wraps already opened pools. read may be nil, in which case reads
// use the write pool.
func NewStore(write, read *sql.DB, dialect query.Dialect) *Store {
	if read == nil {
		read = write
	}
	return &Store{write: write, read: read, dialect: dialect}
}

// OpenStore opens the write pool from connection and, when readConnection is
// set, a separate read pool (a replica). For SQLite without a replica the
// read pool is a second connection pool on the same file.
func OpenStore(connection, readConnection string, readMaxOpen int) (*Store, error) {
	write, dialect, err := Open(connection, "write", 0)
	if err != nil {
		return nil, err
	}

	readConn := readConnection
	if readConn == "" && dialect == query.DialectSQLite {
		readConn = connection
	}
	if readConn == "" {
		return NewStore(write, nil, dialect), nil
	}

	read, readDialect, err := Open(readConn, "read", readMaxOpen)
	if err != nil {
		_ = write.Close()
		return nil, err
	}
	if readDialect != dialect {
		_ = write.Close()
		_ = read.Close()
		return nil, fmt.Errorf("read connection dialect %s does not match %s", readDialect, dialect)
	}
	return NewStore(write, read, dialect), nil
}

// Writer returns the write pool.
func (s *Store) Writer() *sql.DB { return s.write }

// Reader returns the read pool.
func (s *Store) Reader() *sql.DB { return s.read }

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() query.Dialect { return s.dialect }

// Close closes both pools.
func (s *Store) Close() error {
	var err error
	if s.read != s.write {
		err = s.read.Close()
	}
	if werr := s.write.Close(); werr != nil {
		err = werr
	}
	return err
}

// Model returns a handle over the schema's rows on the read pool, honouring
// the soft-delete flag as requested. Schemas without a deleted column ignore
// readDeleted.
func (s *Store) Model(schema *query.Schema, readDeleted ReadDeleted) (query.Handle, error) {
	return ModelOn(s.read, s.dialect, schema, readDeleted)
}

// ModelOn is Model against an explicit Querier, such as a transaction.
func ModelOn(q query.Querier, dialect query.Dialect, schema *query.Schema, readDeleted ReadDeleted) (query.Handle, error) {
	var h query.Handle = query.NewQuery(q, dialect, schema)
	if !schema.Has(deletedColumn) {
		return h, nil
	}
	switch readDeleted {
	case ReadDeletedNo, "":
		return h.Where(query.Eq(deletedColumn, false)), nil
	case ReadDeletedOnly:
		return h.Where(query.Eq(deletedColumn, true)), nil
	case ReadDeletedYes:
		return h, nil
	default:
		return nil, domain.ErrValidation("unrecognized read_deleted value %q", readDeleted)
	}
}

// Tx runs fn in a transaction on the write pool, committing when fn returns
// nil and rolling back otherwise.
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
