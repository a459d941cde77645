// Package repository implements the account entity repositories on top of
// the hints query engine.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"account-query/internal/domain"
	"account-query/internal/query"
)

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// rebind rewrites ? placeholders for dialects that number their parameters.
func rebind(d query.Dialect, stmt string) string {
	if d.Placeholder(1) == "?" {
		return stmt
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range stmt {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// now returns the current UTC time at the precision every backend stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// fieldString formats a column value the way residual filters compare it.
func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case *int64:
		if val == nil {
			return ""
		}
		return strconv.FormatInt(*val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.UTC().Format(time.RFC3339Nano)
	case decimal.Decimal:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// nextMarker builds the continuation token for the row after last, or ""
// when the page was not truncated.
func nextMarker(schema *query.Schema, hints *query.Hints, values map[string]any) (string, error) {
	if hints == nil || hints.Limit == nil || !hints.Limit.Truncated || values == nil {
		return "", nil
	}
	keys, _, err := query.NormalizeSort(hints.SortKeys, hints.SortDirs, schema.SortDefaults(), query.Asc)
	if err != nil {
		return "", err
	}
	markerValues := make(map[string]any, len(keys))
	for _, k := range keys {
		markerValues[k] = values[k]
	}
	return query.EncodeMarker(schema, markerValues)
}

// limitResidual applies a limit the engine deferred because filters were
// left for the repository.
func limitResidual[T any](items []T, hints *query.Hints, unresolved []query.Filter) []T {
	if hints == nil || hints.Limit == nil || len(unresolved) == 0 {
		return items
	}
	if len(items) > hints.Limit.Limit {
		return items[:hints.Limit.Limit]
	}
	return items
}

// skipResidual drops the first offset items, an offset the engine deferred
// until the repository had applied its own filters.
func skipResidual[T any](items []T, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	return items[offset:]
}
