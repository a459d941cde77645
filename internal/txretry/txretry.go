// Package txretry retries store writes that fail with a transient deadlock.
package txretry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/sethvargo/go-retry"
)

// DefaultBackoff is the fixed wait before retrying a deadlocked write.
const DefaultBackoff = 500 * time.Millisecond

// ErrDeadlock can be returned (or wrapped) by a write to request a retry
// independently of the driver in use.
var ErrDeadlock = errors.New("deadlock detected")

// MySQL ER_LOCK_DEADLOCK.
const mysqlDeadlock = 1213

// Postgres SQLSTATE deadlock_detected.
const pgDeadlock = "40P01"

// IsDeadlock reports whether err is a transient deadlock signal from the store.
func IsDeadlock(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDeadlock) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDeadlock
	}
	// SQLite reports lock contention between connections as BUSY/LOCKED.
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// Policy configures the retry loop.
type Policy struct {
	// Backoff is the fixed wait between attempts.
	Backoff time.Duration
	// MaxAttempts bounds the total number of attempts. Zero retries until
	// the write succeeds, fails with another error, or ctx ends.
	MaxAttempts uint64
}

// DefaultPolicy waits DefaultBackoff between attempts without a bound.
func DefaultPolicy() Policy {
	return Policy{Backoff: DefaultBackoff}
}

// Retrier wraps writes in the deadlock retry loop.
type Retrier struct {
	policy Policy
	logger *slog.Logger

	// newBackoff is swapped by tests to observe waits.
	newBackoff func() retry.Backoff
}

// New returns a Retrier. A non-positive backoff is replaced by DefaultBackoff.
func New(policy Policy, logger *slog.Logger) *Retrier {
	if policy.Backoff <= 0 {
		policy.Backoff = DefaultBackoff
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Retrier{policy: policy, logger: logger}
	r.newBackoff = r.backoff
	return r
}

// Policy returns the effective policy.
func (r *Retrier) Policy() Policy { return r.policy }

func (r *Retrier) backoff() retry.Backoff {
	b := retry.NewConstant(r.policy.Backoff)
	if r.policy.MaxAttempts > 0 {
		b = retry.WithMaxRetries(r.policy.MaxAttempts-1, b)
	}
	return b
}

// Do runs fn, retrying it after the policy backoff whenever it fails with a
// deadlock. Any other error is returned immediately. When MaxAttempts is
// exhausted the last deadlock error is returned unchanged.
func (r *Retrier) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, r.newBackoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil || !IsDeadlock(err) {
			return err
		}
		r.logger.Warn("deadlock detected, retrying",
			"operation", name,
			"attempt", attempt,
			"backoff", r.policy.Backoff,
			"error", err)
		return retry.RetryableError(err)
	})
}

// DoValue is Do for writes that return a value.
func DoValue[T any](ctx context.Context, r *Retrier, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, name, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
