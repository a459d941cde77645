package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"account-query/internal/db"
	"account-query/internal/domain"
	"account-query/internal/query"
	"account-query/internal/txretry"
)

// UserSchema is the column layout of the users table.
var UserSchema = query.NewSchema("users",
	query.Integer("id"),
	query.String("uuid", 32),
	query.String("username", 255),
	query.String("email", 255),
	query.String("cellphone", 25),
	query.Integer("role_id").Null(),
	query.String("state", 16),
	query.Integer("login_chance"),
	query.DateTime("created_at"),
	query.DateTime("updated_at").Null(),
	query.Boolean("deleted"),
	query.DateTime("deleted_at").Null(),
)

type UserRepo struct {
	store   *db.Store
	retrier *txretry.Retrier
	logger  *slog.Logger
}

func NewUserRepo(store *db.Store, retrier *txretry.Retrier, logger *slog.Logger) *UserRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserRepo{store: store, retrier: retrier, logger: logger}
}

func scanUser(rows *sql.Rows) (domain.User, error) {
	var (
		u                    domain.User
		roleID               sql.NullInt64
		updatedAt, deletedAt sql.NullTime
	)
	if err := rows.Scan(&u.ID, &u.UUID, &u.Username, &u.Email, &u.Cellphone, &roleID,
		&u.State, &u.LoginChance, &u.CreatedAt, &updatedAt, &u.Deleted, &deletedAt); err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.RoleID = nullInt(roleID)
	u.UpdatedAt = nullTime(updatedAt)
	u.DeletedAt = nullTime(deletedAt)
	return u, nil
}

func userValues(u domain.User) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"uuid":         u.UUID,
		"username":     u.Username,
		"email":        u.Email,
		"cellphone":    u.Cellphone,
		"role_id":      u.RoleID,
		"state":        u.State,
		"login_chance": u.LoginChance,
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
		"deleted":      u.Deleted,
		"deleted_at":   u.DeletedAt,
	}
}

func userField(u domain.User, name string) (string, bool) {
	v, ok := userValues(u)[name]
	if !ok {
		return "", false
	}
	return fieldString(v), true
}

// Create inserts a user and returns it as stored.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return nil, domain.ErrValidation("username field is required")
	}
	if u.State == "" {
		u.State = domain.UserStateActive
	}
	if !domain.ValidUserState(u.State) {
		return nil, domain.ErrValidation("unknown user state %q", u.State)
	}
	if u.LoginChance == 0 {
		u.LoginChance = 5
	}
	u.UUID = domain.NewUUIDHex()
	created := now()

	stmt := rebind(r.store.Dialect(), `INSERT INTO users
		(uuid, username, email, cellphone, role_id, state, login_chance, created_at, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	err := r.retrier.Do(ctx, "user.create", func(ctx context.Context) error {
		_, err := r.store.Writer().ExecContext(ctx, stmt,
			u.UUID, u.Username, u.Email, u.Cellphone, u.RoleID, u.State, u.LoginChance, created, false)
		return err
	})
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.getOn(ctx, r.store.Writer(), u.UUID)
}

// Get returns the live (not soft-deleted) user with the given uuid.
func (r *UserRepo) Get(ctx context.Context, uuid string) (*domain.User, error) {
	return r.getOn(ctx, r.store.Reader(), uuid)
}

func (r *UserRepo) getOn(ctx context.Context, q query.Querier, uuid string) (*domain.User, error) {
	base, err := db.ModelOn(q, r.store.Dialect(), UserSchema, db.ReadDeletedNo)
	if err != nil {
		return nil, err
	}
	hints := query.NewHints()
	hints.AddExactFilter("uuid", uuid)
	out := query.ApplyFilters(UserSchema, base, hints)
	if out.CannotMatch {
		return nil, domain.ErrNotFound("user %q not found", uuid)
	}
	users, err := query.Collect(ctx, out.Handle.Limit(1), scanUser)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, domain.ErrNotFound("user %q not found", uuid)
	}
	return &users[0], nil
}

// List returns the users matching hints. Filters the engine cannot push
// into SQL are applied here, and so is the limit in that case. When hints
// carry a limit, hints.Limit.Truncated reports whether more users exist.
func (r *UserRepo) List(ctx context.Context, hints *query.Hints, readDeleted db.ReadDeleted) ([]domain.User, error) {
	return query.Truncated(hints, func(h *query.Hints) ([]domain.User, error) {
		return r.list(ctx, h, readDeleted)
	})
}

func (r *UserRepo) list(ctx context.Context, hints *query.Hints, readDeleted db.ReadDeleted) ([]domain.User, error) {
	base, err := r.store.Model(UserSchema, readDeleted)
	if err != nil {
		return nil, err
	}
	out, err := query.Paginate(UserSchema, base, hints)
	if err != nil {
		return nil, err
	}
	if out.CannotMatch {
		r.logger.Debug("user filters cannot match, skipping query")
		return nil, nil
	}
	users, err := query.Collect(ctx, out.Handle, scanUser)
	if err != nil {
		return nil, err
	}
	users = query.FilterResidual(users, out.Unresolved, userField)
	users = skipResidual(users, out.Offset)
	return limitResidual(users, hints, out.Unresolved), nil
}

// Count returns the number of users matching the hints filters.
func (r *UserRepo) Count(ctx context.Context, hints *query.Hints, readDeleted db.ReadDeleted) (int64, error) {
	base, err := r.store.Model(UserSchema, readDeleted)
	if err != nil {
		return 0, err
	}
	if hints == nil {
		return base.Count(ctx)
	}

	pushed := hints.Clone()
	n, err := query.FilterCount(ctx, UserSchema, base, pushed)
	if err != nil {
		return 0, err
	}
	if len(pushed.Filters) == 0 || pushed.CannotMatch {
		hints.Filters, hints.CannotMatch = pushed.Filters, pushed.CannotMatch
		return n, nil
	}

	// Some filters can only be checked in Go, so count the matching rows.
	// The count ignores any offset, like FilterCount does.
	all := hints.Clone()
	all.Limit, all.Marker = nil, ""
	if _, err := query.ExtractOffset(all); err != nil {
		return 0, err
	}
	users, err := r.list(ctx, all, readDeleted)
	if err != nil {
		return 0, err
	}
	hints.Filters = all.Filters
	return int64(len(users)), nil
}

// Page lists one page of users together with the total number of matches.
// The list and the count run concurrently, each on its own copy of hints.
func (r *UserRepo) Page(ctx context.Context, hints *query.Hints, readDeleted db.ReadDeleted) (domain.Page[domain.User], error) {
	if hints == nil {
		hints = query.NewHints()
	}
	listHints, countHints := hints.Clone(), hints.Clone()

	var (
		users []domain.User
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = r.List(gctx, listHints, readDeleted)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = r.Count(gctx, countHints, readDeleted)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Page[domain.User]{}, err
	}

	page := domain.Page[domain.User]{Items: users, Total: total}
	if listHints.Limit != nil {
		page.Truncated = listHints.Limit.Truncated
	}
	if len(users) > 0 {
		marker, err := nextMarker(UserSchema, listHints, userValues(users[len(users)-1]))
		if err != nil {
			return domain.Page[domain.User]{}, err
		}
		page.NextMarker = marker
	}
	return page, nil
}

// SoftDelete marks a live user as deleted.
func (r *UserRepo) SoftDelete(ctx context.Context, uuid string) error {
	ts := now()
	stmt := rebind(r.store.Dialect(),
		`UPDATE users SET deleted = ?, deleted_at = ?, updated_at = ? WHERE uuid = ? AND deleted = ?`)
	return r.execOne(ctx, "user.soft_delete", uuid, stmt, true, ts, ts, uuid, false)
}

// SetState changes a live user's account state.
func (r *UserRepo) SetState(ctx context.Context, uuid, state string) error {
	if !domain.ValidUserState(state) {
		return domain.ErrValidation("unknown user state %q", state)
	}
	stmt := rebind(r.store.Dialect(),
		`UPDATE users SET state = ?, updated_at = ? WHERE uuid = ? AND deleted = ?`)
	return r.execOne(ctx, "user.set_state", uuid, stmt, state, now(), uuid, false)
}

func (r *UserRepo) execOne(ctx context.Context, op, uuid, stmt string, args ...any) error {
	res, err := txretry.DoValue(ctx, r.retrier, op, func(ctx context.Context) (sql.Result, error) {
		return r.store.Writer().ExecContext(ctx, stmt, args...)
	})
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("user %q not found", uuid)
	}
	return nil
}
