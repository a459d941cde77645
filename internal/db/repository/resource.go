package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"sort"
	"strings"

	"account-query/internal/db"
	"account-query/internal/domain"
	"account-query/internal/query"
	"account-query/internal/txretry"
)

// ResourceSchema is the column layout of the resources table.
var ResourceSchema = query.NewSchema("resources",
	query.Integer("id"),
	query.String("uuid", 32),
	query.String("resource", 255),
	query.String("name", 255),
	query.String("description", 0),
	query.Decimal("total_quota"),
	query.Decimal("used_quota"),
	query.String("unit", 10),
	query.DateTime("created_at"),
	query.DateTime("updated_at").Null(),
).WithDefaultSortKeys("resource")

// resourceMatchKeys are the columns Match accepts exact values for.
var resourceMatchKeys = []string{"resource", "name", "unit", "uuid"}

type ResourceRepo struct {
	store   *db.Store
	retrier *txretry.Retrier
	logger  *slog.Logger
}

func NewResourceRepo(store *db.Store, retrier *txretry.Retrier, logger *slog.Logger) *ResourceRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceRepo{store: store, retrier: retrier, logger: logger}
}

func scanResource(rows *sql.Rows) (domain.Resource, error) {
	var (
		r         domain.Resource
		updatedAt sql.NullTime
	)
	if err := rows.Scan(&r.ID, &r.UUID, &r.Resource, &r.Name, &r.Description,
		&r.TotalQuota, &r.UsedQuota, &r.Unit, &r.CreatedAt, &updatedAt); err != nil {
		return domain.Resource{}, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = nullTime(updatedAt)
	return r, nil
}

func resourceField(r domain.Resource, name string) (string, bool) {
	var v any
	switch name {
	case "id":
		v = r.ID
	case "uuid":
		v = r.UUID
	case "resource":
		v = r.Resource
	case "name":
		v = r.Name
	case "description":
		v = r.Description
	case "total_quota":
		v = r.TotalQuota
	case "used_quota":
		v = r.UsedQuota
	case "unit":
		v = r.Unit
	case "created_at":
		v = r.CreatedAt
	case "updated_at":
		v = r.UpdatedAt
	default:
		return "", false
	}
	return fieldString(v), true
}

func validateQuotas(r *domain.Resource) error {
	if r.TotalQuota.IsNegative() || r.UsedQuota.IsNegative() {
		return domain.ErrValidation("quota of %q cannot be negative", r.Resource)
	}
	return nil
}

// Create inserts a resource. The resource code is unique.
func (r *ResourceRepo) Create(ctx context.Context, res *domain.Resource) (*domain.Resource, error) {
	res.Resource = strings.TrimSpace(res.Resource)
	if res.Resource == "" {
		return nil, domain.ErrValidation("resource field is required")
	}
	if res.Name == "" {
		res.Name = res.Resource
	}
	if res.Unit == "" {
		res.Unit = "default"
	}
	if err := validateQuotas(res); err != nil {
		return nil, err
	}
	res.UUID = domain.NewUUIDHex()

	stmt := rebind(r.store.Dialect(), `INSERT INTO resources
		(uuid, resource, name, description, total_quota, used_quota, unit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	created := now()
	err := r.retrier.Do(ctx, "resource.create", func(ctx context.Context) error {
		_, err := r.store.Writer().ExecContext(ctx, stmt, res.UUID, res.Resource, res.Name,
			res.Description, res.TotalQuota, res.UsedQuota, res.Unit, created)
		return err
	})
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.getOn(ctx, r.store.Writer(), res.Resource)
}

// Get returns the resource with the given code.
func (r *ResourceRepo) Get(ctx context.Context, resource string) (*domain.Resource, error) {
	return r.getOn(ctx, r.store.Reader(), resource)
}

func (r *ResourceRepo) getOn(ctx context.Context, q query.Querier, resource string) (*domain.Resource, error) {
	h, err := query.NewConstraint(map[string]query.Condition{
		"resource": query.EqualAny(resource),
	}).Apply(ResourceSchema, query.NewQuery(q, r.store.Dialect(), ResourceSchema))
	if err != nil {
		return nil, err
	}
	items, err := query.Collect(ctx, h.Limit(1), scanResource)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrNotFound("resource %q not found", resource)
	}
	return &items[0], nil
}

// List returns resources ordered by code, narrowed by the hints filters and
// limit.
func (r *ResourceRepo) List(ctx context.Context, hints *query.Hints) ([]domain.Resource, error) {
	return query.Truncated(hints, func(h *query.Hints) ([]domain.Resource, error) {
		base, err := r.store.Model(ResourceSchema, db.ReadDeletedNo)
		if err != nil {
			return nil, err
		}
		base = base.OrderBy(query.SortKey{Column: "resource", Direction: query.Asc})
		out := query.FilterLimit(ResourceSchema, base, h)
		if out.CannotMatch {
			r.logger.Debug("resource filters cannot match, skipping query")
			return nil, nil
		}
		items, err := query.Collect(ctx, out.Handle, scanResource)
		if err != nil {
			return nil, err
		}
		items = query.FilterResidual(items, out.Unresolved, resourceField)
		return limitResidual(items, h, out.Unresolved), nil
	})
}

// Find returns the resources whose code is one of include and none of
// exclude. An empty include matches nothing.
func (r *ResourceRepo) Find(ctx context.Context, include, exclude []string) ([]domain.Resource, error) {
	h, err := query.NewConstraint(map[string]query.Condition{
		"resource": query.EqualAny(toAny(include)...),
	}).Apply(ResourceSchema, query.NewQuery(r.store.Reader(), r.store.Dialect(), ResourceSchema))
	if err != nil {
		return nil, err
	}
	if len(exclude) > 0 {
		h, err = query.NewConstraint(map[string]query.Condition{
			"resource": query.NotEqual(toAny(exclude)...),
		}).Apply(ResourceSchema, h)
		if err != nil {
			return nil, err
		}
	}
	return query.Collect(ctx, h.OrderBy(query.SortKey{Column: "resource", Direction: query.Asc}), scanResource)
}

// Match returns resources equal to every exact value and matching every
// pattern. Exact values may be lists, which match any member. Keys other
// than the matchable columns are rejected.
func (r *ResourceRepo) Match(ctx context.Context, exact map[string]any, patterns map[string]string) ([]domain.Resource, error) {
	values := make(map[string]any, len(exact))
	for k, v := range exact {
		values[k] = v
	}
	h := query.ExactFilter(ResourceSchema,
		query.NewQuery(r.store.Reader(), r.store.Dialect(), ResourceSchema), values, resourceMatchKeys)
	if len(values) > 0 {
		left := make([]string, 0, len(values))
		for k := range values {
			left = append(left, k)
		}
		sort.Strings(left)
		return nil, domain.ErrValidation("cannot match resources on %s", strings.Join(left, ", "))
	}
	for name := range patterns {
		if !ResourceSchema.Has(name) {
			return nil, &domain.UnknownFieldError{Entity: ResourceSchema.Table, Field: name}
		}
	}
	h = query.RegexFilter(ResourceSchema, h, r.store.Dialect(), patterns)
	return query.Collect(ctx, h.OrderBy(query.SortKey{Column: "resource", Direction: query.Asc}), scanResource)
}

// Update applies patch to the resource inside a transaction, retrying the
// whole transaction on deadlock.
func (r *ResourceRepo) Update(ctx context.Context, resource string, patch domain.ResourcePatch) (*domain.Resource, error) {
	return txretry.DoValue(ctx, r.retrier, "resource.update", func(ctx context.Context) (*domain.Resource, error) {
		var updated *domain.Resource
		err := r.store.Tx(ctx, func(tx *sql.Tx) error {
			cur, err := r.getOn(ctx, tx, resource)
			if err != nil {
				return err
			}
			applyResourcePatch(cur, patch)
			if err := validateQuotas(cur); err != nil {
				return err
			}
			stmt := rebind(r.store.Dialect(), `UPDATE resources
				SET name = ?, description = ?, total_quota = ?, used_quota = ?, unit = ?, updated_at = ?
				WHERE id = ?`)
			if _, err := tx.ExecContext(ctx, stmt, cur.Name, cur.Description,
				cur.TotalQuota, cur.UsedQuota, cur.Unit, now(), cur.ID); err != nil {
				return mapDBError(err)
			}
			updated, err = r.getOn(ctx, tx, resource)
			return err
		})
		return updated, err
	})
}

func applyResourcePatch(r *domain.Resource, p domain.ResourcePatch) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.TotalQuota != nil {
		r.TotalQuota = *p.TotalQuota
	}
	if p.UsedQuota != nil {
		r.UsedQuota = *p.UsedQuota
	}
	if p.Unit != nil {
		r.Unit = *p.Unit
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
