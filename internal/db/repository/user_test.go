package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "account-query/internal/db"
	"account-query/internal/domain"
	"account-query/internal/query"
	"account-query/internal/txretry"
)

func setupUserRepo(t *testing.T) *UserRepo {
	t.Helper()
	store := internaldb.OpenTestStore(t)
	return NewUserRepo(store, txretry.New(txretry.DefaultPolicy(), nil), nil)
}

func seedUsers(t *testing.T, repo *UserRepo, names ...string) []*domain.User {
	t.Helper()
	out := make([]*domain.User, 0, len(names))
	for _, n := range names {
		u, err := repo.Create(context.Background(), &domain.User{
			Username: n,
			Email:    strings.ToLower(n) + "@example.com",
		})
		require.NoError(t, err)
		out = append(out, u)
	}
	return out
}

func usernames(users []domain.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Username
	}
	return out
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Username: "  alice ", Email: "alice@example.com"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotZero(t, created.ID)
	assert.Len(t, created.UUID, 32)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, domain.UserStateActive, created.State)
	assert.Equal(t, int64(5), created.LoginChance)
	assert.False(t, created.Deleted)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Nil(t, created.UpdatedAt)

	got, err := repo.Get(ctx, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestUserRepo_CreateValidation(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.User{Username: "  "})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = repo.Create(ctx, &domain.User{Username: "bob", State: "frozen"})
	assert.ErrorAs(t, err, &ve)
}

func TestUserRepo_GetNotFound(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "nope")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	// Longer than the uuid column: rejected without querying.
	_, err = repo.Get(ctx, strings.Repeat("x", 40))
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepo_ListFilters(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, "alice", "Albert", "bob", "carol")

	tests := []struct {
		name  string
		setup func(h *query.Hints)
		want  []string
	}{
		{"exact", func(h *query.Hints) { h.AddExactFilter("username", "bob") }, []string{"bob"}},
		{"startswith", func(h *query.Hints) { h.AddFilter("username", "al", query.StartsWith, false) }, []string{"alice", "Albert"}},
		{"contains email", func(h *query.Hints) { h.AddFilter("email", "AR", query.Contains, false) }, []string{"carol"}},
		{"endswith", func(h *query.Hints) { h.AddFilter("username", "OL", query.EndsWith, false) }, []string{"carol"}},
		{"case-sensitive residual", func(h *query.Hints) { h.AddFilter("username", "Al", query.StartsWith, true) }, []string{"Albert"}},
		{"case-sensitive notequal", func(h *query.Hints) { h.AddFilter("username", "bob", query.NotEquals, true) }, []string{"alice", "Albert", "carol"}},
		{"unknown field never matches", func(h *query.Hints) { h.AddExactFilter("nickname", "al") }, []string{}},
		{"sort desc", func(h *query.Hints) { h.AddSort("username", "desc") }, []string{"carol", "bob", "alice", "Albert"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hints := query.NewHints()
			tc.setup(hints)
			users, err := repo.List(ctx, hints, internaldb.ReadDeletedNo)
			require.NoError(t, err)
			assert.Equal(t, tc.want, usernames(users))
		})
	}
}

func TestUserRepo_ListImpossibleFilter(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, "alice")

	hints := query.NewHints()
	hints.AddFilter("cellphone", strings.Repeat("9", 26), query.Contains, false)
	users, err := repo.List(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.True(t, hints.CannotMatch)

	n, err := repo.Count(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserRepo_ListLimitWithResidualFilter(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, "x1", "Al1", "x2", "Al2", "Al3")

	hints := query.NewHints()
	hints.AddFilter("username", "Al", query.StartsWith, true)
	hints.SetLimit(2)

	users, err := repo.List(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, []string{"Al1", "Al2"}, usernames(users))
	assert.True(t, hints.Limit.Truncated)
	assert.Len(t, hints.Filters, 1, "residual filter stays with the caller")
}

func TestUserRepo_ListOffset(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, "u1", "u2", "u3", "u4")

	hints := query.NewHints()
	hints.AddExactFilter(query.OffsetFilter, "1")
	hints.SetLimit(2)
	users, err := repo.List(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, usernames(users))
}

func TestUserRepo_ListOffsetAfterResidualFilter(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, "alice", "Bob", "carol")

	hints := query.NewHints()
	hints.AddFilter("username", "o", query.Contains, true)
	hints.AddExactFilter(query.OffsetFilter, "1")
	users, err := repo.List(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, usernames(users))

	hints = query.NewHints()
	hints.AddFilter("username", "o", query.Contains, true)
	hints.AddExactFilter(query.OffsetFilter, "1")
	hints.SetLimit(1)
	users, err = repo.List(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, usernames(users))
	assert.False(t, hints.Limit.Truncated)

	hints = query.NewHints()
	hints.AddFilter("username", "o", query.Contains, true)
	hints.AddExactFilter(query.OffsetFilter, "5")
	users, err = repo.List(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepo_ListCallerErrors(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	hints := query.NewHints()
	hints.AddSort("password", "asc")
	_, err := repo.List(ctx, hints, internaldb.ReadDeletedNo)
	assert.True(t, domain.IsCallerInput(err))

	hints = query.NewHints()
	hints.SortKeys = []string{"username"}
	hints.SortDirs = []string{"asc", "desc"}
	_, err = repo.List(ctx, hints, internaldb.ReadDeletedNo)
	var mismatch *domain.SortSizeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestUserRepo_PageWalk(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	var names []string
	for i := 0; i < 5; i++ {
		names = append(names, fmt.Sprintf("user%d", i))
	}
	seedUsers(t, repo, names...)

	var (
		seen   []string
		marker string
		pages  int
	)
	for {
		hints := query.NewHints()
		hints.SetLimit(2)
		hints.SetMarker(marker)
		page, err := repo.Page(ctx, hints, internaldb.ReadDeletedNo)
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		seen = append(seen, usernames(page.Items)...)
		pages++
		if page.NextMarker == "" {
			assert.False(t, page.Truncated)
			break
		}
		assert.True(t, page.Truncated)
		marker = page.NextMarker
		require.Less(t, pages, 5, "pagination does not terminate")
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, names, seen)
}

func TestUserRepo_Count(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, "Al1", "al2", "bob")

	n, err := repo.Count(ctx, nil, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	hints := query.NewHints()
	hints.AddFilter("username", "al", query.StartsWith, false)
	n, err = repo.Count(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, hints.Filters)

	hints = query.NewHints()
	hints.AddFilter("username", "Al", query.StartsWith, true)
	n, err = repo.Count(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepo_SoftDelete(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	users := seedUsers(t, repo, "alice", "bob")

	require.NoError(t, repo.SoftDelete(ctx, users[0].UUID))

	_, err := repo.Get(ctx, users[0].UUID)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	live, err := repo.List(ctx, nil, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, usernames(live))

	deleted, err := repo.List(ctx, nil, internaldb.ReadDeletedOnly)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.True(t, deleted[0].Deleted)
	assert.NotNil(t, deleted[0].DeletedAt)

	all, err := repo.List(ctx, nil, internaldb.ReadDeletedYes)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorAs(t, repo.SoftDelete(ctx, users[0].UUID), &nf)

	_, err = repo.List(ctx, nil, "maybe")
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestUserRepo_SetState(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	users := seedUsers(t, repo, "alice")

	require.NoError(t, repo.SetState(ctx, users[0].UUID, domain.UserStateLocked))
	got, err := repo.Get(ctx, users[0].UUID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserStateLocked, got.State)
	assert.NotNil(t, got.UpdatedAt)

	hints := query.NewHints()
	hints.AddExactFilter("state", domain.UserStateLocked)
	locked, err := repo.List(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Len(t, locked, 1)

	var ve *domain.ValidationError
	assert.ErrorAs(t, repo.SetState(ctx, users[0].UUID, "frozen"), &ve)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, repo.SetState(ctx, "missing", domain.UserStateActive), &nf)
}

func TestUserRepo_CountIgnoresOffsetWithResidualFilter(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, "alice", "Bob", "carol")

	hints := query.NewHints()
	hints.AddFilter("username", "o", query.Contains, true)
	hints.AddExactFilter(query.OffsetFilter, "2")
	n, err := repo.Count(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, ok := hints.ExactFilter(query.OffsetFilter)
	assert.False(t, ok)

	hints = query.NewHints()
	hints.AddFilter("username", "o", query.Contains, true)
	hints.AddExactFilter(query.OffsetFilter, "2")
	page, err := repo.Page(ctx, hints, internaldb.ReadDeletedNo)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Empty(t, page.Items)
}

func TestUserRepo_PageWalkNullableSortKey(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	for _, name := range []string{"member", "admin"} {
		_, err := repo.store.Writer().ExecContext(ctx,
			`INSERT INTO roles (name, created_at) VALUES (?, ?)`, name, time.Now().UTC())
		require.NoError(t, err)
	}
	member, admin := int64(1), int64(2)
	for _, u := range []domain.User{
		{Username: "nobody1"},
		{Username: "admin", RoleID: &admin},
		{Username: "member", RoleID: &member},
		{Username: "nobody2"},
	} {
		_, err := repo.Create(ctx, &u)
		require.NoError(t, err)
	}

	walk := func(dir string) []string {
		var (
			seen   []string
			marker string
		)
		for pages := 0; ; pages++ {
			require.Less(t, pages, 5, "pagination does not terminate")
			hints := query.NewHints()
			hints.AddSort("role_id", dir)
			hints.SetLimit(1)
			hints.SetMarker(marker)
			page, err := repo.Page(ctx, hints, internaldb.ReadDeletedNo)
			require.NoError(t, err)
			assert.Equal(t, int64(4), page.Total)
			seen = append(seen, usernames(page.Items)...)
			if page.NextMarker == "" {
				return seen
			}
			marker = page.NextMarker
		}
	}

	assert.Equal(t, []string{"member", "admin", "nobody1", "nobody2"}, walk("asc"))
	assert.Equal(t, []string{"nobody2", "nobody1", "admin", "member"}, walk("desc"))
}
