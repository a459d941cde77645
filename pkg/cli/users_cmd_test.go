package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-query/internal/domain"
)

func createUser(t *testing.T, db, username, email string) domain.User {
	t.Helper()
	out, err := runCLI(t, "--db", db, "-o", "json", "users", "create", "--username", username, "--email", email)
	require.NoError(t, err)
	var u domain.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	return u
}

func TestUsersCreateGet(t *testing.T) {
	isolateCLI(t)
	db := testDB(t)

	created := createUser(t, db, "  alice ", "alice@example.com")
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, domain.UserStateActive, created.State)
	assert.Len(t, created.UUID, 32)

	out, err := runCLI(t, "--db", db, "-o", "json", "users", "get", created.UUID)
	require.NoError(t, err)
	var got domain.User
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, created.UUID, got.UUID)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestUsersGet_NotFound(t *testing.T) {
	isolateCLI(t)

	_, err := runCLI(t, "--db", testDB(t), "-o", "json", "users", "get", "0123456789abcdef0123456789abcdef")
	require.Error(t, err)
	assert.Equal(t, "not_found", errorKind(err))
}

func TestUsersList_PagesWithMarker(t *testing.T) {
	isolateCLI(t)
	db := testDB(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		createUser(t, db, name, name+"@example.com")
	}

	out, err := runCLI(t, "--db", db, "-o", "json", "users", "list", "--sort", "username", "--limit", "2")
	require.NoError(t, err)
	var first domain.Page[domain.User]
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	require.Len(t, first.Items, 2)
	assert.Equal(t, int64(3), first.Total)
	assert.True(t, first.Truncated)
	assert.Equal(t, "alice", first.Items[0].Username)
	assert.Equal(t, "bob", first.Items[1].Username)
	require.NotEmpty(t, first.NextMarker)

	out, err = runCLI(t, "--db", db, "-o", "json", "users", "list", "--sort", "username", "--limit", "2",
		"--marker", first.NextMarker)
	require.NoError(t, err)
	var second domain.Page[domain.User]
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	require.Len(t, second.Items, 1)
	assert.Equal(t, "carol", second.Items[0].Username)
	assert.False(t, second.Truncated)
}

func TestUsersList_FilterAndCount(t *testing.T) {
	isolateCLI(t)
	db := testDB(t)
	createUser(t, db, "alice", "alice@example.com")
	createUser(t, db, "alan", "alan@example.org")
	createUser(t, db, "bob", "bob@example.com")

	out, err := runCLI(t, "--db", db, "-o", "json", "users", "list", "--filter", "username:startswith=al")
	require.NoError(t, err)
	var page domain.Page[domain.User]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Total)

	out, err = runCLI(t, "--db", db, "-o", "json", "users", "count", "--filter", "email:endswith=.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 2}`, out)
}

func TestUsersDeleteAndReadDeleted(t *testing.T) {
	isolateCLI(t)
	db := testDB(t)
	u := createUser(t, db, "alice", "alice@example.com")
	createUser(t, db, "bob", "bob@example.com")

	_, err := runCLI(t, "--db", db, "-o", "json", "users", "delete", u.UUID)
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "-o", "json", "users", "count")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 1}`, out)

	out, err = runCLI(t, "--db", db, "-o", "json", "users", "list", "--read-deleted", "only")
	require.NoError(t, err)
	var page domain.Page[domain.User]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, u.UUID, page.Items[0].UUID)
	assert.True(t, page.Items[0].Deleted)

	_, err = runCLI(t, "--db", db, "users", "delete", u.UUID)
	assert.Equal(t, "not_found", errorKind(err))
}

func TestUsersSetState(t *testing.T) {
	isolateCLI(t)
	db := testDB(t)
	u := createUser(t, db, "alice", "alice@example.com")

	_, err := runCLI(t, "--db", db, "-o", "json", "users", "set-state", u.UUID, domain.UserStateLocked)
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "-o", "json", "users", "count", "--filter", "state=locked")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 1}`, out)

	_, err = runCLI(t, "--db", db, "users", "set-state", u.UUID, "frozen")
	assert.Equal(t, "invalid_input", errorKind(err))
}

func TestUsersList_InvalidInput(t *testing.T) {
	isolateCLI(t)
	db := testDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown read-deleted", []string{"--read-deleted", "maybe"}},
		{"unknown sort key", []string{"--sort", "password"}},
		{"bad sort direction", []string{"--sort", "username:sideways"}},
		{"bad marker", []string{"--marker", "not-a-marker"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", db, "-o", "json", "users", "list"}, tt.args...)
			_, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Equal(t, "invalid_input", errorKind(err))
		})
	}
}

func TestUsersList_TableAndQuiet(t *testing.T) {
	isolateCLI(t)
	db := testDB(t)
	u := createUser(t, db, "alice", "alice@example.com")

	out, err := runCLI(t, "--db", db, "-o", "table", "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "USERNAME")
	assert.Contains(t, out, "alice")

	out, err = runCLI(t, "--db", db, "-o", "table", "-q", "users", "list")
	require.NoError(t, err)
	assert.Equal(t, u.UUID+"\n", out)
}
