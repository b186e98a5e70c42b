package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripleh1701-dev/ppp-fe-sub014/apperrors"
	"github.com/tripleh1701-dev/ppp-fe-sub014/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "data", "console.db"), MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustLookup(t *testing.T, name string) *Resource {
	t.Helper()
	res, err := Lookup(name)
	require.NoError(t, err)
	return res
}

func TestOpenSeedsCatalogs(t *testing.T) {
	db := openTestDB(t)
	rows, err := db.List(context.Background(), mustLookup(t, "products"), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CI Runner", rows[0]["name"])
	assert.Equal(t, "ci-runner", rows[0]["slug"])

	require.NoError(t, db.Migrate(), "migrating twice is a no-op")
}

func TestLookup(t *testing.T) {
	res, err := Lookup("account-settings")
	require.NoError(t, err)
	assert.Equal(t, "account_settings", res.Table)

	_, err = Lookup("sqlite_master")
	assert.True(t, apperrors.IsClass(err, apperrors.ErrClassNotFound))
	assert.Contains(t, ResourceNames(), "users")
}

func TestCRUDRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := mustLookup(t, "users")

	created, err := db.Create(ctx, users, map[string]any{
		"name":    "Amy",
		"email":   "amy@example.com",
		"groups":  []any{"ops", "dev"},
		"active":  "on",
		"unknown": "ignored",
	})
	require.NoError(t, err)
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{"ops", "dev"}, created["groups"])
	assert.Equal(t, true, created["active"])
	assert.NotContains(t, created, "unknown")

	updated, err := db.Update(ctx, users, id, map[string]any{"email": "amy@corp.example", "groups": "ops"})
	require.NoError(t, err)
	assert.Equal(t, "amy@corp.example", updated["email"])
	assert.Equal(t, []string{"ops"}, updated["groups"])
	assert.Equal(t, "Amy", updated["name"])

	got, err := db.Get(ctx, users, id)
	require.NoError(t, err)
	assert.Equal(t, updated["email"], got["email"])

	require.NoError(t, db.Delete(ctx, users, id))
	_, err = db.Get(ctx, users, id)
	assert.True(t, apperrors.IsClass(err, apperrors.ErrClassNotFound))
	err = db.Delete(ctx, users, id)
	assert.True(t, apperrors.IsClass(err, apperrors.ErrClassNotFound))
}

func TestCreateRequiresFields(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Create(context.Background(), mustLookup(t, "users"), map[string]any{"email": "x@example.com"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrClassValidation, apperrors.GetClass(err))
	assert.Equal(t, "name", apperrors.GetContext(err)["field"])
}

func TestUpdateRejectsBadValues(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	builds := mustLookup(t, "builds")
	row, err := db.Create(ctx, builds, map[string]any{"pipeline": "p1", "number": "3", "started_at": "2024-05-01T10:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), row["number"])
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), row["started_at"])

	_, err = db.Update(ctx, builds, row["id"].(string), map[string]any{"number": "three"})
	assert.Equal(t, apperrors.ErrClassValidation, apperrors.GetClass(err))
	_, err = db.Update(ctx, builds, row["id"].(string), map[string]any{"pipeline": " "})
	assert.Equal(t, apperrors.ErrClassValidation, apperrors.GetClass(err))
	_, err = db.Update(ctx, builds, "missing", map[string]any{"branch": "main"})
	assert.Equal(t, apperrors.ErrClassNotFound, apperrors.GetClass(err))
}

func TestListSearch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	users := mustLookup(t, "users")
	for _, name := range []string{"Bob", "Amy", "Robert"} {
		_, err := db.Create(ctx, users, map[string]any{"name": name})
		require.NoError(t, err)
	}

	rows, err := db.List(ctx, users, "bob")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0]["name"])

	rows, err = db.List(ctx, users, "  ")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = db.List(ctx, users, "zzz")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestQuotedTableName(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	groups := mustLookup(t, "groups")
	row, err := db.Create(ctx, groups, map[string]any{"name": "ops", "roles": []string{"admin"}})
	require.NoError(t, err)

	found, err := db.FindBy(ctx, groups, "name", "ops")
	require.NoError(t, err)
	assert.Equal(t, row["id"], found["id"])

	_, err = db.FindBy(ctx, groups, "name", "nope")
	assert.True(t, apperrors.IsClass(err, apperrors.ErrClassNotFound))
	_, err = db.FindBy(ctx, groups, "id; DROP TABLE users", "x")
	assert.True(t, apperrors.IsClass(err, apperrors.ErrClassValidation))
}

func TestOAuthTokens(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	first, err := db.SaveOAuthToken(ctx, OAuthToken{UserID: "u1", Provider: "github", Account: "amy", AccessToken: "t1"})
	require.NoError(t, err)
	second, err := db.SaveOAuthToken(ctx, OAuthToken{UserID: "u1", Provider: "github", Account: "amy2", AccessToken: "t2"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "relinking replaces the credential")
	assert.Equal(t, "t2", second.AccessToken)

	tokens, err := db.OAuthTokens(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "amy2", tokens[0].Account)

	other, err := db.OAuthTokens(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	err = db.DeleteOAuthToken(ctx, "u2", first.ID)
	assert.True(t, apperrors.IsClass(err, apperrors.ErrClassNotFound))
	require.NoError(t, db.DeleteOAuthToken(ctx, "u1", first.ID))
}

func TestBackup(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()

	target, err := db.Backup(context.Background(), dir, 1)
	require.NoError(t, err)
	assert.FileExists(t, target)

	old := filepath.Join(dir, "console.db.20000101_000000")
	require.NoError(t, os.WriteFile(old, nil, 0o600))
	require.NoError(t, RemoveOldBackups(dir, "console.db.", 1))
	assert.NoFileExists(t, old)
	assert.FileExists(t, target)
}
