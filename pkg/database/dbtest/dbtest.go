// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"storyhub/pkg/database"
)

// New returns a fresh, fully migrated in-memory database closed on cleanup.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db))
	return db
}

// InsertUser creates a user row directly and returns its id.
func InsertUser(t *testing.T, db *sqlx.DB, username string, admin bool) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (username, email, password_hash, is_admin) VALUES (?, ?, ?, ?)`,
		username, username+"@example.com", "x", admin)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertStory creates a story row directly and returns its id.
func InsertStory(t *testing.T, db *sqlx.DB, authorID int64, title, genre string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO stories (title, content, genre, author_id) VALUES (?, ?, ?, ?)`,
		title, "once upon a time", genre, authorID)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
