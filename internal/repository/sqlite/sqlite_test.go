package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/meydan/internal/model"
	"github.com/sakif/meydan/internal/repository"
	"github.com/sakif/meydan/internal/repository/storetest"
)

// newTestDB opens a private in-memory database. ":memory:" is not shared
// between connections, which is fine because the pool holds exactly one.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return newTestDB(t)
	})
}

func TestDeleteCascadesComments(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	p := &model.Post{AuthorID: "user_2", Content: "x"}
	require.NoError(t, db.Posts().Create(ctx, p))
	require.NoError(t, db.Posts().AddComment(ctx, p.ID, &model.Comment{AuthorID: "u3", Text: "y"}))
	require.NoError(t, db.Posts().Delete(ctx, p.ID))

	var n int
	require.NoError(t, db.conn.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n))
	assert.Equal(t, 0, n)
}

// Migrations run on every New; a file database opened twice must not fail.
func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meydan.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Users().Save(context.Background(), &model.User{ID: "u3", Name: "خالد عمر"}))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	u, err := db.Users().Get(context.Background(), "u3")
	require.NoError(t, err)
	assert.Equal(t, "خالد عمر", u.Name)
}

func TestNegativeCountersRejectedBySchema(t *testing.T) {
	db := newTestDB(t)
	_, err := db.conn.Exec(`INSERT INTO users (id, name, followers) VALUES ('x', 'x', -1)`)
	assert.Error(t, err)
}

func TestSharedCacheDSN(t *testing.T) {
	ctx := context.Background()
	open := func(dsn string) *DB {
		db, err := New(dsn)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	}

	a := open("file:shared_dsn_test?mode=memory&cache=shared")
	b := open("file:shared_dsn_test?mode=memory&cache=shared")
	other := open("file:shared_dsn_other?mode=memory&cache=shared")

	require.NoError(t, a.Posts().Create(ctx, &model.Post{ID: "p1", AuthorID: "user_2", Content: "x"}))

	_, err := b.Posts().Get(ctx, "p1")
	assert.NoError(t, err, "same name, same database")
	posts, err := other.Posts().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts, "a distinct name is isolated")
}
