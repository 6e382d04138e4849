package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background(), filepath.Join("..", "..", "..", "migrations", "001_init_snapshots.sql")))
	return repo
}

func TestSaveAndLatest(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, "s1", "/tmp/a.drawio", "<v1/>")
	require.NoError(t, err)
	id, err := repo.Save(ctx, "s1", "/tmp/b.drawio", "<v2/>")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	latest, err := repo.Latest(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "<v2/>", latest.XML)
	assert.Equal(t, "/tmp/b.drawio", latest.Path)
	assert.False(t, latest.CreatedAt.IsZero())
}

func TestLatestNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Latest(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBySession(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.Save(ctx, "s1", "/tmp/a.drawio", "<v1/>")
	require.NoError(t, err)
	_, err = repo.Save(ctx, "s2", "/tmp/x.drawio", "<other/>")
	require.NoError(t, err)

	snaps, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "s1", snaps[0].SessionID)
}
