package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Get(ctx, KeyToken)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Set(ctx, KeyToken, "abc"))
	require.NoError(t, db.Set(ctx, KeyToken, "def"))
	v, err := db.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.Equal(t, "def", v)

	require.NoError(t, db.Delete(ctx, KeyToken, "missing"))
	_, err = db.Get(ctx, KeyToken)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, KeyUser, `{"id":1}`))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	v, err := db.Get(ctx, KeyUser)
	require.NoError(t, err)
	require.Equal(t, `{"id":1}`, v)

	require.NoError(t, db.Clear(ctx))
	_, err = db.Get(ctx, KeyUser)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Set(context.Background(), "k", "v"))
}
