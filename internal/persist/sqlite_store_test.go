package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTripAndSlots(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "geocoin.db")

	a, err := OpenSQLite(ctx, path, "alpha")
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)
	_, err = a.SavedAt(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	ss := sampleSession(t)
	require.NoError(t, a.Save(ctx, ss))
	// Second save upserts in place.
	require.NoError(t, a.Save(ctx, ss))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, ss.Position, got.Position)
	require.Equal(t, ss.Coins, got.Coins)
	require.Equal(t, ss.Caches, got.Caches)

	at, err := a.SavedAt(ctx)
	require.NoError(t, err)
	require.False(t, at.IsZero())

	// Another slot in the same database is independent.
	b, err := OpenSQLite(ctx, path, "beta")
	require.NoError(t, err)
	defer b.Close()
	_, err = b.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSQLiteStoreCorruptBlob(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "geocoin.db"), "default")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (slot, blob, saved_at) VALUES (?, ?, ?)`, "default", []byte{0x01, 0x02}, 0)
	require.NoError(t, err)

	_, err = s.Load(ctx)
	require.ErrorIs(t, err, ErrCorruptSession)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ", "default")
	require.Error(t, err)
}
