package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/geocoin/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "geocoin.sav")
	s := NewFileStore(path)
	defer s.Close()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	ss := sampleSession(t)
	require.NoError(t, s.Save(ctx, ss))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, ss.Position, got.Position)
	require.Equal(t, ss.Coins, got.Coins)
	require.Equal(t, ss.Caches, got.Caches)

	// Overwrite leaves no temp files behind.
	require.NoError(t, s.Save(ctx, got))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geocoin.sav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a save"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptSession)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err = NewFileStore(path).Load(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := Open(ctx, config.StorageConfig{Driver: "file", Path: filepath.Join(dir, "a.sav")}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, fs)
	require.NoError(t, fs.Close())

	ls, err := Open(ctx, config.StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "a.db"), Slot: "x"}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, ls)
	require.NoError(t, ls.Close())

	_, err = Open(ctx, config.StorageConfig{Driver: "tape"}, zap.NewNop())
	require.Error(t, err)
}
