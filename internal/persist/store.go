package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/geocoin/internal/config"
	"github.com/l1jgo/geocoin/internal/world"
	"go.uber.org/zap"
)

// Store keeps one saved session per slot.
// Load returns ErrNoSession when nothing was saved and ErrCorruptSession
// when what was saved cannot be trusted.
type Store interface {
	Load(ctx context.Context) (*world.SessionState, error)
	Save(ctx context.Context, ss *world.SessionState) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path, cfg.Slot)
	case "postgres":
		db, err := NewDB(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if err := RunPostgresMigrations(ctx, db.Pool); err != nil {
			db.Close()
			return nil, err
		}
		return NewPostgresStore(db, cfg.Slot), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
