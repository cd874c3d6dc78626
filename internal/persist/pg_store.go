package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/geocoin/internal/world"
)

// PostgresStore keeps sessions in normalized tables keyed by slot:
// one player_sessions row, one player_coins row per carried coin in
// inventory order, one cache_snapshots row per generated cache.
type PostgresStore struct {
	db   *DB
	slot string
}

func NewPostgresStore(db *DB, slot string) *PostgresStore {
	return &PostgresStore{db: db, slot: slot}
}

// Save replaces the slot's rows in one transaction (upsert + delete + bulk copy).
func (s *PostgresStore) Save(ctx context.Context, ss *world.SessionState) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("session begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO player_sessions (slot, lat, lng, saved_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (slot) DO UPDATE SET lat = EXCLUDED.lat, lng = EXCLUDED.lng, saved_at = now()`,
		s.slot, ss.Position.Lat, ss.Position.Lng,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM player_coins WHERE slot = $1`, s.slot); err != nil {
		return fmt.Errorf("clear coins: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cache_snapshots WHERE slot = $1`, s.slot); err != nil {
		return fmt.Errorf("clear caches: %w", err)
	}

	coinRows := make([][]any, 0, len(ss.Coins))
	for i, c := range ss.Coins {
		coinRows = append(coinRows, []any{s.slot, int32(i), c.Row, c.Col, int64(c.Serial)})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"player_coins"},
		[]string{"slot", "position", "coin_row", "coin_col", "serial"},
		pgx.CopyFromRows(coinRows),
	); err != nil {
		return fmt.Errorf("copy coins: %w", err)
	}

	tiles := make([]world.Tile, 0, len(ss.Caches))
	for t := range ss.Caches {
		tiles = append(tiles, t)
	}
	world.SortTiles(tiles)
	cacheRows := make([][]any, 0, len(tiles))
	for _, t := range tiles {
		cacheRows = append(cacheRows, []any{s.slot, t.Row, t.Col, []byte(ss.Caches[t])})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"cache_snapshots"},
		[]string{"slot", "tile_row", "tile_col", "memento"},
		pgx.CopyFromRows(cacheRows),
	); err != nil {
		return fmt.Errorf("copy caches: %w", err)
	}

	return tx.Commit(ctx)
}

// Load reads the slot back, validating every memento.
func (s *PostgresStore) Load(ctx context.Context) (*world.SessionState, error) {
	ss := &world.SessionState{
		Coins:  []world.Coin{},
		Caches: make(map[world.Tile]world.Memento),
	}
	err := s.db.Pool.QueryRow(ctx,
		`SELECT lat, lng FROM player_sessions WHERE slot = $1`, s.slot,
	).Scan(&ss.Position.Lat, &ss.Position.Lng)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT coin_row, coin_col, serial FROM player_coins WHERE slot = $1 ORDER BY position`, s.slot,
	)
	if err != nil {
		return nil, fmt.Errorf("load coins: %w", err)
	}
	for rows.Next() {
		var c world.Coin
		var serial int64
		if err := rows.Scan(&c.Row, &c.Col, &serial); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan coin: %w", err)
		}
		if serial < 0 {
			rows.Close()
			return nil, fmt.Errorf("%w: negative serial", ErrCorruptSession)
		}
		c.Serial = uint64(serial)
		ss.Coins = append(ss.Coins, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load coins: %w", err)
	}

	rows, err = s.db.Pool.Query(ctx,
		`SELECT tile_row, tile_col, memento FROM cache_snapshots WHERE slot = $1`, s.slot,
	)
	if err != nil {
		return nil, fmt.Errorf("load caches: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t world.Tile
		var m []byte
		if err := rows.Scan(&t.Row, &t.Col, &m); err != nil {
			return nil, fmt.Errorf("scan cache: %w", err)
		}
		if err := addCache(ss, t, m); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load caches: %w", err)
	}
	return ss, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
