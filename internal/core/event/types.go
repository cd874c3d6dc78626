package event

import "github.com/l1jgo/geocoin/internal/world"

// PlayerMoved is emitted after the visible window has been rebuilt.
type PlayerMoved struct {
	From     world.Tile
	To       world.Tile
	Position world.Position
}

// CacheMaterialized is emitted when a cache enters the visible window.
// Generated is true the first time the tile's cache was ever minted.
type CacheMaterialized struct {
	Tile      world.Tile
	Handle    uint64
	Generated bool
}

// CacheDematerialized is emitted after a cache's memento has been stored
// and its handle released.
type CacheDematerialized struct {
	Tile   world.Tile
	Handle uint64
}

// InventoryChanged is emitted after a coin moved between inventories.
// Purely observational.
type InventoryChanged struct {
	Coin     world.Coin
	FromTile *world.Tile // nil when the player's inventory was the source
	ToTile   *world.Tile // nil when the player's inventory was the target
}

// SessionReset is emitted after the whole state was replaced.
type SessionReset struct {
	Restored bool // true when the new state came from a saved session
}

// SessionSaved is emitted by autosave after a successful store write.
type SessionSaved struct {
	Caches int
	Coins  int
}
