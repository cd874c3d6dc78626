package world

import (
	"errors"
	"fmt"
)

// ErrCorruptMemento is returned when a memento cannot be decoded or
// violates the cache invariants.
var ErrCorruptMemento = errors.New("corrupt cache memento")

// Memento is the serialized, restorable state of one cache.
type Memento []byte

// Cache is the coin inventory of one tile plus its minting counter.
type Cache struct {
	Tile       Tile
	Inv        *Inventory
	nextSerial uint64
}

// NewCache creates an empty cache at t.
func NewCache(t Tile) *Cache {
	return &Cache{Tile: t, Inv: NewInventory()}
}

// NextSerial returns the serial the next minted coin will carry.
func (c *Cache) NextSerial() uint64 {
	return c.nextSerial
}

// Mint creates n new coins originating at this cache's tile.
func (c *Cache) Mint(n int) []Coin {
	minted := make([]Coin, 0, n)
	for k := 0; k < n; k++ {
		coin := Coin{Row: c.Tile.Row, Col: c.Tile.Col, Serial: c.nextSerial}
		c.nextSerial++
		c.Inv.Add(coin)
		minted = append(minted, coin)
	}
	return minted
}

// Receive adds a coin from elsewhere. A coin naming this tile with a serial
// the counter has not reached yet moves the counter past it, so the
// memento stays restorable and later mints never reuse the serial.
func (c *Cache) Receive(coin Coin) {
	if coin.Origin() == c.Tile && coin.Serial >= c.nextSerial {
		c.nextSerial = coin.Serial + 1
	}
	c.Inv.Add(coin)
}

type cacheMemento struct {
	Row        int64  `cbor:"1,keyasint"`
	Col        int64  `cbor:"2,keyasint"`
	Coins      []Coin `cbor:"3,keyasint"`
	NextSerial uint64 `cbor:"4,keyasint"`
}

// Memento serializes the cache's full state.
func (c *Cache) Memento() (Memento, error) {
	m := cacheMemento{
		Row:        c.Tile.Row,
		Col:        c.Tile.Col,
		Coins:      c.Inv.Coins,
		NextSerial: c.nextSerial,
	}
	if m.Coins == nil {
		m.Coins = []Coin{}
	}
	data, err := Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode cache %s: %w", c.Tile, err)
	}
	return data, nil
}

// RestoreCache rebuilds a cache from a memento and checks that every
// coin minted here carries a serial below the counter.
func RestoreCache(m Memento) (*Cache, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrCorruptMemento)
	}
	var cm cacheMemento
	if err := Unmarshal(m, &cm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMemento, err)
	}
	c := &Cache{
		Tile:       Tile{Row: cm.Row, Col: cm.Col},
		Inv:        &Inventory{Coins: make([]Coin, 0, len(cm.Coins))},
		nextSerial: cm.NextSerial,
	}
	for _, coin := range cm.Coins {
		if coin.Origin() == c.Tile && coin.Serial >= c.nextSerial {
			return nil, fmt.Errorf("%w: coin %s at or above serial counter %d", ErrCorruptMemento, coin.Label(), c.nextSerial)
		}
		c.Inv.Add(coin)
	}
	return c, nil
}
