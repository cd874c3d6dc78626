package world

import "fmt"

// Coin is an individually numbered unit of value. Its identity is the
// minting tile plus serial and never changes as it moves between inventories.
type Coin struct {
	Row    int64  `cbor:"1,keyasint" yaml:"row"`
	Col    int64  `cbor:"2,keyasint" yaml:"col"`
	Serial uint64 `cbor:"3,keyasint" yaml:"serial"`
}

// Origin returns the tile that minted the coin.
func (c Coin) Origin() Tile {
	return Tile{Row: c.Row, Col: c.Col}
}

// Label is the display form "row:col#serial".
func (c Coin) Label() string {
	return fmt.Sprintf("%d:%d#%d", c.Row, c.Col, c.Serial)
}
