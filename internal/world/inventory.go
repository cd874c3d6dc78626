package world

// Inventory holds an ordered list of coins. Order is display order only.
// Accessed only from the game loop goroutine.
type Inventory struct {
	Coins []Coin
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Coins: make([]Coin, 0, 8),
	}
}

// Len returns the number of coins held.
func (inv *Inventory) Len() int {
	return len(inv.Coins)
}

// IsEmpty reports whether the inventory holds no coins.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.Coins) == 0
}

// IndexOf returns the position of the first coin with the same identity, or -1.
func (inv *Inventory) IndexOf(coin Coin) int {
	for i, c := range inv.Coins {
		if c == coin {
			return i
		}
	}
	return -1
}

// Contains reports whether a coin with this identity is held.
func (inv *Inventory) Contains(coin Coin) bool {
	return inv.IndexOf(coin) >= 0
}

// Add appends a coin.
func (inv *Inventory) Add(coin Coin) {
	inv.Coins = append(inv.Coins, coin)
}

// Remove drops the first coin with the same identity.
// Returns false if no such coin was held.
func (inv *Inventory) Remove(coin Coin) bool {
	i := inv.IndexOf(coin)
	if i < 0 {
		return false
	}
	inv.Coins = append(inv.Coins[:i], inv.Coins[i+1:]...)
	return true
}

// Snapshot returns a copy safe to hand to readers.
func (inv *Inventory) Snapshot() []Coin {
	out := make([]Coin, len(inv.Coins))
	copy(out, inv.Coins)
	return out
}

// Clear empties the inventory.
func (inv *Inventory) Clear() {
	inv.Coins = inv.Coins[:0]
}
