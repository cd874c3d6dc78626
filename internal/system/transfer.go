package system

import (
	"errors"
	"fmt"

	"github.com/l1jgo/geocoin/internal/core/event"
	"github.com/l1jgo/geocoin/internal/world"
	"go.uber.org/zap"
)

// ErrCoinNotFound is returned by a strict ledger when the source
// inventory does not hold the coin being moved.
var ErrCoinNotFound = errors.New("coin not in source inventory")

// TransferPolicy decides what happens when the source misses the coin.
type TransferPolicy int

const (
	// PolicyStrict rejects the transfer and changes nothing.
	PolicyStrict TransferPolicy = iota
	// PolicyLegacy appends the coin to the target anyway, as the first
	// versions of the game did. Breaks conservation; kept for replaying
	// old behaviour only.
	PolicyLegacy
)

// ParseTransferPolicy maps config values ("strict", "legacy").
func ParseTransferPolicy(s string) (TransferPolicy, error) {
	switch s {
	case "", "strict":
		return PolicyStrict, nil
	case "legacy":
		return PolicyLegacy, nil
	}
	return PolicyStrict, fmt.Errorf("unknown transfer policy %q", s)
}

func (p TransferPolicy) String() string {
	if p == PolicyLegacy {
		return "legacy"
	}
	return "strict"
}

// Account names one side of a transfer. Tile is nil for the player.
type Account struct {
	Inv   *world.Inventory
	Tile  *world.Tile
	cache *world.Cache
}

// PlayerAccount wraps the player's inventory.
func PlayerAccount(p *world.Player) Account {
	return Account{Inv: p.Inv}
}

// CacheAccount wraps a live cache's inventory.
func CacheAccount(c *world.Cache) Account {
	t := c.Tile
	return Account{Inv: c.Inv, Tile: &t, cache: c}
}

func (a Account) add(coin world.Coin) {
	if a.cache != nil {
		a.cache.Receive(coin)
		return
	}
	a.Inv.Add(coin)
}

// Ledger moves single coins between inventories by identity
// (origin tile + serial), never by position.
type Ledger struct {
	policy TransferPolicy
	bus    *event.Bus
	log    *zap.Logger
}

func NewLedger(policy TransferPolicy, bus *event.Bus, log *zap.Logger) *Ledger {
	return &Ledger{policy: policy, bus: bus, log: log}
}

// Policy returns the configured miss policy.
func (l *Ledger) Policy() TransferPolicy {
	return l.policy
}

// Transfer removes the first coin matching coin's identity from `from`
// and appends it to `to`. The count over all inventories is unchanged.
func (l *Ledger) Transfer(coin world.Coin, from, to Account) error {
	if !from.Inv.Remove(coin) {
		if l.policy == PolicyStrict {
			return fmt.Errorf("transfer %s: %w", coin.Label(), ErrCoinNotFound)
		}
		l.log.Warn("舊版轉移：來源沒有此硬幣，仍加入目標",
			zap.String("coin", coin.Label()))
	}
	to.add(coin)
	event.Emit(l.bus, event.InventoryChanged{Coin: coin, FromTile: from.Tile, ToTile: to.Tile})
	return nil
}
