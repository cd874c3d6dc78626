package world

// Player holds the in-memory state of the single local player.
type Player struct {
	Pos Position
	Inv *Inventory
}

// NewPlayer creates a player at pos with an empty inventory.
func NewPlayer(pos Position) *Player {
	return &Player{Pos: pos, Inv: NewInventory()}
}

// State is the whole mutable game state: the player plus every cache
// memento. It is built at session start, mutated only by the visibility
// and transfer systems, and replaced wholesale on reset.
// Accessed only from the game loop goroutine, no locks needed.
type State struct {
	Player *Player
	Caches *CacheStore
}

// NewState creates a fresh session with the player at start.
func NewState(start Position) *State {
	return &State{
		Player: NewPlayer(start),
		Caches: NewCacheStore(),
	}
}

// SessionState is the storable form of a State.
type SessionState struct {
	Position Position
	Coins    []Coin
	Caches   map[Tile]Memento
}

// Export copies the state into its storable form. Live caches must be
// flushed into the store first so their mementos are current.
func (s *State) Export() *SessionState {
	out := &SessionState{
		Position: s.Player.Pos,
		Coins:    s.Player.Inv.Snapshot(),
		Caches:   make(map[Tile]Memento, s.Caches.Len()),
	}
	s.Caches.Each(func(t Tile, m Memento) {
		out.Caches[t] = m
	})
	return out
}

// ImportState rebuilds a State from its storable form.
func ImportState(ss *SessionState) *State {
	st := NewState(ss.Position)
	for _, c := range ss.Coins {
		st.Player.Inv.Add(c)
	}
	for t, m := range ss.Caches {
		st.Caches.Put(t, m)
	}
	return st
}

// TotalCoins counts the player's coins plus every coin in the given
// mementos. Used to check conservation.
func (ss *SessionState) TotalCoins() (int, error) {
	total := len(ss.Coins)
	for _, m := range ss.Caches {
		c, err := RestoreCache(m)
		if err != nil {
			return 0, err
		}
		total += c.Inv.Len()
	}
	return total, nil
}
