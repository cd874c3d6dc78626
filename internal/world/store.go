package world

// CacheStore owns the memento of every cache generated this session,
// keyed by tile. A tile with an entry has been generated and is never
// generated again. Accessed only from the game loop goroutine.
type CacheStore struct {
	snapshots map[Tile]Memento
}

// NewCacheStore creates an empty store.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		snapshots: make(map[Tile]Memento, 64),
	}
}

// Has reports whether a cache was ever generated at t.
func (s *CacheStore) Has(t Tile) bool {
	_, ok := s.snapshots[t]
	return ok
}

// Get returns a copy of the memento stored at t.
func (s *CacheStore) Get(t Tile) (Memento, bool) {
	m, ok := s.snapshots[t]
	if !ok {
		return nil, false
	}
	return cloneMemento(m), true
}

// Put stores a copy of m at t, replacing any previous memento.
func (s *CacheStore) Put(t Tile, m Memento) {
	s.snapshots[t] = cloneMemento(m)
}

// Len returns the number of caches ever generated.
func (s *CacheStore) Len() int {
	return len(s.snapshots)
}

// Tiles returns every stored tile in row-major order.
func (s *CacheStore) Tiles() []Tile {
	tiles := make([]Tile, 0, len(s.snapshots))
	for t := range s.snapshots {
		tiles = append(tiles, t)
	}
	SortTiles(tiles)
	return tiles
}

// Each calls fn for every stored memento in row-major tile order.
func (s *CacheStore) Each(fn func(Tile, Memento)) {
	for _, t := range s.Tiles() {
		fn(t, cloneMemento(s.snapshots[t]))
	}
}

// Reset forgets every cache.
func (s *CacheStore) Reset() {
	s.snapshots = make(map[Tile]Memento, 64)
}

func cloneMemento(m Memento) Memento {
	out := make(Memento, len(m))
	copy(out, m)
	return out
}
