package system

import (
	"fmt"

	"github.com/l1jgo/geocoin/internal/core/event"
	"github.com/l1jgo/geocoin/internal/world"
	"go.uber.org/zap"
)

// Handle identifies one materialization of a cache. A tile that leaves
// and re-enters the window gets a new handle.
type Handle uint64

// CacheView is the read-only picture of a live cache handed to renderers.
type CacheView struct {
	Tile       world.Tile
	Handle     Handle
	Coins      []world.Coin
	NextSerial uint64
}

type liveCache struct {
	cache  *world.Cache
	handle Handle
}

// VisibilitySystem owns the visible window and the caches materialized in
// it. Every tile is either Invisible (memento in the store, or never
// eligible) or Visible (live cache + handle).
//
// Refresh first dematerializes tiles that left the window, then
// materializes tiles that entered it. A cache only counts as Invisible
// once its memento is in the store, so nothing in flight is dropped.
// Accessed only from the game loop goroutine, no locks.
type VisibilitySystem struct {
	state  *world.State
	rules  world.SpawnRules
	radius int
	bus    *event.Bus
	log    *zap.Logger

	window     map[world.Tile]struct{}
	live       map[world.Tile]*liveCache
	nextHandle Handle
	center     world.Tile
}

func NewVisibilitySystem(st *world.State, rules world.SpawnRules, radius int, bus *event.Bus, log *zap.Logger) *VisibilitySystem {
	return &VisibilitySystem{
		state:  st,
		rules:  rules,
		radius: radius,
		bus:    bus,
		log:    log,
		window: make(map[world.Tile]struct{}),
		live:   make(map[world.Tile]*liveCache),
	}
}

// Refresh rebuilds the window around center. On return the window equals
// Neighborhood(center, radius) exactly. On error nothing has changed.
func (s *VisibilitySystem) Refresh(center world.Tile) error {
	p, err := s.plan(s.state, s.window, s.live, center)
	if err != nil {
		return err
	}
	s.commit(p, s.state)
	return nil
}

// Replace swaps in st and builds its window around center. Live caches of
// the old state are released without writing mementos. On error the old
// state stays in place.
func (s *VisibilitySystem) Replace(st *world.State, center world.Tile) error {
	p, err := s.plan(st, nil, nil, center)
	if err != nil {
		return err
	}
	p.leaving = s.releaseAll()
	s.window = make(map[world.Tile]struct{})
	s.live = make(map[world.Tile]*liveCache)
	s.commit(p, st)
	return nil
}

type leavingCache struct {
	tile    world.Tile
	handle  Handle
	memento world.Memento // nil: released without storing
}

type enteringCache struct {
	tile      world.Tile
	cache     *world.Cache
	memento   world.Memento // set for first-time generation
	generated bool
}

type refreshPlan struct {
	center   world.Tile
	next     map[world.Tile]struct{}
	leaving  []leavingCache
	entering []enteringCache
}

// plan works out every memento and cache the refresh needs without
// touching any state, so a failure leaves the window as it was.
func (s *VisibilitySystem) plan(st *world.State, window map[world.Tile]struct{}, live map[world.Tile]*liveCache, center world.Tile) (*refreshPlan, error) {
	p := &refreshPlan{center: center, next: world.Window(center, s.radius)}

	leaving := make([]world.Tile, 0)
	for t := range window {
		if _, still := p.next[t]; !still {
			leaving = append(leaving, t)
		}
	}
	world.SortTiles(leaving)
	for _, t := range leaving {
		lc, ok := live[t]
		if !ok {
			continue // ineligible tile: nothing was rendered
		}
		m, err := lc.cache.Memento()
		if err != nil {
			return nil, fmt.Errorf("dematerialize %s: %w", t, err)
		}
		p.leaving = append(p.leaving, leavingCache{tile: t, handle: lc.handle, memento: m})
	}

	entering := make([]world.Tile, 0)
	for t := range p.next {
		if _, known := window[t]; !known {
			entering = append(entering, t)
		}
	}
	world.SortTiles(entering)
	for _, t := range entering {
		if _, dup := live[t]; dup {
			continue
		}
		ec, ok, err := s.prepare(st, t)
		if err != nil {
			return nil, err
		}
		if ok {
			p.entering = append(p.entering, ec)
		}
	}
	return p, nil
}

// prepare restores a stored cache, or generates one on first sight.
// An ineligible tile stays Invisible.
func (s *VisibilitySystem) prepare(st *world.State, t world.Tile) (enteringCache, bool, error) {
	if m, ok := st.Caches.Get(t); ok {
		c, err := world.RestoreCache(m)
		if err != nil {
			return enteringCache{}, false, fmt.Errorf("materialize %s: %w", t, err)
		}
		return enteringCache{tile: t, cache: c}, true, nil
	}
	c := world.Generate(s.rules, t)
	if c == nil {
		return enteringCache{}, false, nil
	}
	m, err := c.Memento()
	if err != nil {
		return enteringCache{}, false, fmt.Errorf("generate %s: %w", t, err)
	}
	return enteringCache{tile: t, cache: c, memento: m, generated: true}, true, nil
}

// commit applies a plan. It cannot fail.
func (s *VisibilitySystem) commit(p *refreshPlan, st *world.State) {
	s.state = st
	for _, lc := range p.leaving {
		if lc.memento != nil {
			st.Caches.Put(lc.tile, lc.memento)
		}
		delete(s.live, lc.tile)
		event.Emit(s.bus, event.CacheDematerialized{Tile: lc.tile, Handle: uint64(lc.handle)})
	}
	entered := 0
	for t := range p.next {
		if _, known := s.window[t]; !known {
			entered++
		}
	}
	left := len(s.window) + entered - len(p.next)
	s.window = p.next

	for _, ec := range p.entering {
		if ec.generated {
			// Existence is permanent from the first sighting.
			st.Caches.Put(ec.tile, ec.memento)
		}
		s.nextHandle++
		s.live[ec.tile] = &liveCache{cache: ec.cache, handle: s.nextHandle}
		event.Emit(s.bus, event.CacheMaterialized{Tile: ec.tile, Handle: uint64(s.nextHandle), Generated: ec.generated})
	}

	s.center = p.center
	if left > 0 || entered > 0 {
		s.log.Debug("視野更新",
			zap.Stringer("center", p.center),
			zap.Int("left", left),
			zap.Int("entered", entered),
			zap.Int("live", len(s.live)))
	}
}

// releaseAll lists every live cache for release without storing, in tile order.
func (s *VisibilitySystem) releaseAll() []leavingCache {
	tiles := make([]world.Tile, 0, len(s.live))
	for t := range s.live {
		tiles = append(tiles, t)
	}
	world.SortTiles(tiles)
	out := make([]leavingCache, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, leavingCache{tile: t, handle: s.live[t].handle})
	}
	return out
}

// Flush writes every live cache's current memento into the store without
// releasing anything. Called before the state is exported.
func (s *VisibilitySystem) Flush() error {
	for t, lc := range s.live {
		m, err := lc.cache.Memento()
		if err != nil {
			return fmt.Errorf("flush %s: %w", t, err)
		}
		s.state.Caches.Put(t, m)
	}
	return nil
}

// Reset drops the window and every handle without writing mementos and
// swaps in a new state. Used when the session is replaced wholesale.
func (s *VisibilitySystem) Reset(st *world.State) {
	for _, lc := range s.releaseAll() {
		event.Emit(s.bus, event.CacheDematerialized{Tile: lc.tile, Handle: uint64(lc.handle)})
	}
	s.state = st
	s.window = make(map[world.Tile]struct{})
	s.live = make(map[world.Tile]*liveCache)
}

// Active returns the live cache at t.
func (s *VisibilitySystem) Active(t world.Tile) (*world.Cache, Handle, bool) {
	lc, ok := s.live[t]
	if !ok {
		return nil, 0, false
	}
	return lc.cache, lc.handle, true
}

// Visible lists live caches in row-major tile order.
func (s *VisibilitySystem) Visible() []CacheView {
	tiles := make([]world.Tile, 0, len(s.live))
	for t := range s.live {
		tiles = append(tiles, t)
	}
	world.SortTiles(tiles)
	views := make([]CacheView, 0, len(tiles))
	for _, t := range tiles {
		lc := s.live[t]
		views = append(views, CacheView{
			Tile:       t,
			Handle:     lc.handle,
			Coins:      lc.cache.Inv.Snapshot(),
			NextSerial: lc.cache.NextSerial(),
		})
	}
	return views
}

// Window returns the tiles of the current window in row-major order.
func (s *VisibilitySystem) Window() []world.Tile {
	tiles := make([]world.Tile, 0, len(s.window))
	for t := range s.window {
		tiles = append(tiles, t)
	}
	world.SortTiles(tiles)
	return tiles
}

// InWindow reports whether t is inside the current window.
func (s *VisibilitySystem) InWindow(t world.Tile) bool {
	_, ok := s.window[t]
	return ok
}

// Center returns the tile the window was last built around.
func (s *VisibilitySystem) Center() world.Tile {
	return s.center
}

// Radius returns the window radius in tiles.
func (s *VisibilitySystem) Radius() int {
	return s.radius
}
