package system

import (
	"testing"

	"github.com/l1jgo/geocoin/internal/core/event"
	"github.com/l1jgo/geocoin/internal/world"
	"github.com/stretchr/testify/require"
)

func TestRefreshWindowEqualsNeighborhood(t *testing.T) {
	vis, _, _ := newVisibility(t, tableRules(nil), 2)

	centers := []world.Tile{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 3, Col: -2}, {Row: -40, Col: 17}, {Row: -40, Col: 17}, {Row: 0, Col: 0}}
	for _, c := range centers {
		require.NoError(t, vis.Refresh(c))
		requireTiles(t, world.Neighborhood(c, 2), vis.Window())
		require.Equal(t, c, vis.Center())
		require.Len(t, vis.Window(), 25)
	}
}

func TestRefreshMaterializesOnlyEligibleTiles(t *testing.T) {
	rules := tableRules(map[string]float64{
		"1,1":      0.05,
		"1,1,seed": 0.7, // floor(0.7*3) = 2 coins
		"2,2":      0.5, // not eligible
	})
	vis, st, _ := newVisibility(t, rules, 1)

	require.NoError(t, vis.Refresh(world.Tile{Row: 1, Col: 1}))

	views := vis.Visible()
	require.Len(t, views, 1)
	require.Equal(t, world.Tile{Row: 1, Col: 1}, views[0].Tile)
	require.Equal(t, []world.Coin{{Row: 1, Col: 1, Serial: 0}, {Row: 1, Col: 1, Serial: 1}}, views[0].Coins)
	require.Equal(t, uint64(2), views[0].NextSerial)

	// generated caches are recorded immediately
	require.True(t, st.Caches.Has(world.Tile{Row: 1, Col: 1}))
	require.False(t, st.Caches.Has(world.Tile{Row: 2, Col: 2}))
	require.True(t, vis.InWindow(world.Tile{Row: 2, Col: 2}))
}

func TestLeaveAndReenterRestoresModifiedCache(t *testing.T) {
	home := world.Tile{Row: 5, Col: 5}
	rules := tableRules(map[string]float64{
		"5,5":      0.01,
		"5,5,seed": 0.9, // 2 coins
	})
	vis, st, bus := newVisibility(t, rules, 1)
	ledger := NewLedger(PolicyStrict, bus, nopLog())

	require.NoError(t, vis.Refresh(home))
	c, firstHandle, ok := vis.Active(home)
	require.True(t, ok)
	require.Equal(t, 2, c.Inv.Len())

	taken := world.Coin{Row: 5, Col: 5, Serial: 0}
	require.NoError(t, ledger.Transfer(taken, CacheAccount(c), PlayerAccount(st.Player)))
	require.Equal(t, 1, c.Inv.Len())

	// Walk far away: the cache leaves the window.
	require.NoError(t, vis.Refresh(world.Tile{Row: 50, Col: 50}))
	_, _, ok = vis.Active(home)
	require.False(t, ok)
	require.Empty(t, vis.Visible())

	m, ok := st.Caches.Get(home)
	require.True(t, ok)
	stored, err := world.RestoreCache(m)
	require.NoError(t, err)
	require.Equal(t, []world.Coin{{Row: 5, Col: 5, Serial: 1}}, stored.Inv.Snapshot())

	// Come back: the modified state is restored, not regenerated.
	require.NoError(t, vis.Refresh(home))
	again, secondHandle, ok := vis.Active(home)
	require.True(t, ok)
	require.Equal(t, []world.Coin{{Row: 5, Col: 5, Serial: 1}}, again.Inv.Snapshot())
	require.Equal(t, uint64(2), again.NextSerial())
	require.Greater(t, secondHandle, firstHandle)
	require.Equal(t, []world.Coin{taken}, st.Player.Inv.Snapshot())
}

func TestCacheGeneratedOnce(t *testing.T) {
	home := world.Tile{Row: 0, Col: 0}
	counter := &countingRules{
		SpawnRules: tableRules(map[string]float64{"0,0": 0.0, "0,0,seed": 0.4}),
		minted:     make(map[world.Tile]int),
	}
	vis, _, _ := newVisibility(t, counter, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, vis.Refresh(home))
		require.NoError(t, vis.Refresh(world.Tile{Row: 10, Col: 10}))
	}
	require.Equal(t, 1, counter.minted[home])
}

func TestRefreshEventsAndHandles(t *testing.T) {
	home := world.Tile{Row: 0, Col: 0}
	vis, _, bus := newVisibility(t, tableRules(map[string]float64{"0,0": 0.0}), 0)

	var mats []event.CacheMaterialized
	var demats []event.CacheDematerialized
	event.Subscribe(bus, func(e event.CacheMaterialized) { mats = append(mats, e) })
	event.Subscribe(bus, func(e event.CacheDematerialized) { demats = append(demats, e) })

	require.NoError(t, vis.Refresh(home))
	require.Empty(t, mats, "events wait for dispatch")
	deliver(bus)
	require.Len(t, mats, 1)
	require.True(t, mats[0].Generated)

	// Same center again: nothing changes, nothing is re-rendered.
	require.NoError(t, vis.Refresh(home))
	deliver(bus)
	require.Len(t, mats, 1)

	require.NoError(t, vis.Refresh(world.Tile{Row: 3, Col: 3}))
	require.NoError(t, vis.Refresh(home))
	deliver(bus)
	require.Len(t, demats, 1)
	require.Equal(t, mats[0].Handle, demats[0].Handle)
	require.Len(t, mats, 2)
	require.False(t, mats[1].Generated)
	require.NotEqual(t, mats[0].Handle, mats[1].Handle)
}

func TestFlushWritesLiveState(t *testing.T) {
	home := world.Tile{Row: 0, Col: 0}
	vis, st, _ := newVisibility(t, tableRules(map[string]float64{"0,0": 0.0, "0,0,seed": 0.0}), 0)
	require.NoError(t, vis.Refresh(home))

	c, h, ok := vis.Active(home)
	require.True(t, ok)
	require.True(t, c.Inv.IsEmpty())
	c.Inv.Add(world.Coin{Row: 7, Col: 7, Serial: 3})

	require.NoError(t, vis.Flush())
	m, _ := st.Caches.Get(home)
	restored, err := world.RestoreCache(m)
	require.NoError(t, err)
	require.Equal(t, []world.Coin{{Row: 7, Col: 7, Serial: 3}}, restored.Inv.Snapshot())

	// Flush keeps the cache live under the same handle.
	_, h2, ok := vis.Active(home)
	require.True(t, ok)
	require.Equal(t, h, h2)
}

func TestResetDropsWindow(t *testing.T) {
	home := world.Tile{Row: 0, Col: 0}
	vis, _, bus := newVisibility(t, tableRules(map[string]float64{"0,0": 0.0}), 1)
	require.NoError(t, vis.Refresh(home))
	deliver(bus)

	var demats int
	event.Subscribe(bus, func(event.CacheDematerialized) { demats++ })

	fresh := world.NewState(world.Position{})
	vis.Reset(fresh)
	deliver(bus)
	require.Equal(t, 1, demats)
	require.Empty(t, vis.Window())
	require.Empty(t, vis.Visible())

	// The new state has no memento yet, so the tile is generated again.
	require.NoError(t, vis.Refresh(home))
	require.True(t, fresh.Caches.Has(home))
	require.Len(t, vis.Visible(), 1)
}

func TestRefreshFailureLeavesWindowUntouched(t *testing.T) {
	home := world.Tile{Row: 0, Col: 0}
	bad := world.Tile{Row: 0, Col: 3}
	vis, st, bus := newVisibility(t, tableRules(map[string]float64{"0,0": 0.0}), 1)
	require.NoError(t, vis.Refresh(home))
	deliver(bus)
	_, handle, ok := vis.Active(home)
	require.True(t, ok)

	st.Caches.Put(bad, world.Memento{0xff})
	err := vis.Refresh(world.Tile{Row: 0, Col: 2})
	require.ErrorIs(t, err, world.ErrCorruptMemento)

	require.Equal(t, home, vis.Center())
	requireTiles(t, world.Neighborhood(home, 1), vis.Window())
	_, again, ok := vis.Active(home)
	require.True(t, ok)
	require.Equal(t, handle, again)
	require.Zero(t, bus.Pending())
}

func TestReplaceSwapsStateAtomically(t *testing.T) {
	home := world.Tile{Row: 0, Col: 0}
	vis, _, bus := newVisibility(t, tableRules(map[string]float64{"0,0": 0.0}), 1)
	require.NoError(t, vis.Refresh(home))
	deliver(bus)
	_, oldHandle, _ := vis.Active(home)

	broken := world.NewState(world.Position{})
	broken.Caches.Put(home, world.Memento{0x00})
	require.ErrorIs(t, vis.Replace(broken, home), world.ErrCorruptMemento)
	_, h, ok := vis.Active(home)
	require.True(t, ok)
	require.Equal(t, oldHandle, h)
	require.Zero(t, bus.Pending())

	var demats []event.CacheDematerialized
	event.Subscribe(bus, func(e event.CacheDematerialized) { demats = append(demats, e) })
	fresh := world.NewState(world.Position{})
	require.NoError(t, vis.Replace(fresh, home))
	deliver(bus)
	require.Equal(t, []event.CacheDematerialized{{Tile: home, Handle: uint64(oldHandle)}}, demats)
	_, h, ok = vis.Active(home)
	require.True(t, ok)
	require.Greater(t, h, oldHandle)
	require.True(t, fresh.Caches.Has(home))
	require.Len(t, vis.Window(), 9)
}
