package system

import (
	"context"
	"errors"
	"testing"

	"github.com/l1jgo/geocoin/internal/core/event"
	coresys "github.com/l1jgo/geocoin/internal/core/system"
	"github.com/l1jgo/geocoin/internal/world"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	dirty bool
	state *world.SessionState
}

func (f *fakeSource) Snapshot() (*world.SessionState, error) { return f.state, nil }
func (f *fakeSource) Dirty() bool                            { return f.dirty }
func (f *fakeSource) MarkClean()                             { f.dirty = false }

type memStore struct {
	saves int
	last  *world.SessionState
	err   error
}

func (m *memStore) Load(context.Context) (*world.SessionState, error) { return m.last, nil }
func (m *memStore) Save(_ context.Context, ss *world.SessionState) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.last = ss
	return nil
}
func (m *memStore) Close() error { return nil }

func TestAutosaveEveryNCommandsWhenDirty(t *testing.T) {
	src := &fakeSource{state: &world.SessionState{Coins: []world.Coin{{Serial: 1}}}}
	store := &memStore{}
	bus := event.NewBus()
	sys := NewPersistenceSystem(src, store, bus, nopLog(), 3)

	var saved []event.SessionSaved
	event.Subscribe(bus, func(e event.SessionSaved) { saved = append(saved, e) })

	src.dirty = true
	sys.Update()
	sys.Update()
	require.Zero(t, store.saves)
	sys.Update()
	require.Equal(t, 1, store.saves)
	require.False(t, src.dirty)

	// Clean session: the interval passes without a write.
	for i := 0; i < 3; i++ {
		sys.Update()
	}
	require.Equal(t, 1, store.saves)

	deliver(bus)
	require.Equal(t, []event.SessionSaved{{Caches: 0, Coins: 1}}, saved)
}

func TestAutosaveDisabled(t *testing.T) {
	src := &fakeSource{dirty: true, state: &world.SessionState{}}
	store := &memStore{}
	sys := NewPersistenceSystem(src, store, event.NewBus(), nopLog(), 0)
	for i := 0; i < 10; i++ {
		sys.Update()
	}
	require.Zero(t, store.saves)
	require.Equal(t, coresys.PhasePersist, sys.Phase())
}

func TestSaveNowKeepsDirtyOnFailure(t *testing.T) {
	src := &fakeSource{dirty: true, state: &world.SessionState{}}
	boom := errors.New("disk full")
	sys := NewPersistenceSystem(src, &memStore{err: boom}, event.NewBus(), nopLog(), 1)

	require.ErrorIs(t, sys.SaveNow(), boom)
	require.True(t, src.dirty)
}

func TestEventDispatchSystem(t *testing.T) {
	bus := event.NewBus()
	var got []event.SessionReset
	event.Subscribe(bus, func(e event.SessionReset) { got = append(got, e) })
	event.Emit(bus, event.SessionReset{Restored: true})

	sys := NewEventDispatchSystem(bus)
	require.Equal(t, coresys.PhaseOutput, sys.Phase())
	sys.Update()
	require.Equal(t, []event.SessionReset{{Restored: true}}, got)
}
