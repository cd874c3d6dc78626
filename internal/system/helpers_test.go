package system

import (
	"testing"

	"github.com/l1jgo/geocoin/internal/core/event"
	"github.com/l1jgo/geocoin/internal/luck"
	"github.com/l1jgo/geocoin/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// tableLuck answers from a fixed table; unknown keys draw 0.99 so only
// listed tiles are eligible.
func tableLuck(table map[string]float64) luck.Oracle {
	return func(parts ...any) float64 {
		if v, ok := table[luck.Key(parts...)]; ok {
			return v
		}
		return 0.99
	}
}

func tableRules(table map[string]float64) world.DefaultRules {
	return world.DefaultRules{
		Luck:       tableLuck(table),
		Chance:     0.1,
		Multiplier: 3,
		Salt:       "seed",
	}
}

// countingRules records how often a tile's cache was minted.
type countingRules struct {
	world.SpawnRules
	minted map[world.Tile]int
}

func (r *countingRules) InitialCoins(t world.Tile) int {
	r.minted[t]++
	return r.SpawnRules.InitialCoins(t)
}

func newVisibility(t *testing.T, rules world.SpawnRules, radius int) (*VisibilitySystem, *world.State, *event.Bus) {
	t.Helper()
	st := world.NewState(world.Position{})
	bus := event.NewBus()
	vis := NewVisibilitySystem(st, rules, radius, bus, zap.NewNop())
	return vis, st, bus
}

func deliver(bus *event.Bus) {
	bus.SwapBuffers()
	bus.DispatchAll()
}

func requireTiles(t *testing.T, want, got []world.Tile) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		require.Equal(t, want[i], got[i], "tile %d", i)
	}
}
