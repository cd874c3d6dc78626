package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTileOfFloorsTowardNegativeInfinity(t *testing.T) {
	g := NewGrid(1e-4)
	tests := []struct {
		name string
		pos  Position
		want Tile
	}{
		{"origin", Position{0, 0}, Tile{0, 0}},
		{"inside first tile", Position{0.00005, 0.00009}, Tile{0, 0}},
		{"just below zero", Position{-0.00005, -0.00001}, Tile{-1, -1}},
		{"deep negative", Position{-0.00025, 0.00035}, Tile{-3, 3}},
		{"classroom", Position{36.98949379578401, -122.06277128548504}, Tile{369894, -1220628}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, g.TileOf(tt.pos))
		})
	}
}

func TestTileOfUnitGridExactBoundaries(t *testing.T) {
	g := NewGrid(1)
	require.Equal(t, Tile{-1, -1}, g.TileOf(Position{-0.5, -1}))
	require.Equal(t, Tile{-2, 2}, g.TileOf(Position{-1.0001, 2}))
	require.Equal(t, Tile{1, 0}, g.TileOf(Position{1, 0.999}))
}

func TestNeighborhoodInclusiveSquare(t *testing.T) {
	center := Tile{Row: -2, Col: 7}
	for radius := 0; radius <= 4; radius++ {
		tiles := Neighborhood(center, radius)
		side := 2*radius + 1
		require.Len(t, tiles, side*side)

		set := Window(center, radius)
		require.Len(t, set, side*side)
		for _, tl := range tiles {
			dr := tl.Row - center.Row
			dc := tl.Col - center.Col
			require.LessOrEqual(t, abs64(dr), int64(radius))
			require.LessOrEqual(t, abs64(dc), int64(radius))
		}
		_, hasMin := set[Tile{center.Row - int64(radius), center.Col - int64(radius)}]
		_, hasMax := set[Tile{center.Row + int64(radius), center.Col + int64(radius)}]
		require.True(t, hasMin)
		require.True(t, hasMax)
	}
	require.Nil(t, Neighborhood(center, -1))
}

func TestStepMovesOneTile(t *testing.T) {
	g := NewGrid(1)
	start := Position{Lat: 0.5, Lng: 0.5}
	require.Equal(t, Tile{1, 0}, g.TileOf(g.Step(start, North)))
	require.Equal(t, Tile{-1, 0}, g.TileOf(g.Step(start, South)))
	require.Equal(t, Tile{0, 1}, g.TileOf(g.Step(start, East)))
	require.Equal(t, Tile{0, -1}, g.TileOf(g.Step(start, West)))
	require.Equal(t, start, g.Step(start, Direction(9)))
}

func TestSortTilesRowMajor(t *testing.T) {
	tiles := []Tile{{1, 0}, {0, 2}, {0, -1}, {-1, 5}}
	SortTiles(tiles)
	require.Equal(t, []Tile{{-1, 5}, {0, -1}, {0, 2}, {1, 0}}, tiles)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
