package world

import (
	"fmt"
	"math"
	"sort"
)

// Tile is one cell of the integer lattice. Value type, safe as a map key.
type Tile struct {
	Row int64
	Col int64
}

func (t Tile) String() string {
	return fmt.Sprintf("%d,%d", t.Row, t.Col)
}

// Position is a continuous 2-D location (latitude/longitude degrees).
type Position struct {
	Lat float64
	Lng float64
}

// Direction is one of the four single-tile steps.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

var dirDelta = [4][2]int64{
	North: {1, 0},
	South: {-1, 0},
	East:  {0, 1},
	West:  {0, -1},
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "unknown"
}

// Grid maps continuous positions onto tiles of a fixed size.
type Grid struct {
	TileDegrees float64
}

func NewGrid(tileDegrees float64) Grid {
	return Grid{TileDegrees: tileDegrees}
}

// TileOf floors each axis. Flooring (not truncation or rounding) keeps
// tiles contiguous across zero: -0.00005 with size 1e-4 is row -1.
func (g Grid) TileOf(p Position) Tile {
	return Tile{
		Row: int64(math.Floor(p.Lat / g.TileDegrees)),
		Col: int64(math.Floor(p.Lng / g.TileDegrees)),
	}
}

// Origin returns the south-west corner of a tile.
func (g Grid) Origin(t Tile) Position {
	return Position{
		Lat: float64(t.Row) * g.TileDegrees,
		Lng: float64(t.Col) * g.TileDegrees,
	}
}

// Step moves p exactly one tile in direction d.
func (g Grid) Step(p Position, d Direction) Position {
	if d < North || d > West {
		return p
	}
	delta := dirDelta[d]
	return Position{
		Lat: p.Lat + float64(delta[0])*g.TileDegrees,
		Lng: p.Lng + float64(delta[1])*g.TileDegrees,
	}
}

// Neighborhood returns the (2r+1)² tiles around center in row-major order,
// both offsets in [-radius, radius] inclusive.
func Neighborhood(center Tile, radius int) []Tile {
	if radius < 0 {
		return nil
	}
	r := int64(radius)
	side := 2*radius + 1
	result := make([]Tile, 0, side*side)
	for dr := -r; dr <= r; dr++ {
		for dc := -r; dc <= r; dc++ {
			result = append(result, Tile{Row: center.Row + dr, Col: center.Col + dc})
		}
	}
	return result
}

// Window is Neighborhood as a set.
func Window(center Tile, radius int) map[Tile]struct{} {
	tiles := Neighborhood(center, radius)
	set := make(map[Tile]struct{}, len(tiles))
	for _, t := range tiles {
		set[t] = struct{}{}
	}
	return set
}

// SortTiles orders tiles row-major so iteration over tile sets is stable.
func SortTiles(tiles []Tile) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Row != tiles[j].Row {
			return tiles[i].Row < tiles[j].Row
		}
		return tiles[i].Col < tiles[j].Col
	})
}
