package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/l1jgo/geocoin/internal/system"
	"github.com/l1jgo/geocoin/internal/world"
)

// Glyph is what one tile of the board shows.
type Glyph int

const (
	GlyphEmpty     Glyph = iota // tile without a cache
	GlyphCache                  // cache holding coins
	GlyphDrained                // cache with no coins left
	GlyphPlayer                 // player on a tile without a cache
	GlyphPlayerHit              // player standing on a cache
)

var glyphRunes = [...]rune{
	GlyphEmpty:     '·',
	GlyphCache:     '$',
	GlyphDrained:   'o',
	GlyphPlayer:    '@',
	GlyphPlayerHit: '&',
}

var glyphStyles = [...]tcell.Style{
	GlyphEmpty:     tcell.StyleDefault.Foreground(tcell.ColorGray),
	GlyphCache:     tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true),
	GlyphDrained:   tcell.StyleDefault.Foreground(tcell.ColorOlive),
	GlyphPlayer:    tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true),
	GlyphPlayerHit: tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true),
}

func (g Glyph) Rune() rune { return glyphRunes[g] }

// Board is the visible window laid out for the screen: row 0 is the
// northern edge, column 0 the western edge.
type Board struct {
	Center world.Tile
	Radius int
	Cells  [][]Glyph
}

// BuildBoard lays out the (2r+1)² window around center.
func BuildBoard(center world.Tile, radius int, caches []system.CacheView) Board {
	side := 2*radius + 1
	b := Board{Center: center, Radius: radius, Cells: make([][]Glyph, side)}
	for y := range b.Cells {
		b.Cells[y] = make([]Glyph, side)
	}
	for _, c := range caches {
		x, y, ok := b.Cell(c.Tile)
		if !ok {
			continue
		}
		if len(c.Coins) > 0 {
			b.Cells[y][x] = GlyphCache
		} else {
			b.Cells[y][x] = GlyphDrained
		}
	}
	mid := radius
	if b.Cells[mid][mid] == GlyphEmpty {
		b.Cells[mid][mid] = GlyphPlayer
	} else {
		b.Cells[mid][mid] = GlyphPlayerHit
	}
	return b
}

// Cell maps a tile to board coordinates.
func (b Board) Cell(t world.Tile) (x, y int, ok bool) {
	dr := t.Row - b.Center.Row
	dc := t.Col - b.Center.Col
	r := int64(b.Radius)
	if dr < -r || dr > r || dc < -r || dc > r {
		return 0, 0, false
	}
	return int(dc + r), int(r - dr), true
}

// Tile is the inverse of Cell.
func (b Board) Tile(x, y int) world.Tile {
	return world.Tile{
		Row: b.Center.Row + int64(b.Radius-y),
		Col: b.Center.Col + int64(x-b.Radius),
	}
}

// String renders the board as text, one line per row.
func (b Board) String() string {
	out := make([]rune, 0, len(b.Cells)*(len(b.Cells)+1))
	for _, row := range b.Cells {
		for _, g := range row {
			out = append(out, g.Rune())
		}
		out = append(out, '\n')
	}
	return string(out)
}
