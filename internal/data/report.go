package data

import (
	"fmt"
	"io"
	"os"

	"github.com/l1jgo/geocoin/internal/world"
	"gopkg.in/yaml.v3"
)

// SessionReport is the human-readable dump of a saved session.
type SessionReport struct {
	Player     PlayerEntry  `yaml:"player"`
	TotalCoins int          `yaml:"total_coins"`
	Caches     []CacheEntry `yaml:"caches"`
}

// PlayerEntry describes the player's position and inventory.
type PlayerEntry struct {
	Lat   float64  `yaml:"lat"`
	Lng   float64  `yaml:"lng"`
	Tile  string   `yaml:"tile"`
	Coins []string `yaml:"coins"`
}

// CacheEntry is one decoded cache memento.
type CacheEntry struct {
	Tile       string   `yaml:"tile"`
	NextSerial uint64   `yaml:"next_serial"`
	Coins      []string `yaml:"coins"`
	Foreign    int      `yaml:"foreign"` // coins minted elsewhere
}

// BuildReport decodes every memento of ss. Caches are listed in tile order.
func BuildReport(ss *world.SessionState, grid world.Grid) (*SessionReport, error) {
	r := &SessionReport{
		Player: PlayerEntry{
			Lat:   ss.Position.Lat,
			Lng:   ss.Position.Lng,
			Tile:  grid.TileOf(ss.Position).String(),
			Coins: labels(ss.Coins),
		},
		TotalCoins: len(ss.Coins),
		Caches:     make([]CacheEntry, 0, len(ss.Caches)),
	}

	tiles := make([]world.Tile, 0, len(ss.Caches))
	for t := range ss.Caches {
		tiles = append(tiles, t)
	}
	world.SortTiles(tiles)
	for _, t := range tiles {
		c, err := world.RestoreCache(ss.Caches[t])
		if err != nil {
			return nil, fmt.Errorf("cache %s: %w", t, err)
		}
		coins := c.Inv.Snapshot()
		foreign := 0
		for _, coin := range coins {
			if coin.Origin() != t {
				foreign++
			}
		}
		r.Caches = append(r.Caches, CacheEntry{
			Tile:       t.String(),
			NextSerial: c.NextSerial(),
			Coins:      labels(coins),
			Foreign:    foreign,
		})
		r.TotalCoins += len(coins)
	}
	return r, nil
}

// Write encodes the report as YAML.
func (r *SessionReport) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// LoadReport reads a report written by Write.
func LoadReport(path string) (*SessionReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r SessionReport
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}

func labels(coins []world.Coin) []string {
	out := make([]string, len(coins))
	for i, c := range coins {
		out[i] = c.Label()
	}
	return out
}
