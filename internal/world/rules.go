package world

import (
	"math"

	"github.com/l1jgo/geocoin/internal/luck"
)

// SpawnRules decides, on first visibility, whether a tile holds a cache
// and how many coins it is minted with. Implementations must be pure.
type SpawnRules interface {
	Eligible(t Tile) bool
	InitialCoins(t Tile) int
}

// DefaultRules draws existence from luck(row, col) and quantity from a
// second, salted draw luck(row, col, salt) so the two are independent.
type DefaultRules struct {
	Luck       luck.Oracle
	Chance     float64 // cache exists iff draw < Chance
	Multiplier float64
	Offset     float64
	Salt       string
}

// NewDefaultRules uses the production oracle.
func NewDefaultRules(chance, multiplier, offset float64, salt string) DefaultRules {
	return DefaultRules{
		Luck:       luck.Luck,
		Chance:     chance,
		Multiplier: multiplier,
		Offset:     offset,
		Salt:       salt,
	}
}

func (r DefaultRules) oracle() luck.Oracle {
	if r.Luck == nil {
		return luck.Luck
	}
	return r.Luck
}

// Eligible implements SpawnRules.
func (r DefaultRules) Eligible(t Tile) bool {
	return r.oracle()(t.Row, t.Col) < r.Chance
}

// InitialCoins implements SpawnRules: floor(draw*Multiplier + Offset), never negative.
func (r DefaultRules) InitialCoins(t Tile) int {
	draw := r.oracle()(t.Row, t.Col, r.Salt)
	return ClampCoins(math.Floor(draw*r.Multiplier + r.Offset))
}

// ClampCoins converts a computed coin count to int, mapping NaN and
// negatives to zero.
func ClampCoins(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// Generate mints the first-time cache for t, or returns nil if t is not eligible.
func Generate(rules SpawnRules, t Tile) *Cache {
	if !rules.Eligible(t) {
		return nil
	}
	c := NewCache(t)
	c.Mint(rules.InitialCoins(t))
	return c
}
