package persist

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/l1jgo/geocoin/internal/world"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrNoSession means there is nothing to restore: start fresh.
	ErrNoSession = errors.New("no saved session")
	// ErrCorruptSession means a saved session exists but cannot be trusted.
	ErrCorruptSession = errors.New("corrupt saved session")
)

const sessionVersion = 1

// envelope carries the payload with a digest so torn or edited saves are
// detected before any of their content is used.
type envelope struct {
	Version int    `cbor:"1,keyasint"`
	Digest  []byte `cbor:"2,keyasint"`
	Payload []byte `cbor:"3,keyasint"`
}

type sessionPayload struct {
	Lat    float64       `cbor:"1,keyasint"`
	Lng    float64       `cbor:"2,keyasint"`
	Coins  []world.Coin  `cbor:"3,keyasint"`
	Caches []cacheRecord `cbor:"4,keyasint"`
}

type cacheRecord struct {
	Row     int64  `cbor:"1,keyasint"`
	Col     int64  `cbor:"2,keyasint"`
	Memento []byte `cbor:"3,keyasint"`
}

// EncodeSession serializes a session. Caches are written in row-major
// tile order so equal sessions encode to equal bytes.
func EncodeSession(ss *world.SessionState) ([]byte, error) {
	p := sessionPayload{
		Lat:    ss.Position.Lat,
		Lng:    ss.Position.Lng,
		Coins:  ss.Coins,
		Caches: make([]cacheRecord, 0, len(ss.Caches)),
	}
	if p.Coins == nil {
		p.Coins = []world.Coin{}
	}
	tiles := make([]world.Tile, 0, len(ss.Caches))
	for t := range ss.Caches {
		tiles = append(tiles, t)
	}
	world.SortTiles(tiles)
	for _, t := range tiles {
		p.Caches = append(p.Caches, cacheRecord{Row: t.Row, Col: t.Col, Memento: ss.Caches[t]})
	}

	payload, err := world.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode session payload: %w", err)
	}
	digest := blake2b.Sum256(payload)
	blob, err := world.Marshal(envelope{
		Version: sessionVersion,
		Digest:  digest[:],
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode session envelope: %w", err)
	}
	return blob, nil
}

// DecodeSession parses and validates a blob. Empty input is ErrNoSession;
// anything unreadable is ErrCorruptSession.
func DecodeSession(blob []byte) (*world.SessionState, error) {
	if len(blob) == 0 {
		return nil, ErrNoSession
	}
	var env envelope
	if err := world.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrCorruptSession, err)
	}
	if env.Version != sessionVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSession, env.Version)
	}
	digest := blake2b.Sum256(env.Payload)
	if !bytes.Equal(digest[:], env.Digest) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorruptSession)
	}
	var p sessionPayload
	if err := world.Unmarshal(env.Payload, &p); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrCorruptSession, err)
	}

	ss := &world.SessionState{
		Position: world.Position{Lat: p.Lat, Lng: p.Lng},
		Coins:    p.Coins,
		Caches:   make(map[world.Tile]world.Memento, len(p.Caches)),
	}
	if ss.Coins == nil {
		ss.Coins = []world.Coin{}
	}
	for _, rec := range p.Caches {
		t := world.Tile{Row: rec.Row, Col: rec.Col}
		if err := addCache(ss, t, rec.Memento); err != nil {
			return nil, err
		}
	}
	return ss, nil
}

// addCache validates one stored memento against its key before accepting it.
func addCache(ss *world.SessionState, t world.Tile, m []byte) error {
	if _, dup := ss.Caches[t]; dup {
		return fmt.Errorf("%w: duplicate cache %s", ErrCorruptSession, t)
	}
	c, err := world.RestoreCache(m)
	if err != nil {
		return fmt.Errorf("%w: cache %s: %v", ErrCorruptSession, t, err)
	}
	if c.Tile != t {
		return fmt.Errorf("%w: cache keyed %s describes %s", ErrCorruptSession, t, c.Tile)
	}
	ss.Caches[t] = world.Memento(m)
	return nil
}
