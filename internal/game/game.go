// Package game is the boundary the terminal driver talks to. Every command
// runs to completion, then the post-command systems run (autosave, then
// event delivery), so observers never see a half-rebuilt window.
package game

import (
	"errors"
	"fmt"

	"github.com/l1jgo/geocoin/internal/config"
	"github.com/l1jgo/geocoin/internal/core/event"
	coresys "github.com/l1jgo/geocoin/internal/core/system"
	"github.com/l1jgo/geocoin/internal/persist"
	"github.com/l1jgo/geocoin/internal/system"
	"github.com/l1jgo/geocoin/internal/world"
	"go.uber.org/zap"
)

var (
	// ErrCacheNotVisible is returned when a transfer names a tile without
	// a live cache.
	ErrCacheNotVisible = errors.New("no visible cache at tile")
	// ErrNoStore is returned by Save when the game runs without a store.
	ErrNoStore = errors.New("no session store configured")
)

// Options are the game settings taken from [game] and [storage].
type Options struct {
	Grid             world.Grid
	Radius           int
	Start            world.Position
	Policy           system.TransferPolicy
	AutosaveInterval int
}

// OptionsFromConfig converts the loaded config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := system.ParseTransferPolicy(cfg.Game.TransferPolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Grid:             world.NewGrid(cfg.Game.TileDegrees),
		Radius:           cfg.Game.NeighborhoodSize,
		Start:            world.Position{Lat: cfg.Game.StartLat, Lng: cfg.Game.StartLng},
		Policy:           policy,
		AutosaveInterval: cfg.Storage.AutosaveInterval,
	}, nil
}

// PlayerView is a read-only copy of the player.
type PlayerView struct {
	Position world.Position
	Tile     world.Tile
	Coins    []world.Coin
}

// Game owns the session state and the systems acting on it.
// Single goroutine only.
type Game struct {
	opts  Options
	rules world.SpawnRules
	log   *zap.Logger

	state    *world.State
	bus      *event.Bus
	vis      *system.VisibilitySystem
	ledger   *system.Ledger
	autosave *system.PersistenceSystem // nil without a store
	runner   *coresys.Runner

	dirty bool
}

// New builds a game at opts.Start. Call Start (or Restore) before use.
// store may be nil, which disables autosave.
func New(opts Options, rules world.SpawnRules, store persist.Store, log *zap.Logger) *Game {
	g := &Game{
		opts:  opts,
		rules: rules,
		log:   log,
		state: world.NewState(opts.Start),
		bus:   event.NewBus(),
	}
	g.vis = system.NewVisibilitySystem(g.state, rules, opts.Radius, g.bus, log)
	g.ledger = system.NewLedger(opts.Policy, g.bus, log)

	g.runner = coresys.NewRunner()
	if store != nil {
		g.autosave = system.NewPersistenceSystem(g, store, g.bus, log, opts.AutosaveInterval)
		g.runner.Register(g.autosave)
	}
	g.runner.Register(system.NewEventDispatchSystem(g.bus))
	return g
}

// Start spawns the caches around the player's current position.
func (g *Game) Start() error {
	if err := g.vis.Refresh(g.playerTile()); err != nil {
		return err
	}
	g.after()
	return nil
}

// Move places the player at pos and rebuilds the window if the tile
// changed. On error the player and the window stay where they were.
func (g *Game) Move(pos world.Position) error {
	from := g.playerTile()
	to := g.opts.Grid.TileOf(pos)
	if err := g.vis.Refresh(to); err != nil {
		return fmt.Errorf("move to %s: %w", to, err)
	}
	g.state.Player.Pos = pos
	g.dirty = true
	event.Emit(g.bus, event.PlayerMoved{From: from, To: to, Position: pos})
	g.after()
	return nil
}

// Step moves the player one tile in d.
func (g *Game) Step(d world.Direction) error {
	return g.Move(g.opts.Grid.Step(g.state.Player.Pos, d))
}

// VisibleCaches lists the live caches in row-major order.
func (g *Game) VisibleCaches() []system.CacheView {
	return g.vis.Visible()
}

// Window returns every tile of the visible window, cache or not.
func (g *Game) Window() []world.Tile {
	return g.vis.Window()
}

// SelectCoinFromCache moves coin from the cache at t to the player.
func (g *Game) SelectCoinFromCache(t world.Tile, coin world.Coin) error {
	c, _, ok := g.vis.Active(t)
	if !ok {
		return fmt.Errorf("select %s: %w", t, ErrCacheNotVisible)
	}
	return g.transfer(coin, system.CacheAccount(c), system.PlayerAccount(g.state.Player))
}

// DepositCoinToCache moves coin from the player to the cache at t.
func (g *Game) DepositCoinToCache(t world.Tile, coin world.Coin) error {
	c, _, ok := g.vis.Active(t)
	if !ok {
		return fmt.Errorf("deposit %s: %w", t, ErrCacheNotVisible)
	}
	return g.transfer(coin, system.PlayerAccount(g.state.Player), system.CacheAccount(c))
}

func (g *Game) transfer(coin world.Coin, from, to system.Account) error {
	if err := g.ledger.Transfer(coin, from, to); err != nil {
		return err
	}
	g.dirty = true
	g.after()
	return nil
}

// Reset discards the session: the player returns to the start with an
// empty inventory and every cache is forgotten.
func (g *Game) Reset() error {
	if err := g.replace(world.NewState(g.opts.Start), false); err != nil {
		return err
	}
	g.log.Info("遊戲已重置")
	return nil
}

// Snapshot flushes live caches and returns the storable state.
func (g *Game) Snapshot() (*world.SessionState, error) {
	if err := g.vis.Flush(); err != nil {
		return nil, err
	}
	return g.state.Export(), nil
}

// Restore replaces the session with ss. On error the current session is kept.
func (g *Game) Restore(ss *world.SessionState) error {
	return g.replace(world.ImportState(ss), true)
}

// PersistedState encodes the whole session into one blob.
func (g *Game) PersistedState() ([]byte, error) {
	ss, err := g.Snapshot()
	if err != nil {
		return nil, err
	}
	return persist.EncodeSession(ss)
}

// RestoreState loads a blob from PersistedState. A missing or damaged
// blob is not fatal: the game starts a fresh session and returns false.
func (g *Game) RestoreState(blob []byte) bool {
	ss, err := persist.DecodeSession(blob)
	if err == nil {
		err = g.Restore(ss)
	}
	if err != nil {
		g.log.Warn("無法還原存檔，開始新遊戲", zap.Error(err))
		if rerr := g.Reset(); rerr != nil {
			g.log.Error("還原失敗後無法重置", zap.Error(rerr))
		}
		return false
	}
	return true
}

// Save writes the session to the configured store now.
func (g *Game) Save() error {
	if g.autosave == nil {
		return ErrNoStore
	}
	if err := g.autosave.SaveNow(); err != nil {
		return err
	}
	g.runner.RunPhase(coresys.PhaseOutput)
	return nil
}

func (g *Game) replace(st *world.State, restored bool) error {
	if err := g.vis.Replace(st, g.opts.Grid.TileOf(st.Player.Pos)); err != nil {
		return err
	}
	g.state = st
	g.dirty = !restored
	event.Emit(g.bus, event.SessionReset{Restored: restored})
	g.after()
	return nil
}

// Player returns a copy of the player.
func (g *Game) Player() PlayerView {
	return PlayerView{
		Position: g.state.Player.Pos,
		Tile:     g.playerTile(),
		Coins:    g.state.Player.Inv.Snapshot(),
	}
}

// Bus is where observers subscribe with event.Subscribe.
func (g *Game) Bus() *event.Bus { return g.bus }

// Grid returns the tile geometry.
func (g *Game) Grid() world.Grid { return g.opts.Grid }

// Radius returns the visible radius in tiles.
func (g *Game) Radius() int { return g.opts.Radius }

// Dirty reports unsaved changes.
func (g *Game) Dirty() bool { return g.dirty }

// MarkClean is called after a successful save.
func (g *Game) MarkClean() { g.dirty = false }

func (g *Game) playerTile() world.Tile {
	return g.opts.Grid.TileOf(g.state.Player.Pos)
}

// after runs the post-command systems.
func (g *Game) after() {
	g.runner.Run()
}
