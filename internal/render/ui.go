package render

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"
	"github.com/l1jgo/geocoin/internal/game"
	"github.com/l1jgo/geocoin/internal/system"
	"github.com/l1jgo/geocoin/internal/world"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

// Action is a decoded key press.
type Action int

const (
	ActionNone Action = iota
	ActionNorth
	ActionSouth
	ActionEast
	ActionWest
	ActionSelectNext
	ActionOlderCacheCoin
	ActionNewerCacheCoin
	ActionOlderOwnCoin
	ActionNewerOwnCoin
	ActionCollect
	ActionDeposit
	ActionSave
	ActionReset
	ActionQuit
)

// ActionFor maps a key to an action.
func ActionFor(key tcell.Key, r rune) Action {
	switch key {
	case tcell.KeyUp:
		return ActionNorth
	case tcell.KeyDown:
		return ActionSouth
	case tcell.KeyRight:
		return ActionEast
	case tcell.KeyLeft:
		return ActionWest
	case tcell.KeyTab:
		return ActionSelectNext
	case tcell.KeyEnter:
		return ActionCollect
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyRune:
		switch r {
		case 'k':
			return ActionNorth
		case 'j':
			return ActionSouth
		case 'l':
			return ActionEast
		case 'h':
			return ActionWest
		case '[':
			return ActionOlderCacheCoin
		case ']':
			return ActionNewerCacheCoin
		case '{':
			return ActionOlderOwnCoin
		case '}':
			return ActionNewerOwnCoin
		case 'c':
			return ActionCollect
		case 'd':
			return ActionDeposit
		case 's':
			return ActionSave
		case 'R':
			return ActionReset
		case 'q':
			return ActionQuit
		}
	}
	return ActionNone
}

// UI draws the game on a tcell screen and turns keys into game commands.
// It never mutates caches itself.
type UI struct {
	screen  tcell.Screen
	game    *game.Game
	printer *message.Printer
	log     *zap.Logger

	selected    world.Tile
	hasSelected bool
	cacheMark   coinMark
	playerMark  coinMark
	note        string
}

// coinMark remembers a coin by identity. A mark whose coin has moved away
// falls back to the newest coin.
type coinMark struct {
	coin world.Coin
	set  bool
}

func (m coinMark) pick(coins []world.Coin) *world.Coin {
	if len(coins) == 0 {
		return nil
	}
	if m.set {
		for i := range coins {
			if coins[i] == m.coin {
				return &coins[i]
			}
		}
	}
	return &coins[len(coins)-1]
}

// step moves the mark delta places through coins, wrapping around.
func (m *coinMark) step(coins []world.Coin, delta int) {
	if len(coins) == 0 {
		return
	}
	cur := len(coins) - 1
	if c := m.pick(coins); c != nil {
		for i := range coins {
			if coins[i] == *c {
				cur = i
				break
			}
		}
	}
	n := len(coins)
	m.coin, m.set = coins[((cur+delta)%n+n)%n], true
}

func NewUI(screen tcell.Screen, g *game.Game, printer *message.Printer, log *zap.Logger) *UI {
	return &UI{screen: screen, game: g, printer: printer, log: log}
}

// Run polls the screen until quit or ctx is cancelled. The caller owns
// screen.Init and screen.Fini.
func (u *UI) Run(ctx context.Context) {
	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				close(events) // screen finalized
				return
			}
			events <- ev
		}
	}()

	u.Draw()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !u.Apply(ActionFor(ev.Key(), ev.Rune())) {
					return
				}
			case *tcell.EventResize:
				u.screen.Sync()
			}
			u.Draw()
		}
	}
}

// Apply runs one action. Returns false when the user asked to quit.
func (u *UI) Apply(a Action) bool {
	u.note = ""
	var err error
	switch a {
	case ActionNorth:
		err = u.game.Step(world.North)
	case ActionSouth:
		err = u.game.Step(world.South)
	case ActionEast:
		err = u.game.Step(world.East)
	case ActionWest:
		err = u.game.Step(world.West)
	case ActionSelectNext:
		u.selectNext()
		u.cacheMark = coinMark{}
	case ActionOlderCacheCoin, ActionNewerCacheCoin:
		if sel := u.Selected(); sel != nil {
			u.cacheMark.step(sel.Coins, delta(a == ActionNewerCacheCoin))
		}
	case ActionOlderOwnCoin, ActionNewerOwnCoin:
		u.playerMark.step(u.game.Player().Coins, delta(a == ActionNewerOwnCoin))
	case ActionCollect:
		err = u.collect()
	case ActionDeposit:
		err = u.deposit()
	case ActionSave:
		err = u.game.Save()
		if err == nil {
			u.note = "saved"
		}
	case ActionReset:
		err = u.game.Reset()
		u.hasSelected = false
		u.cacheMark, u.playerMark = coinMark{}, coinMark{}
	case ActionQuit:
		return false
	}
	if err != nil {
		u.note = err.Error()
		u.log.Debug("指令失敗", zap.Error(err))
	}
	return true
}

// Selected returns the selected cache if it is still visible.
func (u *UI) Selected() *system.CacheView {
	if !u.hasSelected {
		return nil
	}
	for _, v := range u.game.VisibleCaches() {
		if v.Tile == u.selected {
			return &v
		}
	}
	return nil
}

func delta(newer bool) int {
	if newer {
		return 1
	}
	return -1
}

// Marks returns the coins collect and deposit would move now.
func (u *UI) Marks() Marks {
	m := Marks{Player: u.playerMark.pick(u.game.Player().Coins)}
	if sel := u.Selected(); sel != nil {
		m.Cache = u.cacheMark.pick(sel.Coins)
	}
	return m
}

// Note is the last command's message.
func (u *UI) Note() string { return u.note }

// selectNext cycles through visible caches, preferring the one under the
// player when nothing is selected yet.
func (u *UI) selectNext() {
	views := u.game.VisibleCaches()
	if len(views) == 0 {
		u.hasSelected = false
		return
	}
	if u.Selected() == nil {
		here := u.game.Player().Tile
		for _, v := range views {
			if v.Tile == here {
				u.selected, u.hasSelected = here, true
				return
			}
		}
		u.selected, u.hasSelected = views[0].Tile, true
		return
	}
	for i, v := range views {
		if v.Tile == u.selected {
			u.selected = views[(i+1)%len(views)].Tile
			return
		}
	}
}

var errNothingSelected = errors.New("select a cache first")

// collect takes the marked coin from the selected cache.
func (u *UI) collect() error {
	sel := u.Selected()
	if sel == nil {
		return errNothingSelected
	}
	coin := u.cacheMark.pick(sel.Coins)
	if coin == nil {
		return errors.New("cache is empty")
	}
	return u.game.SelectCoinFromCache(sel.Tile, *coin)
}

// deposit drops the player's marked coin into the selected cache.
func (u *UI) deposit() error {
	sel := u.Selected()
	if sel == nil {
		return errNothingSelected
	}
	coin := u.playerMark.pick(u.game.Player().Coins)
	if coin == nil {
		return errors.New(u.printer.Sprintf(msgEmptyInventory))
	}
	return u.game.DepositCoinToCache(sel.Tile, *coin)
}

// Draw paints the board and the status lines.
func (u *UI) Draw() {
	u.screen.Clear()
	player := u.game.Player()
	board := BuildBoard(player.Tile, u.game.Radius(), u.game.VisibleCaches())

	sel := u.Selected()
	selX, selY := -1, -1
	if sel != nil {
		selX, selY, _ = board.Cell(sel.Tile)
	}
	for y, row := range board.Cells {
		for x, g := range row {
			style := glyphStyles[g]
			if x == selX && y == selY {
				style = style.Reverse(true)
			}
			// two columns per tile to keep the board roughly square
			u.screen.SetContent(2*x, y, g.Rune(), nil, style)
		}
	}

	y := len(board.Cells) + 1
	for _, line := range StatusLines(u.printer, player, sel, u.Marks(), u.note) {
		drawText(u.screen, 0, y, tcell.StyleDefault, line)
		y++
	}
	u.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		if w := runewidth.RuneWidth(r); w > 1 {
			x += w
		} else {
			x++
		}
	}
}
