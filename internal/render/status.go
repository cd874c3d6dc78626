package render

import (
	"github.com/l1jgo/geocoin/internal/game"
	"github.com/l1jgo/geocoin/internal/system"
	"github.com/l1jgo/geocoin/internal/world"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgEmptyInventory = "Inventory empty. Go out there and get some coins!"
	msgCarrying       = "Carrying %d coins"
	msgPosition       = "Tile %s (%.6f, %.6f)"
	msgCache          = "Cache %s: %d coins"
	msgNoCache        = "No cache selected (Tab to pick one)"
	msgHelp           = "arrows:move  tab:select  [ ]:cache coin  { }:own coin  c:collect  d:deposit  s:save  R:reset  q:quit"
)

func init() {
	zh := language.TraditionalChinese
	message.SetString(zh, msgEmptyInventory, "背包空空如也，出去找些硬幣吧！")
	message.SetString(zh, msgCarrying, "攜帶 %d 枚硬幣")
	message.SetString(zh, msgPosition, "格子 %s (%.6f, %.6f)")
	message.SetString(zh, msgCache, "寶箱 %s：%d 枚硬幣")
	message.SetString(zh, msgNoCache, "未選擇寶箱（按 Tab 選擇）")
	message.SetString(zh, msgHelp, "方向鍵:移動  tab:選擇  [ ]:寶箱硬幣  { }:背包硬幣  c:拾取  d:存入  s:存檔  R:重置  q:離開")
}

// NewPrinter returns a printer for a BCP 47 tag; unknown tags fall back to English.
func NewPrinter(tag string) *message.Printer {
	t, err := language.Parse(tag)
	if err != nil {
		t = language.English
	}
	return message.NewPrinter(t)
}

// Marks are the coins the next collect and deposit would move.
type Marks struct {
	Player *world.Coin
	Cache  *world.Coin
}

// StatusLines are the text rows printed under the board. Marked coins are
// shown in brackets.
func StatusLines(p *message.Printer, player game.PlayerView, selected *system.CacheView, marks Marks, note string) []string {
	lines := []string{
		p.Sprintf(msgPosition, player.Tile.String(), player.Position.Lat, player.Position.Lng),
	}
	if len(player.Coins) == 0 {
		lines = append(lines, p.Sprintf(msgEmptyInventory))
	} else {
		lines = append(lines, p.Sprintf(msgCarrying, len(player.Coins))+"  "+coinList(player.Coins, marks.Player))
	}
	if selected == nil {
		lines = append(lines, p.Sprintf(msgNoCache))
	} else {
		lines = append(lines, p.Sprintf(msgCache, selected.Tile.String(), len(selected.Coins))+"  "+coinList(selected.Coins, marks.Cache))
	}
	lines = append(lines, note, p.Sprintf(msgHelp))
	return lines
}

const maxListed = 4

// coinList shows the last few coin labels, newest first. A mark older
// than the listed coins is put in front.
func coinList(coins []world.Coin, mark *world.Coin) string {
	out := ""
	listed := false
	n := 0
	for i := len(coins) - 1; i >= 0 && n < maxListed; i-- {
		if n > 0 {
			out += " "
		}
		if mark != nil && coins[i] == *mark {
			out += "[" + coins[i].Label() + "]"
			listed = true
		} else {
			out += coins[i].Label()
		}
		n++
	}
	if len(coins) > maxListed {
		out += " …"
	}
	if mark != nil && !listed {
		out = "[" + mark.Label() + "] " + out
	}
	return out
}
