package scripting

import (
	"fmt"
	"math"

	"github.com/l1jgo/geocoin/internal/luck"
	"github.com/l1jgo/geocoin/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the spawn rule script.
// Single-goroutine access only (game loop).
//
// A script may define either or both of:
//
//	function cache_eligible(row, col) return luck(row, col) < CACHE_SPAWN_PROBABILITY end
//	function initial_coins(row, col) return math.floor(luck(row, col, COIN_SALT) * COIN_MULTIPLIER) end
//
// Missing functions, errors and bad return values fall back to the Go rules.
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback world.DefaultRules
}

// NewEngine loads the script at path.
func NewEngine(path string, fallback world.DefaultRules, log *zap.Logger) (*Engine, error) {
	e := newEngine(fallback, log)
	if err := e.vm.DoFile(path); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load rules script %s: %w", path, err)
	}
	log.Debug("loaded lua rules", zap.String("file", path))
	return e, nil
}

// NewEngineFromSource loads rules from an in-memory script.
func NewEngineFromSource(src string, fallback world.DefaultRules, log *zap.Logger) (*Engine, error) {
	e := newEngine(fallback, log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load rules script: %w", err)
	}
	return e, nil
}

func newEngine(fallback world.DefaultRules, log *zap.Logger) *Engine {
	if fallback.Luck == nil {
		fallback.Luck = luck.Luck
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openPureLibs(vm)
	e := &Engine{vm: vm, log: log, fallback: fallback}

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("CACHE_SPAWN_PROBABILITY", lua.LNumber(fallback.Chance))
	vm.SetGlobal("COIN_MULTIPLIER", lua.LNumber(fallback.Multiplier))
	vm.SetGlobal("COIN_OFFSET", lua.LNumber(fallback.Offset))
	vm.SetGlobal("COIN_SALT", lua.LString(fallback.Salt))
	vm.SetGlobal("luck", vm.NewFunction(e.luaLuck))
	return e
}

// openPureLibs loads only the libraries a deterministic rule can use:
// no os or io, no module or file loading, and no random numbers.
func openPureLibs(vm *lua.LState) {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage}, // must be first
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := vm.CallByParam(lua.P{
			Fn:      vm.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			panic(fmt.Sprintf("open lua lib %s: %v", lib.name, err))
		}
	}
	for _, name := range []string{"package", "require", "module", "dofile", "loadfile", "load", "loadstring", "collectgarbage"} {
		vm.SetGlobal(name, lua.LNil)
	}
	if m, ok := vm.GetGlobal("math").(*lua.LTable); ok {
		m.RawSetString("random", lua.LNil)
		m.RawSetString("randomseed", lua.LNil)
	}
}

// luaLuck exposes the oracle. Integral numbers are keyed as integers so
// luck(row, col) in Lua draws the same value as the Go rules.
func (e *Engine) luaLuck(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		switch v := L.Get(i).(type) {
		case lua.LNumber:
			f := float64(v)
			if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
				parts = append(parts, int64(f))
			} else {
				parts = append(parts, f)
			}
		case lua.LString:
			parts = append(parts, string(v))
		case lua.LBool:
			parts = append(parts, bool(v))
		default:
			parts = append(parts, v.String())
		}
	}
	L.Push(lua.LNumber(e.fallback.Luck(parts...)))
	return 1
}

// Eligible implements world.SpawnRules via cache_eligible.
func (e *Engine) Eligible(t world.Tile) bool {
	ret, ok := e.call("cache_eligible", t)
	if !ok {
		return e.fallback.Eligible(t)
	}
	b, isBool := ret.(lua.LBool)
	if !isBool {
		e.log.Error("lua cache_eligible returned non-boolean", zap.Stringer("tile", t))
		return e.fallback.Eligible(t)
	}
	return bool(b)
}

// InitialCoins implements world.SpawnRules via initial_coins.
func (e *Engine) InitialCoins(t world.Tile) int {
	ret, ok := e.call("initial_coins", t)
	if !ok {
		return e.fallback.InitialCoins(t)
	}
	n, isNum := ret.(lua.LNumber)
	if !isNum {
		e.log.Error("lua initial_coins returned non-number", zap.Stringer("tile", t))
		return e.fallback.InitialCoins(t)
	}
	return world.ClampCoins(math.Floor(float64(n)))
}

// Defines reports whether the script defines the named global function.
func (e *Engine) Defines(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

func (e *Engine) call(name string, t world.Tile) (lua.LValue, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(t.Row), lua.LNumber(t.Col)); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Stringer("tile", t), zap.Error(err))
		return nil, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result, true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
