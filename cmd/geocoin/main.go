package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/l1jgo/geocoin/internal/config"
	"github.com/l1jgo/geocoin/internal/game"
	"github.com/l1jgo/geocoin/internal/persist"
	"github.com/l1jgo/geocoin/internal/render"
	"github.com/l1jgo/geocoin/internal/scripting"
	"github.com/l1jgo/geocoin/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/geocoin.toml"
	if p := os.Getenv("GEOCOIN_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the TOML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Open session store
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	store, err := persist.Open(openCtx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()
	log.Info("存檔儲存已開啟", zap.String("driver", cfg.Storage.Driver), zap.String("slot", cfg.Storage.Slot))

	// 4. Spawn rules, optionally overridden by Lua
	defaults := world.NewDefaultRules(
		cfg.Game.CacheSpawnProbability, cfg.Game.CoinMultiplier, cfg.Game.CoinOffset, cfg.Game.CoinSalt)
	var rules world.SpawnRules = defaults
	if cfg.Game.RulesScript != "" {
		engine, err := scripting.NewEngine(cfg.Game.RulesScript, defaults, log)
		if err != nil {
			return fmt.Errorf("rules script: %w", err)
		}
		defer engine.Close()
		rules = engine
	}

	// 5. Game, restored from the store when possible
	opts, err := game.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	g := game.New(opts, rules, store, log)
	if err := restoreOrStart(ctx, g, store, log); err != nil {
		return err
	}

	// 6. Terminal loop
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	ui := render.NewUI(screen, g, render.NewPrinter(cfg.UI.Language), log)
	ui.Run(ctx)
	screen.Fini()

	// 7. Final save
	if err := g.Save(); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	log.Info("關閉完成")
	return nil
}

// restoreOrStart loads the saved session. A missing or damaged save starts
// a fresh one; only store failures are fatal.
func restoreOrStart(ctx context.Context, g *game.Game, store persist.Store, log *zap.Logger) error {
	loadCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ss, err := store.Load(loadCtx)
	switch {
	case err == nil:
		if err := g.Restore(ss); err != nil {
			log.Warn("存檔內容無效，開始新遊戲", zap.Error(err))
			return g.Reset()
		}
		p := g.Player()
		log.Info("存檔已還原", zap.Stringer("tile", p.Tile), zap.Int("coins", len(p.Coins)))
		return nil
	case errors.Is(err, persist.ErrNoSession):
		log.Info("沒有存檔，開始新遊戲")
		return g.Start()
	case errors.Is(err, persist.ErrCorruptSession):
		log.Warn("存檔損毀，開始新遊戲", zap.Error(err))
		return g.Start()
	default:
		return fmt.Errorf("load session: %w", err)
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	return zapCfg.Build()
}
