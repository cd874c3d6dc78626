// Command savedump prints the saved session of the configured store as YAML.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/l1jgo/geocoin/internal/config"
	"github.com/l1jgo/geocoin/internal/data"
	"github.com/l1jgo/geocoin/internal/persist"
	"github.com/l1jgo/geocoin/internal/world"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "savedump: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/geocoin.toml"
	if p := os.Getenv("GEOCOIN_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the TOML config file")
	slot := flag.String("slot", "", "save slot (defaults to storage.slot)")
	blobPath := flag.String("blob", "", "decode a raw save file instead of the configured store")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *slot != "" {
		cfg.Storage.Slot = *slot
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var ss *world.SessionState
	if *blobPath != "" {
		ss, err = persist.NewFileStore(*blobPath).Load(ctx)
	} else {
		ss, err = load(ctx, cfg.Storage)
	}
	if err != nil {
		return err
	}

	report, err := data.BuildReport(ss, world.NewGrid(cfg.Game.TileDegrees))
	if err != nil {
		return err
	}
	return report.Write(os.Stdout)
}

func load(ctx context.Context, cfg config.StorageConfig) (*world.SessionState, error) {
	store, err := persist.Open(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	defer store.Close()
	return store.Load(ctx)
}
