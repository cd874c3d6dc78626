package system

import (
	"context"
	"time"

	"github.com/l1jgo/geocoin/internal/core/event"
	coresys "github.com/l1jgo/geocoin/internal/core/system"
	"github.com/l1jgo/geocoin/internal/persist"
	"github.com/l1jgo/geocoin/internal/world"
	"go.uber.org/zap"
)

// SessionSource is what autosave needs from the game controller.
type SessionSource interface {
	Snapshot() (*world.SessionState, error)
	Dirty() bool
	MarkClean()
}

// PersistenceSystem saves the session every N processed commands, only if
// something changed since the last save. Phase 1 (Persist).
type PersistenceSystem struct {
	source   SessionSource
	store    persist.Store
	bus      *event.Bus
	log      *zap.Logger
	count    int
	interval int // commands between saves, 0 disables autosave
}

func NewPersistenceSystem(source SessionSource, store persist.Store, bus *event.Bus, log *zap.Logger, interval int) *PersistenceSystem {
	return &PersistenceSystem{
		source:   source,
		store:    store,
		bus:      bus,
		log:      log,
		interval: interval,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update() {
	if s.interval <= 0 {
		return
	}
	s.count++
	if s.count < s.interval {
		return
	}
	s.count = 0
	if !s.source.Dirty() {
		return // 無變更，略過存檔
	}
	_ = s.SaveNow()
}

// SaveNow persists the session immediately, ignoring the dirty flag.
// Called on shutdown so no progress is lost.
func (s *PersistenceSystem) SaveNow() error {
	ss, err := s.source.Snapshot()
	if err != nil {
		s.log.Error("存檔快照失敗", zap.Error(err))
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx, ss); err != nil {
		s.log.Error("自動存檔失敗", zap.Error(err))
		return err
	}
	s.source.MarkClean()
	s.log.Info("自動存檔完成", zap.Int("caches", len(ss.Caches)), zap.Int("coins", len(ss.Coins)))
	event.Emit(s.bus, event.SessionSaved{Caches: len(ss.Caches), Coins: len(ss.Coins)})
	return nil
}
