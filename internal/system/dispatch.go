package system

import (
	"github.com/l1jgo/geocoin/internal/core/event"
	coresys "github.com/l1jgo/geocoin/internal/core/system"
)

// EventDispatchSystem delivers the events queued by the last command.
// Phase 2 (Output), after autosave, so observers see the finished batch.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *EventDispatchSystem) Update() {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
