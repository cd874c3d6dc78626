package system

import "sort"

// Runner executes systems in phase order once per processed command.
// There is no clock: the game is driven entirely by input events.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Run executes every registered system, lowest phase first.
func (r *Runner) Run() {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update()
	}
}

// RunPhase executes only the systems registered for phase.
func (r *Runner) RunPhase(phase Phase) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update()
		}
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
