package system

// Phase defines execution ordering of the systems run after each command.
type Phase int

const (
	PhaseInput   Phase = iota // 0: command already applied by the caller
	PhasePersist              // 1: autosave
	PhaseOutput               // 2: deliver queued events to observers
)

// System is the interface every post-command system implements.
type System interface {
	Phase() Phase
	Update()
}
