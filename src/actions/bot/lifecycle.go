package bot

import (
	"fmt"
	"sync"
)

// Phase is the state of the gateway connection.
type Phase string

const (
	PhaseDisconnected Phase = "disconnected"
	PhaseConnecting   Phase = "connecting"
	PhaseConnected    Phase = "connected"
	PhaseReady        Phase = "ready"
	PhaseClosed       Phase = "closed"
)

var transitions = map[Phase][]Phase{
	PhaseDisconnected: {PhaseConnecting, PhaseConnected, PhaseReady, PhaseClosed},
	PhaseConnecting:   {PhaseConnected, PhaseReady, PhaseDisconnected, PhaseClosed},
	PhaseConnected:    {PhaseReady, PhaseDisconnected, PhaseClosed},
	PhaseReady:        {PhaseDisconnected, PhaseClosed},
	PhaseClosed:       nil,
}

// Lifecycle tracks the gateway phase. onEnter runs, outside the lock, after
// every accepted transition.
type Lifecycle struct {
	mu      sync.RWMutex
	phase   Phase
	onEnter func(from, to Phase)
}

func NewLifecycle(onEnter func(from, to Phase)) *Lifecycle {
	return &Lifecycle{phase: PhaseDisconnected, onEnter: onEnter}
}

// Transition moves to next. Re-entering the current phase is a no-op;
// anything not in the transition table is rejected.
func (l *Lifecycle) Transition(next Phase) error {
	l.mu.Lock()
	from := l.phase
	if from == next {
		l.mu.Unlock()
		return nil
	}
	if !allowed(from, next) {
		l.mu.Unlock()
		return fmt.Errorf("bot: invalid gateway transition %s -> %s", from, next)
	}
	l.phase = next
	l.mu.Unlock()

	if l.onEnter != nil {
		l.onEnter(from, next)
	}
	return nil
}

func (l *Lifecycle) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

func (l *Lifecycle) State() string { return string(l.Phase()) }

func (l *Lifecycle) Ready() bool { return l.Phase() == PhaseReady }

func allowed(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}
