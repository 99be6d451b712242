package status

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder receives pass status updates from the sync engine
type Recorder interface {
	// Update applies fn to the current status of mode
	Update(ctx context.Context, mode Mode, fn func(*PassStatus))
}

// Reader exposes the current pass statuses
type Reader interface {
	// Get returns a copy of the status of mode
	Get(mode Mode) PassStatus
	// All returns a copy of every known status
	All() map[Mode]PassStatus
}

// Tracker is the in-memory Recorder and Reader. It persists whenever a pass
// reaches a terminal phase.
type Tracker struct {
	mu          sync.RWMutex
	statuses    map[Mode]PassStatus
	persistence Persistence
}

var (
	_ Recorder = (*Tracker)(nil)
	_ Reader   = (*Tracker)(nil)
)

// NewTracker creates a Tracker. A nil persistence keeps statuses in memory only.
//
// A pass that was in flight when the process stopped is restored as Failed.
func NewTracker(ctx context.Context, persistence Persistence) *Tracker {
	t := &Tracker{
		statuses:    map[Mode]PassStatus{},
		persistence: persistence,
	}
	if persistence == nil {
		return t
	}

	loaded, err := persistence.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load pass status, starting empty", "error", err)
		return t
	}
	for mode, st := range loaded {
		if !st.Phase.Terminal() {
			st.Phase = PhaseFailed
			st.Message = "Interrupted by shutdown"
		}
		t.statuses[mode] = st
	}
	return t
}

// Update implements Recorder
func (t *Tracker) Update(ctx context.Context, mode Mode, fn func(*PassStatus)) {
	t.mu.Lock()
	st := t.statuses[mode]
	fn(&st)
	t.statuses[mode] = st

	var snapshot map[Mode]PassStatus
	if st.Phase.Terminal() && t.persistence != nil {
		snapshot = t.cloneLocked()
	}
	t.mu.Unlock()

	if snapshot != nil {
		if err := t.persistence.Save(ctx, snapshot); err != nil {
			slog.WarnContext(ctx, "Failed to persist pass status", "mode", mode, "error", err)
		}
	}
}

// Get implements Reader
func (t *Tracker) Get(mode Mode) PassStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.statuses[mode]
	if !ok {
		return PassStatus{Phase: PhaseIdle}
	}
	return st.Clone()
}

// All implements Reader
func (t *Tracker) All() map[Mode]PassStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cloneLocked()
}

func (t *Tracker) cloneLocked() map[Mode]PassStatus {
	out := make(map[Mode]PassStatus, len(t.statuses))
	for mode, st := range t.statuses {
		out[mode] = st.Clone()
	}
	return out
}
