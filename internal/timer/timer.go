// Package timer provides cancellable timer handles for single-threaded
// controllers. A handle never owns a goroutine: arming it returns an
// effect.StartTimer descriptor and the event loop later delivers a FiredMsg.
// Every arm or cancel takes a fresh generation from a process-wide counter,
// so firings scheduled before that, by this handle or by a handle of a
// closed controller with the same name, are recognised as stale and dropped.
package timer

import (
	"sync/atomic"
	"time"

	"github.com/phnplatform/studyterm/internal/effect"
)

// generations is shared by all handles; a generation is never reused.
var generations atomic.Uint64

// FiredMsg is delivered when a scheduled timer elapses.
type FiredMsg struct {
	Timer string
	Gen   uint64
}

// Handle is a named, cancellable timer owned by one controller.
type Handle struct {
	name  string
	gen   uint64
	armed bool
}

// New returns an idle handle.
func New(name string) Handle {
	return Handle{name: name}
}

// Name returns the handle's name.
func (h *Handle) Name() string { return h.name }

// Armed reports whether a firing is outstanding.
func (h *Handle) Armed() bool { return h.armed }

// Arm (re)schedules the timer, invalidating any outstanding firing.
func (h *Handle) Arm(after time.Duration) effect.StartTimer {
	h.gen = generations.Add(1)
	h.armed = true
	return effect.StartTimer{Timer: h.name, Gen: h.gen, After: after}
}

// Cancel invalidates any outstanding firing.
func (h *Handle) Cancel() {
	h.gen = generations.Add(1)
	h.armed = false
}

// Fire consumes msg if it is the live firing of this handle. It returns
// false for other timers and for stale or cancelled firings.
func (h *Handle) Fire(msg FiredMsg) bool {
	if msg.Timer != h.name || !h.armed || msg.Gen != h.gen {
		return false
	}
	h.armed = false
	return true
}
