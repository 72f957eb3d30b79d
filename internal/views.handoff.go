package internal

import "sync"

// Handoff keeps a completion continuation out of the engine call that
// produced it. A continuation delivered while the call is still running is
// parked and runs when Release is called; one delivered afterwards runs
// immediately on the delivering goroutine.
type Handoff struct {
	mu       sync.Mutex
	released bool
	pending  func()
}

// Deliver runs cont now if Release was called, otherwise parks it.
func (h *Handoff) Deliver(cont func()) {
	h.mu.Lock()
	if !h.released {
		h.pending = cont
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	cont()
}

// Release marks the engine call as returned and runs a parked continuation.
func (h *Handoff) Release() {
	h.mu.Lock()
	h.released = true
	cont := h.pending
	h.pending = nil
	h.mu.Unlock()

	if cont != nil {
		cont()
	}
}
