// internal/orchestrator/supervisor.go
package orchestrator

import "sync"

// Supervisor is a single-slot request guard for one async step: at most one
// request in flight, and completions are applied only when their generation
// is still current. Rewind and re-submission bump the generation, so late
// responses for an abandoned position are discarded rather than applied
// (soft cancellation).
type Supervisor struct {
	mu       sync.Mutex
	gen      uint64
	inFlight bool
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// Begin claims the slot. It returns the generation token to pass to Finish,
// and ok=false when a request is already in flight.
func (s *Supervisor) Begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return 0, false
	}
	s.inFlight = true
	return s.gen, true
}

// Finish releases the slot. It reports whether the completion is still
// current; stale completions must be discarded by the caller.
func (s *Supervisor) Finish(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.gen {
		return false
	}
	s.inFlight = false
	return true
}

// Invalidate supersedes any in-flight request: its eventual Finish will
// report stale. The slot is reopened immediately.
func (s *Supervisor) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.inFlight = false
}

// InFlight reports whether a request currently holds the slot.
func (s *Supervisor) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
