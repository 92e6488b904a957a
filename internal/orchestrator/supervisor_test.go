// internal/orchestrator/supervisor_test.go
package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisorSingleSlot(t *testing.T) {
	s := NewSupervisor()

	gen, ok := s.Begin()
	require.True(t, ok)
	assert.True(t, s.InFlight())

	// Second request while one is in flight is refused.
	_, ok = s.Begin()
	assert.False(t, ok)

	assert.True(t, s.Finish(gen))
	assert.False(t, s.InFlight())

	// Slot is reusable after completion.
	_, ok = s.Begin()
	assert.True(t, ok)
}

func TestSupervisorInvalidateMarksStale(t *testing.T) {
	s := NewSupervisor()

	gen, ok := s.Begin()
	require.True(t, ok)

	s.Invalidate()

	// The superseded completion reports stale.
	assert.False(t, s.Finish(gen))

	// The slot reopened immediately on invalidation.
	gen2, ok := s.Begin()
	require.True(t, ok)
	assert.NotEqual(t, gen, gen2)
	assert.True(t, s.Finish(gen2))
}

func TestSupervisorRepeatedInvalidation(t *testing.T) {
	s := NewSupervisor()

	gen, _ := s.Begin()
	s.Invalidate()
	s.Invalidate()

	assert.False(t, s.Finish(gen))

	gen2, ok := s.Begin()
	require.True(t, ok)
	assert.True(t, s.Finish(gen2))
}
