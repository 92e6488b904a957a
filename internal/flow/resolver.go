// internal/flow/resolver.go
package flow

// State is the session view the resolver needs: the selected flow and the
// submitted answers. Implemented by session.Session.
type State interface {
	// SelectedFlow returns the chosen flow tag; ok is false until the
	// flow-selection step has been answered.
	SelectedFlow() (FlowTag, bool)
	// Answer returns the canonical value submitted for stepID, if any.
	Answer(stepID string) (string, bool)
}

// NextVisibleIndex scans forward from fromIndex and returns the index of the
// first visible step, or Len() when no visible step remains (terminal state).
//
// The function is a fixed point: calling it with its own output returns that
// same output, so callers may re-invoke it after every submission without
// accumulating drift.
func (r *Registry) NextVisibleIndex(fromIndex int, s State) int {
	if fromIndex < 0 {
		fromIndex = 0
	}
	for i := fromIndex; i < len(r.steps); i++ {
		if r.Visible(r.steps[i], s) {
			return i
		}
	}
	return len(r.steps)
}

// Visible reports whether a step is visible for the session state. A step is
// invisible when it is tagged to flows that do not include the selected flow
// (or any specific flow before one is selected), or when its skip predicate
// is satisfied.
func (r *Registry) Visible(step Step, s State) bool {
	if !step.FlowAgnostic() {
		selected, ok := s.SelectedFlow()
		if !ok || !step.InFlow(selected) {
			return false
		}
	}
	if step.SkipIf != nil {
		if v, ok := s.Answer(step.SkipIf.StepID); ok && v == step.SkipIf.Value {
			return false
		}
	}
	return true
}
