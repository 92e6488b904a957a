// internal/flow/resolver_test.go
package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeState is a minimal State for resolver tests.
type fakeState struct {
	flow    FlowTag
	answers map[string]string
}

func (f *fakeState) SelectedFlow() (FlowTag, bool) {
	return f.flow, f.flow != ""
}

func (f *fakeState) Answer(stepID string) (string, bool) {
	v, ok := f.answers[stepID]
	return v, ok
}

func newState(flow FlowTag, answers map[string]string) *fakeState {
	if answers == nil {
		answers = map[string]string{}
	}
	return &fakeState{flow: flow, answers: answers}
}

func TestNextVisibleIndexSkipsOtherFlows(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	state := newState(FlowGetLoan, nil)

	flowSelect := reg.FlowSelectIndex()
	next := reg.NextVisibleIndex(flowSelect+1, state)

	step := reg.At(next)
	assert.Equal(t, "loan_country", step.ID)
	assert.True(t, step.InFlow(FlowGetLoan))
}

func TestNextVisibleIndexBeforeFlowSelection(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	// No flow selected yet: only flow-agnostic steps are visible, so the
	// scan from the top lands on the intro step.
	state := newState("", nil)
	assert.Equal(t, 0, reg.NextVisibleIndex(0, state))

	// After intro, the flow-selection step itself is next.
	next := reg.NextVisibleIndex(1, state)
	assert.Equal(t, FlowSelectStepID, reg.At(next).ID)
}

func TestNextVisibleIndexHonorsSkipIf(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	englishTestIdx, ok := reg.IndexOf("plan_english_test")
	require.True(t, ok)

	withTest := newState(FlowFindUniversity, map[string]string{
		"plan_english_test": "ielts",
	})
	next := reg.NextVisibleIndex(englishTestIdx+1, withTest)
	assert.Equal(t, "plan_english_score", reg.At(next).ID)

	noTest := newState(FlowFindUniversity, map[string]string{
		"plan_english_test": "none",
	})
	next = reg.NextVisibleIndex(englishTestIdx+1, noTest)
	assert.Equal(t, "plan_work_exp", reg.At(next).ID)
}

func TestNextVisibleIndexSkipsLoanAmountWhenSelfFunded(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	fundingIdx, ok := reg.IndexOf("plan_funding")
	require.True(t, ok)

	state := newState(FlowFindUniversity, map[string]string{
		"plan_funding": "self",
	})
	next := reg.NextVisibleIndex(fundingIdx+1, state)
	assert.Equal(t, "plan_shortlist", reg.At(next).ID)
}

func TestNextVisibleIndexIsFixedPoint(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	states := []*fakeState{
		newState("", nil),
		newState(FlowFindUniversity, nil),
		newState(FlowGetLoan, map[string]string{"loan_english_test": "none"}),
		newState(FlowCompare, map[string]string{"compare_english_test": "toefl"}),
	}

	for _, state := range states {
		for from := 0; from <= reg.Len(); from++ {
			once := reg.NextVisibleIndex(from, state)
			twice := reg.NextVisibleIndex(once, state)
			assert.Equal(t, once, twice, "from=%d", from)
		}
	}
}

func TestNextVisibleIndexTerminal(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	state := newState(FlowFindUniversity, nil)
	assert.Equal(t, reg.Len(), reg.NextVisibleIndex(reg.Len(), state))
	assert.Equal(t, reg.Len(), reg.NextVisibleIndex(reg.Len()+5, state))
}

func TestNextVisibleIndexClampsNegative(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	state := newState("", nil)
	assert.Equal(t, 0, reg.NextVisibleIndex(-3, state))
}

func TestVisibleFlowIsolation(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	state := newState(FlowCompare, nil)
	for i := 0; i < reg.Len(); i++ {
		step := reg.At(i)
		if step.FlowAgnostic() {
			continue
		}
		visible := reg.Visible(step, state)
		assert.Equal(t, step.InFlow(FlowCompare), visible, "step %s", step.ID)
	}
}
