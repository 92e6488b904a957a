// internal/session/session_test.go
package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-engine/internal/flow"
)

func testRegistry(t *testing.T) *flow.Registry {
	t.Helper()
	reg, err := flow.Default()
	require.NoError(t, err)
	return reg
}

func TestSetAnswerWritesAliasKey(t *testing.T) {
	sess := New("s1", Contact{})

	sess.SetAnswer("plan_country", "Germany", "Germany")

	v, ok := sess.Answer("plan_country")
	require.True(t, ok)
	assert.Equal(t, "Germany", v)

	// Write-time denormalization: the shared profile key carries the same
	// value immediately.
	v, ok = sess.Answer(KeyCountry)
	require.True(t, ok)
	assert.Equal(t, "Germany", v)
}

func TestSetAnswerFlowSelection(t *testing.T) {
	sess := New("s1", Contact{})

	_, ok := sess.SelectedFlow()
	assert.False(t, ok)

	sess.SetAnswer(flow.FlowSelectStepID, string(flow.FlowGetLoan), "Get a loan")

	tag, ok := sess.SelectedFlow()
	require.True(t, ok)
	assert.Equal(t, flow.FlowGetLoan, tag)
}

func TestSetAnswerWithoutAlias(t *testing.T) {
	sess := New("s1", Contact{})
	sess.SetAnswer("plan_funding", "loan", "Education loan")

	_, ok := sess.Answer("funding")
	assert.False(t, ok)

	v, ok := sess.Answer("plan_funding")
	require.True(t, ok)
	assert.Equal(t, "loan", v)
}

func TestRewindDeletesAnswersAndAliases(t *testing.T) {
	reg := testRegistry(t)
	sess := New("s1", Contact{})

	sess.SetAnswer(flow.FlowSelectStepID, string(flow.FlowFindUniversity), "Find")
	sess.SetAnswer("plan_level", "masters", "Master's")
	sess.SetAnswer("plan_country", "Canada", "Canada")
	sess.SetAnswer("plan_course", "Data Science", "Data Science")

	courseIdx, ok := reg.IndexOf("plan_course")
	require.True(t, ok)
	countryIdx, ok := reg.IndexOf("plan_country")
	require.True(t, ok)

	sess.RewindTo(reg, countryIdx)

	// Everything at or after the target is gone, answer and alias both.
	for _, key := range []string{"plan_country", KeyCountry, "plan_course", KeyCourse} {
		_, ok := sess.Answer(key)
		assert.False(t, ok, "key %s should be deleted", key)
	}

	// Earlier answers survive.
	v, ok := sess.Answer("plan_level")
	require.True(t, ok)
	assert.Equal(t, "masters", v)
	v, ok = sess.Answer(KeyLevel)
	require.True(t, ok)
	assert.Equal(t, "masters", v)

	assert.Equal(t, countryIdx, sess.CurrentIndex)
	assert.Less(t, countryIdx, courseIdx)
}

func TestRewindKeepsAliasesOwnedByEarlierSteps(t *testing.T) {
	reg := testRegistry(t)
	sess := New("s1", Contact{})

	sess.SetAnswer(flow.FlowSelectStepID, string(flow.FlowFindUniversity), "Find")
	sess.SetAnswer("plan_country", "Canada", "Canada")
	sess.SetAnswer("plan_course", "Data Science", "Data Science")

	// loan_country and compare_country sit after plan_gpa in the registry
	// and write through to the same country alias. Neither was answered, so
	// the alias written by plan_country has to survive the rewind.
	gpaIdx, ok := reg.IndexOf("plan_gpa")
	require.True(t, ok)
	sess.RewindTo(reg, gpaIdx)

	v, ok := sess.Answer(KeyCountry)
	require.True(t, ok)
	assert.Equal(t, "Canada", v)
	v, ok = sess.Answer(KeyCourse)
	require.True(t, ok)
	assert.Equal(t, "Data Science", v)

	assert.Equal(t, "Canada", sess.Profile().Country)
	assert.Equal(t, "Data Science", sess.Profile().Course)
}

func TestRewindKeepsLoanAmountAliasAcrossFlows(t *testing.T) {
	reg := testRegistry(t)
	sess := New("s1", Contact{})

	sess.SetAnswer(flow.FlowSelectStepID, string(flow.FlowFindUniversity), "Find")
	sess.SetAnswer("plan_loan_amount", "2000000", "2000000 inr")

	// The get-loan flow's loan_amount step id equals the shared alias key.
	// Rewinding the find flow past it must not treat the alias entry as
	// that step's own answer.
	shortlistIdx, ok := reg.IndexOf("plan_shortlist")
	require.True(t, ok)
	sess.RewindTo(reg, shortlistIdx)

	v, ok := sess.Answer(KeyLoanAmount)
	require.True(t, ok)
	assert.Equal(t, "2000000", v)
	assert.Equal(t, 2000000, sess.Profile().LoanAmount)
}

func TestRewindClearsAutoCaches(t *testing.T) {
	reg := testRegistry(t)
	sess := New("s1", Contact{})
	sess.SetAnswer(flow.FlowSelectStepID, string(flow.FlowFindUniversity), "Find")
	sess.Pool = append(sess.Pool, poolCandidate("Uni A"))
	sess.Matches = append(sess.Matches, scoredCandidate("Uni A", 80))

	shortlistIdx, ok := reg.IndexOf("plan_shortlist")
	require.True(t, ok)

	sess.RewindTo(reg, shortlistIdx)

	assert.Nil(t, sess.Pool)
	assert.Nil(t, sess.Matches)

	// Flow remains selected when rewinding past flow_select's index.
	tag, ok := sess.SelectedFlow()
	require.True(t, ok)
	assert.Equal(t, flow.FlowFindUniversity, tag)
}

func TestRewindToFlowSelectClearsFlow(t *testing.T) {
	reg := testRegistry(t)
	sess := New("s1", Contact{})
	sess.SetAnswer(flow.FlowSelectStepID, string(flow.FlowCompare), "Compare")
	sess.SetAnswer("compare_country", "UK", "United Kingdom")
	sess.Pool = append(sess.Pool, poolCandidate("Uni A"))

	sess.RewindTo(reg, reg.FlowSelectIndex())

	_, ok := sess.SelectedFlow()
	assert.False(t, ok)
	assert.Nil(t, sess.Pool)
	assert.Nil(t, sess.Matches)
	assert.Empty(t, sess.Answers)
}

func TestProfileAssembly(t *testing.T) {
	sess := New("s1", Contact{})
	sess.SetAnswer("loan_country", "Australia", "Australia")
	sess.SetAnswer("loan_course", "MBA", "MBA")
	sess.SetAnswer("loan_gpa", "8.5", "8.5")
	sess.SetAnswer("loan_english_test", "ielts", "IELTS")
	sess.SetAnswer("loan_english_score", "7", "7")
	sess.SetAnswer("loan_work_exp", "18", "18 months")
	sess.SetAnswer("loan_amount", "2500000", "2500000 inr")

	p := sess.Profile()
	assert.Equal(t, "Australia", p.Country)
	assert.Equal(t, "MBA", p.Course)
	assert.Equal(t, 8.5, p.GPA)
	assert.Equal(t, "ielts", p.EnglishTest)
	assert.Equal(t, 7.0, p.EnglishScore)
	assert.Equal(t, 18, p.WorkExpMonths)
	assert.Equal(t, 2500000, p.LoanAmount)
}

func TestProfileNoTestSelected(t *testing.T) {
	sess := New("s1", Contact{})
	sess.SetAnswer("plan_english_test", "none", "Not taken yet")

	p := sess.Profile()
	assert.Empty(t, p.EnglishTest)
}

func TestTranscriptInRegistryOrder(t *testing.T) {
	reg := testRegistry(t)
	sess := New("s1", Contact{})
	sess.SetAnswer("plan_country", "Canada", "Canada")
	sess.SetAnswer(flow.FlowSelectStepID, string(flow.FlowFindUniversity), "Find me a university")

	entries := sess.Transcript(reg)
	require.Len(t, entries, 2)
	assert.Equal(t, flow.FlowSelectStepID, entries[0].StepID)
	assert.Equal(t, "plan_country", entries[1].StepID)
	assert.Equal(t, "Find me a university", entries[0].Label)
}
