// internal/flow/registry.go
package flow

import (
	"fmt"

	apperrors "onboarding-engine/internal/common/errors"
)

// FlowSelectStepID is the single flow-selection step. Its answer value is
// the FlowTag for the rest of the session.
const FlowSelectStepID = "flow_select"

// Registry is an ordered, static list of step definitions. It is validated
// once at construction and never mutated afterwards.
type Registry struct {
	steps []Step
	index map[string]int
}

// NewRegistry validates the step list and builds the id index. Validation
// failures are configuration errors and fatal at startup.
func NewRegistry(steps []Step) (*Registry, error) {
	if len(steps) == 0 {
		return nil, apperrors.NewRegistryInvalidError("registry is empty")
	}

	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			return nil, apperrors.NewRegistryInvalidError(fmt.Sprintf("step at index %d has no id", i))
		}
		if _, dup := index[s.ID]; dup {
			return nil, apperrors.NewRegistryInvalidError(fmt.Sprintf("duplicate step id %q", s.ID))
		}
		if err := validateKind(s); err != nil {
			return nil, err
		}
		index[s.ID] = i
	}

	if _, ok := index[FlowSelectStepID]; !ok {
		return nil, apperrors.NewRegistryInvalidError("registry has no flow-selection step")
	}

	// skipIf may only reference an earlier step; a forward reference could
	// never be answered by the time the predicate is evaluated.
	for i, s := range steps {
		if s.SkipIf == nil {
			continue
		}
		ref, ok := index[s.SkipIf.StepID]
		if !ok {
			return nil, apperrors.NewRegistryInvalidError(
				fmt.Sprintf("step %q skipIf references unknown step %q", s.ID, s.SkipIf.StepID))
		}
		if ref >= i {
			return nil, apperrors.NewRegistryInvalidError(
				fmt.Sprintf("step %q skipIf references later step %q", s.ID, s.SkipIf.StepID))
		}
	}

	reg := &Registry{
		steps: make([]Step, len(steps)),
		index: index,
	}
	copy(reg.steps, steps)
	return reg, nil
}

func validateKind(s Step) error {
	switch s.Kind {
	case KindChoiceGrid:
		if s.Choice == nil || len(s.Choice.Options) == 0 {
			return apperrors.NewRegistryInvalidError(fmt.Sprintf("choice step %q has no options", s.ID))
		}
	case KindFreeTextSearch:
		if s.Search == nil {
			return apperrors.NewRegistryInvalidError(fmt.Sprintf("search step %q has no search config", s.ID))
		}
	case KindNumeric:
		if s.Numeric == nil || s.Numeric.Max <= s.Numeric.Min {
			return apperrors.NewRegistryInvalidError(fmt.Sprintf("numeric step %q has invalid bounds", s.ID))
		}
	case KindScaledScore:
		if s.Scaled == nil || len(s.Scaled.Scales) == 0 {
			return apperrors.NewRegistryInvalidError(fmt.Sprintf("scaled step %q has no scales", s.ID))
		}
	case KindIntro, KindMonthPicker, KindAutoSearch, KindAutoMatch, KindPreview:
		// no kind-specific config required
	default:
		return apperrors.NewRegistryInvalidError(fmt.Sprintf("step %q has unknown kind %q", s.ID, s.Kind))
	}
	return nil
}

// Len returns the number of steps. It doubles as the terminal index.
func (r *Registry) Len() int {
	return len(r.steps)
}

// At returns the step at index i.
func (r *Registry) At(i int) Step {
	return r.steps[i]
}

// IndexOf returns the index of the step with the given id.
func (r *Registry) IndexOf(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// FlowSelectIndex returns the index of the flow-selection step.
func (r *Registry) FlowSelectIndex() int {
	return r.index[FlowSelectStepID]
}

// Steps returns a copy of the step list.
func (r *Registry) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Default returns the built-in onboarding registry: a shared intro and
// flow-selection step, the three flow-specific questionnaires, and the
// shared auto-match and preview tail.
func Default() (*Registry, error) {
	return NewRegistry(defaultSteps())
}

func defaultSteps() []Step {
	find := []FlowTag{FlowFindUniversity}
	loan := []FlowTag{FlowGetLoan}
	compare := []FlowTag{FlowCompare}

	englishTests := &ChoiceConfig{Options: []Option{
		{Value: "ielts", Label: "IELTS"},
		{Value: "toefl", Label: "TOEFL"},
		{Value: "pte", Label: "PTE Academic"},
		{Value: "duolingo", Label: "Duolingo English Test"},
		{Value: "none", Label: "Not taken yet"},
	}}
	gpaScales := &ScaledScoreConfig{Scales: []ScaleMode{ScaleTen, ScaleFour, ScalePercent}}

	return []Step{
		{ID: "intro", Kind: KindIntro, Prompt: "Let's plan your study abroad journey"},
		{ID: FlowSelectStepID, Kind: KindChoiceGrid, Prompt: "What brings you here today?",
			Choice: &ChoiceConfig{Options: []Option{
				{Value: string(FlowFindUniversity), Label: "Find me a university"},
				{Value: string(FlowGetLoan), Label: "Get an education loan"},
				{Value: string(FlowCompare), Label: "Compare my shortlisted universities"},
			}}},

		// Find-university flow
		{ID: "plan_level", Kind: KindChoiceGrid, Prompt: "What level do you want to study?", Flows: find,
			Choice: &ChoiceConfig{Options: []Option{
				{Value: "bachelors", Label: "Bachelor's"},
				{Value: "masters", Label: "Master's"},
				{Value: "phd", Label: "PhD"},
			}}},
		{ID: "plan_country", Kind: KindFreeTextSearch, Prompt: "Where do you want to study?", Flows: find,
			Search: &SearchConfig{Scope: ScopeCountry, Placeholder: "Search countries"}},
		{ID: "plan_course", Kind: KindFreeTextSearch, Prompt: "What do you want to study?", Flows: find,
			Search: &SearchConfig{Scope: ScopeCourse, Placeholder: "Search courses"}},
		{ID: "plan_intake", Kind: KindMonthPicker, Prompt: "When do you plan to start?", Flows: find,
			Month: &MonthPickerConfig{MonthsAhead: 24}},
		{ID: "plan_gpa", Kind: KindScaledScore, Prompt: "What's your academic score?", Flows: find, Scaled: gpaScales},
		{ID: "plan_english_test", Kind: KindChoiceGrid, Prompt: "Which English test have you taken?", Flows: find,
			Choice: englishTests},
		{ID: "plan_english_score", Kind: KindNumeric, Prompt: "What's your score?", Flows: find,
			SkipIf:  &SkipIf{StepID: "plan_english_test", Value: "none"},
			Numeric: &NumericConfig{Min: 0, Max: 160}},
		{ID: "plan_work_exp", Kind: KindNumeric, Prompt: "Months of work experience?", Flows: find,
			Numeric: &NumericConfig{Min: 0, Max: 480, Unit: "months"}},
		{ID: "plan_funding", Kind: KindChoiceGrid, Prompt: "How will you fund your studies?", Flows: find,
			Choice: &ChoiceConfig{Options: []Option{
				{Value: "loan", Label: "Education loan"},
				{Value: "self", Label: "Self / family funded"},
			}}},
		{ID: "plan_loan_amount", Kind: KindNumeric, Prompt: "How much loan do you need?", Flows: find,
			SkipIf:  &SkipIf{StepID: "plan_funding", Value: "self"},
			Numeric: &NumericConfig{Min: 1, Max: 100000000, Unit: "inr"}},
		{ID: "plan_shortlist", Kind: KindAutoSearch, Prompt: "Finding universities for you", Flows: find},

		// Get-loan flow
		{ID: "loan_country", Kind: KindFreeTextSearch, Prompt: "Which country are you headed to?", Flows: loan,
			Search: &SearchConfig{Scope: ScopeCountry, Placeholder: "Search countries"}},
		{ID: "loan_university", Kind: KindFreeTextSearch, Prompt: "Which university are you targeting?", Flows: loan,
			Search: &SearchConfig{Scope: ScopeUniversity, Placeholder: "Search universities"}},
		{ID: "loan_course", Kind: KindFreeTextSearch, Prompt: "Which course?", Flows: loan,
			Search: &SearchConfig{Scope: ScopeCourse, Placeholder: "Search courses"}},
		{ID: "loan_gpa", Kind: KindScaledScore, Prompt: "What's your academic score?", Flows: loan, Scaled: gpaScales},
		{ID: "loan_english_test", Kind: KindChoiceGrid, Prompt: "Which English test have you taken?", Flows: loan,
			Choice: englishTests},
		{ID: "loan_english_score", Kind: KindNumeric, Prompt: "What's your score?", Flows: loan,
			SkipIf:  &SkipIf{StepID: "loan_english_test", Value: "none"},
			Numeric: &NumericConfig{Min: 0, Max: 160}},
		{ID: "loan_work_exp", Kind: KindNumeric, Prompt: "Months of work experience?", Flows: loan,
			Numeric: &NumericConfig{Min: 0, Max: 480, Unit: "months"}},
		{ID: "loan_amount", Kind: KindNumeric, Prompt: "How much loan do you need?", Flows: loan,
			Numeric: &NumericConfig{Min: 1, Max: 100000000, Unit: "inr"}},

		// Compare flow
		{ID: "compare_country", Kind: KindFreeTextSearch, Prompt: "Which country are your shortlists in?", Flows: compare,
			Search: &SearchConfig{Scope: ScopeCountry, Placeholder: "Search countries"}},
		{ID: "compare_universities", Kind: KindFreeTextSearch, Prompt: "Add your shortlisted universities", Flows: compare,
			Search: &SearchConfig{Scope: ScopeUniversity, Placeholder: "Search universities"}},
		{ID: "compare_course", Kind: KindFreeTextSearch, Prompt: "Which course are you comparing for?", Flows: compare,
			Search: &SearchConfig{Scope: ScopeCourse, Placeholder: "Search courses"}},
		{ID: "compare_gpa", Kind: KindScaledScore, Prompt: "What's your academic score?", Flows: compare, Scaled: gpaScales},
		{ID: "compare_english_test", Kind: KindChoiceGrid, Prompt: "Which English test have you taken?", Flows: compare,
			Choice: englishTests},
		{ID: "compare_english_score", Kind: KindNumeric, Prompt: "What's your score?", Flows: compare,
			SkipIf:  &SkipIf{StepID: "compare_english_test", Value: "none"},
			Numeric: &NumericConfig{Min: 0, Max: 160}},

		// Shared tail
		{ID: "match_results", Kind: KindAutoMatch, Prompt: "Scoring your matches"},
		{ID: "results_preview", Kind: KindPreview, Prompt: "Your matches"},
	}
}
