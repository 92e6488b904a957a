// internal/flow/step.go
package flow

// Kind identifies the interaction variant of a step. Each kind carries its
// own configuration struct on Step; all other config pointers are nil.
type Kind string

const (
	KindIntro          Kind = "intro"
	KindChoiceGrid     Kind = "choice-grid"
	KindFreeTextSearch Kind = "free-text-search"
	KindNumeric        Kind = "numeric"
	KindScaledScore    Kind = "scaled-score"
	KindMonthPicker    Kind = "month-picker"
	KindAutoSearch     Kind = "auto-search"
	KindAutoMatch      Kind = "auto-match"
	KindPreview        Kind = "preview"
)

// FlowTag identifies one of the three mutually exclusive onboarding paths.
type FlowTag string

const (
	FlowFindUniversity FlowTag = "find_university"
	FlowGetLoan        FlowTag = "get_loan"
	FlowCompare        FlowTag = "compare_universities"
)

// SkipIf skips a step when the referenced answer's value equals Value.
type SkipIf struct {
	StepID string `json:"stepId"`
	Value  string `json:"value"`
}

// Option is a selectable choice on a choice-grid step.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type ChoiceConfig struct {
	Options []Option `json:"options"`
}

// SearchScope tells the orchestrator which catalog dimension a
// free-text-search step queries.
type SearchScope string

const (
	ScopeCountry    SearchScope = "country"
	ScopeCourse     SearchScope = "course"
	ScopeUniversity SearchScope = "university"
)

type SearchConfig struct {
	Scope       SearchScope `json:"scope"`
	Placeholder string      `json:"placeholder,omitempty"`
}

type NumericConfig struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit,omitempty"`
}

// ScaleMode names an accepted input scale for a scaled-score step. All
// submitted scores are normalized to the canonical 0-10 scale.
type ScaleMode string

const (
	ScaleTen     ScaleMode = "gpa10"
	ScaleFour    ScaleMode = "gpa4"
	ScalePercent ScaleMode = "percent"
)

type ScaledScoreConfig struct {
	Scales []ScaleMode `json:"scales"`
}

type MonthPickerConfig struct {
	MonthsAhead int `json:"monthsAhead"`
}

// Step is an immutable step definition. Steps are created once at process
// start and never mutated.
type Step struct {
	ID     string  `json:"id"`
	Kind   Kind    `json:"kind"`
	Prompt string  `json:"prompt,omitempty"`
	Flows  []FlowTag `json:"flows,omitempty"` // empty = present in every flow
	SkipIf *SkipIf `json:"skipIf,omitempty"`

	Choice  *ChoiceConfig      `json:"choice,omitempty"`
	Search  *SearchConfig      `json:"search,omitempty"`
	Numeric *NumericConfig     `json:"numeric,omitempty"`
	Scaled  *ScaledScoreConfig `json:"scaled,omitempty"`
	Month   *MonthPickerConfig `json:"month,omitempty"`
}

// InFlow reports whether the step belongs to flow f. Steps with no flow
// tags belong to every flow.
func (s Step) InFlow(f FlowTag) bool {
	if len(s.Flows) == 0 {
		return true
	}
	for _, tag := range s.Flows {
		if tag == f {
			return true
		}
	}
	return false
}

// FlowAgnostic reports whether the step is visible before a flow is selected.
func (s Step) FlowAgnostic() bool {
	return len(s.Flows) == 0
}

// Auto reports whether the step advances itself after an async action.
func (s Step) Auto() bool {
	return s.Kind == KindAutoSearch || s.Kind == KindAutoMatch
}

// HasOption reports whether value is one of the step's configured choices.
func (s Step) HasOption(value string) bool {
	if s.Choice == nil {
		return false
	}
	for _, opt := range s.Choice.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}
