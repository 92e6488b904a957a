// internal/onboarding/validate.go
package onboarding

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "onboarding-engine/internal/common/errors"
	"onboarding-engine/internal/flow"
)

// Submission is one submitted answer. Scale is only meaningful on
// scaled-score steps and names the scale Value was entered on.
type Submission struct {
	StepID string `json:"stepId"`
	Value  string `json:"value"`
	Label  string `json:"label,omitempty"`
	Scale  string `json:"scale,omitempty"`
}

// validateAnswer checks a submission against the step's kind config and
// returns the canonical value and label to store. Scaled scores come back
// normalized to the 0-10 scale regardless of input scale.
func validateAnswer(step flow.Step, sub Submission) (value, label string, err error) {
	value = strings.TrimSpace(sub.Value)
	label = strings.TrimSpace(sub.Label)

	switch step.Kind {
	case flow.KindIntro, flow.KindPreview:
		// Acknowledgement steps carry no data.
		return "ack", step.Prompt, nil

	case flow.KindChoiceGrid:
		if !step.HasOption(value) {
			return "", "", apperrors.NewInvalidAnswerError(step.ID,
				fmt.Sprintf("value %q is not a configured option", value))
		}
		if label == "" {
			for _, opt := range step.Choice.Options {
				if opt.Value == value {
					label = opt.Label
				}
			}
		}
		return value, label, nil

	case flow.KindFreeTextSearch:
		if value == "" {
			return "", "", apperrors.NewInvalidAnswerError(step.ID, "empty search selection")
		}
		if label == "" {
			label = value
		}
		return value, label, nil

	case flow.KindNumeric:
		n, perr := strconv.ParseFloat(value, 64)
		if perr != nil {
			return "", "", apperrors.NewInvalidAnswerError(step.ID,
				fmt.Sprintf("value %q is not numeric", value))
		}
		if n < step.Numeric.Min || n > step.Numeric.Max {
			return "", "", apperrors.NewInvalidAnswerError(step.ID,
				fmt.Sprintf("value %v outside [%v, %v]", n, step.Numeric.Min, step.Numeric.Max))
		}
		if label == "" {
			label = value
			if step.Numeric.Unit != "" {
				label = value + " " + step.Numeric.Unit
			}
		}
		return value, label, nil

	case flow.KindScaledScore:
		return validateScaledScore(step, value, label, sub.Scale)

	case flow.KindMonthPicker:
		return validateMonth(step, value, label)

	default:
		// Auto steps advance themselves and accept no submissions.
		return "", "", apperrors.NewInvalidAnswerError(step.ID,
			fmt.Sprintf("step kind %q does not accept submissions", step.Kind))
	}
}

// validateScaledScore accepts a score on any configured scale and converts
// it to the canonical 0-10 GPA scale.
func validateScaledScore(step flow.Step, value, label, scale string) (string, string, error) {
	mode := flow.ScaleMode(scale)
	if scale == "" {
		mode = flow.ScaleTen
	}

	allowed := false
	for _, m := range step.Scaled.Scales {
		if m == mode {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", "", apperrors.NewInvalidAnswerError(step.ID,
			fmt.Sprintf("scale %q is not accepted on this step", scale))
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", "", apperrors.NewInvalidAnswerError(step.ID,
			fmt.Sprintf("value %q is not numeric", value))
	}

	var canonical float64
	switch mode {
	case flow.ScaleTen:
		if n < 0 || n > 10 {
			return "", "", apperrors.NewInvalidAnswerError(step.ID, "gpa10 score outside [0, 10]")
		}
		canonical = n
	case flow.ScaleFour:
		if n < 0 || n > 4 {
			return "", "", apperrors.NewInvalidAnswerError(step.ID, "gpa4 score outside [0, 4]")
		}
		canonical = n * 2.5
	case flow.ScalePercent:
		if n < 0 || n > 100 {
			return "", "", apperrors.NewInvalidAnswerError(step.ID, "percent score outside [0, 100]")
		}
		canonical = n / 10
	}

	if label == "" {
		label = value
	}
	return strconv.FormatFloat(canonical, 'f', -1, 64), label, nil
}

// validateMonth accepts a YYYY-MM intake month between the current month and
// the configured horizon.
func validateMonth(step flow.Step, value, label string) (string, string, error) {
	month, err := time.Parse("2006-01", value)
	if err != nil {
		return "", "", apperrors.NewInvalidAnswerError(step.ID,
			fmt.Sprintf("value %q is not a YYYY-MM month", value))
	}

	now := time.Now().UTC()
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if month.Before(currentMonth) {
		return "", "", apperrors.NewInvalidAnswerError(step.ID, "intake month is in the past")
	}
	if step.Month != nil && step.Month.MonthsAhead > 0 {
		horizon := currentMonth.AddDate(0, step.Month.MonthsAhead, 0)
		if month.After(horizon) {
			return "", "", apperrors.NewInvalidAnswerError(step.ID,
				fmt.Sprintf("intake month beyond the %d-month horizon", step.Month.MonthsAhead))
		}
	}

	if label == "" {
		label = month.Format("January 2006")
	}
	return value, label, nil
}
