// internal/session/alias.go
package session

// Shared profile keys. Consumers of the profile (orchestrator, scoring
// engine) read only these, never flow-specific step ids.
const (
	KeyCountry          = "country"
	KeyCourse           = "course"
	KeyGPA              = "gpa"
	KeyEnglishTest      = "english_test"
	KeyEnglishScore     = "english_score"
	KeyWorkExpMonths    = "work_exp_months"
	KeyLoanAmount       = "loan_amount"
	KeyIntake           = "intake"
	KeyLevel            = "level"
	KeyTargetUniversity = "target_university"
	KeyShortlist        = "shortlist"
)

// aliasTable maps flow-specific step ids to shared profile keys. Flows are
// mutually exclusive, so at most one aliased writer is active per session
// and the shared key is never ambiguously double-written.
//
// Kept as data so new flows can add aliases without touching resolver logic.
var aliasTable = map[string]string{
	"plan_country":    KeyCountry,
	"loan_country":    KeyCountry,
	"compare_country": KeyCountry,

	"plan_course":    KeyCourse,
	"loan_course":    KeyCourse,
	"compare_course": KeyCourse,

	"plan_gpa":    KeyGPA,
	"loan_gpa":    KeyGPA,
	"compare_gpa": KeyGPA,

	"plan_english_test":    KeyEnglishTest,
	"loan_english_test":    KeyEnglishTest,
	"compare_english_test": KeyEnglishTest,

	"plan_english_score":    KeyEnglishScore,
	"loan_english_score":    KeyEnglishScore,
	"compare_english_score": KeyEnglishScore,

	"plan_work_exp": KeyWorkExpMonths,
	"loan_work_exp": KeyWorkExpMonths,

	"plan_loan_amount": KeyLoanAmount,
	"loan_amount":      KeyLoanAmount,

	"plan_intake": KeyIntake,
	"plan_level":  KeyLevel,

	"loan_university":      KeyTargetUniversity,
	"compare_universities": KeyShortlist,
}

// AliasFor returns the shared profile key a step id writes through to.
func AliasFor(stepID string) (string, bool) {
	key, ok := aliasTable[stepID]
	return key, ok
}
