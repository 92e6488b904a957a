// internal/matching/engine_test.go
package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-engine/internal/catalog"
)

func candidate(name string) catalog.CandidateUniversity {
	return catalog.CandidateUniversity{
		Name:           name,
		Country:        "Canada",
		CoursesOffered: []string{"Computer Science", "Data Science"},
		AcceptanceRate: 40,
		MinGPA:         7.0,
		MinIELTS:       6.5,
		MinTOEFL:       90,
	}
}

func baseProfile() Profile {
	return Profile{
		Country:      "Canada",
		Course:       "Computer Science",
		GPA:          8.0,
		EnglishTest:  "ielts",
		EnglishScore: 7.0,
	}
}

func TestGPAFitLadder(t *testing.T) {
	cases := []struct {
		gpa      float64
		minGPA   float64
		expected int
	}{
		{8.0, 7.0, 35},  // gap 1.0
		{7.3, 7.0, 30},  // gap 0.3
		{7.0, 7.0, 24},  // gap 0
		{6.5, 7.0, 14},  // gap -0.5
		{6.0, 7.0, 6},   // gap -1.0
		{5.99, 7.0, 0},  // below -1.0
		{10.0, 7.0, 35}, // large surplus still capped
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, GPAFit(tc.gpa, tc.minGPA), "gpa=%v min=%v", tc.gpa, tc.minGPA)
	}
}

func TestEnglishFitNoTest(t *testing.T) {
	c := candidate("Uni")
	assert.Equal(t, 12, EnglishFit("", 0, c))
	assert.Equal(t, 12, EnglishFit("unknown-test", 50, c))
}

func TestEnglishFitGaps(t *testing.T) {
	c := candidate("Uni")

	// IELTS gaps are widened by the 9-point band factor: a full band above
	// the minimum earns the full sub-score.
	assert.Equal(t, 25, EnglishFit("ielts", 7.5, c))  // gap 1.0
	assert.Equal(t, 20, EnglishFit("ielts", 7.0, c))  // gap 0.5, under a full band
	assert.Equal(t, 20, EnglishFit("ielts", 6.5, c))  // exact minimum
	assert.Equal(t, 12, EnglishFit("ielts", 6.25, c)) // just below minimum
	assert.Equal(t, 5, EnglishFit("ielts", 5.0, c))   // far below

	assert.Equal(t, 25, EnglishFit("toefl", 95, c))
	assert.Equal(t, 20, EnglishFit("toefl", 90, c))
	assert.Equal(t, 12, EnglishFit("toefl", 88, c))
}

func TestEnglishFitDerivedScales(t *testing.T) {
	c := candidate("Uni")

	// PTE minimum derived from IELTS: round(6.5*9+10) = 69.
	assert.Equal(t, 20, EnglishFit("pte", 69, c))
	assert.Equal(t, 12, EnglishFit("pte", 67, c))

	// Duolingo against the flat 100 minimum.
	assert.Equal(t, 25, EnglishFit("duolingo", 110, c))
	assert.Equal(t, 12, EnglishFit("duolingo", 98, c))
}

func TestCourseRelevance(t *testing.T) {
	offered := []string{"Computer Science", "Mechanical Engineering"}

	assert.Equal(t, 20, CourseRelevance("computer science", offered))
	assert.Equal(t, 20, CourseRelevance("science", offered))
	// Shared first word with an offered course.
	assert.Equal(t, 20, CourseRelevance("computer graphics", offered))
	assert.Equal(t, 8, CourseRelevance("philosophy", offered))
	assert.Equal(t, 8, CourseRelevance("", offered))
	assert.Equal(t, 8, CourseRelevance("123 456", offered))
}

func TestAccessBonus(t *testing.T) {
	c := candidate("Uni")

	c.AcceptanceRate = 60
	assert.Equal(t, 15, AccessBonus(Profile{}, c))
	c.AcceptanceRate = 30
	assert.Equal(t, 10, AccessBonus(Profile{}, c))
	c.AcceptanceRate = 12
	assert.Equal(t, 5, AccessBonus(Profile{}, c))
	c.AcceptanceRate = 5
	assert.Equal(t, 0, AccessBonus(Profile{}, c))

	c.AcceptanceRate = 60
	c.OffersLoanPartnership = true
	assert.Equal(t, 20, AccessBonus(Profile{LoanAmount: 100000}, c))
	assert.Equal(t, 15, AccessBonus(Profile{LoanAmount: 0}, c))

	assert.Equal(t, 18, AccessBonus(Profile{WorkExpMonths: 14}, c))
	assert.Equal(t, 16, AccessBonus(Profile{WorkExpMonths: 7}, c))
	assert.Equal(t, 15, AccessBonus(Profile{WorkExpMonths: 2}, c))
}

func TestScoreClampedToHundred(t *testing.T) {
	e := NewEngine(0)
	c := candidate("Uni")
	c.AcceptanceRate = 90
	c.OffersLoanPartnership = true

	p := baseProfile()
	p.GPA = 10
	p.EnglishScore = 12
	p.WorkExpMonths = 24
	p.LoanAmount = 100000

	score := e.Score(p, c)
	assert.LessOrEqual(t, score, 100)
	assert.Equal(t, 100, score)
}

func TestScoreScenario(t *testing.T) {
	e := NewEngine(0)
	c := candidate("Uni")
	c.AcceptanceRate = 40
	c.OffersLoanPartnership = false

	p := baseProfile()
	p.GPA = 8.0          // gap 1.0 -> 35
	p.EnglishScore = 7.0 // gap 0.5 -> 20
	p.WorkExpMonths = 0  // no exp bonus

	// 35 + 20 + 20 (course) + 10 (acceptance 40) = 85
	assert.Equal(t, 85, e.Score(p, c))
}

func TestScoreFullProfileScenario(t *testing.T) {
	e := NewEngine(0)
	c := catalog.CandidateUniversity{
		Name:                  "Uni",
		Country:               "USA",
		MinGPA:                7.0,
		MinIELTS:              6.5,
		CoursesOffered:        []string{"Computer Science"},
		AcceptanceRate:        40,
		OffersLoanPartnership: true,
	}
	p := Profile{
		Country:       "USA",
		Course:        "Computer Science",
		GPA:           8.5,
		EnglishTest:   "ielts",
		EnglishScore:  7.5,
		WorkExpMonths: 14,
		LoanAmount:    1500000,
	}

	// 35 (gpa) + 25 (english) + 20 (course) + 10 (acceptance) + 5 (loan)
	// + 3 (work exp) = 98; the clamp is an upper bound, not a renormalization.
	assert.Equal(t, 98, e.Score(p, c))
}

func TestMatchOrdering(t *testing.T) {
	e := NewEngine(0)

	strong := candidate("Strong")
	strong.AcceptanceRate = 60
	strong.Rank = 200

	rankedHigh := candidate("RankedHigh")
	rankedHigh.Rank = 5

	rankedLow := candidate("RankedLow")
	rankedLow.Rank = 50

	unranked := candidate("Unranked")
	unranked.Rank = 0

	p := baseProfile()
	matches := e.Match(p, []catalog.CandidateUniversity{unranked, rankedLow, rankedHigh, strong})
	require.Len(t, matches, 4)

	// Highest score first.
	assert.Equal(t, "Strong", matches[0].Name)

	// Equal scores tie-break by rank ascending, unranked last.
	assert.Equal(t, "RankedHigh", matches[1].Name)
	assert.Equal(t, "RankedLow", matches[2].Name)
	assert.Equal(t, "Unranked", matches[3].Name)
}

func TestMatchCountryFilterFallsBackToFullPool(t *testing.T) {
	e := NewEngine(0)
	pool := []catalog.CandidateUniversity{candidate("A"), candidate("B")}

	p := baseProfile()
	p.Country = "Atlantis"

	matches := e.Match(p, pool)
	assert.Len(t, matches, 2)
}

func TestMatchCountryFilterCaseInsensitive(t *testing.T) {
	e := NewEngine(0)
	other := candidate("Elsewhere")
	other.Country = "Germany"
	pool := []catalog.CandidateUniversity{candidate("A"), other}

	p := baseProfile()
	p.Country = "canada"

	matches := e.Match(p, pool)
	require.Len(t, matches, 1)
	assert.Equal(t, "A", matches[0].Name)
}

func TestMatchTruncatesToMaxResults(t *testing.T) {
	e := NewEngine(3)
	var pool []catalog.CandidateUniversity
	for i := 0; i < 10; i++ {
		pool = append(pool, candidate("Uni"))
	}

	matches := e.Match(baseProfile(), pool)
	assert.Len(t, matches, 3)
}

func TestMatchEmptyPool(t *testing.T) {
	e := NewEngine(0)
	matches := e.Match(baseProfile(), nil)
	assert.Empty(t, matches)
}
