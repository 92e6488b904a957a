// internal/matching/engine.go
package matching

import (
	"math"
	"sort"
	"strings"

	"onboarding-engine/internal/catalog"
)

// Profile is the normalized user profile assembled from the answer store's
// alias keys. GPA is on the canonical 0-10 scale, LoanAmount in the user's
// currency (only >0 matters for scoring), WorkExpMonths in months.
type Profile struct {
	Country       string  `json:"country"`
	Course        string  `json:"course"`
	GPA           float64 `json:"gpa"`
	EnglishTest   string  `json:"englishTest"`
	EnglishScore  float64 `json:"englishScore"`
	WorkExpMonths int     `json:"workExpMonths"`
	LoanAmount    int     `json:"loanAmount"`
}

// ScoredUniversity is a candidate plus its 0-100 match score.
type ScoredUniversity struct {
	catalog.CandidateUniversity
	MatchScore int `json:"matchScore"`
}

// Sub-score ceilings. The four sub-scores sum to at most 100; the clamp is
// an upper bound only, never a renormalization.
const (
	maxGPAPoints     = 35
	maxEnglishPoints = 25
	maxCoursePoints  = 20
	maxAccessPoints  = 20
)

// PTE minimum is approximated from the IELTS minimum; Duolingo as a flat
// requirement. Both per the product's published equivalence tables.
const duolingoFlatMin = 100.0

// IELTS scores span a 0-9 band while the other test families score in
// points; the gap thresholds below are written in points, so IELTS gaps are
// widened by the same band factor the PTE conversion uses.
const ieltsGapScale = 9.0

// Engine ranks a candidate pool against a profile. Pure and deterministic:
// no I/O, no randomness, safe for concurrent use.
type Engine struct {
	maxResults int
}

func NewEngine(maxResults int) *Engine {
	if maxResults <= 0 {
		maxResults = 30
	}
	return &Engine{maxResults: maxResults}
}

// Match filters, scores, sorts, and truncates the pool.
func (e *Engine) Match(profile Profile, pool []catalog.CandidateUniversity) []ScoredUniversity {
	candidates := filterByCountry(profile.Country, pool)

	scored := make([]ScoredUniversity, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoredUniversity{
			CandidateUniversity: c,
			MatchScore:          e.Score(profile, c),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MatchScore != scored[j].MatchScore {
			return scored[i].MatchScore > scored[j].MatchScore
		}
		return rankLess(scored[i].Rank, scored[j].Rank)
	})

	if len(scored) > e.maxResults {
		scored = scored[:e.maxResults]
	}
	return scored
}

// Score computes the 0-100 match score for a single candidate.
func (e *Engine) Score(profile Profile, c catalog.CandidateUniversity) int {
	total := GPAFit(profile.GPA, c.MinGPA) +
		EnglishFit(profile.EnglishTest, profile.EnglishScore, c) +
		CourseRelevance(profile.Course, c.CoursesOffered) +
		AccessBonus(profile, c)

	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

// filterByCountry keeps candidates whose country matches case-insensitively.
// An empty filter result falls back to the full pool: the product never
// shows a hard-empty list while any candidates exist.
func filterByCountry(country string, pool []catalog.CandidateUniversity) []catalog.CandidateUniversity {
	if country == "" {
		return pool
	}
	var matched []catalog.CandidateUniversity
	for _, c := range pool {
		if strings.EqualFold(c.Country, country) {
			matched = append(matched, c)
		}
	}
	if len(matched) == 0 {
		return pool
	}
	return matched
}

// GPAFit awards up to 35 points on the gap between the user's GPA and the
// candidate's minimum, both on the 0-10 scale.
func GPAFit(gpa, minGPA float64) int {
	gap := gpa - minGPA
	switch {
	case gap >= 1.0:
		return 35
	case gap >= 0.3:
		return 30
	case gap >= 0:
		return 24
	case gap >= -0.5:
		return 14
	case gap >= -1.0:
		return 6
	default:
		return 0
	}
}

// EnglishFit awards up to 25 points. With no test supplied the sub-score is
// a flat 12 (unknown, neutral). Otherwise the candidate's minimum for the
// same test family is compared against the user's score, with IELTS gaps
// widened to the common point range before thresholding.
func EnglishFit(test string, score float64, c catalog.CandidateUniversity) int {
	required, gapScale, ok := requiredEnglishScore(test, c)
	if !ok {
		return 12
	}

	gap := (score - required) * gapScale
	switch {
	case gap >= 5:
		return 25
	case gap >= 0:
		return 20
	case gap >= -3:
		return 12
	default:
		return 5
	}
}

func requiredEnglishScore(test string, c catalog.CandidateUniversity) (required, gapScale float64, ok bool) {
	switch strings.ToLower(test) {
	case "ielts":
		return c.MinIELTS, ieltsGapScale, true
	case "toefl":
		return float64(c.MinTOEFL), 1, true
	case "pte":
		return math.Round(c.MinIELTS*9 + 10), 1, true
	case "duolingo":
		return duolingoFlatMin, 1, true
	default:
		return 0, 0, false
	}
}

// CourseRelevance awards 20 when any offered course contains any token of
// the user's course, or shares its first word; 8 otherwise.
func CourseRelevance(course string, offered []string) int {
	tokens := courseTokens(course)
	if len(tokens) == 0 {
		return 8
	}
	first := tokens[0]

	for _, o := range offered {
		lowered := strings.ToLower(o)
		for _, tok := range tokens {
			if strings.Contains(lowered, tok) {
				return 20
			}
		}
		offeredTokens := courseTokens(o)
		if len(offeredTokens) > 0 && offeredTokens[0] == first {
			return 20
		}
	}
	return 8
}

// courseTokens lowercases and keeps alphabetic-only whitespace tokens.
func courseTokens(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		alpha := true
		for _, r := range f {
			if r < 'a' || r > 'z' {
				alpha = false
				break
			}
		}
		if alpha && f != "" {
			out = append(out, f)
		}
	}
	return out
}

// AccessBonus awards up to 20 points for acceptance rate, loan partnership
// and work experience.
func AccessBonus(profile Profile, c catalog.CandidateUniversity) int {
	points := 0
	switch {
	case c.AcceptanceRate >= 50:
		points += 15
	case c.AcceptanceRate >= 25:
		points += 10
	case c.AcceptanceRate >= 10:
		points += 5
	}

	if c.OffersLoanPartnership && profile.LoanAmount > 0 {
		points += 5
	}

	if profile.WorkExpMonths >= 12 {
		points += 3
	} else if profile.WorkExpMonths >= 6 {
		points += 1
	}
	return points
}

// rankLess orders by ascending rank with unranked (0) entries last.
func rankLess(a, b int) bool {
	if a == 0 {
		return false
	}
	if b == 0 {
		return true
	}
	return a < b
}
