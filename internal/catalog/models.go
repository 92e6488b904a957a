// internal/catalog/models.go
package catalog

// CandidateUniversity is a fully defaulted candidate ready for scoring.
// Rank 0 means unranked.
type CandidateUniversity struct {
	Name                  string   `json:"name"`
	Country               string   `json:"country"`
	CoursesOffered        []string `json:"coursesOffered"`
	Rank                  int      `json:"rank,omitempty"`
	AcceptanceRate        float64  `json:"acceptanceRate"`
	MinGPA                float64  `json:"minGpa"`
	MinIELTS              float64  `json:"minIelts"`
	MinTOEFL              int      `json:"minToefl"`
	TuitionUSD            int      `json:"tuitionUsd"`
	OffersLoanPartnership bool     `json:"offersLoanPartnership"`

	// Synthetic marks locally fabricated fallback entries. The engine never
	// fails a transition on collaborator errors, but callers can tell
	// fabricated results apart.
	Synthetic bool `json:"synthetic,omitempty"`
}

// PartialCandidate is the wire shape returned by the search collaborator:
// every field may be absent.
type PartialCandidate struct {
	Name                  string   `json:"name"`
	Country               string   `json:"country,omitempty"`
	CoursesOffered        []string `json:"coursesOffered,omitempty"`
	Rank                  *int     `json:"rank,omitempty"`
	AcceptanceRate        *float64 `json:"acceptanceRate,omitempty"`
	MinGPA                *float64 `json:"minGpa,omitempty"`
	MinIELTS              *float64 `json:"minIelts,omitempty"`
	MinTOEFL              *int     `json:"minToefl,omitempty"`
	TuitionUSD            *int     `json:"tuitionUsd,omitempty"`
	OffersLoanPartnership *bool    `json:"offersLoanPartnership,omitempty"`
}

// Documented defaults substituted for absent collaborator fields.
const (
	DefaultMinGPA         = 7.0
	DefaultMinIELTS       = 6.5
	DefaultMinTOEFL       = 90
	DefaultTuitionUSD     = 25000
	DefaultAcceptanceRate = 30.0
)

// Normalize fills the documented defaults for every absent field so the
// scoring engine never sees a partial candidate.
func Normalize(p PartialCandidate) CandidateUniversity {
	c := CandidateUniversity{
		Name:                  p.Name,
		Country:               p.Country,
		CoursesOffered:        p.CoursesOffered,
		AcceptanceRate:        DefaultAcceptanceRate,
		MinGPA:                DefaultMinGPA,
		MinIELTS:              DefaultMinIELTS,
		MinTOEFL:              DefaultMinTOEFL,
		TuitionUSD:            DefaultTuitionUSD,
		OffersLoanPartnership: true,
	}
	if p.Rank != nil && *p.Rank > 0 {
		c.Rank = *p.Rank
	}
	if p.AcceptanceRate != nil {
		c.AcceptanceRate = *p.AcceptanceRate
	}
	if p.MinGPA != nil {
		c.MinGPA = *p.MinGPA
	}
	if p.MinIELTS != nil {
		c.MinIELTS = *p.MinIELTS
	}
	if p.MinTOEFL != nil {
		c.MinTOEFL = *p.MinTOEFL
	}
	if p.TuitionUSD != nil {
		c.TuitionUSD = *p.TuitionUSD
	}
	if p.OffersLoanPartnership != nil {
		c.OffersLoanPartnership = *p.OffersLoanPartnership
	}
	return c
}

// NormalizeAll normalizes a collaborator batch, dropping unnamed entries.
func NormalizeAll(partials []PartialCandidate) []CandidateUniversity {
	out := make([]CandidateUniversity, 0, len(partials))
	for _, p := range partials {
		if p.Name == "" {
			continue
		}
		out = append(out, Normalize(p))
	}
	return out
}
