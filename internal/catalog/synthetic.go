// internal/catalog/synthetic.go
package catalog

import "fmt"

// syntheticTemplates seed plausible-looking placeholder entries. The rank
// spread keeps the scored list from degenerating into ties.
var syntheticTemplates = []struct {
	nameFormat     string
	rank           int
	acceptanceRate float64
	minGPA         float64
	tuitionUSD     int
}{
	{"National University of %s", 180, 45, 6.5, 18000},
	{"%s Institute of Technology", 240, 35, 7.0, 22000},
	{"Central %s University", 320, 55, 6.0, 16000},
	{"%s Metropolitan University", 0, 60, 6.0, 14000},
	{"International College of %s", 0, 70, 5.5, 12000},
	{"%s State University", 410, 50, 6.5, 15000},
}

// SyntheticPool fabricates a placeholder candidate set for a country and
// course when the search collaborator fails or returns nothing. Every entry
// is flagged Synthetic.
func SyntheticPool(country, course string, n int) []CandidateUniversity {
	if country == "" {
		country = "Global"
	}
	if n <= 0 || n > len(syntheticTemplates) {
		n = len(syntheticTemplates)
	}

	courses := []string{"Business Administration", "Computer Science", "Engineering"}
	if course != "" {
		courses = append([]string{course}, courses...)
	}

	out := make([]CandidateUniversity, 0, n)
	for _, tmpl := range syntheticTemplates[:n] {
		out = append(out, CandidateUniversity{
			Name:                  fmt.Sprintf(tmpl.nameFormat, country),
			Country:               country,
			CoursesOffered:        courses,
			Rank:                  tmpl.rank,
			AcceptanceRate:        tmpl.acceptanceRate,
			MinGPA:                tmpl.minGPA,
			MinIELTS:              DefaultMinIELTS,
			MinTOEFL:              DefaultMinTOEFL,
			TuitionUSD:            tmpl.tuitionUSD,
			OffersLoanPartnership: true,
			Synthetic:             true,
		})
	}
	return out
}
