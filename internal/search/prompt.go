// internal/search/prompt.go
package search

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a study-abroad university database. Reply with a JSON array only, no prose.
Each element: {"name","country","coursesOffered":[...],"rank","acceptanceRate","minGpa","minIelts","minToefl","tuitionUsd","offersLoanPartnership"}.
minGpa is on a 0-10 scale. Omit fields you are unsure about rather than guessing.`

func buildUserPrompt(req Request) string {
	var b strings.Builder

	switch req.Mode {
	case ModeByCountry:
		fmt.Fprintf(&b, "List %d universities in %s", req.Limit, req.Country)
		if req.Course != "" {
			fmt.Fprintf(&b, " that are a good fit for studying %s", req.Course)
		}
	default:
		fmt.Fprintf(&b, "List up to %d universities matching %q", req.Limit, req.Query)
		if req.Country != "" {
			fmt.Fprintf(&b, " in %s", req.Country)
		}
	}

	if req.Profile != nil {
		b.WriteString(". Applicant context:")
		if req.Profile.GPA > 0 {
			fmt.Fprintf(&b, " GPA %.1f/10.", req.Profile.GPA)
		}
		if req.Profile.Bachelors != "" {
			fmt.Fprintf(&b, " Bachelor's in %s.", req.Profile.Bachelors)
		}
		if req.Profile.TargetUniversity != "" {
			fmt.Fprintf(&b, " Already considering %s.", req.Profile.TargetUniversity)
		}
	}

	b.WriteString(" Respond with the JSON array only.")
	return b.String()
}
