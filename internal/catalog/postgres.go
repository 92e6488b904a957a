// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// Repository is the locally seeded university catalog. It backs the
// live-search steps for queries too short to send to the collaborator and
// provides the by-country pool when the collaborator is unavailable.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SearchCountries returns country names matching the prefix.
func (r *Repository) SearchCountries(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name FROM countries
		WHERE name ILIKE $1 || '%'
		ORDER BY name
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNames(rows)
}

// SearchCourses returns course names matching the prefix.
func (r *Repository) SearchCourses(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name FROM courses
		WHERE name ILIKE $1 || '%'
		ORDER BY name
		LIMIT $2`, prefix, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNames(rows)
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SearchUniversities returns seeded universities whose name matches the
// query as a substring.
func (r *Repository) SearchUniversities(ctx context.Context, query string, limit int) ([]CandidateUniversity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, country, courses_offered, rank, acceptance_rate,
		       min_gpa, min_ielts, min_toefl, tuition_usd, loan_partnership
		FROM universities
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY rank = 0, rank
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUniversities(rows)
}

// ListByCountry returns the seeded pool for a country.
func (r *Repository) ListByCountry(ctx context.Context, country string, limit int) ([]CandidateUniversity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, country, courses_offered, rank, acceptance_rate,
		       min_gpa, min_ielts, min_toefl, tuition_usd, loan_partnership
		FROM universities
		WHERE LOWER(country) = LOWER($1)
		ORDER BY rank = 0, rank
		LIMIT $2`, country, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUniversities(rows)
}

func scanUniversities(rows *sql.Rows) ([]CandidateUniversity, error) {
	var out []CandidateUniversity
	for rows.Next() {
		var c CandidateUniversity
		var courses pq.StringArray
		if err := rows.Scan(
			&c.Name, &c.Country, &courses, &c.Rank, &c.AcceptanceRate,
			&c.MinGPA, &c.MinIELTS, &c.MinTOEFL, &c.TuitionUSD, &c.OffersLoanPartnership,
		); err != nil {
			return nil, err
		}
		c.CoursesOffered = courses
		out = append(out, c)
	}
	return out, rows.Err()
}
