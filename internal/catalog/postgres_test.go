// internal/catalog/postgres_test.go
package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func universityColumns() []string {
	return []string{
		"name", "country", "courses_offered", "rank", "acceptance_rate",
		"min_gpa", "min_ielts", "min_toefl", "tuition_usd", "loan_partnership",
	}
}

func TestSearchCountries(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT name FROM countries").
		WithArgs("ca", 5).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Canada").
			AddRow("Cambodia"))

	names, err := repo.SearchCountries(context.Background(), "ca", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Canada", "Cambodia"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchCourses(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT name FROM courses").
		WithArgs("data", 10).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Data Science"))

	names, err := repo.SearchCourses(context.Background(), "data", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Science"}, names)
}

func TestSearchUniversities(t *testing.T) {
	repo, mock := setupRepo(t)

	rows := sqlmock.NewRows(universityColumns()).
		AddRow("Uni A", "Canada", pq.StringArray{"Computer Science"}, 12, 35.0, 7.5, 6.5, 95, 30000, true)
	mock.ExpectQuery("FROM universities").
		WithArgs("uni", 10).
		WillReturnRows(rows)

	found, err := repo.SearchUniversities(context.Background(), "uni", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	c := found[0]
	assert.Equal(t, "Uni A", c.Name)
	assert.Equal(t, []string{"Computer Science"}, c.CoursesOffered)
	assert.Equal(t, 12, c.Rank)
	assert.Equal(t, 7.5, c.MinGPA)
	assert.True(t, c.OffersLoanPartnership)
}

func TestListByCountry(t *testing.T) {
	repo, mock := setupRepo(t)

	rows := sqlmock.NewRows(universityColumns()).
		AddRow("Uni A", "Germany", pq.StringArray{"Engineering"}, 0, 55.0, 6.5, 6.0, 85, 1000, false).
		AddRow("Uni B", "Germany", pq.StringArray{"Business"}, 40, 25.0, 7.5, 7.0, 100, 2000, true)
	mock.ExpectQuery("FROM universities").
		WithArgs("Germany", 12).
		WillReturnRows(rows)

	found, err := repo.ListByCountry(context.Background(), "Germany", 12)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, 0, found[0].Rank)
	assert.Equal(t, 40, found[1].Rank)
}

func TestSearchUniversitiesQueryError(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("FROM universities").
		WithArgs("x", 10).
		WillReturnError(errors.New("connection refused"))

	_, err := repo.SearchUniversities(context.Background(), "x", 10)
	assert.Error(t, err)
}
