package repositories

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tutorify/tutor-query/dtos"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// The similarity/full-text/haversine clauses only run on Postgres, so the
// generated SQL is asserted through sqlmock instead of executed against
// the sqlite test store.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	return db, mock
}

func emptyTutorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"})
}

func TestSearchQuerySQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTutorRepository(db, 2)

	mock.ExpectQuery(`SELECT count\(DISTINCT\(.?tutors.?\..?id.?\)\) FROM .?tutors.? WHERE \(similarity`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`similarity\(LOWER\(CONCAT\(tutors\.first_name.*AS rank1.*ts_rank_cd\(to_tsvector\('simple', tutors\.biography\).*AS rank2.*ILIKE.*ORDER BY rank1 DESC,rank2 DESC`).
		WillReturnRows(emptyTutorRows())

	_, _, err := repo.GetTutorsAndTotalCount(dtos.TutorQuery{Q: "jane doe"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRankingSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTutorRepository(db, 2)

	mock.ExpectQuery(`SELECT count`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`acos\(LEAST\(1\.0, GREATEST\(-1\.0,.*radians\(tutors\.latitude\).*AS distance.*ORDER BY distance ASC NULLS LAST`).
		WillReturnRows(emptyTutorRows())

	_, _, err := repo.GetTutorsAndTotalCount(dtos.TutorQuery{
		Location: &dtos.StoredLocation{Latitude: 21.0278, Longitude: 105.8342},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationOutranksCategoryAffinitySQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTutorRepository(db, 2)

	mock.ExpectQuery(`SELECT count`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// Distance must come before category_count in the ORDER BY.
	mock.ExpectQuery(`ORDER BY distance ASC NULLS LAST,category_count DESC`).
		WillReturnRows(emptyTutorRows())

	_, _, err := repo.GetTutorsAndTotalCount(dtos.TutorQuery{
		Location:        &dtos.StoredLocation{Latitude: 21.0278, Longitude: 105.8342},
		UserPreferences: &dtos.UserPreferences{ClassCategoryIDs: []uuid.UUID{uuid.New()}},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExplicitOrderOverridesRankingSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTutorRepository(db, 2)

	mock.ExpectQuery(`SELECT count`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY tutors\.minimum_wage DESC$`).
		WillReturnRows(emptyTutorRows())

	_, _, err := repo.GetTutorsAndTotalCount(dtos.TutorQuery{
		Location: &dtos.StoredLocation{Latitude: 21.0278, Longitude: 105.8342},
		Order:    "minimumWage",
		Dir:      dtos.SortDesc,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingStarSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewTutorRepository(db, 2)

	mock.ExpectQuery(`SELECT AVG\(total_feedback_rating / feedback_count\) FROM .?tutors.? WHERE feedback_count >`).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(4.25))
	mock.ExpectQuery(`SELECT count.*WHERE tutors\.feedback_count >`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`AS bayesian_average.*ORDER BY bayesian_average DESC NULLS LAST`).
		WillReturnRows(emptyTutorRows())

	_, _, err := repo.GetTutorsAndTotalCount(dtos.TutorQuery{Order: dtos.OrderByRatingStar})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
