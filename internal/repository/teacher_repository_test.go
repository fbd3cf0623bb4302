package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "full_name", "specialty", "min_weekly_load", "max_weekly_load", "active", "created_at", "updated_at"}).
		AddRow("t1", "u1", "Ana Perez", "Clinical Biochemistry", 4, 20, true, now, now).
		AddRow("t2", nil, "Luis Rojas", nil, 0, 0, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE active = TRUE ORDER BY full_name ASC, id ASC")).
		WillReturnRows(rows)

	teachers, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Clinical Biochemistry", *teachers[0].Specialty)
	assert.Nil(t, teachers[1].Specialty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByIDsSkipsEmptyInput(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	teachers, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, teachers)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE id IN (?, ?)")).
		WithArgs("t1", "t2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "active"}).AddRow("t1", "A", true))

	teachers, err = repo.FindByIDs(context.Background(), []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
