package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

var sessionDetailColumns = []string{
	"id", "group_id", "calendar_id", "kind", "day_of_week", "start_block_id", "block_count",
	"room_id", "teacher_id", "substitute_teacher_id", "status", "notes", "created_at", "updated_at",
	"start_order", "period_id", "course_id", "course_code", "course_name", "group_code", "group_capacity",
}

func sessionRow(rows *sqlmock.Rows, id string, day, order int) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "g1", "cal-1", "T", day, "b1", 2, nil, "t1", nil, "PROPOSED", nil, now, now, order, "p1", "c1", "CHEM101", "Chemistry I", "A1", 30)
}

func TestSessionRepositoryListBuildsFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	rows := sessionRow(sqlmock.NewRows(sessionDetailColumns), "s1", 1, 1)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE g.period_id = ? AND s.calendar_id = ? AND s.id IN (?, ?) AND s.status <> ? ORDER BY s.day_of_week ASC")).
		WithArgs("p1", "cal-1", "s1", "s2", "CANCELLED").
		WillReturnRows(rows)

	sessions, err := repo.List(context.Background(), nil, models.SessionFilter{PeriodID: "p1", CalendarID: "cal-1", IDs: []string{"s1", "s2"}})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "t1", *sessions[0].TeacherID)
	assert.Equal(t, 1, sessions[0].StartOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListIncludeCancelled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.group_id = ? AND s.day_of_week = ? ORDER BY")).
		WithArgs("g1", 3).
		WillReturnRows(sqlmock.NewRows(sessionDetailColumns))

	sessions, err := repo.List(context.Background(), nil, models.SessionFilter{GroupID: "g1", DayOfWeek: 3, IncludeCancelled: true})
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryLockByIDWithinTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.id = $1 FOR UPDATE OF s")).
		WithArgs("s1").
		WillReturnRows(sessionRow(sqlmock.NewRows(sessionDetailColumns), "s1", 2, 3))
	mock.ExpectExec("UPDATE sessions SET kind").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	locked, err := repo.LockByID(context.Background(), tx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, locked.DayOfWeek)

	locked.DayOfWeek = 4
	require.NoError(t, repo.Update(context.Background(), tx, &locked.Session))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "g1", "cal-1", "P", 2, "b3", 2, nil, "t1", nil, "PROPOSED", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := "t1"
	session := &models.Session{GroupID: "g1", CalendarID: "cal-1", Kind: models.SessionKindPractice, DayOfWeek: 2, StartBlockID: "b3", BlockCount: 2, TeacherID: &teacher}
	require.NoError(t, repo.Create(context.Background(), nil, session))
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionStatusProposed, session.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryExistingAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM sessions WHERE id IN (?, ?)")).
		WithArgs("s1", "s9").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id IN (?)")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	found, err := repo.ExistingIDs(context.Background(), nil, []string{"s1", "s9"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, found)

	deleted, err := repo.DeleteByIDs(context.Background(), nil, found)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	room := "r1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET room_id = $2")).
		WithArgs("s1", "r1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateRoom(context.Background(), nil, "s1", &room))
	assert.NoError(t, mock.ExpectationsWereMet())
}
