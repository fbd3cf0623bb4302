package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeacherAvailabilityRepositoryListByCalendar(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAvailabilityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "calendar_id", "day_of_week", "start_block_id", "start_order", "block_count", "preference"}).
		AddRow("a1", "t1", "cal-1", 1, "b1", 1, 3, 0).
		AddRow("a2", "t1", "cal-1", 2, "b4", 4, 2, 1)
	mock.ExpectQuery("FROM teacher_availabilities a JOIN blocks b").
		WithArgs("cal-1").
		WillReturnRows(rows)

	windows, err := repo.ListByCalendar(context.Background(), "cal-1")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, 4, windows[1].StartOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepositoryListOrderedByCapacity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	mock.ExpectQuery("FROM rooms ORDER BY capacity ASC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "building_id", "room_type_id", "code", "name", "capacity"}).
			AddRow("r1", "bld-1", "lab", "LAB-1", "Lab 1", 25))

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 25, rooms[0].Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
