package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func TestNotificationRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").WithArgs(sqlmock.AnyArg(), "u1", "Schedule updated", "body", false, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO notifications").WithArgs(sqlmock.AnyArg(), "u2", "Schedule updated", "body", false, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.CreateBatch(context.Background(), []models.Notification{
		{UserID: "u1", Title: "Schedule updated", Body: "body"},
		{UserID: "u2", Title: "Schedule updated", Body: "body"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreateBatchRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.CreateBatch(context.Background(), []models.Notification{{UserID: "u1", Title: "t"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
