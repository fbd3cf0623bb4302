package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type roomListerStub struct {
	rooms  []models.Room
	onLock func(ids []string)
}

func (s roomListerStub) List(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

func (s roomListerStub) LockByIDs(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	if s.onLock != nil {
		s.onLock(ids)
	}
	return nil
}

func roomFixture() (*groupStoreStub, roomListerStub, *sessionStoreStub) {
	groups := &groupStoreStub{groups: []models.GroupDetail{
		mathGroup("g1", nil, 3),
		mathGroup("g2", nil, 3),
		mathGroup("g3", nil, 3),
	}}
	rooms := roomListerStub{rooms: []models.Room{
		{ID: "r-small", BuildingID: "main", RoomTypeID: "lecture", Code: "A-101", Capacity: 20},
		{ID: "r-mid", BuildingID: "main", RoomTypeID: "lecture", Code: "A-201", Capacity: 35},
		{ID: "r-big", BuildingID: "annex", RoomTypeID: "lecture", Code: "B-001", Capacity: 60},
		{ID: "r-lab", BuildingID: "main", RoomTypeID: "lab", Code: "L-1", Capacity: 40},
	}}
	booked := session("s3", "g3", "t2", models.Monday, 5, 2)
	booked.RoomID = ptr("r-mid")
	sessions := &sessionStoreStub{rows: []models.SessionDetail{
		session("s1", "g1", "t1", models.Monday, 1, 2),
		session("s2", "g2", "t2", models.Monday, 1, 2),
		booked,
	}}
	return groups, rooms, sessions
}

func TestAssignRoomsPicksSmallestFreeRoom(t *testing.T) {
	groups, rooms, sessions := roomFixture()
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	svc := NewRoomAssignmentService(newGridProviderStub(), sessions, groups, rooms, sessions, tx, nil, nil, nil)

	resp, err := svc.AssignRooms(context.Background(), dto.AssignRoomsRequest{PeriodID: testPeriod, CalendarID: testCalendar})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Assigned)
	require.Len(t, resp.Decisions, 3)

	byID := map[string]scheduling.RoomDecision{}
	for _, d := range resp.Decisions {
		byID[d.SessionID] = d
	}
	assert.Equal(t, "r-mid", *byID["s1"].NewRoomID)
	assert.Equal(t, "r-big", *byID["s2"].NewRoomID)
	assert.Equal(t, scheduling.StatusSkipped, byID["s3"].Status)

	updated, _ := sessions.FindByID(context.Background(), "s1")
	assert.Equal(t, "r-mid", *updated.RoomID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRoomsReportsNoCandidates(t *testing.T) {
	groups, _, sessions := roomFixture()
	tx, mock := newTxProviderMock(t)
	svc := NewRoomAssignmentService(newGridProviderStub(), sessions, groups, roomListerStub{}, sessions, tx, nil, nil, nil)

	resp, err := svc.AssignRooms(context.Background(), dto.AssignRoomsRequest{PeriodID: testPeriod, CalendarID: testCalendar, SessionIDs: []string{"s1"}})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Assigned)
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, scheduling.StatusNoCandidates, resp.Decisions[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRoomsForceReplacesRoom(t *testing.T) {
	groups, rooms, sessions := roomFixture()
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	svc := NewRoomAssignmentService(newGridProviderStub(), sessions, groups, rooms, sessions, tx, nil, nil, nil)

	resp, err := svc.AssignRooms(context.Background(), dto.AssignRoomsRequest{
		PeriodID:            testPeriod,
		CalendarID:          testCalendar,
		SessionIDs:          []string{"s3"},
		PreferredBuildingID: "annex",
		Force:               true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, "r-mid", *resp.Decisions[0].OldRoomID)
	assert.Equal(t, "r-big", *resp.Decisions[0].NewRoomID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRoomsUnknownSession(t *testing.T) {
	groups, rooms, sessions := roomFixture()
	tx, _ := newTxProviderMock(t)
	svc := NewRoomAssignmentService(newGridProviderStub(), sessions, groups, rooms, sessions, tx, nil, nil, nil)

	_, err := svc.AssignRooms(context.Background(), dto.AssignRoomsRequest{PeriodID: testPeriod, CalendarID: testCalendar, SessionIDs: []string{"nope"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssignRoomsWithoutCourseRoomType(t *testing.T) {
	groups, rooms, sessions := roomFixture()
	groups.groups[0].TheoryRoomTypeID = nil
	tx, mock := newTxProviderMock(t)
	svc := NewRoomAssignmentService(newGridProviderStub(), sessions, groups, rooms, sessions, tx, nil, nil, nil)

	resp, err := svc.AssignRooms(context.Background(), dto.AssignRoomsRequest{PeriodID: testPeriod, CalendarID: testCalendar, SessionIDs: []string{"s1"}})
	require.NoError(t, err)
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, scheduling.StatusNoCandidates, resp.Decisions[0].Status)
	assert.Nil(t, resp.Decisions[0].NewRoomID)
	assert.Equal(t, 0, resp.Assigned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRoomsRechecksRoomUnderLock(t *testing.T) {
	groups, rooms, sessions := roomFixture()
	rooms.onLock = func(ids []string) {
		// another run books r-mid on top of s1 before the lock is granted
		late := session("s9", "g9", "t9", models.Monday, 2, 1)
		late.RoomID = ptr("r-mid")
		sessions.rows = append(sessions.rows, late)
	}
	tx, mock := newTxProviderMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	svc := NewRoomAssignmentService(newGridProviderStub(), sessions, groups, rooms, sessions, tx, nil, nil, nil)

	resp, err := svc.AssignRooms(context.Background(), dto.AssignRoomsRequest{PeriodID: testPeriod, CalendarID: testCalendar, SessionIDs: []string{"s1"}})
	require.NoError(t, err)
	require.Len(t, resp.Decisions, 1)
	assert.Equal(t, scheduling.StatusConflict, resp.Decisions[0].Status)
	assert.Nil(t, resp.Decisions[0].NewRoomID)
	assert.Equal(t, 0, resp.Assigned)

	stored, _ := sessions.FindByID(context.Background(), "s1")
	assert.Nil(t, stored.RoomID)
	require.NoError(t, mock.ExpectationsWereMet())
}
