package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

const (
	testPeriod   = "per-1"
	testCalendar = "cal-1"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func expectSavepoint(mock sqlmock.Sqlmock, name string, ok bool) {
	mock.ExpectExec("SAVEPOINT " + name).WillReturnResult(sqlmock.NewResult(0, 0))
	if ok {
		mock.ExpectExec("RELEASE SAVEPOINT " + name).WillReturnResult(sqlmock.NewResult(0, 0))
		return
	}
	mock.ExpectExec("ROLLBACK TO SAVEPOINT " + name).WillReturnResult(sqlmock.NewResult(0, 0))
}

func ptr[T any](v T) *T { return &v }

func testBlockID(order int) string { return fmt.Sprintf("b%d", order) }

func testBlockOrder(id string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(id, "b"))
	return n
}

func testCalendarBlocks(calendarID string, n int) []models.Block {
	blocks := make([]models.Block, n)
	for i := range blocks {
		blocks[i] = models.Block{
			ID:          testBlockID(i + 1),
			CalendarID:  calendarID,
			Order:       i + 1,
			StartTime:   fmt.Sprintf("%02d:00", 7+i),
			EndTime:     fmt.Sprintf("%02d:45", 7+i),
			DurationMin: 45,
		}
	}
	return blocks
}

type gridProviderStub struct {
	calendars map[string]*models.Calendar
	blocks    map[string][]models.Block
	err       error
}

func newGridProviderStub() *gridProviderStub {
	return &gridProviderStub{
		calendars: map[string]*models.Calendar{
			testCalendar: {ID: testCalendar, PeriodID: testPeriod, Name: "Day shift", BlockDurationMin: 45},
		},
		blocks: map[string][]models.Block{testCalendar: testCalendarBlocks(testCalendar, 8)},
	}
}

func (g *gridProviderStub) Calendar(ctx context.Context, periodID, calendarID string) (*models.Calendar, error) {
	if g.err != nil {
		return nil, g.err
	}
	cal, ok := g.calendars[calendarID]
	if !ok || (periodID != "" && cal.PeriodID != periodID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
	}
	return cal, nil
}

func (g *gridProviderStub) Blocks(ctx context.Context, calendarID string) ([]models.Block, error) {
	return g.blocks[calendarID], nil
}

func (g *gridProviderStub) PeriodGrids(ctx context.Context, periodID string) (*scheduling.GridSet, error) {
	set := scheduling.NewGridSet()
	for id, blocks := range g.blocks {
		set.Put(scheduling.NewGrid(id, blocks))
	}
	return set, nil
}

type groupStoreStub struct {
	groups   []models.GroupDetail
	students map[string][]string
	writes   map[string]string
	err      error
}

func (s *groupStoreStub) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return lo.Filter(s.groups, func(g models.GroupDetail, _ int) bool {
		return (filter.CourseID == "" || g.CourseID == filter.CourseID) && (filter.ShiftID == "" || g.ShiftID == filter.ShiftID)
	}), nil
}

func (s *groupStoreStub) FindByIDs(ctx context.Context, ids []string) ([]models.GroupDetail, error) {
	return lo.Filter(s.groups, func(g models.GroupDetail, _ int) bool { return lo.Contains(ids, g.ID) }), nil
}

func (s *groupStoreStub) UpdateTeacher(ctx context.Context, exec sqlx.ExtContext, groupID, teacherID string) error {
	if s.writes == nil {
		s.writes = make(map[string]string)
	}
	s.writes[groupID] = teacherID
	return nil
}

func (s *groupStoreStub) ListStudentUserIDs(ctx context.Context, groupID string) ([]string, error) {
	return s.students[groupID], nil
}

type teacherStoreStub struct {
	teachers []models.Teacher
}

func (s *teacherStoreStub) ListActive(ctx context.Context) ([]models.Teacher, error) {
	return lo.Filter(s.teachers, func(t models.Teacher, _ int) bool { return t.Active }), nil
}

func (s *teacherStoreStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	t, ok := lo.Find(s.teachers, func(t models.Teacher) bool { return t.ID == id })
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

func (s *teacherStoreStub) FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error) {
	return lo.Filter(s.teachers, func(t models.Teacher, _ int) bool { return lo.Contains(ids, t.ID) }), nil
}

type availabilityStub struct {
	rows []models.TeacherAvailability
}

func (s availabilityStub) ListByCalendar(ctx context.Context, calendarID string) ([]models.TeacherAvailability, error) {
	return lo.Filter(s.rows, func(r models.TeacherAvailability, _ int) bool { return r.CalendarID == calendarID }), nil
}

func availability(teacherID string, day, start, blocks int) models.TeacherAvailability {
	return models.TeacherAvailability{
		ID:           fmt.Sprintf("av-%s-%d-%d", teacherID, day, start),
		TeacherID:    teacherID,
		CalendarID:   testCalendar,
		DayOfWeek:    day,
		StartBlockID: testBlockID(start),
		StartOrder:   start,
		BlockCount:   blocks,
	}
}

// sessionStoreStub is an in-memory session table honouring the repository filters.
type sessionStoreStub struct {
	rows      []models.SessionDetail
	createErr func(session *models.Session) error
	updateErr error
	listErr   error
	updates   []models.Session
	deleted   []string
	nextID    int
}

func (s *sessionStoreStub) List(ctx context.Context, exec sqlx.ExtContext, f models.SessionFilter) ([]models.SessionDetail, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return lo.Filter(s.rows, func(r models.SessionDetail, _ int) bool {
		switch {
		case f.PeriodID != "" && r.PeriodID != f.PeriodID,
			f.CalendarID != "" && r.CalendarID != f.CalendarID,
			f.TeacherID != "" && (r.TeacherID == nil || *r.TeacherID != f.TeacherID),
			f.GroupID != "" && r.GroupID != f.GroupID,
			f.RoomID != "" && (r.RoomID == nil || *r.RoomID != f.RoomID),
			f.DayOfWeek > 0 && r.DayOfWeek != f.DayOfWeek,
			len(f.IDs) > 0 && !lo.Contains(f.IDs, r.ID),
			!f.IncludeCancelled && r.Cancelled():
			return false
		}
		return true
	}), nil
}

func (s *sessionStoreStub) FindByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	for _, r := range s.rows {
		if r.ID == id {
			row := r
			return &row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *sessionStoreStub) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.SessionDetail, error) {
	return s.FindByID(ctx, id)
}

func (s *sessionStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.rows {
		if s.rows[i].ID == session.ID {
			s.rows[i].Session = *session
			s.rows[i].StartOrder = testBlockOrder(session.StartBlockID)
		}
	}
	s.updates = append(s.updates, *session)
	return nil
}

func (s *sessionStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if s.createErr != nil {
		if err := s.createErr(session); err != nil {
			return err
		}
	}
	s.nextID++
	session.ID = fmt.Sprintf("new-%d", s.nextID)
	s.rows = append(s.rows, models.SessionDetail{
		Session:    *session,
		StartOrder: testBlockOrder(session.StartBlockID),
		PeriodID:   testPeriod,
	})
	return nil
}

func (s *sessionStoreStub) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, id string, roomID *string) error {
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].RoomID = roomID
		}
	}
	return nil
}

func (s *sessionStoreStub) ExistingIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]string, error) {
	var found []string
	for _, r := range s.rows {
		if lo.Contains(ids, r.ID) {
			found = append(found, r.ID)
		}
	}
	return found, nil
}

func (s *sessionStoreStub) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	s.deleted = append(s.deleted, ids...)
	return int64(len(ids)), nil
}

func session(id, groupID, teacherID string, day, start, blocks int) models.SessionDetail {
	row := models.SessionDetail{
		Session: models.Session{
			ID:           id,
			GroupID:      groupID,
			CalendarID:   testCalendar,
			Kind:         models.SessionKindTheory,
			DayOfWeek:    day,
			StartBlockID: testBlockID(start),
			BlockCount:   blocks,
			Status:       models.SessionStatusProposed,
		},
		StartOrder: start,
		PeriodID:   testPeriod,
		CourseCode: "MAT101",
		CourseName: "Mathematics",
		GroupCode:  ptr("A1"),
		Capacity:   30,
	}
	if teacherID != "" {
		row.TeacherID = ptr(teacherID)
	}
	return row
}

type changeRecorderStub struct {
	changes []models.ScheduleChange
	err     error
}

func (s *changeRecorderStub) Create(ctx context.Context, exec sqlx.ExtContext, change *models.ScheduleChange) error {
	if s.err != nil {
		return s.err
	}
	s.changes = append(s.changes, *change)
	return nil
}

func (s *changeRecorderStub) ListBySession(ctx context.Context, sessionID string) ([]models.ScheduleChange, error) {
	var out []models.ScheduleChange
	for i := len(s.changes) - 1; i >= 0; i-- {
		if s.changes[i].SessionID == sessionID {
			out = append(out, s.changes[i])
		}
	}
	return out, nil
}

type noticeSenderStub struct {
	notices []SessionNotice
	err     error
}

func (s *noticeSenderStub) Notify(ctx context.Context, notice SessionNotice) error {
	s.notices = append(s.notices, notice)
	return s.err
}

func mathGroup(id string, teacherID *string, theoryHours int) models.GroupDetail {
	return models.GroupDetail{
		Group: models.Group{
			ID:        id,
			CourseID:  "course-mat",
			PeriodID:  testPeriod,
			ShiftID:   "shift-am",
			TeacherID: teacherID,
			Code:      ptr(strings.ToUpper(id)),
			Capacity:  30,
			Status:    models.GroupStatusConfirmed,
		},
		CourseCode:         "MAT101",
		CourseName:         "Mathematics",
		TheoryHoursPerWeek: theoryHours,
		TheoryRoomTypeID:   ptr("lecture"),
	}
}

func teacher(id, name, specialty string, maxLoad int) models.Teacher {
	return models.Teacher{
		ID:            id,
		UserID:        ptr("user-" + id),
		FullName:      name,
		Specialty:     ptr(specialty),
		MinWeeklyLoad: 2,
		MaxWeeklyLoad: maxLoad,
		Active:        true,
	}
}
