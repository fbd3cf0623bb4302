package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

func gridSessions() *sessionStoreStub {
	physics := session("s2", "g2", "t2", models.Monday, 1, 2)
	physics.CourseCode = "PHY201"
	physics.CourseName = "Physics"
	weekend := session("s3", "g1", "t1", models.Saturday, 1, 2)
	late := session("s4", "g1", "t1", models.Wednesday, 7, 2)
	return &sessionStoreStub{rows: []models.SessionDetail{
		session("s5", "g1", "t1", models.Tuesday, 3, 2),
		physics,
		session("s1", "g1", "t1", models.Monday, 3, 2),
		weekend,
		late,
	}}
}

func TestWeeklyGridRendersWeekdays(t *testing.T) {
	svc := NewWeeklyGridService(newGridProviderStub(), gridSessions(), nil, nil)

	resp, err := svc.WeeklyGrid(context.Background(), dto.WeeklyGridRequest{PeriodID: testPeriod, CalendarID: testCalendar, BlockMax: 6})
	require.NoError(t, err)

	require.Len(t, resp.Days, 5)
	assert.Equal(t, "Monday", resp.Days[0].Name)
	require.Len(t, resp.Blocks, 6)
	assert.Equal(t, "07:00", resp.Blocks[0].StartTime)

	ids := make([]string, len(resp.Cells))
	for i, c := range resp.Cells {
		ids[i] = c.SessionID
	}
	assert.Equal(t, []string{"s2", "s1", "s5"}, ids)
	assert.Equal(t, "MAT101-A1", resp.Cells[1].Label)
	assert.Equal(t, courseColor("MAT101"), resp.Cells[1].Color)
	assert.NotEqual(t, resp.Cells[0].Color, resp.Cells[1].Color)
}

func TestWeeklyGridFiltersByTeacher(t *testing.T) {
	svc := NewWeeklyGridService(newGridProviderStub(), gridSessions(), nil, nil)

	resp, err := svc.WeeklyGrid(context.Background(), dto.WeeklyGridRequest{PeriodID: testPeriod, CalendarID: testCalendar, TeacherID: "t2"})
	require.NoError(t, err)
	require.Len(t, resp.Cells, 1)
	assert.Equal(t, "s2", resp.Cells[0].SessionID)
}

func TestWeeklyGridRejectsInvertedRange(t *testing.T) {
	svc := NewWeeklyGridService(newGridProviderStub(), gridSessions(), nil, nil)

	_, err := svc.WeeklyGrid(context.Background(), dto.WeeklyGridRequest{PeriodID: testPeriod, CalendarID: testCalendar, BlockMin: 5, BlockMax: 2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseColorIsStable(t *testing.T) {
	assert.Equal(t, courseColor("MAT101"), courseColor("MAT101"))
	assert.Len(t, courseColor("MAT101"), 7)
	assert.Equal(t, courseColor("x"), courseColor(""))
}
