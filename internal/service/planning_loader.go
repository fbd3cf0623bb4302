package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// planningLoader reads the snapshot one optimizer or planner run works on.
type planningLoader struct {
	grids        gridProvider
	groups       groupLister
	teachers     activeTeacherLister
	availability availabilityLister
	sessions     sessionLister
	settings     SchedulerSettings
}

type planningQuery struct {
	PeriodID   string
	CalendarID string
	CourseID   string
	ShiftID    string
}

type planningSnapshot struct {
	calendar *models.Calendar
	grids    *scheduling.GridSet
	groups   []models.GroupDetail
	slots    []scheduling.SessionSlot
	windows  []scheduling.Window
	teachers []scheduling.TeacherProfile
}

func (l *planningLoader) load(ctx context.Context, q planningQuery) (*planningSnapshot, error) {
	calendar, err := l.grids.Calendar(ctx, q.PeriodID, q.CalendarID)
	if err != nil {
		return nil, err
	}
	groups, err := l.groups.List(ctx, models.GroupFilter{PeriodID: q.PeriodID, CourseID: q.CourseID, ShiftID: q.ShiftID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	if err := l.settings.checkGroupBound(len(groups)); err != nil {
		return nil, err
	}
	grids, err := l.grids.PeriodGrids(ctx, q.PeriodID)
	if err != nil {
		return nil, err
	}
	rows, err := l.sessions.List(ctx, nil, models.SessionFilter{PeriodID: q.PeriodID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period sessions")
	}
	availability, err := l.availability.ListByCalendar(ctx, q.CalendarID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher availability")
	}
	teachers, err := l.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	return &planningSnapshot{
		calendar: calendar,
		grids:    grids,
		groups:   groups,
		slots:    scheduling.SlotsFromSessions(rows),
		windows:  scheduling.WindowsFromAvailability(availability),
		teachers: lo.Map(teachers, func(t models.Teacher, _ int) scheduling.TeacherProfile { return scheduling.ProfileFromTeacher(t) }),
	}, nil
}

// index builds the availability index of the run over every session of the
// period.
func (p *planningSnapshot) index() *scheduling.AvailabilityIndex {
	return scheduling.NewAvailabilityIndex(p.grids, p.calendar.ID, p.windows, p.slots)
}

func (p *planningSnapshot) demands(groups []models.GroupDetail, idx *scheduling.AvailabilityIndex, blockMinutes int) []scheduling.GroupDemand {
	byGroup := lo.GroupBy(p.slots, func(s scheduling.SessionSlot) string { return s.GroupID })
	out := make([]scheduling.GroupDemand, 0, len(groups))
	for _, g := range groups {
		theory, practice := scheduling.RequiredBlocks(g.TheoryHoursPerWeek, g.PracticeHoursPerWeek, blockMinutes)
		out = append(out, scheduling.GroupDemand{
			GroupID:        g.ID,
			Label:          g.Label(),
			CourseName:     g.CourseName,
			Cells:          idx.CellsOf(byGroup[g.ID]),
			RequiredBlocks: theory + practice,
		})
	}
	return out
}

// solve runs the optimizer over groups and records run metrics.
func (p *planningSnapshot) solve(groups []models.GroupDetail, settings SchedulerSettings, preferSpecialty bool, metrics *MetricsService) (scheduling.OptimizerResult, *scheduling.AvailabilityIndex) {
	idx := p.index()
	optimizer := scheduling.NewOptimizer(scheduling.OptimizerOptions{
		Weights:          settings.Weights,
		PreferSpecialty:  preferSpecialty,
		RequireSpecialty: settings.RequireSpecialty,
	})
	start := time.Now()
	result := optimizer.Solve(p.demands(groups, idx, settings.blockMinutes(p.calendar)), p.teachers, idx)
	unassigned := lo.CountBy(lo.Values(result.Assignments), func(c *scheduling.Candidate) bool { return c == nil })
	metrics.ObserveOptimizerRun(result.NodesExplored, result.Pruned, unassigned, time.Since(start))
	return result, idx
}
