package service

import (
	"context"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// TeacherLoadService reports weekly teaching load against each teacher's bounds.
type TeacherLoadService struct {
	grids     gridProvider
	teachers  activeTeacherLister
	sessions  sessionLister
	settings  SchedulerSettings
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherLoadService constructs the load report service.
func NewTeacherLoadService(grids gridProvider, teachers activeTeacherLister, sessions sessionLister, settings SchedulerSettings, validate *validator.Validate, logger *zap.Logger) *TeacherLoadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherLoadService{
		grids:     grids,
		teachers:  teachers,
		sessions:  sessions,
		settings:  settings.withDefaults(),
		validator: validate,
		logger:    logger,
	}
}

// TeacherLoads sums the non-cancelled blocks of every active teacher across
// the whole period and converts them to 45-minute hours using the calendar's
// block length.
func (s *TeacherLoadService) TeacherLoads(ctx context.Context, query dto.TeacherLoadQuery) ([]dto.TeacherLoad, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher load query")
	}
	calendar, err := s.grids.Calendar(ctx, query.PeriodID, query.CalendarID)
	if err != nil {
		return nil, err
	}
	minutes := s.settings.blockMinutes(calendar)

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	rows, err := s.sessions.List(ctx, nil, models.SessionFilter{PeriodID: query.PeriodID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	blocks := make(map[string]int)
	count := make(map[string]int)
	for _, row := range rows {
		if row.Cancelled() || row.TeacherID == nil {
			continue
		}
		blocks[*row.TeacherID] += row.BlockCount
		count[*row.TeacherID]++
	}

	loads := lo.Map(teachers, func(t models.Teacher, _ int) dto.TeacherLoad {
		hours := math.Round(scheduling.HoursEquivalent(blocks[t.ID], minutes)*100) / 100
		return dto.TeacherLoad{
			TeacherID:       t.ID,
			FullName:        t.FullName,
			Sessions:        count[t.ID],
			ScheduledBlocks: blocks[t.ID],
			HoursEquivalent: hours,
			MinWeeklyLoad:   t.MinWeeklyLoad,
			MaxWeeklyLoad:   t.MaxWeeklyLoad,
			Status:          loadStatus(hours, t.MinWeeklyLoad, t.MaxWeeklyLoad),
		}
	})
	sort.SliceStable(loads, func(i, j int) bool { return loads[i].FullName < loads[j].FullName })
	return loads, nil
}

func loadStatus(hours float64, minLoad, maxLoad int) string {
	switch {
	case hours < float64(minLoad):
		return dto.LoadStatusLow
	case maxLoad > 0 && hours > float64(maxLoad):
		return dto.LoadStatusExcess
	default:
		return dto.LoadStatusOK
	}
}
