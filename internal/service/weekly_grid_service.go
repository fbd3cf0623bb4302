package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// WeeklyGridService renders the Monday to Friday view of a calendar.
type WeeklyGridService struct {
	grids     gridProvider
	sessions  sessionLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeeklyGridService constructs the grid view service.
func NewWeeklyGridService(grids gridProvider, sessions sessionLister, validate *validator.Validate, logger *zap.Logger) *WeeklyGridService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyGridService{grids: grids, sessions: sessions, validator: validate, logger: logger}
}

// WeeklyGrid returns the calendar blocks within the requested order range and
// one cell per non-cancelled session that touches that range.
func (s *WeeklyGridService) WeeklyGrid(ctx context.Context, req dto.WeeklyGridRequest) (*dto.WeeklyGridResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grid payload")
	}
	if _, err := s.grids.Calendar(ctx, req.PeriodID, req.CalendarID); err != nil {
		return nil, err
	}
	blocks, err := s.grids.Blocks(ctx, req.CalendarID)
	if err != nil {
		return nil, err
	}
	visible := lo.Filter(blocks, func(b models.Block, _ int) bool {
		return (req.BlockMin == 0 || b.Order >= req.BlockMin) && (req.BlockMax == 0 || b.Order <= req.BlockMax)
	})

	rows, err := s.sessions.List(ctx, nil, models.SessionFilter{
		PeriodID:   req.PeriodID,
		CalendarID: req.CalendarID,
		TeacherID:  req.TeacherID,
		GroupID:    req.GroupID,
		RoomID:     req.RoomID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	resp := &dto.WeeklyGridResponse{
		Days: lo.Map(models.SchoolDays, func(d int, _ int) dto.GridDay {
			return dto.GridDay{Day: d, Name: models.DayName(d)}
		}),
		Blocks: lo.Map(visible, func(b models.Block, _ int) dto.GridBlock {
			return dto.GridBlock{ID: b.ID, Order: b.Order, StartTime: b.StartTime, EndTime: b.EndTime}
		}),
		Cells: []dto.GridCell{},
	}
	if len(visible) == 0 {
		return resp, nil
	}
	first, last := visible[0].Order, visible[len(visible)-1].Order

	for _, row := range rows {
		if row.Cancelled() || !lo.Contains(models.SchoolDays, row.DayOfWeek) {
			continue
		}
		end := row.StartOrder + row.BlockCount - 1
		if end < first || row.StartOrder > last {
			continue
		}
		resp.Cells = append(resp.Cells, dto.GridCell{
			SessionID:  row.ID,
			GroupID:    row.GroupID,
			Label:      sessionLabel(row),
			CourseName: row.CourseName,
			Kind:       row.Kind,
			Day:        row.DayOfWeek,
			StartOrder: row.StartOrder,
			BlockCount: row.BlockCount,
			TeacherID:  row.TeacherID,
			RoomID:     row.RoomID,
			Color:      courseColor(lo.Ternary(row.CourseCode != "", row.CourseCode, row.CourseName)),
		})
	}
	sort.SliceStable(resp.Cells, func(i, j int) bool {
		a, b := resp.Cells[i], resp.Cells[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.StartOrder < b.StartOrder
	})
	return resp, nil
}

func sessionLabel(row models.SessionDetail) string {
	if row.GroupCode == nil || *row.GroupCode == "" {
		return row.CourseCode
	}
	return row.CourseCode + "-" + *row.GroupCode
}

// courseColor derives a stable hex colour from a course key.
func courseColor(key string) string {
	if key == "" {
		key = "x"
	}
	sum := md5.Sum([]byte(key))
	return "#" + hex.EncodeToString(sum[:])[:6]
}
