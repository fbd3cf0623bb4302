package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type sessionCreator interface {
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
}

// SessionPlannerService places weekly sessions into teachers' free windows.
type SessionPlannerService struct {
	loader    *planningLoader
	creator   sessionCreator
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionPlannerService wires the planner dependencies.
func NewSessionPlannerService(
	grids gridProvider,
	groups groupLister,
	teachers activeTeacherLister,
	availability availabilityLister,
	sessions sessionLister,
	creator sessionCreator,
	tx txProvider,
	metrics *MetricsService,
	settings SchedulerSettings,
	validate *validator.Validate,
	logger *zap.Logger,
) *SessionPlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionPlannerService{
		loader: &planningLoader{
			grids:        grids,
			groups:       groups,
			teachers:     teachers,
			availability: availability,
			sessions:     sessions,
			settings:     settings.withDefaults(),
		},
		creator:   creator,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ProposeSessions plans sessions for the filtered groups. A group's shortfall
// is reported in Omitted and never aborts the other groups.
func (s *SessionPlannerService) ProposeSessions(ctx context.Context, req dto.SessionProposalRequest) (*dto.SessionProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session proposal payload")
	}
	settings := s.loader.settings
	maxPerSession := req.MaxBlocksPerSession
	if maxPerSession <= 0 {
		maxPerSession = settings.MaxBlocksPerSession
	}

	snap, err := s.loader.load(ctx, planningQuery{
		PeriodID:   req.PeriodID,
		CalendarID: req.CalendarID,
		CourseID:   req.CourseID,
		ShiftID:    req.ShiftID,
	})
	if err != nil {
		return nil, err
	}

	teacherOf := make(map[string]string, len(snap.groups))
	if req.ReusesGroupTeacher() {
		for _, g := range snap.groups {
			if g.TeacherID != nil {
				teacherOf[g.ID] = *g.TeacherID
			}
		}
	} else {
		result, _ := snap.solve(snap.groups, settings, true, s.metrics)
		for groupID, cand := range result.Assignments {
			if cand != nil {
				teacherOf[groupID] = cand.TeacherID
			}
		}
	}

	planner := scheduling.NewPlanner(snap.index(), maxPerSession)
	blockMinutes := settings.blockMinutes(snap.calendar)

	resp := &dto.SessionProposalResponse{
		Preview:    []scheduling.Draft{},
		Omitted:    []string{},
		Shortfalls: []scheduling.Shortfall{},
	}
	for _, g := range snap.groups {
		theory, practice := scheduling.RequiredBlocks(g.TheoryHoursPerWeek, g.PracticeHoursPerWeek, blockMinutes)
		drafts, shortfalls := planner.Place(scheduling.PlacementRequest{
			GroupID:   g.ID,
			Label:     g.Label(),
			TeacherID: teacherOf[g.ID],
			Theory:    theory,
			Practice:  practice,
		})
		resp.Preview = append(resp.Preview, drafts...)
		for _, sf := range shortfalls {
			resp.Omitted = append(resp.Omitted, sf.Message)
			resp.Shortfalls = append(resp.Shortfalls, sf)
		}
	}

	if req.Persist && len(resp.Preview) > 0 {
		created, rejected, err := s.persist(ctx, resp.Preview)
		if err != nil {
			return nil, err
		}
		resp.CreatedCount = created
		resp.Omitted = append(resp.Omitted, rejected...)
	}

	s.metrics.RecordPlacement(len(resp.Preview), len(resp.Shortfalls))
	s.logger.Info("session proposal computed",
		zap.String("period_id", req.PeriodID),
		zap.String("calendar_id", req.CalendarID),
		zap.Int("groups", len(snap.groups)),
		zap.Int("drafts", len(resp.Preview)),
		zap.Int("shortfalls", len(resp.Shortfalls)),
		zap.Int("created", resp.CreatedCount),
	)
	return resp, nil
}

// persist inserts drafts in one transaction. A draft rejected by a unique
// constraint is rolled back to its savepoint and reported.
func (s *SessionPlannerService) persist(ctx context.Context, drafts []scheduling.Draft) (created int, rejected []string, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, d := range drafts {
		teacherID := d.TeacherID
		session := &models.Session{
			GroupID:      d.GroupID,
			CalendarID:   d.CalendarID,
			Kind:         d.Kind,
			DayOfWeek:    d.Day,
			StartBlockID: d.StartBlockID,
			BlockCount:   d.Blocks,
			TeacherID:    &teacherID,
			Status:       models.SessionStatusProposed,
		}
		spErr := database.WithSavepoint(ctx, tx, fmt.Sprintf("draft_%d", i), func() error {
			return s.creator.Create(ctx, tx, session)
		})
		switch {
		case spErr == nil:
			created++
		case database.IsUniqueViolation(spErr):
			rejected = append(rejected, fmt.Sprintf("Group %s %s: %s already taken", d.GroupID, d.Kind, models.DayName(d.Day)))
		default:
			err = appErrors.Wrap(spErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
			return 0, nil, err
		}
	}
	if err = commitOrWrap(tx, "failed to commit planned sessions"); err != nil {
		return 0, nil, err
	}
	return created, rejected, nil
}
