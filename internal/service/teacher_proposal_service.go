package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type groupTeacherWriter interface {
	UpdateTeacher(ctx context.Context, exec sqlx.ExtContext, groupID, teacherID string) error
}

// Reason for groups that keep their current teacher.
const reasonAlreadyAssigned = "already_assigned"

// TeacherProposalService suggests one teacher per group with the branch-and-bound optimizer.
type TeacherProposalService struct {
	loader    *planningLoader
	writer    groupTeacherWriter
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherProposalService wires the optimizer dependencies.
func NewTeacherProposalService(
	grids gridProvider,
	groups groupLister,
	writer groupTeacherWriter,
	teachers activeTeacherLister,
	availability availabilityLister,
	sessions sessionLister,
	tx txProvider,
	metrics *MetricsService,
	settings SchedulerSettings,
	validate *validator.Validate,
	logger *zap.Logger,
) *TeacherProposalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherProposalService{
		loader: &planningLoader{
			grids:        grids,
			groups:       groups,
			teachers:     teachers,
			availability: availability,
			sessions:     sessions,
			settings:     settings.withDefaults(),
		},
		writer:    writer,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ProposeTeachers runs the optimizer for the filtered groups of a period.
// Without persist only groups lacking a teacher are optimized; with persist
// every group is re-optimized and suggestions are written to the groups.
func (s *TeacherProposalService) ProposeTeachers(ctx context.Context, req dto.TeacherProposalRequest) (*dto.TeacherProposalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher proposal payload")
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

	targets := snap.groups
	if !req.Persist {
		targets = nil
		for _, g := range snap.groups {
			if g.TeacherID == nil {
				targets = append(targets, g)
			}
		}
	}

	result, _ := snap.solve(targets, s.loader.settings, req.PrefersSpecialty(), s.metrics)

	resp := &dto.TeacherProposalResponse{
		Persisted:   req.Persist,
		Suggestions: make([]dto.TeacherSuggestion, 0, len(snap.groups)),
		Stats: dto.OptimizerStats{
			Groups:        len(targets),
			Teachers:      len(snap.teachers),
			NodesExplored: result.NodesExplored,
			Pruned:        result.Pruned,
			Score:         result.Score,
		},
	}

	var writes []dto.TeacherSuggestion
	for _, g := range snap.groups {
		suggestion := dto.TeacherSuggestion{
			GroupID:          g.ID,
			GroupLabel:       g.Label(),
			CurrentTeacherID: g.TeacherID,
		}
		cand, considered := result.Assignments[g.ID]
		switch {
		case !considered:
			suggestion.Reason = reasonAlreadyAssigned
			suggestion.Status = scheduling.StatusSkipped
		case cand == nil && g.TeacherID != nil:
			suggestion.Reason = reasonAlreadyAssigned
			suggestion.Status = scheduling.StatusSkipped
		case cand == nil:
			suggestion.Reason = scheduling.ReasonNoCandidate
			suggestion.Status = scheduling.StatusNoCandidates
		default:
			suggestion.Suggested = cand
			suggestion.Reason = cand.Reason
			suggestion.Status = scheduling.StatusOK
			if req.Persist {
				suggestion.Status = scheduling.StatusAssigned
				if g.TeacherID == nil || *g.TeacherID != cand.TeacherID {
					writes = append(writes, suggestion)
				}
			}
		}
		resp.Suggestions = append(resp.Suggestions, suggestion)
	}

	if req.Persist && len(writes) > 0 {
		if err := s.persist(ctx, writes); err != nil {
			return nil, err
		}
	}

	s.logger.Info("teacher proposal computed",
		zap.String("period_id", req.PeriodID),
		zap.String("calendar_id", req.CalendarID),
		zap.Int("groups", len(targets)),
		zap.Int("nodes_explored", result.NodesExplored),
		zap.Int("pruned", result.Pruned),
		zap.Int("written", len(writes)),
	)
	return resp, nil
}

func (s *TeacherProposalService) persist(ctx context.Context, writes []dto.TeacherSuggestion) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, w := range writes {
		if err = s.writer.UpdateTeacher(ctx, tx, w.GroupID, w.Suggested.TeacherID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign group teacher")
		}
	}
	err = commitOrWrap(tx, "failed to commit teacher assignments")
	return err
}
