package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// Move outcomes recorded in metrics.
const (
	moveApplied  = "applied"
	moveRejected = "rejected"
	moveDryRun   = "dry_run"
)

// maxWriteAttempts bounds the optimistic retry on unique violations.
const maxWriteAttempts = 2

type sessionStore interface {
	List(ctx context.Context, exec sqlx.ExtContext, filter models.SessionFilter) ([]models.SessionDetail, error)
	FindByID(ctx context.Context, id string) (*models.SessionDetail, error)
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.SessionDetail, error)
	Update(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
}

type changeRecorder interface {
	Create(ctx context.Context, exec sqlx.ExtContext, change *models.ScheduleChange) error
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type noticeSender interface {
	Notify(ctx context.Context, notice SessionNotice) error
}

// SessionChangeService applies drag-and-drop moves and substitutions to
// single sessions. Every write re-validates under the session row lock and
// leaves an audit record.
type SessionChangeService struct {
	grids     gridProvider
	sessions  sessionStore
	changes   changeRecorder
	teachers  teacherFinder
	notifier  noticeSender
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionChangeService wires the move and substitution dependencies.
func NewSessionChangeService(
	grids gridProvider,
	sessions sessionStore,
	changes changeRecorder,
	teachers teacherFinder,
	notifier noticeSender,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *SessionChangeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionChangeService{
		grids:     grids,
		sessions:  sessions,
		changes:   changes,
		teachers:  teachers,
		notifier:  notifier,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Move validates a new placement for a session and applies it unless the
// request is a dry run. A dry run reports conflicts in the payload; a real
// move that collides fails with a conflict error carrying every descriptor.
func (s *SessionChangeService) Move(ctx context.Context, actorID string, req dto.MoveSessionRequest) (*dto.MoveSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}
	current, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		return nil, notFoundOr(err, "session not found", "failed to load session")
	}
	if current.Cancelled() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cancelled sessions cannot be moved")
	}
	proposal, err := s.proposal(ctx, current.CalendarID, req)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.conflictsFor(ctx, nil, *current, proposal)
	if err != nil {
		return nil, err
	}
	if req.DryRun {
		s.metrics.RecordMove(moveDryRun)
		return &dto.MoveSessionResponse{Applied: false, Session: current, Conflicts: conflicts}, nil
	}
	if len(conflicts) > 0 {
		s.metrics.RecordMove(moveRejected)
		return nil, moveConflict(conflicts)
	}

	var updated *models.SessionDetail
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		updated, err = s.applyMove(ctx, actorID, req.SessionID, req.Reason, proposal)
		if err == nil || !database.IsUniqueViolation(err) {
			break
		}
		s.logger.Warn("session move hit a concurrent writer", zap.String("session_id", req.SessionID), zap.Int("attempt", attempt))
	}
	if err != nil {
		if database.IsUniqueViolation(err) {
			s.metrics.RecordMove(moveRejected)
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "session slot taken by a concurrent update")
		}
		if errors.Is(err, appErrors.ErrConflict) {
			s.metrics.RecordMove(moveRejected)
		}
		return nil, err
	}

	s.metrics.RecordMove(moveApplied)
	s.notify(ctx, updated, "Session moved", withReason(fmt.Sprintf("%s %s moved to %s block %d (%d blocks)",
		updated.CourseCode, updated.Kind, models.DayName(updated.DayOfWeek), updated.StartOrder, updated.BlockCount), req.Reason))
	return &dto.MoveSessionResponse{Applied: true, Session: updated, Conflicts: []models.ScheduleConflict{}}, nil
}

func (s *SessionChangeService) proposal(ctx context.Context, calendarID string, req dto.MoveSessionRequest) (scheduling.MoveProposal, error) {
	blocks, err := s.grids.Blocks(ctx, calendarID)
	if err != nil {
		return scheduling.MoveProposal{}, err
	}
	grid := scheduling.NewGrid(calendarID, blocks)
	idx, ok := grid.IndexOf(req.StartBlockID)
	if !ok {
		return scheduling.MoveProposal{}, appErrors.Clone(appErrors.ErrValidation, "start block does not belong to the session calendar")
	}
	if idx+req.BlockCount > grid.Len() {
		return scheduling.MoveProposal{}, appErrors.Clone(appErrors.ErrValidation, "session would run past the last block of the day")
	}
	return scheduling.MoveProposal{
		Day:          req.DayOfWeek,
		StartBlockID: req.StartBlockID,
		StartOrder:   grid.OrderOf(req.StartBlockID),
		Blocks:       req.BlockCount,
	}, nil
}

// conflictsFor checks the proposal against every other session of the
// period on the new day. Teachers, groups and rooms are shared across the
// calendars of a period.
func (s *SessionChangeService) conflictsFor(ctx context.Context, exec sqlx.ExtContext, target models.SessionDetail, proposal scheduling.MoveProposal) ([]models.ScheduleConflict, error) {
	others, err := s.sessions.List(ctx, exec, models.SessionFilter{
		PeriodID:  target.PeriodID,
		DayOfWeek: proposal.Day,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions for validation")
	}
	conflicts := scheduling.ValidateMove(scheduling.SlotFromSession(target), proposal, scheduling.SlotsFromSessions(others))
	if conflicts == nil {
		conflicts = []models.ScheduleConflict{}
	}
	return conflicts, nil
}

func (s *SessionChangeService) applyMove(ctx context.Context, actorID, sessionID, note string, proposal scheduling.MoveProposal) (updated *models.SessionDetail, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	locked, err := s.sessions.LockByID(ctx, tx, sessionID)
	if err != nil {
		return nil, notFoundOr(err, "session not found", "failed to lock session")
	}
	conflicts, err := s.conflictsFor(ctx, tx, *locked, proposal)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		err = moveConflict(conflicts)
		return nil, err
	}

	before := locked.Session
	locked.DayOfWeek = proposal.Day
	locked.StartBlockID = proposal.StartBlockID
	locked.BlockCount = proposal.Blocks
	locked.StartOrder = proposal.StartOrder
	if err = s.sessions.Update(ctx, tx, &locked.Session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	change := newScheduleChange(models.ChangeReasonMove, actorID, note, before, locked.Session)
	if err = s.changes.Create(ctx, tx, &change); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record schedule change")
	}
	if err = commitOrWrap(tx, "failed to commit session move"); err != nil {
		return nil, err
	}
	return locked, nil
}

// SetSubstitute sets or clears the substitute teacher of a session.
func (s *SessionChangeService) SetSubstitute(ctx context.Context, actorID, sessionID string, req dto.SubstituteRequest) (*models.SessionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute payload")
	}
	if req.SubstituteTeacherID != nil {
		if *req.SubstituteTeacherID == "" {
			req.SubstituteTeacherID = nil
		} else if _, err := s.teachers.FindByID(ctx, *req.SubstituteTeacherID); err != nil {
			return nil, notFoundOr(err, "substitute teacher not found", "failed to load substitute teacher")
		}
	}

	updated, previous, err := s.applySubstitute(ctx, actorID, sessionID, req.Reason, req.SubstituteTeacherID)
	if err != nil {
		return nil, err
	}

	title := "Substitute assigned"
	body := fmt.Sprintf("%s %s on %s has a substitute teacher", updated.CourseCode, updated.Kind, models.DayName(updated.DayOfWeek))
	if updated.SubstituteTeacherID == nil {
		title = "Substitute removed"
		body = fmt.Sprintf("%s %s on %s is back with its regular teacher", updated.CourseCode, updated.Kind, models.DayName(updated.DayOfWeek))
	}
	notice := SessionNotice{
		SessionID:  updated.ID,
		TeacherIDs: []string{deref(updated.TeacherID), deref(updated.SubstituteTeacherID), deref(previous)},
		Title:      title,
		Body:       withReason(body, req.Reason),
	}
	if err := s.notifier.Notify(ctx, notice); err != nil {
		s.logger.Warn("failed to queue substitute notice", zap.String("session_id", updated.ID), zap.Error(err))
	}
	return updated, nil
}

func (s *SessionChangeService) applySubstitute(ctx context.Context, actorID, sessionID, note string, substituteID *string) (updated *models.SessionDetail, previous *string, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	locked, err := s.sessions.LockByID(ctx, tx, sessionID)
	if err != nil {
		return nil, nil, notFoundOr(err, "session not found", "failed to lock session")
	}
	if substituteID != nil && locked.TeacherID != nil && *locked.TeacherID == *substituteID {
		err = appErrors.Clone(appErrors.ErrValidation, "substitute must differ from the session teacher")
		return nil, nil, err
	}

	before := locked.Session
	locked.SubstituteTeacherID = substituteID
	if err = s.sessions.Update(ctx, tx, &locked.Session); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	change := newScheduleChange(models.ChangeReasonSubstitute, actorID, note, before, locked.Session)
	change.OldTeacherID = before.SubstituteTeacherID
	change.NewTeacherID = substituteID
	if err = s.changes.Create(ctx, tx, &change); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record schedule change")
	}
	if err = commitOrWrap(tx, "failed to commit substitute"); err != nil {
		return nil, nil, err
	}
	return locked, before.SubstituteTeacherID, nil
}

func (s *SessionChangeService) notify(ctx context.Context, session *models.SessionDetail, title, body string) {
	notice := SessionNotice{
		SessionID:  session.ID,
		GroupID:    session.GroupID,
		TeacherIDs: []string{deref(session.TeacherID), deref(session.SubstituteTeacherID)},
		Title:      title,
		Body:       body,
	}
	if err := s.notifier.Notify(ctx, notice); err != nil {
		s.logger.Warn("failed to queue session notice", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func moveConflict(conflicts []models.ScheduleConflict) error {
	domainErr := &models.ScheduleConflictError{
		Type:     "MOVE",
		Message:  fmt.Sprintf("move collides with %d session(s)", len(conflicts)),
		Conflict: conflicts[0],
		Errors:   conflicts,
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "conflict detected")
}

func newScheduleChange(reason, actorID, note string, before, after models.Session) models.ScheduleChange {
	change := models.ScheduleChange{
		SessionID:       after.ID,
		Reason:          reason,
		OldDayOfWeek:    before.DayOfWeek,
		OldStartBlockID: before.StartBlockID,
		OldBlockCount:   before.BlockCount,
		OldRoomID:       before.RoomID,
		OldTeacherID:    before.TeacherID,
		NewDayOfWeek:    after.DayOfWeek,
		NewStartBlockID: after.StartBlockID,
		NewBlockCount:   after.BlockCount,
		NewRoomID:       after.RoomID,
		NewTeacherID:    after.TeacherID,
	}
	if actorID != "" {
		change.ActorID = &actorID
	}
	if note = strings.TrimSpace(note); note != "" {
		change.Note = &note
	}
	return change
}

// withReason appends the operator's reason to a notice body.
func withReason(body, reason string) string {
	if reason = strings.TrimSpace(reason); reason != "" {
		return body + ". Reason: " + reason
	}
	return body
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	if _, ok := err.(*appErrors.Error); ok {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
