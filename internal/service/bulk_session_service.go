package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

// Bulk item statuses.
const (
	bulkCreated  = "created"
	bulkUpdated  = "updated"
	bulkFailed   = "failed"
	bulkConflict = "conflict"
)

type bulkSessionStore interface {
	sessionStore
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
	ExistingIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]string, error)
	DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error)
}

// BulkSessionService creates, patches and deletes sessions in batches. Each
// batch runs in one transaction with a savepoint per item, so one bad item
// never undoes the others.
type BulkSessionService struct {
	grids     gridProvider
	sessions  bulkSessionStore
	changes   changeRecorder
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBulkSessionService constructs the bulk service.
func NewBulkSessionService(grids gridProvider, sessions bulkSessionStore, changes changeRecorder, tx txProvider, validate *validator.Validate, logger *zap.Logger) *BulkSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkSessionService{grids: grids, sessions: sessions, changes: changes, tx: tx, validator: validate, logger: logger}
}

// itemError is a per-item failure reported in the result instead of
// aborting the batch.
type itemError struct {
	status    string
	message   string
	conflicts []models.ScheduleConflict
}

func (e *itemError) Error() string { return e.message }

// BulkCreate inserts sessions. The returned error is a conflict when no item
// succeeded; the itemized result is returned in every case.
func (s *BulkSessionService) BulkCreate(ctx context.Context, req dto.BulkCreateSessionsRequest) (result *dto.BulkResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk create payload")
	}
	grids := newGridMemo(s.grids)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result = &dto.BulkResult{Items: make([]dto.BulkItemResult, 0, len(req.Items))}
	for i, item := range req.Items {
		session := &models.Session{
			GroupID:      item.GroupID,
			CalendarID:   item.CalendarID,
			Kind:         item.Kind,
			DayOfWeek:    item.DayOfWeek,
			StartBlockID: item.StartBlockID,
			BlockCount:   item.BlockCount,
			TeacherID:    item.TeacherID,
			RoomID:       item.RoomID,
			Notes:        item.Notes,
			Status:       models.SessionStatusProposed,
		}
		itemErr := s.validator.Struct(item)
		if itemErr == nil {
			itemErr = database.WithSavepoint(ctx, tx, fmt.Sprintf("bulk_item_%d", i), func() error {
				if err := s.checkPlacement(ctx, tx, grids, scheduling.SessionSlot{
					GroupID:    session.GroupID,
					CalendarID: session.CalendarID,
					TeacherID:  deref(session.TeacherID),
					RoomID:     deref(session.RoomID),
				}, session.DayOfWeek, session.StartBlockID, session.BlockCount); err != nil {
					return err
				}
				return s.sessions.Create(ctx, tx, session)
			})
		}
		s.record(result, i, session.ID, bulkCreated, itemErr)
	}

	return s.finish(tx, result, "created")
}

// BulkUpdate applies typed patches decoded from each update's set map.
// Patches that touch placement or ownership are re-validated under the row
// lock and audited.
func (s *BulkSessionService) BulkUpdate(ctx context.Context, actorID string, req dto.BulkUpdateSessionsRequest) (result *dto.BulkResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk update payload")
	}
	grids := newGridMemo(s.grids)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result = &dto.BulkResult{Items: make([]dto.BulkItemResult, 0, len(req.Updates))}
	for i, update := range req.Updates {
		patch, cleared, itemErr := s.decodePatch(update.Set)
		if itemErr == nil {
			itemErr = database.WithSavepoint(ctx, tx, fmt.Sprintf("bulk_item_%d", i), func() error {
				return s.applyPatch(ctx, tx, grids, actorID, update.ID, patch, cleared)
			})
		}
		s.record(result, i, update.ID, bulkUpdated, itemErr)
	}

	return s.finish(tx, result, "updated")
}

// BulkDelete splits ids into found and not found, then deletes the found set
// in one statement.
func (s *BulkSessionService) BulkDelete(ctx context.Context, req dto.BulkDeleteSessionsRequest) (result *dto.BulkDeleteResult, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk delete payload")
	}
	ids := lo.Uniq(req.IDs)

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	found, err := s.sessions.ExistingIDs(ctx, tx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up sessions")
	}
	result = &dto.BulkDeleteResult{Found: found, NotFound: lo.Without(ids, found...)}
	if result.Found == nil {
		result.Found = []string{}
	}
	if len(found) == 0 {
		err = appErrors.Clone(appErrors.ErrNotFound, "none of the sessions exist")
		return result, err
	}

	deleted, err := s.sessions.DeleteByIDs(ctx, tx, found)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete sessions")
	}
	if err = commitOrWrap(tx, "failed to commit session delete"); err != nil {
		return nil, err
	}
	result.Deleted = deleted
	s.logger.Info("sessions deleted", zap.Int64("deleted", deleted), zap.Int("not_found", len(result.NotFound)))
	return result, nil
}

func (s *BulkSessionService) finish(tx *sqlx.Tx, result *dto.BulkResult, verb string) (*dto.BulkResult, error) {
	if result.Succeeded == 0 {
		_ = tx.Rollback()
		return result, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("no session was %s", verb))
	}
	if err := commitOrWrap(tx, "failed to commit bulk sessions"); err != nil {
		return nil, err
	}
	s.logger.Info("bulk sessions "+verb, zap.Int("succeeded", result.Succeeded), zap.Int("failed", result.Failed))
	return result, nil
}

func (s *BulkSessionService) decodePatch(set map[string]any) (dto.SessionPatch, []string, error) {
	var patch dto.SessionPatch
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &patch,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return patch, nil, err
	}
	if err := decoder.Decode(set); err != nil {
		return patch, nil, &itemError{status: bulkFailed, message: fmt.Sprintf("invalid set: %v", err)}
	}
	if err := s.validator.Struct(patch); err != nil {
		return patch, nil, &itemError{status: bulkFailed, message: err.Error()}
	}

	var cleared []string
	for key, value := range set {
		if value != nil {
			continue
		}
		switch key {
		case "roomId", "teacherId", "substituteTeacherId", "notes":
			cleared = append(cleared, key)
		default:
			return patch, nil, &itemError{status: bulkFailed, message: fmt.Sprintf("%s cannot be null", key)}
		}
	}
	return patch, cleared, nil
}

func (s *BulkSessionService) applyPatch(ctx context.Context, tx *sqlx.Tx, grids *gridMemo, actorID, id string, patch dto.SessionPatch, cleared []string) error {
	locked, err := s.sessions.LockByID(ctx, tx, id)
	if err != nil {
		return notFoundOr(err, "session not found", "failed to lock session")
	}
	before := locked.Session
	next := &locked.Session

	if patch.DayOfWeek != nil {
		next.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartBlockID != nil {
		next.StartBlockID = *patch.StartBlockID
	}
	if patch.BlockCount != nil {
		next.BlockCount = *patch.BlockCount
	}
	if patch.RoomID != nil {
		next.RoomID = patch.RoomID
	}
	if patch.TeacherID != nil {
		next.TeacherID = patch.TeacherID
	}
	if patch.SubstituteTeacherID != nil {
		next.SubstituteTeacherID = patch.SubstituteTeacherID
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.Notes != nil {
		next.Notes = patch.Notes
	}
	for _, key := range cleared {
		switch key {
		case "roomId":
			next.RoomID = nil
		case "teacherId":
			next.TeacherID = nil
		case "substituteTeacherId":
			next.SubstituteTeacherID = nil
		case "notes":
			next.Notes = nil
		}
	}

	touches := patch.TouchesSchedule() || len(cleared) > 0
	if touches && !next.Cancelled() {
		slot := scheduling.SlotFromSession(*locked)
		slot.TeacherID = deref(next.TeacherID)
		slot.RoomID = deref(next.RoomID)
		if err := s.checkPlacement(ctx, tx, grids, slot, next.DayOfWeek, next.StartBlockID, next.BlockCount); err != nil {
			return err
		}
	}
	if err := s.sessions.Update(ctx, tx, next); err != nil {
		return err
	}
	if touches {
		change := newScheduleChange(models.ChangeReasonBulkUpdate, actorID, "", before, *next)
		if err := s.changes.Create(ctx, tx, &change); err != nil {
			return err
		}
	}
	return nil
}

// checkPlacement verifies the block range and collisions of slot placed at
// (day, startBlockID, count) against the other sessions of the period.
func (s *BulkSessionService) checkPlacement(ctx context.Context, tx *sqlx.Tx, grids *gridMemo, slot scheduling.SessionSlot, day int, startBlockID string, count int) error {
	grid, err := grids.get(ctx, slot.CalendarID)
	if err != nil {
		return err
	}
	idx, ok := grid.IndexOf(startBlockID)
	if !ok {
		return &itemError{status: bulkFailed, message: "start block does not belong to the calendar"}
	}
	if idx+count > grid.Len() {
		return &itemError{status: bulkFailed, message: "session would run past the last block of the day"}
	}
	periodID, err := grids.period(ctx, slot.CalendarID)
	if err != nil {
		return err
	}
	others, err := s.sessions.List(ctx, tx, models.SessionFilter{PeriodID: periodID, DayOfWeek: day})
	if err != nil {
		return err
	}
	conflicts := scheduling.ValidateMove(slot, scheduling.MoveProposal{
		Day:          day,
		StartBlockID: startBlockID,
		StartOrder:   grid.OrderOf(startBlockID),
		Blocks:       count,
	}, scheduling.SlotsFromSessions(others))
	if len(conflicts) > 0 {
		return &itemError{status: bulkConflict, message: "session collides with existing sessions", conflicts: conflicts}
	}
	return nil
}

func (s *BulkSessionService) record(result *dto.BulkResult, index int, id, okStatus string, err error) {
	item := dto.BulkItemResult{Index: index, ID: id, Status: okStatus}
	if err == nil {
		result.Succeeded++
		result.Items = append(result.Items, item)
		return
	}

	result.Failed++
	item.Status = bulkFailed
	var ie *itemError
	switch {
	case errors.As(err, &ie):
		item.Status = ie.status
		item.Error = ie.message
		item.Conflicts = ie.conflicts
	case database.IsUniqueViolation(err):
		item.Status = bulkConflict
		item.Error = "session slot already taken"
	default:
		if appErr, ok := err.(*appErrors.Error); ok {
			item.Error = appErr.Message
		} else if vErrs, ok := err.(validator.ValidationErrors); ok {
			item.Error = vErrs.Error()
		} else {
			item.Error = "failed to write session"
			s.logger.Warn("bulk session item failed", zap.Int("index", index), zap.String("id", id), zap.Error(err))
		}
	}
	result.Items = append(result.Items, item)
}

// gridMemo caches calendar grids for the duration of one batch.
type gridMemo struct {
	source  gridProvider
	grids   map[string]*scheduling.Grid
	periods map[string]string
}

func newGridMemo(source gridProvider) *gridMemo {
	return &gridMemo{source: source, grids: make(map[string]*scheduling.Grid), periods: make(map[string]string)}
}

// period returns the academic period that owns calendarID.
func (m *gridMemo) period(ctx context.Context, calendarID string) (string, error) {
	if p, ok := m.periods[calendarID]; ok {
		return p, nil
	}
	calendar, err := m.source.Calendar(ctx, "", calendarID)
	if err != nil {
		return "", err
	}
	m.periods[calendarID] = calendar.PeriodID
	return calendar.PeriodID, nil
}

func (m *gridMemo) get(ctx context.Context, calendarID string) (*scheduling.Grid, error) {
	if g, ok := m.grids[calendarID]; ok {
		return g, nil
	}
	blocks, err := m.source.Blocks(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	g := scheduling.NewGrid(calendarID, blocks)
	m.grids[calendarID] = g
	return g, nil
}
