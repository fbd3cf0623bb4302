package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
	LockByIDs(ctx context.Context, tx *sqlx.Tx, ids []string) error
}

type groupFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.GroupDetail, error)
}

type sessionRoomWriter interface {
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.SessionDetail, error)
	UpdateRoom(ctx context.Context, exec sqlx.ExtContext, id string, roomID *string) error
}

// RoomAssignmentService fills session rooms with the smallest sufficient free room.
type RoomAssignmentService struct {
	grids     gridProvider
	sessions  sessionLister
	groups    groupFinder
	rooms     roomLister
	writer    sessionRoomWriter
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomAssignmentService constructs the room assignment service.
func NewRoomAssignmentService(
	grids gridProvider,
	sessions sessionLister,
	groups groupFinder,
	rooms roomLister,
	writer sessionRoomWriter,
	tx txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RoomAssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomAssignmentService{
		grids:     grids,
		sessions:  sessions,
		groups:    groups,
		rooms:     rooms,
		writer:    writer,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// AssignRooms decides a room for each selected session of a calendar and
// writes the assigned rooms in one transaction.
func (s *RoomAssignmentService) AssignRooms(ctx context.Context, req dto.AssignRoomsRequest) (*dto.AssignRoomsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room assignment payload")
	}
	if _, err := s.grids.Calendar(ctx, req.PeriodID, req.CalendarID); err != nil {
		return nil, err
	}

	rows, err := s.sessions.List(ctx, nil, models.SessionFilter{PeriodID: req.PeriodID, CalendarID: req.CalendarID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	targets := rows
	if len(req.SessionIDs) > 0 {
		wanted := lo.Uniq(req.SessionIDs)
		targets = lo.Filter(rows, func(r models.SessionDetail, _ int) bool { return lo.Contains(wanted, r.ID) })
		if len(targets) != len(wanted) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more sessions not found in calendar")
		}
	}

	groups, err := s.groups.FindByIDs(ctx, lo.Uniq(lo.Map(targets, func(r models.SessionDetail, _ int) string { return r.GroupID })))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load groups")
	}
	groupByID := lo.KeyBy(groups, func(g models.GroupDetail) string { return g.ID })

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	options := lo.Map(rooms, func(r models.Room, _ int) scheduling.RoomOption {
		return scheduling.RoomOption{ID: r.ID, Code: r.Code, BuildingID: r.BuildingID, RoomTypeID: r.RoomTypeID, Capacity: r.Capacity}
	})

	assigner := scheduling.NewRoomAssigner(scheduling.SlotsFromSessions(rows))
	resp := &dto.AssignRoomsResponse{Decisions: make([]scheduling.RoomDecision, 0, len(targets))}
	for _, row := range targets {
		group, ok := groupByID[row.GroupID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInternal, "session references an unknown group")
		}
		roomType := ""
		if t := group.Course().RoomTypeFor(row.Kind); t != nil {
			roomType = *t
		}
		capacity := group.Capacity
		ranked := scheduling.RankRooms(options, roomType, capacity, req.PreferredBuildingID)
		decision := assigner.Assign(scheduling.RoomRequest{
			Session:    scheduling.SlotFromSession(row),
			RoomTypeID: roomType,
			Capacity:   capacity,
			Force:      req.Force,
		}, ranked)
		resp.Decisions = append(resp.Decisions, decision)
	}

	var changed []*scheduling.RoomDecision
	for i := range resp.Decisions {
		if resp.Decisions[i].Status == scheduling.StatusAssigned {
			changed = append(changed, &resp.Decisions[i])
		}
	}
	if len(changed) > 0 {
		if err := s.persist(ctx, changed); err != nil {
			return nil, err
		}
	}
	for _, d := range resp.Decisions {
		s.metrics.RecordRoomDecision(d.Status)
		if d.Status == scheduling.StatusAssigned {
			resp.Assigned++
		}
	}

	s.logger.Info("rooms assigned",
		zap.String("calendar_id", req.CalendarID),
		zap.Int("sessions", len(targets)),
		zap.Int("assigned", resp.Assigned),
	)
	return resp, nil
}

// persist locks the chosen rooms and the target sessions, then rechecks each
// room against bookings committed since the snapshot was read. A room taken
// in the meantime turns the decision into a conflict and is not written.
func (s *RoomAssignmentService) persist(ctx context.Context, decisions []*scheduling.RoomDecision) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	roomIDs := lo.Uniq(lo.Map(decisions, func(d *scheduling.RoomDecision, _ int) string { return *d.NewRoomID }))
	sort.Strings(roomIDs)
	if err = s.rooms.LockByIDs(ctx, tx, roomIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock rooms")
	}

	for _, d := range decisions {
		var locked *models.SessionDetail
		locked, err = s.writer.LockByID(ctx, tx, d.SessionID)
		if err != nil {
			return notFoundOr(err, "session not found", "failed to lock session")
		}
		var taken bool
		taken, err = s.roomTaken(ctx, tx, *locked, *d.NewRoomID)
		if err != nil {
			return err
		}
		if taken {
			s.logger.Warn("room taken by a concurrent update", zap.String("session_id", d.SessionID), zap.String("room_id", *d.NewRoomID))
			d.NewRoomID = d.OldRoomID
			d.Status = scheduling.StatusConflict
			continue
		}
		if err = s.writer.UpdateRoom(ctx, tx, d.SessionID, d.NewRoomID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session room")
		}
	}
	err = commitOrWrap(tx, "failed to commit room assignments")
	return err
}

func (s *RoomAssignmentService) roomTaken(ctx context.Context, tx *sqlx.Tx, target models.SessionDetail, roomID string) (bool, error) {
	bookings, err := s.sessions.List(ctx, tx, models.SessionFilter{
		CalendarID: target.CalendarID,
		RoomID:     roomID,
		DayOfWeek:  target.DayOfWeek,
	})
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recheck room bookings")
	}
	slot := scheduling.SlotFromSession(target)
	return lo.ContainsBy(bookings, func(b models.SessionDetail) bool {
		return b.ID != target.ID && slot.Overlaps(scheduling.SlotFromSession(b))
	}), nil
}
