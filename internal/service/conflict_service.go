package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type conflictStore interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, records []models.ConflictRecord) error
	List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.ConflictRecord, error)
	Resolve(ctx context.Context, id, note string) error
}

// ConflictService scans sessions for collisions and manages conflict records.
type ConflictService struct {
	sessions  sessionLister
	store     conflictStore
	tx        txProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService constructs a conflict service.
func NewConflictService(sessions sessionLister, store conflictStore, tx txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{sessions: sessions, store: store, tx: tx, metrics: metrics, validator: validate, logger: logger}
}

// Detect reports every colliding pair among the non-cancelled sessions of a
// period, optionally restricted to one calendar. Without persist the scan has
// no side effects.
func (s *ConflictService) Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict scan payload")
	}
	rows, err := s.sessions.List(ctx, nil, models.SessionFilter{PeriodID: req.PeriodID, CalendarID: req.CalendarID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	tuples := scheduling.DetectConflicts(scheduling.SlotsFromSessions(rows))
	resp := &dto.DetectConflictsResponse{
		Persisted: req.Persist,
		Conflicts: make([]dto.DetectedConflict, len(tuples)),
	}
	for i, t := range tuples {
		resp.Conflicts[i] = dto.DetectedConflict{Kind: t.Kind, SessionA: t.SessionA, SessionB: t.SessionB}
	}

	if req.Persist && len(tuples) > 0 {
		records := lo.Map(tuples, func(t scheduling.ConflictTuple, _ int) models.ConflictRecord {
			return models.ConflictRecord{Kind: t.Kind, SessionAID: t.SessionA, SessionBID: t.SessionB}
		})
		if err := s.persist(ctx, records); err != nil {
			return nil, err
		}
		for i := range records {
			id := records[i].ID
			resp.Conflicts[i].ID = &id
		}
	}

	byKind := lo.CountValuesBy(tuples, func(t scheduling.ConflictTuple) models.ConflictKind { return t.Kind })
	s.metrics.RecordConflicts(byKind)
	s.logger.Info("conflict scan finished",
		zap.String("period_id", req.PeriodID),
		zap.String("calendar_id", req.CalendarID),
		zap.Int("sessions", len(rows)),
		zap.Int("conflicts", len(tuples)),
	)
	return resp, nil
}

func (s *ConflictService) persist(ctx context.Context, records []models.ConflictRecord) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = s.store.CreateBatch(ctx, tx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store conflicts")
	}
	err = commitOrWrap(tx, "failed to commit conflicts")
	return err
}

// List returns persisted conflict records.
func (s *ConflictService) List(ctx context.Context, query dto.ConflictQuery) ([]models.ConflictRecord, *models.Pagination, error) {
	query.Kind = strings.ToUpper(query.Kind)
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict filter")
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 {
		size = 20
	}
	records, total, err := s.store.List(ctx, models.ConflictFilter{
		Kind:     query.Kind,
		Resolved: query.Resolved,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conflicts")
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Resolve closes a conflict record with an operator note.
func (s *ConflictService) Resolve(ctx context.Context, id string, req dto.ResolveConflictRequest) (*models.ConflictRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolve payload")
	}
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "conflict not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflict")
	}
	if record.Resolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "conflict already resolved")
	}
	if err := s.store.Resolve(ctx, id, req.Note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve conflict")
	}
	record.Resolved = true
	record.Note = req.Note
	return record, nil
}
