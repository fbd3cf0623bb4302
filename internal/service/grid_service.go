package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type calendarReader interface {
	FindCalendar(ctx context.Context, id string) (*models.Calendar, error)
	ListBlocks(ctx context.Context, calendarID string) ([]models.Block, error)
	ListPeriodBlocks(ctx context.Context, periodID string) ([]models.Block, error)
}

type gridCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

type gridProvider interface {
	Calendar(ctx context.Context, periodID, calendarID string) (*models.Calendar, error)
	Blocks(ctx context.Context, calendarID string) ([]models.Block, error)
	PeriodGrids(ctx context.Context, periodID string) (*scheduling.GridSet, error)
}

// GridService loads calendar block grids, caching block lists in Redis.
// Blocks are read-only to the engine, so cached entries only expire by TTL
// or explicit invalidation.
type GridService struct {
	calendars calendarReader
	cache     gridCache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewGridService constructs a grid service. cache may be nil.
func NewGridService(calendars calendarReader, cache gridCache, ttl time.Duration, logger *zap.Logger) *GridService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridService{calendars: calendars, cache: cache, ttl: ttl, logger: logger}
}

// Calendar fetches a calendar and checks that it belongs to the period.
func (s *GridService) Calendar(ctx context.Context, periodID, calendarID string) (*models.Calendar, error) {
	calendar, err := s.calendars.FindCalendar(ctx, calendarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	if periodID != "" && calendar.PeriodID != periodID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "calendar does not belong to period")
	}
	return calendar, nil
}

// Blocks returns the ordered blocks of a calendar.
func (s *GridService) Blocks(ctx context.Context, calendarID string) ([]models.Block, error) {
	key := fmt.Sprintf("grid:%s", calendarID)
	var blocks []models.Block
	if s.lookup(ctx, key, &blocks) {
		return blocks, nil
	}
	blocks, err := s.calendars.ListBlocks(ctx, calendarID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar blocks")
	}
	s.store(ctx, key, blocks)
	return blocks, nil
}

// PeriodGrids builds the grid of every calendar in a period. The returned
// set belongs to the caller's run.
func (s *GridService) PeriodGrids(ctx context.Context, periodID string) (*scheduling.GridSet, error) {
	key := fmt.Sprintf("period-blocks:%s", periodID)
	var blocks []models.Block
	if !s.lookup(ctx, key, &blocks) {
		loaded, err := s.calendars.ListPeriodBlocks(ctx, periodID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period blocks")
		}
		blocks = loaded
		s.store(ctx, key, blocks)
	}

	set := scheduling.NewGridSet()
	for calendarID, list := range lo.GroupBy(blocks, func(b models.Block) string { return b.CalendarID }) {
		set.Put(scheduling.NewGrid(calendarID, list))
	}
	return set, nil
}

// Invalidate drops cached grids, e.g. after block maintenance.
func (s *GridService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, "grid:*"); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, "period-blocks:*")
}

func (s *GridService) lookup(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("grid cache lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *GridService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("grid cache write failed", zap.String("key", key), zap.Error(err))
	}
}
