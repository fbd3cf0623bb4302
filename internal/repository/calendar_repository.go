package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// CalendarRepository reads calendars and their block grids.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a CalendarRepository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// FindCalendar fetches a calendar by ID.
func (r *CalendarRepository) FindCalendar(ctx context.Context, id string) (*models.Calendar, error) {
	const query = `SELECT id, period_id, name, block_duration_min FROM calendars WHERE id = $1`
	var calendar models.Calendar
	if err := r.db.GetContext(ctx, &calendar, query, id); err != nil {
		return nil, err
	}
	return &calendar, nil
}

// ListBlocks returns the blocks of a calendar in grid order.
func (r *CalendarRepository) ListBlocks(ctx context.Context, calendarID string) ([]models.Block, error) {
	const query = `SELECT id, calendar_id, block_order, start_time, end_time, duration_min
FROM blocks WHERE calendar_id = $1 ORDER BY block_order ASC`
	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, query, calendarID); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

// ListPeriodBlocks returns the blocks of every calendar of a period.
func (r *CalendarRepository) ListPeriodBlocks(ctx context.Context, periodID string) ([]models.Block, error) {
	const query = `SELECT b.id, b.calendar_id, b.block_order, b.start_time, b.end_time, b.duration_min
FROM blocks b JOIN calendars c ON c.id = b.calendar_id
WHERE c.period_id = $1 ORDER BY b.calendar_id ASC, b.block_order ASC`
	var blocks []models.Block
	if err := r.db.SelectContext(ctx, &blocks, query, periodID); err != nil {
		return nil, fmt.Errorf("list period blocks: %w", err)
	}
	return blocks, nil
}

