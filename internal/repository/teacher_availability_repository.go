package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// TeacherAvailabilityRepository reads declared teacher availability windows.
type TeacherAvailabilityRepository struct {
	db *sqlx.DB
}

// NewTeacherAvailabilityRepository constructs the repository.
func NewTeacherAvailabilityRepository(db *sqlx.DB) *TeacherAvailabilityRepository {
	return &TeacherAvailabilityRepository{db: db}
}

// ListByCalendar returns every window of a calendar ordered by teacher, day and block.
func (r *TeacherAvailabilityRepository) ListByCalendar(ctx context.Context, calendarID string) ([]models.TeacherAvailability, error) {
	const query = `SELECT a.id, a.teacher_id, a.calendar_id, a.day_of_week, a.start_block_id, b.block_order AS start_order, a.block_count, a.preference
FROM teacher_availabilities a JOIN blocks b ON b.id = a.start_block_id
WHERE a.calendar_id = $1
ORDER BY a.teacher_id ASC, a.day_of_week ASC, b.block_order ASC`
	var windows []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &windows, query, calendarID); err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return windows, nil
}
