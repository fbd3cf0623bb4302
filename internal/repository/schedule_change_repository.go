package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// ScheduleChangeRepository writes the session audit trail.
type ScheduleChangeRepository struct {
	db *sqlx.DB
}

// NewScheduleChangeRepository constructs the repository.
func NewScheduleChangeRepository(db *sqlx.DB) *ScheduleChangeRepository {
	return &ScheduleChangeRepository{db: db}
}

// Create stores an audit row.
func (r *ScheduleChangeRepository) Create(ctx context.Context, exec sqlx.ExtContext, change *models.ScheduleChange) error {
	target := exec
	if target == nil {
		target = r.db
	}
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schedule_changes (id, session_id, actor_id, reason,
old_day_of_week, old_start_block_id, old_block_count, old_room_id, old_teacher_id,
new_day_of_week, new_start_block_id, new_block_count, new_room_id, new_teacher_id, note, created_at)
VALUES (:id, :session_id, :actor_id, :reason,
:old_day_of_week, :old_start_block_id, :old_block_count, :old_room_id, :old_teacher_id,
:new_day_of_week, :new_start_block_id, :new_block_count, :new_room_id, :new_teacher_id, :note, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, change); err != nil {
		return fmt.Errorf("create schedule change: %w", err)
	}
	return nil
}

// ListBySession returns the audit trail of a session, newest first.
func (r *ScheduleChangeRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ScheduleChange, error) {
	const query = `SELECT id, session_id, actor_id, reason, old_day_of_week, old_start_block_id, old_block_count, old_room_id, old_teacher_id,
new_day_of_week, new_start_block_id, new_block_count, new_room_id, new_teacher_id, note, created_at
FROM schedule_changes WHERE session_id = $1 ORDER BY created_at DESC`
	var changes []models.ScheduleChange
	if err := r.db.SelectContext(ctx, &changes, query, sessionID); err != nil {
		return nil, fmt.Errorf("list schedule changes: %w", err)
	}
	return changes, nil
}
