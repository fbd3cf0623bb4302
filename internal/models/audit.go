package models

import "time"

// Schedule change reasons recorded in the audit trail.
const (
	ChangeReasonMove       = "MOVE"
	ChangeReasonSubstitute = "SUBSTITUTE"
	ChangeReasonBulkUpdate = "BULK_UPDATE"
)

// ScheduleChange captures the before/after state of a session mutation.
type ScheduleChange struct {
	ID              string    `db:"id" json:"id"`
	SessionID       string    `db:"session_id" json:"session_id"`
	ActorID         *string   `db:"actor_id" json:"actor_id,omitempty"`
	Reason          string    `db:"reason" json:"reason"`
	OldDayOfWeek    int       `db:"old_day_of_week" json:"old_day_of_week"`
	OldStartBlockID string    `db:"old_start_block_id" json:"old_start_block_id"`
	OldBlockCount   int       `db:"old_block_count" json:"old_block_count"`
	OldRoomID       *string   `db:"old_room_id" json:"old_room_id,omitempty"`
	OldTeacherID    *string   `db:"old_teacher_id" json:"old_teacher_id,omitempty"`
	NewDayOfWeek    int       `db:"new_day_of_week" json:"new_day_of_week"`
	NewStartBlockID string    `db:"new_start_block_id" json:"new_start_block_id"`
	NewBlockCount   int       `db:"new_block_count" json:"new_block_count"`
	NewRoomID       *string   `db:"new_room_id" json:"new_room_id,omitempty"`
	NewTeacherID    *string   `db:"new_teacher_id" json:"new_teacher_id,omitempty"`
	Note            *string   `db:"note" json:"note,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
