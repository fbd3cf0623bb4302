package models

import "time"

// SessionKind distinguishes theory from practice sessions.
type SessionKind string

const (
	SessionKindTheory   SessionKind = "T"
	SessionKindPractice SessionKind = "P"
)

// SessionStatus tracks the lifecycle of a scheduled session.
type SessionStatus string

const (
	SessionStatusProposed  SessionStatus = "PROPOSED"
	SessionStatusConfirmed SessionStatus = "CONFIRMED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// Session is one scheduled occurrence of a group's class.
type Session struct {
	ID                  string        `db:"id" json:"id"`
	GroupID             string        `db:"group_id" json:"group_id"`
	CalendarID          string        `db:"calendar_id" json:"calendar_id"`
	Kind                SessionKind   `db:"kind" json:"kind"`
	DayOfWeek           int           `db:"day_of_week" json:"day_of_week"`
	StartBlockID        string        `db:"start_block_id" json:"start_block_id"`
	BlockCount          int           `db:"block_count" json:"block_count"`
	RoomID              *string       `db:"room_id" json:"room_id,omitempty"`
	TeacherID           *string       `db:"teacher_id" json:"teacher_id,omitempty"`
	SubstituteTeacherID *string       `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	Status              SessionStatus `db:"status" json:"status"`
	Notes               *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// Cancelled reports whether the session is excluded from occupancy checks.
func (s Session) Cancelled() bool {
	return s.Status == SessionStatusCancelled
}

// SessionDetail joins the columns engine snapshots need.
type SessionDetail struct {
	Session
	StartOrder int     `db:"start_order" json:"start_order"`
	PeriodID   string  `db:"period_id" json:"period_id"`
	CourseID   string  `db:"course_id" json:"course_id"`
	CourseCode string  `db:"course_code" json:"course_code"`
	CourseName string  `db:"course_name" json:"course_name"`
	GroupCode  *string `db:"group_code" json:"group_code,omitempty"`
	Capacity   int     `db:"group_capacity" json:"group_capacity"`
}

// SessionFilter narrows session snapshot queries.
type SessionFilter struct {
	PeriodID         string
	CalendarID       string
	TeacherID        string
	GroupID          string
	RoomID           string
	DayOfWeek        int
	IDs              []string
	IncludeCancelled bool
}

// ScheduleConflict describes an existing session that collides with a proposed range.
type ScheduleConflict struct {
	SessionID    string  `json:"session_id"`
	GroupID      string  `json:"group_id"`
	TeacherID    *string `json:"teacher_id,omitempty"`
	RoomID       *string `json:"room_id,omitempty"`
	DayOfWeek    int     `json:"day_of_week"`
	StartBlockID string  `json:"start_block_id"`
	BlockCount   int     `json:"block_count"`
	Dimension    string  `json:"dimension"`
}

// ScheduleConflictError is returned when a session change collides with existing sessions.
type ScheduleConflictError struct {
	Type     string             `json:"type"`
	Message  string             `json:"message"`
	Conflict ScheduleConflict   `json:"conflict"`
	Errors   []ScheduleConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
