package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const sessionDetailSelect = `SELECT s.id, s.group_id, s.calendar_id, s.kind, s.day_of_week, s.start_block_id, s.block_count,
s.room_id, s.teacher_id, s.substitute_teacher_id, s.status, s.notes, s.created_at, s.updated_at,
b.block_order AS start_order, g.period_id, g.course_id, c.code AS course_code, c.name AS course_name,
g.code AS group_code, g.capacity AS group_capacity
FROM sessions s
JOIN blocks b ON b.id = s.start_block_id
JOIN groups g ON g.id = s.group_id
JOIN courses c ON c.id = g.course_id`

// SessionRepository persists scheduled sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns joined session rows matching the filter, ordered by day and block.
func (r *SessionRepository) List(ctx context.Context, exec sqlx.ExtContext, filter models.SessionFilter) ([]models.SessionDetail, error) {
	var conditions []string
	var args []interface{}
	add := func(clause string, value interface{}) {
		conditions = append(conditions, clause)
		args = append(args, value)
	}

	if filter.PeriodID != "" {
		add("g.period_id = ?", filter.PeriodID)
	}
	if filter.CalendarID != "" {
		add("s.calendar_id = ?", filter.CalendarID)
	}
	if filter.TeacherID != "" {
		add("s.teacher_id = ?", filter.TeacherID)
	}
	if filter.GroupID != "" {
		add("s.group_id = ?", filter.GroupID)
	}
	if filter.RoomID != "" {
		add("s.room_id = ?", filter.RoomID)
	}
	if filter.DayOfWeek > 0 {
		add("s.day_of_week = ?", filter.DayOfWeek)
	}
	if len(filter.IDs) > 0 {
		add("s.id IN (?)", filter.IDs)
	}
	if !filter.IncludeCancelled {
		add("s.status <> ?", models.SessionStatusCancelled)
	}

	query := sessionDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.day_of_week ASC, b.block_order ASC, s.id ASC"

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build session query: %w", err)
	}
	target := r.exec(exec)
	var sessions []models.SessionDetail
	if err := sqlx.SelectContext(ctx, target, &sessions, target.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// FindByID fetches a joined session row.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	var session models.SessionDetail
	if err := r.db.GetContext(ctx, &session, sessionDetailSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &session, nil
}

// LockByID fetches a session and holds a row lock on it until the transaction ends.
func (r *SessionRepository) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.SessionDetail, error) {
	var session models.SessionDetail
	if err := tx.GetContext(ctx, &session, sessionDetailSelect+" WHERE s.id = $1 FOR UPDATE OF s", id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusProposed
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO sessions (id, group_id, calendar_id, kind, day_of_week, start_block_id, block_count, room_id, teacher_id, substitute_teacher_id, status, notes, created_at, updated_at)
VALUES (:id, :group_id, :calendar_id, :kind, :day_of_week, :start_block_id, :block_count, :room_id, :teacher_id, :substitute_teacher_id, :status, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update writes every mutable column of a session.
func (r *SessionRepository) Update(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET kind = :kind, day_of_week = :day_of_week, start_block_id = :start_block_id, block_count = :block_count,
room_id = :room_id, teacher_id = :teacher_id, substitute_teacher_id = :substitute_teacher_id, status = :status, notes = :notes, updated_at = :updated_at
WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// UpdateRoom sets the room of a session.
func (r *SessionRepository) UpdateRoom(ctx context.Context, exec sqlx.ExtContext, id string, roomID *string) error {
	const query = `UPDATE sessions SET room_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, id, roomID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update session room: %w", err)
	}
	return nil
}

// ExistingIDs returns the subset of ids that exist.
func (r *SessionRepository) ExistingIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT id FROM sessions WHERE id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build session lookup: %w", err)
	}
	target := r.exec(exec)
	var found []string
	if err := sqlx.SelectContext(ctx, target, &found, target.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find session ids: %w", err)
	}
	return found, nil
}

// DeleteByIDs removes sessions in one statement and returns the affected count.
func (r *SessionRepository) DeleteByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM sessions WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("build session delete: %w", err)
	}
	target := r.exec(exec)
	res, err := target.ExecContext(ctx, target.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete sessions rows: %w", err)
	}
	return affected, nil
}
