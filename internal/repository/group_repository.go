package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const groupDetailSelect = `SELECT g.id, g.course_id, g.period_id, g.shift_id, g.teacher_id, g.code, g.capacity, g.status,
c.code AS course_code, c.name AS course_name, c.theory_hours_per_week, c.practice_hours_per_week,
c.theory_room_type_id, c.practice_room_type_id
FROM groups g JOIN courses c ON c.id = g.course_id`

// GroupRepository reads course groups and writes teacher links.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns the groups of a period, optionally narrowed by course and shift.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, error) {
	conditions := []string{"g.period_id = $1"}
	args := []interface{}{filter.PeriodID}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("g.course_id = $%d", len(args)))
	}
	if filter.ShiftID != "" {
		args = append(args, filter.ShiftID)
		conditions = append(conditions, fmt.Sprintf("g.shift_id = $%d", len(args)))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY c.code ASC, g.code ASC, g.id ASC", groupDetailSelect, strings.Join(conditions, " AND "))
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByIDs fetches several groups at once.
func (r *GroupRepository) FindByIDs(ctx context.Context, ids []string) ([]models.GroupDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(groupDetailSelect+" WHERE g.id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build group lookup: %w", err)
	}
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find groups: %w", err)
	}
	return groups, nil
}

// UpdateTeacher links a teacher to a group.
func (r *GroupRepository) UpdateTeacher(ctx context.Context, exec sqlx.ExtContext, groupID, teacherID string) error {
	target := exec
	if target == nil {
		target = r.db
	}
	const query = `UPDATE groups SET teacher_id = $2 WHERE id = $1`
	if _, err := target.ExecContext(ctx, query, groupID, teacherID); err != nil {
		return fmt.Errorf("update group teacher: %w", err)
	}
	return nil
}

// ListStudentUserIDs returns the users enrolled in a group.
func (r *GroupRepository) ListStudentUserIDs(ctx context.Context, groupID string) ([]string, error) {
	const query = `SELECT s.user_id FROM enrollments e JOIN students s ON s.id = e.student_id
WHERE e.group_id = $1 AND e.status = 'ACTIVE' AND s.user_id IS NOT NULL ORDER BY s.user_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return ids, nil
}
