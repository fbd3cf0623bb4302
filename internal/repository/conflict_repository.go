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

// ConflictRepository persists detected schedule conflicts.
type ConflictRepository struct {
	db *sqlx.DB
}

// NewConflictRepository constructs a ConflictRepository.
func NewConflictRepository(db *sqlx.DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// CreateBatch inserts conflict records inside the supplied executor.
func (r *ConflictRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, records []models.ConflictRecord) error {
	if len(records) == 0 {
		return nil
	}
	target := exec
	if target == nil {
		target = r.db
	}
	now := time.Now().UTC()
	const query = `INSERT INTO conflicts (id, kind, session_a_id, session_b_id, resolved, note, detected_at)
VALUES (:id, :kind, :session_a_id, :session_b_id, :resolved, :note, :detected_at)`
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.DetectedAt.IsZero() {
			rec.DetectedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, rec); err != nil {
			return fmt.Errorf("create conflict: %w", err)
		}
	}
	return nil
}

// List returns conflicts matching the filter along with the total count.
func (r *ConflictRepository) List(ctx context.Context, filter models.ConflictFilter) ([]models.ConflictRecord, int, error) {
	base := "FROM conflicts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Kind))
	}
	if filter.Resolved != nil {
		conditions = append(conditions, fmt.Sprintf("resolved = $%d", len(args)+1))
		args = append(args, *filter.Resolved)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, kind, session_a_id, session_b_id, resolved, note, detected_at %s ORDER BY detected_at DESC, id ASC LIMIT %d OFFSET %d", base, size, offset)
	var records []models.ConflictRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list conflicts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count conflicts: %w", err)
	}
	return records, total, nil
}

// FindByID fetches a conflict.
func (r *ConflictRepository) FindByID(ctx context.Context, id string) (*models.ConflictRecord, error) {
	const query = `SELECT id, kind, session_a_id, session_b_id, resolved, note, detected_at FROM conflicts WHERE id = $1`
	var record models.ConflictRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Resolve marks a conflict as resolved with an operator note.
func (r *ConflictRepository) Resolve(ctx context.Context, id, note string) error {
	const query = `UPDATE conflicts SET resolved = TRUE, note = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, note); err != nil {
		return fmt.Errorf("resolve conflict: %w", err)
	}
	return nil
}
