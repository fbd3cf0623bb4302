package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// RoomRepository reads bookable rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns all rooms ordered by capacity.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, building_id, room_type_id, code, name, capacity FROM rooms ORDER BY capacity ASC, code ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// LockByIDs holds row locks on the given rooms until tx ends. Rows are locked
// in id order so concurrent runs cannot deadlock on each other.
func (r *RoomRepository) LockByIDs(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("SELECT id FROM rooms WHERE id IN (?) ORDER BY id FOR UPDATE", ids)
	if err != nil {
		return fmt.Errorf("build room lock query: %w", err)
	}
	var locked []string
	if err := tx.SelectContext(ctx, &locked, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("lock rooms: %w", err)
	}
	return nil
}
