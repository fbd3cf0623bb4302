package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID            string    `db:"id" json:"id"`
	UserID        *string   `db:"user_id" json:"user_id,omitempty"`
	FullName      string    `db:"full_name" json:"full_name"`
	Specialty     *string   `db:"specialty" json:"specialty,omitempty"`
	MinWeeklyLoad int       `db:"min_weekly_load" json:"min_weekly_load"`
	MaxWeeklyLoad int       `db:"max_weekly_load" json:"max_weekly_load"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
