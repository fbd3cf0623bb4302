package models

import "time"

// ConflictKind is the axis on which two sessions collide.
type ConflictKind string

const (
	ConflictKindTeacher ConflictKind = "TEACHER"
	ConflictKindRoom    ConflictKind = "ROOM"
	ConflictKindGroup   ConflictKind = "GROUP"
)

// ConflictRecord is a persisted pairwise collision.
type ConflictRecord struct {
	ID         string       `db:"id" json:"id"`
	Kind       ConflictKind `db:"kind" json:"kind"`
	SessionAID string       `db:"session_a_id" json:"session_a_id"`
	SessionBID string       `db:"session_b_id" json:"session_b_id"`
	Resolved   bool         `db:"resolved" json:"resolved"`
	Note       string       `db:"note" json:"note"`
	DetectedAt time.Time    `db:"detected_at" json:"detected_at"`
}

// ConflictFilter narrows conflict listings.
type ConflictFilter struct {
	Kind     string
	Resolved *bool
	Page     int
	PageSize int
}
