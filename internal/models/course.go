package models

// Course defines the weekly hour demand of a subject.
type Course struct {
	ID                   string  `db:"id" json:"id"`
	Code                 string  `db:"code" json:"code"`
	Name                 string  `db:"name" json:"name"`
	TheoryHoursPerWeek   int     `db:"theory_hours_per_week" json:"theory_hours_per_week"`
	PracticeHoursPerWeek int     `db:"practice_hours_per_week" json:"practice_hours_per_week"`
	TheoryRoomTypeID     *string `db:"theory_room_type_id" json:"theory_room_type_id,omitempty"`
	PracticeRoomTypeID   *string `db:"practice_room_type_id" json:"practice_room_type_id,omitempty"`
}

// RoomTypeFor returns the room type required by a session kind.
func (c Course) RoomTypeFor(kind SessionKind) *string {
	if kind == SessionKindTheory {
		return c.TheoryRoomTypeID
	}
	return c.PracticeRoomTypeID
}
