package models

// TeacherAvailability is one contiguous free window of a teacher inside a calendar day.
type TeacherAvailability struct {
	ID           string `db:"id" json:"id"`
	TeacherID    string `db:"teacher_id" json:"teacher_id"`
	CalendarID   string `db:"calendar_id" json:"calendar_id"`
	DayOfWeek    int    `db:"day_of_week" json:"day_of_week"`
	StartBlockID string `db:"start_block_id" json:"start_block_id"`
	StartOrder   int    `db:"start_order" json:"start_order"`
	BlockCount   int    `db:"block_count" json:"block_count"`
	Preference   int    `db:"preference" json:"preference"`
}
