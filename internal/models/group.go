package models

// GroupStatus tracks the academic lifecycle of a group.
type GroupStatus string

const (
	GroupStatusDraft     GroupStatus = "DRAFT"
	GroupStatusConfirmed GroupStatus = "CONFIRMED"
	GroupStatusClosed    GroupStatus = "CLOSED"
)

// Group is a cohort of a course within a period and shift.
type Group struct {
	ID        string      `db:"id" json:"id"`
	CourseID  string      `db:"course_id" json:"course_id"`
	PeriodID  string      `db:"period_id" json:"period_id"`
	ShiftID   string      `db:"shift_id" json:"shift_id"`
	TeacherID *string     `db:"teacher_id" json:"teacher_id,omitempty"`
	Code      *string     `db:"code" json:"code,omitempty"`
	Capacity  int         `db:"capacity" json:"capacity"`
	Status    GroupStatus `db:"status" json:"status"`
}

// GroupDetail joins the course fields the engine needs.
type GroupDetail struct {
	Group
	CourseCode           string  `db:"course_code" json:"course_code"`
	CourseName           string  `db:"course_name" json:"course_name"`
	TheoryHoursPerWeek   int     `db:"theory_hours_per_week" json:"theory_hours_per_week"`
	PracticeHoursPerWeek int     `db:"practice_hours_per_week" json:"practice_hours_per_week"`
	TheoryRoomTypeID     *string `db:"theory_room_type_id" json:"theory_room_type_id,omitempty"`
	PracticeRoomTypeID   *string `db:"practice_room_type_id" json:"practice_room_type_id,omitempty"`
}

// Label renders a short identifier such as "MAT101-A1".
func (g GroupDetail) Label() string {
	if g.Code != nil && *g.Code != "" {
		return g.CourseCode + "-" + *g.Code
	}
	return g.CourseCode + "-" + g.ID
}

// Course projects the joined course columns.
func (g GroupDetail) Course() Course {
	return Course{
		ID:                   g.CourseID,
		Code:                 g.CourseCode,
		Name:                 g.CourseName,
		TheoryHoursPerWeek:   g.TheoryHoursPerWeek,
		PracticeHoursPerWeek: g.PracticeHoursPerWeek,
		TheoryRoomTypeID:     g.TheoryRoomTypeID,
		PracticeRoomTypeID:   g.PracticeRoomTypeID,
	}
}

// GroupFilter narrows the groups considered by a planning run.
type GroupFilter struct {
	PeriodID string
	CourseID string
	ShiftID  string
}
