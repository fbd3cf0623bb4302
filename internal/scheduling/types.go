package scheduling

import (
	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// SessionSlot is the flat record every engine component works on. It is
// populated once from persisted rows so the algorithms never branch on
// input shape. Empty TeacherID/RoomID mean "not set".
type SessionSlot struct {
	ID           string
	GroupID      string
	CalendarID   string
	Kind         models.SessionKind
	Day          int
	StartBlockID string
	StartOrder   int
	Blocks       int
	TeacherID    string
	RoomID       string
	Cancelled    bool
}

// Overlaps reports whether two slots share a day and a block range.
func (s SessionSlot) Overlaps(other SessionSlot) bool {
	return s.Day == other.Day && Overlaps(s.StartOrder, s.Blocks, other.StartOrder, other.Blocks)
}

// SlotFromSession converts a joined session row into an engine slot.
func SlotFromSession(d models.SessionDetail) SessionSlot {
	return SessionSlot{
		ID:           d.ID,
		GroupID:      d.GroupID,
		CalendarID:   d.CalendarID,
		Kind:         d.Kind,
		Day:          d.DayOfWeek,
		StartBlockID: d.StartBlockID,
		StartOrder:   d.StartOrder,
		Blocks:       d.BlockCount,
		TeacherID:    deref(d.TeacherID),
		RoomID:       deref(d.RoomID),
		Cancelled:    d.Cancelled(),
	}
}

// SlotsFromSessions converts a batch of rows.
func SlotsFromSessions(rows []models.SessionDetail) []SessionSlot {
	out := make([]SessionSlot, len(rows))
	for i, row := range rows {
		out[i] = SlotFromSession(row)
	}
	return out
}

// Window is one contiguous free range of a teacher on a day.
type Window struct {
	TeacherID    string
	CalendarID   string
	Day          int
	StartBlockID string
	StartOrder   int
	Blocks       int
}

// WindowsFromAvailability converts availability rows into windows.
func WindowsFromAvailability(rows []models.TeacherAvailability) []Window {
	out := make([]Window, len(rows))
	for i, row := range rows {
		out[i] = Window{
			TeacherID:    row.TeacherID,
			CalendarID:   row.CalendarID,
			Day:          row.DayOfWeek,
			StartBlockID: row.StartBlockID,
			StartOrder:   row.StartOrder,
			Blocks:       row.BlockCount,
		}
	}
	return out
}

// TeacherProfile carries the teacher attributes scoring needs.
type TeacherProfile struct {
	ID        string
	FullName  string
	Specialty string
	MaxLoad   int
}

// ProfileFromTeacher converts a teacher row. A missing specialty is the
// empty string, which never matches.
func ProfileFromTeacher(t models.Teacher) TeacherProfile {
	return TeacherProfile{
		ID:        t.ID,
		FullName:  t.FullName,
		Specialty: deref(t.Specialty),
		MaxLoad:   t.MaxWeeklyLoad,
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
