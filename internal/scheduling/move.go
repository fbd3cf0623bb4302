package scheduling

import "github.com/noah-isme/campus-timetable-api/internal/models"

// Conflict dimensions reported by move validation.
const (
	DimensionGroup   = "group"
	DimensionTeacher = "teacher"
	DimensionRoom    = "room"
)

// MoveProposal is the new placement requested for a session.
type MoveProposal struct {
	Day          int
	StartBlockID string
	StartOrder   int
	Blocks       int
}

// Apply returns the slot as it would look after the move.
func (m MoveProposal) Apply(s SessionSlot) SessionSlot {
	s.Day = m.Day
	s.StartBlockID = m.StartBlockID
	s.StartOrder = m.StartOrder
	s.Blocks = m.Blocks
	return s
}

// ValidateMove checks the moved target against others on the group, teacher
// and room axes. Every collision is returned; an empty result means the
// move is clean. The target itself and cancelled sessions are ignored.
func ValidateMove(target SessionSlot, proposal MoveProposal, others []SessionSlot) []models.ScheduleConflict {
	moved := proposal.Apply(target)

	var groupHits, teacherHits, roomHits []models.ScheduleConflict
	for _, o := range others {
		if o.ID == target.ID || o.Cancelled || !moved.Overlaps(o) {
			continue
		}
		if o.GroupID == moved.GroupID {
			groupHits = append(groupHits, describe(o, DimensionGroup))
		}
		if moved.TeacherID != "" && o.TeacherID == moved.TeacherID {
			teacherHits = append(teacherHits, describe(o, DimensionTeacher))
		}
		if moved.RoomID != "" && o.RoomID == moved.RoomID {
			roomHits = append(roomHits, describe(o, DimensionRoom))
		}
	}

	out := append(groupHits, teacherHits...)
	return append(out, roomHits...)
}

func describe(s SessionSlot, dimension string) models.ScheduleConflict {
	return models.ScheduleConflict{
		SessionID:    s.ID,
		GroupID:      s.GroupID,
		TeacherID:    optional(s.TeacherID),
		RoomID:       optional(s.RoomID),
		DayOfWeek:    s.Day,
		StartBlockID: s.StartBlockID,
		BlockCount:   s.Blocks,
		Dimension:    dimension,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
