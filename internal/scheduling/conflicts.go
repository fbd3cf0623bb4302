package scheduling

import (
	"sort"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// ConflictTuple is one detected collision between two sessions on one axis.
type ConflictTuple struct {
	Kind     models.ConflictKind `json:"kind"`
	SessionA string              `json:"session_a"`
	SessionB string              `json:"session_b"`
}

// DetectConflicts scans every pair of non-cancelled slots sharing a day and
// reports one tuple per matching axis. The scan is quadratic per day, so
// callers should pre-filter by period or calendar.
func DetectConflicts(slots []SessionSlot) []ConflictTuple {
	byDay := make(map[int][]SessionSlot)
	for _, s := range slots {
		if s.Cancelled {
			continue
		}
		byDay[s.Day] = append(byDay[s.Day], s)
	}

	days := make([]int, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Ints(days)

	var out []ConflictTuple
	for _, day := range days {
		bucket := byDay[day]
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				out = append(out, pairConflicts(bucket[i], bucket[j])...)
			}
		}
	}
	return out
}

func pairConflicts(a, b SessionSlot) []ConflictTuple {
	if !Overlaps(a.StartOrder, a.Blocks, b.StartOrder, b.Blocks) {
		return nil
	}
	var out []ConflictTuple
	if a.TeacherID != "" && a.TeacherID == b.TeacherID {
		out = append(out, ConflictTuple{Kind: models.ConflictKindTeacher, SessionA: a.ID, SessionB: b.ID})
	}
	if a.RoomID != "" && a.RoomID == b.RoomID {
		out = append(out, ConflictTuple{Kind: models.ConflictKindRoom, SessionA: a.ID, SessionB: b.ID})
	}
	if a.GroupID == b.GroupID {
		out = append(out, ConflictTuple{Kind: models.ConflictKindGroup, SessionA: a.ID, SessionB: b.ID})
	}
	return out
}
