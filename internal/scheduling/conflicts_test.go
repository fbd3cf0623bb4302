package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func TestDetectConflictsTeacherAndRoom(t *testing.T) {
	slots := []SessionSlot{
		slot("a", "g1", "t1", "r1", models.Monday, 1, 2),
		slot("b", "g2", "t1", "", models.Monday, 2, 2),
	}
	got := DetectConflicts(slots)
	assert.Equal(t, []ConflictTuple{{Kind: models.ConflictKindTeacher, SessionA: "a", SessionB: "b"}}, got)

	slots[1].RoomID = "r1"
	got = DetectConflicts(slots)
	assert.Equal(t, []ConflictTuple{
		{Kind: models.ConflictKindTeacher, SessionA: "a", SessionB: "b"},
		{Kind: models.ConflictKindRoom, SessionA: "a", SessionB: "b"},
	}, got)
}

func TestDetectConflictsAllAxes(t *testing.T) {
	slots := []SessionSlot{
		slot("a", "g1", "t1", "r1", models.Tuesday, 3, 1),
		slot("b", "g1", "t1", "r1", models.Tuesday, 1, 3),
	}
	assert.Len(t, DetectConflicts(slots), 3)
}

func TestDetectConflictsIgnoresCancelledOtherDaysAndGaps(t *testing.T) {
	cancelled := slot("c", "g1", "t1", "r1", models.Monday, 1, 2)
	cancelled.Cancelled = true
	slots := []SessionSlot{
		slot("a", "g1", "t1", "r1", models.Monday, 1, 2),
		cancelled,
		slot("b", "g1", "t1", "r1", models.Monday, 3, 2),
		slot("d", "g1", "t1", "r1", models.Tuesday, 1, 2),
		slot("e", "g2", "", "", models.Tuesday, 1, 2),
	}
	assert.Empty(t, DetectConflicts(slots))
}

func TestDetectConflictsIsIdempotent(t *testing.T) {
	slots := []SessionSlot{
		slot("a", "g1", "t1", "r1", models.Monday, 1, 2),
		slot("b", "g2", "t1", "r2", models.Monday, 2, 1),
		slot("c", "g2", "t2", "r1", models.Monday, 2, 2),
		slot("d", "g3", "t2", "r3", models.Friday, 4, 1),
	}
	first := DetectConflicts(slots)
	assert.Equal(t, first, DetectConflicts(slots))
	assert.Len(t, first, 3)
}
