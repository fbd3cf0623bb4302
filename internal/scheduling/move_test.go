package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

func TestValidateMoveRejectsTeacherOverlap(t *testing.T) {
	a := slot("A", "g1", "X", "", models.Monday, 1, 2)
	b := slot("B", "g2", "X", "", models.Tuesday, 1, 2)

	conflicts := ValidateMove(b, MoveProposal{Day: models.Monday, StartBlockID: blockID(2), StartOrder: 2, Blocks: 2}, []SessionSlot{a, b})

	require.Len(t, conflicts, 1)
	assert.Equal(t, DimensionTeacher, conflicts[0].Dimension)
	assert.Equal(t, "A", conflicts[0].SessionID)
}

func TestValidateMoveReportsEveryAxis(t *testing.T) {
	target := slot("T", "g1", "t1", "r1", models.Friday, 1, 1)
	others := []SessionSlot{
		target,
		slot("G", "g1", "t2", "r2", models.Wednesday, 3, 1),
		slot("P", "g2", "t1", "r3", models.Wednesday, 4, 1),
		slot("R", "g3", "t3", "r1", models.Wednesday, 2, 1),
		slot("F", "g1", "t1", "r1", models.Wednesday, 6, 1),
	}

	conflicts := ValidateMove(target, MoveProposal{Day: models.Wednesday, StartBlockID: blockID(2), StartOrder: 2, Blocks: 3}, others)

	require.Len(t, conflicts, 3)
	assert.Equal(t, []string{DimensionGroup, DimensionTeacher, DimensionRoom},
		[]string{conflicts[0].Dimension, conflicts[1].Dimension, conflicts[2].Dimension})
}

func TestValidateMoveCleanAndIgnoresSelfAndCancelled(t *testing.T) {
	target := slot("T", "g1", "t1", "r1", models.Monday, 1, 2)
	cancelled := slot("C", "g1", "t1", "r1", models.Monday, 3, 2)
	cancelled.Cancelled = true

	conflicts := ValidateMove(target, MoveProposal{Day: models.Monday, StartBlockID: blockID(2), StartOrder: 2, Blocks: 2}, []SessionSlot{target, cancelled})

	assert.Empty(t, conflicts)
}
