package scheduling

import "github.com/noah-isme/campus-timetable-api/internal/models"

// RequiredBlocks converts weekly theory and practice hours into block counts
// for a calendar whose blocks last blockMinutes. Each kind is rounded up
// independently. A non-positive duration falls back to the default block.
func RequiredBlocks(theoryHours, practiceHours, blockMinutes int) (int, int) {
	if blockMinutes <= 0 {
		blockMinutes = models.DefaultBlockMinutes
	}
	return blocksFor(theoryHours, blockMinutes), blocksFor(practiceHours, blockMinutes)
}

func blocksFor(hours, blockMinutes int) int {
	if hours <= 0 {
		return 0
	}
	minutes := hours * 60
	return (minutes + blockMinutes - 1) / blockMinutes
}

// HoursEquivalent expresses a block count as 45-minute academic hours.
func HoursEquivalent(blocks, blockMinutes int) float64 {
	if blockMinutes <= 0 {
		blockMinutes = models.DefaultBlockMinutes
	}
	return float64(blocks*blockMinutes) / float64(models.DefaultBlockMinutes)
}
