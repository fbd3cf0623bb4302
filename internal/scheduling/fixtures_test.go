package scheduling

import (
	"fmt"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const testCalendar = "cal-1"

func testBlocks(calendarID string, n int) []models.Block {
	blocks := make([]models.Block, n)
	for i := range blocks {
		blocks[i] = models.Block{
			ID:          fmt.Sprintf("%s-b%d", calendarID, i+1),
			CalendarID:  calendarID,
			Order:       i + 1,
			DurationMin: 45,
		}
	}
	return blocks
}

func testGrids(calendars ...string) *GridSet {
	set := NewGridSet()
	for _, c := range calendars {
		set.Put(NewGrid(c, testBlocks(c, 8)))
	}
	return set
}

func blockID(order int) string {
	return fmt.Sprintf("%s-b%d", testCalendar, order)
}

func slot(id, group, teacher, room string, day, start, blocks int) SessionSlot {
	return SessionSlot{
		ID:           id,
		GroupID:      group,
		CalendarID:   testCalendar,
		Kind:         models.SessionKindTheory,
		Day:          day,
		StartBlockID: blockID(start),
		StartOrder:   start,
		Blocks:       blocks,
		TeacherID:    teacher,
		RoomID:       room,
	}
}

func window(teacher string, day, start, blocks int) Window {
	return Window{
		TeacherID:    teacher,
		CalendarID:   testCalendar,
		Day:          day,
		StartBlockID: blockID(start),
		StartOrder:   start,
		Blocks:       blocks,
	}
}
