package scheduling

import (
	"sort"

	"github.com/samber/lo"
)

// CellSet is a set of grid cells.
type CellSet map[Cell]struct{}

// NewCellSet builds a set from cells.
func NewCellSet(cells ...Cell) CellSet {
	s := make(CellSet, len(cells))
	s.Add(cells...)
	return s
}

// Add inserts cells into the set.
func (s CellSet) Add(cells ...Cell) {
	for _, c := range cells {
		s[c] = struct{}{}
	}
}

// Has reports membership.
func (s CellSet) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}

// IntersectCount returns |s ∩ other|.
func (s CellSet) IntersectCount(other CellSet) int {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for c := range small {
		if large.Has(c) {
			n++
		}
	}
	return n
}

// Intersects reports whether the sets share at least one cell.
func (s CellSet) Intersects(other CellSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for c := range small {
		if large.Has(c) {
			return true
		}
	}
	return false
}

// TeacherAvailability is the read projection of one teacher for a run.
type TeacherAvailability struct {
	TeacherID string
	Available CellSet
	Occupied  CellSet
	Load      int
}

// AvailabilityIndex answers availability, occupancy and load questions for
// the teachers of one calendar. It is scoped to a single engine run and
// memoises projections only for that run.
type AvailabilityIndex struct {
	grids      *GridSet
	calendarID string
	windows    map[string][]Window
	sessions   map[string][]SessionSlot
	cache      map[string]*TeacherAvailability
	excluding  map[exclusionKey]occupancy
}

type exclusionKey struct{ teacherID, groupID string }

type occupancy struct {
	cells CellSet
	load  int
}

// NewAvailabilityIndex indexes the availability windows of calendarID and
// every session of the period. Sessions may reference other calendars of the
// same period; they are expanded with their own grid from grids.
func NewAvailabilityIndex(grids *GridSet, calendarID string, windows []Window, periodSessions []SessionSlot) *AvailabilityIndex {
	own := lo.Filter(windows, func(w Window, _ int) bool {
		return w.CalendarID == "" || w.CalendarID == calendarID
	})
	byTeacher := lo.GroupBy(own, func(w Window) string { return w.TeacherID })
	for id := range byTeacher {
		list := byTeacher[id]
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Day != list[j].Day {
				return list[i].Day < list[j].Day
			}
			return list[i].StartOrder < list[j].StartOrder
		})
	}

	active := lo.Filter(periodSessions, func(s SessionSlot, _ int) bool {
		return !s.Cancelled && s.TeacherID != ""
	})

	return &AvailabilityIndex{
		grids:      grids,
		calendarID: calendarID,
		windows:    byTeacher,
		sessions:   lo.GroupBy(active, func(s SessionSlot) string { return s.TeacherID }),
		cache:      make(map[string]*TeacherAvailability),
		excluding:  make(map[exclusionKey]occupancy),
	}
}

// CalendarID returns the calendar the index was built for.
func (x *AvailabilityIndex) CalendarID() string { return x.calendarID }

// For returns the projection of a teacher, computing it on first use.
func (x *AvailabilityIndex) For(teacherID string) *TeacherAvailability {
	if cached, ok := x.cache[teacherID]; ok {
		return cached
	}

	ta := &TeacherAvailability{
		TeacherID: teacherID,
		Available: make(CellSet),
		Occupied:  make(CellSet),
	}
	if grid, ok := x.grids.Get(x.calendarID); ok {
		for _, w := range x.windows[teacherID] {
			ta.Available.Add(grid.Cells(w.Day, w.StartBlockID, w.Blocks)...)
		}
	}
	for _, s := range x.sessions[teacherID] {
		ta.Occupied.Add(x.cellsOf(s)...)
		ta.Load += s.Blocks
	}

	x.cache[teacherID] = ta
	return ta
}

// Excluding returns the teacher's occupied cells and block load without the
// sessions of groupID, so a group's current teacher is not blocked by the
// group's own timetable.
func (x *AvailabilityIndex) Excluding(teacherID, groupID string) (CellSet, int) {
	key := exclusionKey{teacherID: teacherID, groupID: groupID}
	if cached, ok := x.excluding[key]; ok {
		return cached.cells, cached.load
	}
	occ := occupancy{cells: make(CellSet)}
	for _, s := range x.sessions[teacherID] {
		if s.GroupID == groupID {
			continue
		}
		occ.cells.Add(x.cellsOf(s)...)
		occ.load += s.Blocks
	}
	x.excluding[key] = occ
	return occ.cells, occ.load
}

// Windows returns a teacher's windows on a day ordered by start block.
func (x *AvailabilityIndex) Windows(teacherID string, day int) []Window {
	return lo.Filter(x.windows[teacherID], func(w Window, _ int) bool { return w.Day == day })
}

// TeacherSessions returns the non-cancelled sessions of a teacher on a day.
func (x *AvailabilityIndex) TeacherSessions(teacherID string, day int) []SessionSlot {
	return lo.Filter(x.sessions[teacherID], func(s SessionSlot, _ int) bool { return s.Day == day })
}

// CellsOf expands the non-cancelled slots into cells of their calendars.
func (x *AvailabilityIndex) CellsOf(slots []SessionSlot) CellSet {
	set := make(CellSet)
	for _, s := range slots {
		if s.Cancelled {
			continue
		}
		set.Add(x.cellsOf(s)...)
	}
	return set
}

func (x *AvailabilityIndex) cellsOf(s SessionSlot) []Cell {
	calendarID := s.CalendarID
	if calendarID == "" {
		calendarID = x.calendarID
	}
	grid, ok := x.grids.Get(calendarID)
	if !ok {
		return nil
	}
	return grid.Cells(s.Day, s.StartBlockID, s.Blocks)
}
