package scheduling

import (
	"sort"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// Cell is one (day, block) coordinate of a weekly calendar grid.
type Cell struct {
	Day     int
	BlockID string
}

// Overlaps reports whether two block ranges collide. Ranges are closed
// integer intervals [start, start+dur-1] measured in block orders.
func Overlaps(startA, durA, startB, durB int) bool {
	endA := startA + durA - 1
	endB := startB + durB - 1
	return !(endA < startB || endB < startA)
}

// Grid is the ordered block sequence of one calendar.
type Grid struct {
	calendarID string
	ids        []string
	orders     []int
	index      map[string]int
}

// NewGrid indexes blocks by ascending order. Blocks from other calendars are ignored.
func NewGrid(calendarID string, blocks []models.Block) *Grid {
	sorted := make([]models.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.CalendarID != "" && b.CalendarID != calendarID {
			continue
		}
		sorted = append(sorted, b)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	g := &Grid{
		calendarID: calendarID,
		ids:        make([]string, len(sorted)),
		orders:     make([]int, len(sorted)),
		index:      make(map[string]int, len(sorted)),
	}
	for i, b := range sorted {
		g.ids[i] = b.ID
		g.orders[i] = b.Order
		g.index[b.ID] = i
	}
	return g
}

// CalendarID returns the calendar the grid was built for.
func (g *Grid) CalendarID() string { return g.calendarID }

// Len returns the number of blocks in the grid.
func (g *Grid) Len() int { return len(g.ids) }

// BlockAt returns the block id at index i.
func (g *Grid) BlockAt(i int) (string, bool) {
	if i < 0 || i >= len(g.ids) {
		return "", false
	}
	return g.ids[i], true
}

// IndexOf is the inverse lookup of BlockAt.
func (g *Grid) IndexOf(blockID string) (int, bool) {
	idx, ok := g.index[blockID]
	return idx, ok
}

// OrderOf returns the stored order of a block, or 0 when unknown.
func (g *Grid) OrderOf(blockID string) int {
	idx, ok := g.index[blockID]
	if !ok {
		return 0
	}
	return g.orders[idx]
}

// BlockByOrder resolves a block id from its order value.
func (g *Grid) BlockByOrder(order int) (string, bool) {
	idx := sort.SearchInts(g.orders, order)
	if idx < len(g.orders) && g.orders[idx] == order {
		return g.ids[idx], true
	}
	return "", false
}

// Expand returns the consecutive block ids covered by (start, count),
// truncated at the end of the grid. Unknown starts expand to nothing.
func (g *Grid) Expand(startID string, count int) []string {
	start, ok := g.index[startID]
	if !ok || count <= 0 {
		return nil
	}
	end := start + count
	if end > len(g.ids) {
		end = len(g.ids)
	}
	out := make([]string, end-start)
	copy(out, g.ids[start:end])
	return out
}

// Cells expands a range into grid cells for the given day.
func (g *Grid) Cells(day int, startID string, count int) []Cell {
	ids := g.Expand(startID, count)
	cells := make([]Cell, len(ids))
	for i, id := range ids {
		cells[i] = Cell{Day: day, BlockID: id}
	}
	return cells
}

// GridSet keeps the grids loaded during one engine invocation.
type GridSet struct {
	grids map[string]*Grid
}

// NewGridSet builds an empty set.
func NewGridSet() *GridSet {
	return &GridSet{grids: make(map[string]*Grid)}
}

// Put registers a grid.
func (s *GridSet) Put(g *Grid) {
	if g == nil {
		return
	}
	s.grids[g.calendarID] = g
}

// Get returns the grid of a calendar.
func (s *GridSet) Get(calendarID string) (*Grid, bool) {
	g, ok := s.grids[calendarID]
	return g, ok
}
