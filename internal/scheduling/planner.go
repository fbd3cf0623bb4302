package scheduling

import (
	"fmt"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// DefaultMaxBlocksPerSession caps the length of a placed session.
const DefaultMaxBlocksPerSession = 2

// PlacementRequest asks the planner to place one group's weekly demand.
type PlacementRequest struct {
	GroupID   string
	Label     string
	TeacherID string
	Theory    int
	Practice  int
}

// Draft is a proposed session that has not been persisted.
type Draft struct {
	GroupID      string             `json:"group_id"`
	CalendarID   string             `json:"calendar_id"`
	Kind         models.SessionKind `json:"kind"`
	Day          int                `json:"day_of_week"`
	StartBlockID string             `json:"start_block_id"`
	StartOrder   int                `json:"start_order"`
	Blocks       int                `json:"block_count"`
	TeacherID    string             `json:"teacher_id"`
	RoomID       *string            `json:"room_id"`
}

// Slot converts the draft for overlap checks.
func (d Draft) Slot() SessionSlot {
	return SessionSlot{
		GroupID:      d.GroupID,
		CalendarID:   d.CalendarID,
		Kind:         d.Kind,
		Day:          d.Day,
		StartBlockID: d.StartBlockID,
		StartOrder:   d.StartOrder,
		Blocks:       d.Blocks,
		TeacherID:    d.TeacherID,
	}
}

// Shortfall explains why (part of) a group's demand was not placed.
type Shortfall struct {
	GroupID string             `json:"group_id"`
	Kind    models.SessionKind `json:"kind,omitempty"`
	Missing int                `json:"missing_blocks"`
	Message string             `json:"message"`
}

// Planner greedily packs required blocks into teachers' free windows.
// Drafts emitted by a planner are booked against their teacher, so later
// requests in the same run never overlap them.
type Planner struct {
	idx           *AvailabilityIndex
	maxPerSession int
	booked        map[string][]SessionSlot
}

// NewPlanner builds a planner over an availability index.
func NewPlanner(idx *AvailabilityIndex, maxPerSession int) *Planner {
	if maxPerSession < 1 {
		maxPerSession = 1
	}
	return &Planner{
		idx:           idx,
		maxPerSession: maxPerSession,
		booked:        make(map[string][]SessionSlot),
	}
}

// Place emits drafts for the theory and practice demand of a group. Demand
// that does not fit is reported as a shortfall rather than an error.
func (p *Planner) Place(req PlacementRequest) ([]Draft, []Shortfall) {
	if req.Theory <= 0 && req.Practice <= 0 {
		return nil, []Shortfall{{GroupID: req.GroupID, Message: fmt.Sprintf("Group %s: no required hours", req.Label)}}
	}
	if req.TeacherID == "" {
		return nil, []Shortfall{{GroupID: req.GroupID, Message: fmt.Sprintf("Group %s: no teacher assigned", req.Label)}}
	}

	var (
		drafts    []Draft
		shortfall []Shortfall
	)
	for _, part := range []struct {
		kind     models.SessionKind
		required int
	}{
		{models.SessionKindTheory, req.Theory},
		{models.SessionKindPractice, req.Practice},
	} {
		if part.required <= 0 {
			continue
		}
		placed, pending := p.placeKind(req, part.kind, part.required)
		drafts = append(drafts, placed...)
		if pending > 0 {
			shortfall = append(shortfall, Shortfall{
				GroupID: req.GroupID,
				Kind:    part.kind,
				Missing: pending,
				Message: fmt.Sprintf("Group %s %s: %s of availability", req.Label, part.kind, blocksShort(pending)),
			})
		}
	}
	return drafts, shortfall
}

func (p *Planner) placeKind(req PlacementRequest, kind models.SessionKind, pending int) ([]Draft, int) {
	var drafts []Draft
	for _, day := range models.SchoolDays {
		if pending <= 0 {
			break
		}
		for _, w := range p.idx.Windows(req.TeacherID, day) {
			if pending <= 0 {
				break
			}
			length := min(p.maxPerSession, w.Blocks, pending)
			if length <= 0 || p.teacherBusy(req.TeacherID, day, w.StartOrder, length) {
				continue
			}
			d := Draft{
				GroupID:      req.GroupID,
				CalendarID:   p.idx.CalendarID(),
				Kind:         kind,
				Day:          day,
				StartBlockID: w.StartBlockID,
				StartOrder:   w.StartOrder,
				Blocks:       length,
				TeacherID:    req.TeacherID,
			}
			drafts = append(drafts, d)
			p.booked[req.TeacherID] = append(p.booked[req.TeacherID], d.Slot())
			pending -= length
		}
	}
	return drafts, pending
}

func (p *Planner) teacherBusy(teacherID string, day, start, length int) bool {
	for _, s := range p.idx.TeacherSessions(teacherID, day) {
		if Overlaps(start, length, s.StartOrder, s.Blocks) {
			return true
		}
	}
	for _, s := range p.booked[teacherID] {
		if s.Day == day && Overlaps(start, length, s.StartOrder, s.Blocks) {
			return true
		}
	}
	return false
}

func blocksShort(n int) string {
	if n == 1 {
		return "1 block short"
	}
	return fmt.Sprintf("%d blocks short", n)
}
