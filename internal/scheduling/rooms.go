package scheduling

import (
	"sort"

	"github.com/samber/lo"
)

// Status vocabulary shared by engine results.
const (
	StatusAssigned     = "assigned"
	StatusNoCandidates = "no_candidates"
	StatusSkipped      = "skipped"
	StatusConflict     = "conflict"
	StatusOK           = "ok"
	StatusError        = "error"
)

// RoomOption is a room considered for assignment.
type RoomOption struct {
	ID         string
	Code       string
	BuildingID string
	RoomTypeID string
	Capacity   int
}

// RoomRequest asks for a room for one session.
type RoomRequest struct {
	Session    SessionSlot
	RoomTypeID string
	Capacity   int
	Force      bool
}

// RoomDecision reports the outcome for one session.
type RoomDecision struct {
	SessionID string  `json:"session_id"`
	OldRoomID *string `json:"old_room_id"`
	NewRoomID *string `json:"new_room_id"`
	Status    string  `json:"status"`
}

// RankRooms keeps rooms of the required type that seat capacity, ordered
// preferred building first and then by ascending capacity. A session whose
// course declares no room type has no candidates.
func RankRooms(rooms []RoomOption, roomTypeID string, capacity int, preferredBuilding string) []RoomOption {
	if roomTypeID == "" {
		return nil
	}
	ranked := lo.Filter(rooms, func(r RoomOption, _ int) bool {
		return r.RoomTypeID == roomTypeID && r.Capacity >= capacity
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		if preferredBuilding != "" {
			pi, pj := ranked[i].BuildingID == preferredBuilding, ranked[j].BuildingID == preferredBuilding
			if pi != pj {
				return pi
			}
		}
		if ranked[i].Capacity != ranked[j].Capacity {
			return ranked[i].Capacity < ranked[j].Capacity
		}
		return ranked[i].Code < ranked[j].Code
	})
	return ranked
}

// RoomAssigner tracks room bookings while rooms are handed out in a run.
type RoomAssigner struct {
	bookings map[string][]SessionSlot
}

// NewRoomAssigner indexes the existing non-cancelled bookings.
func NewRoomAssigner(existing []SessionSlot) *RoomAssigner {
	booked := lo.Filter(existing, func(s SessionSlot, _ int) bool {
		return !s.Cancelled && s.RoomID != ""
	})
	return &RoomAssigner{bookings: lo.GroupBy(booked, func(s SessionSlot) string { return s.RoomID })}
}

// Assign picks the first ranked room free on the session's day and calendar.
// A session that already has a room is skipped unless forced.
func (a *RoomAssigner) Assign(req RoomRequest, ranked []RoomOption) RoomDecision {
	s := req.Session
	decision := RoomDecision{SessionID: s.ID}
	if s.RoomID != "" {
		old := s.RoomID
		decision.OldRoomID = &old
		if !req.Force {
			decision.NewRoomID = &old
			decision.Status = StatusSkipped
			return decision
		}
	}

	for _, room := range ranked {
		if a.busy(room.ID, s) {
			continue
		}
		a.book(room.ID, s)
		id := room.ID
		decision.NewRoomID = &id
		decision.Status = StatusAssigned
		return decision
	}

	decision.Status = StatusNoCandidates
	return decision
}

func (a *RoomAssigner) busy(roomID string, s SessionSlot) bool {
	for _, b := range a.bookings[roomID] {
		if b.ID == s.ID || b.Day != s.Day || b.CalendarID != s.CalendarID {
			continue
		}
		if Overlaps(s.StartOrder, s.Blocks, b.StartOrder, b.Blocks) {
			return true
		}
	}
	return false
}

func (a *RoomAssigner) book(roomID string, s SessionSlot) {
	if s.RoomID != "" {
		a.bookings[s.RoomID] = lo.Reject(a.bookings[s.RoomID], func(b SessionSlot, _ int) bool { return b.ID == s.ID })
	}
	s.RoomID = roomID
	a.bookings[roomID] = append(a.bookings[roomID], s)
}
