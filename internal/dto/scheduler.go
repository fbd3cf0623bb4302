package dto

import (
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
)

// TeacherProposalRequest asks the optimizer for teacher suggestions.
type TeacherProposalRequest struct {
	PeriodID        string `json:"periodId" validate:"required"`
	CalendarID      string `json:"calendarId" validate:"required"`
	CourseID        string `json:"courseId"`
	ShiftID         string `json:"shiftId"`
	Persist         bool   `json:"persist"`
	PreferSpecialty *bool  `json:"preferSpecialty"`
}

// PrefersSpecialty defaults to true when the flag is omitted.
func (r TeacherProposalRequest) PrefersSpecialty() bool {
	return r.PreferSpecialty == nil || *r.PreferSpecialty
}

// TeacherSuggestion is the optimizer outcome for one group.
type TeacherSuggestion struct {
	GroupID          string                `json:"groupId"`
	GroupLabel       string                `json:"groupLabel"`
	CurrentTeacherID *string               `json:"currentTeacherId,omitempty"`
	Suggested        *scheduling.Candidate `json:"suggested"`
	Reason           string                `json:"reason"`
	Status           string                `json:"status"`
}

// OptimizerStats summarises one branch-and-bound run.
type OptimizerStats struct {
	Groups        int     `json:"groups"`
	Teachers      int     `json:"teachers"`
	NodesExplored int     `json:"nodesExplored"`
	Pruned        int     `json:"pruned"`
	Score         float64 `json:"score"`
}

// TeacherProposalResponse lists suggestions in input order.
type TeacherProposalResponse struct {
	Persisted   bool                `json:"persisted"`
	Suggestions []TeacherSuggestion `json:"suggestions"`
	Stats       OptimizerStats      `json:"stats"`
}

// SessionProposalRequest asks the planner to place sessions for groups.
type SessionProposalRequest struct {
	PeriodID            string `json:"periodId" validate:"required"`
	CalendarID          string `json:"calendarId" validate:"required"`
	CourseID            string `json:"courseId"`
	ShiftID             string `json:"shiftId"`
	ReuseGroupTeacher   *bool  `json:"reuseGroupTeacher"`
	Persist             bool   `json:"persist"`
	MaxBlocksPerSession int    `json:"maxBlocksPerSession" validate:"omitempty,min=1,max=8"`
}

// ReusesGroupTeacher defaults to true when the flag is omitted.
func (r SessionProposalRequest) ReusesGroupTeacher() bool {
	return r.ReuseGroupTeacher == nil || *r.ReuseGroupTeacher
}

// SessionProposalResponse returns the placement preview.
type SessionProposalResponse struct {
	CreatedCount int                    `json:"createdCount"`
	Preview      []scheduling.Draft     `json:"preview"`
	Omitted      []string               `json:"omitted"`
	Shortfalls   []scheduling.Shortfall `json:"shortfalls"`
}

// DetectConflictsRequest scans a period, optionally one calendar.
type DetectConflictsRequest struct {
	PeriodID   string `json:"periodId" validate:"required"`
	CalendarID string `json:"calendarId"`
	Persist    bool   `json:"persist"`
}

// DetectedConflict is a conflict tuple with its record id when persisted.
type DetectedConflict struct {
	ID       *string             `json:"id"`
	Kind     models.ConflictKind `json:"kind"`
	SessionA string              `json:"sessionA"`
	SessionB string              `json:"sessionB"`
}

// DetectConflictsResponse wraps detected conflicts.
type DetectConflictsResponse struct {
	Persisted bool               `json:"persisted"`
	Conflicts []DetectedConflict `json:"conflicts"`
}

// ConflictQuery filters persisted conflict records.
type ConflictQuery struct {
	Kind     string `form:"kind" validate:"omitempty,oneof=TEACHER ROOM GROUP"`
	Resolved *bool  `form:"resolved"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// ResolveConflictRequest closes a conflict record.
type ResolveConflictRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// AssignRoomsRequest asks for rooms for the sessions of a calendar.
type AssignRoomsRequest struct {
	PeriodID            string   `json:"periodId" validate:"required"`
	CalendarID          string   `json:"calendarId" validate:"required"`
	SessionIDs          []string `json:"sessionIds" validate:"omitempty,dive,required"`
	PreferredBuildingID string   `json:"preferredBuildingId"`
	Force               bool     `json:"force"`
}

// AssignRoomsResponse lists one decision per considered session.
type AssignRoomsResponse struct {
	Assigned  int                       `json:"assigned"`
	Decisions []scheduling.RoomDecision `json:"decisions"`
}

// MoveSessionRequest is a drag-and-drop move of one session.
type MoveSessionRequest struct {
	SessionID    string `json:"sessionId" validate:"required"`
	DayOfWeek    int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartBlockID string `json:"startBlockId" validate:"required"`
	BlockCount   int    `json:"blockCount" validate:"required,min=1,max=12"`
	DryRun       bool   `json:"dryRun"`
	Reason       string `json:"reason" validate:"max=500"`
}

// MoveSessionResponse reports the move outcome.
type MoveSessionResponse struct {
	Applied   bool                      `json:"applied"`
	Session   *models.SessionDetail     `json:"session"`
	Conflicts []models.ScheduleConflict `json:"conflicts"`
}

// SessionInput describes a session to create.
type SessionInput struct {
	GroupID      string             `json:"groupId" validate:"required"`
	CalendarID   string             `json:"calendarId" validate:"required"`
	Kind         models.SessionKind `json:"kind" validate:"required,oneof=T P"`
	DayOfWeek    int                `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartBlockID string             `json:"startBlockId" validate:"required"`
	BlockCount   int                `json:"blockCount" validate:"required,min=1,max=12"`
	TeacherID    *string            `json:"teacherId"`
	RoomID       *string            `json:"roomId"`
	Notes        *string            `json:"notes"`
}

// BulkCreateSessionsRequest creates many sessions in one transaction.
type BulkCreateSessionsRequest struct {
	Items []SessionInput `json:"items" validate:"required,min=1,max=500"`
}

// SessionUpdate patches one session. Set keys mirror SessionPatch fields.
type SessionUpdate struct {
	ID  string         `json:"id" validate:"required"`
	Set map[string]any `json:"set" validate:"required,min=1"`
}

// SessionPatch is the typed form of SessionUpdate.Set.
type SessionPatch struct {
	DayOfWeek           *int                  `mapstructure:"dayOfWeek" validate:"omitempty,min=1,max=7"`
	StartBlockID        *string               `mapstructure:"startBlockId"`
	BlockCount          *int                  `mapstructure:"blockCount" validate:"omitempty,min=1,max=12"`
	RoomID              *string               `mapstructure:"roomId"`
	TeacherID           *string               `mapstructure:"teacherId"`
	SubstituteTeacherID *string               `mapstructure:"substituteTeacherId"`
	Status              *models.SessionStatus `mapstructure:"status" validate:"omitempty,oneof=PROPOSED CONFIRMED CANCELLED"`
	Notes               *string               `mapstructure:"notes"`
}

// TouchesSchedule reports whether the patch changes placement or ownership.
func (p SessionPatch) TouchesSchedule() bool {
	return p.DayOfWeek != nil || p.StartBlockID != nil || p.BlockCount != nil ||
		p.RoomID != nil || p.TeacherID != nil || p.Status != nil
}

// BulkUpdateSessionsRequest patches many sessions in one transaction.
type BulkUpdateSessionsRequest struct {
	Updates []SessionUpdate `json:"updates" validate:"required,min=1,max=500,dive"`
}

// BulkDeleteSessionsRequest removes sessions by id.
type BulkDeleteSessionsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000,dive,required"`
}

// BulkItemResult is the outcome of one bulk item.
type BulkItemResult struct {
	Index     int                       `json:"index"`
	ID        string                    `json:"id,omitempty"`
	Status    string                    `json:"status"`
	Error     string                    `json:"error,omitempty"`
	Conflicts []models.ScheduleConflict `json:"conflicts,omitempty"`
}

// BulkResult summarises a bulk create or update.
type BulkResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

// BulkDeleteResult lists deleted and unknown ids.
type BulkDeleteResult struct {
	Deleted  int64    `json:"deleted"`
	Found    []string `json:"found"`
	NotFound []string `json:"notFound"`
}

// TeacherLoadQuery selects the calendar to measure.
type TeacherLoadQuery struct {
	PeriodID   string `form:"periodId" validate:"required"`
	CalendarID string `form:"calendarId" validate:"required"`
}

// Teacher load statuses.
const (
	LoadStatusLow    = "LOW"
	LoadStatusOK     = "OK"
	LoadStatusExcess = "EXCESS"
)

// TeacherLoad reports the scheduled load of a teacher.
type TeacherLoad struct {
	TeacherID       string  `json:"teacherId"`
	FullName        string  `json:"fullName"`
	Sessions        int     `json:"sessions"`
	ScheduledBlocks int     `json:"scheduledBlocks"`
	HoursEquivalent float64 `json:"hoursEquivalent"`
	MinWeeklyLoad   int     `json:"minWeeklyLoad"`
	MaxWeeklyLoad   int     `json:"maxWeeklyLoad"`
	Status          string  `json:"status"`
}

// WeeklyGridRequest selects the sessions drawn on a weekly grid.
type WeeklyGridRequest struct {
	PeriodID   string `json:"periodId" validate:"required"`
	CalendarID string `json:"calendarId" validate:"required"`
	TeacherID  string `json:"teacherId"`
	GroupID    string `json:"groupId"`
	RoomID     string `json:"roomId"`
	BlockMin   int    `json:"blockMin" validate:"omitempty,min=1"`
	BlockMax   int    `json:"blockMax" validate:"omitempty,min=1,gtefield=BlockMin"`
}

// GridBlock is one row of the weekly grid.
type GridBlock struct {
	ID        string `json:"id"`
	Order     int    `json:"order"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// GridDay is one column of the weekly grid.
type GridDay struct {
	Day  int    `json:"day"`
	Name string `json:"name"`
}

// GridCell places one session on the grid.
type GridCell struct {
	SessionID  string             `json:"sessionId"`
	GroupID    string             `json:"groupId"`
	Label      string             `json:"label"`
	CourseName string             `json:"courseName"`
	Kind       models.SessionKind `json:"kind"`
	Day        int                `json:"day"`
	StartOrder int                `json:"startOrder"`
	BlockCount int                `json:"blockCount"`
	TeacherID  *string            `json:"teacherId,omitempty"`
	RoomID     *string            `json:"roomId,omitempty"`
	Color      string             `json:"color"`
}

// WeeklyGridResponse is the Monday to Friday grid.
type WeeklyGridResponse struct {
	Days   []GridDay   `json:"days"`
	Blocks []GridBlock `json:"blocks"`
	Cells  []GridCell  `json:"cells"`
}

// SubstituteRequest sets or clears a session substitute.
type SubstituteRequest struct {
	SubstituteTeacherID *string `json:"substituteTeacherId"`
	Reason              string  `json:"reason" validate:"max=500"`
}
