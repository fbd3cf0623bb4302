package models

// DefaultBlockMinutes is the academic block length used when a calendar does not set one.
const DefaultBlockMinutes = 45

// Calendar is the block grid of one period.
type Calendar struct {
	ID               string `db:"id" json:"id"`
	PeriodID         string `db:"period_id" json:"period_id"`
	Name             string `db:"name" json:"name"`
	BlockDurationMin int    `db:"block_duration_min" json:"block_duration_min"`
}

// BlockMinutes returns the configured block duration or the default.
func (c Calendar) BlockMinutes() int {
	if c.BlockDurationMin <= 0 {
		return DefaultBlockMinutes
	}
	return c.BlockDurationMin
}

// Block is one column of a calendar grid.
type Block struct {
	ID          string `db:"id" json:"id"`
	CalendarID  string `db:"calendar_id" json:"calendar_id"`
	Order       int    `db:"block_order" json:"order"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
	DurationMin int    `db:"duration_min" json:"duration_min"`
}

// Weekdays.
const (
	Monday    = 1
	Tuesday   = 2
	Wednesday = 3
	Thursday  = 4
	Friday    = 5
	Saturday  = 6
	Sunday    = 7
)

// SchoolDays lists the days the placement planner and grid iterate over.
var SchoolDays = []int{Monday, Tuesday, Wednesday, Thursday, Friday}

var dayNames = map[int]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// DayName returns a human readable day label.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return "Day"
}
