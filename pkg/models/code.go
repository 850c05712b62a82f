package models

import "time"

// DateLayout is the calendar-date key format used for daily codes.
const DateLayout = "2006-01-02"

// DailyCode is the rotating one-time access code for a single identity
// and calendar date. A code is accepted at most once, and only on the
// date it was scoped to.
type DailyCode struct {
	Code     string     `json:"code"`
	Identity string     `json:"identity"`
	Date     string     `json:"date"`
	Used     bool       `json:"used"`
	IssuedAt time.Time  `json:"issued_at"`
	UsedAt   *time.Time `json:"used_at,omitempty"`
	UsedBy   string     `json:"used_by,omitempty"`
}

// ValidFor reports whether the code can still be consumed on the given
// calendar date. Codes from a prior date are never valid regardless of
// use state.
func (c *DailyCode) ValidFor(date string) bool {
	return !c.Used && c.Date == date
}
