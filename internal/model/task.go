package model

import "time"

// DefaultCategory is preselected when a task is created without one.
const DefaultCategory = "personal"

// Task is a single to-do item. Field names are the persisted wire format.
type Task struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Date      string    `json:"date"`
	Category  string    `json:"category"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasDate reports whether the task carries a calendar date.
func (t Task) HasDate() bool {
	return t.Date != ""
}

// DueDate parses Date as YYYY-MM-DD in loc.
func (t Task) DueDate(loc *time.Location) (time.Time, bool) {
	if t.Date == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(DateLayout, t.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// DateLayout is the calendar date format used for Task.Date.
const DateLayout = "2006-01-02"
