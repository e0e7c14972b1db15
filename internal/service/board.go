package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"todo-board/internal/model"
)

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterCompleted StatusFilter = "completed"
	FilterPending   StatusFilter = "pending"
)

// ParseStatusFilter accepts "all", "completed" or "pending" in any case.
// An empty string means all.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterPending:
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", raw)
	}
}

// Match reports whether t passes the filter. Unknown filters match nothing.
func (f StatusFilter) Match(t model.Task) bool {
	switch f {
	case FilterAll:
		return true
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	default:
		return false
	}
}

// Board is a filtered view split into display columns. A task lands in the
// column given by its own completion flag.
type Board struct {
	Pending   []model.Task
	Completed []model.Task
}

func NewBoard(tasks []model.Task) Board {
	var b Board
	for _, t := range tasks {
		if t.Completed {
			b.Completed = append(b.Completed, t)
		} else {
			b.Pending = append(b.Pending, t)
		}
	}
	return b
}

// Empty reports whether both columns are empty.
func (b Board) Empty() bool {
	return len(b.Pending) == 0 && len(b.Completed) == 0
}

// Column ids used as drop targets.
const (
	ColumnPending   = "pendingTasks"
	ColumnCompleted = "completedTasks"
)

// TargetCompleted maps a drop column id to the completion flag it sets.
func TargetCompleted(columnID string) bool {
	return columnID == ColumnCompleted
}

// ParseDragPayload reads the task id carried by a drag payload.
func ParseDragPayload(payload string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse drag payload %q: %w", payload, err)
	}
	return id, nil
}

// DragPayload encodes a task id for a drag gesture.
func DragPayload(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ValidateDate checks a user supplied YYYY-MM-DD date. Empty means no date.
// Dates before today (in today's location) are rejected.
func ValidateDate(raw string, today time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	d, err := time.ParseInLocation(model.DateLayout, raw, today.Location())
	if err != nil {
		return "", fmt.Errorf("date must look like %s", model.DateLayout)
	}
	y, m, day := today.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, today.Location())
	if d.Before(start) {
		return "", fmt.Errorf("date %s is in the past", raw)
	}
	return d.Format(model.DateLayout), nil
}
