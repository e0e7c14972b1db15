package service

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"todo-board/internal/model"
)

const (
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
)

// ReminderService builds human-readable summaries for periodic reports.
type ReminderService struct{}

func NewReminderService() *ReminderService {
	return &ReminderService{}
}

// Summary renders pending tasks, dated ones first by date, followed by the
// number of completed tasks. Output is Telegram HTML.
func (s *ReminderService) Summary(tasks []model.Task, now time.Time) string {
	var pending []model.Task
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
			continue
		}
		pending = append(pending, t)
	}

	loc := now.Location()
	sort.SliceStable(pending, func(i, j int) bool {
		di, iok := pending[i].DueDate(loc)
		dj, jok := pending[j].DueDate(loc)
		switch {
		case iok && jok:
			return di.Before(dj)
		case iok:
			return true
		default:
			return false
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Task report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format(model.DateLayout)))

	builder.WriteString("🔥 <b>Pending</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing pending\n")
	} else {
		for _, t := range pending {
			builder.WriteString(formatReminder(t, now))
		}
	}

	builder.WriteString(fmt.Sprintf("\n✅ Completed: %d", completed))
	return strings.TrimSpace(builder.String())
}

// DueIcon classifies a task date relative to now.
func DueIcon(t model.Task, now time.Time) string {
	d, ok := t.DueDate(now.Location())
	if !ok || t.Completed {
		return iconDefault
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	switch {
	case d.Before(today):
		return iconOverdue
	case d.Sub(today) <= 48*time.Hour:
		return iconDue
	default:
		return iconDefault
	}
}

func formatReminder(t model.Task, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s #%d %s", DueIcon(t, now), t.ID, html.EscapeString(t.Text)))
	if c := strings.TrimSpace(t.Category); c != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(c)))
	}
	if d, ok := t.DueDate(now.Location()); ok {
		if DueIcon(t, now) == iconOverdue {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s — <b>overdue</b>", d.Format(model.DateLayout)))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s", d.Format(model.DateLayout)))
		}
	}
	sb.WriteByte('\n')
	return sb.String()
}
