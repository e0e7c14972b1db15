package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-board/internal/model"
	"todo-board/internal/service"
)

const (
	cbTogglePrefix  = "toggle:"
	cbDropPrefix    = "drop:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancelPrefix  = "cancel:"
)

const (
	btnSkip          = "⏭️ Skip"
	btnConfirm       = "✅ Confirm"
	btnCancel        = "↩️ Cancel"
	btnCancelDialog  = "⏪ Cancel input"
	noDate           = "No date"
	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelCats    = "📂 Categories"
	menuLabelHelp    = "ℹ️ Help"
)

// renderBoard formats both columns and one row of buttons per task.
func renderBoard(board service.Board, view service.ViewState, now time.Time) (string, [][]tgbotapi.InlineKeyboardButton) {
	var builder strings.Builder
	builder.WriteString("📋 <b>Tasks</b>")
	if view.Search != "" || view.Filter != service.FilterAll {
		builder.WriteString(fmt.Sprintf("\n🔎 search: <code>%s</code> · filter: %s", escape(view.Search), escape(string(view.Filter))))
	}
	builder.WriteString("\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton

	builder.WriteString("⏳ <b>Pending</b>\n")
	if len(board.Pending) == 0 {
		builder.WriteString("— empty\n")
	}
	for _, task := range board.Pending {
		builder.WriteString(formatTask(task, now))
		rows = append(rows, taskButtons(task))
	}

	builder.WriteString("\n✅ <b>Completed</b>\n")
	if len(board.Completed) == 0 {
		builder.WriteString("— empty\n")
	}
	for _, task := range board.Completed {
		builder.WriteString(formatTask(task, now))
		rows = append(rows, taskButtons(task))
	}

	return strings.TrimSpace(builder.String()), rows
}

func formatTask(task model.Task, now time.Time) string {
	var sb strings.Builder
	icon := service.DueIcon(task, now)
	if task.Completed {
		icon = "✔️"
	}
	sb.WriteString(fmt.Sprintf("%s #%d %s", icon, task.ID, escape(task.Text)))
	if c := strings.TrimSpace(task.Category); c != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(c)))
	}
	date := task.Date
	if date == "" {
		date = noDate
	}
	sb.WriteString(fmt.Sprintf("\n   📅 %s\n", escape(date)))
	return sb.String()
}

// taskButtons builds the toggle, move and delete buttons. The move button
// carries a drop gesture onto the opposite column.
func taskButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	toggleLabel := fmt.Sprintf("✅ #%d %s", task.ID, shortTitle(task.Text, 20))
	target, moveLabel := service.ColumnCompleted, "➡️ Done"
	if task.Completed {
		toggleLabel = fmt.Sprintf("↩️ #%d %s", task.ID, shortTitle(task.Text, 20))
		target, moveLabel = service.ColumnPending, "⬅️ Pending"
	}
	payload := service.DragPayload(task.ID)
	return []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(toggleLabel, cbTogglePrefix+payload),
		tgbotapi.NewInlineKeyboardButtonData(moveLabel, cbDropPrefix+target+":"+payload),
		tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+payload),
	}
}

func confirmButtons(taskID int64) tgbotapi.InlineKeyboardMarkup {
	payload := service.DragPayload(taskID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnConfirm, cbConfirmPrefix+payload),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, cbCancelPrefix+payload),
		),
	)
}

// parseDrop splits "drop:<column>:<payload>" callback data.
func parseDrop(data string) (column, payload string, ok bool) {
	rest := strings.TrimPrefix(data, cbDropPrefix)
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

func parseTaskID(data, prefix string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(data, prefix)), 10, 64)
}

// parseAddArgs reads "text | date | category".
func parseAddArgs(args string) (text, date, category string) {
	parts := strings.SplitN(args, "|", 3)
	text = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		date = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		category = strings.TrimSpace(parts[2])
	}
	return text, date, category
}

// columnAlias maps user words to drop column ids. Unknown words pass through.
func columnAlias(word string) string {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "done", "completed", "complete":
		return service.ColumnCompleted
	case "pending", "todo":
		return service.ColumnPending
	default:
		return strings.TrimSpace(word)
	}
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelCats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoryKeyboard(categories []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, c := range categories {
		row = append(row, tgbotapi.NewKeyboardButton(c))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnSkip) || t == "skip" || t == "-"
}

func isConfirmInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnConfirm) || t == "yes" || t == "y"
}

func isCancelInput(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == strings.ToLower(btnCancel) || t == "no" || t == "n"
}

func isCancelDialogInput(text string) bool {
	return strings.TrimSpace(text) == btnCancelDialog
}

func shortTitle(title string, maxLen int) string {
	r := []rune(strings.TrimSpace(title))
	if len(r) <= maxLen {
		return string(r)
	}
	return string(r[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
