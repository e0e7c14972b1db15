package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-board/internal/model"
	"todo-board/internal/repository"
	"todo-board/internal/service"
)

type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeChats struct {
	chats []model.Chat
}

func (f *fakeChats) UpsertFromTelegram(_ context.Context, chatID int64, firstName, lastName, username string) (*model.Chat, error) {
	for i := range f.chats {
		if f.chats[i].ChatID == chatID {
			return &f.chats[i], nil
		}
	}
	f.chats = append(f.chats, model.Chat{ChatID: chatID, FirstName: firstName, LastName: lastName, Username: username})
	return &f.chats[len(f.chats)-1], nil
}

func (f *fakeChats) ListAll(context.Context) ([]model.Chat, error) {
	return f.chats, nil
}

const testChat int64 = 100

type harness struct {
	bot       *Bot
	api       *fakeSender
	chats     *fakeChats
	workspace *service.Workspace
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeSender{}
	chats := &fakeChats{}
	ws := newTestWorkspace()
	b := newBot(api, chats, ws, service.NewCategoryService("personal", "work"), service.NewReminderService())
	b.now = func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) }
	return &harness{bot: b, api: api, chats: chats, workspace: ws}
}

func newTestWorkspace() *service.Workspace {
	return service.NewWorkspace(repository.NewMemoryStorage(), "tasks")
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: testChat, Type: "private"},
		From: &tgbotapi.User{ID: testChat, FirstName: "Ann"},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (h *harness) press(t *testing.T, data string) {
	t.Helper()
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: testChat},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat, Type: "private"}},
		Data:    data,
	}})
}

func (h *harness) tasks(t *testing.T) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, h.workspace.Do(context.Background(), testChat, func(s *service.TaskStore) error {
		tasks = s.Tasks()
		return nil
	}))
	return tasks
}

func TestBot_AddRendersBoard(t *testing.T) {
	h := newHarness(t)

	h.text(t, "/add Buy milk | 2026-10-20 | work")

	tasks := h.tasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Text)
	assert.Equal(t, "2026-10-20", tasks[0].Date)
	assert.Equal(t, "work", tasks[0].Category)

	board := h.api.last(t)
	assert.Contains(t, board.Text, "Buy milk")
	_, ok := board.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, ok, "board carries task buttons")
	require.Len(t, h.chats.chats, 1)
}

func TestBot_AddDefaultsCategoryAndRejectsPastDate(t *testing.T) {
	h := newHarness(t)

	h.text(t, "/add Pay rent | 2026-10-01")
	assert.Empty(t, h.tasks(t))
	assert.Contains(t, h.api.last(t).Text, "in the past")

	h.text(t, "/add Pay rent")
	tasks := h.tasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "personal", tasks[0].Category)
	assert.Empty(t, tasks[0].Date)
}

func TestBot_NewTaskConversation(t *testing.T) {
	h := newHarness(t)

	h.text(t, "/newtask")
	h.text(t, "Walk dog")
	h.text(t, "yesterday")
	assert.Contains(t, h.api.last(t).Text, "Try again")
	h.text(t, "skip")
	h.text(t, "work")

	tasks := h.tasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Walk dog", tasks[0].Text)
	assert.Empty(t, tasks[0].Date)
	assert.Equal(t, "work", tasks[0].Category)
	assert.False(t, h.bot.hasConversation(testChat))
}

func TestBot_DropButtonMovesBetweenColumns(t *testing.T) {
	h := newHarness(t)
	h.text(t, "/add Ship release")
	id := h.tasks(t)[0].ID

	h.press(t, cbDropPrefix+service.ColumnCompleted+":"+service.DragPayload(id))
	assert.True(t, h.tasks(t)[0].Completed)
	assert.Equal(t, 1, h.api.requests, "callback acknowledged")

	board := h.api.last(t).Text
	completedAt := strings.Index(board, "Completed</b>")
	assert.Greater(t, strings.Index(board, "Ship release"), completedAt)

	h.text(t, "/move 1 pending")
	assert.False(t, h.tasks(t)[0].Completed)
}

func TestBot_ToggleUnknownIDSendsNothing(t *testing.T) {
	h := newHarness(t)
	h.text(t, "/toggle 42")
	assert.Empty(t, h.api.sent)

	h.text(t, "/add Read")
	h.press(t, cbTogglePrefix+"1")
	assert.True(t, h.tasks(t)[0].Completed)
}

func TestBot_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.text(t, "/add Old thing")

	h.press(t, cbDeletePrefix+"1")
	require.Len(t, h.tasks(t), 1)
	assert.Contains(t, h.api.last(t).Text, "Delete task")

	h.text(t, "no")
	require.Len(t, h.tasks(t), 1)

	h.text(t, "/delete 1")
	h.press(t, cbConfirmPrefix+"1")
	assert.Empty(t, h.tasks(t))
}

func TestBot_SearchAndFilter(t *testing.T) {
	h := newHarness(t)
	h.text(t, "/add Buy milk")
	h.text(t, "/add Walk dog")

	h.text(t, "/search MILK")
	board := h.api.last(t).Text
	assert.Contains(t, board, "Buy milk")
	assert.NotContains(t, board, "Walk dog")

	h.text(t, "/filter completed")
	board = h.api.last(t).Text
	assert.NotContains(t, board, "Buy milk")
	assert.Contains(t, board, "filter: completed")

	h.text(t, "/filter bogus")
	assert.Contains(t, h.api.last(t).Text, "/filter all")
}

func TestBot_SendReports(t *testing.T) {
	h := newHarness(t)
	h.text(t, "/add Report me")
	before := len(h.api.sent)

	require.NoError(t, h.bot.SendReports(context.Background()))
	require.Len(t, h.api.sent, before+1)
	assert.Contains(t, h.api.last(t).Text, "Report me")
	assert.Equal(t, testChat, h.api.last(t).ChatID)
}

func TestRenderBoard(t *testing.T) {
	now := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	board := service.NewBoard([]model.Task{
		{ID: 1, Text: "a <tag>", Category: "work"},
		{ID: 2, Text: "b", Completed: true, Date: "2026-10-19"},
	})

	text, rows := renderBoard(board, service.ViewState{Filter: service.FilterAll}, now)
	assert.Contains(t, text, "a &lt;tag&gt;")
	assert.Contains(t, text, noDate)
	assert.NotContains(t, text, "search:")
	require.Len(t, rows, 2)

	require.NotNil(t, rows[0][1].CallbackData)
	assert.Equal(t, "drop:completedTasks:1", *rows[0][1].CallbackData)
	require.NotNil(t, rows[1][1].CallbackData)
	assert.Equal(t, "drop:pendingTasks:2", *rows[1][1].CallbackData)
}

func TestParseHelpers(t *testing.T) {
	column, payload, ok := parseDrop("drop:completedTasks:17")
	require.True(t, ok)
	assert.Equal(t, service.ColumnCompleted, column)
	assert.Equal(t, "17", payload)

	_, _, ok = parseDrop("drop:17")
	assert.False(t, ok)

	text, date, category := parseAddArgs(" Buy milk | 2026-11-01 | shop | extra ")
	assert.Equal(t, "Buy milk", text)
	assert.Equal(t, "2026-11-01", date)
	assert.Equal(t, "shop | extra", category)

	assert.Equal(t, service.ColumnCompleted, columnAlias("Done"))
	assert.Equal(t, service.ColumnPending, columnAlias("todo"))
	assert.Equal(t, "customColumn", columnAlias("customColumn"))
	assert.Equal(t, "abcd…", shortTitle("abcdefgh", 5))
}
