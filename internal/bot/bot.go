package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"todo-board/internal/model"
	"todo-board/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageText
	stageDate
	stageCategory
)

type taskInput struct {
	Text     string
	Date     string
	Category string
}

type conversationState struct {
	stage conversationStage
	input taskInput
}

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// chatRegistry remembers chats for periodic reports.
type chatRegistry interface {
	UpsertFromTelegram(ctx context.Context, chatID int64, firstName, lastName, username string) (*model.Chat, error)
	ListAll(ctx context.Context) ([]model.Chat, error)
}

// Bot renders task boards into Telegram chats and turns commands and
// button presses into workspace calls.
type Bot struct {
	api           sender
	chats         chatRegistry
	workspace     *service.Workspace
	categories    *service.CategoryService
	reminders     *service.ReminderService
	now           func() time.Time
	conversations map[int64]*conversationState
	confirmations map[int64]int64
	mu            sync.Mutex
}

func New(token string, chats chatRegistry, workspace *service.Workspace, categories *service.CategoryService, reminders *service.ReminderService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return newBot(api, chats, workspace, categories, reminders), nil
}

func newBot(api sender, chats chatRegistry, workspace *service.Workspace, categories *service.CategoryService, reminders *service.ReminderService) *Bot {
	b := &Bot{
		api:           api,
		chats:         chats,
		workspace:     workspace,
		categories:    categories,
		reminders:     reminders,
		now:           time.Now,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]int64),
	}
	workspace.SetOnChange(b.handleChange)
	return b
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		return fmt.Errorf("polling needs a live bot api")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}

	return ctx.Err()
}

// HandleUpdate dispatches one update and logs handler errors.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			log.Printf("handle callback: %v", err)
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			log.Printf("handle message: %v", err)
		}
	}
}

// handleChange re-renders a chat's board after a mutation.
func (b *Bot) handleChange(ctx context.Context, chatID int64) {
	if err := b.sendBoard(ctx, chatID); err != nil {
		log.Printf("render board chat=%d: %v", chatID, err)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if _, err := b.chats.UpsertFromTelegram(ctx, chatID, msg.From.FirstName, msg.From.LastName, msg.From.UserName); err != nil {
		return err
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Task input cancelled.")
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", chatID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if taskID, ok := b.getConfirmation(chatID); ok {
		return b.handleConfirmationResponse(ctx, chatID, msg.Text, taskID)
	}

	if b.hasConversation(chatID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(chatID, "I did not get that. Send /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(chatID)
	case "newtask":
		return b.startNewTaskConversation(chatID)
	case "add":
		return b.handleAdd(ctx, chatID, args)
	case "tasks":
		return b.sendBoard(ctx, chatID)
	case "search":
		b.workspace.SetSearch(chatID, args)
		return b.sendBoard(ctx, chatID)
	case "filter":
		return b.handleFilter(ctx, chatID, args)
	case "toggle":
		return b.handleToggle(ctx, chatID, args)
	case "move":
		return b.handleMove(ctx, chatID, args)
	case "delete":
		return b.handleDelete(ctx, chatID, args)
	case "categories":
		return b.handleCategories(ctx, chatID)
	case "report":
		return b.sendReport(ctx, chatID)
	case "cancel":
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Task input cancelled.")
	default:
		return b.sendText(chatID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your to-do board: pending and completed tasks.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /newtask — add a task step by step\n" +
	"• /add text | YYYY-MM-DD | category — add a task in one line\n" +
	"• /tasks — show the board\n" +
	"• /search &lt;text&gt; — search task text (empty clears)\n" +
	"• /filter all|pending|completed — status filter\n" +
	"• /toggle &lt;id&gt; — flip a task between columns\n" +
	"• /move &lt;id&gt; pending|completed — drop a task into a column\n" +
	"• /delete &lt;id&gt; — delete a task\n" +
	"• /categories — categories in use\n" +
	"• /report — pending task report\n" +
	"• /cancel — cancel current input"

func (b *Bot) handleHelp(chatID int64) error {
	return b.sendText(chatID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) startNewTaskConversation(chatID int64) error {
	log.Printf("[info] start new task conversation chat=%d", chatID)
	b.setConversation(chatID, &conversationState{stage: stageText})
	return b.sendWithReplyMarkup(chatID, "🆕 New task.\n<b>Step 1:</b> what needs doing?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := b.getConversation(chatID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageText:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "The task needs some text.", cancelKeyboard())
		}
		state.input.Text = text
		state.stage = stageDate
		return b.sendWithReplyMarkup(chatID, "📅 Date as <code>2026-11-30</code> (or «Skip»).", skipKeyboard())
	case stageDate:
		if !isSkipInput(text) {
			date, err := service.ValidateDate(text, b.now())
			if err != nil {
				return b.sendWithReplyMarkup(chatID, fmt.Sprintf("%s. Try again or «Skip».", escape(err.Error())), skipKeyboard())
			}
			state.input.Date = date
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(chatID, "🏷 Pick a category or type your own.", categoryKeyboard(b.categoryChoices(ctx, chatID)))
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		b.clearConversation(chatID)
		return b.createTask(ctx, chatID, state.input)
	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Input reset. Start again with /newtask.")
	}
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) error {
	text, date, category := parseAddArgs(args)
	if text == "" {
		return b.sendText(chatID, "Usage: /add Buy milk | 2026-11-30 | shopping")
	}
	valid, err := service.ValidateDate(date, b.now())
	if err != nil {
		return b.sendText(chatID, escape(err.Error()))
	}
	return b.createTask(ctx, chatID, taskInput{Text: text, Date: valid, Category: category})
}

func (b *Bot) createTask(ctx context.Context, chatID int64, input taskInput) error {
	category := b.categories.Normalize(input.Category)

	var task model.Task
	var created bool
	err := b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		var err error
		task, created, err = s.Create(ctx, input.Text, input.Date, category)
		return err
	})
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}
	if created {
		log.Printf("[info] task created id=%d chat=%d", task.ID, chatID)
	}
	return nil
}

func (b *Bot) handleFilter(ctx context.Context, chatID int64, args string) error {
	filter, err := service.ParseStatusFilter(args)
	if err != nil {
		return b.sendText(chatID, "Use /filter all, /filter pending or /filter completed.")
	}
	b.workspace.SetFilter(chatID, filter)
	return b.sendBoard(ctx, chatID)
}

func (b *Bot) handleToggle(ctx context.Context, chatID int64, args string) error {
	taskID, err := parseTaskID(args, "")
	if err != nil {
		return b.sendText(chatID, "Give a task id: /toggle 12")
	}
	return b.toggle(ctx, chatID, taskID)
}

func (b *Bot) toggle(ctx context.Context, chatID, taskID int64) error {
	return b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		found, err := s.Toggle(ctx, taskID)
		if found {
			log.Printf("[info] task toggled id=%d chat=%d", taskID, chatID)
		}
		return err
	})
}

func (b *Bot) handleMove(ctx context.Context, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return b.sendText(chatID, "Usage: /move 12 completed")
	}
	return b.drop(ctx, chatID, fields[0], columnAlias(fields[1]))
}

func (b *Bot) drop(ctx context.Context, chatID int64, payload, column string) error {
	return b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		found, err := s.Drop(ctx, payload, column)
		if found {
			log.Printf("[info] task dropped payload=%s column=%s chat=%d", payload, column, chatID)
		}
		return err
	})
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, args string) error {
	taskID, err := parseTaskID(args, "")
	if err != nil {
		return b.sendText(chatID, "Give a task id: /delete 12")
	}
	return b.askDeleteConfirmation(ctx, chatID, taskID)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID, taskID int64) error {
	var task model.Task
	var found bool
	if err := b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		task, found = s.Get(taskID)
		return nil
	}); err != nil {
		return err
	}
	if !found {
		return b.sendBoard(ctx, chatID)
	}

	b.setConfirmation(chatID, taskID)
	text := fmt.Sprintf("Delete task «%s» (#%d)?", escape(task.Text), task.ID)
	return b.sendWithReplyMarkup(chatID, text, confirmButtons(taskID))
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, chatID int64, text string, taskID int64) error {
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(chatID)
		return b.deleteTask(ctx, chatID, taskID)
	case isCancelInput(text):
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "Kept it.")
	default:
		return b.sendWithReplyMarkup(chatID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) deleteTask(ctx context.Context, chatID, taskID int64) error {
	err := b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		return s.Delete(ctx, taskID)
	})
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	log.Printf("[info] task deleted id=%d chat=%d", taskID, chatID)
	return nil
}

func (b *Bot) handleCategories(ctx context.Context, chatID int64) error {
	categories := b.categoryChoices(ctx, chatID)
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, c := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(c)))
	}
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) categoryChoices(ctx context.Context, chatID int64) []string {
	var tasks []model.Task
	if err := b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		tasks = s.Tasks()
		return nil
	}); err != nil {
		log.Printf("[warn] list categories chat=%d: %v", chatID, err)
	}
	return b.categories.List(tasks)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	log.Printf("[info] callback chat=%d data=%s", chatID, data)

	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		taskID, err := parseTaskID(data, cbTogglePrefix)
		if err != nil {
			return nil
		}
		return b.toggle(ctx, chatID, taskID)
	case strings.HasPrefix(data, cbDropPrefix):
		column, payload, ok := parseDrop(data)
		if !ok {
			return nil
		}
		return b.drop(ctx, chatID, payload, column)
	case strings.HasPrefix(data, cbDeletePrefix):
		taskID, err := parseTaskID(data, cbDeletePrefix)
		if err != nil {
			return nil
		}
		return b.askDeleteConfirmation(ctx, chatID, taskID)
	case strings.HasPrefix(data, cbConfirmPrefix):
		taskID, err := parseTaskID(data, cbConfirmPrefix)
		if err != nil {
			return nil
		}
		b.clearConfirmation(chatID)
		return b.deleteTask(ctx, chatID, taskID)
	case strings.HasPrefix(data, cbCancelPrefix):
		b.clearConfirmation(chatID)
		return nil
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.startNewTaskConversation(msg.Chat.ID)
	case menuLabelTasks:
		return true, b.sendBoard(ctx, msg.Chat.ID)
	case menuLabelCats:
		return true, b.handleCategories(ctx, msg.Chat.ID)
	case menuLabelHelp:
		return true, b.handleHelp(msg.Chat.ID)
	default:
		return false, nil
	}
}

// sendBoard renders the chat's filtered view as two columns.
func (b *Bot) sendBoard(ctx context.Context, chatID int64) error {
	view := b.workspace.View(chatID)
	var board service.Board
	if err := b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		board = s.Board(view.Search, view.Filter)
		return nil
	}); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}

	text, rows := renderBoard(board, view, b.now())
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	} else {
		msg.ReplyMarkup = mainMenuKeyboard()
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendReport(ctx context.Context, chatID int64) error {
	var tasks []model.Task
	if err := b.workspace.Do(ctx, chatID, func(s *service.TaskStore) error {
		tasks = s.Tasks()
		return nil
	}); err != nil {
		return err
	}
	return b.sendText(chatID, b.reminders.Summary(tasks, b.now()))
}

// SendReports sends a summary to every known chat.
func (b *Bot) SendReports(ctx context.Context) error {
	chats, err := b.chats.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendReport(ctx, chat.ChatID); err != nil {
			log.Printf("send report to %d: %v", chat.ChatID, err)
		}
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(chatID int64) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.confirmations[chatID]
	return id, ok
}

func (b *Bot) setConfirmation(chatID, taskID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = taskID
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) hasConversation(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[chatID]
	return ok
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}
