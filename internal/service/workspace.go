package service

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"todo-board/internal/repository"
)

// ViewState mirrors the search box and status selector of one chat.
type ViewState struct {
	Search string
	Filter StatusFilter
}

// Workspace hands out one TaskStore per chat and serialises every call into
// it. Stores are opened lazily and kept for the life of the process.
type Workspace struct {
	storage  repository.Storage
	prefix   string
	now      func() time.Time
	onChange func(ctx context.Context, chatID int64)

	mu     sync.Mutex
	stores map[int64]*TaskStore
	views  map[int64]ViewState
}

func NewWorkspace(storage repository.Storage, prefix string) *Workspace {
	if prefix == "" {
		prefix = "tasks"
	}
	return &Workspace{
		storage: storage,
		prefix:  prefix,
		now:     time.Now,
		stores:  make(map[int64]*TaskStore),
		views:   make(map[int64]ViewState),
	}
}

// SetOnChange registers the hook called after a Do that mutated the chat's
// list. It runs outside the workspace lock, so it may call Do again.
func (w *Workspace) SetOnChange(fn func(ctx context.Context, chatID int64)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Key returns the storage slot of a chat.
func (w *Workspace) Key(chatID int64) string {
	return w.prefix + ":" + strconv.FormatInt(chatID, 10)
}

// Do runs fn with exclusive access to the chat's store.
func (w *Workspace) Do(ctx context.Context, chatID int64, fn func(*TaskStore) error) error {
	w.mu.Lock()
	store, err := w.storeLocked(ctx, chatID)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	changed := false
	store.SetOnChange(func() { changed = true })
	err = fn(store)
	store.SetOnChange(nil)
	hook := w.onChange
	w.mu.Unlock()

	if changed && hook != nil {
		hook(ctx, chatID)
	}
	return err
}

func (w *Workspace) storeLocked(ctx context.Context, chatID int64) (*TaskStore, error) {
	if s, ok := w.stores[chatID]; ok {
		return s, nil
	}
	s, err := OpenTaskStore(ctx, w.storage, w.Key(chatID), WithClock(w.now))
	if err != nil {
		return nil, err
	}
	log.Printf("[info] opened task list key=%s tasks=%d", s.Key(), len(s.tasks))
	w.stores[chatID] = s
	return s, nil
}

// View returns the chat's current search and filter.
func (w *Workspace) View(chatID int64) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.views[chatID]
	if !ok || v.Filter == "" {
		v.Filter = FilterAll
	}
	return v
}

func (w *Workspace) SetSearch(chatID int64, term string) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := w.views[chatID]
	if v.Filter == "" {
		v.Filter = FilterAll
	}
	v.Search = term
	w.views[chatID] = v
	return v
}

func (w *Workspace) SetFilter(chatID int64, filter StatusFilter) ViewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := w.views[chatID]
	v.Filter = filter
	w.views[chatID] = v
	return v
}

// ChatIDs lists chats that have a stored task list.
func (w *Workspace) ChatIDs(ctx context.Context) ([]int64, error) {
	keys, err := w.storage.Keys(ctx, w.prefix+":")
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, w.prefix+":"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
