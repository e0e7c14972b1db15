package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"todo-board/internal/model"
	"todo-board/internal/repository"
)

// TaskStore owns one ordered task list and writes the whole list back to
// its storage slot after every mutation. It is not safe for concurrent use;
// callers serialise access (see Workspace).
type TaskStore struct {
	storage  repository.Storage
	key      string
	tasks    []model.Task
	lastID   int64
	now      func() time.Time
	onChange func()
}

// StoreOption configures a TaskStore.
type StoreOption func(*TaskStore)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *TaskStore) { s.now = now }
}

// WithOnChange registers the re-render hook.
func WithOnChange(fn func()) StoreOption {
	return func(s *TaskStore) { s.onChange = fn }
}

// OpenTaskStore loads the list stored under key. Absent or unparseable data
// yields an empty list; only storage read failures are returned.
func OpenTaskStore(ctx context.Context, storage repository.Storage, key string, opts ...StoreOption) (*TaskStore, error) {
	s := &TaskStore{
		storage: storage,
		key:     key,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	tasks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.tasks = tasks
	for _, t := range tasks {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	return s, nil
}

// Key returns the storage slot this store persists to.
func (s *TaskStore) Key() string {
	return s.key
}

// SetOnChange replaces the re-render hook. nil disables it.
func (s *TaskStore) SetOnChange(fn func()) {
	s.onChange = fn
}

// Tasks returns a copy of the list in insertion order.
func (s *TaskStore) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get looks a task up by id.
func (s *TaskStore) Get(id int64) (model.Task, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i], true
	}
	return model.Task{}, false
}

// Create appends a new pending task. Blank text is a no-op and reports created=false.
func (s *TaskStore) Create(ctx context.Context, text, date, category string) (model.Task, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, false, nil
	}

	task := model.Task{
		ID:        s.nextID(),
		Text:      text,
		Date:      date,
		Category:  category,
		Completed: false,
		CreatedAt: s.now(),
	}
	s.tasks = append(s.tasks, task)

	if err := s.commit(ctx); err != nil {
		return task, true, err
	}
	return task, true, nil
}

// Toggle flips the completion flag. Unknown ids are ignored.
func (s *TaskStore) Toggle(ctx context.Context, id int64) (bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	return true, s.commit(ctx)
}

// Delete removes the task with id if present. The list is persisted either way.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return s.commit(ctx)
}

// Reclassify sets the completion flag to completed. Unknown ids are ignored.
func (s *TaskStore) Reclassify(ctx context.Context, id int64, completed bool) (bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.tasks[i].Completed = completed
	return true, s.commit(ctx)
}

// Drop applies a drag-and-drop gesture: payload is the dragged task id as
// text, columnID the drop target. Unparseable payloads are ignored.
func (s *TaskStore) Drop(ctx context.Context, payload, columnID string) (bool, error) {
	id, err := ParseDragPayload(payload)
	if err != nil {
		return false, nil
	}
	return s.Reclassify(ctx, id, TargetCompleted(columnID))
}

// FilteredView returns tasks whose text contains searchTerm (case-insensitive)
// and which satisfy filter, in list order.
func (s *TaskStore) FilteredView(searchTerm string, filter StatusFilter) []model.Task {
	term := strings.ToLower(searchTerm)
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !strings.Contains(strings.ToLower(t.Text), term) {
			continue
		}
		if !filter.Match(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Board partitions the filtered view into the two display columns.
func (s *TaskStore) Board(searchTerm string, filter StatusFilter) Board {
	return NewBoard(s.FilteredView(searchTerm, filter))
}

func (s *TaskStore) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *TaskStore) commit(ctx context.Context) error {
	if err := s.persist(ctx); err != nil {
		return err
	}
	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

func (s *TaskStore) persist(ctx context.Context) error {
	tasks := s.tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.storage.SetItem(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("persist tasks: %w", err)
	}
	return nil
}

func (s *TaskStore) load(ctx context.Context) ([]model.Task, error) {
	raw, ok, err := s.storage.GetItem(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !ok {
		return []model.Task{}, nil
	}
	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		log.Printf("[warn] discard unreadable task list key=%s: %v", s.key, err)
		return []model.Task{}, nil
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}
