package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-board/internal/repository"
)

func TestWorkspace_SeparateListsPerChat(t *testing.T) {
	st := repository.NewMemoryStorage()
	ws := NewWorkspace(st, "tasks")
	ctx := context.Background()

	require.NoError(t, ws.Do(ctx, 1, func(s *TaskStore) error {
		_, _, err := s.Create(ctx, "chat one", "", "personal")
		return err
	}))
	require.NoError(t, ws.Do(ctx, 2, func(s *TaskStore) error {
		assert.Empty(t, s.Tasks())
		return nil
	}))

	_, ok, err := st.GetItem(ctx, "tasks:1")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := ws.ChatIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
	assert.Equal(t, "tasks:1", ws.Key(1))
}

func TestWorkspace_OnChangeOnlyAfterMutation(t *testing.T) {
	ws := NewWorkspace(repository.NewMemoryStorage(), "")
	ctx := context.Background()

	var changed []int64
	ws.SetOnChange(func(ctx context.Context, chatID int64) {
		changed = append(changed, chatID)
		// re-entering must not deadlock
		require.NoError(t, ws.Do(ctx, chatID, func(s *TaskStore) error {
			_ = s.FilteredView("", FilterAll)
			return nil
		}))
	})

	require.NoError(t, ws.Do(ctx, 5, func(s *TaskStore) error {
		_ = s.FilteredView("x", FilterPending)
		return nil
	}))
	assert.Empty(t, changed)

	require.NoError(t, ws.Do(ctx, 5, func(s *TaskStore) error {
		_, _, err := s.Create(ctx, "x", "", "")
		return err
	}))
	assert.Equal(t, []int64{5}, changed)
}

func TestWorkspace_ReopensPersistedList(t *testing.T) {
	st := repository.NewMemoryStorage()
	ctx := context.Background()

	first := NewWorkspace(st, "tasks")
	require.NoError(t, first.Do(ctx, 9, func(s *TaskStore) error {
		_, _, err := s.Create(ctx, "persisted", "", "")
		return err
	}))

	second := NewWorkspace(st, "tasks")
	require.NoError(t, second.Do(ctx, 9, func(s *TaskStore) error {
		tasks := s.Tasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, "persisted", tasks[0].Text)
		return nil
	}))
}

func TestWorkspace_ViewState(t *testing.T) {
	ws := NewWorkspace(repository.NewMemoryStorage(), "tasks")

	v := ws.View(3)
	assert.Equal(t, FilterAll, v.Filter)
	assert.Empty(t, v.Search)

	ws.SetSearch(3, "milk")
	ws.SetFilter(3, FilterCompleted)
	v = ws.View(3)
	assert.Equal(t, "milk", v.Search)
	assert.Equal(t, FilterCompleted, v.Filter)

	assert.Equal(t, FilterAll, ws.View(4).Filter)
}
