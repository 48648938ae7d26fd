package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskflow/internal/mapper"
	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/repo"
	"github.com/BuzzLyutic/taskflow/internal/repo/repotest"
	"github.com/BuzzLyutic/taskflow/internal/validation"
)

// MockTaskRepository - мок репозитория
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, r mapper.TaskRecord) (mapper.TaskRecord, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(mapper.TaskRecord), args.Error(1)
}

func (m *MockTaskRepository) CreateIdempotent(ctx context.Context, r mapper.TaskRecord, key string) (mapper.TaskRecord, bool, error) {
	args := m.Called(ctx, r, key)
	return args.Get(0).(mapper.TaskRecord), args.Bool(1), args.Error(2)
}

func (m *MockTaskRepository) Get(ctx context.Context, ownerID, id string) (mapper.TaskRecord, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(mapper.TaskRecord), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]mapper.TaskRecord, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).([]mapper.TaskRecord), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, ownerID, id string, patch mapper.Patch) (mapper.TaskRecord, error) {
	args := m.Called(ctx, ownerID, id, patch)
	return args.Get(0).(mapper.TaskRecord), args.Error(1)
}

func (m *MockTaskRepository) SetCompleted(ctx context.Context, ownerID, id string, expected, completed bool) (mapper.TaskRecord, error) {
	args := m.Called(ctx, ownerID, id, expected, completed)
	return args.Get(0).(mapper.TaskRecord), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

var alice = model.Identity{UserID: "11111111-1111-1111-1111-111111111111", Email: "alice@example.com"}

func record(id, title string, completed bool) mapper.TaskRecord {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return mapper.TaskRecord{
		ID:        id,
		Title:     title,
		Completed: completed,
		Priority:  "medium",
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    alice.UserID,
	}
}

func TestTaskService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       validation.CreateTaskRequest
		idempKey  string
		setupMock func(*MockTaskRepository)
		wantErr   error
		wantField string
	}{
		{
			name: "successful creation without idempotency key",
			req:  validation.CreateTaskRequest{Title: "Test Task", Priority: "high"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(r mapper.TaskRecord) bool {
					return r.Title == "Test Task" && r.Priority == "high" && r.UserID == alice.UserID
				})).Return(record("t1", "Test Task", false), nil)
			},
		},
		{
			name:      "validation error - empty title",
			req:       validation.CreateTaskRequest{Title: "", Priority: "low"},
			setupMock: func(m *MockTaskRepository) {},
			wantField: "title",
		},
		{
			name:      "validation error - unknown priority",
			req:       validation.CreateTaskRequest{Title: "Test", Priority: "critical"},
			setupMock: func(m *MockTaskRepository) {},
			wantField: "priority",
		},
		{
			name:     "idempotency key goes through the idempotent path",
			req:      validation.CreateTaskRequest{Title: "Test Task", Priority: "low"},
			idempKey: "key-123",
			setupMock: func(m *MockTaskRepository) {
				m.On("CreateIdempotent", mock.Anything, mock.Anything, "key-123").
					Return(record("t42", "Test Task", false), true, nil)
			},
		},
		{
			name: "storage failure",
			req:  validation.CreateTaskRequest{Title: "Test Task", Priority: "low"},
			setupMock: func(m *MockTaskRepository) {
				m.On("Create", mock.Anything, mock.Anything).Return(mapper.TaskRecord{}, errors.New("connection reset"))
			},
			wantErr: &StorageError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			service := NewTaskService(mockRepo, nil)
			result, err := service.Create(context.Background(), alice, tt.req, tt.idempKey)

			switch {
			case tt.wantField != "":
				var verrs *validation.Errors
				require.ErrorAs(t, err, &verrs)
				_, ok := verrs.Message(tt.wantField)
				assert.True(t, ok)
			case tt.wantErr != nil:
				var serr *StorageError
				require.ErrorAs(t, err, &serr)
				assert.Equal(t, "create task", serr.Op)
				assert.EqualError(t, errors.Unwrap(err), "connection reset")
			default:
				require.NoError(t, err)
				assert.NotEmpty(t, result.ID)
				assert.Equal(t, []string{}, result.Tags)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_EmptyIdentity(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	service := NewTaskService(mockRepo, nil)
	ctx := context.Background()
	anon := model.Identity{}

	_, err := service.List(ctx, anon, model.TaskFilter{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = service.GetByID(ctx, anon, "x")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = service.Create(ctx, anon, validation.CreateTaskRequest{Title: "a", Priority: "low"}, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = service.Update(ctx, anon, "x", validation.UpdateTaskRequest{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, service.Delete(ctx, anon, "x"), ErrUnauthenticated)
	_, err = service.ToggleCompletion(ctx, anon, "x")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = service.Stats(ctx, anon)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskService_GetByID(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("Get", mock.Anything, alice.UserID, "missing").Return(mapper.TaskRecord{}, repo.ErrorNotFound)
	mockRepo.On("Get", mock.Anything, alice.UserID, "broken").Return(mapper.TaskRecord{}, errors.New("timeout"))

	service := NewTaskService(mockRepo, nil)

	task, err := service.GetByID(context.Background(), alice, "missing")
	require.NoError(t, err)
	assert.Nil(t, task)

	_, err = service.GetByID(context.Background(), alice, "broken")
	var serr *StorageError
	assert.ErrorAs(t, err, &serr)
}

func TestTaskService_Update(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("Update", mock.Anything, alice.UserID, "t1", mock.MatchedBy(func(p mapper.Patch) bool {
		v, ok := p.Get("title")
		return ok && v == "Updated" && len(p) == 1
	})).Return(record("t1", "Updated", false), nil)
	mockRepo.On("Update", mock.Anything, alice.UserID, "gone", mock.Anything).Return(mapper.TaskRecord{}, repo.ErrorNotFound)

	service := NewTaskService(mockRepo, nil)

	result, err := service.Update(context.Background(), alice, "t1", validation.UpdateTaskRequest{Title: model.Some("Updated")})
	require.NoError(t, err)
	assert.Equal(t, "Updated", result.Title)

	_, err = service.Update(context.Background(), alice, "gone", validation.UpdateTaskRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = service.Update(context.Background(), alice, "t1", validation.UpdateTaskRequest{Title: model.Null[string]()})
	var verrs *validation.Errors
	assert.ErrorAs(t, err, &verrs)

	mockRepo.AssertExpectations(t)
}

func TestTaskService_ToggleConflict(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("Get", mock.Anything, alice.UserID, "t1").Return(record("t1", "T", false), nil)
	mockRepo.On("SetCompleted", mock.Anything, alice.UserID, "t1", false, true).Return(mapper.TaskRecord{}, repo.ErrorConflict)

	service := NewTaskService(mockRepo, nil)
	_, err := service.ToggleCompletion(context.Background(), alice, "t1")

	assert.ErrorIs(t, err, ErrConflict)
	mockRepo.AssertNumberOfCalls(t, "SetCompleted", 1)
}

func TestComputeStats(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2024, 6, 15, 1, 30, 0, 0, loc) // 14 июня по UTC

	at := func(d time.Time) *time.Time { return &d }
	yesterday := time.Date(2024, 6, 14, 23, 0, 0, 0, loc)
	todayStart := time.Date(2024, 6, 15, 0, 0, 0, 0, loc)
	todayEnd := time.Date(2024, 6, 15, 23, 59, 59, 0, loc)
	tomorrow := time.Date(2024, 6, 16, 0, 0, 0, 0, loc)

	tasks := []model.Task{
		{ID: "1", DueDate: at(yesterday)},
		{ID: "2", DueDate: at(yesterday), Completed: true},
		{ID: "3", DueDate: at(todayStart)},
		{ID: "4", DueDate: at(todayEnd), Completed: true},
		{ID: "5", DueDate: at(tomorrow)},
		{ID: "6"},
	}

	st := ComputeStats(tasks, now)
	assert.Equal(t, model.TaskStats{Total: 6, Completed: 2, Pending: 4, Overdue: 1, Today: 2}, st)
	assert.Equal(t, st.Total, st.Pending+st.Completed)
}

func TestGroupByCategory(t *testing.T) {
	work := "work"
	empty := ""
	tasks := []model.Task{
		{ID: "1", Category: &work},
		{ID: "2"},
		{ID: "3", Category: &work},
		{ID: "4", Category: &empty},
	}

	groups := GroupByCategory(tasks)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"1", "3"}, []string{groups["work"][0].ID, groups["work"][1].ID})
	assert.Len(t, groups[Uncategorized], 2)
	assert.Equal(t, []string{Uncategorized, "work"}, Categories(groups))
}

// newFakeService returns a service over the in-memory store with a clock that
// advances one second per reading.
func newFakeService(t *testing.T) (*TaskService, *repotest.Tasks) {
	t.Helper()
	base := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	store := repotest.NewTasks()
	store.Now = clock
	svc := NewTaskService(store, time.UTC)
	svc.now = func() time.Time { return base }
	return svc, store
}

func TestTaskService_Properties(t *testing.T) {
	ctx := context.Background()

	t.Run("create then get returns an equal task", func(t *testing.T) {
		svc, _ := newFakeService(t)
		desc := "details"
		created, err := svc.Create(ctx, alice, validation.CreateTaskRequest{
			Title: "Read", Description: &desc, Priority: "medium", Tags: []string{"a", "a"},
		}, "")
		require.NoError(t, err)

		got, err := svc.GetByID(ctx, alice, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created, *got)
		assert.False(t, got.Completed)
		assert.Equal(t, alice.UserID, got.UserID)
		assert.Equal(t, []string{"a", "a"}, got.Tags)
	})

	t.Run("empty update only moves updatedAt forward", func(t *testing.T) {
		svc, _ := newFakeService(t)
		created, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "T", Priority: "low"}, "")
		require.NoError(t, err)

		first, err := svc.Update(ctx, alice, created.ID, validation.UpdateTaskRequest{})
		require.NoError(t, err)
		second, err := svc.Update(ctx, alice, created.ID, validation.UpdateTaskRequest{})
		require.NoError(t, err)

		assert.True(t, first.UpdatedAt.After(created.UpdatedAt))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

		second.UpdatedAt = created.UpdatedAt
		assert.Equal(t, created, second)
	})

	t.Run("toggle twice restores completed", func(t *testing.T) {
		svc, _ := newFakeService(t)
		created, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "T", Priority: "low"}, "")
		require.NoError(t, err)

		once, err := svc.ToggleCompletion(ctx, alice, created.ID)
		require.NoError(t, err)
		assert.True(t, once.Completed)

		twice, err := svc.ToggleCompletion(ctx, alice, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Completed, twice.Completed)
	})

	t.Run("overdue counts only incomplete tasks due before today", func(t *testing.T) {
		svc, _ := newFakeService(t)
		yesterday := "2024-06-14"
		open, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "open", Priority: "low", DueDate: &yesterday}, "")
		require.NoError(t, err)
		_, err = svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "other", Priority: "low"}, "")
		require.NoError(t, err)

		st, err := svc.Stats(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 1, st.Overdue)
		assert.Equal(t, st.Total, st.Pending+st.Completed)

		_, err = svc.ToggleCompletion(ctx, alice, open.ID)
		require.NoError(t, err)
		st, err = svc.Stats(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, 0, st.Overdue)
		assert.Equal(t, 1, st.Completed)
	})

	t.Run("delete then get is nil and a second delete is not found", func(t *testing.T) {
		svc, _ := newFakeService(t)
		created, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "T", Priority: "low"}, "")
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, alice, created.ID))
		got, err := svc.GetByID(ctx, alice, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, svc.Delete(ctx, alice, created.ID), ErrNotFound)
	})

	t.Run("priority filter keeps newest first", func(t *testing.T) {
		svc, _ := newFakeService(t)
		for _, p := range []string{"high", "low", "high", "urgent", "high"} {
			_, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: p, Priority: p}, "")
			require.NoError(t, err)
		}

		tasks, err := svc.List(ctx, alice, model.TaskFilter{Priorities: []model.Priority{model.PriorityHigh}})
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		for i := 1; i < len(tasks); i++ {
			assert.Equal(t, model.PriorityHigh, tasks[i].Priority)
			assert.True(t, tasks[i-1].CreatedAt.After(tasks[i].CreatedAt))
		}
	})

	t.Run("create update delete scenario", func(t *testing.T) {
		svc, _ := newFakeService(t)
		created, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "Buy milk", Priority: "medium"}, "")
		require.NoError(t, err)

		updated, err := svc.Update(ctx, alice, created.ID, validation.UpdateTaskRequest{
			Title:     model.Some("Buy oat milk"),
			Completed: model.Some(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "Buy oat milk", updated.Title)
		assert.True(t, updated.Completed)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)

		list, err := svc.List(ctx, alice, model.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, svc.Delete(ctx, alice, created.ID))
		list, err = svc.List(ctx, alice, model.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("other owners cannot see or change the task", func(t *testing.T) {
		svc, _ := newFakeService(t)
		bob := model.Identity{UserID: "22222222-2222-2222-2222-222222222222"}
		created, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "mine", Priority: "low"}, "")
		require.NoError(t, err)

		got, err := svc.GetByID(ctx, bob, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		_, err = svc.ToggleCompletion(ctx, bob, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, bob, created.ID), ErrNotFound)
	})

	t.Run("repeated idempotency key stores one task", func(t *testing.T) {
		svc, store := newFakeService(t)
		req := validation.CreateTaskRequest{Title: "once", Priority: "low"}

		first, err := svc.Create(ctx, alice, req, "key-1")
		require.NoError(t, err)
		second, err := svc.Create(ctx, alice, req, "key-1")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("daily view counts completed tasks of the day", func(t *testing.T) {
		svc, _ := newFakeService(t)
		day := "2024-06-20"
		other := "2024-06-21"
		a, err := svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "a", Priority: "low", DueDate: &day}, "")
		require.NoError(t, err)
		_, err = svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "b", Priority: "low", DueDate: &day}, "")
		require.NoError(t, err)
		_, err = svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "c", Priority: "low", DueDate: &other}, "")
		require.NoError(t, err)
		_, err = svc.ToggleCompletion(ctx, alice, a.ID)
		require.NoError(t, err)

		daily, err := svc.Daily(ctx, alice, time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "2024-06-20", daily.Date)
		assert.Equal(t, 2, daily.TotalCount)
		assert.Equal(t, 1, daily.CompletedCount)
		assert.Equal(t, "b", daily.Tasks[0].Title)
	})
}

func TestTaskService_ConfiguredTimezone(t *testing.T) {
	ctx := context.Background()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	svc := NewTaskService(repotest.NewTasks(), ny)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, ny) }

	today, yesterday := "2024-06-15", "2024-06-14"
	_, err = svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "today", Priority: "low", DueDate: &today}, "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, validation.CreateTaskRequest{Title: "yesterday", Priority: "low", DueDate: &yesterday}, "")
	require.NoError(t, err)

	daily, err := svc.Daily(ctx, alice, time.Date(2024, 6, 15, 0, 0, 0, 0, ny))
	require.NoError(t, err)
	require.Equal(t, 1, daily.TotalCount)
	assert.Equal(t, "today", daily.Tasks[0].Title)

	daily, err = svc.Daily(ctx, alice, time.Date(2024, 6, 14, 0, 0, 0, 0, ny))
	require.NoError(t, err)
	require.Equal(t, 1, daily.TotalCount)
	assert.Equal(t, "yesterday", daily.Tasks[0].Title)

	stats, err := svc.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Today)
	assert.Equal(t, 1, stats.Overdue)

	tasks, err := svc.List(ctx, alice, model.TaskFilter{})
	require.NoError(t, err)
	for _, task := range tasks {
		require.NotNil(t, task.DueDate)
		assert.Equal(t, 0, task.DueDate.In(ny).Hour(), task.Title)
	}
}
