package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/BuzzLyutic/taskflow/internal/mapper"
	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/repo"
	"github.com/BuzzLyutic/taskflow/internal/validation"
)

// Uncategorized is the group key for tasks without a category.
const Uncategorized = "uncategorized"

type TaskService struct {
	repo repo.TaskRepository
	loc  *time.Location
	now  func() time.Time
}

// NewTaskService: loc задает границы дня для статистики и выборки по дате, nil означает UTC
func NewTaskService(repo repo.TaskRepository, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskService{repo: repo, loc: loc, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, who model.Identity, filter model.TaskFilter) ([]model.Task, error) {
	if who.Empty() {
		return nil, ErrUnauthenticated
	}
	records, err := s.repo.List(ctx, who.UserID, filter)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return mapper.ToDomainList(records), nil
}

// GetByID returns nil, nil when the task does not exist or belongs to someone else.
func (s *TaskService) GetByID(ctx context.Context, who model.Identity, id string) (*model.Task, error) {
	if who.Empty() {
		return nil, ErrUnauthenticated
	}
	rec, err := s.repo.Get(ctx, who.UserID, id)
	if errors.Is(err, repo.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get task", err)
	}
	task := mapper.ToDomain(rec)
	return &task, nil
}

// Create validates req and stores a new task owned by who. A non-empty idempKey
// returns the task created earlier with the same key.
func (s *TaskService) Create(ctx context.Context, who model.Identity, req validation.CreateTaskRequest, idempKey string) (model.Task, error) {
	if who.Empty() {
		return model.Task{}, ErrUnauthenticated
	}
	in, err := validation.CreateTask(req, s.loc) // Валидация модели на корректность введенных данных
	if err != nil {
		return model.Task{}, err
	}

	record := mapper.ToPersisted(in, who.UserID)
	if idempKey == "" {
		rec, err := s.repo.Create(ctx, record)
		if err != nil {
			return model.Task{}, storeErr("create task", err)
		}
		return mapper.ToDomain(rec), nil
	}

	// Обеспечение идемпотентности - повторный запрос с тем же ключом вернет ту же задачу
	rec, _, err := s.repo.CreateIdempotent(ctx, record, idempKey)
	if err != nil {
		return model.Task{}, storeErr("create task", err)
	}
	return mapper.ToDomain(rec), nil
}

// Update merges the supplied fields into the task. An empty patch still refreshes updatedAt.
func (s *TaskService) Update(ctx context.Context, who model.Identity, id string, req validation.UpdateTaskRequest) (model.Task, error) {
	if who.Empty() {
		return model.Task{}, ErrUnauthenticated
	}
	req.ID = id
	in, err := validation.UpdateTask(req, s.loc)
	if err != nil {
		return model.Task{}, err
	}

	rec, err := s.repo.Update(ctx, who.UserID, id, mapper.ToPersistedPatch(in))
	if err != nil {
		return model.Task{}, storeErr("update task", err)
	}
	return mapper.ToDomain(rec), nil
}

func (s *TaskService) Delete(ctx context.Context, who model.Identity, id string) error {
	if who.Empty() {
		return ErrUnauthenticated
	}
	return storeErr("delete task", s.repo.Delete(ctx, who.UserID, id))
}

// ToggleCompletion flips completed. If another writer flipped it between the read
// and the write, ErrConflict is returned and nothing is written.
func (s *TaskService) ToggleCompletion(ctx context.Context, who model.Identity, id string) (model.Task, error) {
	if who.Empty() {
		return model.Task{}, ErrUnauthenticated
	}
	current, err := s.repo.Get(ctx, who.UserID, id)
	if err != nil {
		return model.Task{}, storeErr("toggle task", err)
	}

	rec, err := s.repo.SetCompleted(ctx, who.UserID, id, current.Completed, !current.Completed)
	if err != nil {
		return model.Task{}, storeErr("toggle task", err)
	}
	return mapper.ToDomain(rec), nil
}

// Stats считается заново при каждом вызове
func (s *TaskService) Stats(ctx context.Context, who model.Identity) (model.TaskStats, error) {
	tasks, err := s.List(ctx, who, model.TaskFilter{})
	if err != nil {
		return model.TaskStats{}, err
	}
	return ComputeStats(tasks, s.now().In(s.loc)), nil
}

// ComputeStats evaluates day boundaries in now's location.
func ComputeStats(tasks []model.Task, now time.Time) model.TaskStats {
	start, end := dayBounds(now)

	var st model.TaskStats
	st.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			st.Completed++
		}
		if t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		if due.Before(start) && !t.Completed {
			st.Overdue++
		}
		if !due.Before(start) && !due.After(end) {
			st.Today++
		}
	}
	st.Pending = st.Total - st.Completed
	return st
}

// ByDate returns tasks due on date's calendar day in date's location, newest first.
func (s *TaskService) ByDate(ctx context.Context, who model.Identity, date time.Time) ([]model.Task, error) {
	start, end := dayBounds(date)
	return s.List(ctx, who, model.TaskFilter{DueFrom: &start, DueTo: &end})
}

func (s *TaskService) Daily(ctx context.Context, who model.Identity, date time.Time) (model.DailyTasks, error) {
	tasks, err := s.ByDate(ctx, who, date)
	if err != nil {
		return model.DailyTasks{}, err
	}

	daily := model.DailyTasks{
		Date:       date.Format("2006-01-02"),
		Tasks:      tasks,
		TotalCount: len(tasks),
	}
	for _, t := range tasks {
		if t.Completed {
			daily.CompletedCount++
		}
	}
	return daily, nil
}

// Today is the current calendar day at midnight in the service's location.
func (s *TaskService) Today() time.Time {
	start, _ := dayBounds(s.now().In(s.loc))
	return start
}

func (s *TaskService) Location() *time.Location {
	return s.loc
}

// GroupByCategory keeps the input order inside every group.
func GroupByCategory(tasks []model.Task) map[string][]model.Task {
	groups := make(map[string][]model.Task)
	for _, t := range tasks {
		key := Uncategorized
		if t.Category != nil && *t.Category != "" {
			key = *t.Category
		}
		groups[key] = append(groups[key], t)
	}
	return groups
}

// Categories returns the distinct group keys in alphabetical order.
func Categories(groups map[string][]model.Task) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}
