// Package repotest provides in-memory repositories that follow the same
// ownership, ordering and conflict rules as the Postgres implementation.
package repotest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BuzzLyutic/taskflow/internal/mapper"
	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/repo"
)

var (
	_ repo.TaskRepository = (*Tasks)(nil)
	_ repo.UserRepository = (*Users)(nil)
)

type Tasks struct {
	mu   sync.RWMutex
	Now  func() time.Time
	rows map[string]mapper.TaskRecord
	keys map[string]string // owner|key -> task id
	last time.Time
}

func NewTasks() *Tasks {
	return &Tasks{
		Now:  time.Now,
		rows: make(map[string]mapper.TaskRecord),
		keys: make(map[string]string),
	}
}

func cloneRecord(r mapper.TaskRecord) mapper.TaskRecord {
	out := r
	out.Tags = slices.Clone(r.Tags)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

func (f *Tasks) Create(_ context.Context, r mapper.TaskRecord) (mapper.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(r), nil
}

// tick returns strictly increasing timestamps so insertion order is always observable.
func (f *Tasks) tick() time.Time {
	now := f.Now().UTC().Truncate(time.Microsecond)
	if !now.After(f.last) {
		now = f.last.Add(time.Microsecond)
	}
	f.last = now
	return now
}

func (f *Tasks) insert(r mapper.TaskRecord) mapper.TaskRecord {
	now := f.tick()
	r = cloneRecord(r)
	r.ID = uuid.NewString()
	r.Completed = false
	r.CreatedAt = now
	r.UpdatedAt = now
	f.rows[r.ID] = r
	return cloneRecord(r)
}

func (f *Tasks) CreateIdempotent(_ context.Context, r mapper.TaskRecord, key string) (mapper.TaskRecord, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	k := r.UserID + "|" + key
	if id, ok := f.keys[k]; ok {
		if existing, ok := f.rows[id]; ok {
			return cloneRecord(existing), true, nil
		}
	}
	created := f.insert(r)
	f.keys[k] = created.ID
	return created, false, nil
}

func (f *Tasks) Get(_ context.Context, ownerID, id string) (mapper.TaskRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	r, ok := f.rows[id]
	if !ok || r.UserID != ownerID {
		return mapper.TaskRecord{}, repo.ErrorNotFound
	}
	return cloneRecord(r), nil
}

func (f *Tasks) List(_ context.Context, ownerID string, filter model.TaskFilter) ([]mapper.TaskRecord, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]mapper.TaskRecord, 0)
	for _, r := range f.rows {
		if r.UserID == ownerID && matches(r, filter) {
			out = append(out, cloneRecord(r))
		}
	}
	sortRecords(out, filter.Sort)
	return out, nil
}

func (f *Tasks) Update(_ context.Context, ownerID, id string, patch mapper.Patch) (mapper.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rows[id]
	if !ok || r.UserID != ownerID {
		return mapper.TaskRecord{}, repo.ErrorNotFound
	}
	for _, a := range patch {
		if err := apply(&r, a); err != nil {
			return mapper.TaskRecord{}, err
		}
	}
	f.touch(&r)
	f.rows[id] = r
	return cloneRecord(r), nil
}

func (f *Tasks) SetCompleted(_ context.Context, ownerID, id string, expected, completed bool) (mapper.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rows[id]
	if !ok || r.UserID != ownerID {
		return mapper.TaskRecord{}, repo.ErrorNotFound
	}
	if r.Completed != expected {
		return mapper.TaskRecord{}, repo.ErrorConflict
	}
	r.Completed = completed
	f.touch(&r)
	f.rows[id] = r
	return cloneRecord(r), nil
}

func (f *Tasks) Delete(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.rows[id]
	if !ok || r.UserID != ownerID {
		return repo.ErrorNotFound
	}
	delete(f.rows, id)
	for k, taskID := range f.keys {
		if taskID == id {
			delete(f.keys, k)
		}
	}
	return nil
}

// Len returns the number of stored tasks across all owners.
func (f *Tasks) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.rows)
}

func (f *Tasks) touch(r *mapper.TaskRecord) {
	r.UpdatedAt = f.tick()
}

func apply(r *mapper.TaskRecord, a mapper.Assignment) error {
	switch a.Column {
	case "title":
		r.Title = a.Value.(string)
	case "description":
		r.Description = text(a.Value)
	case "category":
		r.Category = text(a.Value)
	case "completed":
		r.Completed = a.Value.(bool)
	case "priority":
		r.Priority = a.Value.(string)
	case "due_date":
		if a.Value == nil {
			r.DueDate = pgtype.Timestamptz{}
		} else {
			r.DueDate = pgtype.Timestamptz{Time: a.Value.(time.Time), Valid: true}
		}
	case "tags":
		r.Tags = slices.Clone(a.Value.([]string))
	default:
		return fmt.Errorf("column %q is not patchable", a.Column)
	}
	return nil
}

func text(v any) pgtype.Text {
	if v == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: v.(string), Valid: true}
}

func matches(r mapper.TaskRecord, f model.TaskFilter) bool {
	if f.Completed != nil && r.Completed != *f.Completed {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, model.Priority(r.Priority)) {
		return false
	}
	if len(f.Categories) > 0 && (!r.Category.Valid || !slices.Contains(f.Categories, r.Category.String)) {
		return false
	}
	if f.DueFrom != nil && (!r.DueDate.Valid || r.DueDate.Time.Before(*f.DueFrom)) {
		return false
	}
	if f.DueTo != nil && (!r.DueDate.Valid || r.DueDate.Time.After(*f.DueTo)) {
		return false
	}
	for _, tag := range f.Tags {
		if !slices.Contains(r.Tags, tag) {
			return false
		}
	}
	return true
}

func sortRecords(rs []mapper.TaskRecord, s model.SortOptions) {
	desc := s.Direction == model.SortDesc || (s.Direction == "" && (s.Field == "" || s.Field == model.SortCreatedAt))

	// newest first, then id, as the final tiebreak
	tiebreak := func(a, b mapper.TaskRecord) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}

	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		var cmp int
		switch s.Field {
		case model.SortDueDate:
			switch {
			case a.DueDate.Valid != b.DueDate.Valid:
				// NULLS LAST in both directions
				return a.DueDate.Valid
			case a.DueDate.Valid:
				cmp = a.DueDate.Time.Compare(b.DueDate.Time)
			}
		case model.SortPriority:
			cmp = model.Priority(a.Priority).Rank() - model.Priority(b.Priority).Rank()
		case model.SortTitle:
			cmp = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
			if cmp == 0 {
				cmp = strings.Compare(a.ID, b.ID)
			}
		}
		if cmp == 0 {
			return tiebreak(a, b)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

type Users struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func NewUsers() *Users {
	return &Users{users: make(map[string]model.User)}
}

func (f *Users) Create(_ context.Context, u model.User) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.User{}, repo.ErrorConflict
		}
	}
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	f.users[u.ID] = u
	return u, nil
}

func (f *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repo.ErrorNotFound
}

func (f *Users) GetByID(_ context.Context, id string) (model.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	u, ok := f.users[id]
	if !ok {
		return model.User{}, repo.ErrorNotFound
	}
	return u, nil
}
