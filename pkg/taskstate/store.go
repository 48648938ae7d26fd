// Package taskstate keeps a client-side copy of the signed-in user's tasks
// in sync with the API and notifies subscribers on every change.
package taskstate

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/pkg/client"
)

var (
	// ErrSignedOut is returned by every operation while no identity is set.
	ErrSignedOut = errors.New("user not authenticated")
	// ErrStale: пользователь сменился во время запроса, результат отброшен
	ErrStale = errors.New("identity changed during request")
)

// TaskAPI is the part of the API the store talks to. *client.Client satisfies it.
type TaskAPI interface {
	List(ctx context.Context, f client.Filter) ([]client.Task, error)
	Create(ctx context.Context, in client.CreateInput) (client.Task, error)
	Update(ctx context.Context, id string, in client.UpdateInput) (client.Task, error)
	Delete(ctx context.Context, id string) error
	ToggleCompletion(ctx context.Context, id string) (client.Task, error)
}

// Snapshot is a consistent view of the store at one moment.
type Snapshot struct {
	Tasks   []client.Task
	Loading bool
	Err     string
}

type Store struct {
	api    TaskAPI
	logger *zap.Logger

	mu       sync.Mutex
	identity *model.Identity
	gen      uint64 // растет при каждой смене пользователя
	tasks    []client.Task
	inFlight int
	errMsg   string

	subsMu sync.Mutex
	nextID int
	subs   map[int]func(Snapshot)
}

func New(api TaskAPI, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:    api,
		logger: logger,
		tasks:  []client.Task{},
		subs:   make(map[int]func(Snapshot)),
	}
}

// Tasks returns a copy of the current collection.
func (s *Store) Tasks() []client.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

// Loading reports whether any request started by the store is still running.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Err is the message of the last failed operation, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{Tasks: slices.Clone(s.tasks), Loading: s.inFlight > 0, Err: s.errMsg}
}

// Subscribe registers fn to be called after every state change. fn runs outside
// the store's lock and may call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// SetIdentity switches the signed-in user. nil clears the collection without
// any request; otherwise the collection is cleared and fetched for the new user.
// Responses still in flight for the previous user are discarded.
func (s *Store) SetIdentity(ctx context.Context, who *model.Identity) error {
	s.mu.Lock()
	s.gen++
	s.tasks = []client.Task{}
	s.errMsg = ""
	if who == nil || who.Empty() {
		s.identity = nil
		s.mu.Unlock()
		s.notify()
		return nil
	}
	id := *who
	s.identity = &id
	s.mu.Unlock()
	s.notify()

	return s.Refetch(ctx, model.TaskFilter{})
}

// Refetch replaces the collection with the server's view under filter.
func (s *Store) Refetch(ctx context.Context, filter client.Filter) error {
	return run(s, ctx, "refetch", func(ctx context.Context) ([]client.Task, error) {
		return s.api.List(ctx, filter)
	}, func(_ []client.Task, fetched []client.Task) []client.Task {
		if fetched == nil {
			return []client.Task{}
		}
		return fetched
	})
}

// Create prepends the created task.
func (s *Store) Create(ctx context.Context, in client.CreateInput) (client.Task, error) {
	var created client.Task
	err := run(s, ctx, "create", func(ctx context.Context) (client.Task, error) {
		return s.api.Create(ctx, in)
	}, func(tasks []client.Task, t client.Task) []client.Task {
		created = t
		return append([]client.Task{t}, tasks...)
	})
	return created, err
}

func (s *Store) Update(ctx context.Context, id string, in client.UpdateInput) (client.Task, error) {
	var updated client.Task
	err := run(s, ctx, "update", func(ctx context.Context) (client.Task, error) {
		return s.api.Update(ctx, id, in)
	}, func(tasks []client.Task, t client.Task) []client.Task {
		updated = t
		return replace(tasks, t)
	})
	return updated, err
}

func (s *Store) ToggleCompletion(ctx context.Context, id string) (client.Task, error) {
	var toggled client.Task
	err := run(s, ctx, "toggle", func(ctx context.Context) (client.Task, error) {
		return s.api.ToggleCompletion(ctx, id)
	}, func(tasks []client.Task, t client.Task) []client.Task {
		toggled = t
		return replace(tasks, t)
	})
	return toggled, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return run(s, ctx, "delete", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.Delete(ctx, id)
	}, func(tasks []client.Task, _ struct{}) []client.Task {
		return slices.DeleteFunc(tasks, func(t client.Task) bool { return t.ID == id })
	})
}

// run выполняет запрос и применяет результат только если за время запроса
// пользователь не сменился и запрос завершился успешно
func run[T any](s *Store, ctx context.Context, op string, call func(context.Context) (T, error), apply func([]client.Task, T) []client.Task) error {
	s.mu.Lock()
	if s.identity == nil {
		s.errMsg = ErrSignedOut.Error()
		s.mu.Unlock()
		s.notify()
		return ErrSignedOut
	}
	gen := s.gen
	s.errMsg = ""
	s.inFlight++
	s.mu.Unlock()
	s.notify()

	result, err := call(ctx)

	s.mu.Lock()
	s.inFlight--
	stale := gen != s.gen
	switch {
	case stale:
		s.logger.Debug("discarding stale response", zap.String("op", op))
	case err != nil:
		s.errMsg = err.Error()
		s.logger.Warn("task request failed", zap.String("op", op), zap.Error(err))
	default:
		s.tasks = apply(slices.Clone(s.tasks), result)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		return err
	}
	if stale {
		return ErrStale
	}
	return nil
}

func replace(tasks []client.Task, t client.Task) []client.Task {
	for i := range tasks {
		if tasks[i].ID == t.ID {
			tasks[i] = t
			return tasks
		}
	}
	return tasks
}
