package repo

import (
	"context"

	"github.com/BuzzLyutic/taskflow/internal/mapper"
	"github.com/BuzzLyutic/taskflow/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами.
// Все методы ограничены задачами владельца ownerID.
type TaskRepository interface {
	Create(ctx context.Context, r mapper.TaskRecord) (mapper.TaskRecord, error)
	// CreateIdempotent returns the task stored earlier under key instead of inserting
	// a second one; replayed reports which of the two happened.
	CreateIdempotent(ctx context.Context, r mapper.TaskRecord, key string) (rec mapper.TaskRecord, replayed bool, err error)
	Get(ctx context.Context, ownerID, id string) (mapper.TaskRecord, error)
	List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]mapper.TaskRecord, error)
	Update(ctx context.Context, ownerID, id string, patch mapper.Patch) (mapper.TaskRecord, error)
	// SetCompleted writes completed only if the stored value still equals expected.
	SetCompleted(ctx context.Context, ownerID, id string, expected, completed bool) (mapper.TaskRecord, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}
