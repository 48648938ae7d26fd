package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/taskflow/internal/mapper"
	"github.com/BuzzLyutic/taskflow/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, title, description, completed, priority, category, due_date, tags, created_at, updated_at, user_id`

// updated_at строго растет даже если два обновления попали в одну микросекунду
const touchUpdatedAt = `updated_at = GREATEST(now(), updated_at + interval '1 microsecond')`

// колонки, которые разрешено менять через Patch
var patchable = map[string]bool{
	"title":       true,
	"description": true,
	"completed":   true,
	"priority":    true,
	"category":    true,
	"due_date":    true,
	"tags":        true,
}

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *TaskRepo) Create(ctx context.Context, t mapper.TaskRecord) (mapper.TaskRecord, error) {
	return r.insert(ctx, r.pool, t)
}

func (r *TaskRepo) insert(ctx context.Context, q querier, t mapper.TaskRecord) (mapper.TaskRecord, error) {
	rows, err := q.Query(ctx, `
		INSERT INTO tasks (title, description, priority, category, due_date, tags, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Priority, t.Category, t.DueDate, t.Tags, t.UserID,
	)
	if err != nil {
		return t, mapError(err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[mapper.TaskRecord])
	return rec, mapError(err)
}

func (r *TaskRepo) CreateIdempotent(ctx context.Context, t mapper.TaskRecord, key string) (mapper.TaskRecord, bool, error) {
	var (
		rec      mapper.TaskRecord
		replayed bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// сериализуем конкурентные запросы с одним ключом
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`, t.UserID, key); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			SELECT `+prefixed("t.", taskColumns)+`
			FROM idempotency_keys k
			JOIN tasks t ON t.id = k.task_id
			WHERE k.user_id = $1 AND k.key = $2
		`, t.UserID, key)
		if err != nil {
			return err
		}
		existing, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[mapper.TaskRecord])
		if err == nil {
			rec, replayed = existing, true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		created, err := r.insert(ctx, tx, t)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO idempotency_keys (user_id, key, task_id) VALUES ($1, $2, $3)
			ON CONFLICT (user_id, key) DO UPDATE SET task_id = EXCLUDED.task_id, created_at = now()
		`, t.UserID, key, created.ID); err != nil {
			return err
		}
		rec = created
		return nil
	})
	return rec, replayed, mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, ownerID, id string) (mapper.TaskRecord, error) {
	if !validID(id) {
		return mapper.TaskRecord{}, ErrorNotFound
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	if err != nil {
		return mapper.TaskRecord{}, err
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[mapper.TaskRecord])
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, ErrorNotFound
	}
	return rec, err
}

func (r *TaskRepo) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]mapper.TaskRecord, error) {
	query, args := buildListQuery(ownerID, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[mapper.TaskRecord])
}

func (r *TaskRepo) Update(ctx context.Context, ownerID, id string, patch mapper.Patch) (mapper.TaskRecord, error) {
	if !validID(id) {
		return mapper.TaskRecord{}, ErrorNotFound
	}

	sets := make([]string, 0, len(patch)+1)
	args := []any{id, ownerID}
	for _, a := range patch {
		if !patchable[a.Column] {
			return mapper.TaskRecord{}, fmt.Errorf("column %q is not patchable", a.Column)
		}
		args = append(args, a.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, len(args)))
	}
	sets = append(sets, touchUpdatedAt)

	rows, err := r.pool.Query(ctx, `
		UPDATE tasks
		SET `+strings.Join(sets, ", ")+`
		WHERE id = $1 AND user_id = $2
		RETURNING `+taskColumns,
		args...,
	)
	if err != nil {
		return mapper.TaskRecord{}, mapError(err)
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[mapper.TaskRecord])
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, ErrorNotFound
	}
	return rec, mapError(err)
}

func (r *TaskRepo) SetCompleted(ctx context.Context, ownerID, id string, expected, completed bool) (mapper.TaskRecord, error) {
	if !validID(id) {
		return mapper.TaskRecord{}, ErrorNotFound
	}
	rows, err := r.pool.Query(ctx, `
		UPDATE tasks
		SET completed = $4, `+touchUpdatedAt+`
		WHERE id = $1 AND user_id = $2 AND completed = $3
		RETURNING `+taskColumns,
		id, ownerID, expected, completed,
	)
	if err != nil {
		return mapper.TaskRecord{}, err
	}
	rec, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[mapper.TaskRecord])
	if !errors.Is(err, pgx.ErrNoRows) {
		return rec, err
	}

	// строка не обновилась: либо ее нет, либо значение уже изменили
	var exists bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)
	`, id, ownerID).Scan(&exists); err != nil {
		return rec, err
	}
	if exists {
		return rec, ErrorConflict
	}
	return rec, ErrorNotFound
}

func (r *TaskRepo) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return ErrorNotFound
	}
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}

// buildListQuery собирает WHERE из фильтра, условия объединяются через AND
func buildListQuery(ownerID string, f model.TaskFilter) (string, []any) {
	var (
		sb   strings.Builder
		args = []any{ownerID}
	)

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)

	add := func(cond string, v any) {
		args = append(args, v)
		sb.WriteString(fmt.Sprintf(" AND "+cond, len(args)))
	}

	if f.Completed != nil {
		add("completed = $%d", *f.Completed)
	}
	if len(f.Priorities) > 0 {
		priorities := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			priorities[i] = string(p)
		}
		add("priority = ANY($%d)", priorities)
	}
	if len(f.Categories) > 0 {
		add("category = ANY($%d)", f.Categories)
	}
	if f.DueFrom != nil {
		add("due_date >= $%d", *f.DueFrom)
	}
	if f.DueTo != nil {
		add("due_date <= $%d", *f.DueTo)
	}
	if len(f.Tags) > 0 {
		add("tags @> $%d", f.Tags)
	}

	sb.WriteString(" ORDER BY " + orderClause(f.Sort))
	return sb.String(), args
}

const priorityRank = `CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 END`

func orderClause(s model.SortOptions) string {
	const tiebreak = "created_at DESC, id DESC"

	dir := "DESC"
	if s.Direction == model.SortAsc || (s.Direction == "" && s.Field != "" && s.Field != model.SortCreatedAt) {
		dir = "ASC"
	}

	switch s.Field {
	case model.SortDueDate:
		return "due_date " + dir + " NULLS LAST, " + tiebreak
	case model.SortPriority:
		return priorityRank + " " + dir + ", " + tiebreak
	case model.SortTitle:
		return "lower(title) " + dir + ", " + tiebreak
	default:
		return "created_at " + dir + ", id " + dir
	}
}

func prefixed(prefix, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

// validID принимает только канонический вид xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx,
// остальные формы uuid.Parse postgres отвергает
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
