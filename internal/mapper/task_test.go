package mapper

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/taskflow/internal/model"
)

func TestToDomain(t *testing.T) {
	due := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	task := ToDomain(TaskRecord{
		ID:          "t1",
		Title:       "Write",
		Description: pgtype.Text{String: "draft", Valid: true},
		Priority:    "high",
		DueDate:     pgtype.Timestamptz{Time: due, Valid: true},
		UserID:      "u1",
	})

	require.NotNil(t, task.Description)
	assert.Equal(t, "draft", *task.Description)
	assert.Nil(t, task.Category)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))
	assert.Equal(t, []string{}, task.Tags)

	assert.Equal(t, []model.Task{}, ToDomainList(nil))
}

func TestToPersisted(t *testing.T) {
	empty := ""
	cat := "home"
	r := ToPersisted(model.CreateTaskInput{
		Title:       "Clean",
		Description: &empty,
		Category:    &cat,
		Priority:    model.PriorityLow,
	}, "owner")

	assert.Equal(t, "owner", r.UserID)
	assert.False(t, r.Description.Valid)
	assert.Equal(t, pgtype.Text{String: "home", Valid: true}, r.Category)
	assert.False(t, r.DueDate.Valid)
	assert.Equal(t, []string{}, r.Tags)
}

func TestToPersistedPatch(t *testing.T) {
	t.Run("absent fields are left out", func(t *testing.T) {
		p := ToPersistedPatch(model.UpdateTaskInput{ID: "1", Title: model.Some("new")})
		assert.Equal(t, []string{"title"}, p.Columns())
		v, ok := p.Get("title")
		assert.True(t, ok)
		assert.Equal(t, "new", v)
	})

	t.Run("null clears optional columns", func(t *testing.T) {
		p := ToPersistedPatch(model.UpdateTaskInput{
			Description: model.Null[string](),
			Category:    model.Some(""),
			DueDate:     model.Null[time.Time](),
			Tags:        model.Null[[]string](),
		})
		assert.Equal(t, []string{"description", "category", "due_date", "tags"}, p.Columns())
		for _, col := range []string{"description", "category", "due_date"} {
			v, _ := p.Get(col)
			assert.Nil(t, v, col)
		}
		tags, _ := p.Get("tags")
		assert.Equal(t, []string{}, tags)
	})

	t.Run("null completed is ignored", func(t *testing.T) {
		p := ToPersistedPatch(model.UpdateTaskInput{Completed: model.Null[bool]()})
		assert.Empty(t, p)
	})

	t.Run("priority is stored as text", func(t *testing.T) {
		p := ToPersistedPatch(model.UpdateTaskInput{Priority: model.Some(model.PriorityUrgent), Completed: model.Some(true)})
		v, _ := p.Get("priority")
		assert.Equal(t, "urgent", v)
		done, _ := p.Get("completed")
		assert.Equal(t, true, done)
	})
}
