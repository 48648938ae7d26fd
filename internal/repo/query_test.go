package repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BuzzLyutic/taskflow/internal/model"
)

func TestBuildListQuery(t *testing.T) {
	done := true
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	query, args := buildListQuery("owner", model.TaskFilter{
		Completed:  &done,
		Priorities: []model.Priority{model.PriorityHigh, model.PriorityUrgent},
		DueFrom:    &from,
		Tags:       []string{"a"},
	})

	assert.Contains(t, query, "WHERE user_id = $1 AND completed = $2 AND priority = ANY($3) AND due_date >= $4 AND tags @> $5")
	assert.Equal(t, []any{"owner", true, []string{"high", "urgent"}, from, []string{"a"}}, args)
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name string
		sort model.SortOptions
		want string
	}{
		{"default newest first", model.SortOptions{}, "created_at DESC, id DESC"},
		{"created asc", model.SortOptions{Field: model.SortCreatedAt, Direction: model.SortAsc}, "created_at ASC, id ASC"},
		{"due date defaults asc", model.SortOptions{Field: model.SortDueDate}, "due_date ASC NULLS LAST, created_at DESC, id DESC"},
		{"title desc", model.SortOptions{Field: model.SortTitle, Direction: model.SortDesc}, "lower(title) DESC, created_at DESC, id DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderClause(tt.sort))
		})
	}

	assert.Contains(t, orderClause(model.SortOptions{Field: model.SortPriority}), "WHEN 'urgent' THEN 4 END ASC")
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
		{"6BA7B810-9DAD-11D1-80B4-00C04FD430C8", true},
		{"urn:uuid:6ba7b810-9dad-11d1-80b4-00c04fd430c8", false},
		{"{6ba7b810-9dad-11d1-80b4-00c04fd430c8}", false},
		{"6ba7b8109dad11d180b400c04fd430c8", false},
		{"6ba7b810-9dad-11d1-80b4-00c04fd430cz", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, validID(tt.id))
		})
	}
}
