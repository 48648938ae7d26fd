// Package mapper converts between the persisted task row and the domain model.
package mapper

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/BuzzLyutic/taskflow/internal/model"
)

// TaskRecord is a row of the tasks table. NULL columns are pgtype values with Valid=false.
type TaskRecord struct {
	ID          string             `db:"id"`
	Title       string             `db:"title"`
	Description pgtype.Text        `db:"description"`
	Completed   bool               `db:"completed"`
	Priority    string             `db:"priority"`
	Category    pgtype.Text        `db:"category"`
	DueDate     pgtype.Timestamptz `db:"due_date"`
	Tags        []string           `db:"tags"`
	CreatedAt   time.Time          `db:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at"`
	UserID      string             `db:"user_id"`
}

// Assignment is a single "column = value" of an UPDATE. A nil Value writes NULL.
type Assignment struct {
	Column string
	Value  any
}

// Patch holds only the columns a partial update supplies, in a stable order.
type Patch []Assignment

func (p Patch) Columns() []string {
	cols := make([]string, len(p))
	for i, a := range p {
		cols[i] = a.Column
	}
	return cols
}

func (p Patch) Get(column string) (any, bool) {
	for _, a := range p {
		if a.Column == column {
			return a.Value, true
		}
	}
	return nil, false
}

func ToDomain(r TaskRecord) model.Task {
	t := model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: textPtr(r.Description),
		Completed:   r.Completed,
		Priority:    model.Priority(r.Priority),
		Category:    textPtr(r.Category),
		Tags:        r.Tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		UserID:      r.UserID,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		t.DueDate = &due
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}

func ToDomainList(records []TaskRecord) []model.Task {
	tasks := make([]model.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, ToDomain(r))
	}
	return tasks
}

// ToPersisted builds the full row for an insert. Unset optional fields become NULL.
func ToPersisted(in model.CreateTaskInput, ownerID string) TaskRecord {
	r := TaskRecord{
		Title:       in.Title,
		Description: text(in.Description),
		Priority:    string(in.Priority),
		Category:    text(in.Category),
		Tags:        in.Tags,
		UserID:      ownerID,
	}
	if in.DueDate != nil {
		r.DueDate = pgtype.Timestamptz{Time: *in.DueDate, Valid: true}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r
}

// ToPersistedPatch keeps absent fields out of the patch entirely, so they are never overwritten.
func ToPersistedPatch(in model.UpdateTaskInput) Patch {
	var p Patch
	if in.Title.Set {
		p = append(p, Assignment{"title", in.Title.Value})
	}
	if in.Description.Set {
		p = append(p, Assignment{"description", nullableString(in.Description)})
	}
	if in.Completed.Set && !in.Completed.Null {
		p = append(p, Assignment{"completed", in.Completed.Value})
	}
	if in.Priority.Set {
		p = append(p, Assignment{"priority", string(in.Priority.Value)})
	}
	if in.Category.Set {
		p = append(p, Assignment{"category", nullableString(in.Category)})
	}
	if in.DueDate.Set {
		var due any
		if in.DueDate.Present() {
			due = in.DueDate.Value
		}
		p = append(p, Assignment{"due_date", due})
	}
	if in.Tags.Set {
		tags := in.Tags.Value
		if tags == nil {
			tags = []string{}
		}
		p = append(p, Assignment{"tags", tags})
	}
	return p
}

func text(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func nullableString(o model.Optional[string]) any {
	if !o.Present() || o.Value == "" {
		return nil
	}
	return o.Value
}
