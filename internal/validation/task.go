package validation

import (
	"strconv"
	"strings"
	"time"

	"github.com/BuzzLyutic/taskflow/internal/model"
)

// CreateTaskRequest is the wire shape of a creation payload.
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Priority    string   `json:"priority" validate:"required,oneof=low medium high urgent"`
	Category    *string  `json:"category" validate:"omitempty,max=50"`
	DueDate     *string  `json:"dueDate" validate:"omitempty,isodate"`
	Tags        []string `json:"tags"`
}

// UpdateTaskRequest is the wire shape of a partial update. Every field but ID
// may be absent, null or carry a value; absent fields are omitted when encoding.
type UpdateTaskRequest struct {
	ID          string                   `json:"id,omitempty"`
	Title       model.Optional[string]   `json:"title,omitzero"`
	Description model.Optional[string]   `json:"description,omitzero"`
	Priority    model.Optional[string]   `json:"priority,omitzero"`
	Category    model.Optional[string]   `json:"category,omitzero"`
	DueDate     model.Optional[string]   `json:"dueDate,omitzero"`
	Tags        model.Optional[[]string] `json:"tags,omitzero"`
	Completed   model.Optional[bool]     `json:"completed,omitzero"`
}

// updateRules mirrors UpdateTaskRequest with nil for absent and null fields.
type updateRules struct {
	ID          string  `json:"id" validate:"required"`
	Title       *string `json:"title" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Category    *string `json:"category" validate:"omitempty,max=50"`
	DueDate     *string `json:"dueDate" validate:"omitempty,isodate"`
}

// FilterRequest is the raw list query.
type FilterRequest struct {
	Completed  string   `json:"completed" validate:"omitempty,boolean"`
	Priorities []string `json:"priority" validate:"dive,oneof=low medium high urgent"`
	Categories []string `json:"category"`
	DueFrom    string   `json:"dueFrom" validate:"omitempty,isodate"`
	DueTo      string   `json:"dueTo" validate:"omitempty,isodate"`
	Tags       []string `json:"tags"`
	Sort       string   `json:"sort" validate:"omitempty,oneof=createdAt dueDate priority title"`
	Order      string   `json:"order" validate:"omitempty,oneof=asc desc"`
}

// CreateTask validates req. Dates without a zone are read in loc (nil means UTC).
func CreateTask(req CreateTaskRequest, loc *time.Location) (model.CreateTaskInput, error) {
	errs := &Errors{}
	check("createTask", req, errs)
	if err := errs.orNil(); err != nil {
		return model.CreateTaskInput{}, err
	}

	in := model.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		Category:    req.Category,
		Tags:        req.Tags,
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, _ := ParseDateIn(*req.DueDate, loc)
		in.DueDate = &due
	}
	return in, nil
}

func UpdateTask(req UpdateTaskRequest, loc *time.Location) (model.UpdateTaskInput, error) {
	errs := &Errors{}
	check("updateTask", updateRules{
		ID:          req.ID,
		Title:       req.Title.Ptr(),
		Description: req.Description.Ptr(),
		Priority:    req.Priority.Ptr(),
		Category:    req.Category.Ptr(),
		DueDate:     req.DueDate.Ptr(),
	}, errs)

	// обязательные поля нельзя очистить
	if req.Title.Set && (req.Title.Null || req.Title.Value == "") {
		errs.add("title", messages["title.required"])
	}
	if req.Priority.Set && (req.Priority.Null || req.Priority.Value == "") {
		errs.add("priority", messages["priority.required"])
	}
	if err := errs.orNil(); err != nil {
		return model.UpdateTaskInput{}, err
	}

	in := model.UpdateTaskInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Completed:   req.Completed,
	}
	if req.Priority.Set {
		in.Priority = model.Some(model.Priority(req.Priority.Value))
	}
	switch {
	case !req.DueDate.Set:
	case req.DueDate.Null || req.DueDate.Value == "":
		in.DueDate = model.Null[time.Time]()
	default:
		due, _ := ParseDateIn(req.DueDate.Value, loc)
		in.DueDate = model.Some(due)
	}
	return in, nil
}

// Filters validates a list query. Range bounds without a zone are read in loc.
func Filters(req FilterRequest, loc *time.Location) (model.TaskFilter, error) {
	errs := &Errors{}
	check("filters", req, errs)
	if err := errs.orNil(); err != nil {
		return model.TaskFilter{}, err
	}

	var f model.TaskFilter
	if req.Completed != "" {
		completed, _ := strconv.ParseBool(req.Completed)
		f.Completed = &completed
	}
	for _, p := range req.Priorities {
		f.Priorities = append(f.Priorities, model.Priority(p))
	}
	f.Categories = req.Categories
	f.Tags = req.Tags
	if req.DueFrom != "" {
		from, _ := ParseDateIn(req.DueFrom, loc)
		f.DueFrom = &from
	}
	if req.DueTo != "" {
		to, _ := ParseDateIn(req.DueTo, loc)
		// голая дата означает весь день включительно, в том числе при переходе на летнее время
		if isBareDate(req.DueTo) {
			to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.DueTo = &to
	}
	f.Sort = model.SortOptions{
		Field:     model.SortField(req.Sort),
		Direction: model.SortDirection(req.Order),
	}
	return f, nil
}

func isBareDate(s string) bool {
	return len(strings.TrimSpace(s)) == len("2006-01-02")
}
