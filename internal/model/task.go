package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities перечисляет допустимые приоритеты в порядке возрастания
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank returns 1..4 for known priorities and 0 otherwise.
func (p Priority) Rank() int {
	for i, known := range Priorities {
		if p == known {
			return i + 1
		}
	}
	return 0
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	Category    *string    `json:"category,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	UserID      string     `json:"userId"`
}

// CreateTaskInput is a validated creation payload.
type CreateTaskInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	Category    *string    `json:"category,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Tags        []string   `json:"tags"`
}

// UpdateTaskInput is a validated partial update. Fields that are not Set are left untouched.
type UpdateTaskInput struct {
	ID          string              `json:"id"`
	Title       Optional[string]    `json:"title,omitzero"`
	Description Optional[string]    `json:"description,omitzero"`
	Priority    Optional[Priority]  `json:"priority,omitzero"`
	Category    Optional[string]    `json:"category,omitzero"`
	DueDate     Optional[time.Time] `json:"dueDate,omitzero"`
	Tags        Optional[[]string]  `json:"tags,omitzero"`
	Completed   Optional[bool]      `json:"completed,omitzero"`
}

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortTitle     SortField = "title"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SortOptions struct {
	Field     SortField
	Direction SortDirection
}

// TaskFilter: все условия объединяются через AND, пустой фильтр возвращает все задачи
type TaskFilter struct {
	Completed  *bool
	Priorities []Priority
	Categories []string
	DueFrom    *time.Time
	DueTo      *time.Time
	Tags       []string
	Sort       SortOptions
}

type TaskStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
	Today     int `json:"today"`
}

// DailyTasks is the due-date view of a single calendar day.
type DailyTasks struct {
	Date           string `json:"date"`
	Tasks          []Task `json:"tasks"`
	CompletedCount int    `json:"completedCount"`
	TotalCount     int    `json:"totalCount"`
}
