package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskflow/internal/auth"
	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/service"
	"github.com/BuzzLyutic/taskflow/internal/validation"
	"github.com/BuzzLyutic/taskflow/pkg/respond"
)

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

// Routes монтируется под /api/tasks
func (h *TaskHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/by-date", h.ByDate)
	r.Get("/grouped", h.Grouped)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/toggle", h.Toggle)
	})
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req validation.CreateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	idempKey := r.Header.Get("Idempotency-Key")
	task, err := h.service.Create(r.Context(), auth.IdentityFrom(r.Context()), req, idempKey)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%s", task.ID))
	respond.OK(w, r, http.StatusCreated, task, "Task created successfully")
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetByID(r.Context(), auth.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	if task == nil {
		respond.Error(w, r, http.StatusNotFound, "Task not found")
		return
	}
	respond.OK(w, r, http.StatusOK, task, "Task retrieved successfully")
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	who := auth.IdentityFrom(r.Context())
	q := r.URL.Query()

	filter, err := validation.Filters(filterRequest(q), h.service.Location())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	// чужой userId не раскрывает ничего
	if uid := q.Get("userId"); uid != "" && !who.Empty() && uid != who.UserID {
		respond.OK(w, r, http.StatusOK, []model.Task{}, "Tasks retrieved successfully")
		return
	}

	tasks, err := h.service.List(r.Context(), who, filter)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, tasks, "Tasks retrieved successfully")
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req validation.UpdateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	task, err := h.service.Update(r.Context(), auth.IdentityFrom(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, task, "Task updated successfully")
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), auth.IdentityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.Message(w, r, http.StatusOK, "Task deleted successfully")
}

func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.ToggleCompletion(r.Context(), auth.IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, task, "Task updated successfully")
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, stats, "")
}

// ByDate: ?date=YYYY-MM-DD, по умолчанию сегодня в часовом поясе сервиса
func (h *TaskHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := h.service.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := validation.ParseDateIn(raw, h.service.Location())
		if err != nil {
			respond.Invalid(w, r, "", []respond.FieldError{{Field: "date", Message: "Date must be a valid date"}})
			return
		}
		y, m, d := parsed.Date()
		date = time.Date(y, m, d, 0, 0, 0, 0, h.service.Location())
	}

	daily, err := h.service.Daily(r.Context(), auth.IdentityFrom(r.Context()), date)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, daily, "")
}

func (h *TaskHandler) Grouped(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context(), auth.IdentityFrom(r.Context()), model.TaskFilter{})
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, service.GroupByCategory(tasks), "")
}

func filterRequest(q url.Values) validation.FilterRequest {
	return validation.FilterRequest{
		Completed:  q.Get("completed"),
		Priorities: multi(q, "priority"),
		Categories: multi(q, "category"),
		DueFrom:    q.Get("dueFrom"),
		DueTo:      q.Get("dueTo"),
		Tags:       multi(q, "tags"),
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
	}
}

// multi принимает и повторяющиеся параметры, и значения через запятую
func multi(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
