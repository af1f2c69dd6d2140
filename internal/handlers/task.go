package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"smarttodo/internal/models"
	"smarttodo/internal/tasks"
)

// TaskView is a task as served by the API, with its derived urgency.
type TaskView struct {
	models.Task
	Urgency   float64         `json:"urgency"`
	Urgent    bool            `json:"urgent"`
	DueStatus tasks.DueStatus `json:"due_status,omitempty"`
}

func newTaskView(t models.Task, today time.Time) TaskView {
	score := tasks.ComputeUrgency(t, today)
	return TaskView{
		Task:      t,
		Urgency:   score,
		Urgent:    tasks.IsUrgent(score),
		DueStatus: tasks.ClassifyDue(t, today),
	}
}

func newTaskViews(list []models.Task, today time.Time) []TaskView {
	out := make([]TaskView, 0, len(list))
	for _, t := range list {
		out = append(out, newTaskView(t, today))
	}
	return out
}

type createTaskRequest struct {
	Title    string `json:"title"`
	DueDate  string `json:"due_date"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

type updateTaskRequest struct {
	Title    *string `json:"title"`
	DueDate  *string `json:"due_date"`
	Priority *string `json:"priority"`
	Status   *string `json:"status"`
	Notes    *string `json:"notes"`
}

// ListTasks lists tasks. q searches title and notes, priority filters by
// level, and sort=urgency orders by descending urgency.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var list []models.Task
	switch {
	case query.Get("q") != "":
		list = h.manager.Search(query.Get("q"))
	case query.Get("priority") != "":
		list = h.manager.ByPriority(query.Get("priority"))
	case query.Get("sort") == "urgency":
		list = h.manager.SortedByUrgency()
	case query.Get("sort") == "" || query.Get("sort") == "id":
		list = h.manager.List()
	default:
		respondError(w, http.StatusBadRequest, "sort must be 'id' or 'urgency'")
		return
	}

	respondJSON(w, http.StatusOK, newTaskViews(list, h.today()))
}

// GetTask returns a single task.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, ok := h.manager.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	respondJSON(w, http.StatusOK, newTaskView(task, h.today()))
}

// CreateTask creates a new task.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := h.manager.Add(r.Context(), tasks.NewTask{
		Title:    req.Title,
		DueDate:  req.DueDate,
		Priority: req.Priority,
		Status:   req.Status,
		Notes:    req.Notes,
	})
	if err != nil {
		respondManagerError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newTaskView(task, h.today()))
}

// UpdateTask updates the fields present in the request body.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := h.manager.Update(r.Context(), id, tasks.TaskUpdate{
		Title:    req.Title,
		DueDate:  req.DueDate,
		Priority: req.Priority,
		Status:   req.Status,
		Notes:    req.Notes,
	})
	if err != nil {
		respondManagerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskView(task, h.today()))
}

// DeleteTask deletes a task.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if !h.manager.Delete(r.Context(), id) {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CompleteTask marks a task as completed.
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.manager.Complete(r.Context(), id)
	if err != nil {
		respondManagerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskView(task, h.today()))
}

// SnoozeTask moves a task's due date forward. The body may carry
// {"days": n}; the default is one day.
func (h *Handlers) SnoozeTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	req := struct {
		Days int `json:"days"`
	}{Days: tasks.DefaultSnoozeDays}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if _, ok := h.manager.Get(id); !ok {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}

	task, ok := h.manager.Snooze(r.Context(), id, req.Days)
	if !ok {
		respondError(w, http.StatusConflict, "task has no due date to snooze")
		return
	}

	respondJSON(w, http.StatusOK, newTaskView(task, h.today()))
}

// SetPriority changes a task's priority.
func (h *Handlers) SetPriority(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req struct {
		Priority string `json:"priority"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json")
		return
	}

	task, err := h.manager.SetPriority(r.Context(), id, req.Priority)
	if err != nil {
		respondManagerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTaskView(task, h.today()))
}

// OverdueTasks lists open tasks past their due date.
func (h *Handlers) OverdueTasks(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newTaskViews(h.manager.Overdue(), h.today()))
}

// UpcomingTasks lists open tasks due within ?days= days, earliest first.
func (h *Handlers) UpcomingTasks(w http.ResponseWriter, r *http.Request) {
	days, ok := queryDays(r, h.settings.UpcomingDays)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid days")
		return
	}

	respondJSON(w, http.StatusOK, newTaskViews(h.manager.Upcoming(days), h.today()))
}

func (h *Handlers) today() time.Time {
	return h.manager.Today()
}

// respondManagerError maps manager errors to status codes.
func respondManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tasks.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tasks.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("internal server error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
