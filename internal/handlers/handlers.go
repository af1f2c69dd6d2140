package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"smarttodo/internal/tasks"
)

// Settings carries the query defaults the handlers fall back to.
type Settings struct {
	UpcomingDays  int
	AnalyticsDays int
	PreferLocal   bool
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	manager  *tasks.Manager
	settings Settings
}

// New creates a new Handlers instance.
func New(m *tasks.Manager, settings Settings) *Handlers {
	if settings.UpcomingDays <= 0 {
		settings.UpcomingDays = tasks.DefaultUpcomingDays
	}
	if settings.AnalyticsDays <= 0 {
		settings.AnalyticsDays = tasks.DefaultAnalyticsDays
	}
	settings.UpcomingDays = min(settings.UpcomingDays, tasks.MaxWindowDays)
	settings.AnalyticsDays = min(settings.AnalyticsDays, tasks.MaxWindowDays)
	return &Handlers{
		manager:  m,
		settings: settings,
	}
}

// Router builds the chi router serving the JSON API.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/api/summary", h.Summary)

	r.Get("/api/tasks", h.ListTasks)
	r.Post("/api/tasks", h.CreateTask)
	r.Get("/api/tasks/overdue", h.OverdueTasks)
	r.Get("/api/tasks/upcoming", h.UpcomingTasks)
	r.Get("/api/tasks/{id}", h.GetTask)
	r.Put("/api/tasks/{id}", h.UpdateTask)
	r.Delete("/api/tasks/{id}", h.DeleteTask)
	r.Post("/api/tasks/{id}/complete", h.CompleteTask)
	r.Post("/api/tasks/{id}/snooze", h.SnoozeTask)
	r.Put("/api/tasks/{id}/priority", h.SetPriority)

	r.Post("/api/sync", h.Sync)

	r.Get("/api/analytics/completed", h.CompletedPerDay)
	r.Get("/api/analytics/priorities", h.PriorityDistribution)

	return r
}

// parseID extracts and parses an integer ID from URL parameters.
func parseID(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt reads a non-negative integer query parameter, falling back to def
// when it is absent.
func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// queryDays reads a day-count window. Windows longer than
// tasks.MaxWindowDays are rejected.
func queryDays(r *http.Request, def int) (int, bool) {
	days, ok := queryInt(r, "days", def)
	if !ok || days > tasks.MaxWindowDays {
		return 0, false
	}
	return days, true
}

// queryBool reads a boolean query parameter, falling back to def when it is
// absent.
func queryBool(r *http.Request, key string, def bool) (bool, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// decodeJSON decodes an optional request body into dst. An empty body leaves
// dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// respondJSON writes data as a JSON response.
func respondJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]string{"error": message})
}
