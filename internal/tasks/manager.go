// Package tasks owns the in-memory task collection. It is the only mutator of
// that collection and keeps the local task file and the optional remote row
// store in step with it.
package tasks

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"smarttodo/internal/models"
	"smarttodo/internal/store"
)

// Manager holds the authoritative task collection for the process.
type Manager struct {
	mu     sync.Mutex
	tasks  []models.Task
	local  store.LocalStore
	remote store.Remote
	now    func() time.Time
	logger *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRemote makes remote the active row store. Without it the manager runs
// purely local.
func WithRemote(remote store.Remote) Option {
	return func(m *Manager) {
		m.remote = remote
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger used for absorbed collaborator failures.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a manager and loads the collection from local.
func New(local store.LocalStore, opts ...Option) *Manager {
	m := &Manager{
		local:  local,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.load()
	return m
}

// NewTask carries the fields accepted by Add.
type NewTask struct {
	Title    string
	DueDate  string
	Priority string
	Status   string
	Notes    string
}

// TaskUpdate lists the fields Update may change. Nil fields are left alone.
type TaskUpdate struct {
	Title    *string
	DueDate  *string
	Status   *string
	Priority *string
	Notes    *string
}

// RemoteActive reports whether a remote row store is configured.
func (m *Manager) RemoteActive() bool {
	return m.remote != nil
}

func (m *Manager) load() {
	loaded, err := m.local.Load()
	if err != nil {
		m.logger.Printf("failed to load tasks, starting empty: %v", err)
	}

	m.tasks = make([]models.Task, 0, len(loaded))
	seen := make(map[int64]bool, len(loaded))
	for _, t := range loaded {
		if t.ID != nil && seen[*t.ID] {
			m.logger.Printf("duplicate task id %d in local store, renumbering", *t.ID)
			t.ID = nil
		}
		if t.ID != nil {
			seen[*t.ID] = true
		}
		m.tasks = append(m.tasks, t)
	}

	for i := range m.tasks {
		if m.tasks[i].ID == nil {
			m.tasks[i].ID = models.Int64(m.nextLocalID())
		}
	}
}

// Add validates and creates a task. With an active remote the row is inserted
// there first and the remote-issued id adopted; otherwise the next local id is
// used.
func (m *Manager) Add(ctx context.Context, in NewTask) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, &ValidationError{Field: "title", Msg: "title is required"}
	}
	dueDate := strings.TrimSpace(in.DueDate)
	if dueDate != "" {
		if _, ok := models.ParseDate(dueDate); !ok {
			return models.Task{}, &ValidationError{Field: "due_date", Msg: "due date must be YYYY-MM-DD"}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.timestamp()
	task := models.Task{
		Title:     title,
		DueDate:   dueDate,
		Priority:  models.NormalizePriority(in.Priority),
		Status:    models.NormalizeStatus(in.Status),
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if task.IsCompleted() {
		task.CompletedAt = now
	}

	if m.remote != nil {
		row, err := m.remote.Insert(ctx, task.ToRow())
		if err != nil {
			m.logger.Printf("remote insert failed, keeping task local: %v", err)
		} else if row.ID != nil {
			m.claimID(*row.ID, -1)
			task.ID = models.Int64(*row.ID)
		}
	}
	if task.ID == nil {
		task.ID = models.Int64(m.nextLocalID())
	}

	m.tasks = append(m.tasks, task)
	m.save()
	return task.Clone(), nil
}

// Update applies upd to the task with the given id.
func (m *Manager) Update(ctx context.Context, id int64, upd TaskUpdate) (models.Task, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return models.Task{}, &ValidationError{Field: "title", Msg: "title is required"}
	}
	if upd.DueDate != nil && strings.TrimSpace(*upd.DueDate) != "" {
		if _, ok := models.ParseDate(*upd.DueDate); !ok {
			return models.Task{}, &ValidationError{Field: "due_date", Msg: "due date must be YYYY-MM-DD"}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return models.Task{}, ErrNotFound
	}
	task := &m.tasks[i]
	now := m.timestamp()

	if upd.Title != nil {
		task.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.DueDate != nil {
		task.DueDate = strings.TrimSpace(*upd.DueDate)
	}
	if upd.Priority != nil {
		task.Priority = models.NormalizePriority(*upd.Priority)
	}
	if upd.Notes != nil {
		task.Notes = *upd.Notes
	}

	statusChanged := false
	if upd.Status != nil {
		status := models.NormalizeStatus(*upd.Status)
		if status != task.Status {
			statusChanged = true
			task.Status = status
			if status == models.StatusCompleted {
				task.CompletedAt = now
			} else {
				task.CompletedAt = ""
			}
		}
	}
	task.UpdatedAt = now

	if statusChanged && m.remote != nil {
		if _, err := m.remote.UpdateStatus(ctx, id, task.Status); err != nil {
			m.logger.Printf("remote status update for task %d failed: %v", id, err)
		}
	}

	m.save()
	return task.Clone(), nil
}

// Complete marks the task as Completed.
func (m *Manager) Complete(ctx context.Context, id int64) (models.Task, error) {
	status := string(models.StatusCompleted)
	return m.Update(ctx, id, TaskUpdate{Status: &status})
}

// SetPriority changes the priority of the task.
func (m *Manager) SetPriority(ctx context.Context, id int64, priority string) (models.Task, error) {
	return m.Update(ctx, id, TaskUpdate{Priority: &priority})
}

// Delete removes the task. It returns false, touching nothing, when no task
// has the id.
func (m *Manager) Delete(ctx context.Context, id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false
	}

	if m.remote != nil {
		if _, err := m.remote.Delete(ctx, id); err != nil && !store.IsRemoteKind(err, store.RemoteNotFound) {
			m.logger.Printf("remote delete for task %d failed: %v", id, err)
		}
	}

	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	m.save()
	return true
}

// DefaultSnoozeDays is how far Snooze moves a due date when no count is given.
const DefaultSnoozeDays = 1

// Snooze moves the due date forward by days. It reports false and changes
// nothing when the task is missing or has no usable due date.
func (m *Manager) Snooze(ctx context.Context, id int64, days int) (models.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	task := &m.tasks[i]

	due, ok := task.Due()
	if !ok {
		return models.Task{}, false
	}

	task.DueDate = models.FormatDate(due.AddDate(0, 0, days))
	task.UpdatedAt = m.timestamp()
	m.save()
	return task.Clone(), true
}

// Get returns a copy of the task with the given id.
func (m *Manager) Get(id int64) (models.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return m.tasks[i].Clone(), true
}

// List returns a copy of the collection in insertion order.
func (m *Manager) List() []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(models.Task) bool { return true })
}

// ByPriority returns the tasks whose priority matches after normalization.
func (m *Manager) ByPriority(priority string) []models.Task {
	p := models.NormalizePriority(priority)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(t models.Task) bool { return t.Priority == p })
}

// Search returns tasks whose title or notes contain query, ignoring case.
func (m *Manager) Search(query string) []models.Task {
	q := strings.ToLower(strings.TrimSpace(query))

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(t models.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Notes), q)
	})
}

func (m *Manager) filter(keep func(models.Task) bool) []models.Task {
	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func (m *Manager) indexOf(id int64) int {
	for i := range m.tasks {
		if m.tasks[i].ID != nil && *m.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) nextLocalID() int64 {
	var max int64
	for _, t := range m.tasks {
		if t.ID != nil && *t.ID > max {
			max = *t.ID
		}
	}
	return max + 1
}

// claimID makes id available for the task at index owner (-1 for a task not
// yet in the collection). A remote store never reissues an id it already
// knows, so any other holder is a local-only task and is renumbered.
func (m *Manager) claimID(id int64, owner int) {
	i := m.indexOf(id)
	if i < 0 || i == owner {
		return
	}
	next := m.nextLocalID()
	m.logger.Printf("remote issued id %d already used by a local-only task, renumbering it to %d", id, next)
	m.tasks[i].ID = models.Int64(next)
}

// Today returns the current calendar date according to the manager's clock.
func (m *Manager) Today() time.Time {
	return m.today()
}

func (m *Manager) today() time.Time {
	return models.Date(m.now())
}

func (m *Manager) timestamp() string {
	return models.FormatTimestamp(m.now())
}

func (m *Manager) save() {
	if err := m.local.Save(m.tasks); err != nil {
		m.logger.Printf("failed to save tasks: %v", err)
	}
}
