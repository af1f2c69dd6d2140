package tasks

import (
	"sort"

	"smarttodo/internal/models"
)

// Overdue returns open tasks whose due date is before today, in collection
// order. Tasks with an unparseable due date are skipped.
func (m *Manager) Overdue() []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	today := m.today()
	return m.filter(func(t models.Task) bool {
		if t.IsCompleted() {
			return false
		}
		due, ok := t.Due()
		return ok && due.Before(today)
	})
}

// Upcoming returns open tasks due between today and today+days inclusive,
// earliest first. days is clamped to MaxWindowDays.
func (m *Manager) Upcoming(days int) []models.Task {
	days = clampWindow(days)

	m.mu.Lock()
	defer m.mu.Unlock()

	today := m.today()
	end := today.AddDate(0, 0, days)
	out := m.filter(func(t models.Task) bool {
		if t.IsCompleted() {
			return false
		}
		due, ok := t.Due()
		return ok && !due.Before(today) && !due.After(end)
	})

	sort.SliceStable(out, func(i, j int) bool {
		di, _ := out[i].Due()
		dj, _ := out[j].Due()
		return di.Before(dj)
	})
	return out
}
