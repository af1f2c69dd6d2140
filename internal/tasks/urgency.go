package tasks

import (
	"math"
	"sort"
	"time"

	"smarttodo/internal/models"
)

const (
	// urgencyWindowDays is the horizon over which due-date proximity adds to
	// the score. Tasks due further out score their bare priority weight.
	urgencyWindowDays = 30.0

	// UrgentThreshold is the score from which a task is flagged as urgent.
	UrgentThreshold = 5.0

	// dueSoonDays is how many days ahead a due date counts as due soon.
	dueSoonDays = 3

	// DefaultUpcomingDays is the default horizon of Upcoming.
	DefaultUpcomingDays = 7
)

// ComputeUrgency scores a task from its priority weight and how close its due
// date is to today. The result lies in [weight, 2*weight] and is rounded to
// three decimals.
func ComputeUrgency(task models.Task, today time.Time) float64 {
	weight := float64(task.Priority.Weight())

	due, ok := task.Due()
	if !ok {
		return weight
	}

	daysUntil := daysBetween(models.Date(today), due)

	var deadlineFactor float64
	if daysUntil <= 0 {
		deadlineFactor = 1.0
	} else {
		deadlineFactor = math.Max(0.0, (urgencyWindowDays-float64(daysUntil))/urgencyWindowDays)
	}

	return roundTo3(weight * (1.0 + deadlineFactor))
}

// Urgency scores task against today. A zero today means the manager's
// current date.
func (m *Manager) Urgency(task models.Task, today time.Time) float64 {
	if today.IsZero() {
		today = m.today()
	}
	return ComputeUrgency(task, today)
}

// SortedByUrgency returns the whole collection ordered by descending urgency.
// Equal scores keep their collection order.
func (m *Manager) SortedByUrgency() []models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	type scored struct {
		task  models.Task
		score float64
	}

	today := m.today()
	ranked := make([]scored, 0, len(m.tasks))
	for _, t := range m.tasks {
		ranked = append(ranked, scored{task: t.Clone(), score: ComputeUrgency(t, today)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]models.Task, len(ranked))
	for i, r := range ranked {
		out[i] = r.task
	}
	return out
}

// DueStatus classifies a task's due date for display.
type DueStatus string

const (
	DueNone    DueStatus = ""
	DueOverdue DueStatus = "Overdue"
	DueSoon    DueStatus = "Due Soon"
)

// ClassifyDue reports whether an open task is overdue or due within the next
// few days. Completed tasks and tasks without a usable due date get DueNone.
func ClassifyDue(task models.Task, today time.Time) DueStatus {
	if task.IsCompleted() {
		return DueNone
	}
	due, ok := task.Due()
	if !ok {
		return DueNone
	}

	days := daysBetween(models.Date(today), due)
	switch {
	case days < 0:
		return DueOverdue
	case days <= dueSoonDays:
		return DueSoon
	default:
		return DueNone
	}
}

// IsUrgent reports whether score reaches the urgent threshold.
func IsUrgent(score float64) bool {
	return score >= UrgentThreshold
}

// daysBetween returns the whole days from a to b. Both must be dates as
// produced by models.Date or models.ParseDate.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

func roundTo3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
