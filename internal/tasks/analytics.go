package tasks

import (
	"math"
	"sort"
	"time"

	"smarttodo/internal/models"
)

// DefaultAnalyticsDays is the default window of CompletedCountsPerDay.
const DefaultAnalyticsDays = 14

// MaxWindowDays bounds every day-count window. Larger windows are clamped.
const MaxWindowDays = 3660

// DayCount is the number of tasks completed on one calendar day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats summarizes a series of daily completion counts.
type Stats struct {
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// CompletedCountsPerDay counts completed tasks for each of the last daysBack
// days ending today, oldest first. A task is attributed to the day of its
// completion time, falling back to its last update and then its due date.
// Days without completions are present with a zero count. Timestamps are
// placed on the calendar of the manager clock's location.
func (m *Manager) CompletedCountsPerDay(daysBack int) []DayCount {
	if daysBack <= 0 {
		return []DayCount{}
	}
	daysBack = clampWindow(daysBack)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	today := models.Date(now)
	start := today.AddDate(0, 0, -(daysBack - 1))

	byDay := make(map[string]int)
	for _, t := range m.tasks {
		if !t.IsCompleted() {
			continue
		}
		day, ok := completionDay(t, now.Location())
		if !ok || day.Before(start) || day.After(today) {
			continue
		}
		byDay[models.FormatDate(day)]++
	}

	out := make([]DayCount, 0, daysBack)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := models.FormatDate(d)
		out = append(out, DayCount{Date: key, Count: byDay[key]})
	}
	return out
}

// PriorityDistribution counts all tasks, whatever their status, per priority.
// Every canonical level is present.
func (m *Manager) PriorityDistribution() map[models.Priority]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[models.Priority]int, len(models.Priorities))
	for _, p := range models.Priorities {
		out[p] = 0
	}
	for _, t := range m.tasks {
		out[models.NormalizePriority(string(t.Priority))]++
	}
	return out
}

// CompletionStats computes total, mean, median and population standard
// deviation of the daily counts.
func CompletionStats(counts []DayCount) Stats {
	if len(counts) == 0 {
		return Stats{}
	}

	values := make([]float64, len(counts))
	var stats Stats
	for i, c := range counts {
		values[i] = float64(c.Count)
		stats.Total += c.Count
	}

	n := float64(len(values))
	stats.Mean = float64(stats.Total) / n

	var sq float64
	for _, v := range values {
		sq += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.StdDev = math.Sqrt(sq / n)

	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		stats.Median = values[mid]
	} else {
		stats.Median = (values[mid-1] + values[mid]) / 2
	}
	return stats
}

// completionDay picks the first set of CompletedAt, UpdatedAt and DueDate.
// Timestamps are converted to loc before their date is taken; a bare date is
// used as-is.
func completionDay(t models.Task, loc *time.Location) (time.Time, bool) {
	for _, ts := range []string{t.CompletedAt, t.UpdatedAt} {
		if ts == "" {
			continue
		}
		if at, err := time.Parse(time.RFC3339, ts); err == nil {
			return models.Date(at.In(loc)), true
		}
		return models.ParseDate(ts)
	}
	if t.DueDate == "" {
		return time.Time{}, false
	}
	return models.ParseDate(t.DueDate)
}

func clampWindow(days int) int {
	if days > MaxWindowDays {
		return MaxWindowDays
	}
	return days
}
