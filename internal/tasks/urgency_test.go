package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smarttodo/internal/models"
)

func TestComputeUrgency(t *testing.T) {
	tests := []struct {
		name     string
		priority models.Priority
		due      string
		today    string
		want     float64
	}{
		{"high due tomorrow", models.PriorityHigh, "2025-06-01", "2025-05-31", 5.9},
		{"high overdue", models.PriorityHigh, "2025-06-01", "2025-06-02", 6.0},
		{"due today", models.PriorityNormal, "2025-05-31", "2025-05-31", 4.0},
		{"halfway through window", models.PriorityNormal, "2025-06-15", "2025-05-31", 3.0},
		{"exactly at window edge", models.PriorityLow, "2025-06-30", "2025-05-31", 1.0},
		{"beyond window", models.PriorityLow, "2025-07-10", "2025-05-31", 1.0},
		{"no due date", models.PriorityNormal, "", "2025-05-31", 2.0},
		{"unparseable due date", models.PriorityHigh, "next week", "2025-05-31", 3.0},
		{"repeating decimal rounds", models.PriorityLow, "2025-06-01", "2025-05-31", 1.967},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := models.Task{Title: "x", Priority: tt.priority, DueDate: tt.due}
			assert.Equal(t, tt.want, ComputeUrgency(task, date(tt.today)))
		})
	}
}

func TestComputeUrgency_BoundedByWeight(t *testing.T) {
	today := date("2025-05-31")
	for _, p := range models.Priorities {
		w := float64(p.Weight())
		for offset := -40; offset <= 40; offset++ {
			task := models.Task{Priority: p, DueDate: models.FormatDate(today.AddDate(0, 0, offset))}
			got := ComputeUrgency(task, today)
			assert.GreaterOrEqual(t, got, w)
			assert.LessOrEqual(t, got, 2*w)
		}
	}
}

func TestComputeUrgency_NonIncreasingWithDistance(t *testing.T) {
	today := date("2025-05-31")
	prev := ComputeUrgency(models.Task{Priority: models.PriorityNormal, DueDate: "2025-05-31"}, today)
	for offset := 1; offset <= 45; offset++ {
		task := models.Task{Priority: models.PriorityNormal, DueDate: models.FormatDate(today.AddDate(0, 0, offset))}
		got := ComputeUrgency(task, today)
		assert.LessOrEqual(t, got, prev, "offset %d", offset)
		prev = got
	}
}

func TestComputeUrgency_IgnoresTimeOfDay(t *testing.T) {
	task := models.Task{Priority: models.PriorityHigh, DueDate: "2025-06-01"}
	late := time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, 5.9, ComputeUrgency(task, late))
}

func TestManagerUrgency_DefaultsToClock(t *testing.T) {
	f := newFixture(t, nil, nil)
	task := models.Task{Priority: models.PriorityHigh, DueDate: "2025-06-01"}

	assert.Equal(t, 5.9, f.m.Urgency(task, time.Time{}))
	assert.Equal(t, 6.0, f.m.Urgency(task, date("2025-06-02")))
}

func TestSortedByUrgency(t *testing.T) {
	low := task(1, "low, no due")
	low.Priority = models.PriorityLow
	normalA := task(2, "normal a")
	high := task(3, "high, due tomorrow")
	high.Priority = models.PriorityHigh
	high.DueDate = "2025-06-01"
	normalB := task(4, "normal b")
	overdue := task(5, "normal, overdue")
	overdue.DueDate = "2025-05-01"

	f := newFixture(t, &memStore{tasks: []models.Task{low, normalA, high, normalB, overdue}}, nil)

	got := f.m.SortedByUrgency()
	assert.Equal(t, []int64{3, 5, 2, 4, 1}, ids(got), "ties keep collection order")
	assert.Len(t, f.m.List(), 5, "collection untouched")
}

func TestPriorityBandsWithoutDueDates(t *testing.T) {
	today := date("2025-05-31")
	var scores []float64
	for _, p := range []models.Priority{models.PriorityHigh, models.PriorityNormal, models.PriorityLow} {
		scores = append(scores, ComputeUrgency(models.Task{Priority: p}, today))
	}
	assert.Equal(t, []float64{3, 2, 1}, scores)
}

func TestClassifyDue(t *testing.T) {
	today := date("2025-05-31")
	tests := []struct {
		name   string
		due    string
		status models.Status
		want   DueStatus
	}{
		{"overdue", "2025-05-30", models.StatusPending, DueOverdue},
		{"today", "2025-05-31", models.StatusPending, DueSoon},
		{"in three days", "2025-06-03", models.StatusPending, DueSoon},
		{"in four days", "2025-06-04", models.StatusPending, DueNone},
		{"completed overdue", "2025-05-01", models.StatusCompleted, DueNone},
		{"no due date", "", models.StatusPending, DueNone},
		{"unparseable", "soon", models.StatusPending, DueNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := models.Task{DueDate: tt.due, Status: tt.status}
			assert.Equal(t, tt.want, ClassifyDue(task, today))
		})
	}
}

func TestIsUrgent(t *testing.T) {
	assert.True(t, IsUrgent(5.0))
	assert.True(t, IsUrgent(5.9))
	assert.False(t, IsUrgent(4.999))
}
