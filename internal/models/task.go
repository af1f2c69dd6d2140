package models

import (
	"strings"
	"time"
)

// Priority is one of the three canonical priority levels.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityNormal Priority = "Normal"
	PriorityHigh   Priority = "High"
)

// Priorities lists the canonical levels in ascending order.
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh}

// Status is the lifecycle state of a task. Only Pending and Completed are
// handled; other values pass through untouched.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05Z"
)

// Task represents a single to-do item.
type Task struct {
	ID          *int64   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	DueDate     string   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Status      Status   `json:"status" yaml:"status"`
	Notes       string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	CompletedAt string   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// NormalizePriority maps raw input onto a canonical priority. Matching is
// case-insensitive and ignores surrounding whitespace; anything unrecognized
// becomes Normal.
func NormalizePriority(raw string) Priority {
	p := strings.TrimSpace(raw)
	for _, lvl := range Priorities {
		if strings.EqualFold(p, string(lvl)) {
			return lvl
		}
	}
	return PriorityNormal
}

// NormalizeStatus canonicalizes the two known statuses. Other values are
// trimmed and kept as-is; empty input becomes Pending.
func NormalizeStatus(raw string) Status {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return StatusPending
	case strings.EqualFold(s, string(StatusPending)):
		return StatusPending
	case strings.EqualFold(s, string(StatusCompleted)):
		return StatusCompleted
	}
	return Status(s)
}

// Weight returns the scoring weight of the priority: Low 1, Normal 2, High 3.
func (p Priority) Weight() int {
	switch NormalizePriority(string(p)) {
	case PriorityLow:
		return 1
	case PriorityHigh:
		return 3
	default:
		return 2
	}
}

// IsCompleted reports whether the task is in the Completed state.
func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Due returns the parsed due date. ok is false when the task has no due date
// or the stored value does not parse.
func (t *Task) Due() (time.Time, bool) {
	return ParseDate(t.DueDate)
}

// IDValue returns the identifier or 0 when unassigned.
func (t *Task) IDValue() int64 {
	if t.ID == nil {
		return 0
	}
	return *t.ID
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	if t.ID != nil {
		id := *t.ID
		t.ID = &id
	}
	return t
}

// timeSuffixLayouts are the ISO date-time forms ParseDate accepts after a
// date. Fractional seconds are accepted by time.Parse without being listed.
var timeSuffixLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDate parses a calendar date. A full ISO timestamp is accepted too; only
// its date part is kept.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	if len(s) == len(dateLayout) {
		return d, true
	}
	for _, layout := range timeSuffixLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// Date truncates t to its calendar date in t's location, returned as UTC
// midnight so it compares cleanly with ParseDate results.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatTimestamp renders t in UTC with second precision and a trailing Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}
