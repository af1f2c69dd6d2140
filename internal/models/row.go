package models

import "encoding/json"

// Row is the key/value shape shared by the local task file and remote row
// stores. Optional columns are pointers; a nil pointer means the column was
// absent or null.
type Row struct {
	ID          *int64  `json:"id"`
	Title       string  `json:"title"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes,omitempty"`
	CreatedAt   *string `json:"created_at,omitempty"`
	UpdatedAt   *string `json:"updated_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// UnmarshalJSON accepts "priority_level" as an alias for "priority", which
// older task files used.
func (r *Row) UnmarshalJSON(data []byte) error {
	type plain Row
	var aux struct {
		plain
		PriorityLevel *string `json:"priority_level"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Row(aux.plain)
	if (r.Priority == nil || *r.Priority == "") && aux.PriorityLevel != nil {
		r.Priority = aux.PriorityLevel
	}
	return nil
}

// ToRow serializes the task into its row shape.
func (t Task) ToRow() Row {
	row := Row{
		Title:       t.Title,
		DueDate:     optional(t.DueDate),
		Priority:    optional(string(NormalizePriority(string(t.Priority)))),
		Status:      optional(string(t.Status)),
		Notes:       optional(t.Notes),
		CreatedAt:   optional(t.CreatedAt),
		UpdatedAt:   optional(t.UpdatedAt),
		CompletedAt: optional(t.CompletedAt),
	}
	if t.ID != nil {
		row.ID = Int64(*t.ID)
	}
	return row
}

// FromRow parses a row into a task. Priority is normalized and a missing
// status defaults to Pending.
func FromRow(r Row) Task {
	t := Task{
		Title:       r.Title,
		DueDate:     value(r.DueDate),
		Priority:    NormalizePriority(value(r.Priority)),
		Status:      Status(value(r.Status)),
		Notes:       value(r.Notes),
		CreatedAt:   value(r.CreatedAt),
		UpdatedAt:   value(r.UpdatedAt),
		CompletedAt: value(r.CompletedAt),
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if r.ID != nil {
		t.ID = Int64(*r.ID)
	}
	return t
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
