package handlers

import (
	"net/http"

	"smarttodo/internal/models"
	"smarttodo/internal/tasks"
)

// topUrgentCount is how many of the most urgent open tasks the summary shows.
const topUrgentCount = 3

// SummaryData is the dashboard overview.
type SummaryData struct {
	Total        int        `json:"total"`
	Pending      int        `json:"pending"`
	Completed    int        `json:"completed"`
	Overdue      int        `json:"overdue"`
	Urgent       int        `json:"urgent"`
	TopUrgent    []TaskView `json:"top_urgent"`
	Upcoming     []TaskView `json:"upcoming"`
	UpcomingDays int        `json:"upcoming_days"`
	RemoteActive bool       `json:"remote_active"`
}

// Summary returns counts, the most urgent open tasks and the upcoming tasks.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	days, ok := queryDays(r, h.settings.UpcomingDays)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid days")
		return
	}

	today := h.today()
	data := SummaryData{
		Upcoming:     newTaskViews(h.manager.Upcoming(days), today),
		UpcomingDays: days,
		RemoteActive: h.manager.RemoteActive(),
		TopUrgent:    []TaskView{},
	}

	for _, t := range h.manager.SortedByUrgency() {
		data.Total++
		if t.Status == models.StatusCompleted {
			data.Completed++
			continue
		}
		data.Pending++

		view := newTaskView(t, today)
		if view.DueStatus == tasks.DueOverdue {
			data.Overdue++
		}
		if view.Urgent {
			data.Urgent++
		}
		if len(data.TopUrgent) < topUrgentCount {
			data.TopUrgent = append(data.TopUrgent, view)
		}
	}

	respondJSON(w, http.StatusOK, data)
}
