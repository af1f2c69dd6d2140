package handlers

import (
	"net/http"

	"smarttodo/internal/models"
	"smarttodo/internal/tasks"
)

type syncResponse struct {
	tasks.SyncSummary
	PreferLocal  bool   `json:"prefer_local"`
	RemoteActive bool   `json:"remote_active"`
	Error        string `json:"error,omitempty"`
}

// Sync reconciles with the remote store. ?prefer_local= overrides the
// configured conflict policy.
func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	preferLocal, ok := queryBool(r, "prefer_local", h.settings.PreferLocal)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid prefer_local")
		return
	}

	if !h.manager.RemoteActive() {
		respondJSON(w, http.StatusServiceUnavailable, syncResponse{
			PreferLocal: preferLocal,
			Error:       "no remote store configured",
		})
		return
	}

	summary := h.manager.Sync(r.Context(), preferLocal)
	resp := syncResponse{
		SyncSummary:  summary,
		PreferLocal:  preferLocal,
		RemoteActive: true,
	}
	code := http.StatusOK
	if summary.Err != nil {
		resp.Error = summary.Err.Error()
		code = http.StatusBadGateway
	}
	respondJSON(w, code, resp)
}

type completedResponse struct {
	Days  []tasks.DayCount `json:"days"`
	Stats tasks.Stats      `json:"stats"`
}

// CompletedPerDay returns completed-task counts for the last ?days= days.
func (h *Handlers) CompletedPerDay(w http.ResponseWriter, r *http.Request) {
	days, ok := queryDays(r, h.settings.AnalyticsDays)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid days")
		return
	}

	counts := h.manager.CompletedCountsPerDay(days)
	respondJSON(w, http.StatusOK, completedResponse{
		Days:  counts,
		Stats: tasks.CompletionStats(counts),
	})
}

// PriorityDistribution returns the number of tasks per priority.
func (h *Handlers) PriorityDistribution(w http.ResponseWriter, r *http.Request) {
	dist := h.manager.PriorityDistribution()

	out := make(map[string]int, len(dist))
	for _, p := range models.Priorities {
		out[string(p)] = dist[p]
	}
	respondJSON(w, http.StatusOK, out)
}
