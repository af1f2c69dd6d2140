package tasks

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"smarttodo/internal/models"
)

// SyncSummary reports what a reconciliation run did. Err is set when the run
// stopped early; the counts then cover the steps completed before the failure.
type SyncSummary struct {
	RunID   string `json:"run_id,omitempty"`
	Pushed  int    `json:"pushed"`
	Pulled  int    `json:"pulled"`
	Updated int    `json:"updated"`
	Err     error  `json:"-"`
}

// Sync reconciles the collection with a full snapshot of the remote store.
//
// Rows matching a local task by id overwrite it only when preferLocal is
// false and the two differ. Remote-only rows are appended locally. Local tasks
// the snapshot does not know are inserted remotely and take the issued id.
// The result is written to the local store. Sync never panics or returns an
// error to the caller; failures are logged and reflected in SyncSummary.Err.
func (m *Manager) Sync(ctx context.Context, preferLocal bool) SyncSummary {
	if m.remote == nil {
		return SyncSummary{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	summary := SyncSummary{RunID: uuid.NewString()}
	logf := func(format string, args ...interface{}) {
		m.logger.Printf("sync[%s]: %s", summary.RunID, fmt.Sprintf(format, args...))
	}

	rows, err := m.remote.SelectAll(ctx)
	if err != nil {
		summary.Err = fmt.Errorf("failed to fetch remote snapshot: %w", err)
		logf("%v", summary.Err)
		return summary
	}

	remoteIDs := make(map[int64]bool, len(rows))
	localIdx := make(map[int64]int, len(m.tasks))
	for i, t := range m.tasks {
		if t.ID != nil {
			localIdx[*t.ID] = i
		}
	}
	// Only tasks that existed before the pull are push candidates.
	pushCandidates := len(m.tasks)

	for _, row := range rows {
		if row.ID == nil || remoteIDs[*row.ID] {
			continue
		}
		id := *row.ID
		remoteIDs[id] = true

		i, ok := localIdx[id]
		if !ok {
			pulled := models.FromRow(row)
			if pulled.CompletedAt == "" && pulled.IsCompleted() {
				pulled.CompletedAt = pulled.UpdatedAt
			}
			m.tasks = append(m.tasks, pulled)
			summary.Pulled++
			continue
		}

		if preferLocal {
			continue
		}
		if m.overwriteFromRemote(i, row) {
			summary.Updated++
		}
	}

	for i := 0; i < pushCandidates; i++ {
		task := &m.tasks[i]
		if task.ID != nil && remoteIDs[*task.ID] {
			continue
		}

		toPush := task.ToRow()
		toPush.ID = nil
		row, err := m.remote.Insert(ctx, toPush)
		if err != nil {
			summary.Err = fmt.Errorf("failed to push task %q: %w", task.Title, err)
			logf("%v", summary.Err)
			break
		}
		if row.ID != nil {
			m.claimID(*row.ID, i)
			m.tasks[i].ID = models.Int64(*row.ID)
			remoteIDs[*row.ID] = true
		}
		summary.Pushed++
	}

	m.save()
	logf("pushed=%d pulled=%d updated=%d prefer_local=%t", summary.Pushed, summary.Pulled, summary.Updated, preferLocal)
	return summary
}

// overwriteFromRemote copies the mutable fields of row onto the local task at
// index i if the compared fields differ. It reports whether anything changed.
func (m *Manager) overwriteFromRemote(i int, row models.Row) bool {
	local := &m.tasks[i]
	remote := models.FromRow(row)

	if remote.Title == local.Title &&
		remote.DueDate == local.DueDate &&
		remote.Status == local.Status &&
		remote.Priority == local.Priority &&
		remote.CreatedAt == local.CreatedAt &&
		remote.UpdatedAt == local.UpdatedAt {
		return false
	}

	local.Title = remote.Title
	local.DueDate = remote.DueDate
	local.Status = remote.Status
	local.Priority = remote.Priority
	if row.CreatedAt != nil {
		local.CreatedAt = remote.CreatedAt
	}
	if row.UpdatedAt != nil {
		local.UpdatedAt = remote.UpdatedAt
	} else {
		local.UpdatedAt = m.timestamp()
	}

	switch {
	case row.CompletedAt != nil:
		local.CompletedAt = remote.CompletedAt
	case !local.IsCompleted():
		local.CompletedAt = ""
	case local.CompletedAt == "":
		local.CompletedAt = local.UpdatedAt
	}
	return true
}
