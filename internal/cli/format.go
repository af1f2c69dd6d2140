package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"

	"smarttodo/internal/models"
	"smarttodo/internal/tasks"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// printTasks writes one line per task. Completed tasks are green, overdue
// ones red and urgent ones yellow.
func printTasks(w io.Writer, list []models.Task, today time.Time) {
	if len(list) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No tasks"))
		return
	}

	for _, t := range list {
		score := tasks.ComputeUrgency(t, today)
		due := t.DueDate
		if due == "" {
			due = "-"
		}

		line := fmt.Sprintf("%4d  %-6s  %-10s  %5.3f  %s", t.IDValue(), t.Priority, due, score, t.Title)
		tag := ""
		switch {
		case t.IsCompleted():
			line = green(line)
			tag = " " + green("[done]")
		case tasks.ClassifyDue(t, today) == tasks.DueOverdue:
			line = red(line)
			tag = " " + red("[overdue]")
		case tasks.IsUrgent(score):
			line = yellow(line)
			tag = " " + yellow("[urgent]")
		case tasks.ClassifyDue(t, today) == tasks.DueSoon:
			tag = " " + yellow("[due soon]")
		}
		fmt.Fprintf(w, "%s%s\n", line, tag)
	}
}

// printTask writes the full record of one task.
func printTask(w io.Writer, t models.Task, today time.Time) {
	score := tasks.ComputeUrgency(t, today)

	fmt.Fprintf(w, "%s\n", cyan(fmt.Sprintf("Task %d", t.IDValue())))
	fmt.Fprintf(w, "  Title:     %s\n", t.Title)
	fmt.Fprintf(w, "  Priority:  %s\n", t.Priority)
	fmt.Fprintf(w, "  Status:    %s\n", t.Status)
	if t.DueDate != "" {
		due := t.DueDate
		if ds := tasks.ClassifyDue(t, today); ds != tasks.DueNone {
			due += " (" + string(ds) + ")"
		}
		fmt.Fprintf(w, "  Due:       %s\n", due)
	}
	fmt.Fprintf(w, "  Urgency:   %.3f\n", score)
	if t.Notes != "" {
		fmt.Fprintf(w, "  Notes:     %s\n", t.Notes)
	}
	fmt.Fprintf(w, "  Created:   %s\n", t.CreatedAt)
	fmt.Fprintf(w, "  Updated:   %s\n", t.UpdatedAt)
	if t.CompletedAt != "" {
		fmt.Fprintf(w, "  Completed: %s\n", t.CompletedAt)
	}
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
