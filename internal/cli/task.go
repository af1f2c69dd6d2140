package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smarttodo/internal/models"
	"smarttodo/internal/tasks"
)

func newAddCmd(a *app) *cobra.Command {
	var in tasks.NewTask

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  smarttodo add "Write report" --due 2025-06-01 --priority high
  smarttodo add Buy milk`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			task, err := a.manager.Add(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task %d: %s\n", green("Added"), task.IDValue(), task.Title)
			return nil
		}),
	}

	cmd.Flags().StringVar(&in.DueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&in.Priority, "priority", "p", "Normal", "Low, Normal or High")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&in.Status, "status", "", "initial status (default Pending)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var sortBy, priority string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var list []models.Task
			switch sortBy {
			case "urgency":
				list = a.manager.SortedByUrgency()
			case "id", "":
				list = a.manager.List()
			default:
				return fmt.Errorf("unknown sort %q, want id or urgency", sortBy)
			}

			if priority != "" {
				p := a.manager.ByPriority(priority)
				keep := make(map[int64]bool, len(p))
				for _, t := range p {
					keep[t.IDValue()] = true
				}
				filtered := list[:0]
				for _, t := range list {
					if keep[t.IDValue()] {
						filtered = append(filtered, t)
					}
				}
				list = filtered
			}

			printTasks(cmd.OutOrStdout(), list, a.manager.Today())
			return nil
		}),
	}

	cmd.Flags().StringVarP(&sortBy, "sort", "s", "urgency", "order by id or urgency")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "only show this priority")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			task, ok := a.manager.Get(id)
			if !ok {
				return fmt.Errorf("task %d: %w", id, tasks.ErrNotFound)
			}
			printTask(cmd.OutOrStdout(), task, a.manager.Today())
			return nil
		}),
	}
}

func newEditCmd(a *app) *cobra.Command {
	var title, due, priority, status, notes string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Long: `Change the fields given as flags and leave the rest untouched.
Pass --due "" to clear the due date.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			var upd tasks.TaskUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = &title
			}
			if flags.Changed("due") {
				upd.DueDate = &due
			}
			if flags.Changed("priority") {
				upd.Priority = &priority
			}
			if flags.Changed("status") {
				upd.Status = &status
			}
			if flags.Changed("notes") {
				upd.Notes = &notes
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			task, err := a.manager.Update(ctx, id, upd)
			if err != nil {
				return fmt.Errorf("task %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s task %d\n", green("Updated"), task.IDValue())
			return nil
		}),
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	return cmd
}

func newDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>...",
		Short: "Mark tasks as completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			var errs []error
			for _, arg := range args {
				id, err := parseTaskID(arg)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if _, err := a.manager.Complete(ctx, id); err != nil {
					errs = append(errs, fmt.Errorf("task %d: %w", id, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s task %d\n", green("Completed"), id)
			}
			return errors.Join(errs...)
		}),
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			for _, arg := range args {
				id, err := parseTaskID(arg)
				if err != nil {
					return err
				}
				if a.manager.Delete(ctx, id) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s task %d\n", red("Deleted"), id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n", gray(fmt.Sprintf("No task %d", id)))
				}
			}
			return nil
		}),
	}
}

func newPriorityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id> <Low|Normal|High>",
		Short: "Set the priority of a task",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			task, err := a.manager.SetPriority(ctx, id, args[1])
			if err != nil {
				return fmt.Errorf("task %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d priority is now %s\n", id, task.Priority)
			return nil
		}),
	}
}

func newSnoozeCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "snooze <id>",
		Short: "Push a task's due date back",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			if _, ok := a.manager.Get(id); !ok {
				return fmt.Errorf("task %d: %w", id, tasks.ErrNotFound)
			}

			ctx, cancel := a.ctx(cmd)
			defer cancel()

			task, ok := a.manager.Snooze(ctx, id, days)
			if !ok {
				return fmt.Errorf("task %d has no due date to snooze", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now due %s\n", id, task.DueDate)
			return nil
		}),
	}

	cmd.Flags().IntVarP(&days, "days", "d", tasks.DefaultSnoozeDays, "days to push the due date")
	return cmd
}
