package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smarttodo/internal/models"
	"smarttodo/internal/tasks"
)

func newOverdueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List open tasks past their due date",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			printTasks(cmd.OutOrStdout(), a.manager.Overdue(), a.manager.Today())
			return nil
		}),
	}
}

func newUpcomingCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List open tasks due soon, earliest first",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = a.cfg.UpcomingDays
			}
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}
			printTasks(cmd.OutOrStdout(), a.manager.Upcoming(days), a.manager.Today())
			return nil
		}),
	}

	cmd.Flags().IntVarP(&days, "days", "d", tasks.DefaultUpcomingDays, "look-ahead window in days")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find tasks whose title or notes contain text",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			printTasks(cmd.OutOrStdout(), a.manager.Search(strings.Join(args, " ")), a.manager.Today())
			return nil
		}),
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion history and priority distribution",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("days") {
				days = a.cfg.AnalyticsDays
			}
			w := cmd.OutOrStdout()

			counts := a.manager.CompletedCountsPerDay(days)
			stats := tasks.CompletionStats(counts)

			fmt.Fprintf(w, "%s\n", cyan(fmt.Sprintf("Completed per day (last %d days)", days)))
			for _, c := range counts {
				fmt.Fprintf(w, "  %s  %3d  %s\n", c.Date, c.Count, strings.Repeat("#", c.Count))
			}
			fmt.Fprintf(w, "  total %d, mean %.2f, median %.1f, std dev %.2f\n",
				stats.Total, stats.Mean, stats.Median, stats.StdDev)

			fmt.Fprintln(w)
			fmt.Fprintf(w, "%s\n", cyan("Priority distribution"))
			dist := a.manager.PriorityDistribution()
			for i := len(models.Priorities) - 1; i >= 0; i-- {
				p := models.Priorities[i]
				fmt.Fprintf(w, "  %-6s  %3d\n", p, dist[p])
			}
			return nil
		}),
	}

	cmd.Flags().IntVarP(&days, "days", "d", tasks.DefaultAnalyticsDays, "history window in days")
	return cmd
}
