package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mdadnanhusaain/ToDo-List/client"
	"github.com/mdadnanhusaain/ToDo-List/domain/datekey"
	"github.com/spf13/cobra"
)

// searchWait bounds how long search waits for the debounced query.
const searchWait = 30 * time.Second

func todayCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's tasks and this week's summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.controller.SelectToday(cmd.Context()); err != nil {
				return err
			}
			return s.printView(s.controller.View())
		},
	}
}

func dayCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "Show the tasks of one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := datekey.Parse(args[0])
			if err != nil {
				return err
			}
			if err := s.controller.SelectDate(cmd.Context(), d); err != nil {
				return err
			}
			return s.printView(s.controller.View())
		},
	}
}

func weekCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "week [YYYY-MM-DD]",
		Short: "Show completed and pending counts for a week",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.selectArg(cmd.Context(), args); err != nil {
				return err
			}
			view := s.controller.View()
			return s.printSummary(view.Date, view.Summary)
		},
	}
}

func listCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every task by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks, err := s.api.All(cmd.Context())
			if err != nil {
				return err
			}
			return s.printTasks(tasks)
		},
	}
}

func addCmd(s *session) *cobra.Command {
	var in client.NewTask

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Date == "" {
				in.Date = s.controller.SelectedDate().String()
			}
			t, err := s.controller.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return s.afterChange(cmd.Context(), t.Date)
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "task title (required)")
	cmd.Flags().StringVarP(&in.Date, "date", "d", "", "day, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&in.Description, "desc", "", "description")
	cmd.Flags().StringVar(&in.StartTime, "start", "", "start time, HH:MM")
	cmd.Flags().StringVar(&in.EndTime, "end", "", "end time, HH:MM")
	cmd.Flags().StringVarP(&in.Priority, "priority", "p", "", "low, medium or high (default medium)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func editCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := client.TaskChanges{
				Title:       changed(cmd, "title"),
				Date:        changed(cmd, "date"),
				Description: changed(cmd, "desc"),
				StartTime:   changed(cmd, "start"),
				EndTime:     changed(cmd, "end"),
				Priority:    changed(cmd, "priority"),
				Status:      changed(cmd, "status"),
			}
			t, err := s.controller.Update(cmd.Context(), args[0], changes)
			if err != nil {
				return err
			}
			return s.afterChange(cmd.Context(), t.Date)
		},
	}

	cmd.Flags().StringP("title", "t", "", "task title")
	cmd.Flags().StringP("date", "d", "", "day, YYYY-MM-DD")
	cmd.Flags().String("desc", "", "description")
	cmd.Flags().String("start", "", "start time, HH:MM")
	cmd.Flags().String("end", "", "end time, HH:MM")
	cmd.Flags().StringP("priority", "p", "", "low, medium or high")
	cmd.Flags().String("status", "", "pending or completed")

	return cmd
}

func toggleCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task completed, or pending again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := s.controller.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return s.afterChange(cmd.Context(), t.Date)
		},
	}
}

func rmCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.controller.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return s.printView(s.controller.View())
		},
	}
}

func searchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find tasks whose title or description contains the query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make(chan client.SearchResult, 1)
			s.controller.OnSearch(func(r client.SearchResult) {
				select {
				case results <- r:
				default:
				}
			})
			s.controller.Search(strings.Join(args, " "))

			select {
			case r := <-results:
				if r.Err != nil {
					return r.Err
				}
				return s.printTasks(r.Tasks)
			case <-time.After(searchWait):
				return errors.New("search timed out")
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}
}

func (s *session) selectArg(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.controller.SelectToday(ctx)
	}
	d, err := datekey.Parse(args[0])
	if err != nil {
		return err
	}
	return s.controller.SelectDate(ctx, d)
}

// afterChange shows the day of the changed task. The controller has already
// refreshed the selected day, so only a different day needs a fetch.
func (s *session) afterChange(ctx context.Context, d datekey.Date) error {
	if !d.IsZero() && d != s.controller.SelectedDate() {
		if err := s.controller.SelectDate(ctx, d); err != nil {
			return err
		}
	}
	return s.printView(s.controller.View())
}

func changed(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}
