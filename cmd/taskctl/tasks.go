package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/taskflow/internal/model"
	"github.com/BuzzLyutic/taskflow/internal/validation"
	"github.com/BuzzLyutic/taskflow/pkg/client"
)

func (a *app) listCmd() *cobra.Command {
	var (
		req  validation.FilterRequest
		done bool
		open bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks, newest first unless --sort is given.

Examples:
  taskctl list --priority high,urgent --open
  taskctl list --category work --tag api --sort dueDate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case done && open:
				return fmt.Errorf("--done and --open are mutually exclusive")
			case done:
				req.Completed = "true"
			case open:
				req.Completed = "false"
			}
			filter, err := validation.Filters(req, time.Local)
			if err != nil {
				return explain(err)
			}

			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Refetch(cmd.Context(), filter); err != nil {
				return explain(err)
			}
			printTasks(cmd.OutOrStdout(), s.Tasks())
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&done, "done", false, "only completed tasks")
	f.BoolVar(&open, "open", false, "only pending tasks")
	f.StringSliceVarP(&req.Priorities, "priority", "p", nil, "priorities (low, medium, high, urgent)")
	f.StringSliceVarP(&req.Categories, "category", "c", nil, "categories")
	f.StringSliceVarP(&req.Tags, "tag", "t", nil, "tags the task must all carry")
	f.StringVar(&req.DueFrom, "due-from", "", "due on or after (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&req.DueTo, "due-to", "", "due on or before (YYYY-MM-DD or RFC 3339)")
	f.StringVar(&req.Sort, "sort", "", "createdAt, dueDate, priority or title")
	f.StringVar(&req.Order, "order", "", "asc or desc")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var (
		in                         client.CreateInput
		description, category, due string
		idempotencyKey             string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			in.Description = nonEmpty(description)
			in.Category = nonEmpty(category)
			in.DueDate = nonEmpty(due)

			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			var task client.Task
			if idempotencyKey != "" {
				// повтор с тем же ключом не создаст дубликат
				task, err = a.client.CreateIdempotent(cmd.Context(), in, idempotencyKey)
			} else {
				task, err = s.Create(cmd.Context(), in)
			}
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", task.ID)
			printTasks(cmd.OutOrStdout(), []client.Task{task})
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&in.Priority, "priority", "p", string(model.PriorityMedium), "low, medium, high or urgent")
	f.StringVarP(&description, "description", "d", "", "description")
	f.StringVarP(&category, "category", "c", "", "category")
	f.StringVar(&due, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	f.StringSliceVarP(&in.Tags, "tag", "t", nil, "tags")
	f.StringVar(&idempotencyKey, "key", "", "idempotency key for safe retries")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var (
		title, description, priority, category, due string
		tags                                        []string
		clearFields                                 []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long: `Change fields of a task. Only the given flags are sent.

Use --clear to remove optional fields, e.g. --clear description,dueDate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.UpdateInput
			f := cmd.Flags()
			if f.Changed("title") {
				in.Title = model.Some(title)
			}
			if f.Changed("description") {
				in.Description = model.Some(description)
			}
			if f.Changed("priority") {
				in.Priority = model.Some(priority)
			}
			if f.Changed("category") {
				in.Category = model.Some(category)
			}
			if f.Changed("due") {
				in.DueDate = model.Some(due)
			}
			if f.Changed("tag") {
				in.Tags = model.Some(tags)
			}
			for _, field := range clearFields {
				switch field {
				case "description":
					in.Description = model.Null[string]()
				case "category":
					in.Category = model.Null[string]()
				case "dueDate", "due":
					in.DueDate = model.Null[string]()
				case "tags":
					in.Tags = model.Some([]string{})
				default:
					return fmt.Errorf("cannot clear %q", field)
				}
			}

			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := s.Update(cmd.Context(), args[0], in)
			if err != nil {
				return explain(err)
			}
			printTasks(cmd.OutOrStdout(), []client.Task{task})
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVarP(&description, "description", "d", "", "new description")
	f.StringVarP(&priority, "priority", "p", "", "new priority")
	f.StringVarP(&category, "category", "c", "", "new category")
	f.StringVar(&due, "due", "", "new due date")
	f.StringSliceVarP(&tags, "tag", "t", nil, "replace tags")
	f.StringSliceVar(&clearFields, "clear", nil, "fields to clear (description, category, dueDate, tags)")
	return cmd
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>...",
		Aliases: []string{"done"},
		Short:   "Flip the completed flag of tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				task, err := s.ToggleCompletion(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, explain(err))
				}
				state := "pending"
				if task.Completed {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", task.Title, state)
			}
			return nil
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := s.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("%s: %w", id, explain(err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			}
			return nil
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.Stats(cmd.Context())
			if err != nil {
				return explain(err)
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func (a *app) dayCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "day [YYYY-MM-DD]",
		Aliases: []string{"today"},
		Short:   "Show tasks due on a day (today by default)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var date string
			if len(args) == 1 {
				date = args[0]
			}
			daily, err := a.client.ByDate(cmd.Context(), date)
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %d/%d done\n", headerStyle.Render(daily.Date), daily.CompletedCount, daily.TotalCount)
			printTasks(cmd.OutOrStdout(), daily.Tasks)
			return nil
		},
	}
}

func (a *app) groupedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grouped",
		Short: "List tasks grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.client.Grouped(cmd.Context())
			if err != nil {
				return explain(err)
			}
			printGroups(cmd.OutOrStdout(), groups)
			return nil
		},
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
