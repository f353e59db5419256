package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/crewhq/crew/internal/db"
	"github.com/crewhq/crew/internal/models"
	"github.com/crewhq/crew/internal/output"
)

var taskSort string

var taskCmd = &cobra.Command{
	Use:     "task",
	Short:   "Manage checklist tasks",
	GroupID: "core",
}

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long: `Add a task, assigned to the current user unless --assignee names
someone else.

Examples:
  crew task add "File GST return" --due 2026-09-05
  crew task add "Backup check" --assignee deven --recur daily`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		actor, err := currentUser(database)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		assignee := actor
		if username, _ := cmd.Flags().GetString("assignee"); username != "" {
			if !actor.Role.HasPermission(models.PermAssignTasks) {
				err := fmt.Errorf("role %s cannot assign tasks to others", actor.Role)
				output.Error("%v", err)
				return err
			}
			assignee, err = database.GetUserByUsername(username)
			if err != nil {
				output.Error("%v", err)
				return err
			}
		}

		var due time.Time
		if dueStr, _ := cmd.Flags().GetString("due"); dueStr != "" {
			due, err = parseDate(dueStr)
			if err != nil {
				output.Error("%v", err)
				return err
			}
		}

		recurStr, _ := cmd.Flags().GetString("recur")
		recur, err := models.ParseRecurrence(recurStr)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if recur != models.RecurNone && due.IsZero() {
			err := fmt.Errorf("recurring tasks need a --due date")
			output.Error("%v", err)
			return err
		}

		description, _ := cmd.Flags().GetString("description")
		task := &models.Task{
			Title:       args[0],
			Description: description,
			AssigneeID:  assignee.ID,
			AssignerID:  actor.ID,
			Recurrence:  recur,
			DueAt:       due,
		}
		if err := database.CreateTask(task); err != nil {
			output.Error("%v", err)
			return err
		}

		logAction(database, actor.ID, "task.created", "task", task.ID, task.Title)
		output.Success("Added %s: %s", task.ID, task.Title)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		showAll, _ := cmd.Flags().GetBool("all")
		mine, _ := cmd.Flags().GetBool("mine")
		assignee, _ := cmd.Flags().GetString("assignee")
		asJSON, _ := cmd.Flags().GetBool("json")
		asTree, _ := cmd.Flags().GetBool("tree")

		opts := db.ListTasksOptions{SortBy: taskSort}
		if !showAll {
			opts.Status = []models.TaskStatus{models.TaskPending}
		}
		if mine {
			actor, err := currentUser(database)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			opts.AssigneeID = actor.ID
		} else if assignee != "" {
			user, err := database.GetUserByUsername(assignee)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			opts.AssigneeID = user.ID
		}

		tasks, err := database.ListTasks(opts)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if asJSON {
			output.JSON(tasks)
			return nil
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found")
			return nil
		}
		if asTree {
			return printTaskTree(database, tasks)
		}
		for _, t := range tasks {
			fmt.Println(output.FormatTaskShort(&t))
		}
		return nil
	},
}

// printTaskTree groups tasks under their assignees.
func printTaskTree(database *db.DB, tasks []models.Task) error {
	byAssignee := make(map[string][]models.Task)
	for _, t := range tasks {
		byAssignee[t.AssigneeID] = append(byAssignee[t.AssigneeID], t)
	}

	ids := make([]string, 0, len(byAssignee))
	for id := range byAssignee {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var roots []output.TreeNode
	for _, id := range ids {
		label := id
		if user, err := database.GetUser(id); err == nil {
			label = user.Username
		}
		node := output.TreeNode{Title: label}
		for _, t := range byAssignee[id] {
			node.Children = append(node.Children, output.TreeNode{
				ID:     t.ID,
				Title:  t.Title,
				Status: t.Status,
			})
		}
		roots = append(roots, node)
	}

	fmt.Println(output.RenderTree(roots, output.TreeRenderOptions{ShowStatus: true}))
	return nil
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <id> [id...]",
	Short: "Mark tasks completed",
	Long: `Mark one or more tasks completed. Completing several at once asks
for confirmation first. Completing a recurring task plans the next
occurrence automatically.

Examples:
  crew task done tk-1a2b3c
  crew task done tk-1a2b3c tk-4d5e6f tk-7a8b9c`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		actor, err := currentUser(database)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if len(args) > 1 && !yes {
			ok := false
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Mark %d tasks as completed?", len(args))).
				Value(&ok)
			if err := prompt.Run(); err != nil {
				output.Error("%v", err)
				return err
			}
			if !ok {
				fmt.Println("Cancelled")
				return nil
			}
		}

		now := time.Now()
		for _, id := range args {
			next, err := database.CompleteTask(id, now)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			logAction(database, actor.ID, "task.completed", "task", db.NormalizeTaskID(id), "")
			output.Success("Completed %s", db.NormalizeTaskID(id))
			if next != nil {
				output.Info("  next occurrence %s due %s", next.ID, next.DueAt.Format("2006-01-02"))
			}
		}
		return nil
	},
}

var taskCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a task without completing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		actor, err := currentUser(database)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if err := database.CloseTask(args[0]); err != nil {
			output.Error("%v", err)
			return err
		}
		logAction(database, actor.ID, "task.closed", "task", db.NormalizeTaskID(args[0]), "")
		output.Success("Closed %s", db.NormalizeTaskID(args[0]))
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		task, err := database.GetTask(args[0])
		if err != nil {
			output.Error("%v", err)
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			output.JSON(task)
			return nil
		}

		fmt.Println(output.FormatTaskShort(task))
		if task.Description != "" {
			fmt.Println("  " + task.Description)
		}
		if assignee, err := database.GetUser(task.AssigneeID); err == nil {
			fmt.Printf("  assignee: %s\n", assignee.Username)
		}
		if task.Recurrence != models.RecurNone {
			fmt.Printf("  recurs: %s\n", task.Recurrence)
		}
		fmt.Printf("  created %s\n", output.FormatTimeAgo(task.CreatedAt))
		if task.CompletedAt != nil {
			fmt.Printf("  completed %s\n", output.FormatTimeAgo(*task.CompletedAt))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskCloseCmd)
	taskCmd.AddCommand(taskShowCmd)

	taskAddCmd.Flags().String("assignee", "", "Assign to this username instead of yourself")
	taskAddCmd.Flags().StringP("due", "d", "", "Due date (YYYY-MM-DD, today, tomorrow, +Nd)")
	taskAddCmd.Flags().String("recur", "none", "Recurrence (none, daily, weekly, monthly)")
	taskAddCmd.Flags().String("description", "", "Description text")

	taskListCmd.Flags().BoolP("all", "a", false, "Include completed and closed tasks")
	taskListCmd.Flags().BoolP("mine", "m", false, "Only the current user's tasks")
	taskListCmd.Flags().String("assignee", "", "Filter by assignee username")
	taskListCmd.Flags().Var(
		newChoiceValue("due", &taskSort, "due", "created", "title"),
		"sort", "Sort order (due, created, title)")
	taskListCmd.Flags().Bool("json", false, "Output as JSON")
	taskListCmd.Flags().Bool("tree", false, "Group by assignee")

	taskDoneCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
}
