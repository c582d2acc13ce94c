package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft"
	"github.com/gwenonit/outlook-cli/internal/connectors/microsoft/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage To Do tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long:  `List tasks in a To Do list. Completed tasks are hidden unless --all is given.`,
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task",
	Args:  cobra.NoArgs,
	RunE:  runTasksCreate,
}

var tasksCompleteCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksComplete,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDelete,
}

// Flags for tasks commands.
var (
	taskListName string
	taskAll      bool
	taskTitle    string
	taskDue      string
)

func init() {
	for _, c := range []*cobra.Command{tasksListCmd, tasksCreateCmd, tasksCompleteCmd, tasksDeleteCmd} {
		c.Flags().StringVar(&taskListName, "list-name", tasks.DefaultListName, "To Do list to operate on")
	}
	tasksListCmd.Flags().BoolVar(&taskAll, "all", false, "include completed tasks")
	tasksCreateCmd.Flags().StringVar(&taskTitle, "title", "", "task title (required)")
	tasksCreateCmd.Flags().StringVar(&taskDue, "due", "", "due date (YYYY-MM-DD)")
	_ = tasksCreateCmd.MarkFlagRequired("title")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksCreateCmd)
	tasksCmd.AddCommand(tasksCompleteCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)
	rootCmd.AddCommand(tasksCmd)
}

// tasksClient builds a To Do client for the resolved account.
func tasksClient(cmd *cobra.Command) (*tasks.Client, error) {
	if authService == nil {
		return nil, errors.New("auth service not configured")
	}
	account, err := currentAccount(cmd)
	if err != nil {
		return nil, err
	}
	return tasks.NewClient(microsoft.NewClient(authService, account, microsoft.ServiceTasks)), nil
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	client, err := tasksClient(cmd)
	if err != nil {
		return err
	}

	list, err := client.List(cmd.Context(), taskListName, taskAll)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, list)
	}

	if len(list) == 0 {
		cmd.Println("No tasks.")
		return nil
	}
	for i := range list {
		cmd.Println(tasks.FormatLine(&list[i]))
	}
	return nil
}

func runTasksCreate(cmd *cobra.Command, _ []string) error {
	client, err := tasksClient(cmd)
	if err != nil {
		return err
	}

	if taskDue != "" {
		if _, err := time.Parse("2006-01-02", taskDue); err != nil {
			return fmt.Errorf("invalid --due %q (expected YYYY-MM-DD)", taskDue)
		}
	}

	task, err := client.Create(cmd.Context(), taskListName, taskTitle, taskDue)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, task)
	}
	cmd.Printf("Created task: %s\n", task.ID)
	return nil
}

func runTasksComplete(cmd *cobra.Command, args []string) error {
	client, err := tasksClient(cmd)
	if err != nil {
		return err
	}

	task, err := client.Complete(cmd.Context(), taskListName, args[0])
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, task)
	}
	cmd.Printf("Completed: %s\n", task.Title)
	return nil
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	client, err := tasksClient(cmd)
	if err != nil {
		return err
	}

	if err := client.Delete(cmd.Context(), taskListName, args[0]); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	cmd.Printf("Deleted task: %s\n", args[0])
	return nil
}
