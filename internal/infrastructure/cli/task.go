package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harborview/governor/pkg/domain/planning"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks and their lifecycle",
}

var taskCreatePriority string

var taskCreateCmd = &cobra.Command{
	Use:   "create <initiative-id> <title>",
	Short: "Create a task under an initiative",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		task, err := services.Task.CreateTask(actorContext(cmd.Context()), args[0], args[1], planning.TaskPriority(taskCreatePriority))
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Created task %s (priority: %s)\n", task.ID, task.Priority)
		return nil
	},
}

var (
	taskBlockReason string
	taskBlockerType string
)

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Transition a task to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		tctx := planning.TransitionContext{
			BlockedReason: taskBlockReason,
			BlockerType:   planning.BlockerType(taskBlockerType),
		}
		err = services.Task.TransitionTask(actorContext(cmd.Context()), args[0], planning.TaskStatus(args[1]), tctx)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Task %s is now %s\n", args[0], args[1])
		return nil
	},
}

var taskProgressCmd = &cobra.Command{
	Use:   "progress <task-id> <percent>",
	Short: "Record task progress (0-100)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		pct, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("progress must be an integer: %w", err)
		}
		if err := services.Task.UpdateProgress(actorContext(cmd.Context()), args[0], pct); err != nil {
			return MapError(err)
		}
		fmt.Printf("Task %s progress set to %d%%\n", args[0], pct)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task (the initiative's progress is recomputed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if err := services.Task.DeleteTask(actorContext(cmd.Context()), args[0]); err != nil {
			return MapError(err)
		}
		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list <initiative-id>",
	Short: "List an initiative's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		tasks, err := services.Task.ListTasks(args[0])
		if err != nil {
			return MapError(err)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks.")
			return nil
		}
		for _, t := range tasks {
			line := fmt.Sprintf("%s  %-12s %-8s %3d%%  %s", t.ID, t.Status, t.Priority, t.Progress, t.Title)
			if t.BlockedReason != "" {
				line += fmt.Sprintf("  (%s: %s)", t.BlockerType, t.BlockedReason)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskCreatePriority, "priority", "medium", "Priority: low|medium|high|urgent")
	taskStatusCmd.Flags().StringVar(&taskBlockReason, "reason", "", "Reason, required when blocking")
	taskStatusCmd.Flags().StringVar(&taskBlockerType, "blocker-type", "", "Blocker type, required when blocking: risk|decision|dependency|resource|other")
	taskCmd.AddCommand(taskCreateCmd, taskStatusCmd, taskProgressCmd, taskDeleteCmd, taskListCmd)
	RootCmd.AddCommand(taskCmd)
}
