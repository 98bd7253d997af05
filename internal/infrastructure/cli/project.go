package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects and their governance settings",
}

var projectCreatePhase string

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		project, err := services.Project.CreateProject(actorContext(cmd.Context()), args[0], projectCreatePhase)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Created project %s (phase: %s)\n", project.ID, project.CurrentPhase)
		return nil
	},
}

var projectAllowCmd = &cobra.Command{
	Use:   "allow-actions <project-id> <action-type,...>",
	Short: "Set the unattended allow-list for autopilot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		types := strings.Split(args[1], ",")
		for i := range types {
			types[i] = strings.TrimSpace(types[i])
		}
		if err := services.Project.SetAllowedAIActions(actorContext(cmd.Context()), args[0], types); err != nil {
			return MapError(err)
		}
		fmt.Printf("Project %s now allows unattended: %s\n", args[0], strings.Join(types, ", "))
		return nil
	},
}

var projectRollbackCmd = &cobra.Command{
	Use:   "allow-rollback <project-id>",
	Short: "Permit phase rollback for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if err := services.Project.SetPhaseRollback(actorContext(cmd.Context()), args[0], true); err != nil {
			return MapError(err)
		}
		fmt.Printf("Project %s permits phase rollback\n", args[0])
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		project, err := services.Project.GetProject(args[0])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Project: %s\n", project.Name)
		fmt.Printf("  ID:             %s\n", project.ID)
		fmt.Printf("  Phase:          %s\n", project.CurrentPhase)
		fmt.Printf("  Rollback:       %v\n", project.Governance.AllowPhaseRollback)
		fmt.Printf("  Policy level:   %s\n", services.Policy.EffectiveLevel(project.ID))
		if len(project.AllowedAIActions) > 0 {
			fmt.Printf("  Unattended:     %s\n", strings.Join(project.AllowedAIActions, ", "))
		}
		return nil
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projectCreatePhase, "phase", "discovery", "Initial lifecycle phase")
	projectCmd.AddCommand(projectCreateCmd, projectAllowCmd, projectRollbackCmd, projectShowCmd)
	RootCmd.AddCommand(projectCmd)
}
