package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborview/governor/pkg/domain/planning"
)

var initiativeCmd = &cobra.Command{
	Use:   "initiative",
	Short: "Manage initiatives and their lifecycle",
}

var initiativeCreateCmd = &cobra.Command{
	Use:   "create <project-id> <name>",
	Short: "Create a draft initiative",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		initiative, err := services.Initiative.CreateInitiative(actorContext(cmd.Context()), args[0], args[1])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Created initiative %s (status: %s)\n", initiative.ID, initiative.Status)
		return nil
	},
}

var initiativeBlockReason string

var initiativeStatusCmd = &cobra.Command{
	Use:   "status <initiative-id> <status>",
	Short: "Transition an initiative to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		tctx := planning.TransitionContext{BlockedReason: initiativeBlockReason}
		err = services.Initiative.ProposeTransition(actorContext(cmd.Context()), args[0], planning.InitiativeStatus(args[1]), tctx)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Initiative %s is now %s\n", args[0], args[1])
		return nil
	},
}

var initiativeListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's initiatives",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		initiatives, err := services.Initiative.ListInitiatives(args[0])
		if err != nil {
			return MapError(err)
		}
		if len(initiatives) == 0 {
			fmt.Println("No initiatives.")
			return nil
		}
		for _, i := range initiatives {
			line := fmt.Sprintf("%s  %-14s %3d%%  %s", i.ID, i.Status, i.Progress, i.Name)
			if i.BlockedReason != "" {
				line += fmt.Sprintf("  (blocked: %s)", i.BlockedReason)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	initiativeStatusCmd.Flags().StringVar(&initiativeBlockReason, "reason", "", "Reason, required when blocking")
	initiativeCmd.AddCommand(initiativeCreateCmd, initiativeStatusCmd, initiativeListCmd)
	RootCmd.AddCommand(initiativeCmd)
}
