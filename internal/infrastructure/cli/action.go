package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harborview/governor/pkg/domain/aiaction"
	"github.com/harborview/governor/pkg/domain/aipolicy"
)

var actionCmd = &cobra.Command{
	Use:   "action",
	Short: "Propose and decide AI actions",
}

var (
	actionProposePayload string
	actionProposeFile    string
	actionProposeBy      string
)

var actionProposeCmd = &cobra.Command{
	Use:   "propose <project-id> <action-type>",
	Short: "Propose an AI action against a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		payload := json.RawMessage(actionProposePayload)
		if actionProposeFile != "" {
			data, err := os.ReadFile(actionProposeFile)
			if err != nil {
				return fmt.Errorf("read payload file: %w", err)
			}
			payload = data
		}
		action, err := services.Action.Propose(actorContext(cmd.Context()), args[0], args[1], actionProposeBy, payload)
		if err != nil {
			return MapError(err)
		}
		switch action.Status {
		case aiaction.StatusPending:
			fmt.Printf("Action %s is pending approval (requires %s)\n", action.ID, action.RequiredPolicyLevel)
			fmt.Printf("Approve with: governor action approve %s\n", action.ID)
		case aiaction.StatusExecuted:
			fmt.Printf("Action %s executed unattended by %s\n", action.ID, action.DecidedBy)
		default:
			fmt.Printf("Action %s is %s\n", action.ID, action.Status)
		}
		return nil
	},
}

var actionApproveCmd = &cobra.Command{
	Use:   "approve <action-id>",
	Short: "Approve a pending action and execute it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if err := services.Action.Approve(actorContext(cmd.Context()), args[0], currentActor()); err != nil {
			return MapError(err)
		}
		action, err := services.Action.GetAction(args[0])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Action %s is now %s\n", action.ID, action.Status)
		return nil
	},
}

var actionRejectReason string

var actionRejectCmd = &cobra.Command{
	Use:   "reject <action-id>",
	Short: "Reject a pending action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if err := services.Action.Reject(actorContext(cmd.Context()), args[0], currentActor(), actionRejectReason); err != nil {
			return MapError(err)
		}
		fmt.Printf("Rejected action %s\n", args[0])
		return nil
	},
}

var actionListStatus string

var actionListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's AI actions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		actions, err := services.Action.ListActions(args[0], aiaction.Status(actionListStatus))
		if err != nil {
			return MapError(err)
		}
		if len(actions) == 0 {
			fmt.Println("No actions.")
			return nil
		}
		for _, a := range actions {
			line := fmt.Sprintf("%s  %-9s %-24s by %s", a.ID, a.Status, a.Type, a.ProposedBy)
			if a.DecidedBy != "" {
				line += fmt.Sprintf(", decided by %s", a.DecidedBy)
			}
			fmt.Println(line)
		}
		return nil
	},
}

var actionCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the recognized action types and their required policy levels",
	RunE: func(cmd *cobra.Command, args []string) error {
		types := aipolicy.AllActionTypes()
		sort.Strings(types)
		for _, name := range types {
			spec, _ := aipolicy.LookupAction(name)
			fmt.Printf("%-26s requires %-9s %s\n", spec.Type, spec.RequiredLevel, spec.Kind)
		}
		return nil
	},
}

func init() {
	actionProposeCmd.Flags().StringVar(&actionProposePayload, "payload", "{}", "Action payload as inline JSON")
	actionProposeCmd.Flags().StringVar(&actionProposeFile, "payload-file", "", "Read the action payload from a JSON file")
	actionProposeCmd.Flags().StringVar(&actionProposeBy, "proposed-by", "agent:cli", "Identity of the proposing agent")
	actionRejectCmd.Flags().StringVar(&actionRejectReason, "reason", "", "Reason for the rejection")
	actionListCmd.Flags().StringVar(&actionListStatus, "status", "", "Filter by status: pending|approved|rejected|executed")
	actionCmd.AddCommand(actionProposeCmd, actionApproveCmd, actionRejectCmd, actionListCmd, actionCatalogCmd)
	RootCmd.AddCommand(actionCmd)
}
