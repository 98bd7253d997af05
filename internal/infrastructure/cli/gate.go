package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harborview/governor/pkg/domain/gate"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Manage stage gates between lifecycle phases",
}

var (
	gateCreateCriteria []string
	gateCreateApproval bool
)

var gateCreateCmd = &cobra.Command{
	Use:   "create <project-id> <from-phase> <to-phase>",
	Short: "Create a stage gate guarding a phase transition",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		criteria := make([]gate.Criterion, 0, len(gateCreateCriteria))
		for _, desc := range gateCreateCriteria {
			criteria = append(criteria, gate.Criterion{ID: uuid.NewString(), Description: desc})
		}
		g, err := services.Gate.CreateGate(actorContext(cmd.Context()), args[0], args[1], args[2], criteria, gateCreateApproval)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Created gate %s (%s -> %s, %d criteria)\n", g.ID, g.FromPhase, g.ToPhase, len(g.Criteria))
		for _, c := range g.Criteria {
			fmt.Printf("  %s  %s\n", c.ID, c.Description)
		}
		return nil
	},
}

var criterionEvidence string

var gateCriterionCmd = &cobra.Command{
	Use:   "criterion <gate-id> <criterion-id> <met|unmet>",
	Short: "Mark a gate criterion met or unmet",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		met := args[2] == "met"
		if !met && args[2] != "unmet" {
			return fmt.Errorf("expected 'met' or 'unmet', got %q", args[2])
		}
		status, err := services.Gate.MarkCriterion(actorContext(cmd.Context()), args[0], args[1], met, criterionEvidence)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Gate %s is now %s\n", args[0], status)
		return nil
	},
}

var decideReason string

var gateDecideCmd = &cobra.Command{
	Use:   "decide <gate-id> <approve|reject>",
	Short: "Record an approval decision on a gate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		approve := args[1] == "approve"
		if !approve && args[1] != "reject" {
			return fmt.Errorf("expected 'approve' or 'reject', got %q", args[1])
		}
		approver := currentActor()
		status, err := services.Gate.Decide(actorContext(cmd.Context()), args[0], approver, approve, decideReason)
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Gate %s is now %s (decided by %s)\n", args[0], status, approver)
		return nil
	},
}

var gateEvaluateCmd = &cobra.Command{
	Use:   "evaluate <gate-id>",
	Short: "Re-evaluate a gate against its criteria",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		status, err := services.Gate.Evaluate(actorContext(cmd.Context()), args[0])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Gate %s is %s\n", args[0], status)
		return nil
	},
}

var gateAdvanceCmd = &cobra.Command{
	Use:   "advance <project-id> <gate-id>",
	Short: "Advance the project through a passed gate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		project, err := services.Gate.AdvancePhase(actorContext(cmd.Context()), args[0], args[1])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Project %s advanced to phase %s\n", project.ID, project.CurrentPhase)
		return nil
	},
}

var gateRollbackCmd = &cobra.Command{
	Use:   "rollback <project-id> <gate-id>",
	Short: "Roll the project back through a previously passed gate",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		project, err := services.Gate.RollbackPhase(actorContext(cmd.Context()), args[0], args[1])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Project %s rolled back to phase %s\n", project.ID, project.CurrentPhase)
		return nil
	},
}

var gateListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's stage gates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		gates, err := services.Gate.ListGates(args[0])
		if err != nil {
			return MapError(err)
		}
		if len(gates) == 0 {
			fmt.Println("No gates.")
			return nil
		}
		for _, g := range gates {
			met := 0
			for _, c := range g.Criteria {
				if c.IsMet {
					met++
				}
			}
			fmt.Printf("%s  %-10s %s -> %s  criteria %d/%d\n", g.ID, g.Status, g.FromPhase, g.ToPhase, met, len(g.Criteria))
		}
		return nil
	},
}

var gateShowCmd = &cobra.Command{
	Use:   "show <gate-id>",
	Short: "Show a stage gate with its criteria",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		g, err := services.Gate.GetGate(args[0])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Gate %s: %s -> %s\n", g.ID, g.FromPhase, g.ToPhase)
		fmt.Printf("  Status:            %s\n", g.Status)
		fmt.Printf("  Requires approval: %v\n", g.RequiresApproval)
		for _, c := range g.Criteria {
			mark := " "
			if c.IsMet {
				mark = "x"
			}
			line := fmt.Sprintf("  [%s] %s  %s", mark, c.ID, c.Description)
			if c.Evidence != "" {
				line += fmt.Sprintf(" (%s)", c.Evidence)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	gateCreateCmd.Flags().StringArrayVar(&gateCreateCriteria, "criterion", nil, "Criterion description (repeatable)")
	gateCreateCmd.Flags().BoolVar(&gateCreateApproval, "approval", false, "Require an explicit approval decision")
	gateCriterionCmd.Flags().StringVar(&criterionEvidence, "evidence", "", "Evidence backing the criterion")
	gateDecideCmd.Flags().StringVar(&decideReason, "reason", "", "Rationale for the decision")
	gateCmd.AddCommand(gateCreateCmd, gateCriterionCmd, gateEvaluateCmd, gateDecideCmd, gateAdvanceCmd, gateRollbackCmd, gateListCmd, gateShowCmd)
	RootCmd.AddCommand(gateCmd)
}
