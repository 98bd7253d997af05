package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harborview/governor/internal/infrastructure/config"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect and manage the AI autonomy policy",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active policy configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		cfg := services.Policy.Current()
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		if len(cfg.ProjectOverrides) > 0 {
			projects := make([]string, 0, len(cfg.ProjectOverrides))
			for id := range cfg.ProjectOverrides {
				projects = append(projects, id)
			}
			sort.Strings(projects)
			fmt.Println("# effective levels")
			for _, id := range projects {
				fmt.Printf("# %s: %s\n", id, services.Policy.EffectiveLevel(id))
			}
		}
		return nil
	},
}

var policyLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Validate a policy file and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if err := services.LoadPolicyFile(args[0]); err != nil {
			return MapError(err)
		}
		cfg := services.Policy.Current()
		fmt.Printf("Policy loaded from %s (org: %s, ceiling: %s)\n", args[0], cfg.OrgLevel, cfg.PlatformCeiling)
		return nil
	},
}

var policySaveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Write the active policy to a file (default " + config.PolicyFile + ")",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		path := config.PolicyFile
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.SavePolicyConfig(path, services.Policy.Current()); err != nil {
			return err
		}
		fmt.Printf("Policy written to %s\n", path)
		return nil
	},
}

var policyLevelCmd = &cobra.Command{
	Use:   "level <project-id>",
	Short: "Resolve the effective autonomy level for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		fmt.Println(services.Policy.EffectiveLevel(args[0]))
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyShowCmd, policyLoadCmd, policySaveCmd, policyLevelCmd)
	RootCmd.AddCommand(policyCmd)
}
