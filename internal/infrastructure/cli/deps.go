package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harborview/governor/pkg/domain/dependency"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Manage cross-initiative dependencies",
}

var depsAddType string

var depsAddCmd = &cobra.Command{
	Use:   "add <project-id> <from-initiative> <to-initiative>",
	Short: "Add a dependency edge (from depends on to)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		edge, err := services.Dependency.AddDependency(actorContext(cmd.Context()), args[0], args[1], args[2], dependency.EdgeType(depsAddType))
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Added %s dependency %s: %s -> %s\n", edge.Type, edge.ID, edge.FromID, edge.ToID)
		return nil
	},
}

var depsRemoveCmd = &cobra.Command{
	Use:   "remove <project-id> <edge-id>",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		if err := services.Dependency.RemoveDependency(actorContext(cmd.Context()), args[0], args[1]); err != nil {
			return MapError(err)
		}
		fmt.Printf("Removed edge %s\n", args[1])
		return nil
	},
}

var depsListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List a project's dependency edges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		edges, err := services.Dependency.ListDependencies(args[0])
		if err != nil {
			return MapError(err)
		}
		if len(edges) == 0 {
			fmt.Println("No dependencies.")
			return nil
		}
		for _, e := range edges {
			fmt.Printf("%s  %s -> %s  (%s)\n", e.ID, e.FromID, e.ToID, e.Type)
		}
		return nil
	},
}

var depsDeadlocksCmd = &cobra.Command{
	Use:   "deadlocks <project-id>",
	Short: "Scan for blocked initiatives waiting on each other",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		cycles, err := services.Dependency.DetectDeadlocks(actorContext(cmd.Context()), args[0])
		if err != nil {
			return MapError(err)
		}
		if len(cycles) == 0 {
			fmt.Println("No deadlocks detected.")
			return nil
		}
		fmt.Printf("%d deadlock(s) detected:\n", len(cycles))
		for _, cycle := range cycles {
			fmt.Printf("  %s\n", strings.Join(cycle, " -> "))
		}
		return nil
	},
}

var depsOrderCmd = &cobra.Command{
	Use:   "order <project-id>",
	Short: "Print a valid execution order (dependencies first)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		order, err := services.Dependency.ExecutionOrder(args[0])
		if err != nil {
			return MapError(err)
		}
		for i, id := range order {
			fmt.Printf("%d. %s\n", i+1, id)
		}
		return nil
	},
}

var depsSummaryCmd = &cobra.Command{
	Use:   "summary <project-id>",
	Short: "Summarize a project's dependency graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		summary, err := services.Dependency.Summary(args[0])
		if err != nil {
			return MapError(err)
		}
		fmt.Printf("Nodes:     %d\n", summary.TotalNodes)
		fmt.Printf("Edges:     %d\n", summary.TotalEdges)
		for edgeType, count := range summary.ByType {
			fmt.Printf("  %-16s %d\n", edgeType, count)
		}
		fmt.Printf("Deadlocks: %d\n", summary.Deadlocks)
		return nil
	},
}

func init() {
	depsAddCmd.Flags().StringVar(&depsAddType, "type", string(dependency.EdgeFinishToStart), "Edge type: finish_to_start|soft")
	depsCmd.AddCommand(depsAddCmd, depsRemoveCmd, depsListCmd, depsDeadlocksCmd, depsOrderCmd, depsSummaryCmd)
	RootCmd.AddCommand(depsCmd)
}
