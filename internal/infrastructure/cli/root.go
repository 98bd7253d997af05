package cli

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "governor",
	Version: Version,
	Short:   "Governance and action-authorization engine for portfolio work",
	Long: `Governor is the governance core of a project portfolio: it validates
every lifecycle transition, keeps dependency graphs acyclic, rolls task
progress up into initiatives, gates phase changes behind stage gates, and
holds AI agents to explicit autonomy policy with a hash-chained audit trail.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the governor database (default $GOVERNOR_DB or ./governor.db)")
}
