package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/teamsweep/internal/teamset"
)

var (
	revertTimestamp string
	revertModules   bool
)

var statementsCmd = &cobra.Command{
	Use:   "statements",
	Short: "Print revert or purge statements",
	Long: `Statements prints SQL for an operator to review and run by hand.
Nothing is executed and no database connection is made.

Example:
  teamsweep statements revert --timestamp "2026-10-14 09:30:00"
  teamsweep statements purge`,
}

var revertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Print the statements that undo an earlier sweep",
	Long: `Revert prints the statements restoring the team_sets and
team_sets_teams rows soft-deleted by the sweep that wrote --timestamp
(the run stamp shown in the sweep summary, UTC, "2006-01-02 15:04:05").
With --modules it also prints the statement restoring team_sets_modules.

Example:
  teamsweep statements revert --timestamp "2026-10-14 09:30:00"`,
	RunE: runRevert,
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Print the statements that permanently remove soft-deleted rows",
	Long: `Purge prints DELETE statements for every soft-deleted row of
team_sets_teams, team_sets and team_sets_modules. Running them makes every
earlier sweep irreversible.

Example:
  teamsweep statements purge`,
	RunE: runPurge,
}

func init() {
	revertCmd.Flags().StringVarP(&revertTimestamp, "timestamp", "t", "",
		"Run stamp of the sweep to revert")
	revertCmd.Flags().BoolVar(&revertModules, "modules", false,
		"Also restore soft-deleted team_sets_modules rows")

	statementsCmd.AddCommand(revertCmd)
	statementsCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(statementsCmd)
}

func runRevert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}
	tables := tablesFromConfig(cfg.Tables)

	var stmts []string
	if revertTimestamp != "" {
		if _, err := time.Parse(teamset.StampLayout, revertTimestamp); err != nil {
			return fmt.Errorf("invalid --timestamp %q: expected format %q", revertTimestamp, teamset.StampLayout)
		}
		stmts = teamset.RevertStatementsFor(tables, revertTimestamp)
	}
	if revertModules {
		stmts = append(stmts, teamset.RevertModulesStatement(tables))
	}
	if len(stmts) == 0 {
		return fmt.Errorf("nothing to revert: set --timestamp and/or --modules")
	}

	newPrinter(cmd).Statements("Revert Statements", stmts)
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigOrDefault()
	if err != nil {
		return err
	}

	newPrinter(cmd).Statements("Purge Statements", teamset.PurgeStatements(tablesFromConfig(cfg.Tables)))
	return nil
}
