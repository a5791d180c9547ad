package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables that reference team sets",
	Long: `Tables lists every table that carries both team_set_id and
acl_team_set_id and is not excluded by tables.excluded. These are the
tables searched for references.

Example:
  teamsweep tables --config teamsweep.yaml`,
	RunE: runTables,
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	scanner, err := sess.newScanner(ctx, nil)
	if err != nil {
		return err
	}

	newPrinter(cmd).Tables(scanner.SearchableTables())
	return nil
}
