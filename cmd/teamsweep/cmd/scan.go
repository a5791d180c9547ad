package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/teamsweep/internal/database"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Report unused team sets without changing anything",
	Long: `Scan classifies every team set candidate and prints the verdicts.
No rows are modified.

A team set is kept when:
  - its id is also the id of a live team
  - a live team_sets_teams row still links it (sweep.keep_linked)
  - a live row of any referencing table carries it in team_set_id or
    acl_team_set_id

Example:
  teamsweep scan --config teamsweep.yaml`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	sess, err := openSession(context.Background())
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := database.SetupSignalHandler(context.Background(), func(sig os.Signal) {
		sess.log.Warnf("Received %s - stopping scan...", sig)
	})
	defer stop()

	scanner, err := sess.newScanner(ctx, nil)
	if err != nil {
		return err
	}

	findings, err := scanner.FindUnused(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			sess.log.Warn("Scan cancelled by user")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	p := newPrinter(cmd)
	p.Classifications(findings.Classifications)
	p.Summary(findings, scanner.SearchableTables(), "", nil)
	return nil
}
