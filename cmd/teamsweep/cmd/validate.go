package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/teamsweep/internal/preflight"
	"github.com/dbsmedya/teamsweep/internal/replication"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and runs preflight checks
against the database to ensure a sweep can run safely.

Checks performed:
  - Configuration syntax and required fields
  - Database connectivity (source, replica)
  - Table existence of the team set tables
  - Required columns (id, team_set_id, deleted, date_modified)
  - UPDATE trigger detection on the tables the sweep writes
  - Replication status when lag monitoring is enabled

Example:
  teamsweep validate --config teamsweep.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.log.Info("Starting validation checks...")

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())
	cmd.Printf("Schema: %s\n", sess.catalog.Schema())
	cmd.Printf("Max sleep: %s\n", sess.cfg.Sweep.MaxSleep)
	cmd.Printf("Keep linked: %v\n\n", sess.cfg.Sweep.KeepLinked)

	checker, err := preflight.NewChecker(sess.catalog, sess.db.Source, sess.catalog.Schema(),
		tablesFromConfig(sess.cfg.Tables), sess.log)
	if err != nil {
		return fmt.Errorf("failed to create preflight checker: %w", err)
	}

	if err := checker.RunAllChecks(ctx); err != nil {
		cmd.Printf("❌ Preflight checks failed: %v\n\n", err)
		return fmt.Errorf("validation failed")
	}

	scanner, err := sess.newScanner(ctx, nil)
	if err != nil {
		return err
	}
	cmd.Printf("Referencing tables: %d\n", len(scanner.SearchableTables()))

	monitor := replication.NewMonitor(sess.db.Replica, sess.cfg.Safety, sess.log)
	if monitor.Enabled() {
		ok, lag, err := monitor.Check(ctx)
		switch {
		case err != nil:
			cmd.Printf("❌ Replica check failed: %v\n\n", err)
			return fmt.Errorf("validation failed")
		case !ok:
			cmd.Printf("⚠️  Replica lag %ds is above the %ds threshold, writes will pause\n", lag, monitor.Threshold())
		default:
			cmd.Printf("Replica lag: %ds\n", lag)
		}
	}

	cmd.Println("\n=== Validation Complete ===")
	cmd.Println("✅ All checks passed")
	return nil
}
