package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/teamsweep/internal/database"
	"github.com/dbsmedya/teamsweep/internal/replication"
	"github.com/dbsmedya/teamsweep/internal/teamset"
)

var cleanupForce bool

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-modules",
	Short: "Soft-delete team_sets_modules rows without a team set",
	Long: `Cleanup-modules marks deleted every live team_sets_modules row whose
team_set_id is NULL. Module rows carry no timestamp, so the printed revert
statement restores every soft-deleted module row.

Example:
  teamsweep cleanup-modules --config teamsweep.yaml`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupForce, "force", false,
		"Run even if the sweep lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	sess, err := openSession(context.Background())
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := database.SetupSignalHandler(context.Background(), func(sig os.Signal) {
		sess.log.Warnf("Received %s - stopping...", sig)
	})
	defer stop()

	release, err := acquireSweepLock(ctx, sess, cleanupForce)
	if err != nil {
		return err
	}
	defer release()

	monitor := replication.NewMonitor(sess.db.Replica, sess.cfg.Safety, sess.log)
	scanner, err := sess.newScanner(ctx, monitor.Wait)
	if err != nil {
		return err
	}

	n, err := scanner.SoftDeleteNullModules(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			sess.log.Warn("Cleanup cancelled by user")
			return nil
		}
		return fmt.Errorf("module cleanup failed: %w", err)
	}

	cmd.Printf("\nSoft-deleted %d module rows without team set\n", n)
	newPrinter(cmd).Statements("Revert Statement", []string{teamset.RevertModulesStatement(scanner.Tables())})
	return nil
}
