package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/teamsweep/internal/database"
	"github.com/dbsmedya/teamsweep/internal/lock"
	"github.com/dbsmedya/teamsweep/internal/replication"
	"github.com/dbsmedya/teamsweep/internal/report"
)

var (
	sweepRevertFile string
	sweepForce      bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Soft-delete unused team sets",
	Long: `Sweep classifies every team set candidate and soft-deletes the unused
ones from team_sets and team_sets_teams. Every row is stamped with the same
date_modified value, and the statements that revert the run are printed at
the end (and written to --revert-file when set).

The sweep:
  1. Discovers the tables that reference team sets
  2. Enumerates linked and unlinked team sets
  3. Probes each candidate against teams and the referencing tables
  4. Soft-deletes the unused ones, waiting on replica lag before each write

Example:
  teamsweep sweep --config teamsweep.yaml --revert-file revert.sql`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepRevertFile, "revert-file", "",
		"Write the revert statements to this file (overrides sweep.revert_file)")
	sweepCmd.Flags().BoolVar(&sweepForce, "force", false,
		"Run even if the sweep lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	sess, err := openSession(context.Background())
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := database.SetupSignalHandler(context.Background(), func(sig os.Signal) {
		sess.log.Warnf("Received %s - stopping after the current statement...", sig)
	})
	defer stop()

	release, err := acquireSweepLock(ctx, sess, sweepForce)
	if err != nil {
		return err
	}
	defer release()

	monitor := replication.NewMonitor(sess.db.Replica, sess.cfg.Safety, sess.log)
	scanner, err := sess.newScanner(ctx, monitor.Wait)
	if err != nil {
		return err
	}

	sess.log.Infow("Starting sweep",
		"config", GetConfigFile(),
		"stamp", scanner.Stamp(),
		"keep_linked", sess.cfg.Sweep.KeepLinked,
		"max_sleep", sess.cfg.Sweep.MaxSleep,
	)

	result, runErr := scanner.Run(ctx)

	// Rows may already be soft-deleted when the run fails part way, so the
	// revert statements are emitted on every path.
	revert := scanner.RevertStatements()
	if err := writeRevertFile(revertFilePath(sess.cfg.Sweep.RevertFile), scanner.Stamp(), revert); err != nil {
		sess.log.Errorf("Failed to write revert file: %v", err)
	}

	p := newPrinter(cmd)
	if runErr != nil {
		p.Statements("Revert Statements", revert)
		if errors.Is(runErr, context.Canceled) {
			sess.log.Warn("Sweep cancelled by user")
			return nil
		}
		return fmt.Errorf("sweep failed: %w", runErr)
	}

	p.Classifications(result.Classifications)
	p.Summary(&result.Findings, scanner.SearchableTables(), result.Stamp, result.Updated)
	p.Statements("Revert Statements", revert)
	return nil
}

// acquireSweepLock takes the per-schema advisory lock unless force is set.
// The returned function releases it.
func acquireSweepLock(ctx context.Context, sess *session, force bool) (func(), error) {
	if force {
		sess.log.Warn("Skipping advisory lock acquisition (--force flag used)")
		return func() {}, nil
	}

	sweepLock := lock.NewSweepLock(sess.db.Source, sess.cfg.Source.Database)
	if err := sweepLock.AcquireOrFail(ctx); err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return nil, fmt.Errorf("a sweep of %s is already running on another instance (use --force to override)", sess.cfg.Source.Database)
		}
		return nil, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	sess.log.Infow("Acquired advisory lock", "lock", sweepLock.LockName())

	return func() {
		if _, err := sweepLock.ReleaseLock(context.Background()); err != nil {
			sess.log.Warnf("Failed to release advisory lock: %v", err)
		}
	}, nil
}

// revertFilePath prefers the --revert-file flag over the configured path.
func revertFilePath(configured string) string {
	if sweepRevertFile != "" {
		return sweepRevertFile
	}
	return configured
}

// writeRevertFile writes stmts to path. An empty path writes nothing.
func writeRevertFile(path, stamp string, stmts []string) error {
	if path == "" {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteStatements(f, "revert teamsweep run "+stamp, stmts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
