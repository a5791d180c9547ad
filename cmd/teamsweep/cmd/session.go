package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/teamsweep/internal/config"
	"github.com/dbsmedya/teamsweep/internal/database"
	"github.com/dbsmedya/teamsweep/internal/logger"
	"github.com/dbsmedya/teamsweep/internal/report"
	"github.com/dbsmedya/teamsweep/internal/teamset"
)

// session holds what every database command needs: configuration, a
// logger, open connections and the team set store.
type session struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.Manager
	catalog *database.MySQLCatalog
	store   *teamset.SQLStore
}

// loadConfig loads the config file, applies CLI overrides and validates
// the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.MaxSleep)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfigOrDefault is loadConfig for commands that never connect: a
// missing config file yields the defaults, and a present one is checked
// for everything except connection settings.
func loadConfigOrDefault() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if _, err := os.Stat(GetConfigFile()); !errors.Is(err, fs.ErrNotExist) {
		if cfg, err = config.Load(GetConfigFile()); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.MaxSleep)

	if err := cfg.ValidateOffline(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openSession loads configuration and connects to the source database
// (and the replica when enabled).
func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	dbManager := database.NewManager(cfg)
	if err := dbManager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to databases: %w", err)
	}

	if err := dbManager.Ping(ctx); err != nil {
		dbManager.Close()
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	catalog, err := database.NewMySQLCatalog(dbManager.Source, cfg.Source.Database)
	if err != nil {
		dbManager.Close()
		return nil, err
	}

	store, err := teamset.NewSQLStore(dbManager.Source, catalog)
	if err != nil {
		dbManager.Close()
		return nil, err
	}

	return &session{
		cfg:     cfg,
		log:     log,
		db:      dbManager,
		catalog: catalog,
		store:   store,
	}, nil
}

// Close releases the connections and flushes the logger.
func (s *session) Close() {
	s.db.Close()
	_ = s.log.Sync()
}

// newScanner builds a scanner from the session configuration. beforeWrite
// may be nil.
func (s *session) newScanner(ctx context.Context, beforeWrite func(context.Context) error) (*teamset.Scanner, error) {
	scanner, err := teamset.NewScanner(ctx, s.store, teamset.Options{
		Tables:      tablesFromConfig(s.cfg.Tables),
		Excluded:    s.cfg.Tables.ExcludedTables(),
		MaxSleep:    s.cfg.Sweep.MaxSleep,
		KeepLinked:  s.cfg.Sweep.KeepLinked,
		BeforeWrite: beforeWrite,
		Logger:      s.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scanner: %w", err)
	}
	return scanner, nil
}

// tablesFromConfig maps the configured table names onto teamset.Tables.
func tablesFromConfig(c config.TablesConfig) teamset.Tables {
	return teamset.Tables{
		TeamSets:        c.TeamSets,
		TeamSetsTeams:   c.TeamSetsTeams,
		TeamSetsModules: c.TeamSetsModules,
		Teams:           c.Teams,
	}
}

func newPrinter(cmd *cobra.Command) *report.Printer {
	return report.NewPrinter(cmd.OutOrStdout(), !noColor)
}
