// Package preflight checks that a schema can be swept before any query
// touches team set rows.
package preflight

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/dbsmedya/teamsweep/internal/logger"
	"github.com/dbsmedya/teamsweep/internal/teamset"
)

// PreflightError represents a preflight check failure.
type PreflightError struct {
	Check   string
	Message string
	Tables  []string
}

func (e *PreflightError) Error() string {
	if len(e.Tables) > 0 {
		return fmt.Sprintf("%s: %s (tables: %v)", e.Check, e.Message, e.Tables)
	}
	return fmt.Sprintf("%s: %s", e.Check, e.Message)
}

// TriggerResult is an UPDATE trigger found on a team set table.
type TriggerResult struct {
	Table   string
	Trigger string
}

// Checker runs the preflight checks.
type Checker struct {
	catalog teamset.Catalog
	db      *sql.DB // optional, enables the trigger check
	schema  string
	tables  teamset.Tables
	logger  *logger.Logger
}

// NewChecker creates a checker over catalog. db and schema may be empty,
// in which case the trigger check is skipped.
func NewChecker(catalog teamset.Catalog, db *sql.DB, schema string, tables teamset.Tables, log *logger.Logger) (*Checker, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is nil")
	}
	if db != nil && schema == "" {
		return nil, fmt.Errorf("schema name is required for trigger checks")
	}
	if tables == (teamset.Tables{}) {
		tables = teamset.DefaultTables()
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Checker{
		catalog: catalog,
		db:      db,
		schema:  schema,
		tables:  tables,
		logger:  log,
	}, nil
}

// requiredColumns lists the columns each team set table must carry.
func (c *Checker) requiredColumns() map[string][]string {
	return map[string][]string{
		c.tables.TeamSets:        {"id", "deleted", "date_modified"},
		c.tables.TeamSetsTeams:   {teamset.ColumnTeamSetID, "deleted", "date_modified"},
		c.tables.TeamSetsModules: {teamset.ColumnTeamSetID, "deleted"},
		c.tables.Teams:           {"id", "deleted"},
	}
}

// RunAllChecks runs every check and stops at the first failure.
func (c *Checker) RunAllChecks(ctx context.Context) error {
	c.logger.Info("Running preflight checks...")

	if err := c.ValidateTablesExist(ctx); err != nil {
		return err
	}
	if err := c.ValidateColumns(ctx); err != nil {
		return err
	}
	if err := c.WarnUpdateTriggers(ctx); err != nil {
		return err
	}

	c.logger.Info("All preflight checks PASSED")
	return nil
}

// ValidateTablesExist checks that the team set tables exist.
func (c *Checker) ValidateTablesExist(ctx context.Context) error {
	c.logger.Debug("Checking table existence...")

	all, err := c.catalog.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	existing := make(map[string]bool, len(all))
	for _, t := range all {
		existing[t] = true
	}

	var missing []string
	for _, t := range c.tableNames() {
		if !existing[t] {
			missing = append(missing, t)
		}
	}

	if len(missing) > 0 {
		return &PreflightError{
			Check:   "TABLE_EXISTENCE_CHECK",
			Message: "Tables not found in source database",
			Tables:  missing,
		}
	}

	c.logger.Debugf("Table existence check PASSED (%d tables)", len(existing))
	return nil
}

// ValidateColumns checks that each team set table has the columns the
// sweep reads and writes.
func (c *Checker) ValidateColumns(ctx context.Context) error {
	c.logger.Debug("Checking required columns...")

	var missing []string
	for _, table := range c.tableNames() {
		columns, err := c.catalog.ListColumns(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to list columns of %s: %w", table, err)
		}
		for _, col := range c.requiredColumns()[table] {
			if !columns[col] {
				missing = append(missing, table+"."+col)
			}
		}
	}

	if len(missing) > 0 {
		return &PreflightError{
			Check:   "COLUMN_CHECK",
			Message: "Required columns are missing",
			Tables:  missing,
		}
	}

	c.logger.Debug("Column check PASSED")
	return nil
}

// WarnUpdateTriggers logs UPDATE triggers on the tables the sweep writes.
// Triggers fire on every soft delete, so they are reported but allowed.
func (c *Checker) WarnUpdateTriggers(ctx context.Context) error {
	if c.db == nil {
		c.logger.Debug("Trigger check skipped (no database handle)")
		return nil
	}

	triggers, err := c.CheckUpdateTriggers(ctx)
	if err != nil {
		return err
	}
	if len(triggers) == 0 {
		c.logger.Debug("UPDATE trigger check PASSED (no triggers found)")
		return nil
	}

	var list []string
	for _, t := range triggers {
		list = append(list, fmt.Sprintf("%s(%s)", t.Table, t.Trigger))
	}
	c.logger.Warnf("UPDATE triggers detected, they will fire for every soft delete: %v", list)
	return nil
}

// CheckUpdateTriggers lists UPDATE triggers on the written tables.
func (c *Checker) CheckUpdateTriggers(ctx context.Context) ([]TriggerResult, error) {
	if c.db == nil {
		return nil, nil
	}

	written := []string{c.tables.TeamSets, c.tables.TeamSetsTeams, c.tables.TeamSetsModules}
	query := `
		SELECT EVENT_OBJECT_TABLE, TRIGGER_NAME
		FROM information_schema.TRIGGERS
		WHERE EVENT_OBJECT_SCHEMA = ?
		AND EVENT_MANIPULATION = 'UPDATE'
		AND EVENT_OBJECT_TABLE IN (` + strings.TrimSuffix(strings.Repeat("?,", len(written)), ",") + `)
		ORDER BY EVENT_OBJECT_TABLE, TRIGGER_NAME`

	args := []interface{}{c.schema}
	for _, t := range written {
		args = append(args, t)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query triggers: %w", err)
	}
	defer rows.Close()

	var triggers []TriggerResult
	for rows.Next() {
		var t TriggerResult
		if err := rows.Scan(&t.Table, &t.Trigger); err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

// tableNames returns the team set tables in a stable order.
func (c *Checker) tableNames() []string {
	names := []string{c.tables.TeamSets, c.tables.TeamSetsTeams, c.tables.TeamSetsModules, c.tables.Teams}
	sort.Strings(names)
	return names
}
