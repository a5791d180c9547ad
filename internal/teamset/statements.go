package teamset

import (
	"fmt"

	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

// The statements below are generated for an operator to review and run by
// hand. They are never executed by the sweep.

// RevertStatements returns the statements that undo this run's soft deletes.
func (s *Scanner) RevertStatements() []string {
	return RevertStatementsFor(s.tables, s.stamp)
}

// RevertStatementsFor returns the statements that undo the soft deletes of
// the run that wrote stamp.
func RevertStatementsFor(tables Tables, stamp string) []string {
	return []string{
		revertStamped(tables.TeamSetsTeams, stamp),
		revertStamped(tables.TeamSets, stamp),
	}
}

func revertStamped(table, stamp string) string {
	return fmt.Sprintf("UPDATE %s SET %s = 0 WHERE %s = 1 AND %s = %s",
		sqlutil.QuoteIdentifier(table),
		sqlutil.QuoteIdentifier(columnDeleted),
		sqlutil.QuoteIdentifier(columnDeleted),
		sqlutil.QuoteIdentifier(columnDateModified),
		sqlutil.QuoteString(stamp))
}

// RevertModulesStatement returns the statement that restores every
// soft-deleted team_sets_modules row. Module rows carry no stamp, so this
// also restores rows deleted by anything other than the sweep.
func RevertModulesStatement(tables Tables) string {
	return fmt.Sprintf("UPDATE %s SET %s = 0 WHERE %s = 1",
		sqlutil.QuoteIdentifier(tables.TeamSetsModules),
		sqlutil.QuoteIdentifier(columnDeleted),
		sqlutil.QuoteIdentifier(columnDeleted))
}

// PurgeStatements returns the statements that permanently remove every
// soft-deleted row of the team set tables.
func PurgeStatements(tables Tables) []string {
	var stmts []string
	for _, table := range []string{tables.TeamSetsTeams, tables.TeamSets, tables.TeamSetsModules} {
		stmts = append(stmts, fmt.Sprintf("DELETE FROM %s WHERE %s = 1",
			sqlutil.QuoteIdentifier(table),
			sqlutil.QuoteIdentifier(columnDeleted)))
	}
	return stmts
}
