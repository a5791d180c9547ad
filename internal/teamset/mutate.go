package teamset

import (
	"context"
	"fmt"

	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

// Result is the outcome of a full sweep.
type Result struct {
	Findings

	// Stamp is the date_modified value written to every soft-deleted row.
	Stamp string

	// Updated maps each team set table to the rows soft-deleted in it.
	Updated map[string]int64
}

// RowsUpdated returns the total rows soft-deleted across tables.
func (r *Result) RowsUpdated() int64 {
	var total int64
	for _, n := range r.Updated {
		total += n
	}
	return total
}

// Run classifies every candidate and soft-deletes the unused ones.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	findings, err := s.FindUnused(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.SoftDelete(ctx, findings.Unused)
	if err != nil {
		return nil, err
	}

	return &Result{
		Findings: *findings,
		Stamp:    s.stamp,
		Updated:  updated,
	}, nil
}

// SoftDelete marks each team set and its team links deleted, stamping
// date_modified with the run stamp. Empty ids are skipped. Rows already
// deleted are left alone, so repeating a sweep changes nothing.
func (s *Scanner) SoftDelete(ctx context.Context, ids []string) (map[string]int64, error) {
	updated := map[string]int64{
		s.tables.TeamSets:      0,
		s.tables.TeamSetsTeams: 0,
	}

	for _, id := range ids {
		if isEmptyID(id) {
			continue
		}
		if err := s.prepareWrite(ctx); err != nil {
			return updated, err
		}

		log := s.logger.WithTeamSet(id)
		for _, target := range []struct{ table, column string }{
			{s.tables.TeamSets, columnID},
			{s.tables.TeamSetsTeams, ColumnTeamSetID},
		} {
			n, err := s.store.Update(ctx, sqlutil.Update{
				Table: target.table,
				Set: []sqlutil.Assignment{
					{Column: columnDeleted, Value: 1},
					{Column: columnDateModified, Value: s.stamp},
				},
				Where: []sqlutil.Cond{
					sqlutil.Eq(columnDeleted, 0),
					sqlutil.Eq(target.column, id),
				},
			})
			if err != nil {
				return updated, fmt.Errorf("failed to soft delete team set %s from %s: %w", id, target.table, err)
			}
			updated[target.table] += n
		}
		log.Debug("Soft-deleted team set")
	}

	s.logger.Infof("Soft-deleted %d team set rows and %d team link rows",
		updated[s.tables.TeamSets], updated[s.tables.TeamSetsTeams])
	return updated, nil
}

// SoftDeleteNullModules marks deleted every team_sets_modules row that has
// no team set. These rows carry no timestamp.
func (s *Scanner) SoftDeleteNullModules(ctx context.Context) (int64, error) {
	if err := s.prepareWrite(ctx); err != nil {
		return 0, err
	}

	n, err := s.store.Update(ctx, sqlutil.Update{
		Table: s.tables.TeamSetsModules,
		Set:   []sqlutil.Assignment{{Column: columnDeleted, Value: 1}},
		Where: []sqlutil.Cond{
			sqlutil.Eq(columnDeleted, 0),
			sqlutil.IsNull(ColumnTeamSetID),
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to soft delete modules without team set: %w", err)
	}

	s.logger.WithTable(s.tables.TeamSetsModules).Infof("Soft-deleted %d module rows without team set", n)
	return n, nil
}

func (s *Scanner) prepareWrite(ctx context.Context) error {
	if err := s.pause(ctx); err != nil {
		return err
	}
	if s.beforeWrite != nil {
		if err := s.beforeWrite(ctx); err != nil {
			return fmt.Errorf("write blocked: %w", err)
		}
	}
	return nil
}
