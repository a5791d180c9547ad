package teamset

import (
	"context"
	"fmt"

	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

// Reason records why a candidate was kept or dropped.
type Reason string

const (
	ReasonTeam      Reason = "team"      // the id is also a live team id
	ReasonLinked    Reason = "linked"    // a live team_sets_teams row carries the id
	ReasonReference Reason = "reference" // a live row of a searchable table points at it
	ReasonUnused    Reason = "unused"
	ReasonEmpty     Reason = "empty"
)

// Classification is the verdict for one candidate.
type Classification struct {
	ID     string
	Reason Reason

	// Table and Column name the first matching reference.
	Table  string
	Column string

	// Probes counts the existence queries issued for this candidate.
	Probes int
}

// Kept reports whether the team set is still in use.
func (c Classification) Kept() bool {
	switch c.Reason {
	case ReasonTeam, ReasonLinked, ReasonReference:
		return true
	}
	return false
}

// Findings is the outcome of the liveness pass.
type Findings struct {
	Candidates      []Candidate
	Classifications []Classification

	// Unused lists, in candidate order, the ids that nothing refers to.
	Unused []string

	// Empty lists the blank or zero ids. They are never checked or written.
	Empty []string
}

// FindUnused enumerates candidates and classifies each one.
func (s *Scanner) FindUnused(ctx context.Context) (*Findings, error) {
	candidates, err := s.Candidates(ctx)
	if err != nil {
		return nil, err
	}

	findings := &Findings{Candidates: candidates}
	if len(candidates) == 0 || len(s.searchable) == 0 {
		s.logger.Infof("Nothing to classify (%d candidates, %d tables)", len(candidates), len(s.searchable))
		return findings, nil
	}

	s.logger.Infof("Checking %d team sets against %d tables", len(candidates), len(s.searchable))
	for _, c := range candidates {
		cl, err := s.Classify(ctx, c)
		if err != nil {
			return nil, err
		}
		findings.Classifications = append(findings.Classifications, cl)
		switch {
		case cl.Reason == ReasonEmpty:
			findings.Empty = append(findings.Empty, c.ID)
		case !cl.Kept():
			findings.Unused = append(findings.Unused, c.ID)
		}
	}

	s.logger.Infof("Found %d unused team sets (%d empty ids skipped)", len(findings.Unused), len(findings.Empty))
	return findings, nil
}

// Classify decides whether one candidate is still in use.
func (s *Scanner) Classify(ctx context.Context, c Candidate) (Classification, error) {
	cl := Classification{ID: c.ID}
	log := s.logger.WithTeamSet(c.ID)

	if c.IsEmpty() {
		cl.Reason = ReasonEmpty
		log.Debug("Empty team set id, not checked")
		return cl, nil
	}

	cl.Probes++
	isTeam, err := s.exists(ctx, s.tables.Teams, columnID, c.ID, true)
	if err != nil {
		return cl, err
	}
	if isTeam {
		cl.Reason = ReasonTeam
		log.Debug("Team set is a team's own set")
		return cl, nil
	}

	if s.keepLinked && c.Linked {
		cl.Reason = ReasonLinked
		log.Debug("Team set is still linked to a team")
		return cl, nil
	}

	tables := s.SearchableTables()
	s.shuffle(tables)

	for _, table := range tables {
		for _, column := range referenceColumns {
			cl.Probes++
			found, err := s.exists(ctx, table, column, c.ID, s.softDeleted[table])
			if err != nil {
				return cl, err
			}
			if found {
				cl.Reason = ReasonReference
				cl.Table = table
				cl.Column = column
				log.Debugf("Team set referenced by %s.%s", table, column)
				return cl, nil
			}
		}
	}

	cl.Reason = ReasonUnused
	log.Debugf("Team set unused after %d probes", cl.Probes)
	return cl, nil
}

// exists checks for one live row of table whose column equals id. It
// selects column itself, so the table needs no id column of its own.
func (s *Scanner) exists(ctx context.Context, table, column, id string, liveOnly bool) (bool, error) {
	if err := s.pause(ctx); err != nil {
		return false, err
	}

	var where []sqlutil.Cond
	if liveOnly {
		where = append(where, sqlutil.Eq(columnDeleted, 0))
	}
	where = append(where, sqlutil.Eq(column, id))

	rows, err := s.store.Select(ctx, sqlutil.Select{
		Column: column,
		Table:  table,
		Where:  where,
		Limit:  1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check %s.%s for team set %s: %w", table, column, id, err)
	}
	return len(rows) > 0, nil
}
