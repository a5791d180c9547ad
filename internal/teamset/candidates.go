package teamset

import (
	"context"
	"fmt"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

// Candidate is a team set id that may be unused.
type Candidate struct {
	ID string

	// Linked is set when a live team_sets_teams row carries the id.
	Linked bool
}

// IsEmpty reports whether the id is blank or zero. Empty ids are never
// probed and never written.
func (c Candidate) IsEmpty() bool {
	return isEmptyID(c.ID)
}

func isEmptyID(id string) bool {
	return id == "" || id == "0"
}

// linkQuery selects the distinct team set ids of live team_sets_teams rows.
func (s *Scanner) linkQuery() sqlutil.Select {
	return sqlutil.Select{
		Column: ColumnTeamSetID,
		Table:  s.tables.TeamSetsTeams,
		Where: []sqlutil.Cond{
			sqlutil.Eq(columnDeleted, 0),
			sqlutil.NotNull(ColumnTeamSetID),
		},
		GroupBy: ColumnTeamSetID,
	}
}

// Candidates returns the union of linked team set ids and live team set
// definitions with no link, deduplicated in first-seen order.
func (s *Scanner) Candidates(ctx context.Context) ([]Candidate, error) {
	s.logger.Info("Retrieving team set candidates")

	set := orderedmap.NewOrderedMap[string, Candidate]()

	linked, err := s.store.Select(ctx, s.linkQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list linked team sets: %w", err)
	}
	for _, id := range linked {
		set.Set(id, Candidate{ID: id, Linked: true})
	}

	definitions, err := s.store.Select(ctx, sqlutil.Select{
		Column: columnID,
		Table:  s.tables.TeamSets,
		Where: []sqlutil.Cond{
			sqlutil.Eq(columnDeleted, 0),
			sqlutil.NotIn(columnID, s.linkQuery()),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked team sets: %w", err)
	}
	for _, id := range definitions {
		if _, seen := set.Get(id); !seen {
			set.Set(id, Candidate{ID: id})
		}
	}

	candidates := make([]Candidate, 0, set.Len())
	for el := set.Front(); el != nil; el = el.Next() {
		candidates = append(candidates, el.Value)
	}

	n := countLinked(candidates)
	s.logger.Infof("Found %d team set candidates (%d linked, %d unlinked)", len(candidates), n, len(candidates)-n)
	return candidates, nil
}

func countLinked(candidates []Candidate) int {
	n := 0
	for _, c := range candidates {
		if c.Linked {
			n++
		}
	}
	return n
}
