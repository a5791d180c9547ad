// Package teamset finds team sets nothing refers to any more and
// soft-deletes them.
//
// A team set is in use when its id is also a team id, when a live row of
// any referencing table points at it through team_set_id or
// acl_team_set_id, or (unless disabled) when a live team_sets_teams row
// links it to a team. Every other team set is soft-deleted with one
// run-wide date_modified stamp, so the whole run can be reverted by
// matching that stamp.
package teamset

import (
	"context"
	"fmt"
	"time"

	"github.com/dbsmedya/teamsweep/internal/logger"
	"github.com/dbsmedya/teamsweep/internal/sqlutil"
)

// Column names of the team set schema.
const (
	ColumnTeamSetID    = "team_set_id"
	ColumnACLTeamSetID = "acl_team_set_id"

	columnID           = "id"
	columnDeleted      = "deleted"
	columnDateModified = "date_modified"
)

// StampLayout is the date_modified format written by a sweep.
const StampLayout = "2006-01-02 15:04:05"

// referenceColumns are probed in this order on every searchable table.
var referenceColumns = []string{ColumnTeamSetID, ColumnACLTeamSetID}

// Tables names the team set tables.
type Tables struct {
	TeamSets        string
	TeamSetsTeams   string
	TeamSetsModules string
	Teams           string
}

// DefaultTables returns the stock CRM table names.
func DefaultTables() Tables {
	return Tables{
		TeamSets:        "team_sets",
		TeamSetsTeams:   "team_sets_teams",
		TeamSetsModules: "team_sets_modules",
		Teams:           "teams",
	}
}

func (t Tables) validate() error {
	for _, name := range []string{t.TeamSets, t.TeamSetsTeams, t.TeamSetsModules, t.Teams} {
		if !sqlutil.IsValidIdentifier(name) {
			return &sqlutil.InvalidIdentifierError{Name: name}
		}
	}
	return nil
}

// Options configures a Scanner. Zero values select the production
// behaviour: random delays, random table order, wall clock.
type Options struct {
	Tables   Tables
	Excluded []string

	// MaxSleep bounds the pause taken before every query.
	MaxSleep time.Duration

	// KeepLinked keeps team sets that still have a live team_sets_teams row.
	KeepLinked bool

	Delay   DelayFunc
	Shuffle ShuffleFunc
	Now     func() time.Time

	// BeforeWrite runs before each soft delete, e.g. to wait on replica lag.
	BeforeWrite func(ctx context.Context) error

	Logger *logger.Logger
}

// Scanner runs one sweep. It is built once per run; the searchable tables
// and the run stamp are fixed at construction.
type Scanner struct {
	store       Store
	tables      Tables
	searchable  []string
	softDeleted map[string]bool // searchable tables that carry a deleted column
	maxSleep    time.Duration
	keepLinked  bool
	delay       DelayFunc
	shuffle     ShuffleFunc
	beforeWrite func(ctx context.Context) error
	stamp       string
	logger      *logger.Logger
}

// NewScanner discovers the tables that can reference team sets and captures
// the run stamp.
func NewScanner(ctx context.Context, store Store, opts Options) (*Scanner, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if opts.Tables == (Tables{}) {
		opts.Tables = DefaultTables()
	}
	if err := opts.Tables.validate(); err != nil {
		return nil, err
	}
	if opts.MaxSleep < 0 {
		return nil, fmt.Errorf("max sleep cannot be negative: %s", opts.MaxSleep)
	}
	if opts.Delay == nil {
		opts.Delay = RandomDelay
	}
	if opts.Shuffle == nil {
		opts.Shuffle = RandomShuffle
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewDefault()
	}

	s := &Scanner{
		store:       store,
		tables:      opts.Tables,
		softDeleted: make(map[string]bool),
		maxSleep:    opts.MaxSleep,
		keepLinked:  opts.KeepLinked,
		delay:       opts.Delay,
		shuffle:     opts.Shuffle,
		beforeWrite: opts.BeforeWrite,
		stamp:       opts.Now().UTC().Format(StampLayout),
	}
	s.logger = opts.Logger.WithRun(s.stamp)

	if err := s.discover(ctx, opts.Excluded); err != nil {
		return nil, err
	}
	return s, nil
}

// discover keeps every non-excluded table that has both reference columns.
func (s *Scanner) discover(ctx context.Context, excluded []string) error {
	s.logger.Info("Retrieving all SQL tables with team set references")

	all, err := s.store.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	for _, table := range all {
		if skip[table] {
			continue
		}
		if !sqlutil.IsValidIdentifier(table) {
			s.logger.Warnf("Skipping table %q: name is not a plain identifier", table)
			continue
		}

		columns, err := s.store.ListColumns(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to list columns of %s: %w", table, err)
		}
		if !columns[ColumnTeamSetID] || !columns[ColumnACLTeamSetID] {
			continue
		}

		s.searchable = append(s.searchable, table)
		s.softDeleted[table] = columns[columnDeleted]
		if !columns[columnDeleted] {
			s.logger.WithTable(table).Debug("Table has no deleted column, every row counts as live")
		}
	}

	s.logger.Infof("Found %d tables referencing team sets", len(s.searchable))
	return nil
}

// SearchableTables returns the discovered referencing tables in discovery
// order.
func (s *Scanner) SearchableTables() []string {
	return append([]string(nil), s.searchable...)
}

// Stamp returns the date_modified value this run writes.
func (s *Scanner) Stamp() string {
	return s.stamp
}

// Tables returns the team set table names.
func (s *Scanner) Tables() Tables {
	return s.tables
}

// pause sleeps for the configured random delay.
func (s *Scanner) pause(ctx context.Context) error {
	return sleepContext(ctx, s.delay(s.maxSleep))
}
