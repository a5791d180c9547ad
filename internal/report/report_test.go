package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/teamsweep/internal/teamset"
)

func TestClassifications(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Classifications([]teamset.Classification{
		{ID: "1", Reason: teamset.ReasonLinked, Probes: 1},
		{ID: "2", Reason: teamset.ReasonReference, Table: "accounts", Column: "acl_team_set_id", Probes: 3},
		{ID: "4", Reason: teamset.ReasonUnused, Probes: 5},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "Team Set Classification")
	assert.Equal(t, "  TEAM SET  VERDICT  REASON     REFERENCED BY             PROBES", lines[2])
	assert.Equal(t, "  2         KEEP     reference  accounts.acl_team_set_id  3", lines[4])
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[5]), "4"))
	assert.Contains(t, lines[5], "SWEEP")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestClassifications_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).Classifications(nil)
	assert.Contains(t, buf.String(), "No team set candidates.")
}

func TestClassifications_TruncatesLongIDs(t *testing.T) {
	var buf bytes.Buffer
	long := strings.Repeat("f", 64)
	NewPrinter(&buf, false).Classifications([]teamset.Classification{{ID: long, Reason: teamset.ReasonUnused}})

	assert.NotContains(t, buf.String(), long)
	assert.Contains(t, buf.String(), "…")
}

func TestSummary(t *testing.T) {
	findings := &teamset.Findings{
		Candidates: []teamset.Candidate{{ID: "1"}, {ID: "2"}, {ID: "0"}},
		Classifications: []teamset.Classification{
			{ID: "1", Reason: teamset.ReasonTeam},
			{ID: "2", Reason: teamset.ReasonUnused},
			{ID: "0", Reason: teamset.ReasonEmpty},
		},
		Unused: []string{"2"},
		Empty:  []string{"0"},
	}

	t.Run("scan", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf, false).Summary(findings, []string{"accounts"}, "", nil)
		out := buf.String()
		assert.Contains(t, out, "Referencing tables: 1")
		assert.Contains(t, out, "Candidates: 3")
		assert.Contains(t, out, "kept (team): 1")
		assert.Contains(t, out, "Unused: 1\n")
		assert.Contains(t, out, "Empty ids (not written): 1")
		assert.Contains(t, out, "Mode: scan")
	})

	t.Run("sweep", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf, false).Summary(findings, []string{"accounts"}, "2026-10-14 09:30:00",
			map[string]int64{"team_sets_teams": 0, "team_sets": 1})
		out := buf.String()
		assert.Contains(t, out, "Run stamp: 2026-10-14 09:30:00")
		assert.Less(t, strings.Index(out, "in team_sets:"), strings.Index(out, "in team_sets_teams:"))
		assert.NotContains(t, out, "Mode: scan")
	})

	t.Run("no empty ids", func(t *testing.T) {
		var buf bytes.Buffer
		NewPrinter(&buf, false).Summary(&teamset.Findings{Unused: []string{"2"}}, nil, "", nil)
		assert.NotContains(t, buf.String(), "Empty ids")
	})
}

func TestTables(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Tables([]string{"accounts", "calls"})
	assert.Contains(t, buf.String(), "  1. accounts\n  2. calls\n")

	buf.Reset()
	p.Tables(nil)
	assert.Contains(t, buf.String(), "None found.")
}

func TestStatements(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).Statements("Revert Statements", []string{"UPDATE a SET x = 0", "UPDATE b SET x = 0"})
	assert.Contains(t, buf.String(), "UPDATE a SET x = 0;\nUPDATE b SET x = 0;\n")
}

func TestStatements_Colored(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, true).Statements("Purge Statements", []string{"DELETE FROM a WHERE deleted = 1"})
	assert.Contains(t, buf.String(), "DELETE FROM a WHERE deleted = 1;")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteStatements(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatements(&buf, "revert run 2026-10-14 09:30:00", []string{"UPDATE a SET x = 0"}))
	assert.Equal(t, "-- revert run 2026-10-14 09:30:00\nUPDATE a SET x = 0;\n", buf.String())

	assert.Error(t, WriteStatements(failingWriter{}, "x", []string{"y"}))
}
